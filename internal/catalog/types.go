package catalog

// Color is one printable color of a material. AddonPrice is added flat to the
// final quote.
type Color struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Hex        string  `json:"hex"`
	AddonPrice float64 `json:"addon_price"`
}

// Material holds the per-material pricing inputs. PriceModifier is an optional
// flat adjustment, zero when absent.
type Material struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Properties      []string `json:"properties,omitempty"`
	BaseCostPerGram float64  `json:"base_cost_per_gram"`
	HourlyRate      float64  `json:"hourly_rate"`
	PriceModifier   float64  `json:"price_modifier,omitempty"`
	Colors          []Color  `json:"colors"`
}

// QualityLevel is a selectable print quality with a flat price modifier.
type QualityLevel struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	LayerHeight   string  `json:"layer_height"`
	Description   string  `json:"description"`
	PriceModifier float64 `json:"price_modifier"`
}

// GlobalSettings are the catalog-wide pricing knobs. MarkupPercentage is
// optional; Markup() applies the documented default of 30%.
type GlobalSettings struct {
	SupportMaterialMultiplier float64        `json:"support_material_multiplier"`
	MinimumPrice              float64        `json:"minimum_price"`
	DefaultFillDensity        float64        `json:"default_fill_density"`
	MarkupPercentage          *float64       `json:"markup_percentage,omitempty"`
	QualityLevels             []QualityLevel `json:"quality_levels,omitempty"`
}

const defaultMarkupPercentage = 30.0

// Markup returns the configured markup percentage, or 30 when unset.
func (g GlobalSettings) Markup() float64 {
	if g.MarkupPercentage == nil {
		return defaultMarkupPercentage
	}
	return *g.MarkupPercentage
}

// Catalog is the full materials/pricing reference document.
type Catalog struct {
	Materials      []Material     `json:"materials"`
	GlobalSettings GlobalSettings `json:"global_settings"`
}

// Material looks up a material by id, nil if absent.
func (c *Catalog) Material(id string) *Material {
	for i := range c.Materials {
		if c.Materials[i].ID == id {
			return &c.Materials[i]
		}
	}
	return nil
}

// Color looks up a color by id within the material, nil if absent.
func (m *Material) Color(id string) *Color {
	for i := range m.Colors {
		if m.Colors[i].ID == id {
			return &m.Colors[i]
		}
	}
	return nil
}

// QualityModifier returns the price modifier for the given quality id, or 0
// when the id is empty, unknown, or no quality levels are configured.
func (g GlobalSettings) QualityModifier(id string) float64 {
	if id == "" {
		return 0
	}
	for _, q := range g.QualityLevels {
		if q.ID == id {
			return q.PriceModifier
		}
	}
	return 0
}

// Clone returns a deep copy so pricing always sees a consistent snapshot even
// if an admin replaces the catalog mid-job.
func (c *Catalog) Clone() *Catalog {
	out := &Catalog{
		Materials:      make([]Material, len(c.Materials)),
		GlobalSettings: c.GlobalSettings,
	}
	for i, m := range c.Materials {
		cm := m
		cm.Properties = append([]string(nil), m.Properties...)
		cm.Colors = append([]Color(nil), m.Colors...)
		out.Materials[i] = cm
	}
	if c.GlobalSettings.MarkupPercentage != nil {
		v := *c.GlobalSettings.MarkupPercentage
		out.GlobalSettings.MarkupPercentage = &v
	}
	out.GlobalSettings.QualityLevels = append([]QualityLevel(nil), c.GlobalSettings.QualityLevels...)
	return out
}
