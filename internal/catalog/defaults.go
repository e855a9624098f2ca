package catalog

// Defaults returns the compiled-in catalog used when no catalog file exists yet
// or the persisted one cannot be parsed.
func Defaults() *Catalog {
	return &Catalog{
		Materials: []Material{
			{
				ID:              "pla",
				Name:            "PLA",
				Description:     "Easy to print, biodegradable, good for decorative parts",
				Properties:      []string{"rigid", "biodegradable", "low-warp"},
				BaseCostPerGram: 0.05,
				HourlyRate:      2.0,
				Colors: []Color{
					{ID: "black", Name: "Black", Hex: "#1a1a1a", AddonPrice: 0},
					{ID: "white", Name: "White", Hex: "#f5f5f5", AddonPrice: 0},
					{ID: "gray", Name: "Gray", Hex: "#9e9e9e", AddonPrice: 0},
					{ID: "red", Name: "Red", Hex: "#d32f2f", AddonPrice: 0.5},
					{ID: "blue", Name: "Blue", Hex: "#1976d2", AddonPrice: 0.5},
				},
			},
			{
				ID:              "petg",
				Name:            "PETG",
				Description:     "Strong and temperature resistant, good for functional parts",
				Properties:      []string{"strong", "heat-resistant", "food-safe"},
				BaseCostPerGram: 0.06,
				HourlyRate:      2.5,
				Colors: []Color{
					{ID: "black", Name: "Black", Hex: "#1a1a1a", AddonPrice: 0},
					{ID: "white", Name: "White", Hex: "#f5f5f5", AddonPrice: 0},
					{ID: "clear", Name: "Clear", Hex: "#e0f7fa", AddonPrice: 1.0},
				},
			},
			{
				ID:              "abs",
				Name:            "ABS",
				Description:     "Durable and impact resistant, handles higher temperatures",
				Properties:      []string{"durable", "impact-resistant"},
				BaseCostPerGram: 0.055,
				HourlyRate:      2.5,
				PriceModifier:   1.0,
				Colors: []Color{
					{ID: "black", Name: "Black", Hex: "#1a1a1a", AddonPrice: 0},
					{ID: "white", Name: "White", Hex: "#f5f5f5", AddonPrice: 0},
				},
			},
		},
		GlobalSettings: GlobalSettings{
			SupportMaterialMultiplier: 1.2,
			MinimumPrice:              5.0,
			DefaultFillDensity:        0.15,
			QualityLevels: []QualityLevel{
				{ID: "draft", Name: "Draft", LayerHeight: "0.28mm", Description: "Fast, visible layers", PriceModifier: -2.0},
				{ID: "standard", Name: "Standard", LayerHeight: "0.20mm", Description: "Balanced speed and finish", PriceModifier: 0},
				{ID: "fine", Name: "Fine", LayerHeight: "0.12mm", Description: "Slow, smooth finish", PriceModifier: 5.0},
			},
		},
	}
}
