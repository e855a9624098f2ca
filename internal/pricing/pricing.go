// Package pricing turns slicer output plus the material catalog into a
// customer-facing price breakdown. Calculate is a pure function of its inputs.
package pricing

import (
	"errors"
	"fmt"
	"math"

	"printquote/internal/catalog"
)

var (
	ErrUnknownMaterial = errors.New("unknown material")
	ErrUnknownColor    = errors.New("unknown color")
)

// Input carries everything the calculation needs besides the catalog.
type Input struct {
	MaterialID     string
	ColorID        string
	QualityID      string
	FilamentGrams  float64
	PrintTime      string // compound duration, e.g. "2d 3h 45m 30s"
	EnableSupports bool
}

// PriceInfo is the breakdown attached to a job result. Error is set instead of
// the numeric fields when the material or color cannot be resolved.
type PriceInfo struct {
	MaterialCost        float64 `json:"material_cost"`
	TimeCost            float64 `json:"time_cost"`
	BasePrice           float64 `json:"base_price"`
	BasePriceWithMarkup float64 `json:"base_price_with_markup"`
	ColorAddon          float64 `json:"color_addon"`
	MaterialModifier    float64 `json:"material_modifier"`
	QualityModifier     float64 `json:"quality_modifier"`
	TotalPrice          float64 `json:"total_price"`
	Error               string  `json:"error,omitempty"`
}

// Calculate computes the price breakdown for one sliced job. On an unknown
// material or color it returns a zero breakdown and the sentinel error; the
// caller embeds the error in the job result rather than failing the job.
func Calculate(cat *catalog.Catalog, in Input) (PriceInfo, error) {
	mat := cat.Material(in.MaterialID)
	if mat == nil {
		return PriceInfo{}, fmt.Errorf("%w: %q", ErrUnknownMaterial, in.MaterialID)
	}
	col := mat.Color(in.ColorID)
	if col == nil {
		return PriceInfo{}, fmt.Errorf("%w: %q in material %q", ErrUnknownColor, in.ColorID, in.MaterialID)
	}

	g := cat.GlobalSettings

	materialCost := in.FilamentGrams * mat.BaseCostPerGram
	if in.EnableSupports {
		materialCost *= g.SupportMaterialMultiplier
	}

	hours := ParsePrintTime(in.PrintTime)
	timeCost := hours * mat.HourlyRate

	basePrice := materialCost + timeCost
	if basePrice < g.MinimumPrice {
		basePrice = g.MinimumPrice
	}

	withMarkup := basePrice * (1 + g.Markup()/100)
	qualityMod := g.QualityModifier(in.QualityID)
	total := withMarkup + col.AddonPrice + mat.PriceModifier + qualityMod

	return PriceInfo{
		MaterialCost:        round2(materialCost),
		TimeCost:            round2(timeCost),
		BasePrice:           round2(basePrice),
		BasePriceWithMarkup: round2(withMarkup),
		ColorAddon:          round2(col.AddonPrice),
		MaterialModifier:    round2(mat.PriceModifier),
		QualityModifier:     round2(qualityMod),
		TotalPrice:          round2(total),
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
