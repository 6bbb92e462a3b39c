package generation

import (
	"fmt"
	"strings"

	"realtywizard/server/internal/masks"
	"realtywizard/server/internal/models"
)

// BuildRequest collects the draft facts for the generator. MCMV fields are
// included only when the property is eligible and the tenant has the module.
func BuildRequest(draft models.PropertyDraft, mcmvEnabled bool) (models.GenerationRequest, error) {
	var missing []string
	if strings.TrimSpace(draft.Basic.Type) == "" {
		missing = append(missing, "property type")
	}
	if strings.TrimSpace(draft.Location.City) == "" {
		missing = append(missing, "city")
	}
	total, ok := masks.ParseDecimal(draft.Characteristics.TotalArea)
	if !masks.Present(draft.Characteristics.TotalArea) || !ok {
		missing = append(missing, "total area")
	}
	if len(missing) > 0 {
		return models.GenerationRequest{}, fmt.Errorf("%w: %s", ErrMissingInputs, strings.Join(missing, ", "))
	}

	req := models.GenerationRequest{
		PropertyType: draft.Basic.Type,
		City:         strings.TrimSpace(draft.Location.City),
		State:        strings.TrimSpace(draft.Location.State),
		Neighborhood: strings.TrimSpace(draft.Location.Neighborhood),
		TotalArea:    total,
		Bedrooms:     draft.Characteristics.Bedrooms,
		Suites:       draft.Characteristics.Suites,
		Bathrooms:    draft.Characteristics.Bathrooms,
		ParkingSpots: draft.Characteristics.ParkingSpots,
		Features:     append([]string(nil), draft.Characteristics.Features...),
	}
	if v, ok := masks.Positive(draft.Characteristics.BuiltArea); ok {
		req.BuiltArea = v
	}
	if v, ok := masks.Positive(draft.Pricing.SalePrice); ok {
		req.SalePrice = v
	}
	if v, ok := masks.Positive(draft.Pricing.RentPrice); ok {
		req.RentPrice = v
	}

	if mcmvEnabled && draft.MCMV.Eligible {
		req.MCMVEligible = true
		req.MCMVIncomeRange = draft.MCMV.IncomeRange
		if v, ok := masks.Positive(draft.MCMV.MaxValue); ok {
			req.MCMVMaxValue = v
		}
	}
	return req, nil
}
