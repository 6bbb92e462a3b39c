package persistence

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"realtywizard/server/config"
	"realtywizard/server/internal/masks"
	"realtywizard/server/internal/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("property_status", func(fl validator.FieldLevel) bool {
		return models.ValidStatus(fl.Field().String())
	})
	return v
}

// BuildPayload converts a draft into the outbound create/update payload.
// Masked numbers become float64, complements are serialized and
// AcceptsNegotiation is only kept when a minimum price is actually set.
func BuildPayload(draft models.PropertyDraft, tenantID string) (models.PropertyPayload, error) {
	b, l, c, p := draft.Basic, draft.Location, draft.Characteristics, draft.Pricing
	postal, _ := masks.PostalCode(l.PostalCode)
	ownerPostal, _ := masks.PostalCode(draft.Owner.PostalCode)
	total, _ := masks.ParseDecimal(c.TotalArea)

	state := strings.TrimSpace(l.State)
	if l.SelectedState != nil && l.SelectedState.Code != "" {
		state = l.SelectedState.Code
	}

	payload := models.PropertyPayload{
		TenantID:      tenantID,
		Title:         strings.TrimSpace(b.Title),
		Description:   strings.TrimSpace(b.Description),
		PropertyType:  b.Type,
		Status:        strings.ToLower(strings.TrimSpace(b.Status)),
		IsActive:      b.IsActive,
		PublicSite:    b.PublicSite,
		CondominiumID: b.CondominiumID,
		CaptorIDs:     nonBlank(b.CaptorIDs),
		ClientIDs:     nonBlank(draft.Clients.ClientIDs),

		PostalCode:   postal,
		Street:       strings.TrimSpace(l.Street),
		Number:       strings.TrimSpace(l.Number),
		Complement:   models.SerializeComplements(l.Complements),
		Neighborhood: strings.TrimSpace(l.Neighborhood),
		City:         strings.TrimSpace(l.City),
		State:        state,

		TotalArea:    total,
		BuiltArea:    positive(c.BuiltArea),
		Bedrooms:     c.Bedrooms,
		Suites:       c.Suites,
		Bathrooms:    c.Bathrooms,
		ParkingSpots: c.ParkingSpots,
		Features:     nonBlank(c.Features),

		SalePrice:        positive(p.SalePrice),
		RentPrice:        positive(p.RentPrice),
		MinSalePrice:     positive(p.MinSalePrice),
		MinRentPrice:     positive(p.MinRentPrice),
		CondoFee:         masks.Optional(p.CondoFee),
		PropertyTax:      masks.Optional(p.PropertyTax),
		AcceptsFinancing: p.AcceptsFinancing,
		AcceptsExchange:  p.AcceptsExchange,

		OwnerName:         strings.TrimSpace(draft.Owner.Name),
		OwnerEmail:        strings.TrimSpace(draft.Owner.Email),
		OwnerPhone:        strings.TrimSpace(draft.Owner.Phone),
		OwnerDocument:     strings.TrimSpace(draft.Owner.Document),
		OwnerPostalCode:   ownerPostal,
		OwnerStreet:       strings.TrimSpace(draft.Owner.Street),
		OwnerNumber:       strings.TrimSpace(draft.Owner.Number),
		OwnerComplement:   models.SerializeComplements(draft.Owner.Complements),
		OwnerNeighborhood: strings.TrimSpace(draft.Owner.Neighborhood),
		OwnerCity:         strings.TrimSpace(draft.Owner.City),
		OwnerState:        strings.TrimSpace(draft.Owner.State),
	}

	payload.AcceptsNegotiation = p.AcceptsNegotiation && (payload.MinSalePrice != nil || payload.MinRentPrice != nil)

	if draft.MCMV.Eligible {
		payload.MCMVEligible = true
		payload.MCMVIncomeRange = draft.MCMV.IncomeRange
		payload.MCMVMaxValue = positive(draft.MCMV.MaxValue)
	}

	if err := validate.Struct(payload); err != nil {
		return models.PropertyPayload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return payload, nil
}

// DraftFromProperty seeds an edit session from a persisted property, turning
// numbers back into their masked display form.
func DraftFromProperty(p *models.Property) models.PropertyDraft {
	d := models.PropertyDraft{
		Basic: models.BasicInfo{
			Title:         p.Title,
			Description:   p.Description,
			Type:          p.PropertyType,
			Status:        p.Status,
			CaptorIDs:     splitList(p.CaptorIDs),
			IsActive:      p.IsActive,
			PublicSite:    p.PublicSite,
			CondominiumID: p.CondominiumID,
		},
		Location: models.Location{
			PostalCode:   p.PostalCode,
			Street:       p.Street,
			Number:       p.Number,
			Complements:  models.ParseComplements(p.Complement),
			Neighborhood: p.Neighborhood,
			City:         p.City,
			State:        p.State,
		},
		Characteristics: models.Characteristics{
			TotalArea:    masks.FormatDecimal(p.TotalArea),
			BuiltArea:    masks.FormatOptional(p.BuiltArea, false),
			Bedrooms:     p.Bedrooms,
			Suites:       p.Suites,
			Bathrooms:    p.Bathrooms,
			ParkingSpots: p.ParkingSpots,
			Features:     splitList(p.Features),
		},
		Pricing: models.Pricing{
			SalePrice:          masks.FormatOptional(p.SalePrice, true),
			RentPrice:          masks.FormatOptional(p.RentPrice, true),
			MinSalePrice:       masks.FormatOptional(p.MinSalePrice, true),
			MinRentPrice:       masks.FormatOptional(p.MinRentPrice, true),
			CondoFee:           masks.FormatOptional(p.CondoFee, true),
			PropertyTax:        masks.FormatOptional(p.PropertyTax, true),
			AcceptsNegotiation: p.AcceptsNegotiation,
			AcceptsFinancing:   p.AcceptsFinancing,
			AcceptsExchange:    p.AcceptsExchange,
		},
		Clients: models.Clients{ClientIDs: splitList(p.ClientIDs)},
		MCMV: models.MCMV{
			Eligible:    p.MCMVEligible,
			IncomeRange: p.MCMVIncomeRange,
			MaxValue:    masks.FormatOptional(p.MCMVMaxValue, true),
		},
		Owner: models.Owner{
			Name:         p.OwnerName,
			Email:        p.OwnerEmail,
			Phone:        p.OwnerPhone,
			Document:     p.OwnerDocument,
			PostalCode:   p.OwnerPostalCode,
			Street:       p.OwnerStreet,
			Number:       p.OwnerNumber,
			Complements:  models.ParseComplements(p.OwnerComplement),
			Neighborhood: p.OwnerNeighborhood,
			City:         p.OwnerCity,
			State:        p.OwnerState,
		},
	}

	// persisted values were selected from the structured lists when saved
	if st := config.GetState(p.State); st != nil {
		d.Location.SelectedState = &models.Place{Code: st.Code, Name: st.Name}
	}
	if strings.TrimSpace(p.City) != "" {
		d.Location.SelectedCity = &models.Place{Name: p.City}
	}
	return d
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return nonBlank(strings.Split(s, ","))
}

func nonBlank(items []string) []string {
	var out []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func positive(s string) *float64 {
	v, ok := masks.Positive(s)
	if !ok {
		return nil
	}
	return &v
}
