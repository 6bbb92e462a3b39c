package models

import "strings"

// PropertyPayload is the canonical outbound representation of a draft used
// for create and update calls. Numbers are already unmasked.
type PropertyPayload struct {
	TenantID string `json:"tenant_id" validate:"required"`

	Title         string   `json:"title"`
	Description   string   `json:"description"`
	PropertyType  string   `json:"property_type" validate:"required"`
	Status        string   `json:"status" validate:"required,property_status"`
	IsActive      bool     `json:"is_active"`
	PublicSite    bool     `json:"public_site"`
	CondominiumID string   `json:"condominium_id,omitempty"`
	CaptorIDs     []string `json:"captor_ids" validate:"required,min=1,dive,required"`
	ClientIDs     []string `json:"client_ids,omitempty" validate:"dive,required"`

	PostalCode   string `json:"postal_code" validate:"required,len=8,numeric"`
	Street       string `json:"street" validate:"required"`
	Number       string `json:"number" validate:"required"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood" validate:"required"`
	City         string `json:"city" validate:"required"`
	State        string `json:"state" validate:"required"`

	TotalArea    float64  `json:"total_area" validate:"gt=0"`
	BuiltArea    *float64 `json:"built_area,omitempty" validate:"omitempty,gt=0"`
	Bedrooms     int      `json:"bedrooms" validate:"gte=0"`
	Suites       int      `json:"suites" validate:"gte=0"`
	Bathrooms    int      `json:"bathrooms" validate:"gte=0"`
	ParkingSpots int      `json:"parking_spots" validate:"gte=0"`
	Features     []string `json:"features,omitempty"`

	SalePrice          *float64 `json:"sale_price,omitempty" validate:"omitempty,gt=0"`
	RentPrice          *float64 `json:"rent_price,omitempty" validate:"omitempty,gt=0"`
	MinSalePrice       *float64 `json:"min_sale_price,omitempty" validate:"omitempty,gt=0"`
	MinRentPrice       *float64 `json:"min_rent_price,omitempty" validate:"omitempty,gt=0"`
	CondoFee           *float64 `json:"condo_fee,omitempty" validate:"omitempty,gte=0"`
	PropertyTax        *float64 `json:"property_tax,omitempty" validate:"omitempty,gte=0"`
	AcceptsNegotiation bool     `json:"accepts_negotiation"`
	AcceptsFinancing   bool     `json:"accepts_financing"`
	AcceptsExchange    bool     `json:"accepts_exchange"`

	MCMVEligible    bool     `json:"mcmv_eligible"`
	MCMVIncomeRange string   `json:"mcmv_income_range,omitempty"`
	MCMVMaxValue    *float64 `json:"mcmv_max_value,omitempty" validate:"omitempty,gt=0"`

	OwnerName         string `json:"owner_name" validate:"required"`
	OwnerEmail        string `json:"owner_email" validate:"required,contains=@"`
	OwnerPhone        string `json:"owner_phone" validate:"required"`
	OwnerDocument     string `json:"owner_document" validate:"required"`
	OwnerPostalCode   string `json:"owner_postal_code" validate:"required,len=8,numeric"`
	OwnerStreet       string `json:"owner_street" validate:"required"`
	OwnerNumber       string `json:"owner_number" validate:"required"`
	OwnerComplement   string `json:"owner_complement,omitempty"`
	OwnerNeighborhood string `json:"owner_neighborhood" validate:"required"`
	OwnerCity         string `json:"owner_city" validate:"required"`
	OwnerState        string `json:"owner_state,omitempty"`
}

// Apply copies a payload onto the persisted record. Identity, images and
// geocoding fields are left untouched.
func (p *Property) Apply(payload PropertyPayload) {
	p.TenantID = payload.TenantID
	p.Title = payload.Title
	p.Description = payload.Description
	p.PropertyType = payload.PropertyType
	p.Status = payload.Status
	p.IsActive = payload.IsActive
	p.PublicSite = payload.PublicSite
	p.CondominiumID = payload.CondominiumID
	p.CaptorIDs = strings.Join(payload.CaptorIDs, ",")
	p.ClientIDs = strings.Join(payload.ClientIDs, ",")

	p.PostalCode = payload.PostalCode
	p.Street = payload.Street
	p.Number = payload.Number
	p.Complement = payload.Complement
	p.Neighborhood = payload.Neighborhood
	p.City = payload.City
	p.State = payload.State

	p.TotalArea = payload.TotalArea
	p.BuiltArea = payload.BuiltArea
	p.Bedrooms = payload.Bedrooms
	p.Suites = payload.Suites
	p.Bathrooms = payload.Bathrooms
	p.ParkingSpots = payload.ParkingSpots
	p.Features = strings.Join(payload.Features, ",")

	p.SalePrice = payload.SalePrice
	p.RentPrice = payload.RentPrice
	p.MinSalePrice = payload.MinSalePrice
	p.MinRentPrice = payload.MinRentPrice
	p.CondoFee = payload.CondoFee
	p.PropertyTax = payload.PropertyTax
	p.AcceptsNegotiation = payload.AcceptsNegotiation
	p.AcceptsFinancing = payload.AcceptsFinancing
	p.AcceptsExchange = payload.AcceptsExchange

	p.MCMVEligible = payload.MCMVEligible
	p.MCMVIncomeRange = payload.MCMVIncomeRange
	p.MCMVMaxValue = payload.MCMVMaxValue

	p.OwnerName = payload.OwnerName
	p.OwnerEmail = payload.OwnerEmail
	p.OwnerPhone = payload.OwnerPhone
	p.OwnerDocument = payload.OwnerDocument
	p.OwnerPostalCode = payload.OwnerPostalCode
	p.OwnerStreet = payload.OwnerStreet
	p.OwnerNumber = payload.OwnerNumber
	p.OwnerComplement = payload.OwnerComplement
	p.OwnerNeighborhood = payload.OwnerNeighborhood
	p.OwnerCity = payload.OwnerCity
	p.OwnerState = payload.OwnerState
}
