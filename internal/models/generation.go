package models

// DescriptionVariant is one AI-generated title/description/highlights triple.
// Variants are never modified after they are produced.
type DescriptionVariant struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Highlights  []string `json:"highlights"`
}

// GenerationRequest carries the draft facts sent to the description generator.
type GenerationRequest struct {
	PropertyType string   `json:"property_type"`
	City         string   `json:"city"`
	State        string   `json:"state,omitempty"`
	Neighborhood string   `json:"neighborhood,omitempty"`
	TotalArea    float64  `json:"total_area"`
	BuiltArea    float64  `json:"built_area,omitempty"`
	Bedrooms     int      `json:"bedrooms,omitempty"`
	Suites       int      `json:"suites,omitempty"`
	Bathrooms    int      `json:"bathrooms,omitempty"`
	ParkingSpots int      `json:"parking_spots,omitempty"`
	SalePrice    float64  `json:"sale_price,omitempty"`
	RentPrice    float64  `json:"rent_price,omitempty"`
	Features     []string `json:"features,omitempty"`

	MCMVEligible    bool    `json:"mcmv_eligible,omitempty"`
	MCMVIncomeRange string  `json:"mcmv_income_range,omitempty"`
	MCMVMaxValue    float64 `json:"mcmv_max_value,omitempty"`
}
