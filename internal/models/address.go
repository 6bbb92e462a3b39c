package models

// PostalAddress is the result of a postal code (CEP) lookup.
type PostalAddress struct {
	PostalCode   string `json:"postal_code"`
	Street       string `json:"street"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	CityCode     string `json:"city_code"`
	State        string `json:"state"`
}
