package models

// PropertyDraft is the in-memory, not yet persisted form state of one wizard
// session. Numeric and currency fields keep their masked display form
// ("R$ 500.000,00", "120,00") until the payload is built.
type PropertyDraft struct {
	Basic           BasicInfo       `json:"basic"`
	Location        Location        `json:"location"`
	Characteristics Characteristics `json:"characteristics"`
	Pricing         Pricing         `json:"pricing"`
	Clients         Clients         `json:"clients"`
	MCMV            MCMV            `json:"mcmv"`
	Owner           Owner           `json:"owner"`
}

type BasicInfo struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Type          string   `json:"type"`
	Status        string   `json:"status"`
	CaptorIDs     []string `json:"captor_ids"`
	AIAssist      bool     `json:"ai_assist"`
	IsActive      bool     `json:"is_active"`
	PublicSite    bool     `json:"public_site"`
	CondominiumID string   `json:"condominium_id"`
}

// Place is an option picked from a structured list (state or city), as
// opposed to free text typed into the address fields.
type Place struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type Location struct {
	PostalCode    string           `json:"postal_code"`
	Street        string           `json:"street"`
	Number        string           `json:"number"`
	Complements   []ComplementItem `json:"complements"`
	Neighborhood  string           `json:"neighborhood"`
	City          string           `json:"city"`
	State         string           `json:"state"`
	SelectedState *Place           `json:"selected_state"`
	SelectedCity  *Place           `json:"selected_city"`
}

type Characteristics struct {
	TotalArea    string   `json:"total_area"`
	BuiltArea    string   `json:"built_area"`
	Bedrooms     int      `json:"bedrooms"`
	Suites       int      `json:"suites"`
	Bathrooms    int      `json:"bathrooms"`
	ParkingSpots int      `json:"parking_spots"`
	Features     []string `json:"features"`
}

type Pricing struct {
	SalePrice          string `json:"sale_price"`
	RentPrice          string `json:"rent_price"`
	MinSalePrice       string `json:"min_sale_price"`
	MinRentPrice       string `json:"min_rent_price"`
	CondoFee           string `json:"condo_fee"`
	PropertyTax        string `json:"property_tax"`
	AcceptsNegotiation bool   `json:"accepts_negotiation"`
	AcceptsFinancing   bool   `json:"accepts_financing"`
	AcceptsExchange    bool   `json:"accepts_exchange"`
}

type Clients struct {
	ClientIDs []string `json:"client_ids"`
}

// MCMV holds the "Minha Casa Minha Vida" housing program fields.
type MCMV struct {
	Eligible    bool   `json:"eligible"`
	IncomeRange string `json:"income_range"`
	MaxValue    string `json:"max_value"`
}

type Owner struct {
	Name         string           `json:"name"`
	Email        string           `json:"email"`
	Phone        string           `json:"phone"`
	Document     string           `json:"document"`
	PostalCode   string           `json:"postal_code"`
	Street       string           `json:"street"`
	Number       string           `json:"number"`
	Complements  []ComplementItem `json:"complements"`
	Neighborhood string           `json:"neighborhood"`
	City         string           `json:"city"`
	State        string           `json:"state"`
}

// Clone returns a deep copy so snapshots never alias the controller's slices.
func (d PropertyDraft) Clone() PropertyDraft {
	out := d
	out.Basic.CaptorIDs = append([]string(nil), d.Basic.CaptorIDs...)
	out.Location.Complements = append([]ComplementItem(nil), d.Location.Complements...)
	if d.Location.SelectedState != nil {
		s := *d.Location.SelectedState
		out.Location.SelectedState = &s
	}
	if d.Location.SelectedCity != nil {
		c := *d.Location.SelectedCity
		out.Location.SelectedCity = &c
	}
	out.Characteristics.Features = append([]string(nil), d.Characteristics.Features...)
	out.Clients.ClientIDs = append([]string(nil), d.Clients.ClientIDs...)
	out.Owner.Complements = append([]ComplementItem(nil), d.Owner.Complements...)
	return out
}
