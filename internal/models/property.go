package models

import (
	"strings"
	"time"
)

// Property is the persisted listing produced by a finished wizard session.
type Property struct {
	ID       string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	TenantID string `gorm:"type:varchar(64);not null;index" json:"tenant_id"`

	Title         string `json:"title"`
	Description   string `json:"description"`
	PropertyType  string `gorm:"index" json:"property_type"`
	Status        string `gorm:"index" json:"status"`
	IsActive      bool   `json:"is_active"`
	PublicSite    bool   `json:"public_site"`
	CondominiumID string `json:"condominium_id"`
	CaptorIDs     string `json:"captor_ids"`
	ClientIDs     string `json:"client_ids"`

	PostalCode   string `json:"postal_code"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood"`
	City         string `gorm:"index" json:"city"`
	State        string `json:"state"`

	TotalArea    float64  `json:"total_area"`
	BuiltArea    *float64 `json:"built_area"`
	Bedrooms     int      `json:"bedrooms"`
	Suites       int      `json:"suites"`
	Bathrooms    int      `json:"bathrooms"`
	ParkingSpots int      `json:"parking_spots"`
	Features     string   `json:"features"`

	SalePrice          *float64 `json:"sale_price"`
	RentPrice          *float64 `json:"rent_price"`
	MinSalePrice       *float64 `json:"min_sale_price"`
	MinRentPrice       *float64 `json:"min_rent_price"`
	CondoFee           *float64 `json:"condo_fee"`
	PropertyTax        *float64 `json:"property_tax"`
	AcceptsNegotiation bool     `json:"accepts_negotiation"`
	AcceptsFinancing   bool     `json:"accepts_financing"`
	AcceptsExchange    bool     `json:"accepts_exchange"`

	MCMVEligible    bool     `json:"mcmv_eligible"`
	MCMVIncomeRange string   `json:"mcmv_income_range"`
	MCMVMaxValue    *float64 `json:"mcmv_max_value"`

	OwnerName         string `json:"owner_name"`
	OwnerEmail        string `json:"owner_email"`
	OwnerPhone        string `json:"owner_phone"`
	OwnerDocument     string `json:"owner_document"`
	OwnerPostalCode   string `json:"owner_postal_code"`
	OwnerStreet       string `json:"owner_street"`
	OwnerNumber       string `json:"owner_number"`
	OwnerComplement   string `json:"owner_complement"`
	OwnerNeighborhood string `json:"owner_neighborhood"`
	OwnerCity         string `json:"owner_city"`
	OwnerState        string `json:"owner_state"`

	Latitude           *float64 `json:"latitude"`
	Longitude          *float64 `json:"longitude"`
	GeocodingAttempted bool     `json:"-"`

	Images    []GalleryImage `gorm:"foreignKey:PropertyID" json:"images"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// GalleryImage is a persisted property photo.
type GalleryImage struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	PropertyID  string    `gorm:"type:varchar(64);not null;index" json:"property_id"`
	URL         string    `gorm:"type:text;not null" json:"url"`
	Path        string    `gorm:"type:text" json:"-"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Category    string    `json:"category"`
	IsMain      bool      `json:"is_main"`
	Order       int       `gorm:"column:sort_order;not null;default:0;index" json:"order"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for GalleryImage
func (GalleryImage) TableName() string {
	return "gallery_images"
}

// Property status values accepted by the wizard.
const (
	StatusAvailable = "available"
	StatusReserved  = "reserved"
	StatusSold      = "sold"
	StatusRented    = "rented"
)

// PropertyStatuses lists every status a listing may carry.
var PropertyStatuses = []string{StatusAvailable, StatusReserved, StatusSold, StatusRented}

// ValidStatus reports whether s names a listing status, ignoring case and
// surrounding space.
func ValidStatus(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, v := range PropertyStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// DefaultImageCategory is used for photos uploaded through the wizard gallery step.
const DefaultImageCategory = "gallery"
