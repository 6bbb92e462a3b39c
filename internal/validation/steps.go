package validation

// StepDefinition describes one wizard section. The order of Steps is both the
// navigation order and the dependency order of the rules.
type StepDefinition struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Icon  string `json:"icon"`

	check func(Snapshot) string
}

// Validate reports whether this step accepts the snapshot.
func (d StepDefinition) Validate(snap Snapshot) bool {
	return d.check(snap) == ""
}

var Steps = [...]StepDefinition{
	StepBasicInfo:       {ID: "basic", Title: "Basic information", Icon: "home", check: basicInfoReason},
	StepLocation:        {ID: "location", Title: "Location", Icon: "map-pin", check: locationReason},
	StepCharacteristics: {ID: "characteristics", Title: "Characteristics", Icon: "ruler", check: characteristicsReason},
	StepPricing:         {ID: "pricing", Title: "Pricing", Icon: "dollar-sign", check: pricingReason},
	StepClients:         {ID: "clients", Title: "Clients", Icon: "users", check: alwaysValid},
	StepMCMV:            {ID: "mcmv", Title: "Minha Casa Minha Vida", Icon: "landmark", check: mcmvReason},
	StepOwner:           {ID: "owner", Title: "Owner", Icon: "user", check: ownerReason},
	StepGallery:         {ID: "gallery", Title: "Gallery", Icon: "image", check: galleryReason},
	StepReview:          {ID: "review", Title: "Review", Icon: "check-circle", check: alwaysValid},
}
