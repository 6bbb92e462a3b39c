package wizard

import "realtywizard/server/internal/models"

// Action is a typed draft mutation. Each action replaces one section of the
// draft; nothing else can change it.
type Action interface {
	Section() string
	apply(d *models.PropertyDraft)
}

type (
	SetBasicInfo       models.BasicInfo
	SetLocation        models.Location
	SetCharacteristics models.Characteristics
	SetPricing         models.Pricing
	SetClients         models.Clients
	SetMCMV            models.MCMV
	SetOwner           models.Owner
)

func (SetBasicInfo) Section() string       { return "basic" }
func (SetLocation) Section() string        { return "location" }
func (SetCharacteristics) Section() string { return "characteristics" }
func (SetPricing) Section() string         { return "pricing" }
func (SetClients) Section() string         { return "clients" }
func (SetMCMV) Section() string            { return "mcmv" }
func (SetOwner) Section() string           { return "owner" }

func (a SetBasicInfo) apply(d *models.PropertyDraft) {
	d.Basic = models.BasicInfo(a)
	d.Basic.CaptorIDs = append([]string(nil), a.CaptorIDs...)
}

func (a SetLocation) apply(d *models.PropertyDraft) {
	d.Location = models.Location(a)
	d.Location.Complements = append([]models.ComplementItem(nil), a.Complements...)
	if a.SelectedState != nil {
		s := *a.SelectedState
		d.Location.SelectedState = &s
	}
	if a.SelectedCity != nil {
		c := *a.SelectedCity
		d.Location.SelectedCity = &c
	}
}

func (a SetCharacteristics) apply(d *models.PropertyDraft) {
	d.Characteristics = models.Characteristics(a)
	d.Characteristics.Features = append([]string(nil), a.Features...)
}

func (a SetPricing) apply(d *models.PropertyDraft) {
	d.Pricing = models.Pricing(a)
}

func (a SetClients) apply(d *models.PropertyDraft) {
	d.Clients.ClientIDs = append([]string(nil), a.ClientIDs...)
}

func (a SetMCMV) apply(d *models.PropertyDraft) {
	d.MCMV = models.MCMV(a)
}

func (a SetOwner) apply(d *models.PropertyDraft) {
	d.Owner = models.Owner(a)
	d.Owner.Complements = append([]models.ComplementItem(nil), a.Complements...)
}
