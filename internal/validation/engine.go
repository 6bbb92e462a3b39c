// Package validation decides, for each wizard step, whether a draft snapshot
// allows moving forward. Every rule is a pure function of the snapshot so that
// earlier steps can be re-validated synchronously at any time.
package validation

import (
	"fmt"
	"strings"

	"realtywizard/server/internal/masks"
	"realtywizard/server/internal/models"
)

type Step int

const (
	StepBasicInfo Step = iota
	StepLocation
	StepCharacteristics
	StepPricing
	StepClients
	StepMCMV
	StepOwner
	StepGallery
	StepReview
)

// LastStep is the review step, where Finalize is invoked.
const LastStep = StepReview

// Gallery size limits shared by the gallery step and the public-site check.
const (
	MinImages = 2
	MaxImages = 20
)

// GalleryCounts is the gallery state the gallery step depends on.
type GalleryCounts struct {
	Existing       int `json:"existing"`
	PendingRemoval int `json:"pending_removal"`
	Pending        int `json:"pending"`
}

// Effective is existing images minus pending removals plus pending uploads.
func (c GalleryCounts) Effective() int {
	return c.Existing - c.PendingRemoval + c.Pending
}

// Snapshot is everything a step rule may look at.
type Snapshot struct {
	Draft   models.PropertyDraft
	Gallery GalleryCounts
}

// Error is returned when a step does not validate.
type Error struct {
	Step   Step
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("step %d (%s): %s", int(e.Step), e.Step, e.Reason)
}

func (s Step) String() string {
	if s < 0 || int(s) >= len(Steps) {
		return "unknown"
	}
	return Steps[s].ID
}

// Valid reports whether s is one of the nine wizard steps.
func (s Step) Valid() bool {
	return s >= StepBasicInfo && s <= StepReview
}

// Validate reports whether the given step accepts the snapshot.
func Validate(step Step, snap Snapshot) bool {
	return Reason(step, snap) == ""
}

// Reason returns a user-facing explanation of why the step is invalid, or ""
// when it is valid.
func Reason(step Step, snap Snapshot) string {
	if !step.Valid() {
		return "unknown step"
	}
	return Steps[step].check(snap)
}

// Check returns a *Error for an invalid step and nil otherwise.
func Check(step Step, snap Snapshot) error {
	if reason := Reason(step, snap); reason != "" {
		return &Error{Step: step, Reason: reason}
	}
	return nil
}

// CheckRange validates every step in [from, to) and returns the first failure.
func CheckRange(from, to Step, snap Snapshot) error {
	for s := from; s < to; s++ {
		if err := Check(s, snap); err != nil {
			return err
		}
	}
	return nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func sameText(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func missing(fields ...string) string {
	return "required fields missing: " + strings.Join(fields, ", ")
}

func basicInfoReason(snap Snapshot) string {
	b := snap.Draft.Basic
	var fields []string
	if !b.AIAssist {
		if blank(b.Title) {
			fields = append(fields, "title")
		}
		if blank(b.Description) {
			fields = append(fields, "description")
		}
	}
	if blank(b.Type) {
		fields = append(fields, "type")
	}
	if blank(b.Status) {
		fields = append(fields, "status")
	}
	if len(fields) > 0 {
		return missing(fields...)
	}
	if !models.ValidStatus(b.Status) {
		return "status must be one of " + strings.Join(models.PropertyStatuses, ", ")
	}
	for _, id := range b.CaptorIDs {
		if !blank(id) {
			return ""
		}
	}
	return "select at least one captor"
}

func locationReason(snap Snapshot) string {
	l := snap.Draft.Location
	if _, ok := masks.PostalCode(l.PostalCode); !ok {
		return "postal code must have 8 digits"
	}
	var fields []string
	if blank(l.Street) {
		fields = append(fields, "street")
	}
	if blank(l.Number) {
		fields = append(fields, "number")
	}
	if blank(l.Neighborhood) {
		fields = append(fields, "neighborhood")
	}
	if len(fields) > 0 {
		return missing(fields...)
	}
	if l.SelectedState == nil || blank(l.State) ||
		!(sameText(l.SelectedState.Code, l.State) || sameText(l.SelectedState.Name, l.State)) {
		return "select the state from the list"
	}
	if l.SelectedCity == nil || blank(l.City) || !sameText(l.SelectedCity.Name, l.City) {
		return "select the city from the list"
	}
	return ""
}

func characteristicsReason(snap Snapshot) string {
	c := snap.Draft.Characteristics
	total, ok := masks.Positive(c.TotalArea)
	if !ok {
		return "total area must be greater than zero"
	}
	var negative []string
	for _, n := range []struct {
		name  string
		count int
	}{
		{"bedrooms", c.Bedrooms},
		{"suites", c.Suites},
		{"bathrooms", c.Bathrooms},
		{"parking spots", c.ParkingSpots},
	} {
		if n.count < 0 {
			negative = append(negative, n.name)
		}
	}
	if len(negative) > 0 {
		return "counts cannot be negative: " + strings.Join(negative, ", ")
	}
	if !masks.Present(c.BuiltArea) {
		return ""
	}
	built, ok := masks.Positive(c.BuiltArea)
	if !ok {
		return "built area must be greater than zero"
	}
	if built > total {
		return "built area cannot exceed total area"
	}
	return ""
}

func pricingReason(snap Snapshot) string {
	p := snap.Draft.Pricing
	salePresent := masks.Present(p.SalePrice)
	rentPresent := masks.Present(p.RentPrice)
	_, saleOK := masks.Positive(p.SalePrice)
	_, rentOK := masks.Positive(p.RentPrice)
	if !saleOK && !rentOK {
		return "inform a sale or rent price greater than zero"
	}
	if !p.AcceptsNegotiation {
		return ""
	}
	if salePresent {
		if _, ok := masks.Positive(p.MinSalePrice); !ok {
			return "negotiation requires a minimum sale price greater than zero"
		}
	}
	if rentPresent {
		if _, ok := masks.Positive(p.MinRentPrice); !ok {
			return "negotiation requires a minimum rent price greater than zero"
		}
	}
	return ""
}

func mcmvReason(snap Snapshot) string {
	m := snap.Draft.MCMV
	if !m.Eligible {
		return ""
	}
	if blank(m.IncomeRange) {
		return "select the MCMV income range"
	}
	if masks.Present(m.MaxValue) {
		if _, ok := masks.Positive(m.MaxValue); !ok {
			return "MCMV maximum value must be greater than zero"
		}
	}
	return ""
}

func ownerReason(snap Snapshot) string {
	o := snap.Draft.Owner
	var fields []string
	if blank(o.Name) {
		fields = append(fields, "name")
	}
	if blank(o.Email) || !strings.Contains(o.Email, "@") {
		fields = append(fields, "email")
	}
	if blank(o.Phone) {
		fields = append(fields, "phone")
	}
	if blank(o.Document) {
		fields = append(fields, "document")
	}
	if _, ok := masks.PostalCode(o.PostalCode); !ok {
		fields = append(fields, "postal code")
	}
	if blank(o.Street) {
		fields = append(fields, "street")
	}
	if blank(o.Number) {
		fields = append(fields, "number")
	}
	if blank(o.Neighborhood) {
		fields = append(fields, "neighborhood")
	}
	if blank(o.City) {
		fields = append(fields, "city")
	}
	if len(fields) > 0 {
		return "owner " + missing(fields...)
	}
	return ""
}

// imageCountReason is the single gallery-size rule.
func imageCountReason(count int) string {
	switch {
	case count < MinImages:
		missing := MinImages - count
		return fmt.Sprintf("at least %d images are required, add %d more", MinImages, missing)
	case count > MaxImages:
		return fmt.Sprintf("at most %d images are allowed, remove %d", MaxImages, count-MaxImages)
	}
	return ""
}

func galleryReason(snap Snapshot) string {
	return imageCountReason(snap.Gallery.Effective())
}

func alwaysValid(Snapshot) string {
	return ""
}
