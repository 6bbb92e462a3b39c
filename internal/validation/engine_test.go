package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realtywizard/server/internal/models"
	"realtywizard/server/internal/testhelpers"
)

func snapshot(mutate func(d *models.PropertyDraft)) Snapshot {
	d := testhelpers.ValidDraft()
	if mutate != nil {
		mutate(&d)
	}
	return Snapshot{Draft: d, Gallery: GalleryCounts{Existing: 0, Pending: 2}}
}

func TestValidDraftPassesAllSteps(t *testing.T) {
	snap := snapshot(nil)
	for s := StepBasicInfo; s <= StepReview; s++ {
		assert.True(t, Validate(s, snap), "step %s: %s", s, Reason(s, snap))
	}
	assert.NoError(t, CheckRange(StepBasicInfo, StepReview, snap))
}

func TestBasicInfoStep(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *models.PropertyDraft)
		valid  bool
	}{
		{name: "blank title", mutate: func(d *models.PropertyDraft) { d.Basic.Title = "  " }},
		{name: "blank description", mutate: func(d *models.PropertyDraft) { d.Basic.Description = "" }},
		{
			name: "ai assist exempts title and description",
			mutate: func(d *models.PropertyDraft) {
				d.Basic.AIAssist = true
				d.Basic.Title = ""
				d.Basic.Description = ""
			},
			valid: true,
		},
		{name: "missing type", mutate: func(d *models.PropertyDraft) { d.Basic.Type = "" }},
		{name: "missing status", mutate: func(d *models.PropertyDraft) { d.Basic.Status = "" }},
		{name: "unknown status", mutate: func(d *models.PropertyDraft) { d.Basic.Status = "inactive" }},
		{name: "status ignores case", mutate: func(d *models.PropertyDraft) { d.Basic.Status = " Reserved " }, valid: true},
		{name: "no captors", mutate: func(d *models.PropertyDraft) { d.Basic.CaptorIDs = nil }},
		{name: "blank captor id", mutate: func(d *models.PropertyDraft) { d.Basic.CaptorIDs = []string{" "} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := snapshot(tt.mutate)
			assert.Equal(t, tt.valid, Validate(StepBasicInfo, snap))
			if !tt.valid {
				assert.NotEmpty(t, Reason(StepBasicInfo, snap))
			}
		})
	}
}

func TestLocationStep(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *models.PropertyDraft)
		valid  bool
	}{
		{name: "postal code with 7 digits", mutate: func(d *models.PropertyDraft) { d.Location.PostalCode = "0131010" }},
		{name: "postal code unmasked", mutate: func(d *models.PropertyDraft) { d.Location.PostalCode = "01310100" }, valid: true},
		{name: "blank street", mutate: func(d *models.PropertyDraft) { d.Location.Street = "" }},
		{name: "blank number", mutate: func(d *models.PropertyDraft) { d.Location.Number = "" }},
		{name: "blank neighborhood", mutate: func(d *models.PropertyDraft) { d.Location.Neighborhood = "" }},
		{name: "state typed but not selected", mutate: func(d *models.PropertyDraft) { d.Location.SelectedState = nil }},
		{name: "city typed but not selected", mutate: func(d *models.PropertyDraft) { d.Location.SelectedCity = nil }},
		{name: "selected city differs from text", mutate: func(d *models.PropertyDraft) { d.Location.City = "Campinas" }},
		{name: "selected state differs from text", mutate: func(d *models.PropertyDraft) { d.Location.State = "RJ" }},
		{name: "state text matches selection name", mutate: func(d *models.PropertyDraft) { d.Location.State = "são paulo" }, valid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, Validate(StepLocation, snapshot(tt.mutate)))
		})
	}
}

func TestCharacteristicsStep(t *testing.T) {
	tests := []struct {
		name      string
		total     string
		built     string
		valid     bool
		reasonHas string
	}{
		{name: "total only", total: "120,00", valid: true},
		{name: "thousands separator", total: "1.200,50", built: "1.000", valid: true},
		{name: "zero total", total: "0,00", reasonHas: "total area"},
		{name: "blank total", total: "", reasonHas: "total area"},
		{name: "zero built", total: "100", built: "0", reasonHas: "built area must"},
		{name: "built exceeds total", total: "100,00", built: "100,01", reasonHas: "cannot exceed"},
		{name: "built equals total", total: "100,00", built: "100", valid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := snapshot(func(d *models.PropertyDraft) {
				d.Characteristics.TotalArea = tt.total
				d.Characteristics.BuiltArea = tt.built
			})
			assert.Equal(t, tt.valid, Validate(StepCharacteristics, snap))
			assert.Contains(t, Reason(StepCharacteristics, snap), tt.reasonHas)
		})
	}
}

func TestCharacteristicsStepCounts(t *testing.T) {
	snap := snapshot(func(d *models.PropertyDraft) {
		d.Characteristics.Bedrooms = -1
		d.Characteristics.ParkingSpots = -2
	})
	assert.False(t, Validate(StepCharacteristics, snap))
	assert.Equal(t, "counts cannot be negative: bedrooms, parking spots", Reason(StepCharacteristics, snap))

	snap = snapshot(func(d *models.PropertyDraft) { d.Characteristics.Suites = 0 })
	assert.True(t, Validate(StepCharacteristics, snap))
}

func TestPricingStep(t *testing.T) {
	tests := []struct {
		name    string
		pricing models.Pricing
		valid   bool
	}{
		{name: "no prices", pricing: models.Pricing{}},
		{name: "zero sale price", pricing: models.Pricing{SalePrice: "R$ 0,00"}},
		{name: "rent only", pricing: models.Pricing{RentPrice: "R$ 2.500,00"}, valid: true},
		{name: "zero sale with rent", pricing: models.Pricing{SalePrice: "0", RentPrice: "2.500"}, valid: true},
		{
			name:    "negotiation without minimum sale",
			pricing: models.Pricing{SalePrice: "500.000", AcceptsNegotiation: true},
		},
		{
			name:    "negotiation with minimum sale",
			pricing: models.Pricing{SalePrice: "500.000", MinSalePrice: "450.000", AcceptsNegotiation: true},
			valid:   true,
		},
		{
			name: "negotiation with both prices but only sale minimum",
			pricing: models.Pricing{
				SalePrice: "500.000", RentPrice: "2.500", MinSalePrice: "450.000", AcceptsNegotiation: true,
			},
		},
		{
			name: "negotiation with zero rent minimum",
			pricing: models.Pricing{
				RentPrice: "2.500", MinRentPrice: "0,00", AcceptsNegotiation: true,
			},
		},
		{
			name: "negotiation with both minimums",
			pricing: models.Pricing{
				SalePrice: "500.000", RentPrice: "2.500", MinSalePrice: "450.000", MinRentPrice: "2.000",
				AcceptsNegotiation: true,
			},
			valid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := snapshot(func(d *models.PropertyDraft) { d.Pricing = tt.pricing })
			assert.Equal(t, tt.valid, Validate(StepPricing, snap), Reason(StepPricing, snap))
		})
	}
}

func TestClientsAndReviewAlwaysValid(t *testing.T) {
	empty := Snapshot{}
	assert.True(t, Validate(StepClients, empty))
	assert.True(t, Validate(StepReview, empty))
}

func TestMCMVStep(t *testing.T) {
	tests := []struct {
		name  string
		mcmv  models.MCMV
		valid bool
	}{
		{name: "not eligible ignores fields", mcmv: models.MCMV{MaxValue: "0"}, valid: true},
		{name: "eligible without income range", mcmv: models.MCMV{Eligible: true}},
		{name: "eligible with range", mcmv: models.MCMV{Eligible: true, IncomeRange: "faixa-2"}, valid: true},
		{name: "eligible with zero max", mcmv: models.MCMV{Eligible: true, IncomeRange: "faixa-2", MaxValue: "0,00"}},
		{name: "eligible with max", mcmv: models.MCMV{Eligible: true, IncomeRange: "faixa-2", MaxValue: "264.000,00"}, valid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := snapshot(func(d *models.PropertyDraft) { d.MCMV = tt.mcmv })
			assert.Equal(t, tt.valid, Validate(StepMCMV, snap))
		})
	}
}

func TestOwnerStep(t *testing.T) {
	snap := snapshot(func(d *models.PropertyDraft) { d.Owner.Email = "maria.example.com" })
	assert.False(t, Validate(StepOwner, snap))
	assert.Contains(t, Reason(StepOwner, snap), "email")

	snap = snapshot(func(d *models.PropertyDraft) {
		d.Owner.PostalCode = "123"
		d.Owner.City = " "
	})
	reason := Reason(StepOwner, snap)
	assert.Contains(t, reason, "postal code")
	assert.Contains(t, reason, "city")
}

func TestGalleryStepBounds(t *testing.T) {
	for count := 0; count <= 25; count++ {
		snap := Snapshot{Gallery: GalleryCounts{Pending: count}}
		want := count >= MinImages && count <= MaxImages
		assert.Equal(t, want, Validate(StepGallery, snap), "count %d", count)
	}
}

func TestGalleryStepEffectiveCount(t *testing.T) {
	counts := GalleryCounts{Existing: 3, PendingRemoval: 2, Pending: 0}
	assert.Equal(t, 1, counts.Effective())
	assert.False(t, Validate(StepGallery, Snapshot{Gallery: counts}))
	assert.Contains(t, Reason(StepGallery, Snapshot{Gallery: counts}), "add 1 more")

	counts.Pending = 1
	assert.True(t, Validate(StepGallery, Snapshot{Gallery: counts}))
}

func TestGalleryStepOverLimitReason(t *testing.T) {
	snap := Snapshot{Gallery: GalleryCounts{Pending: 21}}
	require.False(t, Validate(StepGallery, snap))
	reason := Reason(StepGallery, snap)
	assert.Contains(t, reason, "remove 1")
	assert.NotContains(t, reason, "remove 10")
}

func TestCheckRangeReportsFirstFailure(t *testing.T) {
	snap := snapshot(func(d *models.PropertyDraft) {
		d.Characteristics.TotalArea = ""
		d.Owner.Name = ""
	})
	err := CheckRange(StepBasicInfo, StepReview, snap)
	require.Error(t, err)

	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, StepCharacteristics, verr.Step)
}

func TestUnknownStep(t *testing.T) {
	assert.False(t, Validate(Step(42), Snapshot{}))
	assert.Equal(t, "unknown", Step(-1).String())
}

func TestStepDefinitions(t *testing.T) {
	require.Len(t, Steps, 9)
	assert.Equal(t, "gallery", StepGallery.String())
	assert.True(t, Steps[StepReview].Validate(Snapshot{}))
	assert.False(t, Steps[StepGallery].Validate(Snapshot{}))
}
