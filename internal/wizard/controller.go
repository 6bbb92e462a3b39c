// Package wizard owns one property creation/edit session: the draft, the
// current step and the navigation rules, and it coordinates the gallery, the
// description generator and the final save.
package wizard

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"realtywizard/server/config"
	"realtywizard/server/internal/flags"
	"realtywizard/server/internal/gallery"
	"realtywizard/server/internal/generation"
	"realtywizard/server/internal/models"
	"realtywizard/server/internal/persistence"
	"realtywizard/server/internal/validation"
)

// Saver loads and saves properties.
type Saver interface {
	Load(ctx context.Context, tenantID, id string) (*models.Property, error)
	Save(ctx context.Context, in persistence.SaveInput) (*models.Property, error)
}

// AddressLookup resolves a postal code into an address.
type AddressLookup interface {
	Lookup(ctx context.Context, postalCode string) (models.PostalAddress, error)
}

type Options struct {
	Mode       Mode
	TenantID   string
	PropertyID string

	Saver          Saver
	GalleryService gallery.Service
	Quota          gallery.QuotaChecker
	Limits         gallery.Limits
	Generator      generation.Generator
	MaxVariants    int
	Flags          flags.Tenant
	Lookup         AddressLookup
	Logger         *logrus.Logger
}

type Controller struct {
	mode     Mode
	tenantID string
	tenant   flags.Tenant
	saver    Saver
	lookup   AddressLookup
	logger   *logrus.Logger

	gallery *gallery.Manager
	ai      *generation.Orchestrator

	root   context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	step       validation.Step
	phase      Phase
	draft      models.PropertyDraft
	propertyID string
	closed     bool
}

// New starts a session. In edit mode the property is loaded and becomes the
// initial draft and gallery.
func New(ctx context.Context, opts Options) (*Controller, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	root, cancel := context.WithCancel(context.Background())
	c := &Controller{
		mode:     opts.Mode,
		tenantID: opts.TenantID,
		tenant:   opts.Flags,
		saver:    opts.Saver,
		lookup:   opts.Lookup,
		logger:   logger,
		gallery:  gallery.NewManager(opts.GalleryService, opts.Quota, opts.Limits, logger),
		ai:       generation.NewOrchestrator(opts.Generator, opts.MaxVariants, logger),
		root:     root,
		cancel:   cancel,
		step:     validation.StepBasicInfo,
		phase:    PhaseEditing,
		draft:    models.PropertyDraft{Basic: models.BasicInfo{Status: models.StatusAvailable, IsActive: true}},
	}

	if opts.Mode == ModeEdit {
		if opts.PropertyID == "" {
			cancel()
			return nil, fmt.Errorf("edit mode requires a property id")
		}
		prop, err := opts.Saver.Load(ctx, opts.TenantID, opts.PropertyID)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to load property %s: %w", opts.PropertyID, err)
		}
		c.draft = persistence.DraftFromProperty(prop)
		c.propertyID = prop.ID
		c.gallery.Load(prop.ID, prop.Images)
	}

	logger.WithFields(logrus.Fields{
		"mode":        c.mode.String(),
		"tenant_id":   c.tenantID,
		"property_id": c.propertyID,
	}).Info("Wizard session started")
	return c, nil
}

// scope derives a context that ends with the request or with the session,
// whichever comes first.
func (c *Controller) scope(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.root, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// usable must be called with c.mu held.
func (c *Controller) usable() error {
	if c.closed {
		return ErrSessionClosed
	}
	switch c.phase {
	case PhaseSuccess:
		return ErrWizardFinished
	case PhaseFinalizing:
		return ErrFinalizeRunning
	}
	return nil
}

func (c *Controller) check() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usable()
}

// snapshot must be called with c.mu held.
func (c *Controller) snapshot() validation.Snapshot {
	return validation.Snapshot{Draft: c.draft.Clone(), Gallery: c.gallery.Counts()}
}

// Dispatch applies a draft action.
func (c *Controller) Dispatch(a Action) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.usable(); err != nil {
		return err
	}
	a.apply(&c.draft)
	c.logger.WithField("section", a.Section()).Debug("Draft section updated")
	return nil
}

// CanAdvance reports whether the current step validates, with the reason
// when it does not.
func (c *Controller) CanAdvance() (bool, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	reason := validation.Reason(c.step, c.snapshot())
	return reason == "", reason
}

// GoNext validates the current step and moves forward. Entering the review
// step may trigger description generation.
func (c *Controller) GoNext(ctx context.Context) (Transition, error) {
	c.mu.Lock()
	if err := c.usable(); err != nil {
		c.mu.Unlock()
		return Transition{}, err
	}
	from := c.step
	if from >= validation.LastStep {
		c.mu.Unlock()
		return stayed(from, ErrNoNextStep), ErrNoNextStep
	}
	if err := validation.Check(from, c.snapshot()); err != nil {
		c.mu.Unlock()
		return stayed(from, err), err
	}
	c.step = from + 1
	to := c.step
	c.mu.Unlock()

	return c.arrive(ctx, from, to), nil
}

// GoPrevious moves one step back without validation.
func (c *Controller) GoPrevious() (Transition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.usable(); err != nil {
		return Transition{}, err
	}
	if c.step == validation.StepBasicInfo {
		return stayed(c.step, ErrNoPreviousStep), ErrNoPreviousStep
	}
	from := c.step
	c.step--
	c.leave(from)
	return moved(from, c.step), nil
}

// JumpTo moves directly to step. Only edit sessions may jump; moving forward
// requires every step in between to validate.
func (c *Controller) JumpTo(ctx context.Context, step validation.Step) (Transition, error) {
	c.mu.Lock()
	if err := c.usable(); err != nil {
		c.mu.Unlock()
		return Transition{}, err
	}
	from := c.step
	if c.mode != ModeEdit {
		c.mu.Unlock()
		return stayed(from, ErrJumpNotAllowed), ErrJumpNotAllowed
	}
	if !step.Valid() {
		c.mu.Unlock()
		err := fmt.Errorf("%w: %d", ErrInvalidStep, step)
		return stayed(from, err), err
	}
	if step > from {
		if err := validation.CheckRange(from, step, c.snapshot()); err != nil {
			c.mu.Unlock()
			return stayed(from, err), err
		}
	}
	c.step = step
	if step != from {
		c.leave(from)
	}
	c.mu.Unlock()

	if step == from {
		return moved(from, step), nil
	}
	return c.arrive(ctx, from, step), nil
}

// leave resets per-step flags of the step being left. c.mu must be held.
func (c *Controller) leave(from validation.Step) {
	if from == validation.StepReview {
		c.ai.ClearError()
	}
}

// arrive builds the transition and runs the review step entry hook.
func (c *Controller) arrive(ctx context.Context, from, to validation.Step) Transition {
	t := moved(from, to)
	if to != validation.StepReview {
		return t
	}

	c.mu.Lock()
	draft := c.draft.Clone()
	c.mu.Unlock()
	if !c.ai.ShouldAutoFire(draft) {
		return t
	}

	ctx, done := c.scope(ctx)
	defer done()
	variant, fired, err := c.ai.AutoFire(ctx, draft, c.tenant.MCMVEnabled)
	if !fired {
		return t
	}
	if err != nil {
		t.Effects = append(t.Effects, notify("error", err.Error()))
		return t
	}
	c.applyVariant(variant)
	return t
}

// applyVariant copies a generated title/description into the draft while AI
// assist is still on.
func (c *Controller) applyVariant(v models.DescriptionVariant) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.usable() != nil || !c.draft.Basic.AIAssist {
		return
	}
	c.draft.Basic.Title = v.Title
	c.draft.Basic.Description = v.Description
}

// SetAIAssist toggles AI assist. Turning it off clears a pending generation
// error and leaves title and description for manual editing.
func (c *Controller) SetAIAssist(enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.usable(); err != nil {
		return err
	}
	c.draft.Basic.AIAssist = enabled
	if !enabled {
		c.ai.ClearError()
	}
	return nil
}

// Regenerate requests another variant and applies it to the draft.
func (c *Controller) Regenerate(ctx context.Context) (models.DescriptionVariant, error) {
	c.mu.Lock()
	if err := c.usable(); err != nil {
		c.mu.Unlock()
		return models.DescriptionVariant{}, err
	}
	if !c.draft.Basic.AIAssist {
		c.mu.Unlock()
		return models.DescriptionVariant{}, ErrAIAssistDisabled
	}
	draft := c.draft.Clone()
	c.mu.Unlock()

	ctx, done := c.scope(ctx)
	defer done()
	v, err := c.ai.Regenerate(ctx, draft, c.tenant.MCMVEnabled)
	if err != nil {
		return models.DescriptionVariant{}, err
	}
	c.applyVariant(v)
	return v, nil
}

// SelectVariant browses an earlier variant without applying it.
func (c *Controller) SelectVariant(i int) (models.DescriptionVariant, error) {
	if err := c.check(); err != nil {
		return models.DescriptionVariant{}, err
	}
	return c.ai.Select(i)
}

// AcceptVariant applies variant i and turns AI assist off so the fields are
// edited directly from now on.
func (c *Controller) AcceptVariant(i int) (models.DescriptionVariant, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.usable(); err != nil {
		return models.DescriptionVariant{}, err
	}
	v, err := c.ai.Select(i)
	if err != nil {
		return models.DescriptionVariant{}, err
	}
	c.draft.Basic.Title = v.Title
	c.draft.Basic.Description = v.Description
	c.draft.Basic.AIAssist = false
	c.ai.ClearError()
	return v, nil
}

// AddressTarget selects which address block a postal code lookup fills.
type AddressTarget string

const (
	TargetLocation AddressTarget = "location"
	TargetOwner    AddressTarget = "owner"
)

// PrefillAddress looks up a postal code and fills the property location or
// the owner address with the result.
func (c *Controller) PrefillAddress(ctx context.Context, target AddressTarget, postalCode string) (models.PostalAddress, error) {
	if err := c.check(); err != nil {
		return models.PostalAddress{}, err
	}
	if c.lookup == nil {
		return models.PostalAddress{}, ErrNoAddressLookup
	}
	if target != TargetLocation && target != TargetOwner {
		return models.PostalAddress{}, fmt.Errorf("unknown address target %q", target)
	}

	ctx, done := c.scope(ctx)
	defer done()
	addr, err := c.lookup.Lookup(ctx, postalCode)
	if err != nil {
		return models.PostalAddress{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.usable(); err != nil {
		return models.PostalAddress{}, err
	}
	switch target {
	case TargetLocation:
		l := &c.draft.Location
		l.PostalCode = addr.PostalCode
		l.Street = addr.Street
		l.Neighborhood = addr.Neighborhood
		l.City = addr.City
		l.State = addr.State
		l.SelectedCity = &models.Place{Code: addr.CityCode, Name: addr.City}
		l.SelectedState = nil
		if st := config.GetState(addr.State); st != nil {
			l.SelectedState = &models.Place{Code: st.Code, Name: st.Name}
		}
	case TargetOwner:
		o := &c.draft.Owner
		o.PostalCode = addr.PostalCode
		o.Street = addr.Street
		o.Neighborhood = addr.Neighborhood
		o.City = addr.City
		o.State = addr.State
	}
	return addr, nil
}

// finalizeBlock must be called with c.mu held.
func (c *Controller) finalizeBlock() error {
	b := c.draft.Basic
	if !b.AIAssist {
		return nil
	}
	if msg := c.ai.Err(); msg != "" {
		return fmt.Errorf("%w: %s", ErrGenerationBlocked, msg)
	}
	if strings.TrimSpace(b.Title) == "" || strings.TrimSpace(b.Description) == "" {
		return fmt.Errorf("%w: title and description have not been generated", ErrGenerationBlocked)
	}
	return nil
}

// Finalize re-validates every step and saves the property. On success the
// wizard moves to the success state and accepts no more changes.
func (c *Controller) Finalize(ctx context.Context) (*models.Property, Transition, error) {
	c.mu.Lock()
	if err := c.usable(); err != nil {
		c.mu.Unlock()
		return nil, Transition{}, err
	}
	at := c.step
	fail := func(err error) (*models.Property, Transition, error) {
		c.mu.Unlock()
		return nil, stayed(at, err), err
	}
	if at != validation.StepReview {
		return fail(ErrNotAtReview)
	}
	if err := c.finalizeBlock(); err != nil {
		return fail(err)
	}
	snap := c.snapshot()
	if err := validation.CheckRange(validation.StepBasicInfo, validation.LastStep+1, snap); err != nil {
		return fail(err)
	}
	if c.gallery.InFlight() {
		return fail(gallery.ErrInFlight)
	}
	c.phase = PhaseFinalizing
	in := persistence.SaveInput{
		TenantID:   c.tenantID,
		PropertyID: c.propertyID,
		Draft:      snap.Draft,
		Gallery:    c.gallery,
		Policy:     validation.PublishPolicy{ApprovalRequired: c.tenant.ApprovalRequired},
	}
	c.mu.Unlock()

	sctx, done := c.scope(ctx)
	prop, err := c.saver.Save(sctx, in)
	done()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.phase = PhaseEditing
		c.logger.WithError(err).WithFields(logrus.Fields{
			"tenant_id":   c.tenantID,
			"property_id": c.propertyID,
		}).Warn("Finalize failed")
		return nil, stayed(at, err), err
	}

	c.propertyID = prop.ID
	c.phase = PhaseSuccess
	c.step = StepSuccess
	msg := "Property created"
	if c.mode == ModeEdit {
		msg = "Property updated"
	}
	c.logger.WithFields(logrus.Fields{
		"tenant_id":   c.tenantID,
		"property_id": prop.ID,
		"mode":        c.mode.String(),
	}).Info("Wizard finished")
	return prop, moved(at, StepSuccess, notify("success", msg)), nil
}

// Close cancels every operation still running for the session.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.logger.WithField("property_id", c.PropertyID()).Debug("Wizard session closed")
}

// Done is closed when the session is closed.
func (c *Controller) Done() <-chan struct{} {
	return c.root.Done()
}

func (c *Controller) PropertyID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.propertyID
}

func (c *Controller) Mode() Mode {
	return c.mode
}

func (c *Controller) TenantID() string {
	return c.tenantID
}

func (c *Controller) Step() validation.Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

func (c *Controller) Draft() models.PropertyDraft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.Clone()
}
