// Package generation drives AI-assisted title and description generation for
// the review step of a wizard session.
package generation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"realtywizard/server/internal/models"
)

// DefaultMaxVariants caps generation calls per session.
const DefaultMaxVariants = 3

var (
	ErrCapReached     = errors.New("generation limit reached for this session")
	ErrMissingInputs  = errors.New("missing inputs for generation")
	ErrBusy           = errors.New("a generation is already running")
	ErrInvalidVariant = errors.New("variant index out of range")
)

// Generator is the external description service.
type Generator interface {
	GenerateDescription(ctx context.Context, req models.GenerationRequest) (models.DescriptionVariant, error)
}

// State is a read-only view of the orchestrator.
type State struct {
	Variants   []models.DescriptionVariant `json:"variants"`
	Selected   int                         `json:"selected"`
	Generated  bool                        `json:"generated"`
	Generating bool                        `json:"generating"`
	Error      string                      `json:"error,omitempty"`
	Remaining  int                         `json:"remaining"`
}

// Orchestrator owns the variant list of one session. The lock is never held
// while the generator is called.
type Orchestrator struct {
	gen         Generator
	maxVariants int
	logger      *logrus.Logger

	mu         sync.Mutex
	variants   []models.DescriptionVariant
	selected   int
	generated  bool
	generating bool
	errMsg     string
}

func NewOrchestrator(gen Generator, maxVariants int, logger *logrus.Logger) *Orchestrator {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if maxVariants <= 0 {
		maxVariants = DefaultMaxVariants
	}
	return &Orchestrator{
		gen:         gen,
		maxVariants: maxVariants,
		logger:      logger,
		selected:    -1,
	}
}

// ShouldAutoFire reports whether entering the review step should trigger a
// generation. Input completeness is checked by AutoFire itself so a miss can
// raise the error flag.
func (o *Orchestrator) ShouldAutoFire(draft models.PropertyDraft) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return draft.Basic.AIAssist && !o.generated && !o.generating && len(o.variants) < o.maxVariants
}

// AutoFire generates the first variant when the preconditions hold. fired is
// false when nothing was attempted.
func (o *Orchestrator) AutoFire(ctx context.Context, draft models.PropertyDraft, mcmvEnabled bool) (variant models.DescriptionVariant, fired bool, err error) {
	if !o.ShouldAutoFire(draft) {
		return models.DescriptionVariant{}, false, nil
	}
	variant, err = o.generate(ctx, draft, mcmvEnabled)
	if errors.Is(err, ErrBusy) {
		return models.DescriptionVariant{}, false, nil
	}
	return variant, true, err
}

// Regenerate requests another variant. At the cap it fails without calling
// the generator.
func (o *Orchestrator) Regenerate(ctx context.Context, draft models.PropertyDraft, mcmvEnabled bool) (models.DescriptionVariant, error) {
	return o.generate(ctx, draft, mcmvEnabled)
}

func (o *Orchestrator) generate(ctx context.Context, draft models.PropertyDraft, mcmvEnabled bool) (models.DescriptionVariant, error) {
	o.mu.Lock()
	if len(o.variants) >= o.maxVariants {
		o.mu.Unlock()
		return models.DescriptionVariant{}, fmt.Errorf("%w (%d of %d used)", ErrCapReached, o.maxVariants, o.maxVariants)
	}
	if o.generating {
		o.mu.Unlock()
		return models.DescriptionVariant{}, ErrBusy
	}
	o.generating = true
	o.mu.Unlock()

	variant, err := o.call(ctx, draft, mcmvEnabled)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.generating = false
	if err != nil {
		o.errMsg = err.Error()
		o.logger.WithError(err).Warn("Description generation failed")
		return models.DescriptionVariant{}, err
	}
	o.variants = append(o.variants, variant)
	o.selected = len(o.variants) - 1
	o.generated = true
	o.errMsg = ""
	o.logger.WithFields(logrus.Fields{
		"variant":   o.selected,
		"remaining": o.maxVariants - len(o.variants),
	}).Info("Description generated")
	return cloneVariant(variant), nil
}

func (o *Orchestrator) call(ctx context.Context, draft models.PropertyDraft, mcmvEnabled bool) (models.DescriptionVariant, error) {
	req, err := BuildRequest(draft, mcmvEnabled)
	if err != nil {
		return models.DescriptionVariant{}, err
	}
	if o.gen == nil {
		return models.DescriptionVariant{}, ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return models.DescriptionVariant{}, err
	}
	return o.gen.GenerateDescription(ctx, req)
}

// Select makes variant i current and returns it.
func (o *Orchestrator) Select(i int) (models.DescriptionVariant, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if i < 0 || i >= len(o.variants) {
		return models.DescriptionVariant{}, fmt.Errorf("%w: %d of %d", ErrInvalidVariant, i, len(o.variants))
	}
	o.selected = i
	return cloneVariant(o.variants[i]), nil
}

// Current returns the selected variant, if any.
func (o *Orchestrator) Current() (models.DescriptionVariant, int, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.selected < 0 {
		return models.DescriptionVariant{}, -1, false
	}
	return cloneVariant(o.variants[o.selected]), o.selected, true
}

func (o *Orchestrator) Variants() []models.DescriptionVariant {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]models.DescriptionVariant, len(o.variants))
	for i, v := range o.variants {
		out[i] = cloneVariant(v)
	}
	return out
}

// Err returns the message of the last failed generation, or "".
func (o *Orchestrator) Err() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.errMsg
}

func (o *Orchestrator) ClearError() {
	o.mu.Lock()
	o.errMsg = ""
	o.mu.Unlock()
}

func (o *Orchestrator) State() State {
	variants := o.Variants()
	o.mu.Lock()
	defer o.mu.Unlock()
	return State{
		Variants:   variants,
		Selected:   o.selected,
		Generated:  o.generated,
		Generating: o.generating,
		Error:      o.errMsg,
		Remaining:  o.maxVariants - len(o.variants),
	}
}

func cloneVariant(v models.DescriptionVariant) models.DescriptionVariant {
	v.Highlights = append([]string(nil), v.Highlights...)
	return v
}
