package wizard

import (
	"realtywizard/server/internal/gallery"
	"realtywizard/server/internal/generation"
	"realtywizard/server/internal/models"
	"realtywizard/server/internal/validation"
)

type StepStatus struct {
	Index int    `json:"index"`
	ID    string `json:"id"`
	Title string `json:"title"`
	Icon  string `json:"icon"`
	Valid bool   `json:"valid"`
}

type GalleryState struct {
	Images   []models.GalleryImage    `json:"images"`
	Pending  []gallery.PendingImage   `json:"pending"`
	Removals []string                 `json:"removals"`
	Counts   validation.GalleryCounts `json:"counts"`
	InFlight bool                     `json:"in_flight"`
}

type PublishState struct {
	Requested bool   `json:"requested"`
	Allowed   bool   `json:"allowed"`
	Reason    string `json:"reason,omitempty"`
}

// State is a consistent read-only view of a session.
type State struct {
	Mode          string               `json:"mode"`
	Phase         Phase                `json:"phase"`
	Step          validation.Step      `json:"step"`
	PropertyID    string               `json:"property_id,omitempty"`
	CanAdvance    bool                 `json:"can_advance"`
	Reason        string               `json:"reason,omitempty"`
	Steps         []StepStatus         `json:"steps"`
	Draft         models.PropertyDraft `json:"draft"`
	Gallery       GalleryState         `json:"gallery"`
	AI            generation.State     `json:"ai"`
	Publish       PublishState         `json:"publish"`
	FinalizeBlock string               `json:"finalize_block,omitempty"`
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := c.snapshot()
	s := State{
		Mode:       c.mode.String(),
		Phase:      c.phase,
		Step:       c.step,
		PropertyID: c.propertyID,
		Draft:      snap.Draft,
		Gallery: GalleryState{
			Images:   c.gallery.Images(),
			Pending:  c.gallery.Pending(),
			Removals: c.gallery.Removals(),
			Counts:   snap.Gallery,
			InFlight: c.gallery.InFlight(),
		},
		AI: c.ai.State(),
	}

	if c.step.Valid() {
		s.Reason = validation.Reason(c.step, snap)
		s.CanAdvance = s.Reason == ""
	}
	for i, def := range validation.Steps {
		s.Steps = append(s.Steps, StepStatus{
			Index: i,
			ID:    def.ID,
			Title: def.Title,
			Icon:  def.Icon,
			Valid: def.Validate(snap),
		})
	}

	s.Publish.Requested = snap.Draft.Basic.PublicSite
	s.Publish.Allowed, s.Publish.Reason = validation.CanPublish(snap, validation.PublishPolicy{ApprovalRequired: c.tenant.ApprovalRequired})
	if err := c.finalizeBlock(); err != nil {
		s.FinalizeBlock = err.Error()
	}
	return s
}
