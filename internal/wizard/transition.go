package wizard

import (
	"errors"
	"fmt"

	"realtywizard/server/internal/validation"
)

// StepSuccess is the state after a successful Finalize, outside the form
// steps.
const StepSuccess = validation.LastStep + 1

type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "create":
		return ModeCreate, nil
	case "edit":
		return ModeEdit, nil
	}
	return ModeCreate, fmt.Errorf("unknown wizard mode %q", s)
}

type Phase string

const (
	PhaseEditing    Phase = "editing"
	PhaseFinalizing Phase = "finalizing"
	PhaseSuccess    Phase = "success"
)

// EffectKind names a view command emitted next to a transition.
type EffectKind string

const (
	EffectScrollTop EffectKind = "scroll_top"
	EffectNotify    EffectKind = "notify"
)

type Effect struct {
	Kind    EffectKind `json:"kind"`
	Level   string     `json:"level,omitempty"`
	Message string     `json:"message,omitempty"`
}

func scrollTop() Effect {
	return Effect{Kind: EffectScrollTop}
}

func notify(level, msg string) Effect {
	return Effect{Kind: EffectNotify, Level: level, Message: msg}
}

// Transition is the outcome of a navigation or finalize call. The effects are
// for the view to execute; they never change wizard state.
type Transition struct {
	From    validation.Step `json:"from"`
	To      validation.Step `json:"to"`
	Effects []Effect        `json:"effects"`
}

func moved(from, to validation.Step, extra ...Effect) Transition {
	return Transition{From: from, To: to, Effects: append([]Effect{scrollTop()}, extra...)}
}

func stayed(at validation.Step, err error) Transition {
	return Transition{From: at, To: at, Effects: []Effect{notify("error", err.Error())}}
}

var (
	ErrJumpNotAllowed    = errors.New("jumping between steps is only allowed when editing")
	ErrWizardFinished    = errors.New("wizard already finished")
	ErrSessionClosed     = errors.New("wizard session closed")
	ErrGenerationBlocked = errors.New("finalize blocked until the generated description is resolved")
	ErrNoPreviousStep    = errors.New("already at the first step")
	ErrNoNextStep        = errors.New("already at the review step")
	ErrInvalidStep       = errors.New("invalid step")
	ErrNotAtReview       = errors.New("finalize is only available on the review step")
	ErrFinalizeRunning   = errors.New("finalize already in progress")
	ErrAIAssistDisabled  = errors.New("AI assist is disabled")
	ErrNoAddressLookup   = errors.New("address lookup is not configured")
)
