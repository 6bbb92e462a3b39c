package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"realtywizard/server/internal/database"
	"realtywizard/server/internal/gallery"
	"realtywizard/server/internal/generation"
	"realtywizard/server/internal/geocoding"
	"realtywizard/server/internal/persistence"
	"realtywizard/server/internal/session"
	"realtywizard/server/internal/validation"
	"realtywizard/server/internal/wizard"
)

var statusByError = []struct {
	err    error
	status int
}{
	{session.ErrNotFound, http.StatusNotFound},
	{persistence.ErrPropertyNotFound, http.StatusNotFound},
	{gallery.ErrImageNotFound, http.StatusNotFound},
	{database.ErrImageNotFound, http.StatusNotFound},
	{geocoding.ErrPostalCodeUnknown, http.StatusNotFound},

	{persistence.ErrInvalidPayload, http.StatusUnprocessableEntity},
	{persistence.ErrNotPublishable, http.StatusUnprocessableEntity},
	{wizard.ErrJumpNotAllowed, http.StatusUnprocessableEntity},
	{wizard.ErrNoPreviousStep, http.StatusUnprocessableEntity},
	{wizard.ErrNoNextStep, http.StatusUnprocessableEntity},
	{wizard.ErrInvalidStep, http.StatusUnprocessableEntity},
	{wizard.ErrNotAtReview, http.StatusUnprocessableEntity},
	{wizard.ErrAIAssistDisabled, http.StatusUnprocessableEntity},
	{gallery.ErrInvalidIndex, http.StatusUnprocessableEntity},
	{generation.ErrInvalidVariant, http.StatusUnprocessableEntity},
	{generation.ErrMissingInputs, http.StatusUnprocessableEntity},
	{geocoding.ErrInvalidPostalCode, http.StatusUnprocessableEntity},

	{wizard.ErrWizardFinished, http.StatusConflict},
	{wizard.ErrSessionClosed, http.StatusConflict},
	{wizard.ErrFinalizeRunning, http.StatusConflict},
	{wizard.ErrGenerationBlocked, http.StatusConflict},
	{gallery.ErrInFlight, http.StatusConflict},
	{generation.ErrBusy, http.StatusConflict},

	{generation.ErrCapReached, http.StatusTooManyRequests},

	{persistence.ErrImageDeleteFailed, http.StatusBadGateway},

	{generation.ErrNotConfigured, http.StatusServiceUnavailable},
	{wizard.ErrNoAddressLookup, http.StatusServiceUnavailable},

	{context.DeadlineExceeded, http.StatusGatewayTimeout},
}

// statusFor maps a domain error to an HTTP status.
func statusFor(err error) int {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return http.StatusUnprocessableEntity
	}
	var perr *persistence.PartialFailureError
	if errors.As(err, &perr) {
		return http.StatusBadGateway
	}
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}

func (h *Handler) fail(c *gin.Context, err error) {
	h.failWith(c, err, nil)
}

// failWith writes the error response, adding extra fields to the body.
func (h *Handler) failWith(c *gin.Context, err error, extra gin.H) {
	status := statusFor(err)
	body := gin.H{"error": err.Error()}
	for k, v := range extra {
		body[k] = v
	}

	var verr *validation.Error
	if errors.As(err, &verr) {
		body["step"] = verr.Step
		body["reason"] = verr.Reason
	}
	var perr *persistence.PartialFailureError
	if errors.As(err, &perr) {
		body["completed"] = perr.Completed
		body["failed"] = perr.Failed
	}

	entry := h.logger.WithError(err).WithFields(logrus.Fields{
		"status": status,
		"path":   c.FullPath(),
	})
	if status >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}
	c.JSON(status, body)
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	h.logger.WithError(err).Debug("Invalid request")
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
