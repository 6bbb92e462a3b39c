// Package persistence turns a finished wizard draft into exactly one create or
// update call and interprets the outcome.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"realtywizard/server/internal/gallery"
	"realtywizard/server/internal/models"
	"realtywizard/server/internal/validation"
)

var (
	ErrInvalidPayload    = errors.New("invalid property payload")
	ErrNotPublishable    = errors.New("property cannot be published on the public site")
	ErrImageDeleteFailed = errors.New("failed to delete removed images")
	ErrPropertyNotFound  = errors.New("property not found")
)

// PartialFailureError reports a save where some remote changes were already
// applied before a later call failed. Nothing is compensated.
type PartialFailureError struct {
	Completed []string
	Failed    string
	Err       error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%s failed after %s: %v", e.Failed, strings.Join(e.Completed, ", "), e.Err)
}

func (e *PartialFailureError) Unwrap() error {
	return e.Err
}

// PropertyService is the remote property store.
type PropertyService interface {
	CreateProperty(ctx context.Context, payload models.PropertyPayload) (*models.Property, error)
	CreatePropertyWithImages(ctx context.Context, payload models.PropertyPayload, files []gallery.File) (*models.Property, error)
	UpdateProperty(ctx context.Context, id string, payload models.PropertyPayload) (*models.Property, error)
	GetPropertyByID(ctx context.Context, id string) (*models.Property, error)
}

// Gallery is the part of the gallery manager a save needs.
type Gallery interface {
	Counts() validation.GalleryCounts
	PendingFiles() []gallery.File
	Removals() []string
	FlushRemovals(ctx context.Context) error
	FlushPending(ctx context.Context, propertyID string) error
	Promote(propertyID string, images []models.GalleryImage)
}

// Enqueuer receives saved properties for background processing.
type Enqueuer interface {
	Enqueue(p *models.Property) error
}

// SaveInput is everything a single Finalize needs.
type SaveInput struct {
	TenantID   string
	PropertyID string // empty when creating
	Draft      models.PropertyDraft
	Gallery    Gallery
	Policy     validation.PublishPolicy
}

type Gateway struct {
	svc    PropertyService
	queue  Enqueuer
	logger *logrus.Logger
}

func NewGateway(svc PropertyService, queue Enqueuer, logger *logrus.Logger) *Gateway {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Gateway{svc: svc, queue: queue, logger: logger}
}

// Load fetches a property for an edit session.
func (g *Gateway) Load(ctx context.Context, tenantID, id string) (*models.Property, error) {
	prop, err := g.svc.GetPropertyByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if prop.TenantID != tenantID {
		return nil, fmt.Errorf("%w: %s", ErrPropertyNotFound, id)
	}
	return prop, nil
}

// Save performs the create or update described by in.
func (g *Gateway) Save(ctx context.Context, in SaveInput) (*models.Property, error) {
	payload, err := BuildPayload(in.Draft, in.TenantID)
	if err != nil {
		return nil, err
	}

	if payload.PublicSite {
		snap := validation.Snapshot{Draft: in.Draft, Gallery: in.Gallery.Counts()}
		if ok, reason := validation.CanPublish(snap, in.Policy); !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotPublishable, reason)
		}
	}

	var prop *models.Property
	if in.PropertyID == "" {
		prop, err = g.create(ctx, payload, in.Gallery)
	} else {
		prop, err = g.update(ctx, in.PropertyID, payload, in.Gallery)
	}
	if err != nil {
		return nil, err
	}

	if g.queue != nil {
		if err := g.queue.Enqueue(prop); err != nil {
			g.logger.WithError(err).WithField("property_id", prop.ID).Warn("Could not queue property for geocoding")
		}
	}
	return prop, nil
}

func (g *Gateway) create(ctx context.Context, payload models.PropertyPayload, gal Gallery) (*models.Property, error) {
	files := gal.PendingFiles()

	var prop *models.Property
	var err error
	if len(files) > 0 {
		prop, err = g.svc.CreatePropertyWithImages(ctx, payload, files)
	} else {
		prop, err = g.svc.CreateProperty(ctx, payload)
	}
	if err != nil {
		g.logger.WithError(err).WithField("tenant_id", payload.TenantID).Error("Failed to create property")
		return nil, fmt.Errorf("failed to create property: %w", err)
	}

	gal.Promote(prop.ID, prop.Images)
	g.logger.WithFields(logrus.Fields{
		"property_id": prop.ID,
		"images":      len(prop.Images),
	}).Info("Property created")
	return prop, nil
}

// update flushes removals, then queued uploads, then the property itself. A
// failed delete aborts before anything else is sent.
func (g *Gateway) update(ctx context.Context, id string, payload models.PropertyPayload, gal Gallery) (*models.Property, error) {
	var completed []string

	if removals := len(gal.Removals()); removals > 0 {
		if err := gal.FlushRemovals(ctx); err != nil {
			flushed := removals - len(gal.Removals())
			g.logger.WithError(err).WithFields(logrus.Fields{
				"property_id": id,
				"deleted":     flushed,
				"remaining":   len(gal.Removals()),
			}).Error("Aborting update, image removal failed")
			return nil, fmt.Errorf("%w: %v", ErrImageDeleteFailed, err)
		}
		completed = append(completed, fmt.Sprintf("deleting %d image(s)", removals))
	}

	if pending := len(gal.PendingFiles()); pending > 0 {
		if err := gal.FlushPending(ctx, id); err != nil {
			return nil, g.failure(completed, "uploading images", err)
		}
		completed = append(completed, fmt.Sprintf("uploading %d image(s)", pending))
	}

	prop, err := g.svc.UpdateProperty(ctx, id, payload)
	if err != nil {
		return nil, g.failure(completed, "updating property", err)
	}

	g.logger.WithFields(logrus.Fields{
		"property_id": id,
		"applied":     completed,
	}).Info("Property updated")
	return prop, nil
}

func (g *Gateway) failure(completed []string, op string, err error) error {
	if len(completed) == 0 {
		return fmt.Errorf("%s: %w", op, err)
	}
	perr := &PartialFailureError{Completed: completed, Failed: op, Err: err}
	g.logger.WithError(err).WithField("completed", completed).Error("Save partially applied")
	return perr
}
