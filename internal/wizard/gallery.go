package wizard

import (
	"context"

	"realtywizard/server/internal/gallery"
)

// AdmitImages checks and adds files to the gallery. With a persisted property
// they are uploaded right away, otherwise they wait for Finalize.
func (c *Controller) AdmitImages(ctx context.Context, files []gallery.File) (gallery.AdmissionResult, error) {
	if err := c.check(); err != nil {
		return gallery.AdmissionResult{}, err
	}
	ctx, done := c.scope(ctx)
	defer done()
	return c.gallery.Admit(ctx, files)
}

func (c *Controller) MoveImage(ctx context.Context, from, to int) error {
	if err := c.check(); err != nil {
		return err
	}
	ctx, done := c.scope(ctx)
	defer done()
	return c.gallery.Move(ctx, from, to)
}

func (c *Controller) MovePendingImage(from, to int) error {
	if err := c.check(); err != nil {
		return err
	}
	return c.gallery.MovePending(from, to)
}

func (c *Controller) SetMainImage(ctx context.Context, id string) error {
	if err := c.check(); err != nil {
		return err
	}
	ctx, done := c.scope(ctx)
	defer done()
	return c.gallery.SetMain(ctx, id)
}

// RemoveImage hides an image; persisted ones are deleted at Finalize.
func (c *Controller) RemoveImage(id string) error {
	if err := c.check(); err != nil {
		return err
	}
	return c.gallery.Remove(id)
}

func (c *Controller) RestoreImage(id string) error {
	if err := c.check(); err != nil {
		return err
	}
	return c.gallery.Restore(id)
}
