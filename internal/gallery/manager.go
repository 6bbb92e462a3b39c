// Package gallery owns the image list of one wizard session and reconciles the
// optimistic local state with the remote image store.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"realtywizard/server/internal/models"
	"realtywizard/server/internal/validation"
)

var (
	ErrInFlight      = errors.New("an image upload is already in progress")
	ErrImageNotFound = errors.New("image not found")
	ErrInvalidIndex  = errors.New("image index out of range")
	ErrDeleteFailed  = errors.New("failed to delete image")
)

// Service is the remote image store.
type Service interface {
	UploadImages(ctx context.Context, propertyID string, files []File, category string) ([]models.GalleryImage, error)
	ReorderImages(ctx context.Context, orderedIDs []string) error
	SetMainImage(ctx context.Context, imageID string) error
	DeleteImage(ctx context.Context, imageID string) error
}

// PendingImage is an admitted file that has not been uploaded yet.
type PendingImage struct {
	LocalID string    `json:"id"`
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	AddedAt time.Time `json:"added_at"`
	File    File      `json:"-"`
}

// AdmissionResult reports a batch admission. Uploaded holds images stored
// immediately, Pending holds files queued for a later batch upload.
type AdmissionResult struct {
	Uploaded  []models.GalleryImage `json:"uploaded"`
	Pending   []PendingImage        `json:"pending"`
	Rejected  []Rejection           `json:"rejected"`
	UploadErr error                 `json:"-"`
}

// Manager holds images, pending uploads and pending removals. All mutations of
// the image list are serialized by opMu so an optimistic change always settles
// (commit or rollback) before the next one starts.
type Manager struct {
	svc    Service
	quota  QuotaChecker
	limits Limits
	logger *logrus.Logger

	opMu      sync.Mutex
	mu        sync.RWMutex
	uploading atomic.Bool

	propertyID string
	images     []models.GalleryImage
	pending    []PendingImage
	removals   []string
	removed    map[string]models.GalleryImage

	// storedMain is the image the backend holds as main. While it is pending
	// removal the first visible image is shown as main instead.
	storedMain string
}

// NewManager creates a gallery manager.
func NewManager(svc Service, quota QuotaChecker, limits Limits, logger *logrus.Logger) *Manager {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if limits == (Limits{}) {
		limits = DefaultLimits
	}
	return &Manager{
		svc:     svc,
		quota:   quota,
		limits:  limits,
		logger:  logger,
		removed: make(map[string]models.GalleryImage),
	}
}

// Load seeds the manager with the persisted images of an existing property.
func (m *Manager) Load(propertyID string, images []models.GalleryImage) {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()

	m.propertyID = propertyID
	m.images = normalize(cloneImages(images))
	m.pending = nil
	m.removals = nil
	m.removed = make(map[string]models.GalleryImage)
	m.storedMain = ""
	m.settleMain()
}

// Admit validates files one by one and uploads or queues the admitted ones.
// Only a concurrent admission returns an error; upload failures are reported
// in the result and the files stay queued.
func (m *Manager) Admit(ctx context.Context, files []File) (AdmissionResult, error) {
	if !m.uploading.CompareAndSwap(false, true) {
		return AdmissionResult{}, ErrInFlight
	}
	defer m.uploading.Store(false)

	// queued files are not stored yet, so the quota service cannot see them
	queued := m.PendingFiles()

	var result AdmissionResult
	var admitted []File
	for _, f := range files {
		err := m.limits.checkFile(f)
		if err == nil {
			err = checkQuota(ctx, m.quota, append(queued[:len(queued):len(queued)], admitted...), f)
		}
		if err != nil {
			result.Rejected = append(result.Rejected, Rejection{FileName: f.Name, Reason: err.Error(), Err: err})
			continue
		}
		admitted = append(admitted, f)
	}

	m.logger.WithFields(logrus.Fields{
		"admitted": len(admitted),
		"rejected": len(result.Rejected),
	}).Debug("Admitted gallery files")

	if len(admitted) == 0 {
		return result, nil
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.RLock()
	propertyID := m.propertyID
	m.mu.RUnlock()

	if propertyID == "" {
		result.Pending = m.enqueue(admitted)
		return result, nil
	}

	uploaded, err := m.svc.UploadImages(ctx, propertyID, admitted, models.DefaultImageCategory)
	if err != nil {
		m.logger.WithError(err).WithField("property_id", propertyID).Warn("Immediate upload failed, queueing files")
		result.Pending = m.enqueue(admitted)
		result.UploadErr = fmt.Errorf("failed to upload images: %w", err)
		return result, nil
	}

	m.mu.Lock()
	m.images = normalize(append(m.images, uploaded...))
	m.settleMain()
	m.mu.Unlock()
	result.Uploaded = cloneImages(uploaded)
	return result, nil
}

func (m *Manager) enqueue(files []File) []PendingImage {
	added := make([]PendingImage, 0, len(files))
	now := time.Now()
	for _, f := range files {
		added = append(added, PendingImage{
			LocalID: uuid.NewString(),
			Name:    f.Name,
			Size:    f.Size(),
			AddedAt: now,
			File:    f,
		})
	}
	m.mu.Lock()
	m.pending = append(m.pending, added...)
	m.mu.Unlock()
	return added
}

// commit applies a change locally, persists it and restores the previous
// image list if persisting fails.
func (m *Manager) commit(ctx context.Context, op string, apply func([]models.GalleryImage) ([]models.GalleryImage, bool, error), persist func(context.Context, []models.GalleryImage) error) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	snapshot := cloneImages(m.images)
	next, changed, err := apply(cloneImages(m.images))
	if err != nil || !changed {
		m.mu.Unlock()
		return err
	}
	m.images = next
	m.mu.Unlock()

	if err := persist(ctx, next); err != nil {
		m.mu.Lock()
		m.images = snapshot
		m.mu.Unlock()
		m.logger.WithError(err).WithField("operation", op).Warn("Gallery change rolled back")
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	return nil
}

// Move moves the persisted image at index from to index to. Images pending
// removal keep their relative order after the visible ones so the stored
// order stays dense.
func (m *Manager) Move(ctx context.Context, from, to int) error {
	var hidden []string
	return m.commit(ctx, "reorder images",
		func(images []models.GalleryImage) ([]models.GalleryImage, bool, error) {
			hidden = append([]string(nil), m.removals...)
			if from < 0 || from >= len(images) || to < 0 || to >= len(images) {
				return nil, false, fmt.Errorf("%w: move %d to %d of %d", ErrInvalidIndex, from, to, len(images))
			}
			if from == to {
				return nil, false, nil
			}
			return renumber(moveItem(images, from, to)), true, nil
		},
		func(ctx context.Context, images []models.GalleryImage) error {
			return m.svc.ReorderImages(ctx, append(idsOf(images), hidden...))
		})
}

// MoveUp swaps the image at index with its predecessor.
func (m *Manager) MoveUp(ctx context.Context, index int) error {
	return m.Move(ctx, index, index-1)
}

// MoveDown swaps the image at index with its successor.
func (m *Manager) MoveDown(ctx context.Context, index int) error {
	return m.Move(ctx, index, index+1)
}

// MovePending reorders the local upload queue. The first pending file becomes
// the main image when the queue is uploaded together with the property.
func (m *Manager) MovePending(from, to int) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()

	if from < 0 || from >= len(m.pending) || to < 0 || to >= len(m.pending) {
		return fmt.Errorf("%w: move %d to %d of %d pending", ErrInvalidIndex, from, to, len(m.pending))
	}
	m.pending = moveItem(m.pending, from, to)
	return nil
}

// SetMain makes imageID the only main image.
func (m *Manager) SetMain(ctx context.Context, imageID string) error {
	err := m.commit(ctx, "set main image",
		func(images []models.GalleryImage) ([]models.GalleryImage, bool, error) {
			idx := indexOf(images, imageID)
			if idx < 0 {
				return nil, false, fmt.Errorf("%w: %s", ErrImageNotFound, imageID)
			}
			// a main shown in place of a removed one is not stored yet
			if images[idx].IsMain && imageID == m.storedMain {
				return nil, false, nil
			}
			for i := range images {
				images[i].IsMain = i == idx
			}
			return images, true, nil
		},
		func(ctx context.Context, _ []models.GalleryImage) error {
			return m.svc.SetMainImage(ctx, imageID)
		})
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.storedMain = imageID
	m.mu.Unlock()
	return nil
}

// Remove hides an image. Persisted images are queued for deletion at
// Finalize; pending files are simply dropped.
func (m *Manager) Remove(id string) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, p := range m.pending {
		if p.LocalID == id {
			m.pending = append(m.pending[:i:i], m.pending[i+1:]...)
			return nil
		}
	}

	idx := indexOf(m.images, id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrImageNotFound, id)
	}
	img := m.images[idx]
	m.removed[id] = img
	m.removals = append(m.removals, id)
	m.images = renumber(append(m.images[:idx:idx], m.images[idx+1:]...))
	m.settleMain()
	return nil
}

// Restore undoes a pending removal.
func (m *Manager) Restore(id string) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()

	img, ok := m.removed[id]
	if !ok {
		return fmt.Errorf("%w: %s is not pending removal", ErrImageNotFound, id)
	}
	delete(m.removed, id)
	m.removals = dropID(m.removals, id)

	pos := img.Order
	if pos > len(m.images) {
		pos = len(m.images)
	}
	images := make([]models.GalleryImage, 0, len(m.images)+1)
	images = append(images, m.images[:pos]...)
	images = append(images, img)
	images = append(images, m.images[pos:]...)
	m.images = renumber(images)
	m.settleMain()
	return nil
}

// FlushRemovals deletes every image queued for removal, in order. It stops at
// the first failure; the failed id and the ones after it stay queued.
func (m *Manager) FlushRemovals(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.RLock()
	ids := append([]string(nil), m.removals...)
	m.mu.RUnlock()

	for _, id := range ids {
		if err := m.svc.DeleteImage(ctx, id); err != nil {
			m.logger.WithError(err).WithField("image_id", id).Error("Failed to delete image")
			return fmt.Errorf("%w %s: %v", ErrDeleteFailed, id, err)
		}

		m.mu.Lock()
		delete(m.removed, id)
		m.removals = dropID(m.removals, id)
		if id == m.storedMain {
			// the store promotes the first remaining image
			m.storedMain = ""
		}
		m.settleMain()
		m.mu.Unlock()
	}
	return nil
}

// FlushPending uploads the queued files to an existing property.
func (m *Manager) FlushPending(ctx context.Context, propertyID string) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.RLock()
	files := pendingFiles(m.pending)
	m.mu.RUnlock()
	if len(files) == 0 {
		return nil
	}

	uploaded, err := m.svc.UploadImages(ctx, propertyID, files, models.DefaultImageCategory)
	if err != nil {
		return fmt.Errorf("failed to upload queued images: %w", err)
	}

	m.mu.Lock()
	m.propertyID = propertyID
	m.pending = nil
	m.images = normalize(append(m.images, uploaded...))
	m.settleMain()
	m.mu.Unlock()
	return nil
}

// Promote records the identity of a newly created property and the images
// uploaded with it, clearing the pending queue.
func (m *Manager) Promote(propertyID string, images []models.GalleryImage) {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()

	m.propertyID = propertyID
	m.pending = nil
	m.images = normalize(cloneImages(images))
	m.storedMain = ""
	m.settleMain()
}

// PendingFiles returns the queued files in upload order.
func (m *Manager) PendingFiles() []File {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return pendingFiles(m.pending)
}

func (m *Manager) PropertyID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.propertyID
}

// Images returns the visible persisted images ordered by position.
func (m *Manager) Images() []models.GalleryImage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneImages(m.images)
}

func (m *Manager) Pending() []PendingImage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]PendingImage(nil), m.pending...)
}

func (m *Manager) Removals() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.removals...)
}

// Counts is the derived value the gallery step validates.
func (m *Manager) Counts() validation.GalleryCounts {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return validation.GalleryCounts{
		Existing:       len(m.images) + len(m.removals),
		PendingRemoval: len(m.removals),
		Pending:        len(m.pending),
	}
}

// InFlight reports whether an admission/upload is running.
func (m *Manager) InFlight() bool {
	return m.uploading.Load()
}

// settleMain marks the stored main image, or the first visible image when the
// stored one is hidden, as the only main. Must be called with m.mu held.
func (m *Manager) settleMain() {
	if m.storedMain == "" {
		if i := indexOfMain(m.images); i >= 0 {
			m.storedMain = m.images[i].ID
		}
	}
	visible := indexOf(m.images, m.storedMain)
	for i := range m.images {
		m.images[i].IsMain = i == visible
	}
	if visible < 0 && len(m.images) > 0 {
		m.images[0].IsMain = true
	}
}

func moveItem[T any](items []T, from, to int) []T {
	item := items[from]
	out := make([]T, 0, len(items))
	out = append(out, items[:from]...)
	out = append(out, items[from+1:]...)
	return append(out[:to], append([]T{item}, out[to:]...)...)
}

func renumber(images []models.GalleryImage) []models.GalleryImage {
	for i := range images {
		images[i].Order = i
	}
	return images
}

// normalize sorts by order, makes the order dense and enforces a single main
// image.
func normalize(images []models.GalleryImage) []models.GalleryImage {
	sort.SliceStable(images, func(i, j int) bool { return images[i].Order < images[j].Order })
	renumber(images)
	main := -1
	for i := range images {
		if images[i].IsMain {
			if main >= 0 {
				images[i].IsMain = false
				continue
			}
			main = i
		}
	}
	if main < 0 && len(images) > 0 {
		images[0].IsMain = true
	}
	return images
}

func cloneImages(images []models.GalleryImage) []models.GalleryImage {
	return append([]models.GalleryImage(nil), images...)
}

func idsOf(images []models.GalleryImage) []string {
	ids := make([]string, len(images))
	for i, img := range images {
		ids[i] = img.ID
	}
	return ids
}

func indexOf(images []models.GalleryImage, id string) int {
	for i, img := range images {
		if img.ID == id {
			return i
		}
	}
	return -1
}

func indexOfMain(images []models.GalleryImage) int {
	for i, img := range images {
		if img.IsMain {
			return i
		}
	}
	return -1
}

func dropID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func pendingFiles(pending []PendingImage) []File {
	files := make([]File, len(pending))
	for i, p := range pending {
		files[i] = p.File
	}
	return files
}
