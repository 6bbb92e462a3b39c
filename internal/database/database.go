package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"realtywizard/server/internal/gallery"
	"realtywizard/server/internal/imagestore"
	"realtywizard/server/internal/models"
	"realtywizard/server/internal/persistence"
)

var (
	ErrImageNotFound   = errors.New("image not found")
	ErrMixedProperties = errors.New("images belong to different properties")
)

// MediaStore holds the image bytes; the database only keeps their metadata.
type MediaStore interface {
	Save(propertyID string, data []byte) (imagestore.Object, error)
	Delete(path string) error
}

type Database struct {
	db     *gorm.DB
	media  MediaStore
	logger *logrus.Logger
}

func NewDatabase(dbPath string, media MediaStore, logger *logrus.Logger) (*Database, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	// Enable foreign keys
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, err
	}

	return &Database{db: db, media: media, logger: logger}, nil
}

func (d *Database) GetDB() *gorm.DB {
	return d.db
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func withImages(db *gorm.DB) *gorm.DB {
	return db.Preload("Images", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("sort_order ASC")
	})
}

// GetPropertyByID loads a property with its images in display order.
func (d *Database) GetPropertyByID(ctx context.Context, id string) (*models.Property, error) {
	var p models.Property
	err := withImages(d.db.WithContext(ctx)).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", persistence.ErrPropertyNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProperties returns the tenant's properties, newest first, optionally
// restricted to one city.
func (d *Database) ListProperties(ctx context.Context, tenantID, city string) ([]models.Property, error) {
	q := withImages(d.db.WithContext(ctx)).Where("tenant_id = ?", tenantID)
	if city = strings.TrimSpace(city); city != "" {
		q = q.Where("LOWER(city) = LOWER(?)", city)
	}
	var properties []models.Property
	if err := q.Order("created_at DESC").Find(&properties).Error; err != nil {
		return nil, err
	}
	return properties, nil
}

func (d *Database) CreateProperty(ctx context.Context, payload models.PropertyPayload) (*models.Property, error) {
	return d.CreatePropertyWithImages(ctx, payload, nil)
}

// CreatePropertyWithImages inserts the property and its first images in one
// transaction. The first file becomes the main image.
func (d *Database) CreatePropertyWithImages(ctx context.Context, payload models.PropertyPayload, files []gallery.File) (*models.Property, error) {
	p := &models.Property{ID: uuid.NewString()}
	p.Apply(payload)

	var written []string
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Images").Create(p).Error; err != nil {
			return fmt.Errorf("failed to insert property: %w", err)
		}
		images, paths, err := d.storeImages(tx, p.ID, files, models.DefaultImageCategory, 0, true)
		written = paths
		if err != nil {
			return err
		}
		p.Images = images
		return nil
	})
	if err != nil {
		d.discard(written)
		return nil, err
	}

	d.logger.WithFields(logrus.Fields{
		"property_id": p.ID,
		"tenant_id":   p.TenantID,
		"images":      len(p.Images),
	}).Info("Inserted property")
	return p, nil
}

// UpdateProperty overwrites the editable fields. Images are managed through
// the gallery calls and are not touched here.
func (d *Database) UpdateProperty(ctx context.Context, id string, payload models.PropertyPayload) (*models.Property, error) {
	p, err := d.GetPropertyByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.TenantID != payload.TenantID {
		return nil, fmt.Errorf("%w: %s", persistence.ErrPropertyNotFound, id)
	}
	p.Apply(payload)
	if err := d.db.WithContext(ctx).Omit("Images").Save(p).Error; err != nil {
		return nil, fmt.Errorf("failed to update property %s: %w", id, err)
	}
	return p, nil
}

// UploadImages appends images to an existing property.
func (d *Database) UploadImages(ctx context.Context, propertyID string, files []gallery.File, category string) ([]models.GalleryImage, error) {
	var images []models.GalleryImage
	var written []string
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Property{}).Where("id = ?", propertyID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("%w: %s", persistence.ErrPropertyNotFound, propertyID)
		}

		var existing []models.GalleryImage
		if err := tx.Where("property_id = ?", propertyID).Find(&existing).Error; err != nil {
			return err
		}
		next, hasMain := 0, false
		for _, img := range existing {
			if img.Order >= next {
				next = img.Order + 1
			}
			hasMain = hasMain || img.IsMain
		}

		var err error
		images, written, err = d.storeImages(tx, propertyID, files, category, next, !hasMain)
		return err
	})
	if err != nil {
		d.discard(written)
		return nil, err
	}
	return images, nil
}

// storeImages writes files to the media store and inserts their rows starting
// at sort order first. It returns the written paths even on failure so the
// caller can clean them up after a rollback.
func (d *Database) storeImages(tx *gorm.DB, propertyID string, files []gallery.File, category string, first int, markMain bool) ([]models.GalleryImage, []string, error) {
	if len(files) == 0 {
		return nil, nil, nil
	}
	if d.media == nil {
		return nil, nil, errors.New("no media store configured")
	}
	if category == "" {
		category = models.DefaultImageCategory
	}

	images := make([]models.GalleryImage, 0, len(files))
	written := make([]string, 0, len(files))
	for i, f := range files {
		obj, err := d.media.Save(propertyID, f.Data)
		if err != nil {
			return nil, written, fmt.Errorf("failed to store %s: %w", f.Name, err)
		}
		written = append(written, obj.Path)
		images = append(images, models.GalleryImage{
			ID:          uuid.NewString(),
			PropertyID:  propertyID,
			URL:         obj.URL,
			Path:        obj.Path,
			Size:        obj.Size,
			ContentType: obj.ContentType,
			Category:    category,
			IsMain:      markMain && i == 0,
			Order:       first + i,
		})
	}
	if err := tx.Create(&images).Error; err != nil {
		return nil, written, fmt.Errorf("failed to insert images: %w", err)
	}
	return images, written, nil
}

func (d *Database) discard(paths []string) {
	for _, p := range paths {
		if err := d.media.Delete(p); err != nil {
			d.logger.WithError(err).WithField("path", p).Warn("Failed to remove orphaned media file")
		}
	}
}

// ReorderImages sets the sort order to the position of each id. All ids must
// belong to the same property.
func (d *Database) ReorderImages(ctx context.Context, orderedIDs []string) error {
	if len(orderedIDs) == 0 {
		return nil
	}
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var images []models.GalleryImage
		if err := tx.Where("id IN ?", orderedIDs).Find(&images).Error; err != nil {
			return err
		}
		if len(images) != len(orderedIDs) {
			return fmt.Errorf("%w: expected %d, found %d", ErrImageNotFound, len(orderedIDs), len(images))
		}
		for _, img := range images[1:] {
			if img.PropertyID != images[0].PropertyID {
				return ErrMixedProperties
			}
		}
		for i, id := range orderedIDs {
			if err := tx.Model(&models.GalleryImage{}).Where("id = ?", id).Update("sort_order", i).Error; err != nil {
				return fmt.Errorf("failed to reorder image %s: %w", id, err)
			}
		}

		// images left out keep their relative order after the listed ones
		var rest []models.GalleryImage
		if err := tx.Where("property_id = ? AND id NOT IN ?", images[0].PropertyID, orderedIDs).
			Order("sort_order ASC").Find(&rest).Error; err != nil {
			return err
		}
		for i, img := range rest {
			if err := tx.Model(&models.GalleryImage{}).Where("id = ?", img.ID).Update("sort_order", len(orderedIDs)+i).Error; err != nil {
				return fmt.Errorf("failed to reorder image %s: %w", img.ID, err)
			}
		}
		return nil
	})
}

// SetMainImage makes imageID the only main image of its property.
func (d *Database) SetMainImage(ctx context.Context, imageID string) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		img, err := findImage(tx, imageID)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.GalleryImage{}).
			Where("property_id = ? AND id <> ?", img.PropertyID, imageID).
			Update("is_main", false).Error; err != nil {
			return err
		}
		return tx.Model(&models.GalleryImage{}).Where("id = ?", imageID).Update("is_main", true).Error
	})
}

// DeleteImage removes an image, closes the gap in the sort order and, when it
// was the main image, promotes the first remaining one.
func (d *Database) DeleteImage(ctx context.Context, imageID string) error {
	var removed *models.GalleryImage
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		img, err := findImage(tx, imageID)
		if err != nil {
			return err
		}
		if err := tx.Delete(&models.GalleryImage{}, "id = ?", imageID).Error; err != nil {
			return err
		}

		var rest []models.GalleryImage
		if err := tx.Where("property_id = ?", img.PropertyID).Order("sort_order ASC").Find(&rest).Error; err != nil {
			return err
		}
		for i, r := range rest {
			updates := map[string]interface{}{"sort_order": i}
			if img.IsMain && i == 0 {
				updates["is_main"] = true
			}
			if err := tx.Model(&models.GalleryImage{}).Where("id = ?", r.ID).Updates(updates).Error; err != nil {
				return err
			}
		}
		removed = img
		return nil
	})
	if err != nil {
		return err
	}

	if d.media != nil {
		if err := d.media.Delete(removed.Path); err != nil {
			d.logger.WithError(err).WithField("image_id", imageID).Warn("Image row deleted but file remained")
		}
	}
	return nil
}

func findImage(tx *gorm.DB, id string) (*models.GalleryImage, error) {
	var img models.GalleryImage
	err := tx.First(&img, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrImageNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &img, nil
}

// UsedStorage is the total size of the tenant's stored images in bytes.
func (d *Database) UsedStorage(ctx context.Context, tenantID string) (int64, error) {
	var used int64
	err := d.db.WithContext(ctx).Model(&models.GalleryImage{}).
		Select("COALESCE(SUM(gallery_images.size), 0)").
		Joins("JOIN properties ON properties.id = gallery_images.property_id").
		Where("properties.tenant_id = ?", tenantID).
		Scan(&used).Error
	return used, err
}

// PropertiesMissingCoordinates returns saved properties that were never
// geocoded.
func (d *Database) PropertiesMissingCoordinates(ctx context.Context, limit int) ([]models.Property, error) {
	var properties []models.Property
	err := d.db.WithContext(ctx).
		Where("(latitude IS NULL OR longitude IS NULL) AND geocoding_attempted = ?", false).
		Where("street <> '' AND city <> ''").
		Limit(limit).
		Find(&properties).Error
	return properties, err
}

// UpdateCoordinates stores a geocoding result. A nil point only marks the
// attempt so the property is not retried forever.
func UpdateCoordinates(tx *gorm.DB, propertyID string, point *orb.Point) error {
	updates := map[string]interface{}{"geocoding_attempted": true}
	if point != nil {
		updates["longitude"] = point.Lon()
		updates["latitude"] = point.Lat()
	}
	res := tx.Model(&models.Property{}).Where("id = ?", propertyID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", persistence.ErrPropertyNotFound, propertyID)
	}
	return nil
}
