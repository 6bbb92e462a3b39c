package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realtywizard/server/internal/gallery"
	"realtywizard/server/internal/imagestore"
	"realtywizard/server/internal/models"
	"realtywizard/server/internal/persistence"
	"realtywizard/server/internal/testhelpers"
)

func setupTestDB(t *testing.T) *Database {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	dir := t.TempDir()
	media, err := imagestore.NewDiskStore(filepath.Join(dir, "media"), "/media", logger)
	require.NoError(t, err)

	db, err := NewDatabase(filepath.Join(dir, "test.db"), media, logger)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { db.Close() })
	return db
}

func testPayload(t *testing.T, tenantID string) models.PropertyPayload {
	t.Helper()
	payload, err := persistence.BuildPayload(testhelpers.ValidDraft(), tenantID)
	require.NoError(t, err)
	return payload
}

func pngFiles(n int) []gallery.File {
	files := make([]gallery.File, n)
	for i := range files {
		files[i] = gallery.File{Name: "photo.png", Data: testhelpers.SquarePNG(32)}
	}
	return files
}

func mainCount(images []models.GalleryImage) int {
	n := 0
	for _, img := range images {
		if img.IsMain {
			n++
		}
	}
	return n
}

func TestCreatePropertyWithImages(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	created, err := db.CreatePropertyWithImages(ctx, testPayload(t, "tenant-1"), pngFiles(3))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Len(t, created.Images, 3)
	assert.True(t, created.Images[0].IsMain)
	assert.Equal(t, 1, mainCount(created.Images))

	loaded, err := db.GetPropertyByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "tenant-1", loaded.TenantID)
	assert.Equal(t, "captor-1", loaded.CaptorIDs)
	require.Len(t, loaded.Images, 3)
	for i, img := range loaded.Images {
		assert.Equal(t, i, img.Order)
		assert.Equal(t, "image/png", img.ContentType)
	}

	d := persistence.DraftFromProperty(loaded)
	assert.Equal(t, "R$ 500.000,00", d.Pricing.SalePrice)
}

func TestGetPropertyByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.GetPropertyByID(context.Background(), "missing")
	assert.ErrorIs(t, err, persistence.ErrPropertyNotFound)
}

func TestUpdateProperty(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	created, err := db.CreateProperty(ctx, testPayload(t, "tenant-1"))
	require.NoError(t, err)

	payload := testPayload(t, "tenant-1")
	payload.Title = "Casa reformada"
	updated, err := db.UpdateProperty(ctx, created.ID, payload)
	require.NoError(t, err)
	assert.Equal(t, "Casa reformada", updated.Title)

	_, err = db.UpdateProperty(ctx, created.ID, testPayload(t, "tenant-2"))
	assert.ErrorIs(t, err, persistence.ErrPropertyNotFound)
}

func TestUploadReorderAndSetMain(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	created, err := db.CreatePropertyWithImages(ctx, testPayload(t, "tenant-1"), pngFiles(2))
	require.NoError(t, err)

	added, err := db.UploadImages(ctx, created.ID, pngFiles(1), "")
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.Equal(t, 2, added[0].Order)
	assert.False(t, added[0].IsMain)

	ids := []string{added[0].ID, created.Images[0].ID, created.Images[1].ID}
	require.NoError(t, db.ReorderImages(ctx, ids))
	require.NoError(t, db.SetMainImage(ctx, added[0].ID))

	loaded, err := db.GetPropertyByID(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Images, 3)
	assert.Equal(t, added[0].ID, loaded.Images[0].ID)
	assert.True(t, loaded.Images[0].IsMain)
	assert.Equal(t, 1, mainCount(loaded.Images))

	assert.ErrorIs(t, db.ReorderImages(ctx, []string{"nope"}), ErrImageNotFound)
	assert.ErrorIs(t, db.SetMainImage(ctx, "nope"), ErrImageNotFound)

	_, err = db.UploadImages(ctx, "missing", pngFiles(1), "")
	assert.ErrorIs(t, err, persistence.ErrPropertyNotFound)
}

func storedOrders(t *testing.T, db *Database, propertyID string) map[string]int {
	t.Helper()
	loaded, err := db.GetPropertyByID(context.Background(), propertyID)
	require.NoError(t, err)
	orders := make(map[string]int, len(loaded.Images))
	seen := make(map[int]bool)
	for _, img := range loaded.Images {
		require.False(t, seen[img.Order], "order %d held by two images", img.Order)
		seen[img.Order] = true
		orders[img.ID] = img.Order
	}
	for i := range loaded.Images {
		require.True(t, seen[i], "order %d missing", i)
	}
	return orders
}

func TestGalleryMoveWithPendingRemoval(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	created, err := db.CreatePropertyWithImages(ctx, testPayload(t, "tenant-1"), pngFiles(3))
	require.NoError(t, err)
	imgs := created.Images

	m := gallery.NewManager(db, nil, gallery.DefaultLimits, db.logger)
	m.Load(created.ID, imgs)
	require.NoError(t, m.Remove(imgs[1].ID))
	require.NoError(t, m.Move(ctx, 0, 1))

	// no flush: the removed image is still stored and sorts last
	orders := storedOrders(t, db, created.ID)
	assert.Equal(t, 0, orders[imgs[2].ID])
	assert.Equal(t, 1, orders[imgs[0].ID])
	assert.Equal(t, 2, orders[imgs[1].ID])

	require.NoError(t, m.Restore(imgs[1].ID))
	require.NoError(t, m.FlushRemovals(ctx))
	storedOrders(t, db, created.ID)
}

func TestReorderImages_RenumbersUnlisted(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	created, err := db.CreatePropertyWithImages(ctx, testPayload(t, "tenant-1"), pngFiles(4))
	require.NoError(t, err)
	imgs := created.Images

	require.NoError(t, db.ReorderImages(ctx, []string{imgs[3].ID, imgs[1].ID}))
	orders := storedOrders(t, db, created.ID)
	assert.Equal(t, 0, orders[imgs[3].ID])
	assert.Equal(t, 1, orders[imgs[1].ID])
	assert.Equal(t, 2, orders[imgs[0].ID])
	assert.Equal(t, 3, orders[imgs[2].ID])
}

func TestGalleryRemoveMainThenFlush(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	created, err := db.CreatePropertyWithImages(ctx, testPayload(t, "tenant-1"), pngFiles(3))
	require.NoError(t, err)
	imgs := created.Images

	m := gallery.NewManager(db, nil, gallery.DefaultLimits, db.logger)
	m.Load(created.ID, imgs)
	require.NoError(t, m.Remove(imgs[0].ID))
	visible := m.Images()
	assert.Equal(t, 1, mainCount(visible))
	assert.True(t, visible[0].IsMain)

	require.NoError(t, m.FlushRemovals(ctx))
	loaded, err := db.GetPropertyByID(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Images, 2)
	assert.Equal(t, visible[0].ID, loaded.Images[0].ID)
	assert.True(t, loaded.Images[0].IsMain)
	assert.Equal(t, 1, mainCount(loaded.Images))
}

func TestDeleteImage_PromotesAndCompacts(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	created, err := db.CreatePropertyWithImages(ctx, testPayload(t, "tenant-1"), pngFiles(3))
	require.NoError(t, err)

	require.NoError(t, db.DeleteImage(ctx, created.Images[0].ID))

	loaded, err := db.GetPropertyByID(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Images, 2)
	assert.Equal(t, created.Images[1].ID, loaded.Images[0].ID)
	assert.True(t, loaded.Images[0].IsMain)
	assert.Equal(t, 0, loaded.Images[0].Order)
	assert.Equal(t, 1, loaded.Images[1].Order)

	assert.ErrorIs(t, db.DeleteImage(ctx, created.Images[0].ID), ErrImageNotFound)
}

func TestListProperties(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	_, err := db.CreateProperty(ctx, testPayload(t, "tenant-1"))
	require.NoError(t, err)
	_, err = db.CreateProperty(ctx, testPayload(t, "tenant-2"))
	require.NoError(t, err)

	props, err := db.ListProperties(ctx, "tenant-1", "")
	require.NoError(t, err)
	assert.Len(t, props, 1)

	props, err = db.ListProperties(ctx, "tenant-1", "são paulo")
	require.NoError(t, err)
	assert.Len(t, props, 1)

	props, err = db.ListProperties(ctx, "tenant-1", "Campinas")
	require.NoError(t, err)
	assert.Empty(t, props)
}

func TestQuota(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	_, err := db.CreatePropertyWithImages(ctx, testPayload(t, "tenant-1"), pngFiles(2))
	require.NoError(t, err)

	used, err := db.UsedStorage(ctx, "tenant-1")
	require.NoError(t, err)
	assert.Greater(t, used, int64(0))

	res, err := db.Quota("tenant-1", 1).ValidateStorageForFiles(ctx, pngFiles(1))
	require.NoError(t, err)
	assert.True(t, res.CanUpload)

	tiny := float64(used) / bytesPerGB
	res, err = db.Quota("tenant-1", tiny).ValidateStorageForFiles(ctx, pngFiles(1))
	require.NoError(t, err)
	assert.False(t, res.CanUpload)
	assert.NotEmpty(t, res.Reason)

	res, err = db.Quota("tenant-2", tiny).ValidateStorageForFiles(ctx, pngFiles(1))
	require.NoError(t, err)
	assert.True(t, res.CanUpload)
}

func TestUpdateCoordinates(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	created, err := db.CreateProperty(ctx, testPayload(t, "tenant-1"))
	require.NoError(t, err)
	other, err := db.CreateProperty(ctx, testPayload(t, "tenant-1"))
	require.NoError(t, err)

	missing, err := db.PropertiesMissingCoordinates(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, missing, 2)

	point := orb.Point{-46.6559, -23.5614}
	require.NoError(t, UpdateCoordinates(db.GetDB(), created.ID, &point))
	require.NoError(t, UpdateCoordinates(db.GetDB(), other.ID, nil))

	loaded, err := db.GetPropertyByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.Latitude)
	assert.InDelta(t, -23.5614, *loaded.Latitude, 1e-9)
	assert.InDelta(t, -46.6559, *loaded.Longitude, 1e-9)

	missing, err = db.PropertiesMissingCoordinates(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, missing)

	assert.ErrorIs(t, UpdateCoordinates(db.GetDB(), "missing", nil), persistence.ErrPropertyNotFound)
}
