package database

import "realtywizard/server/internal/models"

func (d *Database) RunMigrations() error {
	if err := d.db.AutoMigrate(&models.Property{}, &models.GalleryImage{}); err != nil {
		return err
	}

	// Create spatial index on coordinates
	return d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_properties_coordinates
		ON properties(latitude, longitude);
	`).Error
}
