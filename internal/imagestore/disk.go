// Package imagestore writes uploaded gallery files to the media directory.
package imagestore

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var ErrEmptyFile = errors.New("empty file")

// Object is a stored file.
type Object struct {
	Path        string
	URL         string
	ContentType string
	Size        int64
}

// DiskStore keeps files under dir/<property id>/ and serves them under
// baseURL.
type DiskStore struct {
	dir     string
	baseURL string
	logger  *logrus.Logger
}

func NewDiskStore(dir, baseURL string, logger *logrus.Logger) (*DiskStore, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	return &DiskStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}, nil
}

// Save writes data under a generated name. The extension follows the
// detected content type, not the client file name.
func (s *DiskStore) Save(propertyID string, data []byte) (Object, error) {
	if len(data) == 0 {
		return Object{}, ErrEmptyFile
	}
	mt := mimetype.Detect(data)
	name := uuid.NewString() + mt.Extension()
	rel := path.Join(propertyID, name)

	full := filepath.Join(s.dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return Object{}, fmt.Errorf("failed to create property media directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return Object{}, fmt.Errorf("failed to write %s: %w", rel, err)
	}

	s.logger.WithFields(logrus.Fields{
		"property_id":  propertyID,
		"path":         rel,
		"content_type": mt.String(),
		"size":         len(data),
	}).Debug("Stored media file")

	return Object{
		Path:        rel,
		URL:         s.baseURL + "/" + rel,
		ContentType: mt.String(),
		Size:        int64(len(data)),
	}, nil
}

// Delete removes a stored file. A missing file is not an error.
func (s *DiskStore) Delete(rel string) error {
	if rel == "" {
		return nil
	}
	full := filepath.Join(s.dir, filepath.FromSlash(path.Clean("/" + rel)))
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", rel, err)
	}
	return nil
}

// Dir is the root directory, for serving.
func (s *DiskStore) Dir() string {
	return s.dir
}
