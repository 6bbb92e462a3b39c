package gallery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrNotImage       = errors.New("file is not an image")
	ErrFileTooLarge   = errors.New("file exceeds the maximum size")
	ErrBadDimensions  = errors.New("image has the wrong dimensions")
	ErrQuotaExceeded  = errors.New("storage quota exceeded")
	ErrQuotaCheck     = errors.New("storage quota check failed")
	ErrUnreadableSize = errors.New("could not read image dimensions")
)

// File is a locally selected upload candidate.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f File) Size() int64 {
	return int64(len(f.Data))
}

// Limits are the admission rules for a single file.
type Limits struct {
	MaxFileBytes int64
	Width        int
	Height       int
}

// DefaultLimits: 10 MB, square 1080×1080.
var DefaultLimits = Limits{
	MaxFileBytes: 10 * 1024 * 1024,
	Width:        1080,
	Height:       1080,
}

// QuotaResult is the answer of the storage quota service.
type QuotaResult struct {
	CanUpload bool    `json:"can_upload"`
	Reason    string  `json:"reason,omitempty"`
	UsedGB    float64 `json:"used_gb"`
	LimitGB   float64 `json:"limit_gb"`
}

// QuotaChecker is consulted before a file is admitted.
type QuotaChecker interface {
	ValidateStorageForFiles(ctx context.Context, files []File) (QuotaResult, error)
}

// Rejection explains why one file of a batch was not admitted.
type Rejection struct {
	FileName string `json:"file_name"`
	Reason   string `json:"reason"`
	Err      error  `json:"-"`
}

// checkFile applies the local rules: type, size and dimensions.
func (l Limits) checkFile(f File) error {
	detected := mimetype.Detect(f.Data)
	if !strings.HasPrefix(detected.String(), "image/") {
		return fmt.Errorf("%w (detected %s)", ErrNotImage, detected.String())
	}
	if f.Size() > l.MaxFileBytes {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, f.Size(), l.MaxFileBytes)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(f.Data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreadableSize, err)
	}
	if cfg.Width != l.Width || cfg.Height != l.Height {
		return fmt.Errorf("%w: got %dx%d, want %dx%d", ErrBadDimensions, cfg.Width, cfg.Height, l.Width, l.Height)
	}
	return nil
}

// checkQuota asks the quota service whether the files already accepted plus
// candidate still fit.
func checkQuota(ctx context.Context, quota QuotaChecker, accepted []File, candidate File) error {
	if quota == nil {
		return nil
	}
	batch := make([]File, 0, len(accepted)+1)
	batch = append(batch, accepted...)
	batch = append(batch, candidate)

	res, err := quota.ValidateStorageForFiles(ctx, batch)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrQuotaCheck, err)
	}
	if !res.CanUpload {
		if res.Reason != "" {
			return fmt.Errorf("%w: %s", ErrQuotaExceeded, res.Reason)
		}
		return fmt.Errorf("%w: %.2f of %.2f GB used", ErrQuotaExceeded, res.UsedGB, res.LimitGB)
	}
	return nil
}
