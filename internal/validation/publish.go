package validation

import (
	"strings"

	"realtywizard/server/internal/models"
)

// PublishPolicy carries the tenant-level settings that relax public-site rules.
type PublishPolicy struct {
	// ApprovalRequired lets a listing in any status be submitted to the
	// public site, since a reviewer approves it before it goes live.
	ApprovalRequired bool
}

// CanPublish is the single predicate deciding whether a draft may be made
// available on the public site. The gallery step and Finalize both use the
// same image-count rule through it.
func CanPublish(snap Snapshot, policy PublishPolicy) (bool, string) {
	b := snap.Draft.Basic
	if !b.IsActive {
		return false, "only active properties can be published"
	}
	if !policy.ApprovalRequired && !strings.EqualFold(strings.TrimSpace(b.Status), models.StatusAvailable) {
		return false, "only available properties can be published"
	}
	if reason := imageCountReason(snap.Gallery.Effective()); reason != "" {
		return false, reason
	}
	return true, ""
}
