package database

import (
	"context"
	"fmt"

	"realtywizard/server/internal/gallery"
)

const bytesPerGB = 1 << 30

// TenantQuota checks uploads against a per-tenant storage limit.
type TenantQuota struct {
	db       *Database
	tenantID string
	limitGB  float64
}

// Quota returns the quota checker of one tenant.
func (d *Database) Quota(tenantID string, limitGB float64) *TenantQuota {
	return &TenantQuota{db: d, tenantID: tenantID, limitGB: limitGB}
}

// ValidateStorageForFiles reports whether files fit in the remaining quota.
func (q *TenantQuota) ValidateStorageForFiles(ctx context.Context, files []gallery.File) (gallery.QuotaResult, error) {
	used, err := q.db.UsedStorage(ctx, q.tenantID)
	if err != nil {
		return gallery.QuotaResult{}, fmt.Errorf("failed to read storage usage: %w", err)
	}
	var incoming int64
	for _, f := range files {
		incoming += f.Size()
	}

	res := gallery.QuotaResult{
		CanUpload: true,
		UsedGB:    float64(used) / bytesPerGB,
		LimitGB:   q.limitGB,
	}
	if q.limitGB > 0 && float64(used+incoming) > q.limitGB*bytesPerGB {
		res.CanUpload = false
		res.Reason = fmt.Sprintf("%.2f GB of %.2f GB used", res.UsedGB, q.limitGB)
	}
	return res, nil
}
