package port

import (
	"context"

	"atlas-ads/internal/core/domain"
)

// Notifier delivers fire-and-forget advertiser alerts, e.g. when a
// campaign crosses its daily budget. Failures must never propagate to
// the serving path; callers log and move on.
type Notifier interface {
	Notify(ctx context.Context, campaign *domain.Campaign, message string) error
}
