package notify

import (
	"context"
	"log/slog"

	"atlas-ads/internal/core/domain"
)

// LogNotifier emits advertiser alerts to the structured log. It stands in
// for an email or webhook channel; the serving path only requires that
// Notify never blocks on or propagates delivery failures.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier writing to the given logger.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the alert with campaign context.
func (n *LogNotifier) Notify(_ context.Context, campaign *domain.Campaign, message string) error {
	n.logger.Warn("campaign notification",
		slog.String("campaign_id", campaign.ID.String()),
		slog.String("campaign", campaign.Name),
		slog.String("message", message),
	)
	return nil
}
