package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"atlas-ads/internal/config/configs"
	"atlas-ads/internal/core/domain"
	"atlas-ads/internal/core/port"
	"atlas-ads/internal/metrics"
)

// AdService implements port.AdUseCase. It orchestrates eligibility
// filtering, budget admission, selection, the serving cache and the
// delivery accounting pipeline.
type AdService struct {
	repo     port.AdRepository
	ledger   port.SpendLedger
	cache    port.Cache
	notifier port.Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger

	// cost is the estimated spend per impression used for both admission
	// and debiting.
	cost        decimal.Decimal
	cacheTTL    time.Duration
	limitedRate float64

	// now and randFloat are injected for deterministic tests.
	now       func() time.Time
	randFloat func() float64
}

// NewAdService wires the decision engine. continue_limited admission
// draws from the process-wide generator, which serializes access and is
// safe from concurrent request handlers; tests replace randFloat with a
// deterministic stub.
func NewAdService(
	repo port.AdRepository,
	ledger port.SpendLedger,
	cache port.Cache,
	notifier port.Notifier,
	m *metrics.Metrics,
	logger *slog.Logger,
	cfg configs.Serving,
) *AdService {
	return &AdService{
		repo:        repo,
		ledger:      ledger,
		cache:       cache,
		notifier:    notifier,
		metrics:     m,
		logger:      logger,
		cost:        cfg.Cost(),
		cacheTTL:    cfg.CacheTTL,
		limitedRate: cfg.LimitedAdmissionRate,
		now:         time.Now,
		randFloat:   rand.Float64,
	}
}

// ServeAds runs the full decisioning path for one request. Cache hits
// skip eligibility and selection but are still billed and logged; spend
// accounting is never skipped.
func (s *AdService) ServeAds(ctx context.Context, req *domain.AdRequest) ([]port.AdPayload, error) {
	start := s.now()
	defer func() {
		s.metrics.ServeDurationSeconds.Observe(s.now().Sub(start).Seconds())
	}()

	req.Normalize()
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	cacheKey := req.CacheKey()

	if cached, ok := s.cache.Get(cacheKey); ok && len(cached) > 0 {
		s.metrics.CacheHitsTotal.Inc()
		s.billCachedImpression(ctx, cached[0], req)
		return cached, nil
	}
	s.metrics.CacheMissesTotal.Inc()

	now := s.now()
	eligible, err := s.eligibleCampaigns(ctx, req, now)
	if err != nil {
		return nil, err
	}

	selection := selectCreatives(eligible, req)

	var selectedCampaign *uuid.UUID
	if len(selection) > 0 {
		selectedCampaign = &selection[0].campaign.ID
	}
	// Side channel: never blocks or fails the response.
	s.trackOpportunities(ctx, requestID, eligible, selectedCampaign, req)

	if len(selection) == 0 {
		s.metrics.NoInventoryTotal.Inc()
		return nil, port.ErrNoInventory
	}

	payloads := make([]port.AdPayload, len(selection))
	for i, sel := range selection {
		payloads[i] = port.PayloadFor(sel.creative)
	}

	s.cache.Set(cacheKey, payloads, s.cacheTTL)
	s.logImpression(ctx, selection[0].creative.ID, selection[0].campaign, req)
	s.metrics.AdsServedTotal.Inc()

	return payloads, nil
}

// RegisterClick appends a click for the creative. Clicks are not billed
// and never link back to an impression: the public callback only carries
// the ad id.
func (s *AdService) RegisterClick(ctx context.Context, adID uuid.UUID) error {
	creative, err := s.repo.GetCreative(ctx, adID)
	if err != nil {
		return err
	}
	if creative == nil {
		return port.ErrAdNotFound
	}

	click := domain.Click{
		ID:         uuid.New(),
		CreativeID: creative.ID,
		CampaignID: creative.CampaignID,
		Timestamp:  s.now().UTC(),
	}
	if err := s.repo.CreateClick(ctx, &click); err != nil {
		return err
	}
	s.metrics.ClicksTotal.Inc()
	return nil
}

// Stats returns delivery statistics for one campaign or for all.
func (s *AdService) Stats(ctx context.Context, campaignID *uuid.UUID) ([]port.CampaignStats, error) {
	return s.repo.Stats(ctx, campaignID, s.now())
}

// ResetDailyBudgets clears sticky exceeded flags, defaulting to today
// when day is zero and to all campaigns when campaignID is nil. The
// midnight cron invokes this through the -reset-budgets flag.
func (s *AdService) ResetDailyBudgets(ctx context.Context, day time.Time, campaignID *uuid.UUID) (int64, error) {
	if day.IsZero() {
		day = s.now()
	}
	return s.ledger.ResetDay(ctx, day, campaignID)
}

func validateRequest(req *domain.AdRequest) error {
	switch {
	case req.AppID == "":
		return fmt.Errorf("%w: missing app_id", port.ErrValidation)
	case req.AppVersion == "":
		return fmt.Errorf("%w: missing app_version", port.ErrValidation)
	case req.OS == "":
		return fmt.Errorf("%w: missing os", port.ErrValidation)
	case req.OSVersion == "":
		return fmt.Errorf("%w: missing os_version", port.ErrValidation)
	case req.DeviceType == "":
		return fmt.Errorf("%w: missing device_type", port.ErrValidation)
	}
	return nil
}

// selected pairs a creative with the campaign it belongs to.
type selected struct {
	creative *domain.Creative
	campaign *domain.Campaign
}

// selectCreatives returns the top req.Limit creatives from the eligible
// set verbatim: candidates are already ordered by campaign recency, so
// the first eligible creative wins.
func selectCreatives(eligible []port.CampaignCandidate, req *domain.AdRequest) []selected {
	var out []selected
	for i := range eligible {
		candidate := &eligible[i]
		for j := range candidate.Creatives {
			cr := &candidate.Creatives[j]
			if !req.WantsType(cr.Type) {
				continue
			}
			if !cr.Fits(req.Width, req.Height) {
				continue
			}
			out = append(out, selected{creative: cr, campaign: &candidate.Campaign})
			if len(out) == req.Limit {
				return out
			}
		}
	}
	return out
}

// billCachedImpression replays delivery accounting for the first cached
// creative. The campaign is re-read because the cached payload only
// carries ids.
func (s *AdService) billCachedImpression(ctx context.Context, ad port.AdPayload, req *domain.AdRequest) {
	campaign, err := s.repo.GetCampaign(ctx, ad.CampaignID)
	if err != nil || campaign == nil {
		s.metrics.BillingFailuresTotal.Inc()
		s.logger.Error("cached impression billing: campaign lookup failed",
			slog.String("campaign_id", ad.CampaignID.String()), slog.Any("error", err))
		return
	}
	s.logImpression(ctx, ad.ID, campaign, req)
}

// logImpression is the delivery accountant: it appends the impression
// record and debits the daily budget. Billing runs on a context detached
// from client cancellation; a ledger failure is surfaced through metrics
// and logs, never to the client.
func (s *AdService) logImpression(ctx context.Context, creativeID uuid.UUID, campaign *domain.Campaign, req *domain.AdRequest) {
	billCtx := context.WithoutCancel(ctx)
	now := s.now().UTC()

	imp := domain.Impression{
		ID:         uuid.New(),
		CreativeID: creativeID,
		CampaignID: campaign.ID,
		IPAddress:  req.IPAddress,
		UserAgent:  req.UserAgent,
		DeviceType: req.DeviceType,
		OS:         req.OS,
		OSVersion:  req.OSVersion,
		Country:    req.Country,
		Region:     req.Region,
		City:       req.City,
		AppID:      req.AppID,
		AppVersion: req.AppVersion,
		Cost:       s.cost,
		Timestamp:  now,
	}
	if err := s.repo.CreateImpression(billCtx, &imp); err != nil {
		s.metrics.BillingFailuresTotal.Inc()
		s.logger.Error("impression write failed",
			slog.String("campaign_id", campaign.ID.String()), slog.Any("error", err))
		return
	}
	s.metrics.ImpressionsTotal.Inc()

	record, err := s.ledger.RecordSpend(billCtx, campaign.ID, domain.Day(now), s.cost, campaign.DailyBudget)
	if err != nil {
		s.metrics.BillingFailuresTotal.Inc()
		s.logger.Error("spend recording failed",
			slog.String("campaign_id", campaign.ID.String()), slog.Any("error", err))
		return
	}
	if record.Crossed {
		s.handleBudgetCrossing(billCtx, campaign, record.TotalSpent)
	}
}

// handleBudgetCrossing runs the exceeded-action side effects. The ledger
// guarantees it fires exactly once per (campaign, day) regardless of how
// many writers race across the threshold.
func (s *AdService) handleBudgetCrossing(ctx context.Context, campaign *domain.Campaign, total decimal.Decimal) {
	action := campaign.BudgetExceededAction
	s.metrics.BudgetExceededTotal.WithLabelValues(string(action)).Inc()
	s.logger.Warn("daily budget exceeded",
		slog.String("campaign_id", campaign.ID.String()),
		slog.String("campaign", campaign.Name),
		slog.String("action", string(action)),
		slog.String("spent", total.StringFixed(2)),
		slog.String("daily_budget", campaign.DailyBudget.StringFixed(2)),
	)

	if action == domain.ActionPauseCampaign {
		if err := s.repo.PauseCampaign(ctx, campaign.ID); err != nil {
			s.logger.Error("pausing campaign failed",
				slog.String("campaign_id", campaign.ID.String()), slog.Any("error", err))
		}
	}

	msg := fmt.Sprintf("campaign %q spent %s of its %s daily budget",
		campaign.Name, total.StringFixed(2), campaign.DailyBudget.StringFixed(2))
	if err := s.notifier.Notify(ctx, campaign, msg); err != nil {
		s.logger.Error("budget notification failed",
			slog.String("campaign_id", campaign.ID.String()), slog.Any("error", err))
	}
}
