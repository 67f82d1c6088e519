package usecase

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atlas-ads/internal/adapter/memory"
	"atlas-ads/internal/config/configs"
	"atlas-ads/internal/core/domain"
	"atlas-ads/internal/core/port"
	"atlas-ads/internal/metrics"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

type captureNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *captureNotifier) Notify(_ context.Context, _ *domain.Campaign, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
	return nil
}

func (n *captureNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

type fixture struct {
	svc      *AdService
	repo     *memory.AdRepository
	ledger   *memory.SpendLedger
	notifier *captureNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := memory.NewAdRepository()
	ledger := memory.NewSpendLedger()
	cache := memory.NewCache()
	t.Cleanup(cache.Close)
	notifier := &captureNotifier{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := configs.Serving{CacheTTL: 5 * time.Minute, EstimatedCost: "0.01", LimitedAdmissionRate: 0.1}

	svc := NewAdService(repo, ledger, cache, notifier, metrics.New(), logger, cfg)
	svc.now = func() time.Time { return testNow }

	repo.AddPlacement(domain.Placement{ID: uuid.New(), Name: "Home Banner", Code: "home_banner", IsActive: true})
	return &fixture{svc: svc, repo: repo, ledger: ledger, notifier: notifier}
}

func activeCampaign(action domain.BudgetAction, budget string, createdAt time.Time) domain.Campaign {
	return domain.Campaign{
		ID:                   uuid.New(),
		Name:                 "Campaign " + createdAt.Format("15:04:05"),
		CompanyName:          "Acme",
		Status:               domain.StatusActive,
		SamplingRate:         100,
		StartDate:            testNow.Add(-time.Hour),
		DailyBudget:          decimal.RequireFromString(budget),
		TotalBudget:          decimal.RequireFromString("1000.00"),
		BudgetExceededAction: action,
		CreatedAt:            createdAt,
	}
}

func bannerCreative(campaignID uuid.UUID, title string) domain.Creative {
	return domain.Creative{
		ID:             uuid.New(),
		CampaignID:     campaignID,
		Name:           title,
		Type:           domain.TypeBanner,
		Title:          title,
		CallToAction:   "Install Now",
		DestinationURL: "https://example.com/landing",
		IsActive:       true,
	}
}

func serveRequest(appID string) *domain.AdRequest {
	return &domain.AdRequest{
		AppID:      appID,
		AppVersion: "1.0.0",
		OS:         "android",
		OSVersion:  "14",
		DeviceType: "phone",
	}
}

func TestServeAdsPicksNewestCampaignFirst(t *testing.T) {
	f := newFixture(t)
	older := activeCampaign(domain.ActionPauseDay, "10.00", testNow.Add(-48*time.Hour))
	newer := activeCampaign(domain.ActionPauseDay, "10.00", testNow.Add(-time.Hour))
	f.repo.AddCampaign(older, nil, []domain.Creative{bannerCreative(older.ID, "Old Offer")})
	f.repo.AddCampaign(newer, nil, []domain.Creative{bannerCreative(newer.ID, "New Offer")})

	req := serveRequest("com.example.app")
	req.Limit = 2
	ads, err := f.svc.ServeAds(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, ads, 2)
	assert.Equal(t, newer.ID, ads[0].CampaignID)
	assert.Equal(t, older.ID, ads[1].CampaignID)
	assert.Equal(t, "New Offer", ads[0].Title)

	// Only the first ad in the response is billed.
	imps := f.repo.Impressions()
	require.Len(t, imps, 1)
	assert.Equal(t, newer.ID, imps[0].CampaignID)
	assert.True(t, imps[0].Cost.Equal(decimal.RequireFromString("0.01")))

	spent, err := f.ledger.DailySpent(context.Background(), newer.ID, testNow)
	require.NoError(t, err)
	assert.True(t, spent.Equal(decimal.RequireFromString("0.01")))
}

func TestServeAdsValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		mutate func(*domain.AdRequest)
	}{
		{"missing app_id", func(r *domain.AdRequest) { r.AppID = "" }},
		{"missing app_version", func(r *domain.AdRequest) { r.AppVersion = "" }},
		{"missing os", func(r *domain.AdRequest) { r.OS = "" }},
		{"missing os_version", func(r *domain.AdRequest) { r.OSVersion = "" }},
		{"missing device_type", func(r *domain.AdRequest) { r.DeviceType = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := serveRequest("com.example.app")
			tt.mutate(req)
			_, err := f.svc.ServeAds(context.Background(), req)
			assert.ErrorIs(t, err, port.ErrValidation)
		})
	}
	assert.Empty(t, f.repo.Impressions(), "rejected requests must not bill")
}

func TestServeAdsNoInventory(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ServeAds(context.Background(), serveRequest("com.example.app"))
	assert.ErrorIs(t, err, port.ErrNoInventory)

	// A campaign whose creatives are all of an unrequested type is not
	// inventory either.
	campaign := activeCampaign(domain.ActionPauseDay, "10.00", testNow.Add(-time.Hour))
	video := bannerCreative(campaign.ID, "Video Offer")
	video.Type = domain.TypeVideo
	f.repo.AddCampaign(campaign, nil, []domain.Creative{video})

	req := serveRequest("com.example.app")
	req.AdTypes = []domain.CreativeType{domain.TypeBanner}
	_, err = f.svc.ServeAds(context.Background(), req)
	assert.ErrorIs(t, err, port.ErrNoInventory)
}

func TestServeAdsFiltersByTargeting(t *testing.T) {
	f := newFixture(t)
	campaign := activeCampaign(domain.ActionPauseDay, "10.00", testNow.Add(-time.Hour))
	target := domain.Target{OSAndroid: true, OSiOS: true, Gender: domain.GenderAll, Countries: []string{"US"}}
	f.repo.AddCampaign(campaign, []domain.Target{target}, []domain.Creative{bannerCreative(campaign.ID, "US Only")})

	req := serveRequest("com.example.app")
	req.Country = "CA"
	_, err := f.svc.ServeAds(context.Background(), req)
	assert.ErrorIs(t, err, port.ErrNoInventory)

	req = serveRequest("com.other.app")
	req.Country = "us"
	ads, err := f.svc.ServeAds(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "US Only", ads[0].Title)
}

func TestServeAdsRespectsSlotSize(t *testing.T) {
	f := newFixture(t)
	campaign := activeCampaign(domain.ActionPauseDay, "10.00", testNow.Add(-time.Hour))
	wide := bannerCreative(campaign.ID, "Leaderboard")
	w, h := 728, 90
	wide.Width, wide.Height = &w, &h
	f.repo.AddCampaign(campaign, nil, []domain.Creative{wide})

	req := serveRequest("com.example.app")
	req.Width, req.Height = 320, 50
	_, err := f.svc.ServeAds(context.Background(), req)
	assert.ErrorIs(t, err, port.ErrNoInventory)

	req = serveRequest("com.other.app")
	req.Width, req.Height = 728, 90
	_, err = f.svc.ServeAds(context.Background(), req)
	assert.NoError(t, err)
}

func TestServeAdsCacheHitStillBills(t *testing.T) {
	f := newFixture(t)
	campaign := activeCampaign(domain.ActionPauseDay, "10.00", testNow.Add(-time.Hour))
	f.repo.AddCampaign(campaign, nil, []domain.Creative{bannerCreative(campaign.ID, "Offer")})

	first, err := f.svc.ServeAds(context.Background(), serveRequest("com.example.app"))
	require.NoError(t, err)
	oppsAfterFirst := len(f.repo.Opportunities())

	second, err := f.svc.ServeAds(context.Background(), serveRequest("com.example.app"))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// The hit skips eligibility and sampling but not delivery accounting.
	assert.Len(t, f.repo.Impressions(), 2)
	assert.Len(t, f.repo.Opportunities(), oppsAfterFirst)

	spent, err := f.ledger.DailySpent(context.Background(), campaign.ID, testNow)
	require.NoError(t, err)
	assert.True(t, spent.Equal(decimal.RequireFromString("0.02")))
}

func TestTrackOpportunitiesFollowSelection(t *testing.T) {
	f := newFixture(t)
	loser := activeCampaign(domain.ActionPauseDay, "10.00", testNow.Add(-48*time.Hour))
	winner := activeCampaign(domain.ActionPauseDay, "10.00", testNow.Add(-time.Hour))
	f.repo.AddCampaign(loser, nil, []domain.Creative{bannerCreative(loser.ID, "Loser")})
	f.repo.AddCampaign(winner, nil, []domain.Creative{bannerCreative(winner.ID, "Winner")})

	_, err := f.svc.ServeAds(context.Background(), serveRequest("com.example.app"))
	require.NoError(t, err)

	// Both campaigns sample at 100%, so both eligibility evaluations are
	// recorded, sharing one request id.
	opps := f.repo.Opportunities()
	require.Len(t, opps, 2)
	assert.Equal(t, opps[0].RequestID, opps[1].RequestID)

	shown := map[uuid.UUID]bool{}
	for _, opp := range opps {
		shown[opp.CampaignID] = opp.WasShown
	}
	assert.True(t, shown[winner.ID], "the selected campaign is recorded as shown")
	assert.False(t, shown[loser.ID], "eligible but unselected campaigns are not")
}

func TestTrackOpportunitiesRecordedOnNoInventory(t *testing.T) {
	f := newFixture(t)
	// Eligible campaign, but its only creative is of an unrequested type:
	// the eligibility evaluation still produces an opportunity row with
	// was_shown false.
	campaign := activeCampaign(domain.ActionPauseDay, "10.00", testNow.Add(-time.Hour))
	video := bannerCreative(campaign.ID, "Video Only")
	video.Type = domain.TypeVideo
	f.repo.AddCampaign(campaign, nil, []domain.Creative{video})

	req := serveRequest("com.example.app")
	req.AdTypes = []domain.CreativeType{domain.TypeBanner}
	_, err := f.svc.ServeAds(context.Background(), req)
	require.ErrorIs(t, err, port.ErrNoInventory)

	opps := f.repo.Opportunities()
	require.Len(t, opps, 1)
	assert.False(t, opps[0].WasShown)
}

func TestTrackOpportunitiesSkippedWithoutPlacement(t *testing.T) {
	repo := memory.NewAdRepository()
	ledger := memory.NewSpendLedger()
	cache := memory.NewCache()
	t.Cleanup(cache.Close)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := configs.Serving{CacheTTL: 5 * time.Minute, EstimatedCost: "0.01", LimitedAdmissionRate: 0.1}
	svc := NewAdService(repo, ledger, cache, &captureNotifier{}, metrics.New(), logger, cfg)
	svc.now = func() time.Time { return testNow }

	campaign := activeCampaign(domain.ActionPauseDay, "10.00", testNow.Add(-time.Hour))
	repo.AddCampaign(campaign, nil, []domain.Creative{bannerCreative(campaign.ID, "Offer")})

	_, err := svc.ServeAds(context.Background(), serveRequest("com.example.app"))
	require.NoError(t, err)
	assert.Empty(t, repo.Opportunities(), "no placement to attribute to means no sampling")
	assert.Len(t, repo.Impressions(), 1, "serving itself is unaffected")
}

func TestRegisterClick(t *testing.T) {
	f := newFixture(t)
	campaign := activeCampaign(domain.ActionPauseDay, "10.00", testNow.Add(-time.Hour))
	creative := bannerCreative(campaign.ID, "Offer")
	f.repo.AddCampaign(campaign, nil, []domain.Creative{creative})

	require.NoError(t, f.svc.RegisterClick(context.Background(), creative.ID))

	clicks := f.repo.Clicks()
	require.Len(t, clicks, 1)
	assert.Equal(t, creative.ID, clicks[0].CreativeID)
	assert.Equal(t, campaign.ID, clicks[0].CampaignID)

	// Clicks are never billed.
	spent, err := f.ledger.DailySpent(context.Background(), campaign.ID, testNow)
	require.NoError(t, err)
	assert.True(t, spent.IsZero())

	err = f.svc.RegisterClick(context.Background(), uuid.New())
	assert.ErrorIs(t, err, port.ErrAdNotFound)
}

func TestStatsAggregation(t *testing.T) {
	f := newFixture(t)
	campaign := activeCampaign(domain.ActionPauseDay, "10.00", testNow.Add(-time.Hour))
	creative := bannerCreative(campaign.ID, "Offer")
	f.repo.AddCampaign(campaign, nil, []domain.Creative{creative})

	_, err := f.svc.ServeAds(context.Background(), serveRequest("com.example.app"))
	require.NoError(t, err)
	require.NoError(t, f.svc.RegisterClick(context.Background(), creative.ID))

	stats, err := f.svc.Stats(context.Background(), &campaign.ID)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, int64(1), stats[0].Impressions)
	assert.Equal(t, int64(1), stats[0].Clicks)
	assert.InDelta(t, 100.0, stats[0].CTR, 0.001)
	assert.Equal(t, int64(1), stats[0].SampledOpportunities)
	assert.InDelta(t, 100.0, stats[0].DisplayRate, 0.001)
	require.Len(t, stats[0].Creatives, 1)
	assert.Equal(t, creative.ID, stats[0].Creatives[0].ID)

	unknown := uuid.New()
	_, err = f.svc.Stats(context.Background(), &unknown)
	assert.ErrorIs(t, err, port.ErrCampaignNotFound)
}
