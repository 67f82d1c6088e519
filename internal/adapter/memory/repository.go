package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"atlas-ads/internal/core/domain"
	"atlas-ads/internal/core/port"
)

// AdRepository is an in-memory implementation of port.AdRepository,
// used by tests and as a storage-free demo backend. Reads copy entities
// so callers never share mutable state with the store.
type AdRepository struct {
	mu            sync.RWMutex
	campaigns     map[uuid.UUID]*domain.Campaign
	targets       map[uuid.UUID][]domain.Target
	creatives     map[uuid.UUID]*domain.Creative
	placements    []domain.Placement
	impressions   []domain.Impression
	clicks        []domain.Click
	opportunities []domain.Opportunity
}

// NewAdRepository creates an empty repository.
func NewAdRepository() *AdRepository {
	return &AdRepository{
		campaigns: make(map[uuid.UUID]*domain.Campaign),
		targets:   make(map[uuid.UUID][]domain.Target),
		creatives: make(map[uuid.UUID]*domain.Creative),
	}
}

// AddCampaign stores a campaign with its targets and creatives.
func (r *AdRepository) AddCampaign(c domain.Campaign, targets []domain.Target, creatives []domain.Creative) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.campaigns[c.ID] = &c
	r.targets[c.ID] = targets
	for i := range creatives {
		cr := creatives[i]
		r.creatives[cr.ID] = &cr
	}
}

// AddPlacement stores a placement.
func (r *AdRepository) AddPlacement(p domain.Placement) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.placements = append(r.placements, p)
}

// ListServableCampaigns returns active in-window campaigns with their
// targets and active creatives, newest campaign first.
func (r *AdRepository) ListServableCampaigns(_ context.Context, now time.Time) ([]port.CampaignCandidate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var candidates []port.CampaignCandidate
	for id, c := range r.campaigns {
		if !c.IsActive(now) {
			continue
		}
		candidate := port.CampaignCandidate{Campaign: *c}
		candidate.Targets = append(candidate.Targets, r.targets[id]...)
		for _, cr := range r.creatives {
			if cr.CampaignID == id && cr.IsActive {
				candidate.Creatives = append(candidate.Creatives, *cr)
			}
		}
		sort.Slice(candidate.Creatives, func(i, j int) bool {
			return candidate.Creatives[i].CreatedAt.After(candidate.Creatives[j].CreatedAt)
		})
		candidates = append(candidates, candidate)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Campaign.CreatedAt.After(candidates[j].Campaign.CreatedAt)
	})
	return candidates, nil
}

// ListActivePlacements returns active placements ordered by name.
func (r *AdRepository) ListActivePlacements(_ context.Context) ([]domain.Placement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var active []domain.Placement
	for _, p := range r.placements {
		if p.IsActive {
			active = append(active, p)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].Name < active[j].Name })
	return active, nil
}

// GetCreative returns a creative by id, or nil when absent.
func (r *AdRepository) GetCreative(_ context.Context, id uuid.UUID) (*domain.Creative, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cr, ok := r.creatives[id]
	if !ok {
		return nil, nil
	}
	cp := *cr
	return &cp, nil
}

// GetCampaign returns a campaign by id, or nil when absent.
func (r *AdRepository) GetCampaign(_ context.Context, id uuid.UUID) (*domain.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.campaigns[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

// PauseCampaign flips a campaign's status to paused.
func (r *AdRepository) PauseCampaign(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.campaigns[id]; ok {
		c.Status = domain.StatusPaused
	}
	return nil
}

// CreateImpression appends an impression record.
func (r *AdRepository) CreateImpression(_ context.Context, imp *domain.Impression) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.impressions = append(r.impressions, *imp)
	return nil
}

// CreateClick appends a click record.
func (r *AdRepository) CreateClick(_ context.Context, click *domain.Click) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clicks = append(r.clicks, *click)
	return nil
}

// CreateOpportunities appends sampled opportunity records.
func (r *AdRepository) CreateOpportunities(_ context.Context, opps []domain.Opportunity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opportunities = append(r.opportunities, opps...)
	return nil
}

// Impressions returns a snapshot of recorded impressions.
func (r *AdRepository) Impressions() []domain.Impression {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Impression(nil), r.impressions...)
}

// Clicks returns a snapshot of recorded clicks.
func (r *AdRepository) Clicks() []domain.Click {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Click(nil), r.clicks...)
}

// Opportunities returns a snapshot of recorded opportunities.
func (r *AdRepository) Opportunities() []domain.Opportunity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Opportunity(nil), r.opportunities...)
}

// Campaign returns a snapshot of the stored campaign, or nil.
func (r *AdRepository) Campaign(id uuid.UUID) *domain.Campaign {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.campaigns[id]
	if !ok {
		return nil
	}
	cp := *c
	return &cp
}

// Stats aggregates delivery counters over the stored events.
func (r *AdRepository) Stats(_ context.Context, campaignID *uuid.UUID, now time.Time) ([]port.CampaignStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(r.campaigns))
	if campaignID != nil {
		if _, ok := r.campaigns[*campaignID]; !ok {
			return nil, port.ErrCampaignNotFound
		}
		ids = append(ids, *campaignID)
	} else {
		for id := range r.campaigns {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	}

	today := domain.Day(now)
	stats := make([]port.CampaignStats, 0, len(ids))
	for _, id := range ids {
		c := r.campaigns[id]
		s := port.CampaignStats{
			CampaignID:   id,
			CampaignName: c.Name,
			CompanyName:  c.CompanyName,
			Status:       c.Status,
		}
		for _, imp := range r.impressions {
			if imp.CampaignID == id {
				s.Impressions++
			}
		}
		for _, click := range r.clicks {
			if click.CampaignID == id {
				s.Clicks++
			}
		}
		var shown int64
		for _, opp := range r.opportunities {
			if opp.CampaignID == id && domain.Day(opp.Timestamp).Equal(today) {
				s.SampledOpportunities++
				if opp.WasShown {
					shown++
				}
			}
		}
		if s.Impressions > 0 {
			s.CTR = float64(s.Clicks) / float64(s.Impressions) * 100
		}
		if s.SampledOpportunities > 0 {
			s.DisplayRate = float64(shown) / float64(s.SampledOpportunities) * 100
		}
		for _, cr := range r.creatives {
			if cr.CampaignID != id {
				continue
			}
			cs := port.CreativeStats{ID: cr.ID, Name: cr.Name, Type: cr.Type}
			for _, imp := range r.impressions {
				if imp.CreativeID == cr.ID {
					cs.Impressions++
				}
			}
			for _, click := range r.clicks {
				if click.CreativeID == cr.ID {
					cs.Clicks++
				}
			}
			if cs.Impressions > 0 {
				cs.CTR = float64(cs.Clicks) / float64(cs.Impressions) * 100
			}
			s.Creatives = append(s.Creatives, cs)
		}
		sort.Slice(s.Creatives, func(i, j int) bool { return s.Creatives[i].ID.String() < s.Creatives[j].ID.String() })
		stats = append(stats, s)
	}
	return stats, nil
}
