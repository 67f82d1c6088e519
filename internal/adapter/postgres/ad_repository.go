package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"atlas-ads/internal/core/domain"
	"atlas-ads/internal/core/port"
)

// AdRepository implements port.AdRepository using pgxpool for PostgreSQL.
type AdRepository struct {
	pool *pgxpool.Pool
}

// NewAdRepository returns a new repository instance.
func NewAdRepository(pool *pgxpool.Pool) *AdRepository {
	return &AdRepository{pool: pool}
}

// ListServableCampaigns returns active in-window campaigns with their
// targets and active creatives, ordered by campaign creation time
// descending.
func (r *AdRepository) ListServableCampaigns(ctx context.Context, now time.Time) ([]port.CampaignCandidate, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, name, company_name, status, sampling_rate, start_date, end_date,
               daily_budget, total_budget, budget_exceeded_action,
               budget_exceeded_frequency_cap, created_at, updated_at
        FROM campaigns
        WHERE status = 'active'
          AND start_date <= $1
          AND (end_date IS NULL OR end_date > $1)
        ORDER BY created_at DESC`, now)
	if err != nil {
		return nil, err
	}
	campaigns, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Campaign, error) {
		var c domain.Campaign
		err := row.Scan(
			&c.ID, &c.Name, &c.CompanyName, &c.Status, &c.SamplingRate,
			&c.StartDate, &c.EndDate, &c.DailyBudget, &c.TotalBudget,
			&c.BudgetExceededAction, &c.FrequencyCap, &c.CreatedAt, &c.UpdatedAt,
		)
		return c, err
	})
	if err != nil {
		return nil, err
	}
	if len(campaigns) == 0 {
		return nil, nil
	}

	index := make(map[uuid.UUID]int, len(campaigns))
	candidates := make([]port.CampaignCandidate, len(campaigns))
	ids := make([]string, len(campaigns))
	for i, c := range campaigns {
		candidates[i] = port.CampaignCandidate{Campaign: c}
		index[c.ID] = i
		ids[i] = c.ID.String()
	}

	if err := r.loadTargets(ctx, ids, index, candidates); err != nil {
		return nil, err
	}
	if err := r.loadCreatives(ctx, ids, index, candidates); err != nil {
		return nil, err
	}
	return candidates, nil
}

func (r *AdRepository) loadTargets(ctx context.Context, ids []string, index map[uuid.UUID]int, candidates []port.CampaignCandidate) error {
	rows, err := r.pool.Query(ctx, `
        SELECT id, campaign_id, os_android, os_ios, os_version_min, os_version_max,
               gender, age_min, age_max, countries, regions, cities, interests,
               created_at, updated_at
        FROM targets
        WHERE campaign_id = ANY($1::uuid[])`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			t   domain.Target
			raw [4][]byte
		)
		err := rows.Scan(
			&t.ID, &t.CampaignID, &t.OSAndroid, &t.OSiOS, &t.OSVersionMin,
			&t.OSVersionMax, &t.Gender, &t.AgeMin, &t.AgeMax,
			&raw[0], &raw[1], &raw[2], &raw[3], &t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			return err
		}
		for i, dst := range []*[]string{&t.Countries, &t.Regions, &t.Cities, &t.Interests} {
			if len(raw[i]) == 0 {
				continue
			}
			if err := json.Unmarshal(raw[i], dst); err != nil {
				return err
			}
		}
		if i, ok := index[t.CampaignID]; ok {
			candidates[i].Targets = append(candidates[i].Targets, t)
		}
	}
	return rows.Err()
}

func (r *AdRepository) loadCreatives(ctx context.Context, ids []string, index map[uuid.UUID]int, candidates []port.CampaignCandidate) error {
	rows, err := r.pool.Query(ctx, `
        SELECT cr.id, cr.campaign_id, cr.placement_id, COALESCE(p.code, ''),
               cr.name, cr.type, cr.title, cr.description, cr.image_url,
               cr.video_url, cr.call_to_action, cr.destination_url,
               cr.width, cr.height, cr.is_active, cr.created_at, cr.updated_at
        FROM creatives cr
        LEFT JOIN placements p ON p.id = cr.placement_id
        WHERE cr.campaign_id = ANY($1::uuid[]) AND cr.is_active
        ORDER BY cr.created_at DESC`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var cr domain.Creative
		err := rows.Scan(
			&cr.ID, &cr.CampaignID, &cr.PlacementID, &cr.PlacementCode,
			&cr.Name, &cr.Type, &cr.Title, &cr.Description, &cr.ImageURL,
			&cr.VideoURL, &cr.CallToAction, &cr.DestinationURL,
			&cr.Width, &cr.Height, &cr.IsActive, &cr.CreatedAt, &cr.UpdatedAt,
		)
		if err != nil {
			return err
		}
		if i, ok := index[cr.CampaignID]; ok {
			candidates[i].Creatives = append(candidates[i].Creatives, cr)
		}
	}
	return rows.Err()
}

// ListActivePlacements returns active placements ordered by name.
func (r *AdRepository) ListActivePlacements(ctx context.Context) ([]domain.Placement, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, name, code, description, recommended_width, recommended_height,
               is_active, created_at, updated_at
        FROM placements
        WHERE is_active
        ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Placement, error) {
		var p domain.Placement
		err := row.Scan(
			&p.ID, &p.Name, &p.Code, &p.Description,
			&p.RecommendedWidth, &p.RecommendedHeight,
			&p.IsActive, &p.CreatedAt, &p.UpdatedAt,
		)
		return p, err
	})
}

// GetCreative returns a creative by id, or nil when it does not exist.
func (r *AdRepository) GetCreative(ctx context.Context, id uuid.UUID) (*domain.Creative, error) {
	var cr domain.Creative
	err := r.pool.QueryRow(ctx, `
        SELECT cr.id, cr.campaign_id, cr.placement_id, COALESCE(p.code, ''),
               cr.name, cr.type, cr.title, cr.description, cr.image_url,
               cr.video_url, cr.call_to_action, cr.destination_url,
               cr.width, cr.height, cr.is_active, cr.created_at, cr.updated_at
        FROM creatives cr
        LEFT JOIN placements p ON p.id = cr.placement_id
        WHERE cr.id = $1`, id).Scan(
		&cr.ID, &cr.CampaignID, &cr.PlacementID, &cr.PlacementCode,
		&cr.Name, &cr.Type, &cr.Title, &cr.Description, &cr.ImageURL,
		&cr.VideoURL, &cr.CallToAction, &cr.DestinationURL,
		&cr.Width, &cr.Height, &cr.IsActive, &cr.CreatedAt, &cr.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cr, nil
}

// GetCampaign returns a campaign by id, or nil when it does not exist.
func (r *AdRepository) GetCampaign(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	var c domain.Campaign
	err := r.pool.QueryRow(ctx, `
        SELECT id, name, company_name, status, sampling_rate, start_date, end_date,
               daily_budget, total_budget, budget_exceeded_action,
               budget_exceeded_frequency_cap, created_at, updated_at
        FROM campaigns
        WHERE id = $1`, id).Scan(
		&c.ID, &c.Name, &c.CompanyName, &c.Status, &c.SamplingRate,
		&c.StartDate, &c.EndDate, &c.DailyBudget, &c.TotalBudget,
		&c.BudgetExceededAction, &c.FrequencyCap, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// PauseCampaign flips a campaign's status to paused.
func (r *AdRepository) PauseCampaign(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE campaigns SET status = 'paused', updated_at = now() WHERE id = $1`, id)
	return err
}

// CreateImpression appends an impression record.
func (r *AdRepository) CreateImpression(ctx context.Context, imp *domain.Impression) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO impressions
            (id, creative_id, campaign_id, ip_address, user_agent, device_type,
             os, os_version, country, region, city, app_id, app_version, cost, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		imp.ID, imp.CreativeID, imp.CampaignID, imp.IPAddress, imp.UserAgent,
		imp.DeviceType, imp.OS, imp.OSVersion, imp.Country, imp.Region,
		imp.City, imp.AppID, imp.AppVersion, imp.Cost, imp.Timestamp)
	return err
}

// CreateClick appends a click record.
func (r *AdRepository) CreateClick(ctx context.Context, click *domain.Click) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO clicks (id, impression_id, creative_id, campaign_id, created_at)
        VALUES ($1,$2,$3,$4,$5)`,
		click.ID, click.ImpressionID, click.CreativeID, click.CampaignID, click.Timestamp)
	return err
}

// CreateOpportunities appends sampled opportunity records in one batch.
func (r *AdRepository) CreateOpportunities(ctx context.Context, opps []domain.Opportunity) error {
	if len(opps) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, opp := range opps {
		batch.Queue(`
            INSERT INTO opportunities
                (id, campaign_id, placement_id, was_shown, request_id,
                 device_type, os, country, created_at)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			opp.ID, opp.CampaignID, opp.PlacementID, opp.WasShown, opp.RequestID,
			opp.DeviceType, opp.OS, opp.Country, opp.Timestamp)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

// Stats returns aggregated delivery statistics. Display-rate figures
// cover the calendar day containing now.
func (r *AdRepository) Stats(ctx context.Context, campaignID *uuid.UUID, now time.Time) ([]port.CampaignStats, error) {
	query := `SELECT id, name, company_name, status FROM campaigns`
	args := []any{}
	if campaignID != nil {
		query += ` WHERE id = $1`
		args = append(args, *campaignID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	stats, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (port.CampaignStats, error) {
		var s port.CampaignStats
		err := row.Scan(&s.CampaignID, &s.CampaignName, &s.CompanyName, &s.Status)
		return s, err
	})
	if err != nil {
		return nil, err
	}
	if campaignID != nil && len(stats) == 0 {
		return nil, port.ErrCampaignNotFound
	}

	dayStart := domain.Day(now)
	dayEnd := dayStart.AddDate(0, 0, 1)

	for i := range stats {
		s := &stats[i]
		var shown int64
		err = r.pool.QueryRow(ctx, `
            SELECT
                (SELECT COUNT(*) FROM impressions WHERE campaign_id = $1),
                (SELECT COUNT(*) FROM clicks WHERE campaign_id = $1),
                (SELECT COUNT(*) FROM opportunities
                  WHERE campaign_id = $1 AND created_at >= $2 AND created_at < $3),
                (SELECT COUNT(*) FROM opportunities
                  WHERE campaign_id = $1 AND created_at >= $2 AND created_at < $3 AND was_shown)`,
			s.CampaignID, dayStart, dayEnd).Scan(
			&s.Impressions, &s.Clicks, &s.SampledOpportunities, &shown)
		if err != nil {
			return nil, err
		}
		if s.Impressions > 0 {
			s.CTR = float64(s.Clicks) / float64(s.Impressions) * 100
		}
		if s.SampledOpportunities > 0 {
			s.DisplayRate = float64(shown) / float64(s.SampledOpportunities) * 100
		}

		creativeRows, err := r.pool.Query(ctx, `
            SELECT cr.id, cr.name, cr.type,
                   (SELECT COUNT(*) FROM impressions i WHERE i.creative_id = cr.id),
                   (SELECT COUNT(*) FROM clicks c WHERE c.creative_id = cr.id)
            FROM creatives cr
            WHERE cr.campaign_id = $1
            ORDER BY cr.created_at DESC`, s.CampaignID)
		if err != nil {
			return nil, err
		}
		s.Creatives, err = pgx.CollectRows(creativeRows, func(row pgx.CollectableRow) (port.CreativeStats, error) {
			var cs port.CreativeStats
			err := row.Scan(&cs.ID, &cs.Name, &cs.Type, &cs.Impressions, &cs.Clicks)
			if err == nil && cs.Impressions > 0 {
				cs.CTR = float64(cs.Clicks) / float64(cs.Impressions) * 100
			}
			return cs, err
		})
		if err != nil {
			return nil, err
		}
	}
	return stats, nil
}
