package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Seed inserts demo campaigns, targets, creatives and placements. Each
// campaign gets a different budget-exceeded action so the admission
// policies can be exercised against live data.
func Seed(ctx context.Context, pool *pgxpool.Pool) error {
	placements := []struct {
		name, code    string
		width, height int
	}{
		{"Home Banner", "home_banner", 320, 50},
		{"Fullscreen", "fullscreen", 1080, 1920},
		{"Feed Native", "feed_native", 0, 0},
	}
	placementIDs := make([]uuid.UUID, len(placements))
	for i, p := range placements {
		placementIDs[i] = uuid.New()
		var width, height *int
		if p.width > 0 {
			width, height = &p.width, &p.height
		}
		_, err := pool.Exec(ctx, `
            INSERT INTO placements (id, name, code, recommended_width, recommended_height, is_active)
            VALUES ($1,$2,$3,$4,$5,true) ON CONFLICT (code) DO NOTHING`,
			placementIDs[i], p.name, p.code, width, height)
		if err != nil {
			return err
		}
	}

	actions := []string{"pause_day", "pause_campaign", "continue_limited", "stop_immediately", "email_notify"}
	adTypes := []string{"banner", "interstitial", "native"}
	start := time.Now().AddDate(0, 0, -1)
	end := time.Now().AddDate(0, 1, 0)

	for i := 1; i <= 5; i++ {
		campaignID := uuid.New()
		_, err := pool.Exec(ctx, `
            INSERT INTO campaigns
                (id, name, company_name, status, sampling_rate, start_date, end_date,
                 daily_budget, total_budget, budget_exceeded_action, budget_exceeded_frequency_cap)
            VALUES ($1,$2,$3,'active',$4,$5,$6,$7,$8,$9,$10)`,
			campaignID,
			fmt.Sprintf("Campaign %d", i),
			fmt.Sprintf("Demo Company %d", i),
			5.0, start, end,
			decimal.NewFromInt(100), decimal.NewFromInt(3000),
			actions[(i-1)%len(actions)], 2)
		if err != nil {
			return err
		}

		countries, _ := json.Marshal([]string{"US", "CA"})
		empty, _ := json.Marshal([]string{})
		interests, _ := json.Marshal([]string{"gaming", "music", "tech"})
		_, err = pool.Exec(ctx, `
            INSERT INTO targets
                (id, campaign_id, os_android, os_ios, gender, countries, regions, cities, interests)
            VALUES ($1,$2,true,true,'all',$3,$4,$5,$6)`,
			uuid.New(), campaignID, countries, empty, empty, interests)
		if err != nil {
			return err
		}

		for j, adType := range adTypes {
			width, height := 320, 50
			_, err = pool.Exec(ctx, `
                INSERT INTO creatives
                    (id, campaign_id, placement_id, name, type, title, description,
                     image_url, call_to_action, destination_url, width, height, is_active)
                VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,true)`,
				uuid.New(), campaignID, placementIDs[j%len(placementIDs)],
				fmt.Sprintf("Creative %d-%d", i, j+1), adType,
				fmt.Sprintf("Try Demo Product %d", i),
				"Demo creative for local development",
				fmt.Sprintf("https://cdn.example.com/creatives/%d-%d.png", i, j+1),
				"Install Now",
				fmt.Sprintf("https://example.com/landing/%d", i),
				width, height)
			if err != nil {
				return err
			}
		}
	}
	return nil
}
