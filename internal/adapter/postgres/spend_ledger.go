package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"atlas-ads/internal/core/domain"
)

// SpendLedger implements port.SpendLedger on a (campaign_id, day) unique
// row. The read-modify-write of the naive get-or-create pattern is
// replaced by a single upsert-with-increment; the sticky exceeded flag
// flips in a guarded second statement, so among racing writers exactly
// one sees rows-affected = 1 and owns the crossing.
type SpendLedger struct {
	pool *pgxpool.Pool
}

// NewSpendLedger returns a new ledger instance.
func NewSpendLedger(pool *pgxpool.Pool) *SpendLedger {
	return &SpendLedger{pool: pool}
}

// DailySpent returns the amount spent so far, lazily materializing a
// zero row. The no-op DO UPDATE makes the insert return the existing
// amount on conflict.
func (l *SpendLedger) DailySpent(ctx context.Context, campaignID uuid.UUID, day time.Time) (decimal.Decimal, error) {
	var spent decimal.Decimal
	err := l.pool.QueryRow(ctx, `
        INSERT INTO daily_spending (id, campaign_id, day, amount_spent, budget_exceeded)
        VALUES ($1, $2, $3, 0, false)
        ON CONFLICT (campaign_id, day)
        DO UPDATE SET amount_spent = daily_spending.amount_spent
        RETURNING amount_spent`,
		uuid.New(), campaignID, domain.Day(day)).Scan(&spent)
	return spent, err
}

// RecordSpend atomically increments the day's total and, when the total
// reaches the daily budget, flips the sticky exceeded flag exactly once.
func (l *SpendLedger) RecordSpend(ctx context.Context, campaignID uuid.UUID, day time.Time, amount, dailyBudget decimal.Decimal) (domain.SpendRecord, error) {
	var (
		record  domain.SpendRecord
		already bool
	)
	err := l.pool.QueryRow(ctx, `
        INSERT INTO daily_spending (id, campaign_id, day, amount_spent, budget_exceeded)
        VALUES ($1, $2, $3, $4, false)
        ON CONFLICT (campaign_id, day)
        DO UPDATE SET amount_spent = daily_spending.amount_spent + EXCLUDED.amount_spent
        RETURNING amount_spent, budget_exceeded`,
		uuid.New(), campaignID, domain.Day(day), amount).Scan(&record.TotalSpent, &already)
	if err != nil {
		return record, err
	}

	record.Exceeded = already
	if !already && record.TotalSpent.GreaterThanOrEqual(dailyBudget) {
		tag, err := l.pool.Exec(ctx, `
            UPDATE daily_spending SET budget_exceeded = true
            WHERE campaign_id = $1 AND day = $2 AND budget_exceeded = false`,
			campaignID, domain.Day(day))
		if err != nil {
			return record, err
		}
		record.Exceeded = true
		record.Crossed = tag.RowsAffected() == 1
	}
	return record, nil
}

// IsExceeded reports the sticky exceeded flag, materializing a zero row
// for unseen pairs.
func (l *SpendLedger) IsExceeded(ctx context.Context, campaignID uuid.UUID, day time.Time) (bool, error) {
	var exceeded bool
	err := l.pool.QueryRow(ctx, `
        INSERT INTO daily_spending (id, campaign_id, day, amount_spent, budget_exceeded)
        VALUES ($1, $2, $3, 0, false)
        ON CONFLICT (campaign_id, day)
        DO UPDATE SET amount_spent = daily_spending.amount_spent
        RETURNING budget_exceeded`,
		uuid.New(), campaignID, domain.Day(day)).Scan(&exceeded)
	return exceeded, err
}

// ResetDay clears the exceeded flag for the given day, restricted to one
// campaign when campaignID is non-nil.
func (l *SpendLedger) ResetDay(ctx context.Context, day time.Time, campaignID *uuid.UUID) (int64, error) {
	query := `UPDATE daily_spending SET budget_exceeded = false
              WHERE day = $1 AND budget_exceeded = true`
	args := []any{domain.Day(day)}
	if campaignID != nil {
		query += ` AND campaign_id = $2`
		args = append(args, *campaignID)
	}
	tag, err := l.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
