package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CampaignStatus enumerates the lifecycle states of a campaign.
type CampaignStatus string

const (
	StatusDraft     CampaignStatus = "draft"
	StatusActive    CampaignStatus = "active"
	StatusPaused    CampaignStatus = "paused"
	StatusCompleted CampaignStatus = "completed"
	StatusArchived  CampaignStatus = "archived"
)

// BudgetAction determines what happens to a campaign once its daily
// spend crosses the daily budget.
type BudgetAction string

const (
	// ActionPauseDay stops serving for the rest of the day; the campaign
	// resumes automatically on the next day.
	ActionPauseDay BudgetAction = "pause_day"
	// ActionPauseCampaign pauses the whole campaign; it stays paused
	// across days until manually reactivated.
	ActionPauseCampaign BudgetAction = "pause_campaign"
	// ActionContinueLimited keeps serving at a reduced admission rate.
	ActionContinueLimited BudgetAction = "continue_limited"
	// ActionStopImmediately stops serving for the rest of the day.
	ActionStopImmediately BudgetAction = "stop_immediately"
	// ActionEmailNotify keeps serving normally and only alerts the
	// advertiser at the crossing moment.
	ActionEmailNotify BudgetAction = "email_notify"
)

// Campaign represents an advertiser's scheduled, budgeted advertising
// initiative. Monetary amounts are 2-decimal-place currency values.
type Campaign struct {
	ID          uuid.UUID
	Name        string
	CompanyName string
	Status      CampaignStatus

	// SamplingRate is the percentage (0.1-100.0) of eligibility
	// evaluations recorded as opportunities for display-rate estimation.
	SamplingRate float64

	StartDate time.Time
	EndDate   *time.Time

	DailyBudget decimal.Decimal
	TotalBudget decimal.Decimal

	BudgetExceededAction BudgetAction
	// FrequencyCap is stored for continue_limited campaigns but the
	// admission check uses a flat configurable rate instead.
	FrequencyCap int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive reports whether the campaign may serve at the given instant:
// status is active and now falls within [StartDate, EndDate). A nil
// EndDate means the campaign runs indefinitely.
func (c *Campaign) IsActive(now time.Time) bool {
	if c.Status != StatusActive {
		return false
	}
	if now.Before(c.StartDate) {
		return false
	}
	if c.EndDate != nil && !now.Before(*c.EndDate) {
		return false
	}
	return true
}
