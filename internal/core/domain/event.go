package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Impression is an append-only record of an ad actually delivered.
type Impression struct {
	ID         uuid.UUID
	CreativeID uuid.UUID
	CampaignID uuid.UUID

	IPAddress  string
	UserAgent  string
	DeviceType string
	OS         string
	OSVersion  string
	Country    string
	Region     string
	City       string
	AppID      string
	AppVersion string

	Cost      decimal.Decimal
	Timestamp time.Time
}

// Click is an append-only record of a click on a delivered ad. The
// impression link is optional: the public click callback carries only the
// ad id, so clicks reference creative and campaign directly.
type Click struct {
	ID           uuid.UUID
	ImpressionID *uuid.UUID
	CreativeID   uuid.UUID
	CampaignID   uuid.UUID
	Timestamp    time.Time
}

// Opportunity is a sampled record of one eligibility evaluation, used in
// aggregate to estimate display rate without logging every request.
// WasShown is true only for the campaign the selector actually picked.
type Opportunity struct {
	ID          uuid.UUID
	CampaignID  uuid.UUID
	PlacementID uuid.UUID
	WasShown    bool
	RequestID   string

	DeviceType string
	OS         string
	Country    string

	Timestamp time.Time
}
