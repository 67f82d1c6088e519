package domain

import (
	"time"

	"github.com/google/uuid"
)

// Placement is a named ad-slot definition. It is reference data: the
// opportunity sampler uses it to attribute sampled evaluations to a
// concrete slot.
type Placement struct {
	ID          uuid.UUID
	Name        string
	Code        string
	Description string
	// RecommendedWidth/Height are nil for free-form placements.
	RecommendedWidth  *int
	RecommendedHeight *int
	IsActive          bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FitsSlot reports whether the placement's recommended size fits within
// the requested slot. Placements without a recommended size fit any slot.
func (p *Placement) FitsSlot(slotWidth, slotHeight int) bool {
	if slotWidth <= 0 || slotHeight <= 0 {
		return false
	}
	if p.RecommendedWidth == nil || p.RecommendedHeight == nil {
		return true
	}
	return *p.RecommendedWidth <= slotWidth && *p.RecommendedHeight <= slotHeight
}
