package domain

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSampleOpportunityDeterministic(t *testing.T) {
	requestID := uuid.NewString()
	campaignID := uuid.New()

	first := SampleOpportunity(requestID, campaignID, 5.0)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, SampleOpportunity(requestID, campaignID, 5.0),
			"same request and campaign must always produce the same decision")
	}
}

func TestSampleOpportunityRateBounds(t *testing.T) {
	requestID := uuid.NewString()
	campaignID := uuid.New()

	assert.True(t, SampleOpportunity(requestID, campaignID, 100.0))
	assert.False(t, SampleOpportunity(requestID, campaignID, 0))
	assert.False(t, SampleOpportunity(requestID, campaignID, -1))
}

func TestSampleOpportunityRateProportion(t *testing.T) {
	campaignID := uuid.New()

	const n = 5000
	sampled := 0
	for i := 0; i < n; i++ {
		if SampleOpportunity(fmt.Sprintf("req-%d", i), campaignID, 50.0) {
			sampled++
		}
	}
	// The hash should spread decisions roughly evenly; allow a wide band.
	assert.Greater(t, sampled, n*40/100)
	assert.Less(t, sampled, n*60/100)
}

func TestSampleOpportunityIndependentAcrossCampaigns(t *testing.T) {
	requestID := uuid.NewString()

	decisions := make(map[bool]int)
	for i := 0; i < 200; i++ {
		decisions[SampleOpportunity(requestID, uuid.New(), 50.0)]++
	}
	// With 200 campaigns at 50% both outcomes must occur.
	assert.Positive(t, decisions[true])
	assert.Positive(t, decisions[false])
}
