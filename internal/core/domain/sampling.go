package domain

import (
	"crypto/md5"
	"fmt"

	"github.com/google/uuid"
)

// SampleOpportunity decides whether the eligibility evaluation of a
// campaign within a request should be recorded as an opportunity. The
// decision hashes "{requestID}:{campaignID}" and reduces the 128-bit
// digest modulo 100, sampling when the result falls below the campaign's
// sampling rate (a percentage). Identical inputs always produce the same
// decision, so retries carrying the same request id never double-write,
// and decisions are independent across campaigns.
func SampleOpportunity(requestID string, campaignID uuid.UUID, rate float64) bool {
	if rate <= 0 {
		return false
	}
	sum := md5.Sum([]byte(fmt.Sprintf("%s:%s", requestID, campaignID)))
	// Reduce the digest mod 100 without big-integer arithmetic: process
	// bytes most-significant first, carrying the remainder.
	mod := 0
	for _, b := range sum {
		mod = (mod*256 + int(b)) % 100
	}
	return float64(mod) < rate
}
