package domain

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Gender values accepted by targeting. GenderAll matches everyone.
const (
	GenderAll    = "all"
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// Target is the targeting predicate set attached to a campaign. Empty
// lists and empty version bounds mean "unrestricted", not "blocks
// everyone". A campaign is considered targeted when ANY of its targets
// matches the request; within a target all dimensions must pass.
type Target struct {
	ID         uuid.UUID
	CampaignID uuid.UUID

	OSAndroid    bool   `json:"os_android"`
	OSiOS        bool   `json:"os_ios"`
	OSVersionMin string `json:"os_version_min"`
	OSVersionMax string `json:"os_version_max"`

	Gender string `json:"gender"`
	AgeMin *int   `json:"age_min"`
	AgeMax *int   `json:"age_max"`

	Countries []string `json:"countries"`
	Regions   []string `json:"regions"`
	Cities    []string `json:"cities"`
	Interests []string `json:"interests"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Matches evaluates the full targeting conjunction against a normalized
// request. Every dimension defaults to pass when the request lacks the
// field or the target leaves it unrestricted.
func (t *Target) Matches(req *AdRequest) bool {
	switch req.OS {
	case "android":
		if !t.OSAndroid {
			return false
		}
	case "ios":
		if !t.OSiOS {
			return false
		}
	}

	if req.OS != "" && req.OSVersion != "" {
		if t.OSVersionMin != "" && compareVersions(req.OSVersion, t.OSVersionMin) < 0 {
			return false
		}
		if t.OSVersionMax != "" && compareVersions(req.OSVersion, t.OSVersionMax) > 0 {
			return false
		}
	}

	if req.Gender != "" && t.Gender != GenderAll && t.Gender != req.Gender {
		return false
	}

	if req.Age != nil {
		if t.AgeMin != nil && *req.Age < *t.AgeMin {
			return false
		}
		if t.AgeMax != nil && *req.Age > *t.AgeMax {
			return false
		}
	}

	if req.Country != "" && len(t.Countries) > 0 && !containsFold(t.Countries, req.Country) {
		return false
	}
	if req.Region != "" && len(t.Regions) > 0 && !slices.Contains(t.Regions, req.Region) {
		return false
	}
	if req.City != "" && len(t.Cities) > 0 && !slices.Contains(t.Cities, req.City) {
		return false
	}

	if len(req.Interests) > 0 && len(t.Interests) > 0 {
		overlap := false
		for _, interest := range t.Interests {
			if slices.Contains(req.Interests, interest) {
				overlap = true
				break
			}
		}
		if !overlap {
			return false
		}
	}

	return true
}

func containsFold(list []string, value string) bool {
	for _, v := range list {
		if strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}

// compareVersions compares dotted version strings segment by segment,
// numerically where both segments parse as integers and lexicographically
// otherwise. Missing segments compare as zero, so "14" equals "14.0".
func compareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		sa, sb := "0", "0"
		if i < len(as) {
			sa = as[i]
		}
		if i < len(bs) {
			sb = bs[i]
		}
		na, errA := strconv.Atoi(sa)
		nb, errB := strconv.Atoi(sb)
		switch {
		case errA == nil && errB == nil:
			if na != nb {
				if na < nb {
					return -1
				}
				return 1
			}
		case sa != sb:
			if sa < sb {
				return -1
			}
			return 1
		}
	}
	return 0
}
