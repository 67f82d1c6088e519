package domain

import (
	"sort"
	"strings"
)

// Default ad types requested when the client does not specify any.
var DefaultAdTypes = []CreativeType{TypeBanner, TypeInterstitial, TypeNative}

// AdRequest is the normalized form of an inbound ad request. Optional
// fields use zero values (or nil) to mean "no constraint": an absent
// country matches campaigns regardless of their country lists, an absent
// age matches any age range, and so on.
type AdRequest struct {
	AppID      string
	AppVersion string
	OS         string
	OSVersion  string
	DeviceType string

	// Width/Height describe the ad slot; 0 means unspecified.
	Width  int
	Height int

	Country string
	Region  string
	City    string

	Gender string
	// Age is nil when the client did not report one.
	Age *int

	Interests []string

	AdTypes []CreativeType
	Limit   int

	// Transport metadata captured by the HTTP adapter, recorded on
	// impressions but never used for targeting.
	IPAddress string
	UserAgent string
}

// Normalize lower-cases the OS, upper-cases the country and fills in the
// default ad types and limit. It mutates the request in place.
func (r *AdRequest) Normalize() {
	r.OS = strings.ToLower(r.OS)
	r.Country = strings.ToUpper(r.Country)
	if len(r.AdTypes) == 0 {
		r.AdTypes = append(r.AdTypes, DefaultAdTypes...)
	}
	if r.Limit <= 0 {
		r.Limit = 1
	}
}

// WantsType reports whether the request asked for the given creative type.
func (r *AdRequest) WantsType(t CreativeType) bool {
	for _, want := range r.AdTypes {
		if want == t {
			return true
		}
	}
	return false
}

// CacheKey returns the serving-cache key for this request. Only the app
// and the requested ad types participate; all other targeting dimensions
// are allowed to go stale for the cache TTL.
func (r *AdRequest) CacheKey() string {
	types := make([]string, len(r.AdTypes))
	for i, t := range r.AdTypes {
		types[i] = string(t)
	}
	sort.Strings(types)
	return "ads:" + r.AppID + ":" + strings.Join(types, "-")
}
