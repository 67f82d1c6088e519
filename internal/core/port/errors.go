package port

import "errors"

// Typed outcomes returned by core operations. Handlers map these to HTTP
// status codes; anything else is a system error.
var (
	// ErrNoInventory signals an empty eligible set. It is a normal,
	// expected outcome, not a fault.
	ErrNoInventory = errors.New("no matching ads found")

	// ErrAdNotFound signals a click callback for an unknown creative.
	ErrAdNotFound = errors.New("ad not found")

	// ErrCampaignNotFound signals a stats request for an unknown campaign.
	ErrCampaignNotFound = errors.New("campaign not found")

	// ErrValidation signals a malformed or incomplete request. No side
	// effects have been performed when it is returned.
	ErrValidation = errors.New("invalid request")
)
