package candidates

import "errors"

var (
	// ErrConflict is returned by a Repo when a unique column already holds the value.
	ErrConflict = errors.New("record conflicts with an existing email or mobile")
	// ErrEmptyFilters is returned by callers that refuse an unfiltered search.
	ErrEmptyFilters   = errors.New("at least one search filter is required")
	ErrInvalidFilters = errors.New("invalid search filters")
)
