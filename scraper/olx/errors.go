package olx

import (
	"errors"
	"fmt"
)

var (
	// ErrDriverInit means the browser could not be launched. Fatal for the run.
	ErrDriverInit = errors.New("driver init failed")
	// ErrPageLoadTimeout means the listing container never appeared.
	ErrPageLoadTimeout = errors.New("page load timeout")
	// ErrControlNotFound means there is no load-more control left to press.
	ErrControlNotFound = errors.New("load-more control not found")
	// ErrListingParse means a single listing could not be read.
	ErrListingParse = errors.New("listing parse failed")
)

// ScrapeError ties one of the sentinel kinds above to the operation that hit
// it and the underlying cause.
type ScrapeError struct {
	Kind error
	Op   string
	Err  error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Kind)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *ScrapeError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, op string, err error) *ScrapeError {
	return &ScrapeError{Kind: kind, Op: op, Err: err}
}
