package ao3

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is, every error returned by this package matches one of them.
var (
	ErrInvalidReference = errors.New("ao3: invalid reference")
	ErrFetch            = errors.New("ao3: fetch failed")
	ErrParse            = errors.New("ao3: parse failed")
)

// InvalidReferenceError is returned when an href is not a work or chapter url.
type InvalidReferenceError struct {
	Href string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("ao3: unknown work href: %q", e.Href)
}

func (e *InvalidReferenceError) Is(target error) bool {
	return target == ErrInvalidReference
}

// FetchError is returned when the page request fails or the archive answers with a
// non-success status. StatusCode is 0 for transport failures.
type FetchError struct {
	Url        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ao3: fetch %s: %v", e.Url, e.Err)
	}
	return fmt.Sprintf("ao3: fetch %s: unexpected status %d", e.Url, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

// ParseError is returned when a fetched page cannot be read as a work page.
type ParseError struct {
	Url    string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ao3: parse %s: %s: %v", e.Url, e.Reason, e.Err)
	}
	return fmt.Sprintf("ao3: parse %s: %s", e.Url, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}
