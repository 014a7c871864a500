package menu

import (
	"errors"
	"fmt"
)

// ErrExtractionMiss marks an extraction that found nothing to show. It is never retried.
var ErrExtractionMiss = errors.New("menu extraction miss")

var (
	// ErrDayNotFound is returned when the target day name does not appear in the page text.
	ErrDayNotFound = fmt.Errorf("%w: target day not found", ErrExtractionMiss)
	// ErrSectionNotFound is returned when the section pattern does not match the day's text.
	ErrSectionNotFound = fmt.Errorf("%w: section pattern not matched", ErrExtractionMiss)
)

// FetchError reports a network failure, timeout or non-success status from the source page.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// PublishError reports a filesystem failure that survived every write strategy.
type PublishError struct {
	Path string
	Op   string
	Err  error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}
