package menu

import "time"

// Section is one labelled span of menu text cut out of the source page.
type Section struct {
	Name    string
	RawText string
}

// FetchRequest describes a single outbound fetch of the source page.
type FetchRequest struct {
	URL     string
	Timeout time.Duration
}

// FetchResponse carries the markup returned by the source page.
type FetchResponse struct {
	URL        string
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// PublishResult reports what a publisher left at the destination.
type PublishResult struct {
	URI  string
	Size int64
	// UsedFallback is true when no temp file could be staged next to the destination
	// and the document was written over it directly.
	UsedFallback bool
}
