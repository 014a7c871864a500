package menu

import (
	"context"
	"time"
)

// Fetcher retrieves the raw markup of the source page.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// Extractor cuts the sections for one day out of raw markup.
// A miss is reported with an error wrapping ErrExtractionMiss.
type Extractor interface {
	Extract(markup []byte, day string) ([]Section, error)
}

// Renderer turns sections into a complete HTML document.
type Renderer interface {
	Render(sections []Section, timestamp string) ([]byte, error)
}

// Publisher writes a rendered document to its destination.
type Publisher interface {
	Publish(ctx context.Context, path string, document []byte) (PublishResult, error)
}

// Mirror copies a published document to a secondary location.
type Mirror interface {
	Mirror(ctx context.Context, document []byte) (string, error)
}

// Hasher computes digests of rendered documents.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces cycle IDs.
type IDGenerator interface {
	NewID() (string, error)
}
