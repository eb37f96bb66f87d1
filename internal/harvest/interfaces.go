package harvest

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Fetcher retrieves one page's raw markup. Implementations must honor the
// deadline carried by ctx and perform exactly one attempt.
type Fetcher interface {
	Fetch(ctx context.Context, loc Locator) (Page, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs (UUIDs).
type IDGenerator interface {
	NewRawID() (uuid.UUID, error)
}

// Hasher computes digests for artifact integrity.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// DocumentStore persists the assembled document and returns its location.
type DocumentStore interface {
	Save(ctx context.Context, doc *Document) (string, error)
}
