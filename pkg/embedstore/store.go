package embedstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no embedding exists for a speaker name.
var ErrNotFound = errors.New("speaker not registered")

// Record is one stored speaker embedding.
type Record struct {
	SpeakerName string
	Vector      []float32
	CreatedAt   time.Time
}

// Store is the embedding store adapter: a durable speaker name to vector
// mapping. At most one record per name; Put overwrites.
type Store interface {
	// Put stores the vector for a speaker, replacing any prior record
	Put(ctx context.Context, name string, vector []float32) error

	// Get returns the record for a speaker, ErrNotFound if absent
	Get(ctx context.Context, name string) (*Record, error)

	// List returns all registered speaker names
	List(ctx context.Context) ([]string, error)

	// Records returns all stored records ordered by speaker name
	Records(ctx context.Context) ([]Record, error)

	// Delete removes the record for a speaker
	Delete(ctx context.Context, name string) error
}
