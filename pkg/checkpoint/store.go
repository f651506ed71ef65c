package checkpoint

import (
	"context"
	"errors"

	"github.com/restlab/paged-collection-client/pkg/collection"
)

var (
	// ErrNotFound indicates no checkpoint exists under the requested key.
	ErrNotFound = errors.New("checkpoint not found")

	// ErrInvalidCheckpoint indicates the stored checkpoint is corrupted.
	ErrInvalidCheckpoint = errors.New("invalid checkpoint")
)

// Store persists collection cursors so iteration can resume in a later
// process. It stores cursors only, never pages.
type Store interface {
	// Save persists the cursor under key, overwriting any previous value.
	Save(ctx context.Context, key string, cursor collection.Cursor) error

	// Load returns the cursor stored under key, or ErrNotFound.
	Load(ctx context.Context, key string) (collection.Cursor, error)

	// Delete removes the checkpoint under key. Deleting a missing key
	// is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources owned by the store.
	Close() error
}
