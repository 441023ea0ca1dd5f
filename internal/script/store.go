package script

import (
	"context"
	"errors"
)

// Store errors shared by all implementations.
var (
	// ErrNotFound is returned when no document with the given ID exists.
	ErrNotFound = errors.New("script: document not found")

	// ErrDuplicateID is returned when creating a document whose ID is taken.
	ErrDuplicateID = errors.New("script: duplicate document id")
)

// Store persists script documents. Implementations must be safe for
// concurrent use.
type Store interface {
	// Create stores a new document. When doc.ID is empty an ID is
	// generated; the stored document is returned with ID and timestamps
	// populated.
	Create(ctx context.Context, doc Document) (Document, error)

	// Get retrieves a document by ID. Returns [ErrNotFound] when absent.
	Get(ctx context.Context, id string) (Document, error)

	// List returns all documents, most recently updated first.
	List(ctx context.Context) ([]Document, error)

	// Update replaces an existing document's title and text.
	// Returns [ErrNotFound] when absent.
	Update(ctx context.Context, doc Document) error

	// Delete removes a document by ID. Returns [ErrNotFound] when absent.
	Delete(ctx context.Context, id string) error
}
