package repository

import (
	"context"

	"github.com/m-mizutani/engram/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

var (
	// ErrNotInitialized is returned when a backend operation is called
	// before Initialize has completed successfully
	ErrNotInitialized = goerr.New("backend is not initialized")

	// ErrStoreWrite is returned when the local backend fails to persist
	// its snapshot file
	ErrStoreWrite = goerr.New("failed to write memory store")
)

// RememberInput contains parameters for storing a new memory.
// Type defaults to model.DefaultMemoryType and Importance to
// model.DefaultImportance when left unset.
type RememberInput struct {
	Content    string
	Type       model.MemoryType
	Importance *float64
	Metadata   map[string]any
}

// QueryOptions contains filters for Recall and Search.
// Limit of 0 means the engine default (5). MinScore is honored only by
// Search; Recall ignores it.
type QueryOptions struct {
	Limit         int
	Types         []model.MemoryType
	MinImportance *float64
	MinScore      *float64
}

// Backend defines the storage and search contract shared by the local
// file-backed backend and the remote API-backed backend. Initialize must
// be called exactly once before any other operation.
type Backend interface {
	// Initialize prepares the backend for use: the local backend loads its
	// snapshot file, the remote backend verifies connectivity
	Initialize(ctx context.Context) error

	// Remember creates and durably stores one memory, returning the fully
	// materialized record including generated ID and timestamps
	Remember(ctx context.Context, input RememberInput) (*model.Memory, error)

	// Recall performs relevance search, highest score first
	Recall(ctx context.Context, query string, opts QueryOptions) ([]*model.SearchResult, error)

	// Search is Recall with an additional minimum-score floor
	Search(ctx context.Context, query string, opts QueryOptions) ([]*model.SearchResult, error)

	// Forget deletes one memory by ID. Returns false when no record was
	// found; absence is not an error
	Forget(ctx context.Context, id model.MemoryID, reason string) (bool, error)

	// Get retrieves a memory by ID. Returns nil without error when absent
	Get(ctx context.Context, id model.MemoryID) (*model.Memory, error)

	// List returns memories ordered by most-recently-updated first
	List(ctx context.Context, offset, limit int) ([]*model.Memory, error)

	// IsReady reports whether Initialize has completed successfully
	IsReady() bool

	// Info returns a static capability descriptor for observability
	Info() *model.BackendInfo
}
