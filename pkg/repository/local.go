package repository

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/engram/pkg/model"
	"github.com/m-mizutani/engram/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

const (
	storeFormatVersion = 1
	defaultListLimit   = 10
)

// storeFile is the on-disk snapshot layout. The full record set is
// rewritten on every mutation.
type storeFile struct {
	Records       []*model.Memory `json:"records"`
	FormatVersion int             `json:"formatVersion"`
}

// Local is the file-backed backend with in-process keyword search. The
// record slice is owned exclusively by this instance and mirrored to a
// single JSON file on every mutation. Concurrent tool calls within one
// process are serialized by the mutex; two processes sharing the same
// file are last-writer-wins.
type Local struct {
	path string

	mu      sync.RWMutex
	records []*model.Memory
	ready   bool
}

// NewLocal creates a local backend persisting to the given file path
func NewLocal(path string) *Local {
	return &Local{path: path}
}

// Initialize ensures the parent directory exists and loads the snapshot
// file. A missing or malformed file is treated as an empty store; only a
// directory creation failure is fatal.
func (r *Local) Initialize(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return goerr.Wrap(err, "failed to create memory store directory", goerr.V("path", r.path))
	}

	logger := logging.From(ctx)

	data, err := os.ReadFile(r.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		r.records = nil
	case err != nil:
		logger.Warn("failed to read memory store, starting empty", "path", r.path, "error", err)
		r.records = nil
	default:
		var store storeFile
		if err := json.Unmarshal(data, &store); err != nil {
			logger.Warn("failed to parse memory store, starting empty", "path", r.path, "error", err)
			r.records = nil
		} else {
			r.records = store.Records
		}
	}

	r.ready = true
	logger.Debug("local memory store initialized", "path", r.path, "records", len(r.records))
	return nil
}

// Remember stores a new memory and rewrites the snapshot file before
// returning. Importance is taken as-is without clamping.
func (r *Local) Remember(ctx context.Context, input RememberInput) (*model.Memory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.ready {
		return nil, goerr.Wrap(ErrNotInitialized, "remember")
	}
	if input.Content == "" {
		return nil, goerr.Wrap(model.ErrEmptyContent, "remember")
	}

	memType := input.Type
	if memType == "" {
		memType = model.DefaultMemoryType
	}
	importance := model.DefaultImportance
	if input.Importance != nil {
		importance = *input.Importance
	}

	now := time.Now().UTC()
	memory := &model.Memory{
		ID:         model.NewMemoryID(),
		Content:    input.Content,
		Type:       memType,
		Importance: importance,
		CreatedAt:  now,
		UpdatedAt:  now,
		Metadata:   input.Metadata,
	}

	next := append(slices.Clone(r.records), memory)
	if err := r.persist(next); err != nil {
		return nil, err
	}
	r.records = next

	logging.From(ctx).Debug("memory stored", "id", memory.ID, "type", memory.Type)
	return memory, nil
}

// Recall performs relevance search. The minimum-score floor is not
// applied on this path.
func (r *Local) Recall(ctx context.Context, query string, opts QueryOptions) ([]*model.SearchResult, error) {
	opts.MinScore = nil
	return r.Search(ctx, query, opts)
}

// Search performs relevance search with all filters including MinScore
func (r *Local) Search(ctx context.Context, query string, opts QueryOptions) ([]*model.SearchResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.ready {
		return nil, goerr.Wrap(ErrNotInitialized, "search")
	}

	return rankMemories(r.records, query, opts), nil
}

// Forget removes a memory by ID and rewrites the snapshot file. Returns
// false without error when the ID is unknown.
func (r *Local) Forget(ctx context.Context, id model.MemoryID, reason string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.ready {
		return false, goerr.Wrap(ErrNotInitialized, "forget")
	}

	idx := slices.IndexFunc(r.records, func(m *model.Memory) bool { return m.ID == id })
	if idx < 0 {
		return false, nil
	}

	next := slices.Delete(slices.Clone(r.records), idx, idx+1)
	if err := r.persist(next); err != nil {
		return false, err
	}
	r.records = next

	logging.From(ctx).Debug("memory forgotten", "id", id, "reason", reason)
	return true, nil
}

// Get retrieves a memory by ID, returning nil when absent
func (r *Local) Get(ctx context.Context, id model.MemoryID) (*model.Memory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.ready {
		return nil, goerr.Wrap(ErrNotInitialized, "get")
	}

	for _, m := range r.records {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, nil
}

// List returns memories sorted by UpdatedAt descending with pagination
func (r *Local) List(ctx context.Context, offset, limit int) ([]*model.Memory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.ready {
		return nil, goerr.Wrap(ErrNotInitialized, "list")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	sorted := slices.Clone(r.records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UpdatedAt.After(sorted[j].UpdatedAt)
	})

	if offset >= len(sorted) {
		return nil, nil
	}
	end := offset + limit
	if end > len(sorted) {
		end = len(sorted)
	}
	return sorted[offset:end], nil
}

// IsReady reports whether Initialize has completed
func (r *Local) IsReady() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ready
}

// Info returns the local backend capability descriptor
func (r *Local) Info() *model.BackendInfo {
	return &model.BackendInfo{
		BackendType: "local",
		Connected:   r.IsReady(),
		SupportedFeatures: []string{
			"keyword-search",
			"type-filter",
			"importance-filter",
			"metadata",
			"file-persistence",
		},
	}
}

// persist writes the given record set to the snapshot file via a temp
// file and rename so a crash mid-write cannot corrupt the store. Callers
// must hold the write lock and assign the record set only on success.
func (r *Local) persist(records []*model.Memory) error {
	data, err := json.MarshalIndent(&storeFile{
		Records:       records,
		FormatVersion: storeFormatVersion,
	}, "", "  ")
	if err != nil {
		return goerr.Wrap(ErrStoreWrite, "failed to encode store", goerr.V("path", r.path), goerr.V("cause", err))
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, ".memories-*.json")
	if err != nil {
		return goerr.Wrap(ErrStoreWrite, "failed to create temp file", goerr.V("dir", dir), goerr.V("cause", err))
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return goerr.Wrap(ErrStoreWrite, "failed to write temp file", goerr.V("path", tmpName), goerr.V("cause", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return goerr.Wrap(ErrStoreWrite, "failed to close temp file", goerr.V("path", tmpName), goerr.V("cause", err))
	}

	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return goerr.Wrap(ErrStoreWrite, "failed to replace store file", goerr.V("path", r.path), goerr.V("cause", err))
	}

	return nil
}
