package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrInvalidMemoryType = goerr.New("invalid memory type")
	ErrEmptyContent      = goerr.New("memory content is empty")
)

type MemoryID string

// NewMemoryID generates a new unique MemoryID
func NewMemoryID() MemoryID {
	return MemoryID(uuid.New().String())
}

type MemoryType string

const (
	MemoryTypeFact       MemoryType = "fact"
	MemoryTypePreference MemoryType = "preference"
	MemoryTypeTask       MemoryType = "task"
	MemoryTypeEvent      MemoryType = "event"
	MemoryTypeContext    MemoryType = "context"
	MemoryTypeReflection MemoryType = "reflection"
)

// DefaultMemoryType is used when a caller does not specify a type
const DefaultMemoryType = MemoryTypeFact

// DefaultImportance is used when a caller does not specify an importance
const DefaultImportance = 0.5

// MemoryTypes lists all valid memory types
func MemoryTypes() []MemoryType {
	return []MemoryType{
		MemoryTypeFact,
		MemoryTypePreference,
		MemoryTypeTask,
		MemoryTypeEvent,
		MemoryTypeContext,
		MemoryTypeReflection,
	}
}

// Validate checks if the memory type is valid
func (t MemoryType) Validate() error {
	switch t {
	case MemoryTypeFact, MemoryTypePreference, MemoryTypeTask, MemoryTypeEvent, MemoryTypeContext, MemoryTypeReflection:
		return nil
	default:
		return goerr.Wrap(ErrInvalidMemoryType, "unknown type", goerr.V("type", t))
	}
}

// Memory represents a single stored record: a fact, preference, task or
// similar short text the assistant wants to keep across sessions.
type Memory struct {
	ID         MemoryID       `json:"id"`
	Content    string         `json:"content"`
	Type       MemoryType     `json:"type"`
	Importance float64        `json:"importance"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// SearchResult pairs a memory with its relevance score. Score is
// non-negative; higher means more relevant.
type SearchResult struct {
	Memory *Memory `json:"memory"`
	Score  float64 `json:"score"`
}

// BackendInfo describes backend capabilities for observability. Callers
// must not branch behavior on it other than for display.
type BackendInfo struct {
	BackendType       string   `json:"backendType"`
	Connected         bool     `json:"connected"`
	SupportedFeatures []string `json:"supportedFeatures"`
}
