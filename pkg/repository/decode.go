package repository

import (
	"encoding/json"
	"time"

	"github.com/m-mizutani/engram/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// The remote service has shipped several wire shapes over time. Each
// logical field is resolved through an ordered list of fallback keys
// instead of assuming one spelling.
var (
	idKeys         = []string{"id", "memory_id", "memoryId", "_id"}
	contentKeys    = []string{"content", "text", "memory"}
	typeKeys       = []string{"type", "memory_type", "memoryType"}
	importanceKeys = []string{"importance"}
	createdAtKeys  = []string{"created_at", "createdAt", "timestamp"}
	updatedAtKeys  = []string{"updated_at", "updatedAt", "created_at", "createdAt"}
	metadataKeys   = []string{"metadata", "meta"}
	scoreKeys      = []string{"score", "relevance", "similarity"}
	resultListKeys = []string{"results", "memories", "items", "data"}
)

func pickString(obj map[string]any, keys []string) (string, bool) {
	for _, k := range keys {
		if v, ok := obj[k].(string); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

func pickFloat(obj map[string]any, keys []string) (float64, bool) {
	for _, k := range keys {
		switch v := obj[k].(type) {
		case float64:
			return v, true
		case json.Number:
			if f, err := v.Float64(); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func pickMap(obj map[string]any, keys []string) (map[string]any, bool) {
	for _, k := range keys {
		if v, ok := obj[k].(map[string]any); ok {
			return v, true
		}
	}
	return nil, false
}

func pickTime(obj map[string]any, keys []string) (time.Time, bool) {
	for _, k := range keys {
		s, ok := obj[k].(string)
		if !ok || s == "" {
			continue
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, true
			}
		}
	}
	return time.Time{}, false
}

// decodeMemory maps one remote response object into a Memory record
func decodeMemory(obj map[string]any) (*model.Memory, error) {
	id, ok := pickString(obj, idKeys)
	if !ok {
		return nil, goerr.New("memory response has no id field", goerr.V("response", obj))
	}

	content, _ := pickString(obj, contentKeys)

	memType := model.DefaultMemoryType
	if t, ok := pickString(obj, typeKeys); ok {
		memType = model.MemoryType(t)
	}

	importance := model.DefaultImportance
	if f, ok := pickFloat(obj, importanceKeys); ok {
		importance = f
	}

	createdAt, _ := pickTime(obj, createdAtKeys)
	updatedAt, ok := pickTime(obj, updatedAtKeys)
	if !ok {
		updatedAt = createdAt
	}

	metadata, _ := pickMap(obj, metadataKeys)

	return &model.Memory{
		ID:         model.MemoryID(id),
		Content:    content,
		Type:       memType,
		Importance: importance,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
		Metadata:   metadata,
	}, nil
}

// unwrapList extracts the record array from either a bare JSON array or
// an envelope object keyed by one of resultListKeys
func unwrapList(body []byte) ([]map[string]any, error) {
	var items []map[string]any
	if err := json.Unmarshal(body, &items); err == nil {
		return items, nil
	}

	var envelope map[string]any
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, goerr.Wrap(err, "failed to parse response body")
	}

	for _, k := range resultListKeys {
		raw, ok := envelope[k].([]any)
		if !ok {
			continue
		}
		for _, entry := range raw {
			if obj, ok := entry.(map[string]any); ok {
				items = append(items, obj)
			}
		}
		return items, nil
	}

	return nil, goerr.New("response has no recognizable result list", goerr.V("keys", resultListKeys))
}

// decodeSearchResults maps a search response into scored results. Entries
// are either flat records with a score field or {memory, score} pairs.
func decodeSearchResults(body []byte) ([]*model.SearchResult, error) {
	items, err := unwrapList(body)
	if err != nil {
		return nil, err
	}

	results := make([]*model.SearchResult, 0, len(items))
	for _, item := range items {
		score, _ := pickFloat(item, scoreKeys)

		obj := item
		if inner, ok := pickMap(item, []string{"memory", "record"}); ok {
			obj = inner
		}

		memory, err := decodeMemory(obj)
		if err != nil {
			return nil, err
		}
		results = append(results, &model.SearchResult{Memory: memory, Score: score})
	}

	return results, nil
}

// decodeMemoryList maps a list response into plain records
func decodeMemoryList(body []byte) ([]*model.Memory, error) {
	items, err := unwrapList(body)
	if err != nil {
		return nil, err
	}

	memories := make([]*model.Memory, 0, len(items))
	for _, item := range items {
		obj := item
		if inner, ok := pickMap(item, []string{"memory", "record"}); ok {
			obj = inner
		}

		memory, err := decodeMemory(obj)
		if err != nil {
			return nil, err
		}
		memories = append(memories, memory)
	}

	return memories, nil
}
