package repository_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/engram/pkg/model"
	"github.com/m-mizutani/engram/pkg/repository"
	"github.com/m-mizutani/gt"
)

func TestRemoteInitialize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Equal(t, r.URL.Path, "/api/health")
		gt.Equal(t, r.Header.Get("X-API-Key"), "test-key")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	backend := repository.NewRemote(server.URL, "test-key")
	gt.False(t, backend.IsReady())

	gt.NoError(t, backend.Initialize(context.Background()))
	gt.True(t, backend.IsReady())
}

func TestRemoteInitializeFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	backend := repository.NewRemote(server.URL, "test-key")
	gt.Error(t, backend.Initialize(context.Background()))
	gt.False(t, backend.IsReady())
}

func TestRemoteInitializeUnreachable(t *testing.T) {
	backend := repository.NewRemote("http://127.0.0.1:1", "test-key")
	gt.Error(t, backend.Initialize(context.Background()))
}

func TestRemoteRemember(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Equal(t, r.Method, http.MethodPost)
		gt.Equal(t, r.URL.Path, "/api/memories")
		gt.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		// Respond with alternate field spellings to exercise the
		// fallback mapping
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"memory_id":   "mem-123",
			"text":        "user prefers dark mode",
			"memory_type": "preference",
			"importance":  0.8,
			"created_at":  "2025-06-01T12:00:00Z",
		})
	}))
	defer server.Close()

	backend := repository.NewRemote(server.URL, "test-key")
	memory, err := backend.Remember(context.Background(), repository.RememberInput{
		Content:    "user prefers dark mode",
		Type:       model.MemoryTypePreference,
		Importance: floatPtr(0.8),
	})
	gt.NoError(t, err)

	// Request body uses the remote wire shape
	gt.Equal(t, gotBody["content"], "user prefers dark mode")
	gt.Equal(t, gotBody["type"], "preference")
	gt.Equal(t, gotBody["importance"], 0.8)

	gt.Equal(t, memory.ID, model.MemoryID("mem-123"))
	gt.Equal(t, memory.Content, "user prefers dark mode")
	gt.Equal(t, memory.Type, model.MemoryTypePreference)
	gt.Equal(t, memory.Importance, 0.8)
	gt.False(t, memory.CreatedAt.IsZero())
	gt.Equal(t, memory.UpdatedAt, memory.CreatedAt)
}

func TestRemoteRememberEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"memory": map[string]any{
				"id":      "mem-9",
				"content": "wrapped response",
			},
		})
	}))
	defer server.Close()

	backend := repository.NewRemote(server.URL, "")
	memory, err := backend.Remember(context.Background(), repository.RememberInput{Content: "wrapped response"})
	gt.NoError(t, err)
	gt.Equal(t, memory.ID, model.MemoryID("mem-9"))
	gt.Equal(t, memory.Type, model.MemoryTypeFact)
	gt.Equal(t, memory.Importance, 0.5)
}

func TestRemoteRememberServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	backend := repository.NewRemote(server.URL, "")
	_, err := backend.Remember(context.Background(), repository.RememberInput{Content: "anything"})
	gt.Error(t, err)
}

func TestRemoteSearch(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Equal(t, r.Method, http.MethodPost)
		gt.Equal(t, r.URL.Path, "/api/memories/search")
		gt.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{
					"memory": map[string]any{
						"id":         "mem-1",
						"content":    "dark mode preference",
						"type":       "preference",
						"importance": 0.9,
					},
					"score": 0.92,
				},
				{
					"id":        "mem-2",
					"content":   "editor settings",
					"relevance": 0.4,
				},
			},
		})
	}))
	defer server.Close()

	backend := repository.NewRemote(server.URL, "")
	results, err := backend.Search(context.Background(), "dark mode", repository.QueryOptions{
		Limit:         10,
		Types:         []model.MemoryType{model.MemoryTypePreference},
		MinImportance: floatPtr(0.3),
		MinScore:      floatPtr(0.2),
	})
	gt.NoError(t, err)

	gt.Equal(t, gotBody["query"], "dark mode")
	gt.Equal(t, gotBody["limit"], any(float64(10)))
	gt.Equal(t, gotBody["min_importance"], 0.3)
	gt.Equal(t, gotBody["min_score"], 0.2)

	gt.A(t, results).Length(2)
	gt.Equal(t, results[0].Memory.ID, model.MemoryID("mem-1"))
	gt.Equal(t, results[0].Score, 0.92)
	// Flat entry with a "relevance" score spelling
	gt.Equal(t, results[1].Memory.ID, model.MemoryID("mem-2"))
	gt.Equal(t, results[1].Score, 0.4)
}

func TestRemoteRecallOmitsMinScore(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode([]map[string]any{})
	}))
	defer server.Close()

	backend := repository.NewRemote(server.URL, "")
	_, err := backend.Recall(context.Background(), "anything", repository.QueryOptions{
		MinScore: floatPtr(0.5),
	})
	gt.NoError(t, err)

	_, hasMinScore := gotBody["min_score"]
	gt.False(t, hasMinScore)
}

func TestRemoteGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/memories/mem-1":
			json.NewEncoder(w).Encode(map[string]any{
				"id":      "mem-1",
				"content": "known memory",
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	backend := repository.NewRemote(server.URL, "")
	ctx := context.Background()

	memory, err := backend.Get(ctx, model.MemoryID("mem-1"))
	gt.NoError(t, err)
	gt.V(t, memory).NotNil()
	gt.Equal(t, memory.Content, "known memory")

	// 404 on point lookup is absence, not an error
	memory, err = backend.Get(ctx, model.MemoryID("mem-unknown"))
	gt.NoError(t, err)
	gt.V(t, memory).Nil()
}

func TestRemoteForget(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Equal(t, r.Method, http.MethodDelete)
		switch r.URL.Path {
		case "/api/memories/mem-1":
			gt.Equal(t, r.URL.Query().Get("reason"), "stale")
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	backend := repository.NewRemote(server.URL, "")
	ctx := context.Background()

	removed, err := backend.Forget(ctx, model.MemoryID("mem-1"), "stale")
	gt.NoError(t, err)
	gt.True(t, removed)

	removed, err = backend.Forget(ctx, model.MemoryID("mem-unknown"), "")
	gt.NoError(t, err)
	gt.False(t, removed)
}

func TestRemoteList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Equal(t, r.URL.Path, "/api/memories")
		gt.Equal(t, r.URL.Query().Get("limit"), "2")
		gt.Equal(t, r.URL.Query().Get("offset"), "1")

		json.NewEncoder(w).Encode(map[string]any{
			"memories": []map[string]any{
				{"id": "mem-2", "content": "second"},
				{"id": "mem-3", "content": "third"},
			},
		})
	}))
	defer server.Close()

	backend := repository.NewRemote(server.URL, "")
	memories, err := backend.List(context.Background(), 1, 2)
	gt.NoError(t, err)
	gt.A(t, memories).Length(2)
	gt.Equal(t, memories[0].ID, model.MemoryID("mem-2"))
	gt.Equal(t, memories[1].ID, model.MemoryID("mem-3"))
}

func TestRemoteInfo(t *testing.T) {
	backend := repository.NewRemote("https://memory.example.com", "key")

	info := backend.Info()
	gt.Equal(t, info.BackendType, "remote")
	gt.False(t, info.Connected)
	gt.A(t, info.SupportedFeatures).Longer(0)
}
