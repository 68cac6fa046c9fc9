package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m-mizutani/engram/pkg/repository"
	"github.com/m-mizutani/gt"
)

func TestNewBackendSelectsLocal(t *testing.T) {
	cfg := &config{
		memoryPath: filepath.Join(t.TempDir(), "memories.json"),
	}

	backend, err := cfg.newBackend()
	gt.NoError(t, err)

	_, ok := backend.(*repository.Local)
	gt.True(t, ok)
}

func TestNewBackendSelectsRemote(t *testing.T) {
	// Presence of the service URL alone selects the remote backend
	cfg := &config{
		memoryAPIURL: "https://memory.example.com",
		memoryAPIKey: "secret",
		memoryPath:   filepath.Join(t.TempDir(), "memories.json"),
	}

	backend, err := cfg.newBackend()
	gt.NoError(t, err)

	_, ok := backend.(*repository.Remote)
	gt.True(t, ok)
}

func TestLoadFileMergesBelowFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engram.yaml")
	content := `
memory_api_url: https://file.example.com
memory_api_key: file-key
memory_path: /tmp/file-memories.json
log_level: debug
`
	gt.NoError(t, os.WriteFile(path, []byte(content), 0644))

	// Values from flags/env win over the file
	cfg := &config{
		configFile:   path,
		memoryAPIURL: "https://flag.example.com",
		logLevel:     "info",
	}
	gt.NoError(t, cfg.loadFile())

	gt.Equal(t, cfg.memoryAPIURL, "https://flag.example.com")
	gt.Equal(t, cfg.memoryAPIKey, "file-key")
	gt.Equal(t, cfg.memoryPath, "/tmp/file-memories.json")
	gt.Equal(t, cfg.logLevel, "debug")
}

func TestLoadFileMissing(t *testing.T) {
	cfg := &config{configFile: filepath.Join(t.TempDir(), "absent.yaml")}
	gt.Error(t, cfg.loadFile())
}

func TestLoadFileUnset(t *testing.T) {
	cfg := &config{}
	gt.NoError(t, cfg.loadFile())
}

func TestRunConsoleCommands(t *testing.T) {
	ctx := context.Background()
	backend := repository.NewLocal(filepath.Join(t.TempDir(), "memories.json"))
	gt.NoError(t, backend.Initialize(ctx))

	buf := &strings.Builder{}
	gt.NoError(t, runConsoleCommand(ctx, buf, backend, "remember the build uses go 1.25"))
	gt.S(t, buf.String()).Contains("Stored memory")

	buf.Reset()
	gt.NoError(t, runConsoleCommand(ctx, buf, backend, "recall build"))
	gt.S(t, buf.String()).Contains("the build uses go 1.25")

	buf.Reset()
	gt.NoError(t, runConsoleCommand(ctx, buf, backend, "status"))
	gt.S(t, buf.String()).Contains("local")

	buf.Reset()
	gt.NoError(t, runConsoleCommand(ctx, buf, backend, "bogus"))
	gt.S(t, buf.String()).Contains("unknown command")
}
