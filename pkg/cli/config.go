package cli

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/briandowns/spinner"
	"github.com/m-mizutani/engram/pkg/repository"
	"github.com/m-mizutani/engram/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// config holds configuration values
type config struct {
	memoryAPIURL string
	memoryAPIKey string
	memoryPath   string
	logLevel     string
	configFile   string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "memory-api-url",
			Usage:       "Base URL of the remote memory service (uses the local file store when unset)",
			Sources:     cli.EnvVars("ENGRAM_MEMORY_API_URL"),
			Destination: &cfg.memoryAPIURL,
		},
		&cli.StringFlag{
			Name:        "memory-api-key",
			Usage:       "API key for the remote memory service",
			Sources:     cli.EnvVars("ENGRAM_MEMORY_API_KEY"),
			Destination: &cfg.memoryAPIKey,
		},
		&cli.StringFlag{
			Name:        "memory-path",
			Usage:       "Path of the local memory store file (default: ~/.engram/memories.json)",
			Sources:     cli.EnvVars("ENGRAM_MEMORY_PATH"),
			Destination: &cfg.memoryPath,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("ENGRAM_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to a YAML config file",
			Sources:     cli.EnvVars("ENGRAM_CONFIG"),
			Destination: &cfg.configFile,
		},
	}
}

// fileConfig is the YAML config file layout. Flags and environment
// variables take precedence over file values.
type fileConfig struct {
	MemoryAPIURL string `yaml:"memory_api_url"`
	MemoryAPIKey string `yaml:"memory_api_key"`
	MemoryPath   string `yaml:"memory_path"`
	LogLevel     string `yaml:"log_level"`
}

func (cfg *config) loadFile() error {
	if cfg.configFile == "" {
		return nil
	}

	content, err := os.ReadFile(cfg.configFile)
	if err != nil {
		return goerr.Wrap(err, "failed to read config file", goerr.V("file", cfg.configFile))
	}

	var fc fileConfig
	if err := yaml.Unmarshal(content, &fc); err != nil {
		return goerr.Wrap(err, "failed to parse config file", goerr.V("file", cfg.configFile))
	}

	if cfg.memoryAPIURL == "" {
		cfg.memoryAPIURL = fc.MemoryAPIURL
	}
	if cfg.memoryAPIKey == "" {
		cfg.memoryAPIKey = fc.MemoryAPIKey
	}
	if cfg.memoryPath == "" {
		cfg.memoryPath = fc.MemoryPath
	}
	if fc.LogLevel != "" && cfg.logLevel == "info" {
		cfg.logLevel = fc.LogLevel
	}

	return nil
}

// setup merges the config file, installs the logger and returns a context
// carrying it. Every command action calls this first.
func (cfg *config) setup(ctx context.Context) (context.Context, error) {
	if err := cfg.loadFile(); err != nil {
		return ctx, err
	}

	logger := logging.New(cfg.logLevel, os.Stderr)
	logging.SetDefault(logger)
	return logging.With(ctx, logger), nil
}

// newBackend resolves the backend variant exactly once: remote when a
// service URL is configured, local otherwise. It is never re-resolved
// during a process's lifetime.
func (cfg *config) newBackend() (repository.Backend, error) {
	if cfg.memoryAPIURL != "" {
		return repository.NewRemote(cfg.memoryAPIURL, cfg.memoryAPIKey), nil
	}

	path := cfg.memoryPath
	if path == "" {
		defaultPath, err := defaultStorePath()
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}

	return repository.NewLocal(path), nil
}

// readyBackend constructs and initializes the configured backend
func (cfg *config) readyBackend(ctx context.Context) (repository.Backend, error) {
	backend, err := cfg.newBackend()
	if err != nil {
		return nil, err
	}
	if err := backend.Initialize(ctx); err != nil {
		return nil, goerr.Wrap(err, "failed to initialize memory backend")
	}
	return backend, nil
}

func defaultStorePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", goerr.Wrap(err, "failed to resolve home directory")
	}
	return filepath.Join(home, ".engram", "memories.json"), nil
}

// withSpinner shows a progress indicator on stderr while fn runs
func withSpinner(message string, fn func() error) error {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + message
	s.Start()
	defer s.Stop()
	return fn()
}
