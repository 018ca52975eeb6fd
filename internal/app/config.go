package app

import (
	"fmt"
	"path/filepath"

	"github.com/caarlos0/env/v11"

	"ordnance/catalog"
)

// Config holds the runner's knobs. LoadConfig fills it from ARMORY_*
// environment variables.
type Config struct {
	CatalogPaths []string `env:"ARMORY_CATALOG_PATHS" envSeparator:","`
	ScenarioPath string   `env:"ARMORY_SCENARIO_PATH"`
	// Frames overrides the scenario's frame limit when positive.
	Frames uint32 `env:"ARMORY_FRAMES"`
	// TickRate paces the loop in frames per second; 0 runs unthrottled.
	TickRate int   `env:"ARMORY_TICK_RATE" envDefault:"0"`
	Seed     int64 `env:"ARMORY_SEED"`
	// ListenAddr enables the HTTP diagnostics and websocket feed.
	ListenAddr string `env:"ARMORY_LISTEN_ADDR"`
	// Linger keeps the HTTP server up after the scenario finishes.
	Linger       bool     `env:"ARMORY_LINGER"`
	LogSinks     []string `env:"ARMORY_LOG_SINKS" envSeparator:"," envDefault:"console"`
	LogJSONPath  string   `env:"ARMORY_LOG_JSON_PATH"`
	LogLevel     string   `env:"ARMORY_LOG_LEVEL" envDefault:"info"`
	SummaryEvery uint32   `env:"ARMORY_SUMMARY_EVERY" envDefault:"30"`
	Tracing      bool     `env:"ARMORY_TRACING"`
	// Pprof mounts /debug/pprof on the HTTP server.
	Pprof bool `env:"ARMORY_PPROF"`
}

// LoadConfig parses the environment and fills in path defaults.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if len(cfg.CatalogPaths) == 0 {
		cfg.CatalogPaths = catalog.DefaultPaths()
	}
	if cfg.ScenarioPath == "" {
		cfg.ScenarioPath = filepath.Join("config", "scenarios", "skirmish.json")
	}
	if cfg.TickRate < 0 {
		return Config{}, fmt.Errorf("ARMORY_TICK_RATE must not be negative (got %d)", cfg.TickRate)
	}
	return cfg, nil
}
