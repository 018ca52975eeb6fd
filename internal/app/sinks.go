package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"ordnance/internal/net/ws"
	"ordnance/logging"
	"ordnance/logging/sinks"
)

// buildSinks resolves the configured sink names. The returned closer releases
// any files the sinks write to and must run after the router is closed.
func buildSinks(cfg Config, logCfg logging.Config, feed *ws.Feed, stdout io.Writer) ([]logging.NamedSink, func() error, error) {
	var named []logging.NamedSink
	var files []*os.File
	closer := func() error {
		var errs []error
		for _, f := range files {
			errs = append(errs, f.Close())
		}
		return errors.Join(errs...)
	}

	seen := make(map[string]bool)
	for _, raw := range cfg.LogSinks {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		switch name {
		case "console":
			named = append(named, logging.NamedSink{Name: name, Sink: sinks.NewConsoleSink(stdout, logCfg.Console)})
		case "json":
			w := stdout
			var flush time.Duration
			if cfg.LogJSONPath != "" {
				file, err := os.Create(cfg.LogJSONPath)
				if err != nil {
					closer()
					return nil, nil, fmt.Errorf("open json log: %w", err)
				}
				files = append(files, file)
				w = file
				flush = logCfg.JSON.FlushInterval
			}
			named = append(named, logging.NamedSink{Name: name, Sink: sinks.NewJSON(w, flush)})
		case "memory":
			named = append(named, logging.NamedSink{Name: name, Sink: sinks.NewMemorySink()})
		default:
			closer()
			return nil, nil, fmt.Errorf("unknown log sink %q", raw)
		}
	}
	if feed != nil {
		named = append(named, logging.NamedSink{Name: "feed", Sink: feed})
	}
	return named, closer, nil
}

func closeRouter(router *logging.Router, logger interface{ Printf(string, ...any) }) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := router.Close(ctx); err != nil {
		logger.Printf("failed to close logging router: %v", err)
	}
}
