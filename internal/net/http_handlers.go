package net

import (
	"encoding/json"
	nethttp "net/http"
	"time"

	"ordnance/internal/net/ws"
	"ordnance/internal/observability"
	"ordnance/internal/telemetry"
	"ordnance/internal/weapon"
	"ordnance/logging"
)

// HTTPHandlerConfig wires the observer endpoints. Every field is optional.
type HTTPHandlerConfig struct {
	Logger   telemetry.Logger
	Feed     *ws.Feed
	Metrics  *logging.Metrics
	TickRate int
	// Status returns a JSON-encodable snapshot of the running skirmish. It is
	// called from HTTP goroutines and must be safe for concurrent use.
	Status func() any
	// Weapons returns the loaded weapon catalog.
	Weapons func() []*weapon.Template
	// Events reports the event router counters.
	Events func() logging.RouterStats

	Observability observability.Config
}

func NewHTTPHandler(cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.Discard
	}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		payload := struct {
			Status     string               `json:"status"`
			ServerTime int64                `json:"serverTime"`
			TickRate   int                  `json:"tickRate"`
			Skirmish   any                  `json:"skirmish,omitempty"`
			Feed       *ws.FeedStats        `json:"feed,omitempty"`
			Telemetry  map[string]uint64    `json:"telemetry,omitempty"`
			Events     *logging.RouterStats `json:"events,omitempty"`
		}{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
			TickRate:   cfg.TickRate,
			Telemetry:  cfg.Metrics.Snapshot(),
		}
		if cfg.Status != nil {
			payload.Skirmish = cfg.Status()
		}
		if cfg.Feed != nil {
			stats := cfg.Feed.Stats()
			payload.Feed = &stats
		}
		if cfg.Events != nil {
			events := cfg.Events()
			payload.Events = &events
		}
		writeJSON(w, logger, payload)
	})

	mux.HandleFunc("/weapons", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		if cfg.Weapons == nil {
			httpError(w, "catalog unavailable", nethttp.StatusServiceUnavailable)
			return
		}
		templates := cfg.Weapons()
		if name := r.URL.Query().Get("name"); name != "" {
			for _, t := range templates {
				if t.Name == name {
					writeJSON(w, logger, t)
					return
				}
			}
			httpError(w, "unknown weapon", nethttp.StatusNotFound)
			return
		}
		writeJSON(w, logger, templates)
	})

	if cfg.Feed != nil {
		mux.HandleFunc("/ws", cfg.Feed.Handle)
	}
	cfg.Observability.Mount(mux)

	return mux
}

func writeJSON(w nethttp.ResponseWriter, logger telemetry.Logger, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Printf("failed to encode response: %v", err)
		httpError(w, "failed to encode", nethttp.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func httpError(w nethttp.ResponseWriter, msg string, code int) {
	nethttp.Error(w, msg, code)
}
