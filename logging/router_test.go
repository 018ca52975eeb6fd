package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"ordnance/logging"
	"ordnance/logging/sinks"
)

func TestRouterFiltersBySeverityAndStampsFields(t *testing.T) {
	stamp := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	memory := sinks.NewMemorySink()
	cfg := logging.DefaultConfig()
	cfg.MinimumSeverity = logging.SeverityInfo
	cfg.Fields = map[string]any{"scenario": "duel"}

	router, err := logging.NewRouter(logging.ClockFunc(func() time.Time { return stamp }), cfg, []logging.NamedSink{{Name: "memory", Sink: memory}})
	if err != nil {
		t.Fatalf("NewRouter failed: %v", err)
	}
	ctx := context.Background()
	router.Publish(ctx, logging.Event{Type: "weapons.fired", Severity: logging.SeverityDebug})
	router.Publish(ctx, logging.Event{Type: "lifecycle.unit_destroyed", Severity: logging.SeverityInfo, Extra: map[string]any{"scenario": "override"}})
	router.Publish(ctx, logging.Event{Severity: logging.SeverityError})

	if err := router.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	events := memory.Events()
	if len(events) != 1 {
		t.Fatalf("expected only the info event to pass, got %d", len(events))
	}
	event := events[0]
	if event.Type != "lifecycle.unit_destroyed" || !event.Time.Equal(stamp) {
		t.Fatalf("unexpected event %+v", event)
	}
	if event.Extra["scenario"] != "override" {
		t.Fatalf("expected event extras to win over router fields, got %v", event.Extra)
	}
	if stats := router.Stats(); stats.EventsTotal != 1 {
		t.Fatalf("expected one forwarded event, got %+v", stats)
	}
	if stats := router.Stats(); stats.SinkDropped != nil {
		t.Fatalf("expected no sink drops, got %v", stats.SinkDropped)
	}

	router.Publish(ctx, logging.Event{Type: "late", Severity: logging.SeverityError})
	if len(memory.Events()) != 1 {
		t.Fatalf("expected publishes after Close to be ignored")
	}
}

func TestJSONSinkWritesLines(t *testing.T) {
	var buf bytes.Buffer
	sink := sinks.NewJSON(&buf, 0)
	event := logging.Event{
		Type:     "weapons.damage",
		Tick:     12,
		Time:     time.Unix(0, 0).UTC(),
		Category: logging.CategoryWeapons,
		Actor:    logging.EntityRef{ID: "red-1", Kind: logging.EntityKindUnit},
		Payload:  map[string]any{"amount": 30},
	}
	if err := sink.Write(event); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := sink.Write(event); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two lines, got %q", buf.String())
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &decoded); err != nil {
		t.Fatalf("expected valid json: %v", err)
	}
	if decoded["type"] != "weapons.damage" || decoded["tick"] != float64(12) {
		t.Fatalf("unexpected line %v", decoded)
	}
}

func TestParseSeverity(t *testing.T) {
	cases := map[string]logging.Severity{
		"debug":   logging.SeverityDebug,
		"":        logging.SeverityInfo,
		" INFO ":  logging.SeverityInfo,
		"warning": logging.SeverityWarn,
		"error":   logging.SeverityError,
	}
	for name, want := range cases {
		got, err := logging.ParseSeverity(name)
		if err != nil || got != want {
			t.Fatalf("ParseSeverity(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := logging.ParseSeverity("loud"); err == nil {
		t.Fatalf("expected unknown severity to fail")
	}
}

func TestConsoleSinkColorsBySeverity(t *testing.T) {
	var plain, colored bytes.Buffer
	event := logging.Event{
		Type:     "weapons.range_rejected",
		Tick:     3,
		Severity: logging.SeverityWarn,
		Actor:    logging.EntityRef{ID: "red-1", Kind: logging.EntityKindUnit},
		Targets:  []logging.EntityRef{{ID: "blue-1", Kind: logging.EntityKindUnit}},
	}
	if err := sinks.NewConsoleSink(&plain, logging.ConsoleConfig{}).Write(event); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := sinks.NewConsoleSink(&colored, logging.ConsoleConfig{UseColor: true}).Write(event); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !strings.Contains(plain.String(), "severity=warn targets=unit:blue-1") {
		t.Fatalf("expected severity and targets in %q", plain.String())
	}
	if strings.Contains(plain.String(), "\x1b[") {
		t.Fatalf("expected no escape codes without color, got %q", plain.String())
	}
	if !strings.Contains(colored.String(), "\x1b[33m") {
		t.Fatalf("expected a warn color, got %q", colored.String())
	}
}

func TestJSONSinkFlushesBufferedEventsOnClose(t *testing.T) {
	var buf bytes.Buffer
	sink := sinks.NewJSON(&buf, time.Hour)
	if err := sink.Write(logging.Event{Type: "weapons.fired", Tick: 1}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected the event to stay buffered until the next flush")
	}
	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"type":"weapons.fired"`) {
		t.Fatalf("expected the buffered event after Close, got %q", buf.String())
	}
}

func TestMemorySinkOfType(t *testing.T) {
	memory := sinks.NewMemorySink()
	memory.Write(logging.Event{Type: "weapons.fired", Tick: 1})
	memory.Write(logging.Event{Type: "weapons.damage", Tick: 1})
	memory.Write(logging.Event{Type: "weapons.fired", Tick: 2})

	fired := memory.OfType("weapons.fired")
	if len(fired) != 2 || fired[0].Tick != 1 || fired[1].Tick != 2 {
		t.Fatalf("expected two fired events in order, got %+v", fired)
	}
	if got := len(memory.Events()); got != 3 {
		t.Fatalf("expected three events, got %d", got)
	}
}
