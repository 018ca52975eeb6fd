package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"

	"ordnance/logging"
)

const ansiReset = "\x1b[0m"

var severityColors = map[logging.Severity]string{
	logging.SeverityDebug: "\x1b[90m",
	logging.SeverityWarn:  "\x1b[33m",
	logging.SeverityError: "\x1b[31m",
}

// ConsoleSink prints one human-readable line per event.
type ConsoleSink struct {
	logger *log.Logger
	color  bool
}

func NewConsoleSink(w io.Writer, cfg logging.ConsoleConfig) *ConsoleSink {
	if w == nil {
		w = io.Discard
	}
	return &ConsoleSink{logger: log.New(w, "", log.LstdFlags), color: cfg.UseColor}
}

func (s *ConsoleSink) Write(event logging.Event) error {
	var line strings.Builder
	fmt.Fprintf(&line, "[%s] tick=%d actor=%s severity=%s", event.Type, event.Tick, formatEntity(event.Actor), event.Severity)
	if len(event.Targets) > 0 {
		parts := make([]string, len(event.Targets))
		for i, target := range event.Targets {
			parts[i] = formatEntity(target)
		}
		fmt.Fprintf(&line, " targets=%s", strings.Join(parts, ","))
	}
	if event.Payload != nil {
		if data, err := json.Marshal(event.Payload); err == nil {
			fmt.Fprintf(&line, " payload=%s", data)
		} else {
			fmt.Fprintf(&line, " payload=%v", event.Payload)
		}
	}
	text := line.String()
	if color, ok := severityColors[event.Severity]; ok && s.color {
		text = color + text + ansiReset
	}
	s.logger.Print(text)
	return nil
}

func (s *ConsoleSink) Close(context.Context) error {
	return nil
}

func formatEntity(ref logging.EntityRef) string {
	switch {
	case ref.ID == "":
		return string(ref.Kind)
	case ref.Kind == "":
		return ref.ID
	default:
		return string(ref.Kind) + ":" + ref.ID
	}
}
