package sinks

import (
	"context"
	"maps"
	"slices"
	"sync"

	"ordnance/logging"
)

// MemorySink keeps every event it receives. Tests and headless runs read it
// back.
type MemorySink struct {
	mu     sync.RWMutex
	events []logging.Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Write(event logging.Event) error {
	event.Targets = slices.Clone(event.Targets)
	event.Extra = maps.Clone(event.Extra)
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
	return nil
}

// Events returns a copy of everything written so far.
func (s *MemorySink) Events() []logging.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.events)
}

// OfType returns the recorded events of one type, oldest first.
func (s *MemorySink) OfType(eventType logging.EventType) []logging.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []logging.Event
	for _, event := range s.events {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

func (s *MemorySink) Close(context.Context) error {
	return nil
}
