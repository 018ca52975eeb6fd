package sinks

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"ordnance/logging"
)

// JSON emits newline-delimited events. With a flush interval the buffer is
// flushed on a ticker, otherwise after every event.
type JSON struct {
	mu      sync.Mutex
	writer  *bufio.Writer
	encoder *json.Encoder
	ticker  *time.Ticker
	done    chan struct{}
}

// NewJSON constructs a JSON sink writing to w.
func NewJSON(w io.Writer, flushInterval time.Duration) *JSON {
	if w == nil {
		w = io.Discard
	}
	buf := bufio.NewWriter(w)
	sink := &JSON{writer: buf, encoder: json.NewEncoder(buf)}
	if flushInterval > 0 {
		sink.ticker = time.NewTicker(flushInterval)
		sink.done = make(chan struct{})
		go sink.flushLoop()
	}
	return sink
}

func (s *JSON) Write(event logging.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.encoder.Encode(event); err != nil {
		return err
	}
	if s.ticker == nil {
		return s.writer.Flush()
	}
	return nil
}

// Close stops the flush ticker and flushes what is buffered.
func (s *JSON) Close(context.Context) error {
	if s.ticker != nil {
		s.ticker.Stop()
		close(s.done)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writer.Flush()
}

func (s *JSON) flushLoop() {
	for {
		select {
		case <-s.done:
			return
		case <-s.ticker.C:
			s.mu.Lock()
			s.writer.Flush()
			s.mu.Unlock()
		}
	}
}
