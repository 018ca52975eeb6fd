package logging

import (
	"context"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultQueueSize     = 512
	minSinkBacklog       = 32
	maxSinkBacklog       = 1024
	defaultDropWarnEvery = 5 * time.Second
	maxRetryShift        = 5
)

// Clock stamps events that arrive without a time.
type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

// Sink receives events from its own goroutine; Write is never called
// concurrently for one sink.
type Sink interface {
	Write(Event) error
	Close(context.Context) error
}

type NamedSink struct {
	Name string
	Sink Sink
}

// Router fans weapon and skirmish events out to sinks. Publish never blocks
// the simulation: a full queue drops the event and counts it.
type Router struct {
	cfg      Config
	queue    chan Event
	outlets  []*outlet
	clock    Clock
	fallback *log.Logger
	stop     context.CancelFunc
	stopped  <-chan struct{}
	closed   atomic.Bool
	minimum  Severity
	fields   map[string]any
	wg       sync.WaitGroup

	forwarded   atomic.Uint64
	dropped     atomic.Uint64
	nextDropLog atomic.Int64
}

// RouterStats is a point-in-time view of the router counters.
type RouterStats struct {
	EventsTotal  uint64            `json:"eventsTotal"`
	DroppedTotal uint64            `json:"droppedTotal"`
	SinkDropped  map[string]uint64 `json:"sinkDropped,omitempty"`
}

// NewRouter starts the dispatch goroutine and one writer per sink. Nil sinks
// are skipped.
func NewRouter(clock Clock, cfg Config, namedSinks []NamedSink) (*Router, error) {
	if clock == nil {
		clock = ClockFunc(time.Now)
	}
	queueSize := cfg.BufferSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &Router{
		cfg:      cfg,
		queue:    make(chan Event, queueSize),
		clock:    clock,
		fallback: log.New(os.Stderr, "[logging] ", log.LstdFlags),
		stop:     cancel,
		stopped:  ctx.Done(),
		minimum:  cfg.MinimumSeverity,
		fields:   cfg.CloneFields(),
	}

	backlog := max(minSinkBacklog, min(queueSize, maxSinkBacklog))
	for _, named := range namedSinks {
		if named.Sink == nil {
			continue
		}
		r.outlets = append(r.outlets, &outlet{
			name:     named.Name,
			sink:     named.Sink,
			events:   make(chan Event, backlog),
			fallback: r.fallback,
		})
	}

	r.wg.Add(1 + len(r.outlets))
	go r.dispatch()
	for _, o := range r.outlets {
		go func(o *outlet) {
			defer r.wg.Done()
			o.run()
		}(o)
	}
	return r, nil
}

func (r *Router) dispatch() {
	defer r.wg.Done()
	defer func() {
		for _, o := range r.outlets {
			close(o.events)
		}
	}()
	for {
		select {
		case <-r.stopped:
			for {
				select {
				case event := <-r.queue:
					r.forward(event)
				default:
					return
				}
			}
		case event := <-r.queue:
			r.forward(event)
		}
	}
}

func (r *Router) forward(event Event) {
	if event.Severity < r.minimum {
		return
	}
	if event.Time.IsZero() {
		event.Time = r.clock.Now()
	}
	if len(r.fields) > 0 {
		event = cloneForFields(event)
		if event.Extra == nil {
			event.Extra = make(map[string]any, len(r.fields))
		}
		for k, v := range r.fields {
			if _, exists := event.Extra[k]; !exists {
				event.Extra[k] = v
			}
		}
	}
	r.forwarded.Add(1)
	for _, o := range r.outlets {
		o.enqueue(event)
	}
}

// Publish queues event for the sinks. Untyped events and events published
// after Close are ignored.
func (r *Router) Publish(ctx context.Context, event Event) {
	if event.Type == "" || r.closed.Load() {
		return
	}
	select {
	case r.queue <- event:
	default:
		r.drop(event)
	}
}

func (r *Router) drop(event Event) {
	r.dropped.Add(1)
	every := r.cfg.DropWarnInterval
	if every <= 0 {
		every = defaultDropWarnEvery
	}
	now := time.Now().UnixNano()
	next := r.nextDropLog.Load()
	if now >= next && r.nextDropLog.CompareAndSwap(next, now+every.Nanoseconds()) {
		r.fallback.Printf("dropping event type=%s tick=%d", event.Type, event.Tick)
	}
}

// Close flushes queued events through the sinks, then closes them. A second
// Close waits for ctx.
func (r *Router) Close(ctx context.Context) error {
	if !r.closed.CompareAndSwap(false, true) {
		<-ctx.Done()
		return ctx.Err()
	}
	r.stop()
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	var firstErr error
	for _, o := range r.outlets {
		if err := o.sink.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Stats reports forwarded and dropped event counts. SinkDropped only lists
// sinks that fell behind.
func (r *Router) Stats() RouterStats {
	stats := RouterStats{
		EventsTotal:  r.forwarded.Load(),
		DroppedTotal: r.dropped.Load(),
	}
	for _, o := range r.outlets {
		if n := o.dropped.Load(); n > 0 {
			if stats.SinkDropped == nil {
				stats.SinkDropped = make(map[string]uint64)
			}
			stats.SinkDropped[o.name] = n
		}
	}
	return stats
}

// outlet owns one sink's backlog and backs off after write failures.
type outlet struct {
	name     string
	sink     Sink
	events   chan Event
	fallback *log.Logger
	dropped  atomic.Uint64

	failures  int
	nextRetry time.Time
}

func (o *outlet) enqueue(event Event) {
	select {
	case o.events <- cloneForFields(event):
	default:
		if o.dropped.Add(1) == 1 {
			o.fallback.Printf("sink %s backlog full, dropping events starting with type=%s", o.name, event.Type)
		}
	}
}

func (o *outlet) run() {
	for event := range o.events {
		if o.failures > 0 {
			if wait := time.Until(o.nextRetry); wait > 0 {
				time.Sleep(wait)
			}
		}
		if err := o.sink.Write(event); err != nil {
			o.failures++
			delay := time.Duration(1<<min(o.failures, maxRetryShift)) * time.Second
			o.nextRetry = time.Now().Add(delay)
			o.fallback.Printf("sink %s failed: %v (retry in %s)", o.name, err, delay)
			continue
		}
		o.failures = 0
	}
}
