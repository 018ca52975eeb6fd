package app

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"ordnance/internal/arena"
	"ordnance/internal/telemetry"
	"ordnance/internal/weapon"
	"ordnance/logging"
	"ordnance/logging/simulation"
)

const (
	// defaultFrameLimit caps scenarios that set no frame limit.
	defaultFrameLimit = 10 * 60 * weapon.FramesPerSecond

	ReasonWinner      = "winner"
	ReasonAnnihilated = "annihilated"
	ReasonFrameLimit  = "frame_limit"
	ReasonCanceled    = "canceled"
)

// Status is a point-in-time view of a running skirmish.
type Status struct {
	Scenario       string         `json:"scenario"`
	Frame          uint32         `json:"frame"`
	Alive          int            `json:"alive"`
	AliveByTeam    map[string]int `json:"aliveByTeam,omitempty"`
	Projectiles    int            `json:"projectiles"`
	Beams          int            `json:"beams"`
	PendingDelayed int            `json:"pendingDelayed"`
	Finished       bool           `json:"finished"`
	Winner         string         `json:"winner,omitempty"`
	Reason         string         `json:"reason,omitempty"`
}

// SkirmishOptions configures a Skirmish.
type SkirmishOptions struct {
	Scenario string
	// FrameLimit stops the run after this many frames; 0 uses the default.
	FrameLimit uint32
	// TickRate paces frames per second; 0 runs unthrottled.
	TickRate int
	// SummaryEvery publishes a frame summary every N frames; 0 disables.
	SummaryEvery uint32
	Tracer       trace.Tracer
	Publisher    logging.Publisher
	Logger       telemetry.Logger
}

// Skirmish steps an arena until one team remains or the frame limit is hit.
type Skirmish struct {
	arena  *arena.Arena
	opts   SkirmishOptions
	status atomic.Pointer[Status]
}

// NewSkirmish wraps a populated arena.
func NewSkirmish(a *arena.Arena, opts SkirmishOptions) *Skirmish {
	if opts.FrameLimit == 0 {
		opts.FrameLimit = defaultFrameLimit
	}
	if opts.Tracer == nil {
		opts.Tracer = noop.NewTracerProvider().Tracer(instrumentationName)
	}
	if opts.Publisher == nil {
		opts.Publisher = logging.NopPublisher()
	}
	if opts.Logger == nil {
		opts.Logger = telemetry.Discard
	}
	s := &Skirmish{arena: a, opts: opts}
	initial := s.snapshot()
	s.status.Store(&initial)
	return s
}

// Status returns the latest snapshot. It is safe to call from any goroutine.
func (s *Skirmish) Status() Status {
	return *s.status.Load()
}

// Run steps the arena until the skirmish ends or ctx is canceled, then
// publishes the final outcome.
func (s *Skirmish) Run(ctx context.Context) Status {
	var ticker *time.Ticker
	var budget time.Duration
	if s.opts.TickRate > 0 {
		budget = time.Second / time.Duration(s.opts.TickRate)
		ticker = time.NewTicker(budget)
		defer ticker.Stop()
	}

	var streak uint64
	var reason, winner string
	for reason == "" {
		reason, winner = s.outcome()
		if reason != "" {
			break
		}
		if ctx.Err() != nil {
			reason = ReasonCanceled
			break
		}

		start := time.Now()
		s.step(ctx)
		if ticker == nil {
			continue
		}

		elapsed := time.Since(start)
		if elapsed > budget {
			streak++
			simulation.TickBudgetOverrun(ctx, s.opts.Publisher, uint64(s.arena.Frame()), simulation.TickBudgetOverrunPayload{
				DurationMillis: elapsed.Milliseconds(),
				BudgetMillis:   budget.Milliseconds(),
				Ratio:          float64(elapsed) / float64(budget),
				Streak:         streak,
			}, nil)
		} else {
			streak = 0
		}
		select {
		case <-ctx.Done():
			reason = ReasonCanceled
		case <-ticker.C:
		}
	}

	final := s.snapshot()
	final.Finished = true
	final.Reason = reason
	final.Winner = winner
	s.status.Store(&final)

	simulation.ScenarioFinished(context.WithoutCancel(ctx), s.opts.Publisher, uint64(final.Frame), simulation.ScenarioFinishedPayload{
		Scenario: s.opts.Scenario,
		Frames:   uint64(final.Frame),
		Winner:   winner,
		Reason:   reason,
	}, nil)
	return final
}

func (s *Skirmish) outcome() (string, string) {
	teams := s.arena.AliveByTeam()
	switch {
	case len(teams) == 1:
		winner, _ := s.arena.Winner()
		return ReasonWinner, winner
	case len(teams) == 0:
		return ReasonAnnihilated, ""
	case s.arena.Frame() >= s.opts.FrameLimit:
		return ReasonFrameLimit, ""
	}
	return "", ""
}

func (s *Skirmish) step(ctx context.Context) {
	ctx, span := s.opts.Tracer.Start(ctx, "arena.step",
		trace.WithAttributes(attribute.Int64("arena.frame", int64(s.arena.Frame())+1)))
	defer span.End()

	s.arena.Step()
	snap := s.snapshot()
	span.SetAttributes(
		attribute.Int("arena.alive", snap.Alive),
		attribute.Int("arena.projectiles", snap.Projectiles),
		attribute.Int("arena.pending_delayed", snap.PendingDelayed),
	)
	s.status.Store(&snap)

	if s.opts.SummaryEvery == 0 || snap.Frame%s.opts.SummaryEvery != 0 {
		return
	}
	traceID := ""
	if sc := span.SpanContext(); sc.IsValid() {
		traceID = sc.TraceID().String()
	}
	simulation.FrameSummary(ctx, s.opts.Publisher, uint64(snap.Frame), traceID, simulation.FrameSummaryPayload{
		Alive:          snap.Alive,
		AliveByTeam:    snap.AliveByTeam,
		Projectiles:    snap.Projectiles,
		Beams:          snap.Beams,
		PendingDelayed: snap.PendingDelayed,
	}, nil)
}

func (s *Skirmish) snapshot() Status {
	alive := 0
	for _, u := range s.arena.Units() {
		if !u.Dead {
			alive++
		}
	}
	return Status{
		Scenario:       s.opts.Scenario,
		Frame:          s.arena.Frame(),
		Alive:          alive,
		AliveByTeam:    s.arena.AliveByTeam(),
		Projectiles:    len(s.arena.Projectiles()),
		Beams:          len(s.arena.Beams()),
		PendingDelayed: s.arena.Store().PendingDelayed(),
	}
}
