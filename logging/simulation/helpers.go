package simulation

import (
	"context"

	"ordnance/logging"
)

const (
	// EventTickBudgetOverrun is emitted when the simulation loop exceeds the allotted tick budget.
	EventTickBudgetOverrun logging.EventType = "simulation.tick_budget_overrun"
	// EventFrameSummary is emitted periodically with arena totals.
	EventFrameSummary logging.EventType = "simulation.frame_summary"
	// EventScenarioFinished is emitted once the runner stops stepping.
	EventScenarioFinished logging.EventType = "simulation.scenario_finished"
)

// TickBudgetOverrunPayload captures timing details for a tick budget breach.
type TickBudgetOverrunPayload struct {
	DurationMillis int64   `json:"durationMillis"`
	BudgetMillis   int64   `json:"budgetMillis"`
	Ratio          float64 `json:"ratio"`
	Streak         uint64  `json:"streak"`
}

// TickBudgetOverrun publishes a warning when the simulation exceeds the configured tick budget.
func TickBudgetOverrun(ctx context.Context, pub logging.Publisher, tick uint64, payload TickBudgetOverrunPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventTickBudgetOverrun,
		Tick:     tick,
		Severity: logging.SeverityWarn,
		Category: "simulation",
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// FrameSummaryPayload reports arena totals at one frame.
type FrameSummaryPayload struct {
	Alive          int            `json:"alive"`
	AliveByTeam    map[string]int `json:"aliveByTeam,omitempty"`
	Projectiles    int            `json:"projectiles"`
	Beams          int            `json:"beams"`
	PendingDelayed int            `json:"pendingDelayed"`
}

// FrameSummary publishes a periodic arena summary. traceID ties the event to
// the frame span when tracing is enabled.
func FrameSummary(ctx context.Context, pub logging.Publisher, tick uint64, traceID string, payload FrameSummaryPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventFrameSummary,
		Tick:     tick,
		Severity: logging.SeverityDebug,
		Category: "simulation",
		Payload:  payload,
		Extra:    extra,
		TraceID:  traceID,
	}
	pub.Publish(ctx, event)
}

// ScenarioFinishedPayload reports how a scenario ended.
type ScenarioFinishedPayload struct {
	Scenario string `json:"scenario"`
	Frames   uint64 `json:"frames"`
	Winner   string `json:"winner,omitempty"`
	Reason   string `json:"reason"`
}

// ScenarioFinished publishes the end-of-run event.
func ScenarioFinished(ctx context.Context, pub logging.Publisher, tick uint64, payload ScenarioFinishedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventScenarioFinished,
		Tick:     tick,
		Severity: logging.SeverityInfo,
		Category: "simulation",
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
