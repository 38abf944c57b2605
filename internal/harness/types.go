package harness

import (
	"github.com/roach88/touchline/internal/engine"
	"github.com/roach88/touchline/internal/match"
	"github.com/roach88/touchline/internal/recalc"
)

// StepTrace records how one flow step was answered.
type StepTrace struct {
	Step    int    `json:"step"`
	Op      string `json:"op"`
	Ref     string `json:"ref,omitempty"`
	EventID string `json:"event_id,omitempty"`
	Outcome string `json:"outcome"`
	Reason  string `json:"reason,omitempty"`
}

// TimelineEntry is one event of the final timeline.
type TimelineEntry struct {
	Minute  int    `json:"minute"`
	Kind    string `json:"kind"`
	ID      string `json:"id"`
	Ref     string `json:"ref,omitempty"`
	Summary string `json:"summary"`
}

// JobLine summarizes one recalculation job.
type JobLine struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	RetryCount int    `json:"retry_count"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step matched its expectation and every
	// assertion held.
	Pass bool `json:"pass"`

	Trace    []StepTrace         `json:"trace"`
	Timeline []TimelineEntry     `json:"timeline"`
	Players  []match.PlayerStats `json:"players"`
	Jobs     []JobLine           `json:"jobs"`
	Errors   []string            `json:"errors,omitempty"`

	timeline engine.Timeline
	lineup   engine.Lineup
	refs     map[string]string // ref -> event ID
	stored   []match.PlayerStats
	jobs     []recalc.Job
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Trace:    []StepTrace{},
		Timeline: []TimelineEntry{},
		Players:  []match.PlayerStats{},
		Jobs:     []JobLine{},
		Errors:   []string{},
		refs:     make(map[string]string),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// refOf returns the ref of an event ID, if the scenario named it.
func (r *Result) refOf(id string) string {
	for ref, eventID := range r.refs {
		if eventID == id {
			return ref
		}
	}
	return ""
}
