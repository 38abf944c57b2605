package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/touchline/internal/engine"
	"github.com/roach88/touchline/internal/match"
	"github.com/roach88/touchline/internal/recalc"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string          // Assertion type for categorization
	Expected string          // Human-readable expected outcome
	Actual   string          // Human-readable actual outcome
	Timeline []TimelineEntry // Final timeline for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Timeline) > 0 {
		fmt.Fprintf(&buf, "\nTimeline:\n")
		for _, entry := range e.Timeline {
			fmt.Fprintf(&buf, "  %3d' %s\n", entry.Minute, entry.Summary)
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages. An empty slice means all assertions held.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertMinutes:
		return assertMinutes(result, a)
	case AssertState:
		return assertState(result, a)
	case AssertTimelineOrder:
		return assertTimelineOrder(result, a)
	case AssertTimelineCount:
		return assertCount(result, a.Type, len(result.timeline), *a.Count, "events")
	case AssertGoal:
		return assertGoal(result, a)
	case AssertJobs:
		return assertJobs(result, a)
	case AssertStatsSettled:
		return assertStatsSettled(result)
	}
	return fmt.Errorf("unknown assertion type: %s", a.Type)
}

func assertMinutes(result *Result, a Assertion) error {
	for _, ps := range result.Players {
		if ps.PlayerID != a.Player {
			continue
		}
		if ps.Minutes != *a.Minutes {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s played %d minutes", a.Player, *a.Minutes),
				Actual:   fmt.Sprintf("%d minutes", ps.Minutes),
				Timeline: result.Timeline,
			}
		}
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%s played %d minutes", a.Player, *a.Minutes),
		Actual:   "player not on the roster",
	}
}

func assertState(result *Result, a Assertion) error {
	got := engine.StateAt(result.timeline, a.Player, a.Minute, result.lineup)
	if string(got) != a.State {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s is %s at minute %d", a.Player, a.State, a.Minute),
			Actual:   string(got),
			Timeline: result.Timeline,
		}
	}
	return nil
}

// assertTimelineOrder checks that the referenced events appear in the
// listed order. Other events may appear in between.
func assertTimelineOrder(result *Result, a Assertion) error {
	positions := make(map[string]int, len(a.Refs))
	for i, entry := range result.Timeline {
		if entry.Ref != "" {
			positions[entry.Ref] = i + 1 // 1-indexed for readability
		}
	}
	for _, ref := range a.Refs {
		if positions[ref] == 0 {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("all refs present: %v", a.Refs),
				Actual:   fmt.Sprintf("missing ref: %s", ref),
				Timeline: result.Timeline,
			}
		}
	}
	for i := 1; i < len(a.Refs); i++ {
		prev, curr := a.Refs[i-1], a.Refs[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("refs in order: %v", a.Refs),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Timeline: result.Timeline,
			}
		}
	}
	return nil
}

func assertGoal(result *Result, a Assertion) error {
	id := result.refs[a.Ref]
	for _, ev := range result.timeline {
		g, ok := ev.(match.Goal)
		if !ok || g.ID != id {
			continue
		}
		if g.Sequence != a.Sequence || string(g.StateAtGoal) != a.State {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("goal %s is #%d while %s", a.Ref, a.Sequence, a.State),
				Actual:   fmt.Sprintf("#%d while %q", g.Sequence, g.StateAtGoal),
				Timeline: result.Timeline,
			}
		}
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("goal %s in the timeline", a.Ref),
		Actual:   "not found",
		Timeline: result.Timeline,
	}
}

func assertJobs(result *Result, a Assertion) error {
	n := 0
	for _, j := range result.jobs {
		if a.Status == "" || string(j.Status) == a.Status {
			n++
		}
	}
	what := "jobs"
	if a.Status != "" {
		what = a.Status + " jobs"
	}
	return assertCount(result, a.Type, n, *a.Count, what)
}

func assertCount(result *Result, typ string, got, want int, what string) error {
	if got != want {
		return &AssertionError{
			Type:     typ,
			Expected: fmt.Sprintf("%d %s", want, what),
			Actual:   fmt.Sprintf("%d %s", got, what),
			Timeline: result.Timeline,
		}
	}
	return nil
}

// assertStatsSettled checks eventual consistency: the queue is empty of
// unfinished work and the stored stats match a fresh calculation.
func assertStatsSettled(result *Result) error {
	for _, j := range result.jobs {
		if j.Status != recalc.StatusCompleted {
			return &AssertionError{
				Type:     AssertStatsSettled,
				Expected: "every job completed",
				Actual:   fmt.Sprintf("job %s is %s (%s)", j.ID, j.Status, j.LastError),
			}
		}
	}
	if len(result.jobs) == 0 {
		return nil
	}
	if !slices.Equal(result.stored, result.Players) {
		return &AssertionError{
			Type:     AssertStatsSettled,
			Expected: fmt.Sprintf("stored stats %v", result.Players),
			Actual:   fmt.Sprintf("%v", result.stored),
			Timeline: result.Timeline,
		}
	}
	return nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
