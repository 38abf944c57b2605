package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/touchline/internal/engine"
	"github.com/roach88/touchline/internal/match"
	"github.com/roach88/touchline/internal/recalc"
)

func intp(n int) *int { return &n }

// testResult builds a result by hand: p1 is substituted by b1 at 30.
func testResult() *Result {
	r := NewResult()
	sub := match.Substitution{ID: "ev-1", MatchID: "m1", Minute: 30, PlayerOut: "p1", PlayerIn: "b1"}
	r.timeline = engine.Timeline{sub}
	r.lineup = engine.NewLineup([]match.RosterEntry{
		{PlayerID: "p1", Status: match.SquadStarting},
		{PlayerID: "b1", Status: match.SquadBench},
	})
	r.refs["off"] = "ev-1"
	r.Timeline = []TimelineEntry{{Minute: 30, Kind: "substitution", ID: "ev-1", Ref: "off", Summary: Summarize(sub)}}
	r.Players = []match.PlayerStats{
		{PlayerID: "b1", Minutes: 60, Appeared: true},
		{PlayerID: "p1", Minutes: 30, Appeared: true},
	}
	r.stored = r.Players
	r.jobs = []recalc.Job{{ID: "job-1", Status: recalc.StatusCompleted}}
	return r
}

func TestEvaluateAssertions_Pass(t *testing.T) {
	failures := EvaluateAssertions(testResult(), []Assertion{
		{Type: AssertMinutes, Player: "p1", Minutes: intp(30)},
		{Type: AssertState, Player: "p1", Minute: 31, State: "SUBSTITUTED_OUT"},
		{Type: AssertState, Player: "b1", Minute: 29, State: "BENCH"},
		{Type: AssertTimelineCount, Count: intp(1)},
		{Type: AssertJobs, Status: "completed", Count: intp(1)},
		{Type: AssertJobs, Status: "failed", Count: intp(0)},
		{Type: AssertStatsSettled},
	})
	assert.Empty(t, failures)
}

func TestAssertMinutes_Failures(t *testing.T) {
	failures := EvaluateAssertions(testResult(), []Assertion{
		{Type: AssertMinutes, Player: "p1", Minutes: intp(45)},
		{Type: AssertMinutes, Player: "p9", Minutes: intp(0)},
	})
	require.Len(t, failures, 2)
	assert.Contains(t, failures[0], "Expected: p1 played 45 minutes")
	assert.Contains(t, failures[0], "Actual: 30 minutes")
	assert.Contains(t, failures[0], " 30' p1 off, b1 on")
	assert.Contains(t, failures[1], "player not on the roster")
}

func TestAssertTimelineOrder(t *testing.T) {
	r := testResult()
	card := match.Card{ID: "ev-2", MatchID: "m1", Minute: 50, Player: "b1", CardKind: match.CardYellow}
	r.refs["yellow"] = "ev-2"
	r.Timeline = append(r.Timeline, TimelineEntry{Minute: 50, Kind: "card", ID: "ev-2", Ref: "yellow"})
	r.timeline = append(r.timeline, card)

	assert.Empty(t, EvaluateAssertions(r, []Assertion{{Type: AssertTimelineOrder, Refs: []string{"off", "yellow"}}}))

	failures := EvaluateAssertions(r, []Assertion{{Type: AssertTimelineOrder, Refs: []string{"yellow", "off"}}})
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0], "yellow (pos 2) should be before off (pos 1)")

	failures = EvaluateAssertions(r, []Assertion{{Type: AssertTimelineOrder, Refs: []string{"off", "nope"}}})
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0], "missing ref: nope")
}

func TestAssertGoal(t *testing.T) {
	r := testResult()
	g := match.Goal{ID: "ev-3", MatchID: "m1", Minute: 60, Scorer: "b1", Sequence: 1, StateAtGoal: match.StateDrawing}
	r.timeline = append(r.timeline, g)
	r.refs["g"] = "ev-3"

	assert.Empty(t, EvaluateAssertions(r, []Assertion{{Type: AssertGoal, Ref: "g", Sequence: 1, State: "drawing"}}))

	failures := EvaluateAssertions(r, []Assertion{{Type: AssertGoal, Ref: "g", Sequence: 2, State: "winning"}})
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0], `#1 while "drawing"`)
}

func TestAssertStatsSettled(t *testing.T) {
	r := testResult()
	r.jobs = append(r.jobs, recalc.Job{ID: "job-2", Status: recalc.StatusFailed, LastError: "boom"})
	failures := EvaluateAssertions(r, []Assertion{{Type: AssertStatsSettled}})
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0], "job job-2 is failed (boom)")

	r = testResult()
	r.stored = []match.PlayerStats{{PlayerID: "p1", Minutes: 90}}
	failures = EvaluateAssertions(r, []Assertion{{Type: AssertStatsSettled}})
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0], "stored stats")

	r = testResult()
	r.jobs = nil
	r.stored = nil
	assert.Empty(t, EvaluateAssertions(r, []Assertion{{Type: AssertStatsSettled}}))
}

func TestSummarize_Goals(t *testing.T) {
	assert.Equal(t, "goal p9 (assist p10)", Summarize(match.Goal{Scorer: "p9", Assister: "p10"}))
	assert.Equal(t, "opponent goal", Summarize(match.Goal{Opponent: true}))
	assert.Equal(t, "own_goal", Summarize(match.Goal{GoalKind: match.GoalOwnGoal}))
	assert.Equal(t, "second yellow card p4", Summarize(match.Card{Player: "p4", CardKind: match.CardSecondYellow}))
}
