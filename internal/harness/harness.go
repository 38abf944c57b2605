package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/touchline/internal/engine"
	"github.com/roach88/touchline/internal/events"
	"github.com/roach88/touchline/internal/match"
	"github.com/roach88/touchline/internal/recalc"
	"github.com/roach88/touchline/internal/store"
	"github.com/roach88/touchline/internal/testutil"
)

// Kickoff is the clock origin of every run.
var Kickoff = time.Date(2026, 1, 1, 15, 0, 0, 0, time.UTC)

// maxDrain bounds the jobs processed after the flow.
const maxDrain = 1000

var errMissingTarget = errors.New("target was never created")

// Harness is the test execution engine for one scenario run.
// It wires the event service, the engine and the worker to a fresh store.
type Harness struct {
	store   *store.Store
	engine  *engine.Engine
	service *events.Service
	worker  *recalc.Worker
	clock   *testutil.ManualClock
	logger  *slog.Logger
	matchID string
	latest  time.Time
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create the match and start it with the roster
// 2. Apply each flow step through the event service
// 3. Drain the recalculation queue
// 4. Collect timeline, stats and jobs and evaluate assertions
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := newHarness(st, scenario.Match.ID)
	result := NewResult()

	if err := h.setup(ctx, scenario); err != nil {
		return nil, fmt.Errorf("failed to set up match: %w", err)
	}
	for i, step := range scenario.Flow {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("flow step %d (%s): %w", i, step.Op, err)
		}
	}
	if err := h.drain(ctx); err != nil {
		return nil, fmt.Errorf("failed to drain queue: %w", err)
	}
	if err := h.collect(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to collect results: %w", err)
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func newHarness(st *store.Store, matchID string) *Harness {
	logger := slog.New(slog.DiscardHandler) // Suppress logs in tests
	clock := testutil.NewManualClock(Kickoff)
	eng := engine.New(st, engine.WithLogger(logger))

	sub := recalc.NewSubmitter(st,
		recalc.WithIDs(testutil.NewSequentialIDs("job")),
		recalc.WithSubmitClock(clock),
		recalc.WithSubmitLogger(logger),
	)
	svc := events.New(st, sub,
		events.WithChecker(eng),
		events.WithIDs(testutil.NewSequentialIDs("ev")),
		events.WithClock(clock),
		events.WithLogger(logger),
	)
	worker := recalc.NewWorker(st,
		recalc.WithWorkerClock(clock),
		recalc.WithWorkerLogger(logger),
	)
	worker.Handle(recalc.KindRecalcMinutes, recalc.NewMinutesHandler(eng, st))

	return &Harness{
		store:   st,
		engine:  eng,
		service: svc,
		worker:  worker,
		clock:   clock,
		logger:  logger,
		matchID: matchID,
		latest:  Kickoff,
	}
}

func (h *Harness) setup(ctx context.Context, s *Scenario) error {
	err := h.service.CreateGame(ctx, match.Game{
		ID:                s.Match.ID,
		RegulationMinutes: s.Match.Regulation,
		StoppageMinutes:   s.Match.Stoppage,
		ExtraTime:         s.Match.ExtraTime,
	})
	if err != nil {
		return err
	}
	return h.service.StartMatch(ctx, s.Match.ID, s.Roster.Entries())
}

// executeStep applies one step and records its outcome. Business
// rejections are outcomes; any other error aborts the run.
func (h *Harness) executeStep(ctx context.Context, i int, step FlowStep, result *Result) error {
	h.tick(step.Recorded)

	trace := StepTrace{Step: i, Op: step.Op, Ref: step.Ref}
	id, err := h.apply(ctx, step, result)
	var rejected *events.RejectedError
	switch {
	case errors.Is(err, errMissingTarget):
		result.AddError(fmt.Sprintf("flow[%d] %s: target %q was never created", i, step.Op, step.Target))
		return nil
	case err == nil:
		trace.Outcome = ExpectAccepted
		trace.EventID = id
		if step.Ref != "" && id != "" {
			result.refs[step.Ref] = id
		}
	case errors.As(err, &rejected):
		trace.Outcome = ExpectRejected
		trace.Reason = rejected.Reason
	default:
		return err
	}
	result.Trace = append(result.Trace, trace)

	want := step.Expect
	if want == "" {
		want = ExpectAccepted
	}
	if trace.Outcome != want {
		msg := fmt.Sprintf("flow[%d] %s: expected %s, got %s", i, step.Op, want, trace.Outcome)
		if trace.Reason != "" {
			msg += ": " + trace.Reason
		}
		result.AddError(msg)
		return nil
	}
	if step.ReasonContains != "" && !containsFold(trace.Reason, step.ReasonContains) {
		result.AddError(fmt.Sprintf("flow[%d] %s: rejection %q does not mention %q", i, step.Op, trace.Reason, step.ReasonContains))
	}

	h.logger.Info("flow step completed",
		"step", i,
		"op", step.Op,
		"outcome", trace.Outcome,
	)
	return nil
}

func (h *Harness) tick(recorded *int) {
	if recorded != nil {
		h.clock.Set(Kickoff.Add(time.Duration(*recorded) * time.Second))
	} else {
		h.clock.Advance(time.Second)
	}
	if now := h.clock.Now(); now.After(h.latest) {
		h.latest = now
	}
}

func (h *Harness) apply(ctx context.Context, step FlowStep, result *Result) (string, error) {
	svc := h.service
	switch step.Op {
	case OpGoal:
		kind := match.GoalKind(step.GoalKind)
		if kind == "" {
			kind = match.GoalOpenPlay
		}
		g, err := svc.CreateGoal(ctx, match.Goal{
			MatchID:      h.matchID,
			Minute:       step.Minute,
			Scorer:       step.Scorer,
			Assister:     step.Assister,
			Contributors: step.Contributors,
			Opponent:     step.Opponent,
			GoalKind:     kind,
		})
		return g.ID, err

	case OpCard:
		c, err := svc.CreateCard(ctx, match.Card{
			MatchID:  h.matchID,
			Minute:   step.Minute,
			Player:   step.Player,
			CardKind: match.CardKind(step.Card),
			Reason:   step.Reason,
		})
		return c.ID, err

	case OpSubstitution:
		sub, err := svc.CreateSubstitution(ctx, match.Substitution{
			MatchID:   h.matchID,
			Minute:    step.Minute,
			PlayerOut: step.Out,
			PlayerIn:  step.In,
			Reason:    match.SubTactical,
			State:     match.StateDrawing,
		})
		return sub.ID, err

	case OpMove:
		id, ok := result.refs[step.Target]
		if !ok {
			return "", errMissingTarget
		}
		return id, h.move(ctx, id, step.Minute)

	case OpDelete:
		id, ok := result.refs[step.Target]
		if !ok {
			return "", errMissingTarget
		}
		return id, h.remove(ctx, id)

	case OpTransition:
		return "", svc.TransitionMatch(ctx, h.matchID, match.MatchStatus(step.Status))

	case OpTiming:
		return "", svc.SetTiming(ctx, h.matchID, step.Stoppage, step.ExtraTime)
	}
	return "", fmt.Errorf("unknown op %q", step.Op)
}

// move changes the minute of an existing event, whatever its kind.
func (h *Harness) move(ctx context.Context, id string, minute int) error {
	if g, err := h.store.Goal(ctx, id); err == nil {
		g.Minute = minute
		g.Sequence, g.StateAtGoal = 0, ""
		_, err = h.service.UpdateGoal(ctx, g)
		return err
	}
	if c, err := h.store.Card(ctx, id); err == nil {
		c.Minute = minute
		_, err = h.service.UpdateCard(ctx, c)
		return err
	}
	sub, err := h.store.Substitution(ctx, id)
	if err != nil {
		return err
	}
	sub.Minute = minute
	_, err = h.service.UpdateSubstitution(ctx, sub)
	return err
}

func (h *Harness) remove(ctx context.Context, id string) error {
	if _, err := h.store.Goal(ctx, id); err == nil {
		return h.service.DeleteGoal(ctx, h.matchID, id)
	}
	if _, err := h.store.Card(ctx, id); err == nil {
		return h.service.DeleteCard(ctx, h.matchID, id)
	}
	return h.service.DeleteSubstitution(ctx, h.matchID, id)
}

// drain runs every due job. The clock moves past the latest submission so
// jobs recorded under a pinned clock are due too.
func (h *Harness) drain(ctx context.Context) error {
	h.clock.Set(h.latest.Add(time.Minute))
	for range maxDrain {
		ok, err := h.worker.RunOnce(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
	return fmt.Errorf("queue not empty after %d jobs", maxDrain)
}

func (h *Harness) collect(ctx context.Context, result *Result) error {
	tl, err := h.engine.Timeline(ctx, h.matchID)
	if err != nil {
		return err
	}
	roster, err := h.store.Roster(ctx, h.matchID)
	if err != nil {
		return err
	}
	computed, err := h.engine.PlayerStats(ctx, h.matchID)
	if err != nil {
		return err
	}
	stored, err := h.store.PlayerStats(ctx, h.matchID)
	if err != nil {
		return err
	}
	jobs, err := h.store.List(ctx, recalc.Filter{MatchID: h.matchID})
	if err != nil {
		return err
	}

	result.timeline = tl
	result.lineup = engine.NewLineup(roster)
	result.stored = stored
	result.jobs = jobs
	result.Players = computed

	for _, ev := range tl {
		result.Timeline = append(result.Timeline, TimelineEntry{
			Minute:  ev.EventMinute(),
			Kind:    string(ev.Kind()),
			ID:      ev.EventID(),
			Ref:     result.refOf(ev.EventID()),
			Summary: Summarize(ev),
		})
	}
	for _, j := range jobs {
		result.Jobs = append(result.Jobs, JobLine{ID: j.ID, Status: string(j.Status), RetryCount: j.RetryCount})
	}
	return nil
}

// Summarize describes an event in one line, e.g. "p1 off, b1 on".
func Summarize(ev match.Event) string {
	switch e := ev.(type) {
	case match.Goal:
		var s string
		switch {
		case e.Opponent:
			s = "opponent goal"
		case e.Scorer == "":
			s = string(e.GoalKind)
		default:
			s = "goal " + e.Scorer
		}
		if e.Assister != "" {
			s += " (assist " + e.Assister + ")"
		}
		return s
	case match.Card:
		return e.CardKind.String() + " " + e.Player
	case match.Substitution:
		return e.PlayerOut + " off, " + e.PlayerIn + " on"
	}
	return ""
}
