// Package events is the write path for match events.
//
// Every mutation runs under the match's lock: field validation, then the
// eligibility validators against the current timeline, then the
// future-consistency guard for new terminating events, then the write,
// then a recalculation job when the change can affect derived stats.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/touchline/internal/engine"
	"github.com/roach88/touchline/internal/ids"
	"github.com/roach88/touchline/internal/lock"
	"github.com/roach88/touchline/internal/match"
)

// Store is the persistence the service writes through. store.Store
// implements it.
type Store interface {
	engine.Source

	CreateGame(ctx context.Context, g match.Game, now time.Time) error
	StartMatch(ctx context.Context, matchID string, roster []match.RosterEntry) error
	FinalizeMatch(ctx context.Context, matchID string, from, to match.MatchStatus, facts []engine.GoalFact) error
	UpdateTiming(ctx context.Context, matchID string, stoppage int, extraTime bool) error
	SaveGoalFacts(ctx context.Context, matchID string, facts []engine.GoalFact) error

	Goal(ctx context.Context, id string) (match.Goal, error)
	InsertGoal(ctx context.Context, g match.Goal) error
	UpdateGoal(ctx context.Context, g match.Goal) error
	DeleteGoal(ctx context.Context, matchID, id string) error

	Card(ctx context.Context, id string) (match.Card, error)
	InsertCard(ctx context.Context, c match.Card) error
	UpdateCard(ctx context.Context, c match.Card) error
	DeleteCard(ctx context.Context, matchID, id string) error

	Substitution(ctx context.Context, id string) (match.Substitution, error)
	InsertSubstitution(ctx context.Context, s match.Substitution) error
	UpdateSubstitution(ctx context.Context, s match.Substitution) error
	DeleteSubstitution(ctx context.Context, matchID, id string) error
}

// Checker answers the read-side questions a mutation needs.
// engine.Engine implements it.
type Checker interface {
	Timeline(ctx context.Context, matchID string) (engine.Timeline, error)
	ValidateGoal(ctx context.Context, matchID string, g engine.GoalCheck, opts ...engine.CheckOption) (engine.Verdict, error)
	ValidateSubstitution(ctx context.Context, matchID string, s engine.SubstitutionCheck, opts ...engine.CheckOption) (engine.Verdict, error)
	ValidateCard(ctx context.Context, matchID string, c engine.CardCheck, opts ...engine.CheckOption) (engine.Verdict, error)
	ValidateFutureConsistency(ctx context.Context, matchID string, c engine.Candidate, opts ...engine.CheckOption) (engine.Verdict, error)
}

// RecalcSubmitter enqueues recalculation. recalc.Submitter implements it.
type RecalcSubmitter interface {
	SubmitRecalcJob(ctx context.Context, matchID string)
}

// Clock supplies the recorded timestamp of new events.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Service validates and applies event mutations.
type Service struct {
	store   Store
	checker Checker
	recalc  RecalcSubmitter
	locker  lock.Locker
	ids     ids.Generator
	clock   Clock
	logger  *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithChecker replaces the default engine built on the store.
func WithChecker(c Checker) Option {
	return func(s *Service) {
		s.checker = c
	}
}

// WithLocker sets the per-match locker (default: in-process).
func WithLocker(l lock.Locker) Option {
	return func(s *Service) {
		s.locker = l
	}
}

// WithIDs sets the event ID generator (default: UUIDv7).
func WithIDs(g ids.Generator) Option {
	return func(s *Service) {
		s.ids = g
	}
}

// WithClock sets the clock stamping new events and games.
func WithClock(c Clock) Option {
	return func(s *Service) {
		s.clock = c
	}
}

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// New creates a Service writing to st and submitting jobs through sub.
func New(st Store, sub RecalcSubmitter, opts ...Option) *Service {
	s := &Service{
		store:  st,
		recalc: sub,
		locker: lock.NewMemoryLocker(),
		ids:    ids.UUIDv7{},
		clock:  systemClock{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.checker == nil {
		s.checker = engine.New(st, engine.WithLogger(s.logger))
	}
	return s
}

// withMatch runs fn while holding the match lock.
func (s *Service) withMatch(ctx context.Context, op, matchID string, fn func() error) error {
	unlock, err := s.locker.Lock(ctx, matchID)
	if err != nil {
		return fmt.Errorf("%s: lock match %s: %w", op, matchID, err)
	}
	defer unlock()
	return fn()
}

// editableGame loads the match and rejects mutations outside
// in_progress and played.
func (s *Service) editableGame(ctx context.Context, op, matchID string) (match.Game, error) {
	g, err := s.store.Game(ctx, matchID)
	if err != nil {
		return match.Game{}, fmt.Errorf("%s: %w", op, err)
	}
	switch g.Status {
	case match.StatusInProgress, match.StatusPlayed:
		return g, nil
	case match.StatusScheduled:
		return match.Game{}, reject(op, "match %s has not started", matchID)
	default:
		return match.Game{}, reject(op, "match %s is closed", matchID)
	}
}

// verdict converts a validator result into an error.
func verdict(op string, v engine.Verdict, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !v.Valid {
		return reject(op, "%s", v.Reason)
	}
	return nil
}

// submit enqueues a recalculation. Failures are logged by the submitter
// and never reach the caller.
func (s *Service) submit(ctx context.Context, matchID string) {
	if s.recalc == nil {
		return
	}
	s.recalc.SubmitRecalcJob(ctx, matchID)
}
