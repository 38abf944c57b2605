package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/touchline/internal/match"
)

// EventSource reads the three event collections of a match.
// Implementations return events with player references already resolved to
// stable player IDs.
type EventSource interface {
	Goals(ctx context.Context, matchID string) ([]match.Goal, error)
	Cards(ctx context.Context, matchID string) ([]match.Card, error)
	Substitutions(ctx context.Context, matchID string) ([]match.Substitution, error)
}

// RosterSource reads the squad of a match.
type RosterSource interface {
	Roster(ctx context.Context, matchID string) ([]match.RosterEntry, error)
}

// GameSource reads match metadata.
type GameSource interface {
	Game(ctx context.Context, matchID string) (match.Game, error)
}

// Source is everything the engine reads. store.Store implements it.
type Source interface {
	EventSource
	RosterSource
	GameSource
}

// Engine answers timeline, eligibility and minutes queries for matches.
//
// Engine holds no per-match state. Every call rebuilds the timeline from the
// source, so it is safe for concurrent use across matches.
type Engine struct {
	src    Source
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for warnings (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an Engine reading from src.
func New(src Source, opts ...Option) *Engine {
	e := &Engine{
		src:    src,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Timeline fetches and merges all events of a match.
func (e *Engine) Timeline(ctx context.Context, matchID string) (Timeline, error) {
	goals, err := e.src.Goals(ctx, matchID)
	if err != nil {
		return nil, storeErr("goals", matchID, err)
	}
	cards, err := e.src.Cards(ctx, matchID)
	if err != nil {
		return nil, storeErr("cards", matchID, err)
	}
	subs, err := e.src.Substitutions(ctx, matchID)
	if err != nil {
		return nil, storeErr("substitutions", matchID, err)
	}
	return BuildTimeline(goals, cards, subs), nil
}

// CheckOption adjusts a single validation call.
type CheckOption func(*checkConfig)

type checkConfig struct {
	exclude string
}

// Excluding drops the event with the given ID from the timeline before
// checking. Pass the ID of the event being updated so its old version does
// not take part in the decision.
func Excluding(eventID string) CheckOption {
	return func(c *checkConfig) {
		c.exclude = eventID
	}
}

// snapshot is the per-request view shared by the validators: the timeline
// and the lineup, each built once.
type snapshot struct {
	timeline Timeline
	lineup   Lineup
}

func (e *Engine) snapshot(ctx context.Context, matchID string, opts []CheckOption) (snapshot, error) {
	var cfg checkConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	tl, err := e.Timeline(ctx, matchID)
	if err != nil {
		return snapshot{}, err
	}
	roster, err := e.src.Roster(ctx, matchID)
	if err != nil {
		return snapshot{}, storeErr("roster", matchID, err)
	}
	return snapshot{
		timeline: tl.Without(cfg.exclude),
		lineup:   NewLineup(roster),
	}, nil
}

func (s snapshot) state(playerID string, minute int) match.PlayerState {
	return StateAt(s.timeline, playerID, minute, s.lineup)
}
