package match

import (
	"slices"
	"time"
)

// Minute bounds for every event. Minutes above 90 cover stoppage and
// extra time.
const (
	MinMinute = 1
	MaxMinute = 120
)

// EventKind distinguishes the three event variants.
type EventKind string

const (
	KindGoal         EventKind = "goal"
	KindCard         EventKind = "card"
	KindSubstitution EventKind = "substitution"
)

// rank orders kinds for the final timeline tie-break.
func (k EventKind) rank() int {
	switch k {
	case KindGoal:
		return 1
	case KindCard:
		return 2
	case KindSubstitution:
		return 3
	}
	return 0
}

// Event is implemented by Goal, Card and Substitution only.
//
// Callers switch on the concrete type:
//
//	switch ev := e.(type) {
//	case Goal:
//	case Card:
//	case Substitution:
//	}
type Event interface {
	EventID() string
	Match() string
	Kind() EventKind
	EventMinute() int
	Recorded() time.Time
	// Involves reports whether the player takes part in the event in any role.
	Involves(playerID string) bool

	isEvent()
}

// Before reports whether a precedes b in timeline order: minute, then
// recorded timestamp, then kind and ID so that identical timestamps still
// produce a total order.
func Before(a, b Event) bool {
	if a.EventMinute() != b.EventMinute() {
		return a.EventMinute() < b.EventMinute()
	}
	if !a.Recorded().Equal(b.Recorded()) {
		return a.Recorded().Before(b.Recorded())
	}
	if a.Kind() != b.Kind() {
		return a.Kind().rank() < b.Kind().rank()
	}
	return a.EventID() < b.EventID()
}

// Goal is a goal for or against the team.
type Goal struct {
	ID           string
	MatchID      string
	Minute       int
	Scorer       string   // empty for own goals and opponent goals
	Assister     string   // optional
	Contributors []string // auxiliary contributors, never scorer or assister
	Opponent     bool     // goal belongs to the opposing team
	GoalKind     GoalKind
	RecordedAt   time.Time

	// Derived once the match is finalized; zero values until then.
	Sequence    int
	StateAtGoal MatchState
}

func (g Goal) EventID() string     { return g.ID }
func (g Goal) Match() string       { return g.MatchID }
func (g Goal) Kind() EventKind     { return KindGoal }
func (g Goal) EventMinute() int    { return g.Minute }
func (g Goal) Recorded() time.Time { return g.RecordedAt }
func (Goal) isEvent()              {}

func (g Goal) Involves(playerID string) bool {
	if playerID == "" {
		return false
	}
	return g.Scorer == playerID || g.Assister == playerID || slices.Contains(g.Contributors, playerID)
}

// Card is a disciplinary sanction.
type Card struct {
	ID         string
	MatchID    string
	Minute     int
	Player     string
	CardKind   CardKind
	Reason     string
	RecordedAt time.Time
}

func (c Card) EventID() string     { return c.ID }
func (c Card) Match() string       { return c.MatchID }
func (c Card) Kind() EventKind     { return KindCard }
func (c Card) EventMinute() int    { return c.Minute }
func (c Card) Recorded() time.Time { return c.RecordedAt }
func (Card) isEvent()              {}

func (c Card) Involves(playerID string) bool {
	return playerID != "" && c.Player == playerID
}

// Substitution swaps PlayerOut for PlayerIn.
type Substitution struct {
	ID         string
	MatchID    string
	Minute     int
	PlayerOut  string
	PlayerIn   string
	Reason     SubReason
	State      MatchState
	Note       string
	RecordedAt time.Time
}

func (s Substitution) EventID() string     { return s.ID }
func (s Substitution) Match() string       { return s.MatchID }
func (s Substitution) Kind() EventKind     { return KindSubstitution }
func (s Substitution) EventMinute() int    { return s.Minute }
func (s Substitution) Recorded() time.Time { return s.RecordedAt }
func (Substitution) isEvent()              {}

func (s Substitution) Involves(playerID string) bool {
	return playerID != "" && (s.PlayerOut == playerID || s.PlayerIn == playerID)
}
