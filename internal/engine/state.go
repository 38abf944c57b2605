package engine

import (
	"slices"

	"github.com/roach88/touchline/internal/match"
)

// Lineup is the roster view the state machine needs: who started and who
// is in the squad at all. Build it once per request with NewLineup.
type Lineup struct {
	squad map[string]match.SquadStatus
}

// NewLineup indexes roster entries by player.
func NewLineup(entries []match.RosterEntry) Lineup {
	l := Lineup{squad: make(map[string]match.SquadStatus, len(entries))}
	for _, e := range entries {
		l.squad[e.PlayerID] = e.Status
	}
	return l
}

// Status returns the player's squad status; players without a roster entry
// are not in the squad.
func (l Lineup) Status(playerID string) match.SquadStatus {
	if st, ok := l.squad[playerID]; ok {
		return st
	}
	return match.SquadNotInSquad
}

// InSquad reports whether the player is available (starting or bench).
func (l Lineup) InSquad(playerID string) bool {
	return l.Status(playerID).InSquad()
}

// Starting reports whether the player is in the starting lineup.
func (l Lineup) Starting(playerID string) bool {
	return l.Status(playerID) == match.SquadStarting
}

// Starters returns the starting lineup sorted by player ID.
func (l Lineup) Starters() []string {
	return l.withStatus(func(st match.SquadStatus) bool { return st == match.SquadStarting })
}

// Players returns every rostered player sorted by player ID.
func (l Lineup) Players() []string {
	return l.withStatus(func(match.SquadStatus) bool { return true })
}

func (l Lineup) withStatus(keep func(match.SquadStatus) bool) []string {
	ids := make([]string, 0, len(l.squad))
	for id, st := range l.squad {
		if keep(st) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// StateAt replays the timeline up to and including minute and returns the
// player's state.
//
// Starters begin ON_PITCH, bench players BENCH; anyone else is NOT_IN_SQUAD
// and no event changes that. Events are applied in timeline order, so when
// a substitution and a red card share a minute the one recorded first wins.
//
// StateAt is pure: the same inputs always yield the same state.
func StateAt(tl Timeline, playerID string, minute int, lineup Lineup) match.PlayerState {
	var state match.PlayerState
	switch {
	case lineup.Starting(playerID):
		state = match.PlayerOnPitch
	case lineup.InSquad(playerID):
		state = match.PlayerBench
	default:
		return match.PlayerNotInSquad
	}

	for _, ev := range tl {
		if ev.EventMinute() > minute {
			break
		}
		state = apply(state, ev, playerID)
	}
	return state
}

// apply is one transition of the player state machine.
func apply(state match.PlayerState, ev match.Event, playerID string) match.PlayerState {
	switch e := ev.(type) {
	case match.Substitution:
		if state == match.PlayerSentOff {
			return state
		}
		if e.PlayerOut == playerID && state == match.PlayerOnPitch {
			return match.PlayerSubstitutedOut
		}
		if e.PlayerIn == playerID && (state == match.PlayerBench || state == match.PlayerSubstitutedOut) {
			return match.PlayerOnPitch
		}
	case match.Card:
		if e.Player == playerID && e.CardKind.Terminating() {
			return match.PlayerSentOff
		}
	case match.Goal:
	}
	return state
}
