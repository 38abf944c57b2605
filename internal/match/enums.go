package match

import "fmt"

// CardKind is the disciplinary sanction carried by a Card.
type CardKind string

const (
	CardYellow       CardKind = "yellow"
	CardRed          CardKind = "red"
	CardSecondYellow CardKind = "second_yellow"
)

// ParseCardKind converts a stored or client-supplied string to a CardKind.
func ParseCardKind(s string) (CardKind, error) {
	switch k := CardKind(s); k {
	case CardYellow, CardRed, CardSecondYellow:
		return k, nil
	}
	return "", fmt.Errorf("unknown card kind %q", s)
}

// Terminating reports whether the card removes the player from the match.
func (k CardKind) Terminating() bool {
	switch k {
	case CardRed, CardSecondYellow:
		return true
	case CardYellow:
		return false
	}
	return false
}

// String returns a readable label used in rejection messages.
func (k CardKind) String() string {
	switch k {
	case CardYellow:
		return "yellow card"
	case CardRed:
		return "red card"
	case CardSecondYellow:
		return "second yellow card"
	}
	return string(k)
}

// GoalKind classifies how a goal was scored.
type GoalKind string

const (
	GoalOpenPlay GoalKind = "open_play"
	GoalSetPiece GoalKind = "set_piece"
	GoalPenalty  GoalKind = "penalty"
	GoalCounter  GoalKind = "counter"
	GoalOwnGoal  GoalKind = "own_goal"
)

// ParseGoalKind converts a string to a GoalKind.
func ParseGoalKind(s string) (GoalKind, error) {
	switch k := GoalKind(s); k {
	case GoalOpenPlay, GoalSetPiece, GoalPenalty, GoalCounter, GoalOwnGoal:
		return k, nil
	}
	return "", fmt.Errorf("unknown goal kind %q", s)
}

// SubReason tags why a substitution was made.
type SubReason string

const (
	SubTactical     SubReason = "tactical"
	SubInjury       SubReason = "injury"
	SubFatigue      SubReason = "fatigue"
	SubDisciplinary SubReason = "disciplinary"
	SubOther        SubReason = "other"
)

// ParseSubReason converts a string to a SubReason.
func ParseSubReason(s string) (SubReason, error) {
	switch r := SubReason(s); r {
	case SubTactical, SubInjury, SubFatigue, SubDisciplinary, SubOther:
		return r, nil
	}
	return "", fmt.Errorf("unknown substitution reason %q", s)
}

// MatchState is the team's standing at a moment of the match.
type MatchState string

const (
	StateWinning MatchState = "winning"
	StateDrawing MatchState = "drawing"
	StateLosing  MatchState = "losing"
)

// ParseMatchState converts a string to a MatchState.
func ParseMatchState(s string) (MatchState, error) {
	switch st := MatchState(s); st {
	case StateWinning, StateDrawing, StateLosing:
		return st, nil
	}
	return "", fmt.Errorf("unknown match state %q", s)
}

// SquadStatus is a player's roster classification for one match.
type SquadStatus string

const (
	SquadStarting    SquadStatus = "starting_lineup"
	SquadBench       SquadStatus = "bench"
	SquadUnavailable SquadStatus = "unavailable"
	SquadNotInSquad  SquadStatus = "not_in_squad"
)

// ParseSquadStatus converts a string to a SquadStatus.
func ParseSquadStatus(s string) (SquadStatus, error) {
	switch st := SquadStatus(s); st {
	case SquadStarting, SquadBench, SquadUnavailable, SquadNotInSquad:
		return st, nil
	}
	return "", fmt.Errorf("unknown squad status %q", s)
}

// InSquad reports whether the status makes the player available to play.
func (s SquadStatus) InSquad() bool {
	switch s {
	case SquadStarting, SquadBench:
		return true
	case SquadUnavailable, SquadNotInSquad:
		return false
	}
	return false
}

// PlayerState is the derived state of a player at a given minute.
// It is never stored.
type PlayerState string

const (
	PlayerNotInSquad     PlayerState = "NOT_IN_SQUAD"
	PlayerBench          PlayerState = "BENCH"
	PlayerOnPitch        PlayerState = "ON_PITCH"
	PlayerSubstitutedOut PlayerState = "SUBSTITUTED_OUT"
	PlayerSentOff        PlayerState = "SENT_OFF"
)

// Describe returns the phrase used in rejection messages ("on bench").
func (s PlayerState) Describe() string {
	switch s {
	case PlayerNotInSquad:
		return "not in squad"
	case PlayerBench:
		return "on bench"
	case PlayerOnPitch:
		return "on pitch"
	case PlayerSubstitutedOut:
		return "substituted out"
	case PlayerSentOff:
		return "sent off"
	}
	return string(s)
}

// MatchStatus is the lifecycle status of a game.
type MatchStatus string

const (
	StatusScheduled  MatchStatus = "scheduled"
	StatusInProgress MatchStatus = "in_progress"
	StatusPlayed     MatchStatus = "played"
	StatusDone       MatchStatus = "done"
)

// ParseMatchStatus converts a string to a MatchStatus.
func ParseMatchStatus(s string) (MatchStatus, error) {
	switch st := MatchStatus(s); st {
	case StatusScheduled, StatusInProgress, StatusPlayed, StatusDone:
		return st, nil
	}
	return "", fmt.Errorf("unknown match status %q", s)
}

// Finalized reports whether the match result is settled.
func (s MatchStatus) Finalized() bool {
	return s == StatusPlayed || s == StatusDone
}

// CanTransition reports whether a game may move from s to next.
func (s MatchStatus) CanTransition(next MatchStatus) bool {
	switch s {
	case StatusScheduled:
		return next == StatusInProgress
	case StatusInProgress:
		return next == StatusPlayed || next == StatusDone
	case StatusPlayed:
		return next == StatusDone
	case StatusDone:
		return false
	}
	return false
}
