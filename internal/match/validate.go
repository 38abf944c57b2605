package match

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Free-text limits, counted in runes after NFC normalization.
const (
	MaxCardReasonLen = 200
	MaxSubNoteLen    = 500
)

// FieldError reports a malformed event field. It is a business rejection:
// the message is safe to show to the end user.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func fieldErr(field, format string, args ...any) *FieldError {
	return &FieldError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NormalizeText trims and NFC-normalizes free text so that visually equal
// strings store identically and length limits count characters consistently.
func NormalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func validateMinute(minute int) error {
	if minute < MinMinute || minute > MaxMinute {
		return fieldErr("minute", "must be between %d and %d, got %d", MinMinute, MaxMinute, minute)
	}
	return nil
}

func validateText(field, s string, limit int) error {
	if n := utf8.RuneCountInString(s); n > limit {
		return fieldErr(field, "must be at most %d characters, got %d", limit, n)
	}
	return nil
}

// Normalize returns a copy with free text normalized.
func (c Card) Normalize() Card {
	c.Reason = NormalizeText(c.Reason)
	return c
}

// Validate checks the card's own fields. Match-state rules live in the engine.
func (c Card) Validate() error {
	if c.MatchID == "" {
		return fieldErr("match_id", "is required")
	}
	if err := validateMinute(c.Minute); err != nil {
		return err
	}
	if c.Player == "" {
		return fieldErr("player", "is required")
	}
	if _, err := ParseCardKind(string(c.CardKind)); err != nil {
		return fieldErr("card_kind", "%v", err)
	}
	return validateText("reason", c.Reason, MaxCardReasonLen)
}

// Normalize returns a copy with free text normalized.
func (s Substitution) Normalize() Substitution {
	s.Note = NormalizeText(s.Note)
	return s
}

// Validate checks the substitution's own fields.
func (s Substitution) Validate() error {
	if s.MatchID == "" {
		return fieldErr("match_id", "is required")
	}
	if err := validateMinute(s.Minute); err != nil {
		return err
	}
	if s.PlayerOut == "" {
		return fieldErr("player_out", "is required")
	}
	if s.PlayerIn == "" {
		return fieldErr("player_in", "is required")
	}
	if s.PlayerOut == s.PlayerIn {
		return fieldErr("player_in", "must differ from player_out")
	}
	if _, err := ParseSubReason(string(s.Reason)); err != nil {
		return fieldErr("reason", "%v", err)
	}
	if _, err := ParseMatchState(string(s.State)); err != nil {
		return fieldErr("match_state", "%v", err)
	}
	return validateText("note", s.Note, MaxSubNoteLen)
}

// Validate checks the goal's own fields. Sequence and StateAtGoal are
// derived and must not be supplied.
func (g Goal) Validate() error {
	if g.MatchID == "" {
		return fieldErr("match_id", "is required")
	}
	if err := validateMinute(g.Minute); err != nil {
		return err
	}
	if _, err := ParseGoalKind(string(g.GoalKind)); err != nil {
		return fieldErr("goal_kind", "%v", err)
	}
	if g.Sequence != 0 || g.StateAtGoal != "" {
		return fieldErr("sequence", "is derived and cannot be supplied")
	}
	if g.Assister != "" && g.Assister == g.Scorer {
		return fieldErr("assister", "must differ from scorer")
	}
	seen := make(map[string]bool, len(g.Contributors))
	for _, c := range g.Contributors {
		switch {
		case c == "":
			return fieldErr("contributors", "must not contain empty player ids")
		case c == g.Scorer || c == g.Assister:
			return fieldErr("contributors", "player %s is already scorer or assister", c)
		case seen[c]:
			return fieldErr("contributors", "player %s listed twice", c)
		}
		seen[c] = true
	}
	return nil
}
