package engine

import (
	"slices"

	"github.com/roach88/touchline/internal/match"
)

// Timeline is the chronologically ordered projection of one match's events.
type Timeline []match.Event

// BuildTimeline merges goals, cards and substitutions into a Timeline.
//
// The result is ordered by minute, then recorded timestamp, then kind and
// event ID, so that any permutation of the same inputs yields the same
// timeline. Empty inputs produce an empty, non-nil timeline.
func BuildTimeline(goals []match.Goal, cards []match.Card, subs []match.Substitution) Timeline {
	tl := make(Timeline, 0, len(goals)+len(cards)+len(subs))
	for _, g := range goals {
		tl = append(tl, g)
	}
	for _, c := range cards {
		tl = append(tl, c)
	}
	for _, s := range subs {
		tl = append(tl, s)
	}

	slices.SortStableFunc(tl, func(a, b match.Event) int {
		switch {
		case match.Before(a, b):
			return -1
		case match.Before(b, a):
			return 1
		}
		return 0
	})
	return tl
}

// Without returns a copy of the timeline with the given event removed.
// Used when validating an update so the event does not conflict with its
// own previous version.
func (tl Timeline) Without(eventID string) Timeline {
	if eventID == "" {
		return tl
	}
	out := make(Timeline, 0, len(tl))
	for _, ev := range tl {
		if ev.EventID() != eventID {
			out = append(out, ev)
		}
	}
	return out
}

// Until returns the prefix of events at or before minute.
func (tl Timeline) Until(minute int) Timeline {
	i := 0
	for i < len(tl) && tl[i].EventMinute() <= minute {
		i++
	}
	return tl[:i]
}

// After returns the events strictly after minute.
func (tl Timeline) After(minute int) Timeline {
	return tl[len(tl.Until(minute)):]
}

// Sorted reports whether the timeline respects timeline order.
func (tl Timeline) Sorted() bool {
	for i := 1; i < len(tl); i++ {
		if match.Before(tl[i], tl[i-1]) {
			return false
		}
	}
	return true
}
