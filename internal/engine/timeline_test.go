package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/touchline/internal/match"
)

func TestBuildTimeline_Empty(t *testing.T) {
	tl := BuildTimeline(nil, nil, nil)
	require.NotNil(t, tl, "empty match yields an empty timeline, not nil")
	assert.Len(t, tl, 0)
}

func TestBuildTimeline_SortedByMinuteThenTimestamp(t *testing.T) {
	goals := []match.Goal{goal("g1", 70, "p9", "", 1), goal("g2", 10, "p10", "", 50)}
	cards := []match.Card{card("c1", 50, "p4", match.CardYellow, 20)}
	subs := []match.Substitution{sub("s1", 50, "p2", "b1", 10), sub("s2", 46, "p3", "b2", 5)}

	tl := BuildTimeline(goals, cards, subs)

	require.Len(t, tl, 5)
	assert.True(t, tl.Sorted())
	ids := make([]string, len(tl))
	for i, ev := range tl {
		ids[i] = ev.EventID()
	}
	assert.Equal(t, []string{"g2", "s2", "s1", "c1", "g1"}, ids,
		"s1 and c1 share minute 50; s1 was recorded first")
}

func TestBuildTimeline_PermutationInvariant(t *testing.T) {
	subs := []match.Substitution{
		sub("s1", 30, "p1", "b1", 3),
		sub("s2", 30, "p2", "b2", 3),
		sub("s3", 60, "p3", "b3", 1),
	}
	reversed := []match.Substitution{subs[2], subs[1], subs[0]}

	a := BuildTimeline(nil, nil, subs)
	b := BuildTimeline(nil, nil, reversed)

	assert.Equal(t, a, b, "identical inputs in any order produce the same timeline")
}

func TestTimeline_WithoutUntilAfter(t *testing.T) {
	tl := BuildTimeline(
		[]match.Goal{goal("g1", 20, "p9", "", 1)},
		[]match.Card{card("c1", 40, "p4", match.CardRed, 2)},
		[]match.Substitution{sub("s1", 60, "p2", "b1", 3)},
	)

	assert.Len(t, tl.Without("c1"), 2)
	assert.Len(t, tl.Without(""), 3)
	assert.Len(t, tl, 3, "Without does not modify the receiver")

	assert.Len(t, tl.Until(40), 2, "Until includes the boundary minute")
	after := tl.After(40)
	require.Len(t, after, 1)
	assert.Equal(t, "s1", after[0].EventID())
}
