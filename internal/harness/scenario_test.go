package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: minimal
description: "one substitution"
match:
  id: m1
roster:
  starting: [p1, p2]
  bench: [b1]
flow:
  - op: substitution
    ref: s
    minute: 10
    out: p1
    in: b1
assertions:
  - type: minutes
    player: p1
    minutes: 10
`

func TestParseScenario_Minimal(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	assert.Equal(t, "m1", s.Match.ID)
	assert.Equal(t, []string{"p1", "p2"}, s.Roster.Starting)
	require.Len(t, s.Flow, 1)
	assert.Equal(t, OpSubstitution, s.Flow[0].Op)
	assert.Equal(t, "b1", s.Flow[0].In)
	require.Len(t, s.Assertions, 1)
	require.NotNil(t, s.Assertions[0].Minutes)
	assert.Equal(t, 10, *s.Assertions[0].Minutes)
}

func TestParseScenario_UnknownFieldRejected(t *testing.T) {
	src := minimalScenario + "flow_token: x\n"
	_, err := ParseScenario([]byte(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flow_token")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		contains string
	}{
		{
			name:     "missing name",
			src:      "description: d\nmatch: {id: m1}\nroster: {starting: [p1]}\nassertions: [{type: stats_settled}]\n",
			contains: "name is required",
		},
		{
			name:     "missing roster",
			src:      "name: n\ndescription: d\nmatch: {id: m1}\nassertions: [{type: stats_settled}]\n",
			contains: "roster.starting",
		},
		{
			name: "unknown op",
			src: `name: n
description: d
match: {id: m1}
roster: {starting: [p1]}
flow: [{op: penalty_shootout}]
assertions: [{type: stats_settled}]
`,
			contains: "unknown op",
		},
		{
			name: "delete of unknown ref",
			src: `name: n
description: d
match: {id: m1}
roster: {starting: [p1]}
flow: [{op: delete, target: ghost}]
assertions: [{type: stats_settled}]
`,
			contains: "unknown target",
		},
		{
			name: "reason without rejection",
			src: `name: n
description: d
match: {id: m1}
roster: {starting: [p1]}
flow: [{op: card, minute: 3, player: p1, card: yellow, reason: "x"}]
assertions: [{type: stats_settled}]
`,
			contains: "reason requires",
		},
		{
			name: "minutes without value",
			src: `name: n
description: d
match: {id: m1}
roster: {starting: [p1]}
assertions: [{type: minutes, player: p1}]
`,
			contains: "requires player and minutes",
		},
		{
			name: "assertion ref unknown",
			src: `name: n
description: d
match: {id: m1}
roster: {starting: [p1]}
assertions: [{type: timeline_order, refs: [a, b]}]
`,
			contains: "unknown ref",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenarios_SortedByFileName(t *testing.T) {
	dir := t.TempDir()
	write := func(file, name string) {
		src := []byte("name: " + name + "\ndescription: d\nmatch: {id: m1}\nroster: {starting: [p1]}\nassertions: [{type: stats_settled}]\n")
		require.NoError(t, os.WriteFile(filepath.Join(dir, file), src, 0o644))
	}
	write("b.yaml", "second")
	write("a.yaml", "first")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	scenarios, err := LoadScenarios(dir)
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "first", scenarios[0].Name)
	assert.Equal(t, "second", scenarios[1].Name)
}

func TestLoadScenarios_ReportsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: [\n"), 0o644))

	_, err := LoadScenarios(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.yaml")
}
