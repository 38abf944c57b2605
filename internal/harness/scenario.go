package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/touchline/internal/match"
)

// Scenario is one match played through the event service.
type Scenario struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Match       MatchSetup  `yaml:"match"`
	Roster      RosterSetup `yaml:"roster"`
	Flow        []FlowStep  `yaml:"flow"`
	Assertions  []Assertion `yaml:"assertions"`
}

// MatchSetup describes the game metadata.
type MatchSetup struct {
	ID         string `yaml:"id"`
	Regulation int    `yaml:"regulation,omitempty"`
	Stoppage   int    `yaml:"stoppage,omitempty"`
	ExtraTime  bool   `yaml:"extra_time,omitempty"`
}

// RosterSetup lists player IDs per squad status.
type RosterSetup struct {
	Starting    []string `yaml:"starting"`
	Bench       []string `yaml:"bench,omitempty"`
	Unavailable []string `yaml:"unavailable,omitempty"`
	NotInSquad  []string `yaml:"not_in_squad,omitempty"`
}

// Entries returns the roster entries, starters first.
func (r RosterSetup) Entries() []match.RosterEntry {
	var entries []match.RosterEntry
	add := func(ids []string, status match.SquadStatus) {
		for _, id := range ids {
			entries = append(entries, match.RosterEntry{PlayerID: id, Status: status})
		}
	}
	add(r.Starting, match.SquadStarting)
	add(r.Bench, match.SquadBench)
	add(r.Unavailable, match.SquadUnavailable)
	add(r.NotInSquad, match.SquadNotInSquad)
	return entries
}

// FlowStep is one mutation. Which fields apply depends on Op.
type FlowStep struct {
	Op string `yaml:"op"`

	// Ref names the created event for later steps and assertions. Target
	// is the ref a move or delete applies to.
	Ref    string `yaml:"ref,omitempty"`
	Target string `yaml:"target,omitempty"`

	// Recorded pins the recording clock, in seconds after kickoff.
	Minute   int  `yaml:"minute,omitempty"`
	Recorded *int `yaml:"recorded,omitempty"`

	// card
	Player string `yaml:"player,omitempty"`
	Card   string `yaml:"card,omitempty"`
	Reason string `yaml:"card_reason,omitempty"`

	// substitution
	Out string `yaml:"out,omitempty"`
	In  string `yaml:"in,omitempty"`

	// goal
	Scorer       string   `yaml:"scorer,omitempty"`
	Assister     string   `yaml:"assister,omitempty"`
	Contributors []string `yaml:"contributors,omitempty"`
	Opponent     bool     `yaml:"opponent,omitempty"`
	GoalKind     string   `yaml:"goal_kind,omitempty"`

	// transition
	Status string `yaml:"status,omitempty"`

	// timing
	Stoppage  int  `yaml:"stoppage,omitempty"`
	ExtraTime bool `yaml:"extra_time,omitempty"`

	// Expect is "accepted" (default) or "rejected". ReasonContains must
	// appear in the rejection message.
	Expect         string `yaml:"expect,omitempty"`
	ReasonContains string `yaml:"reason,omitempty"`
}

// Assertion checks the final state of a run. Which fields apply depends
// on Type.
type Assertion struct {
	Type string `yaml:"type"`

	Player   string   `yaml:"player,omitempty"`
	Minute   int      `yaml:"minute,omitempty"`
	Ref      string   `yaml:"ref,omitempty"`
	Refs     []string `yaml:"refs,omitempty"`
	Status   string   `yaml:"status,omitempty"`
	Minutes  *int     `yaml:"minutes,omitempty"`
	State    string   `yaml:"state,omitempty"`
	Count    *int     `yaml:"count,omitempty"`
	Sequence int      `yaml:"sequence,omitempty"`
}

// Step operations.
const (
	OpGoal         = "goal"
	OpCard         = "card"
	OpSubstitution = "substitution"
	OpMove         = "move"
	OpDelete       = "delete"
	OpTransition   = "transition"
	OpTiming       = "timing"
)

// Step expectations.
const (
	ExpectAccepted = "accepted"
	ExpectRejected = "rejected"
)

// Assertion type constants.
const (
	AssertMinutes       = "minutes"
	AssertState         = "state"
	AssertTimelineOrder = "timeline_order"
	AssertTimelineCount = "timeline_count"
	AssertGoal          = "goal"
	AssertJobs          = "jobs"
	AssertStatsSettled  = "stats_settled"
)

var knownOps = []string{OpGoal, OpCard, OpSubstitution, OpMove, OpDelete, OpTransition, OpTiming}

var knownAssertions = []string{
	AssertMinutes, AssertState, AssertTimelineOrder, AssertTimelineCount,
	AssertGoal, AssertJobs, AssertStatsSettled,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field checking.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("scan scenarios: %w", err)
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Match.ID == "" {
		return fmt.Errorf("match.id is required")
	}
	if len(s.Roster.Starting) == 0 {
		return fmt.Errorf("roster.starting is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	refs := make(map[string]bool)
	for i, step := range s.Flow {
		if !slices.Contains(knownOps, step.Op) {
			return fmt.Errorf("flow[%d]: unknown op %q", i, step.Op)
		}
		switch step.Expect {
		case "", ExpectAccepted, ExpectRejected:
		default:
			return fmt.Errorf("flow[%d]: expect must be %q or %q", i, ExpectAccepted, ExpectRejected)
		}
		if step.ReasonContains != "" && step.Expect != ExpectRejected {
			return fmt.Errorf("flow[%d]: reason requires expect: rejected", i)
		}
		switch step.Op {
		case OpMove, OpDelete:
			if step.Target == "" {
				return fmt.Errorf("flow[%d]: %s requires target", i, step.Op)
			}
			if !refs[step.Target] {
				return fmt.Errorf("flow[%d]: unknown target %q", i, step.Target)
			}
		case OpTransition:
			if step.Status == "" {
				return fmt.Errorf("flow[%d]: transition requires status", i)
			}
		}
		if step.Ref != "" {
			if refs[step.Ref] {
				return fmt.Errorf("flow[%d]: duplicate ref %q", i, step.Ref)
			}
			refs[step.Ref] = true
		}
	}

	for i, a := range s.Assertions {
		if !slices.Contains(knownAssertions, a.Type) {
			return fmt.Errorf("assertions[%d]: unknown type %q", i, a.Type)
		}
		switch a.Type {
		case AssertMinutes:
			if a.Player == "" || a.Minutes == nil {
				return fmt.Errorf("assertions[%d]: minutes requires player and minutes", i)
			}
		case AssertState:
			if a.Player == "" || a.Minute == 0 || a.State == "" {
				return fmt.Errorf("assertions[%d]: state requires player, minute and state", i)
			}
		case AssertTimelineOrder:
			if len(a.Refs) < 2 {
				return fmt.Errorf("assertions[%d]: timeline_order requires at least two refs", i)
			}
		case AssertTimelineCount, AssertJobs:
			if a.Count == nil {
				return fmt.Errorf("assertions[%d]: %s requires count", i, a.Type)
			}
		case AssertGoal:
			if a.Ref == "" || a.Sequence == 0 || a.State == "" {
				return fmt.Errorf("assertions[%d]: goal requires ref, sequence and state", i)
			}
		}
		for _, ref := range append(a.Refs, a.Ref) {
			if ref != "" && !refs[ref] {
				return fmt.Errorf("assertions[%d]: unknown ref %q", i, ref)
			}
		}
	}
	return nil
}
