// Package harness runs match scenarios end to end.
//
// A scenario sets up one match and roster, applies a flow of event
// mutations through events.Service, drains the recalculation queue with a
// real Worker, and then checks assertions against the resulting timeline,
// player states, minutes and jobs.
//
// # Scenario Format
//
//	name: rolling_reentry
//	description: "A substituted player comes back on"
//	match:
//	  id: m1
//	  stoppage: 0
//	roster:
//	  starting: [p1, p2, p3, p4, p5, p6, p7, p8, p9, p10, p11]
//	  bench: [b1]
//	flow:
//	  - op: substitution
//	    ref: off
//	    minute: 30
//	    out: p1
//	    in: b1
//	  - op: card
//	    minute: 40
//	    player: p1
//	    card: red
//	    expect: rejected
//	    reason: "not in the match squad"
//	assertions:
//	  - type: minutes
//	    player: p1
//	    minutes: 30
//
// Steps are accepted unless they say otherwise. Each step advances the
// recording clock by one second; "recorded" pins it to a number of
// seconds after kickoff, which is how ties are staged.
//
// # Assertion Types
//
//   - minutes: the player's calculated minutes
//   - state: the player's state at a minute
//   - timeline_order: the listed refs appear in this order in the timeline
//   - timeline_count: number of events in the timeline
//   - goal: the derived sequence and match state of a referenced goal
//   - jobs: number of jobs in a status
//   - stats_settled: every job completed and the stored stats equal a
//     fresh calculation
//
// # Deterministic Testing
//
// Runs use an in-memory database, a manual clock and sequential IDs, so
// snapshots are byte-identical across runs and can be compared with golden
// files (see RunWithGolden).
package harness
