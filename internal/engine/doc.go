// Package engine implements the match-event consistency engine.
//
// The engine turns the unordered goal, card and substitution records of one
// match into a timeline and derives everything else from it:
//
//   - BuildTimeline merges the three event collections into a total order
//     (minute, recorded timestamp, kind, id).
//   - StateAt replays the timeline up to a minute and yields a PlayerState.
//   - ValidateGoal, ValidateSubstitution and ValidateCard decide whether a
//     new event is legal given the derived states.
//   - ValidateFutureConsistency rejects a terminating event (red card,
//     second yellow, substitution off) that would contradict events already
//     recorded later for the same player.
//   - Minutes converts the timeline into per-player minutes played using
//     session intervals.
//
// # Recomputation Contract
//
// The timeline is never cached or persisted. Every Engine call fetches the
// three collections from the store and rebuilds it, so a validation always
// sees the latest committed events. The pure functions (BuildTimeline,
// StateAt, Minutes, DeriveGoalFacts) take their inputs explicitly and have no
// side effects: the same inputs always produce the same output, which is
// what makes recalculation jobs safe to retry.
//
// # Errors
//
// Business-rule violations are reported as a Verdict with Valid=false and a
// human-readable Reason. Store failures are returned as *StoreError and never
// folded into a Verdict.
package engine
