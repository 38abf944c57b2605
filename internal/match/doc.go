// Package match provides the domain types for a single match: the three
// event kinds (goal, card, substitution), the roster, game metadata and the
// closed enumerations shared by every other package.
//
// This package contains type definitions and field-level validation only.
// All other internal packages import match; match imports nothing internal.
//
// Key design constraints:
//   - Event is a closed sum type: only Goal, Card and Substitution implement it
//   - Every tag field (card kind, goal kind, reasons, states) is a closed enum
//     with a Parse function; unknown strings are rejected
//   - Minutes are whole numbers in [MinMinute, MaxMinute]
//   - Recorded timestamps are used only to break ties between events that
//     share a minute
package match
