// Package store provides SQLite-backed durable storage for match data.
//
// The store holds:
//   - Games: match metadata and status
//   - Roster entries: squad status per (match, player), plus minutes and
//     appearance written back by recalculation
//   - Events: goals, cards and substitutions
//   - Player stats: per-player minutes, goals and assists
//   - Recalc jobs: the durable recalculation queue
//
// Store implements engine.Source and recalc.Queue.
//
// # Deterministic Query Results
//
// Event reads are ordered by minute, recorded_at, then id COLLATE BINARY.
// Roster and stats reads are ordered by player_id. Slice results are never
// nil.
//
// # Time
//
// Timestamps are stored as INTEGER unix milliseconds and read back in UTC.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
