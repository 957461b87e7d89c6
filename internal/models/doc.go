// Package models defines the core domain models for multas.
//
// # Models
//
//   - User: registered account, identified by a unique username
//   - Group: a weekly accountability group with an admin, a steward (encargado)
//     and a base fine that every defaulter pays when a week closes
//   - Participant: a user's membership in a group, carrying the accumulated fine
//   - Evidence: proof submitted for a week, reviewed by the steward
//   - Challenge: a wager between two participants, resolved by the steward
//   - ClosedWeek: marker that a week has already been settled for a group
//   - LogEntry: append-only audit trail shown in the group log
//
// # Conventions
//
//  1. Relationships use ID strings, never pointers.
//  2. Timestamps are Unix seconds (UTC).
//  3. Money is stored as whole currency units (int64) so ledger sums stay exact.
//  4. Display names copied onto rows (Participant.Username, Challenge names,
//     Evidence.Username) are snapshots taken at creation time and are never
//     updated on rename.
package models
