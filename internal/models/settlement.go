package models

// ClosedWeek marks that settlement already ran for a week in a group.
// Its existence is the idempotency guard for week closing.
type ClosedWeek struct {
	GroupID string

	// WeekID is the ISO week identifier, e.g. "2025-W01".
	WeekID string

	// ClosedAt is the Unix timestamp when the week was settled.
	ClosedAt int64
}

// WeekSettlement is the outcome of a week-closing attempt.
type WeekSettlement struct {
	// Processed is false when the week was already closed, when another
	// closer won the race, or when the group did not exist for the whole week.
	Processed bool

	// WeekID is set when Processed is true.
	WeekID string

	// Defaulters lists the user IDs that were fined.
	Defaulters []string

	// FineAmount is the per-defaulter fine that was applied.
	FineAmount int64
}
