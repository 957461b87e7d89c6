package models

// Group is a recurring accountability group.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group.
	Name string

	// Code is the unique invite code other users join with.
	Code string

	// AdminID is the user who created the group. It never changes.
	AdminID string

	// EncargadoID is the current steward: the participant allowed to review
	// evidence, change the base fine and resolve challenges. It always
	// references a current participant of the group.
	EncargadoID string

	// CurrentFineAmount is the base fine charged to each defaulter when a week
	// closes. Week closing always uses the value in effect at settlement time.
	CurrentFineAmount int64

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// DefaultFineAmount is the base fine a new group starts with.
const DefaultFineAmount int64 = 500

// MaxFineAmount bounds any single amount a user can set: the group fine, a
// challenge wager or an admin correction.
const MaxFineAmount int64 = 1_000_000_000

// Participant is a user's membership in a group.
type Participant struct {
	UserID  string
	GroupID string

	// Username is a snapshot of the user's name at join time.
	Username string

	// AccumulatedFine only grows through settlement; the admin may correct it
	// explicitly.
	AccumulatedFine int64

	CurrentObjective string

	// HasWildcard is the semestral exemption token. It is stored and shown but
	// nothing in settlement consumes it.
	HasWildcard bool

	JoinedAt int64
}
