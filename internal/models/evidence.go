package models

// EvidenceStatus is the review state of an evidence row.
type EvidenceStatus string

const (
	EvidencePending  EvidenceStatus = "PENDING"
	EvidenceApproved EvidenceStatus = "APPROVED"
	EvidenceRejected EvidenceStatus = "REJECTED"
)

// Evidence is proof a participant submits for a given week.
// Only the existence of at least one APPROVED row for a week matters to
// week closing.
type Evidence struct {
	ID       string
	GroupID  string
	UserID   string
	Username string

	// WeekID is the week the evidence counts toward.
	WeekID string

	Description string

	// AttachmentRef is an opaque reference to an uploaded image, if any.
	AttachmentRef string

	Status EvidenceStatus

	// Timestamp is the Unix time of submission.
	Timestamp int64
}
