package models

// ChallengeStatus is the lifecycle state of a challenge.
type ChallengeStatus string

const (
	ChallengePending                ChallengeStatus = "PENDING"
	ChallengeAccepted               ChallengeStatus = "ACCEPTED"
	ChallengeRejected               ChallengeStatus = "REJECTED"
	ChallengeCompletedChallengerWon ChallengeStatus = "COMPLETED_CHALLENGER_WON"
	ChallengeCompletedChallengedWon ChallengeStatus = "COMPLETED_CHALLENGED_WON"
)

var challengeTransitions = map[ChallengeStatus][]ChallengeStatus{
	ChallengePending:  {ChallengeAccepted, ChallengeRejected},
	ChallengeAccepted: {ChallengeCompletedChallengerWon, ChallengeCompletedChallengedWon},
}

// CanTransition reports whether a challenge may move from s to next.
func (s ChallengeStatus) CanTransition(next ChallengeStatus) bool {
	for _, allowed := range challengeTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s ChallengeStatus) Terminal() bool {
	return len(challengeTransitions[s]) == 0
}

// Challenge is a wager between two participants of the same group.
type Challenge struct {
	ID      string
	GroupID string

	ChallengerID   string
	ChallengerName string
	ChallengedID   string
	ChallengedName string

	Description string

	// FineAmount is the wager the loser pays.
	FineAmount int64

	Status ChallengeStatus

	CreatedAt int64
}

// Loser returns the party that is not winnerID, and false if winnerID is
// neither party.
func (c *Challenge) Loser(winnerID string) (id, name string, ok bool) {
	switch winnerID {
	case c.ChallengerID:
		return c.ChallengedID, c.ChallengedName, true
	case c.ChallengedID:
		return c.ChallengerID, c.ChallengerName, true
	default:
		return "", "", false
	}
}

// CompletedStatus returns the terminal status for the given winner.
func (c *Challenge) CompletedStatus(winnerID string) ChallengeStatus {
	if winnerID == c.ChallengerID {
		return ChallengeCompletedChallengerWon
	}
	return ChallengeCompletedChallengedWon
}
