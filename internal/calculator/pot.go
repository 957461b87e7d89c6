// Package calculator derives display figures from participant balances.
package calculator

import (
	"fmt"
	"sort"
)

// Balance is the minimal participant information needed for pot calculations.
type Balance struct {
	UserID          string
	Username        string
	AccumulatedFine int64
}

// Standing is one row of the group leaderboard.
type Standing struct {
	UserID          string
	Username        string
	AccumulatedFine int64

	// Share is the participant's fraction of the pot in percent, 0 when the
	// pot is empty.
	Share float64

	// Rank is 1 for the largest fine. Equal fines share a rank.
	Rank int
}

// Summary is the pot and leaderboard of a group.
type Summary struct {
	// Pot is the sum of every accumulated fine. It is derived, never stored.
	Pot       int64
	Standings []Standing
}

// Summarize computes the pot and ranks participants by accumulated fine,
// largest first, ties broken by username.
//
// Algorithm:
// - Pot = sum of balances
// - Sort descending by fine, then ascending by name and id
// - Dense ranking: the rank increases only when the fine changes
func Summarize(balances []Balance) (*Summary, error) {
	summary := &Summary{Standings: make([]Standing, 0, len(balances))}

	seen := make(map[string]bool, len(balances))
	for _, b := range balances {
		if b.AccumulatedFine < 0 {
			return nil, fmt.Errorf("negative balance for %s: %d", b.Username, b.AccumulatedFine)
		}
		if seen[b.UserID] {
			return nil, fmt.Errorf("duplicate participant %s", b.UserID)
		}
		seen[b.UserID] = true

		summary.Pot += b.AccumulatedFine
		summary.Standings = append(summary.Standings, Standing{
			UserID:          b.UserID,
			Username:        b.Username,
			AccumulatedFine: b.AccumulatedFine,
		})
	}

	sort.SliceStable(summary.Standings, func(i, j int) bool {
		a, b := summary.Standings[i], summary.Standings[j]
		if a.AccumulatedFine != b.AccumulatedFine {
			return a.AccumulatedFine > b.AccumulatedFine
		}
		if a.Username != b.Username {
			return a.Username < b.Username
		}
		return a.UserID < b.UserID
	})

	rank := 0
	for i := range summary.Standings {
		s := &summary.Standings[i]
		if i == 0 || s.AccumulatedFine != summary.Standings[i-1].AccumulatedFine {
			rank++
		}
		s.Rank = rank
		if summary.Pot > 0 {
			s.Share = float64(s.AccumulatedFine) * 100 / float64(summary.Pot)
		}
	}

	return summary, nil
}
