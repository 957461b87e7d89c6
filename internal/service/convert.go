package service

import (
	"github.com/mmynk/multas/internal/calculator"
	"github.com/mmynk/multas/internal/models"
)

func toUser(u *models.User) *User {
	return &User{ID: u.ID, Username: u.Username, Email: u.Email, CreatedAt: u.CreatedAt}
}

func toGroup(g *models.Group) *Group {
	return &Group{
		ID:                g.ID,
		Name:              g.Name,
		Code:              g.Code,
		AdminID:           g.AdminID,
		EncargadoID:       g.EncargadoID,
		CurrentFineAmount: g.CurrentFineAmount,
		CreatedAt:         g.CreatedAt,
	}
}

func toParticipant(p *models.Participant) *Participant {
	return &Participant{
		UserID:           p.UserID,
		GroupID:          p.GroupID,
		Username:         p.Username,
		AccumulatedFine:  p.AccumulatedFine,
		CurrentObjective: p.CurrentObjective,
		HasWildcard:      p.HasWildcard,
	}
}

func toStanding(s calculator.Standing) *Standing {
	return &Standing{
		UserID:          s.UserID,
		Username:        s.Username,
		AccumulatedFine: s.AccumulatedFine,
		Share:           s.Share,
		Rank:            s.Rank,
	}
}

func toEvidence(e *models.Evidence) *Evidence {
	return &Evidence{
		ID:            e.ID,
		GroupID:       e.GroupID,
		UserID:        e.UserID,
		Username:      e.Username,
		WeekID:        e.WeekID,
		Description:   e.Description,
		AttachmentRef: e.AttachmentRef,
		Status:        string(e.Status),
		Timestamp:     e.Timestamp,
	}
}

func toChallenge(c *models.Challenge) *Challenge {
	return &Challenge{
		ID:             c.ID,
		GroupID:        c.GroupID,
		ChallengerID:   c.ChallengerID,
		ChallengerName: c.ChallengerName,
		ChallengedID:   c.ChallengedID,
		ChallengedName: c.ChallengedName,
		Description:    c.Description,
		FineAmount:     c.FineAmount,
		Status:         string(c.Status),
		CreatedAt:      c.CreatedAt,
	}
}

func toLogEntry(l *models.LogEntry) *LogEntry {
	return &LogEntry{
		ID:        l.ID,
		GroupID:   l.GroupID,
		Message:   l.Message,
		Type:      string(l.Type),
		Timestamp: l.Timestamp,
	}
}

// convertAll maps a slice, returning an empty (not nil) slice so lists
// always encode as JSON arrays.
func convertAll[T, U any](in []T, f func(T) U) []U {
	out := make([]U, len(in))
	for i, v := range in {
		out[i] = f(v)
	}
	return out
}
