package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/multas/internal/groups"
	"github.com/mmynk/multas/internal/settlement"
)

// ChallengeService implements the Connect ChallengeService.
type ChallengeService struct {
	groups *groups.Manager
	engine *settlement.Engine
	logger *slog.Logger
}

// NewChallengeService creates a new ChallengeService.
func NewChallengeService(manager *groups.Manager, engine *settlement.Engine, logger *slog.Logger) *ChallengeService {
	return &ChallengeService{groups: manager, engine: engine, logger: orDefault(logger)}
}

// CreateChallenge challenges another participant on behalf of the caller.
func (s *ChallengeService) CreateChallenge(ctx context.Context, req *connect.Request[CreateChallengeRequest]) (*connect.Response[ChallengeResponse], error) {
	actor, err := actorID(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("CreateChallenge request",
		"group_id", req.Msg.GroupID,
		"challenger_id", actor,
		"challenged_id", req.Msg.ChallengedID,
		"fine_amount", req.Msg.FineAmount,
	)

	if err := s.groups.RequireMember(ctx, actor, req.Msg.GroupID); err != nil {
		return nil, toConnectError(err)
	}
	c, err := s.engine.CreateChallenge(ctx, req.Msg.GroupID, actor, req.Msg.ChallengedID, req.Msg.Description, req.Msg.FineAmount)
	if err != nil {
		s.logger.Error("CreateChallenge failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ChallengeResponse{Challenge: toChallenge(c)}), nil
}

// ListChallenges returns the group's challenges, newest first.
func (s *ChallengeService) ListChallenges(ctx context.Context, req *connect.Request[ListChallengesRequest]) (*connect.Response[ListChallengesResponse], error) {
	actor, err := actorID(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.groups.ListChallenges(ctx, actor, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ListChallengesResponse{Challenges: convertAll(list, toChallenge)}), nil
}

// RespondToChallenge accepts or rejects a challenge addressed to the caller.
func (s *ChallengeService) RespondToChallenge(ctx context.Context, req *connect.Request[RespondToChallengeRequest]) (*connect.Response[ChallengeResponse], error) {
	actor, err := actorID(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("RespondToChallenge request", "challenge_id", req.Msg.ChallengeID, "accept", req.Msg.Accept)

	c, err := s.engine.RespondToChallenge(ctx, req.Msg.ChallengeID, actor, req.Msg.Accept)
	if err != nil {
		s.logger.Warn("RespondToChallenge failed", "challenge_id", req.Msg.ChallengeID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ChallengeResponse{Challenge: toChallenge(c)}), nil
}

// ResolveChallenge names the winner of an accepted challenge; the loser pays.
func (s *ChallengeService) ResolveChallenge(ctx context.Context, req *connect.Request[ResolveChallengeRequest]) (*connect.Response[ChallengeResponse], error) {
	actor, err := actorID(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("ResolveChallenge request", "challenge_id", req.Msg.ChallengeID, "winner_id", req.Msg.WinnerID)

	c, err := s.engine.ResolveChallenge(ctx, req.Msg.ChallengeID, actor, req.Msg.WinnerID)
	if err != nil {
		s.logger.Warn("ResolveChallenge failed", "challenge_id", req.Msg.ChallengeID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ChallengeResponse{Challenge: toChallenge(c)}), nil
}
