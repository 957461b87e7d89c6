package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/multas/internal/groups"
)

// EvidenceService implements the Connect EvidenceService.
type EvidenceService struct {
	groups *groups.Manager
	logger *slog.Logger
}

// NewEvidenceService creates a new EvidenceService.
func NewEvidenceService(manager *groups.Manager, logger *slog.Logger) *EvidenceService {
	return &EvidenceService{groups: manager, logger: orDefault(logger)}
}

// SubmitEvidence records evidence from the caller for the current week.
func (s *EvidenceService) SubmitEvidence(ctx context.Context, req *connect.Request[SubmitEvidenceRequest]) (*connect.Response[EvidenceResponse], error) {
	actor, err := actorID(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("SubmitEvidence request received", "group_id", req.Msg.GroupID, "user_id", actor)

	e, err := s.groups.SubmitEvidence(ctx, actor, req.Msg.GroupID, req.Msg.Description, req.Msg.AttachmentRef)
	if err != nil {
		s.logger.Error("SubmitEvidence failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&EvidenceResponse{Evidence: toEvidence(e)}), nil
}

// ListEvidence returns the group's evidence, newest first.
func (s *EvidenceService) ListEvidence(ctx context.Context, req *connect.Request[ListEvidenceRequest]) (*connect.Response[ListEvidenceResponse], error) {
	actor, err := actorID(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.groups.ListEvidence(ctx, actor, req.Msg.GroupID)
	if err != nil {
		s.logger.Error("ListEvidence failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ListEvidenceResponse{Evidence: convertAll(list, toEvidence)}), nil
}

// ReviewEvidence approves or rejects pending evidence.
func (s *EvidenceService) ReviewEvidence(ctx context.Context, req *connect.Request[ReviewEvidenceRequest]) (*connect.Response[EvidenceResponse], error) {
	actor, err := actorID(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("ReviewEvidence request received", "evidence_id", req.Msg.EvidenceID, "approve", req.Msg.Approve)

	e, err := s.groups.ReviewEvidence(ctx, actor, req.Msg.EvidenceID, req.Msg.Approve)
	if err != nil {
		s.logger.Error("ReviewEvidence failed", "evidence_id", req.Msg.EvidenceID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&EvidenceResponse{Evidence: toEvidence(e)}), nil
}
