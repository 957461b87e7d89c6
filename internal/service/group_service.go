package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/multas/internal/groups"
	"github.com/mmynk/multas/internal/settlement"
)

// GroupService implements the Connect GroupService.
type GroupService struct {
	groups *groups.Manager
	engine *settlement.Engine
	logger *slog.Logger
}

// NewGroupService creates a new GroupService.
func NewGroupService(manager *groups.Manager, engine *settlement.Engine, logger *slog.Logger) *GroupService {
	return &GroupService{groups: manager, engine: engine, logger: orDefault(logger)}
}

// CreateGroup creates a new group owned by the caller.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[CreateGroupRequest]) (*connect.Response[GroupResponse], error) {
	actor, err := actorID(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("CreateGroup request received", "name", req.Msg.Name, "user_id", actor)

	group, err := s.groups.CreateGroup(ctx, actor, req.Msg.Name)
	if err != nil {
		s.logger.Error("CreateGroup failed", "error", err)
		return nil, toConnectError(err)
	}

	s.logger.Info("Group created", "group_id", group.ID)
	return connect.NewResponse(&GroupResponse{Group: toGroup(group)}), nil
}

// JoinGroup adds the caller to the group with the given invite code.
func (s *GroupService) JoinGroup(ctx context.Context, req *connect.Request[JoinGroupRequest]) (*connect.Response[GroupResponse], error) {
	actor, err := actorID(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("JoinGroup request received", "code", req.Msg.Code, "user_id", actor)

	group, err := s.groups.JoinGroup(ctx, actor, req.Msg.Code)
	if err != nil {
		s.logger.Error("JoinGroup failed", "code", req.Msg.Code, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GroupResponse{Group: toGroup(group)}), nil
}

// ListGroups retrieves the caller's groups.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[ListGroupsRequest]) (*connect.Response[ListGroupsResponse], error) {
	actor, err := actorID(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.groups.ListGroups(ctx, actor)
	if err != nil {
		s.logger.Error("ListGroups failed", "error", err)
		return nil, toConnectError(err)
	}

	s.logger.Info("ListGroups successful", "count", len(list))
	return connect.NewResponse(&ListGroupsResponse{Groups: convertAll(list, toGroup)}), nil
}

// GetGroup retrieves a group by ID.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[GetGroupRequest]) (*connect.Response[GroupResponse], error) {
	actor, err := actorID(ctx)
	if err != nil {
		return nil, err
	}

	group, err := s.groups.GetGroup(ctx, actor, req.Msg.GroupID)
	if err != nil {
		s.logger.Error("GetGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GroupResponse{Group: toGroup(group)}), nil
}

// UpdateFineAmount changes the group's base fine.
func (s *GroupService) UpdateFineAmount(ctx context.Context, req *connect.Request[UpdateFineAmountRequest]) (*connect.Response[GroupResponse], error) {
	actor, err := actorID(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("UpdateFineAmount request received", "group_id", req.Msg.GroupID, "amount", req.Msg.Amount)

	group, err := s.groups.UpdateFineAmount(ctx, actor, req.Msg.GroupID, req.Msg.Amount)
	if err != nil {
		s.logger.Error("UpdateFineAmount failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GroupResponse{Group: toGroup(group)}), nil
}

// ChangeEncargado hands the steward role to another participant.
func (s *GroupService) ChangeEncargado(ctx context.Context, req *connect.Request[ChangeEncargadoRequest]) (*connect.Response[GroupResponse], error) {
	actor, err := actorID(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("ChangeEncargado request received", "group_id", req.Msg.GroupID, "user_id", req.Msg.UserID)

	group, err := s.groups.ChangeEncargado(ctx, actor, req.Msg.GroupID, req.Msg.UserID)
	if err != nil {
		s.logger.Error("ChangeEncargado failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GroupResponse{Group: toGroup(group)}), nil
}

// GetGroupSummary returns participants, pot and standings.
func (s *GroupService) GetGroupSummary(ctx context.Context, req *connect.Request[GetGroupSummaryRequest]) (*connect.Response[GetGroupSummaryResponse], error) {
	actor, err := actorID(ctx)
	if err != nil {
		return nil, err
	}

	summary, err := s.groups.GetSummary(ctx, actor, req.Msg.GroupID)
	if err != nil {
		s.logger.Error("GetGroupSummary failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&GetGroupSummaryResponse{
		Group:        toGroup(summary.Group),
		Participants: convertAll(summary.Participants, toParticipant),
		Pot:          summary.Pot.Pot,
		Standings:    convertAll(summary.Pot.Standings, toStanding),
	}), nil
}

// ListParticipants returns the participants of a group.
func (s *GroupService) ListParticipants(ctx context.Context, req *connect.Request[ListParticipantsRequest]) (*connect.Response[ListParticipantsResponse], error) {
	actor, err := actorID(ctx)
	if err != nil {
		return nil, err
	}

	participants, err := s.groups.ListParticipants(ctx, actor, req.Msg.GroupID)
	if err != nil {
		s.logger.Error("ListParticipants failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ListParticipantsResponse{Participants: convertAll(participants, toParticipant)}), nil
}

// UpdateObjective sets a participant's weekly objective.
func (s *GroupService) UpdateObjective(ctx context.Context, req *connect.Request[UpdateObjectiveRequest]) (*connect.Response[ParticipantResponse], error) {
	actor, err := actorID(ctx)
	if err != nil {
		return nil, err
	}

	p, err := s.groups.UpdateObjective(ctx, actor, req.Msg.GroupID, req.Msg.UserID, req.Msg.Objective)
	if err != nil {
		s.logger.Error("UpdateObjective failed", "group_id", req.Msg.GroupID, "user_id", req.Msg.UserID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ParticipantResponse{Participant: toParticipant(p)}), nil
}

// AdjustFine overwrites a participant's accumulated fine.
func (s *GroupService) AdjustFine(ctx context.Context, req *connect.Request[AdjustFineRequest]) (*connect.Response[ParticipantResponse], error) {
	actor, err := actorID(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("AdjustFine request received", "group_id", req.Msg.GroupID, "user_id", req.Msg.UserID, "amount", req.Msg.Amount)

	p, err := s.groups.AdjustFine(ctx, actor, req.Msg.GroupID, req.Msg.UserID, req.Msg.Amount)
	if err != nil {
		s.logger.Error("AdjustFine failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ParticipantResponse{Participant: toParticipant(p)}), nil
}

// CloseWeekIfDue settles the previous week of the group if nobody did yet.
// The web client calls it every time a group is opened.
func (s *GroupService) CloseWeekIfDue(ctx context.Context, req *connect.Request[CloseWeekIfDueRequest]) (*connect.Response[CloseWeekIfDueResponse], error) {
	actor, err := actorID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.groups.RequireMember(ctx, actor, req.Msg.GroupID); err != nil {
		return nil, toConnectError(err)
	}

	result, err := s.engine.CloseWeekIfDue(ctx, req.Msg.GroupID)
	if err != nil {
		s.logger.Error("CloseWeekIfDue failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&CloseWeekIfDueResponse{
		Processed:  result.Processed,
		WeekID:     result.WeekID,
		Defaulters: result.Defaulters,
		FineAmount: result.FineAmount,
	}), nil
}
