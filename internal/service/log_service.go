package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/multas/internal/groups"
)

// LogService implements the Connect LogService.
type LogService struct {
	groups *groups.Manager
	logger *slog.Logger
}

// NewLogService creates a new LogService.
func NewLogService(manager *groups.Manager, logger *slog.Logger) *LogService {
	return &LogService{groups: manager, logger: orDefault(logger)}
}

// ListLogs returns the group's audit log, newest first.
func (s *LogService) ListLogs(ctx context.Context, req *connect.Request[ListLogsRequest]) (*connect.Response[ListLogsResponse], error) {
	actor, err := actorID(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := s.groups.ListLogs(ctx, actor, req.Msg.GroupID)
	if err != nil {
		s.logger.Warn("ListLogs failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ListLogsResponse{Logs: convertAll(entries, toLogEntry)}), nil
}
