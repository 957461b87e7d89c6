package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/multas/internal/middleware"
	"github.com/mmynk/multas/internal/models"
	"github.com/mmynk/multas/internal/storage"
)

var errUnauthenticated = errors.New("authentication required")

// toConnectError maps domain and storage errors onto Connect codes.
// Invalid transitions are checked first because a lost conditional update
// carries both ErrInvalidTransition and storage.ErrConflict.
func toConnectError(err error) *connect.Error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}

	code := connect.CodeInternal
	switch {
	case errors.Is(err, models.ErrInvalidTransition):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, storage.ErrNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, models.ErrForbidden), errors.Is(err, models.ErrNotMember):
		code = connect.CodePermissionDenied
	case errors.Is(err, models.ErrInvalidArgument):
		code = connect.CodeInvalidArgument
	case errors.Is(err, storage.ErrConflict):
		code = connect.CodeAlreadyExists
	case errors.Is(err, storage.ErrTransient):
		code = connect.CodeUnavailable
	case errors.Is(err, context.Canceled):
		code = connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	}
	return connect.NewError(code, err)
}

// orDefault returns logger, or slog.Default() when it is nil.
func orDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// actorID returns the authenticated caller set by middleware.RequireAuth.
func actorID(ctx context.Context) (string, error) {
	id := middleware.GetUserID(ctx)
	if id == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, errUnauthenticated)
	}
	return id, nil
}
