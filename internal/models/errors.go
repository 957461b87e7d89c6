package models

import "errors"

// Domain errors shared by the settlement engine and group management.
var (
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrNotMember         = errors.New("not a member of the group")
)
