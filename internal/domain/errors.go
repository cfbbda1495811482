package domain

import "errors"

var (
	ErrNotTracked       = errors.New("room is not tracked")
	ErrPermissionDenied = errors.New("platform rejected the command")
	ErrClaimLocked      = errors.New("claim lock window has not elapsed")
	ErrAlreadyOwned     = errors.New("room already has an owner")
	ErrNotOwner         = errors.New("only the owner or a moderator may do this")
	ErrNotInRoom        = errors.New("user not in the room")
)
