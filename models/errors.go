package models

import "errors"

// Common errors
var (
	ErrUnknownConnection = errors.New("connection has not joined")
	ErrRoomNotFound      = errors.New("room not found")
	ErrInvalidCard       = errors.New("invalid card value")
	ErrNotPermitted      = errors.New("reveal is not permitted")
	ErrNotHost           = errors.New("only the host can perform this action")
	ErrSelfKick          = errors.New("cannot kick yourself")
	ErrTargetNotMember   = errors.New("target is not a member of the room")
	ErrPlayerNotFound    = errors.New("participant not found in room")
	ErrInvalidName       = errors.New("invalid display name")
	ErrCapacityExhausted = errors.New("room code space exhausted")
)
