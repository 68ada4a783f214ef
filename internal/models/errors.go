package models

import "errors"

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrIdentifierExhausted = errors.New("could not allocate a unique room identifier")
	ErrMalformedEvent      = errors.New("malformed event")
	ErrUnknownDrawingKind  = errors.New("unknown drawing kind")
	ErrNotMember           = errors.New("connection is not a member of the room")
	ErrInsufficientRole    = errors.New("role does not allow this operation")
)
