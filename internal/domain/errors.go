package domain

import "errors"

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrUnknownEvent   = errors.New("unknown event")
	ErrMalformedFrame = errors.New("malformed frame")
	ErrQueueFull      = errors.New("outbound queue is full")
	ErrClosed         = errors.New("connection closed")
)
