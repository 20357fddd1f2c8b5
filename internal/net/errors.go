package net

import "errors"

var (
	ErrClosed          = errors.New("channel closed")
	ErrQueueFull       = errors.New("send queue full")
	ErrInvalidEnvelope = errors.New("invalid envelope")
	ErrNoHostFound     = errors.New("no host found")
)
