package state

import "errors"

// ErrInvalidEvent marks a payload that does not match any known event shape.
var ErrInvalidEvent = errors.New("invalid whiteboard event")
