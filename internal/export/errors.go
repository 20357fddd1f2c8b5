package export

import "errors"

// ErrEmptyViewport is returned when asked to export a board with no area.
var ErrEmptyViewport = errors.New("export viewport is empty")
