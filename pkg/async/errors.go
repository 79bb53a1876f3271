package async

import "errors"

// ErrTaskPanicked wraps the value recovered from a panicking pool task.
var ErrTaskPanicked = errors.New("async: task panicked")
