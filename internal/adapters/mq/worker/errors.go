package worker

import "errors"

// Sentinel kinds for worker errors.
var (
	ErrUnknownTarget = errors.New("unknown target")
)
