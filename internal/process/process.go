// Package process cleans up browser processes launched for an editor session.
package process

import "errors"

// ErrInvalidPID is returned for pids that would address the caller's own
// process group or every process.
var ErrInvalidPID = errors.New("invalid pid")
