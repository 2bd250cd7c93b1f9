package mdnice

import "runtime"

// Session concurrency bounds.
const (
	// MinPoolSize ensures at least one session runs.
	MinPoolSize = 1

	// MaxPoolSize caps concurrent browser sessions to limit memory (~200MB each).
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// ResolvePoolSize determines how many browser sessions may run at once,
// e.g. one batch per platform.
// Priority: explicit workers > GOMAXPROCS-based calculation.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}

	// GOMAXPROCS is adjusted by automaxprocs for containers
	n := runtime.GOMAXPROCS(0) / cpuDivisor
	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
