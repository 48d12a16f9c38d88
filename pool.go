package docxtpl

import (
	"context"
	"runtime"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one conversion can run.
	MinPoolSize = 1

	// MaxPoolSize caps concurrent soffice processes (~300MB each).
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for the office suite's helper threads.
	cpuDivisor = 2
)

// SlotPool bounds how many conversions run at once.
// Acquire blocks until a slot frees up or the context ends.
type SlotPool struct {
	sem chan struct{}
}

// NewSlotPool creates a pool with n slots (at least one).
func NewSlotPool(n int) *SlotPool {
	if n < MinPoolSize {
		n = MinPoolSize
	}
	return &SlotPool{sem: make(chan struct{}, n)}
}

// Acquire takes a slot. The returned function gives it back and must be
// called exactly once.
func (p *SlotPool) Acquire(ctx context.Context) (release func(), err error) {
	select {
	case p.sem <- struct{}{}:
		return func() { <-p.sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Size returns the pool capacity.
func (p *SlotPool) Size() int {
	return cap(p.sem)
}

// InUse returns the number of slots currently taken.
func (p *SlotPool) InUse() int {
	return len(p.sem)
}

// ResolvePoolSize determines the number of conversion slots.
// Priority: explicit workers > GOMAXPROCS-based calculation.
// Exported for use by servers and CLIs.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}

	// GOMAXPROCS is adjusted by automaxprocs for containers
	available := runtime.GOMAXPROCS(0)
	n := available / cpuDivisor

	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
