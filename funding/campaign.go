package funding

import (
	"math/big"
	"time"
)

// Campaign is a decoded campaign record in the local view. IDs are the
// contract's 0-based ordinal indices, stable and never reused. Name, Goal
// and Deadline are immutable post-creation; Collected only grows until the
// administrator withdraws.
type Campaign struct {
	ID        uint64
	Name      string
	Goal      *big.Int // wei
	Collected *big.Int // wei
	Deadline  time.Time
}

// Progress returns collected/goal as a ratio, 0 when the goal is zero.
// Derived, never persisted; clamping is display-only (see DisplayProgress).
func (c Campaign) Progress() float64 {
	if c.Goal == nil || c.Goal.Sign() == 0 || c.Collected == nil {
		return 0
	}
	goal, _ := new(big.Float).SetInt(c.Goal).Float64()
	collected, _ := new(big.Float).SetInt(c.Collected).Float64()
	return collected / goal
}

// DisplayProgress returns the progress as a percentage clamped to [0, 100].
func (c Campaign) DisplayProgress() float64 {
	p := c.Progress() * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Expired reports whether the deadline has passed at now.
func (c Campaign) Expired(now time.Time) bool {
	return now.After(c.Deadline)
}

// HasFunds reports whether there is anything left to withdraw.
func (c Campaign) HasFunds() bool {
	return c.Collected != nil && c.Collected.Sign() > 0
}
