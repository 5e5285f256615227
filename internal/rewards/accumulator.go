// Package rewards implements the proportional-distribution accumulator shared
// by every fee- and dividend-style payout in the venue: a global per-share
// value grows as amounts accrue, and each holder lazily realizes the delta
// since their last checkpoint. No payout ever iterates over holders.
package rewards

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Scale is the fixed-point factor applied to the per-share value so that
// amounts far smaller than the share supply still distribute.
var Scale = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// Accumulator tracks a monotonically non-decreasing per-share value and
// per-holder checkpoints. All rounding floors, so at most one scaled unit per
// distribution event remains as undistributed dust.
type Accumulator struct {
	mu             sync.Mutex
	perShareStored *big.Int
	checkpoints    map[common.Address]*big.Int
	owed           map[common.Address]*big.Int
}

func New() *Accumulator {
	return &Accumulator{
		perShareStored: big.NewInt(0),
		checkpoints:    make(map[common.Address]*big.Int),
		owed:           make(map[common.Address]*big.Int),
	}
}

// Add distributes amount across totalShares. A zero share supply drops the
// amount; callers gate on supply before accruing.
func (a *Accumulator) Add(amount, totalShares *big.Int) {
	if amount == nil || amount.Sign() <= 0 || totalShares == nil || totalShares.Sign() <= 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	delta := new(big.Int).Mul(amount, Scale)
	delta.Div(delta, totalShares)
	a.perShareStored.Add(a.perShareStored, delta)
}

// Settle realizes the holder's accrued amount against their current balance
// and resets the checkpoint. Must run before any change to that balance.
func (a *Accumulator) Settle(holder common.Address, balance *big.Int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.settle(holder, balance)
}

func (a *Accumulator) settle(holder common.Address, balance *big.Int) {
	checkpoint := a.checkpoints[holder]
	if checkpoint == nil {
		checkpoint = big.NewInt(0)
	}

	if balance != nil && balance.Sign() > 0 {
		delta := new(big.Int).Sub(a.perShareStored, checkpoint)
		if delta.Sign() > 0 {
			delta.Mul(delta, balance)
			delta.Div(delta, Scale)
			owed := a.owed[holder]
			if owed == nil {
				owed = big.NewInt(0)
				a.owed[holder] = owed
			}
			owed.Add(owed, delta)
		}
	}

	a.checkpoints[holder] = new(big.Int).Set(a.perShareStored)
}

// Owed returns the holder's realized amount, without settling first.
func (a *Accumulator) Owed(holder common.Address) *big.Int {
	a.mu.Lock()
	defer a.mu.Unlock()
	owed := a.owed[holder]
	if owed == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(owed)
}

// Claim settles against balance, zeroes the holder's owed amount, and returns
// what was owed.
func (a *Accumulator) Claim(holder common.Address, balance *big.Int) *big.Int {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.settle(holder, balance)
	owed := a.owed[holder]
	if owed == nil || owed.Sign() == 0 {
		return big.NewInt(0)
	}
	claimed := new(big.Int).Set(owed)
	owed.SetInt64(0)
	return claimed
}

// PerShareStored returns the global accumulator value.
func (a *Accumulator) PerShareStored() *big.Int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return new(big.Int).Set(a.perShareStored)
}
