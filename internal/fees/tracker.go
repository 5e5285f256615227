// Package fees tracks how each trade's fee is split between liquidity
// providers and the protocol. LP fees feed the reward-per-share accumulator;
// the protocol cut piles into a counter that is swept to the treasury once it
// crosses a configured minimum.
package fees

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/inedibleX/goat-trading/internal/rewards"
)

// Tracker is the fee ledger for a single pool. All amounts are base units.
type Tracker struct {
	mu               sync.Mutex
	acc              *rewards.Accumulator
	pendingLiquidity *big.Int
	pendingProtocol  *big.Int
	protocolShareBps uint64
	sweepMin         *big.Int
}

// NewTracker configures the split. protocolShareBps is the protocol's cut of
// each fee during the Amm phase; during the presale the full fee accrues to
// the protocol since presale buyers are not liquidity providers.
func NewTracker(protocolShareBps uint64, sweepMin *big.Int) *Tracker {
	if sweepMin == nil {
		sweepMin = big.NewInt(0)
	}
	return &Tracker{
		acc:              rewards.New(),
		pendingLiquidity: big.NewInt(0),
		pendingProtocol:  big.NewInt(0),
		protocolShareBps: protocolShareBps,
		sweepMin:         new(big.Int).Set(sweepMin),
	}
}

// Accrue books a collected fee. totalShares is the share supply the LP part
// distributes over; presale routes the entire fee to the protocol counter.
func (t *Tracker) Accrue(fee, totalShares *big.Int, presale bool) {
	if fee == nil || fee.Sign() <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if presale || totalShares == nil || totalShares.Sign() == 0 {
		t.pendingProtocol.Add(t.pendingProtocol, fee)
		return
	}

	protocol := new(big.Int).Mul(fee, new(big.Int).SetUint64(t.protocolShareBps))
	protocol.Div(protocol, big.NewInt(10000))
	lp := new(big.Int).Sub(fee, protocol)

	t.pendingProtocol.Add(t.pendingProtocol, protocol)
	t.pendingLiquidity.Add(t.pendingLiquidity, lp)
	t.acc.Add(lp, totalShares)
}

// Settle checkpoints a holder at their current share balance. Hooked into
// every share balance change.
func (t *Tracker) Settle(holder common.Address, balance *big.Int) {
	t.acc.Settle(holder, balance)
}

// Claim realizes and removes a holder's owed fees.
func (t *Tracker) Claim(holder common.Address, balance *big.Int) *big.Int {
	claimed := t.acc.Claim(holder, balance)
	if claimed.Sign() > 0 {
		t.mu.Lock()
		t.pendingLiquidity.Sub(t.pendingLiquidity, claimed)
		t.mu.Unlock()
	}
	return claimed
}

// Owed reports a holder's realized-but-unclaimed fees.
func (t *Tracker) Owed(holder common.Address) *big.Int {
	return t.acc.Owed(holder)
}

// SweepProtocol drains the protocol counter if it has reached the sweep
// minimum. Returns nil when below threshold.
func (t *Tracker) SweepProtocol() *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pendingProtocol.Sign() == 0 || t.pendingProtocol.Cmp(t.sweepMin) < 0 {
		return nil
	}
	swept := new(big.Int).Set(t.pendingProtocol)
	t.pendingProtocol.SetInt64(0)
	return swept
}

func (t *Tracker) PendingLiquidity() *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return new(big.Int).Set(t.pendingLiquidity)
}

func (t *Tracker) PendingProtocol() *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return new(big.Int).Set(t.pendingProtocol)
}

// PendingTotal is the slice of the pool's base balance that belongs to fee
// claims rather than reserves.
func (t *Tracker) PendingTotal() *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	total := new(big.Int).Add(t.pendingLiquidity, t.pendingProtocol)
	return total
}

func (t *Tracker) PerShareStored() *big.Int {
	return t.acc.PerShareStored()
}
