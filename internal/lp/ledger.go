// Package lp is the fungible liquidity-share ledger: ERC20-style balances
// with two pool-specific twists. The first issuance burns a fixed minimum to
// the zero-address sink so the share price can never divide by zero, and the
// recorded initial provider's locked shares cannot move until their unlock.
package lp

import (
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// MinimumLiquidity is minted to the zero address on first issuance and is
// permanently excluded from redemption.
var MinimumLiquidity = big.NewInt(1000)

var (
	ErrInsufficientShares    = errors.New("lp: insufficient shares")
	ErrInsufficientAllowance = errors.New("lp: insufficient allowance")
	ErrSharesLocked          = errors.New("lp: shares locked")
	ErrZeroAmount            = errors.New("lp: zero amount")
)

// BalanceHook runs before any change to a holder's balance, with the holder's
// pre-change balance. The pair wires the fee tracker's settle here.
type BalanceHook func(holder common.Address, balance *big.Int)

// LockedFunc reports how many of a holder's shares are currently untouchable.
type LockedFunc func(holder common.Address) *big.Int

// Ledger tracks share balances for one pool.
type Ledger struct {
	mu          sync.RWMutex
	totalSupply *big.Int
	balances    map[common.Address]*big.Int
	allowances  map[common.Address]map[common.Address]*big.Int
	beforeMove  BalanceHook
	locked      LockedFunc
}

func NewLedger(beforeMove BalanceHook, locked LockedFunc) *Ledger {
	return &Ledger{
		totalSupply: big.NewInt(0),
		balances:    make(map[common.Address]*big.Int),
		allowances:  make(map[common.Address]map[common.Address]*big.Int),
		beforeMove:  beforeMove,
		locked:      locked,
	}
}

func (l *Ledger) TotalSupply() *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(big.Int).Set(l.totalSupply)
}

func (l *Ledger) BalanceOf(holder common.Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balance(holder)
}

func (l *Ledger) balance(holder common.Address) *big.Int {
	balance := l.balances[holder]
	if balance == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(balance)
}

// Mint issues shares to a holder. First issuance must go through MintInitial.
func (l *Ledger) Mint(to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.settle(to)
	l.credit(to, amount)
	l.totalSupply.Add(l.totalSupply, amount)
	return nil
}

// MintInitial performs the first issuance: MinimumLiquidity to the zero sink,
// the remainder to the provider. total must exceed MinimumLiquidity.
func (l *Ledger) MintInitial(to common.Address, total *big.Int) (*big.Int, error) {
	if total == nil || total.Cmp(MinimumLiquidity) <= 0 {
		return nil, ErrInsufficientShares
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.totalSupply.Sign() != 0 {
		return nil, errors.New("lp: supply already initialized")
	}

	minted := new(big.Int).Sub(total, MinimumLiquidity)
	l.credit(common.Address{}, MinimumLiquidity)
	l.settle(to)
	l.credit(to, minted)
	l.totalSupply.Add(l.totalSupply, total)
	return minted, nil
}

// Burn destroys shares held by an account.
func (l *Ledger) Burn(from common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	balance := l.balances[from]
	if balance == nil || balance.Cmp(amount) < 0 {
		return ErrInsufficientShares
	}
	l.settle(from)
	balance.Sub(balance, amount)
	l.totalSupply.Sub(l.totalSupply, amount)
	return nil
}

// Transfer moves shares, refusing to touch the locked tranche.
func (l *Ledger) Transfer(from, to common.Address, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.transfer(from, to, amount)
}

func (l *Ledger) transfer(from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}

	balance := l.balances[from]
	if balance == nil || balance.Cmp(amount) < 0 {
		return ErrInsufficientShares
	}
	if l.locked != nil {
		locked := l.locked(from)
		if locked != nil && locked.Sign() > 0 {
			free := new(big.Int).Sub(balance, locked)
			if free.Cmp(amount) < 0 {
				return ErrSharesLocked
			}
		}
	}

	l.settle(from)
	l.settle(to)
	balance.Sub(balance, amount)
	l.credit(to, amount)
	return nil
}

func (l *Ledger) Approve(owner, spender common.Address, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	approvals := l.allowances[owner]
	if approvals == nil {
		approvals = make(map[common.Address]*big.Int)
		l.allowances[owner] = approvals
	}
	if amount == nil {
		amount = big.NewInt(0)
	}
	approvals[spender] = new(big.Int).Set(amount)
}

func (l *Ledger) Allowance(owner, spender common.Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	approvals := l.allowances[owner]
	if approvals == nil || approvals[spender] == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(approvals[spender])
}

func (l *Ledger) TransferFrom(spender, owner, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	approvals := l.allowances[owner]
	if approvals == nil || approvals[spender] == nil || approvals[spender].Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	if err := l.transfer(owner, to, amount); err != nil {
		return err
	}
	approvals[spender].Sub(approvals[spender], amount)
	return nil
}

// ForceTransfer moves shares ignoring the lock. Used only by the takeover
// path, which re-records the lock on the new provider in the same operation.
func (l *Ledger) ForceTransfer(from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	balance := l.balances[from]
	if balance == nil || balance.Cmp(amount) < 0 {
		return ErrInsufficientShares
	}
	l.settle(from)
	l.settle(to)
	balance.Sub(balance, amount)
	l.credit(to, amount)
	return nil
}

// settle must be called with the lock held.
func (l *Ledger) settle(holder common.Address) {
	if l.beforeMove != nil {
		l.beforeMove(holder, l.balance(holder))
	}
}

// credit must be called with the lock held.
func (l *Ledger) credit(to common.Address, amount *big.Int) {
	balance := l.balances[to]
	if balance == nil {
		balance = big.NewInt(0)
		l.balances[to] = balance
	}
	balance.Add(balance, amount)
}
