package token

import (
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInsufficientBalance = errors.New("token: insufficient balance")
	ErrZeroAmount          = errors.New("token: zero amount")
)

// Ledger is the balance surface the pair engine settles against. Amounts are
// always read back from the ledger rather than trusted from callers, so a
// ledger that deducts value on transfer still accounts correctly.
type Ledger interface {
	BalanceOf(account common.Address) *big.Int
	Transfer(from, to common.Address, amount *big.Int) error
}

// TransferHook runs after a transfer settles. Hooks may re-enter the venue;
// the pair engine is written to tolerate that.
type TransferHook func(from, to common.Address, amount *big.Int)

// Asset is a plain in-memory fungible balance ledger.
type Asset struct {
	symbol string

	mu       sync.RWMutex
	balances map[common.Address]*big.Int
	hook     TransferHook
}

func NewAsset(symbol string) *Asset {
	return &Asset{
		symbol:   symbol,
		balances: make(map[common.Address]*big.Int),
	}
}

func (a *Asset) Symbol() string { return a.symbol }

// SetTransferHook installs a post-transfer callback.
func (a *Asset) SetTransferHook(hook TransferHook) {
	a.mu.Lock()
	a.hook = hook
	a.mu.Unlock()
}

// Mint credits freshly issued units to an account.
func (a *Asset) Mint(to common.Address, amount *big.Int) {
	if amount == nil || amount.Sign() <= 0 {
		return
	}
	a.mu.Lock()
	a.credit(to, amount)
	a.mu.Unlock()
}

func (a *Asset) BalanceOf(account common.Address) *big.Int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	balance := a.balances[account]
	if balance == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(balance)
}

func (a *Asset) Transfer(from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}

	a.mu.Lock()
	balance := a.balances[from]
	if balance == nil || balance.Cmp(amount) < 0 {
		a.mu.Unlock()
		return ErrInsufficientBalance
	}
	balance.Sub(balance, amount)
	a.credit(to, amount)
	hook := a.hook
	a.mu.Unlock()

	if hook != nil {
		hook(from, to, amount)
	}
	return nil
}

// credit must be called with the lock held.
func (a *Asset) credit(to common.Address, amount *big.Int) {
	balance := a.balances[to]
	if balance == nil {
		balance = big.NewInt(0)
		a.balances[to] = balance
	}
	balance.Add(balance, amount)
}

// TaxedAsset deducts a basis-point tax from every transfer and credits it to a
// collector account. It models the transfer-tax token family the venue has to
// stay solvent against: the recipient receives less than the sender declared.
type TaxedAsset struct {
	*Asset
	taxBps    uint64
	collector common.Address
}

func NewTaxedAsset(symbol string, taxBps uint64, collector common.Address) *TaxedAsset {
	return &TaxedAsset{
		Asset:     NewAsset(symbol),
		taxBps:    taxBps,
		collector: collector,
	}
}

func (a *TaxedAsset) Transfer(from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}

	tax := new(big.Int).SetUint64(a.taxBps)
	tax.Mul(tax, amount)
	tax.Div(tax, big.NewInt(10000))

	net := new(big.Int).Sub(amount, tax)

	a.mu.Lock()
	balance := a.balances[from]
	if balance == nil || balance.Cmp(amount) < 0 {
		a.mu.Unlock()
		return ErrInsufficientBalance
	}
	balance.Sub(balance, amount)
	a.credit(to, net)
	if tax.Sign() > 0 {
		a.credit(a.collector, tax)
	}
	hook := a.hook
	a.mu.Unlock()

	if hook != nil {
		hook(from, to, net)
	}
	return nil
}
