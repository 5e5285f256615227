// Package pair implements the trading-pair state machine: a presale
// bonding-curve phase that converts atomically into a constant-product market
// maker once the bootstrap target is met, with fee distribution to liquidity
// providers and a vesting lock on the initial provider.
package pair

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/inedibleX/goat-trading/internal/fees"
	"github.com/inedibleX/goat-trading/internal/lp"
	"github.com/inedibleX/goat-trading/internal/model"
	"github.com/inedibleX/goat-trading/internal/pricing"
	"github.com/inedibleX/goat-trading/internal/token"
)

// Phase is the pool's lifecycle state. The transition Presale -> Amm is
// one-way and happens atomically inside the operation that crosses the
// bootstrap target.
type Phase uint8

const (
	PhasePresale Phase = iota
	PhaseAmm
)

func (p Phase) String() string {
	switch p {
	case PhasePresale:
		return "presale"
	case PhaseAmm:
		return "amm"
	default:
		return "unknown"
	}
}

// Default economic constants. All overridable through Config.
const (
	DefaultFeeBps              = 99
	DefaultProtocolFeeShareBps = 4000
	DefaultVestingPeriod       = 30 * 24 * 60 * 60
)

var (
	ErrReentrantCall       = errors.New("pair: reentrant call")
	ErrNotInitialized      = errors.New("pair: pool not initialized")
	ErrPresaleLiquidity    = errors.New("pair: liquidity locked during presale")
	ErrInsufficientDeposit = errors.New("pair: insufficient deposit")
	ErrInsufficientShares  = errors.New("pair: insufficient shares minted")
	ErrInsufficientBurn    = errors.New("pair: insufficient liquidity burned")
	ErrMultipleOutputs     = errors.New("pair: one output side per swap")
	ErrInsufficientOutput  = errors.New("pair: insufficient output amount")
	ErrInsufficientInput   = errors.New("pair: insufficient input amount")
	ErrInvariantViolated   = errors.New("pair: constant product invariant violated")
	ErrPresaleBalance      = errors.New("pair: sell exceeds presale balance")
	ErrTakeoverPhase       = errors.New("pair: takeover only during presale")
	ErrTakeoverTerms       = errors.New("pair: takeover terms below original commitment")
	ErrBalanceShortfall    = errors.New("pair: pool balance below owed payout")
	ErrNoExcess            = errors.New("pair: no excess balance")
	ErrInvalidInitParams   = errors.New("pair: invalid init params")
)

// Clock returns the current unix time in seconds.
type Clock func() uint64

// EventSink receives the pair's event records in commit order.
type EventSink interface {
	AppendEvents(records []model.EventRecord) error
}

// InitParams are the creator's pool terms.
type InitParams struct {
	VirtualBase       *big.Int
	BootstrapBase     *big.Int
	InitialBase       *big.Int
	InitialShareMatch *big.Int
}

// Validate enforces the registry's creation-time rules.
func (p InitParams) Validate() error {
	if p.VirtualBase == nil || p.VirtualBase.Sign() <= 0 {
		return fmt.Errorf("%w: virtual base must be positive", ErrInvalidInitParams)
	}
	if p.BootstrapBase == nil || p.BootstrapBase.Sign() <= 0 {
		return fmt.Errorf("%w: bootstrap base must be positive", ErrInvalidInitParams)
	}
	if p.InitialShareMatch == nil || p.InitialShareMatch.Sign() <= 0 {
		return fmt.Errorf("%w: initial share match must be positive", ErrInvalidInitParams)
	}
	if p.InitialBase == nil {
		return nil
	}
	if p.InitialBase.Sign() < 0 || p.InitialBase.Cmp(p.BootstrapBase) > 0 {
		return fmt.Errorf("%w: initial base exceeds bootstrap target", ErrInvalidInitParams)
	}
	return nil
}

func (p InitParams) initialBase() *big.Int {
	if p.InitialBase == nil {
		return big.NewInt(0)
	}
	return p.InitialBase
}

// Config wires a pair to its collaborators.
type Config struct {
	Token common.Address
	Base  common.Address

	TokenLedger token.Ledger
	BaseLedger  token.Ledger

	Treasury common.Address

	FeeBps              uint64
	ProtocolFeeShareBps uint64
	ProtocolSweepMin    *big.Int
	VestingPeriod       uint64

	Clock   Clock
	NextSeq func() uint64
	Events  EventSink
	Logger  *zap.Logger
}

func (c *Config) validate() error {
	if c.Token == (common.Address{}) || c.Base == (common.Address{}) {
		return errors.New("pair: token and base identifiers are required")
	}
	if c.Token == c.Base {
		return errors.New("pair: token cannot be its own base asset")
	}
	if c.TokenLedger == nil || c.BaseLedger == nil {
		return errors.New("pair: token and base ledgers are required")
	}
	if c.FeeBps >= pricing.BpsDenominator {
		return fmt.Errorf("pair: fee bps %d must be below %d", c.FeeBps, pricing.BpsDenominator)
	}
	if c.ProtocolFeeShareBps > pricing.BpsDenominator {
		return fmt.Errorf("pair: protocol fee share bps %d must not exceed %d", c.ProtocolFeeShareBps, pricing.BpsDenominator)
	}
	if c.Clock == nil {
		return errors.New("pair: clock is required")
	}
	return nil
}

// providerLock is the initial liquidity provider record. Its own mutex keeps
// the lock readable from the share ledger's callbacks without touching the
// pair mutex.
type providerLock struct {
	mu       sync.Mutex
	provider common.Address
	amount   *big.Int
	unlockAt uint64
	presale  bool
}

func (l *providerLock) lockedShares(holder common.Address, now uint64) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.amount == nil || holder != l.provider {
		return nil
	}
	if l.presale || now < l.unlockAt {
		return new(big.Int).Set(l.amount)
	}
	return nil
}

// Pair owns all mutable state for one pool.
type Pair struct {
	cfg    Config
	addr   common.Address
	logger *zap.Logger

	mu          sync.RWMutex
	initialized bool
	phase       Phase

	reserveBase  *big.Int
	reserveToken *big.Int

	virtualBase       *big.Int
	virtualToken      *big.Int
	bootstrapBase     *big.Int
	initialBase       *big.Int
	initialShareMatch *big.Int
	ammTokenReserve   *big.Int

	vestingUntil    uint64
	lock            providerLock
	presaleBalances map[common.Address]*big.Int

	shares *lp.Ledger
	fees   *fees.Tracker
}

// New builds an uninitialized pair. The pool goes live on the first Mint,
// after the creator has settled the bootstrap token amount into the pair
// account.
func New(cfg Config, params InitParams) (*Pair, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if cfg.FeeBps == 0 {
		cfg.FeeBps = DefaultFeeBps
	}
	if cfg.ProtocolFeeShareBps == 0 {
		cfg.ProtocolFeeShareBps = DefaultProtocolFeeShareBps
	}
	if cfg.VestingPeriod == 0 {
		cfg.VestingPeriod = DefaultVestingPeriod
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.NextSeq == nil {
		var local uint64
		cfg.NextSeq = func() uint64 {
			local++
			return local
		}
	}

	p := &Pair{
		cfg:               cfg,
		addr:              deriveAddress(cfg.Base, cfg.Token),
		logger:            cfg.Logger,
		phase:             PhasePresale,
		reserveBase:       big.NewInt(0),
		reserveToken:      big.NewInt(0),
		virtualBase:       new(big.Int).Set(params.VirtualBase),
		bootstrapBase:     new(big.Int).Set(params.BootstrapBase),
		initialBase:       new(big.Int).Set(params.initialBase()),
		initialShareMatch: new(big.Int).Set(params.InitialShareMatch),
		presaleBalances:   make(map[common.Address]*big.Int),
		fees:              fees.NewTracker(cfg.ProtocolFeeShareBps, cfg.ProtocolSweepMin),
	}
	_, amm, err := pricing.TokenAmountsForPresaleAndAmm(p.virtualBase, p.bootstrapBase, nil, p.initialShareMatch)
	if err != nil {
		return nil, fmt.Errorf("size bootstrap token amounts: %w", err)
	}
	p.ammTokenReserve = amm
	p.virtualToken = pricing.VirtualTokenReserve(p.virtualBase, p.bootstrapBase, p.initialShareMatch, p.ammTokenReserve)

	p.shares = lp.NewLedger(p.fees.Settle, func(holder common.Address) *big.Int {
		return p.lock.lockedShares(holder, p.cfg.Clock())
	})
	return p, nil
}

func deriveAddress(base, token common.Address) common.Address {
	digest := crypto.Keccak256(base.Bytes(), token.Bytes())
	return common.BytesToAddress(digest[12:])
}

// Address is the pair's own account on the asset ledgers.
func (p *Pair) Address() common.Address { return p.addr }

func (p *Pair) Token() common.Address { return p.cfg.Token }

func (p *Pair) Base() common.Address { return p.cfg.Base }

// Shares exposes the liquidity share ledger.
func (p *Pair) Shares() *lp.Ledger { return p.shares }

func (p *Pair) Phase() Phase {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.phase
}

// ReservesPresale returns the curve sides used while in presale: real
// reserves plus their virtual offsets.
func (p *Pair) ReservesPresale() (baseSide, tokenSide *big.Int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	baseSide = new(big.Int).Add(p.virtualBase, p.reserveBase)
	tokenSide = new(big.Int).Add(p.virtualToken, p.reserveToken)
	return baseSide, tokenSide
}

// ReservesAmm returns the real, settled reserves.
func (p *Pair) ReservesAmm() (reserveBase, reserveToken *big.Int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return new(big.Int).Set(p.reserveBase), new(big.Int).Set(p.reserveToken)
}

// InitialProviderInfo reports the initial liquidity provider lock record.
func (p *Pair) InitialProviderInfo() (provider common.Address, locked *big.Int, unlockAt uint64) {
	p.lock.mu.Lock()
	defer p.lock.mu.Unlock()
	locked = big.NewInt(0)
	if p.lock.amount != nil {
		locked.Set(p.lock.amount)
	}
	return p.lock.provider, locked, p.lock.unlockAt
}

// PresaleBalance is the amount of tokens a user bought along the bonding
// curve, which caps what they may sell back during the presale.
func (p *Pair) PresaleBalance(user common.Address) *big.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	balance := p.presaleBalances[user]
	if balance == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(balance)
}

// LockedUntil returns the unlock time of a holder's locked shares, zero when
// nothing is locked.
func (p *Pair) LockedUntil(holder common.Address) uint64 {
	p.lock.mu.Lock()
	defer p.lock.mu.Unlock()
	if holder != p.lock.provider || p.lock.amount == nil {
		return 0
	}
	return p.lock.unlockAt
}

func (p *Pair) VestingUntil() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.vestingUntil
}

func (p *Pair) FeePerShareStored() *big.Int { return p.fees.PerShareStored() }

func (p *Pair) PendingLiquidityFees() *big.Int { return p.fees.PendingLiquidity() }

func (p *Pair) PendingProtocolFees() *big.Int { return p.fees.PendingProtocol() }

// BootstrapBase is the presale funding target.
func (p *Pair) BootstrapBase() *big.Int {
	return new(big.Int).Set(p.bootstrapBase)
}

// AmmTokenReserve is the token amount reserved to seed the post-conversion
// constant-product reserve.
func (p *Pair) AmmTokenReserve() *big.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return new(big.Int).Set(p.ammTokenReserve)
}

// balance deltas against recorded state; must be called with p.mu held.
// Pending fees sit in the base balance but belong to fee claims, so they are
// excluded from the tradable delta.
func (p *Pair) baseDelta() *big.Int {
	balance := p.cfg.BaseLedger.BalanceOf(p.addr)
	delta := new(big.Int).Sub(balance, p.reserveBase)
	return delta.Sub(delta, p.fees.PendingTotal())
}

func (p *Pair) tokenDelta() *big.Int {
	balance := p.cfg.TokenLedger.BalanceOf(p.addr)
	return new(big.Int).Sub(balance, p.reserveToken)
}

func (p *Pair) emit(name string, payload interface{}) {
	if p.cfg.Events == nil {
		return
	}
	record, err := model.NewEventRecord(p.cfg.NextSeq(), p.cfg.Clock(), p.addr.Hex(), p.cfg.Token.Hex(), name, payload)
	if err != nil {
		p.logger.Warn("encode event", zap.String("event", name), zap.Error(err))
		return
	}
	if err := p.cfg.Events.AppendEvents([]model.EventRecord{record}); err != nil {
		p.logger.Warn("append event", zap.String("event", name), zap.Error(err))
	}
}
