// Package registry is the pool factory and lookup table: one pool per token,
// created once, removable only when the pool itself reports zero activity.
package registry

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/inedibleX/goat-trading/internal/model"
	"github.com/inedibleX/goat-trading/internal/pair"
	"github.com/inedibleX/goat-trading/internal/token"
)

var (
	ErrPoolExists    = errors.New("registry: pool exists for token")
	ErrPoolNotFound  = errors.New("registry: pool not found")
	ErrIdenticalPair = errors.New("registry: token cannot equal base asset")
	ErrPoolActive    = errors.New("registry: pool still has activity")
)

// LedgerFunc resolves the balance ledger for an asset identifier.
type LedgerFunc func(asset common.Address) (token.Ledger, error)

// Config carries the venue-wide wiring every created pair inherits.
type Config struct {
	Base       common.Address
	BaseLedger token.Ledger
	Ledgers    LedgerFunc

	Treasury            common.Address
	FeeBps              uint64
	ProtocolFeeShareBps uint64
	ProtocolSweepMin    *big.Int
	VestingPeriod       uint64

	Clock  pair.Clock
	Events pair.EventSink
	Logger *zap.Logger
}

// Registry maps tokens to their single pool.
type Registry struct {
	cfg    Config
	logger *zap.Logger

	mu    sync.RWMutex
	pools map[common.Address]*pair.Pair
	seq   uint64
}

func New(cfg Config) (*Registry, error) {
	if cfg.Base == (common.Address{}) {
		return nil, errors.New("registry: base asset identifier is required")
	}
	if cfg.BaseLedger == nil || cfg.Ledgers == nil {
		return nil, errors.New("registry: asset ledgers are required")
	}
	if cfg.Clock == nil {
		return nil, errors.New("registry: clock is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Registry{
		cfg:    cfg,
		logger: cfg.Logger,
		pools:  make(map[common.Address]*pair.Pair),
	}, nil
}

// NextSeq hands out the venue-wide commit order shared by every pool.
func (r *Registry) NextSeq() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return r.seq
}

// CreatePool registers a new pair for a token. Init parameters must be valid
// and the token must not already have a pool.
func (r *Registry) CreatePool(tokenAddr common.Address, params pair.InitParams) (*pair.Pair, error) {
	if tokenAddr == r.cfg.Base {
		return nil, ErrIdenticalPair
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	tokenLedger, err := r.cfg.Ledgers(tokenAddr)
	if err != nil {
		return nil, fmt.Errorf("resolve token ledger: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pools[tokenAddr]; ok {
		return nil, ErrPoolExists
	}

	p, err := pair.New(pair.Config{
		Token:               tokenAddr,
		Base:                r.cfg.Base,
		TokenLedger:         tokenLedger,
		BaseLedger:          r.cfg.BaseLedger,
		Treasury:            r.cfg.Treasury,
		FeeBps:              r.cfg.FeeBps,
		ProtocolFeeShareBps: r.cfg.ProtocolFeeShareBps,
		ProtocolSweepMin:    r.cfg.ProtocolSweepMin,
		VestingPeriod:       r.cfg.VestingPeriod,
		Clock:               r.cfg.Clock,
		NextSeq:             r.nextSeq,
		Events:              r.cfg.Events,
		Logger:              r.logger,
	}, params)
	if err != nil {
		return nil, err
	}
	r.pools[tokenAddr] = p

	r.logger.Info("pool created",
		zap.String("token", tokenAddr.Hex()),
		zap.String("pool", p.Address().Hex()),
	)
	r.emitCreated(p, params)
	return p, nil
}

// nextSeq is handed to pairs; pairs call it while holding their own mutex but
// never while holding the registry mutex.
func (r *Registry) nextSeq() uint64 {
	return r.NextSeq()
}

// emitCreated must be called with r.mu held.
func (r *Registry) emitCreated(p *pair.Pair, params pair.InitParams) {
	if r.cfg.Events == nil {
		return
	}
	initialBase := "0"
	if params.InitialBase != nil {
		initialBase = params.InitialBase.String()
	}
	r.seq++
	record, err := model.NewEventRecord(r.seq, r.cfg.Clock(), p.Address().Hex(), p.Token().Hex(),
		model.EventPoolCreated, model.PoolCreatedEventData{
			Token:             p.Token().Hex(),
			Base:              p.Base().Hex(),
			VirtualBase:       params.VirtualBase.String(),
			BootstrapBase:     params.BootstrapBase.String(),
			InitialBase:       initialBase,
			InitialShareMatch: params.InitialShareMatch.String(),
		})
	if err != nil {
		r.logger.Warn("encode pool created event", zap.Error(err))
		return
	}
	if err := r.cfg.Events.AppendEvents([]model.EventRecord{record}); err != nil {
		r.logger.Warn("append pool created event", zap.Error(err))
	}
}

// Pool looks up the pair for a token.
func (r *Registry) Pool(tokenAddr common.Address) (*pair.Pair, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pools[tokenAddr]
	if !ok {
		return nil, ErrPoolNotFound
	}
	return p, nil
}

// Pools returns all registered pairs.
func (r *Registry) Pools() []*pair.Pair {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*pair.Pair, 0, len(r.pools))
	for _, p := range r.pools {
		out = append(out, p)
	}
	return out
}

// Remove drops the registry entry for a pool that self-reports zero reserves
// and zero outstanding shares. The pair value itself is not destroyed.
func (r *Registry) Remove(tokenAddr common.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pools[tokenAddr]
	if !ok {
		return ErrPoolNotFound
	}
	reserveBase, reserveToken := p.ReservesAmm()
	if reserveBase.Sign() != 0 || reserveToken.Sign() != 0 || p.Shares().TotalSupply().Sign() != 0 {
		return ErrPoolActive
	}
	delete(r.pools, tokenAddr)
	return nil
}
