// Package replay applies an operations journal to an in-memory venue. Each
// journal line is one operation; the runner executes them in order, the pairs
// emit their event log through the configured sink, and a checkpoint records
// the last applied line so interrupted runs resume without reapplying.
package replay

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/inedibleX/goat-trading/internal/pair"
	"github.com/inedibleX/goat-trading/internal/registry"
	"github.com/inedibleX/goat-trading/internal/router"
	"github.com/inedibleX/goat-trading/internal/token"
)

var (
	ErrUnknownAsset = errors.New("replay: unknown asset")
	ErrUnknownOp    = errors.New("replay: unknown op")
)

// VenueConfig carries the economic constants of the venue under replay.
type VenueConfig struct {
	Base                common.Address
	Treasury            common.Address
	FeeBps              uint64
	ProtocolFeeShareBps uint64
	ProtocolSweepMin    *big.Int
	VestingPeriod       uint64
	GenesisTime         uint64
	Events              pair.EventSink
	Logger              *zap.Logger
}

// Venue is the full in-memory trading system: asset ledgers, the pool
// registry, and the router, sharing one deterministic clock driven by the
// journal's timestamps.
type Venue struct {
	cfg    VenueConfig
	logger *zap.Logger

	mu     sync.Mutex
	now    uint64
	assets map[common.Address]token.Ledger

	Base     *token.Asset
	Registry *registry.Registry
	Router   *router.Router
}

func NewVenue(cfg VenueConfig) (*Venue, error) {
	if cfg.Base == (common.Address{}) {
		return nil, errors.New("replay: base asset identifier is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	v := &Venue{
		cfg:    cfg,
		logger: cfg.Logger,
		now:    cfg.GenesisTime,
		assets: make(map[common.Address]token.Ledger),
		Base:   token.NewAsset("BASE"),
	}
	v.assets[cfg.Base] = v.Base

	reg, err := registry.New(registry.Config{
		Base:                cfg.Base,
		BaseLedger:          v.Base,
		Ledgers:             v.Ledger,
		Treasury:            cfg.Treasury,
		FeeBps:              cfg.FeeBps,
		ProtocolFeeShareBps: cfg.ProtocolFeeShareBps,
		ProtocolSweepMin:    cfg.ProtocolSweepMin,
		VestingPeriod:       cfg.VestingPeriod,
		Clock:               v.Now,
		Events:              cfg.Events,
		Logger:              cfg.Logger,
	})
	if err != nil {
		return nil, err
	}
	v.Registry = reg
	v.Router = router.New(v.Now)
	return v, nil
}

// Now is the venue clock, advanced monotonically by journal timestamps.
func (v *Venue) Now() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

func (v *Venue) advance(ts uint64) {
	v.mu.Lock()
	if ts > v.now {
		v.now = ts
	}
	v.mu.Unlock()
}

// Ledger resolves an asset identifier to its balance ledger.
func (v *Venue) Ledger(asset common.Address) (token.Ledger, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	ledger, ok := v.assets[asset]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, asset.Hex())
	}
	return ledger, nil
}

// RegisterAsset adds a token ledger to the venue.
func (v *Venue) RegisterAsset(asset common.Address, ledger token.Ledger) {
	v.mu.Lock()
	v.assets[asset] = ledger
	v.mu.Unlock()
}
