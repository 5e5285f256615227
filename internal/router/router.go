// Package router is the stateless convenience layer over the pair engine: it
// computes quotes from pool reads, sequences asset transfers ahead of pair
// calls, and enforces caller deadlines and slippage bounds. It owns no state
// and never prices anything itself beyond delegating to the pricing library.
package router

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/inedibleX/goat-trading/internal/pair"
	"github.com/inedibleX/goat-trading/internal/pricing"
	"github.com/inedibleX/goat-trading/internal/token"
)

var (
	ErrExpired        = errors.New("router: deadline expired")
	ErrSlippage       = errors.New("router: output below minimum")
	ErrExcessiveInput = errors.New("router: input above maximum")
	ErrInvalidAmounts = errors.New("router: invalid amounts")
)

// Router batches transfers and pair calls for end users.
type Router struct {
	clock pair.Clock
}

func New(clock pair.Clock) *Router {
	return &Router{clock: clock}
}

// checkDeadline aborts an operation that begins after its deadline. Zero
// means no deadline.
func (r *Router) checkDeadline(deadline uint64) error {
	if deadline != 0 && r.clock() > deadline {
		return ErrExpired
	}
	return nil
}

// QuoteTokenOut prices a base deposit against the pool's current phase.
func (r *Router) QuoteTokenOut(p *pair.Pair, baseIn *big.Int, feeBps uint64) (*big.Int, error) {
	reserveBase, reserveToken := p.ReservesAmm()
	if p.Phase() == pair.PhasePresale {
		fee := new(big.Int).Mul(baseIn, new(big.Int).SetUint64(feeBps))
		fee.Div(fee, big.NewInt(pricing.BpsDenominator))
		netIn := new(big.Int).Sub(baseIn, fee)

		baseSide, tokenSide := p.ReservesPresale()
		virtualBase := new(big.Int).Sub(baseSide, reserveBase)
		virtualToken := new(big.Int).Sub(tokenSide, reserveToken)
		out, _, err := pricing.TokenOutPresale(netIn, virtualBase, reserveBase, p.BootstrapBase(),
			reserveToken, virtualToken, p.AmmTokenReserve())
		return out, err
	}
	out, _, err := pricing.TokenOutAmm(baseIn, reserveBase, reserveToken, feeBps)
	return out, err
}

// QuoteBaseOut prices a token sale against the pool's current phase.
func (r *Router) QuoteBaseOut(p *pair.Pair, tokenIn *big.Int, feeBps uint64) (*big.Int, error) {
	reserveBase, reserveToken := p.ReservesAmm()
	if p.Phase() == pair.PhasePresale {
		baseSide, tokenSide := p.ReservesPresale()
		virtualBase := new(big.Int).Sub(baseSide, reserveBase)
		virtualToken := new(big.Int).Sub(tokenSide, reserveToken)
		gross, err := pricing.BaseOutPresale(tokenIn, virtualBase, reserveBase, reserveToken, virtualToken)
		if err != nil {
			return nil, err
		}
		fee := new(big.Int).Mul(gross, new(big.Int).SetUint64(feeBps))
		fee.Div(fee, big.NewInt(pricing.BpsDenominator))
		return gross.Sub(gross, fee), nil
	}
	out, _, err := pricing.BaseOutAmm(tokenIn, reserveBase, reserveToken, feeBps)
	return out, err
}

// AddLiquidity transfers both assets into the pair and mints shares.
func (r *Router) AddLiquidity(p *pair.Pair, baseLedger, tokenLedger token.Ledger,
	from common.Address, baseAmount, tokenAmount, minShares *big.Int, deadline uint64) (*big.Int, error) {

	if err := r.checkDeadline(deadline); err != nil {
		return nil, err
	}
	if baseAmount == nil || tokenAmount == nil {
		return nil, ErrInvalidAmounts
	}

	if baseAmount.Sign() > 0 {
		if err := baseLedger.Transfer(from, p.Address(), baseAmount); err != nil {
			return nil, fmt.Errorf("transfer base: %w", err)
		}
	}
	if tokenAmount.Sign() > 0 {
		if err := tokenLedger.Transfer(from, p.Address(), tokenAmount); err != nil {
			return nil, fmt.Errorf("transfer token: %w", err)
		}
	}

	shares, err := p.Mint(from)
	if err != nil {
		return nil, err
	}
	if minShares != nil && shares.Cmp(minShares) < 0 {
		return nil, ErrSlippage
	}
	return shares, nil
}

// RemoveLiquidity transfers shares into the pair and burns them.
func (r *Router) RemoveLiquidity(p *pair.Pair, from common.Address,
	shares, minBase, minToken *big.Int, deadline uint64) (baseOut, tokenOut *big.Int, err error) {

	if err := r.checkDeadline(deadline); err != nil {
		return nil, nil, err
	}
	if err := p.Shares().Transfer(from, p.Address(), shares); err != nil {
		return nil, nil, fmt.Errorf("transfer shares: %w", err)
	}

	baseOut, tokenOut, err = p.Burn(from)
	if err != nil {
		return nil, nil, err
	}
	if minBase != nil && baseOut.Cmp(minBase) < 0 {
		return nil, nil, ErrSlippage
	}
	if minToken != nil && tokenOut.Cmp(minToken) < 0 {
		return nil, nil, ErrSlippage
	}
	return baseOut, tokenOut, nil
}

// SwapBaseForTokens settles baseIn into the pair, quotes the output from the
// delta the pair will actually see, and executes the swap. Works unchanged
// for transfer-taxed base assets because the quote follows the pair balance,
// not the declared amount.
func (r *Router) SwapBaseForTokens(p *pair.Pair, baseLedger token.Ledger,
	from common.Address, baseIn, minTokenOut *big.Int, feeBps uint64, deadline uint64) (*big.Int, error) {

	if err := r.checkDeadline(deadline); err != nil {
		return nil, err
	}
	if baseIn == nil || baseIn.Sign() <= 0 {
		return nil, ErrInvalidAmounts
	}

	before := baseLedger.BalanceOf(p.Address())
	if err := baseLedger.Transfer(from, p.Address(), baseIn); err != nil {
		return nil, fmt.Errorf("transfer base: %w", err)
	}
	received := new(big.Int).Sub(baseLedger.BalanceOf(p.Address()), before)

	out, err := r.QuoteTokenOut(p, received, feeBps)
	if err != nil {
		return nil, err
	}
	if minTokenOut != nil && out.Cmp(minTokenOut) < 0 {
		return nil, ErrSlippage
	}
	if err := p.Swap(out, nil, from); err != nil {
		return nil, err
	}
	return out, nil
}

// SwapTokensForBase settles tokenIn into the pair and executes the sell.
func (r *Router) SwapTokensForBase(p *pair.Pair, tokenLedger token.Ledger,
	from common.Address, tokenIn, minBaseOut *big.Int, feeBps uint64, deadline uint64) (*big.Int, error) {

	if err := r.checkDeadline(deadline); err != nil {
		return nil, err
	}
	if tokenIn == nil || tokenIn.Sign() <= 0 {
		return nil, ErrInvalidAmounts
	}

	before := tokenLedger.BalanceOf(p.Address())
	if err := tokenLedger.Transfer(from, p.Address(), tokenIn); err != nil {
		return nil, fmt.Errorf("transfer token: %w", err)
	}
	received := new(big.Int).Sub(tokenLedger.BalanceOf(p.Address()), before)

	out, err := r.QuoteBaseOut(p, received, feeBps)
	if err != nil {
		return nil, err
	}
	if minBaseOut != nil && out.Cmp(minBaseOut) < 0 {
		return nil, ErrSlippage
	}
	if err := p.Swap(nil, out, from); err != nil {
		return nil, err
	}
	return out, nil
}
