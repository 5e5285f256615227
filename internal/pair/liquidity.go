package pair

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/inedibleX/goat-trading/internal/model"
	"github.com/inedibleX/goat-trading/internal/pricing"
)

// Mint issues liquidity shares for balances already settled into the pair
// account (transfer-then-notify). The first mint bootstraps the pool: the
// creator must have delivered the full bootstrap token amount plus any
// declared initial base, and receives sqrt(virtualBase × initialShareMatch)
// shares less the permanently burned minimum. Later mints are only accepted
// in the Amm phase at the reserve ratio.
func (p *Pair) Mint(to common.Address) (*big.Int, error) {
	if !p.mu.TryLock() {
		return nil, ErrReentrantCall
	}
	defer p.mu.Unlock()

	if !p.initialized {
		return p.mintInitial(to)
	}
	if p.phase == PhasePresale {
		return nil, ErrPresaleLiquidity
	}

	baseIn := p.baseDelta()
	tokenIn := p.tokenDelta()
	if baseIn.Sign() <= 0 || tokenIn.Sign() <= 0 {
		return nil, ErrInsufficientDeposit
	}

	total := p.shares.TotalSupply()
	byBase := new(big.Int).Mul(baseIn, total)
	byBase.Div(byBase, p.reserveBase)
	byToken := new(big.Int).Mul(tokenIn, total)
	byToken.Div(byToken, p.reserveToken)

	minted := byBase
	if byToken.Cmp(minted) < 0 {
		minted = byToken
	}
	if minted.Sign() <= 0 {
		return nil, ErrInsufficientShares
	}
	if err := p.shares.Mint(to, minted); err != nil {
		return nil, err
	}

	p.reserveBase.Add(p.reserveBase, baseIn)
	p.reserveToken.Add(p.reserveToken, tokenIn)

	p.emit(model.EventMint, model.MintEventData{
		To:         to.Hex(),
		BaseIn:     baseIn.String(),
		TokenIn:    tokenIn.String(),
		Shares:     minted.String(),
		TotalShare: p.shares.TotalSupply().String(),
	})
	return minted, nil
}

func (p *Pair) mintInitial(to common.Address) (*big.Int, error) {
	presaleTokens, ammTokens, err := pricing.TokenAmountsForPresaleAndAmm(
		p.virtualBase, p.bootstrapBase, p.initialBase, p.initialShareMatch)
	if err != nil {
		return nil, err
	}
	required := new(big.Int).Add(presaleTokens, ammTokens)

	baseIn := p.baseDelta()
	tokenIn := p.tokenDelta()
	if tokenIn.Cmp(required) < 0 {
		return nil, ErrInsufficientDeposit
	}
	if baseIn.Cmp(p.initialBase) < 0 {
		return nil, ErrInsufficientDeposit
	}

	totalShares := new(big.Int).Mul(p.virtualBase, p.initialShareMatch)
	totalShares.Sqrt(totalShares)
	minted, err := p.shares.MintInitial(to, totalShares)
	if err != nil {
		return nil, err
	}

	p.lock.mu.Lock()
	p.lock.provider = to
	p.lock.amount = new(big.Int).Set(minted)
	p.lock.presale = true
	p.lock.mu.Unlock()

	// Reserves are recorded at the declared terms; anything delivered beyond
	// them stays as balance drift for Sync or SweepExcessToken to pick up.
	p.reserveBase = new(big.Int).Set(p.initialBase)
	p.reserveToken = required
	p.initialized = true

	p.logger.Info("pool bootstrapped",
		zap.String("pool", p.addr.Hex()),
		zap.String("provider", to.Hex()),
		zap.String("reserve_base", p.reserveBase.String()),
		zap.String("reserve_token", p.reserveToken.String()),
	)

	// Direct launch: the creator funded the full bootstrap target up front,
	// so the pool opens straight in the Amm phase.
	if p.reserveBase.Cmp(p.bootstrapBase) >= 0 {
		p.convert()
	}

	p.emit(model.EventMint, model.MintEventData{
		To:         to.Hex(),
		BaseIn:     baseIn.String(),
		TokenIn:    tokenIn.String(),
		Shares:     minted.String(),
		TotalShare: p.shares.TotalSupply().String(),
	})
	return minted, nil
}

// Burn redeems shares previously transferred into the pair account for a
// proportional split of real reserves.
func (p *Pair) Burn(to common.Address) (baseOut, tokenOut *big.Int, err error) {
	if !p.mu.TryLock() {
		return nil, nil, ErrReentrantCall
	}
	defer p.mu.Unlock()

	if !p.initialized {
		return nil, nil, ErrNotInitialized
	}
	if p.phase == PhasePresale {
		return nil, nil, ErrPresaleLiquidity
	}

	burned := p.shares.BalanceOf(p.addr)
	if burned.Sign() <= 0 {
		return nil, nil, ErrInsufficientBurn
	}

	total := p.shares.TotalSupply()
	baseOut = new(big.Int).Mul(burned, p.reserveBase)
	baseOut.Div(baseOut, total)
	tokenOut = new(big.Int).Mul(burned, p.reserveToken)
	tokenOut.Div(tokenOut, total)
	if baseOut.Sign() <= 0 || tokenOut.Sign() <= 0 {
		return nil, nil, ErrInsufficientBurn
	}

	// Both payouts are checked against held balances before any state moves.
	baseHeld := new(big.Int).Sub(p.cfg.BaseLedger.BalanceOf(p.addr), p.fees.PendingTotal())
	if baseHeld.Cmp(baseOut) < 0 || p.cfg.TokenLedger.BalanceOf(p.addr).Cmp(tokenOut) < 0 {
		return nil, nil, ErrBalanceShortfall
	}

	if err := p.shares.Burn(p.addr, burned); err != nil {
		return nil, nil, err
	}
	p.reserveBase.Sub(p.reserveBase, baseOut)
	p.reserveToken.Sub(p.reserveToken, tokenOut)

	if err := p.cfg.BaseLedger.Transfer(p.addr, to, baseOut); err != nil {
		return nil, nil, err
	}
	if err := p.cfg.TokenLedger.Transfer(p.addr, to, tokenOut); err != nil {
		return nil, nil, err
	}

	p.emit(model.EventBurn, model.BurnEventData{
		To:       to.Hex(),
		BaseOut:  baseOut.String(),
		TokenOut: tokenOut.String(),
		Shares:   burned.String(),
	})
	return baseOut, tokenOut, nil
}

// WithdrawFees pays a holder their accrued liquidity fees in base units and
// resets their checkpoint.
func (p *Pair) WithdrawFees(to common.Address) (*big.Int, error) {
	if !p.mu.TryLock() {
		return nil, ErrReentrantCall
	}
	defer p.mu.Unlock()

	claimed := p.fees.Claim(to, p.shares.BalanceOf(to))
	if claimed.Sign() == 0 {
		return claimed, nil
	}
	if err := p.cfg.BaseLedger.Transfer(p.addr, to, claimed); err != nil {
		return nil, err
	}

	p.emit(model.EventFeesWithdrawn, model.FeesWithdrawnEventData{
		To:     to.Hex(),
		Amount: claimed.String(),
	})
	return claimed, nil
}

// Takeover replaces the recorded initial provider during the presale. The new
// provider must already have settled a token deposit covering the remaining
// presale tranche plus the AMM reserve on terms at least as good as the
// original commitment. The locked share position and its future fee accrual
// move to the new provider; the old provider's remaining token backing is
// refunded.
func (p *Pair) Takeover(newProvider common.Address, params InitParams) error {
	if !p.mu.TryLock() {
		return ErrReentrantCall
	}
	defer p.mu.Unlock()

	if !p.initialized {
		return ErrNotInitialized
	}
	if p.phase != PhasePresale {
		return ErrTakeoverPhase
	}
	if err := params.Validate(); err != nil {
		return err
	}
	if params.VirtualBase.Cmp(p.virtualBase) != 0 ||
		params.BootstrapBase.Cmp(p.bootstrapBase) != 0 ||
		params.InitialShareMatch.Cmp(p.initialShareMatch) < 0 {
		return ErrTakeoverTerms
	}

	// Token backing required for the new terms, given presale progress so far.
	presaleTokens, ammTokens, err := pricing.TokenAmountsForPresaleAndAmm(
		params.VirtualBase, params.BootstrapBase, p.reserveBase, params.InitialShareMatch)
	if err != nil {
		return err
	}
	required := new(big.Int).Add(presaleTokens, ammTokens)

	deposited := p.tokenDelta()
	if deposited.Cmp(required) < 0 {
		return ErrTakeoverTerms
	}

	p.lock.mu.Lock()
	oldProvider := p.lock.provider
	locked := new(big.Int).Set(p.lock.amount)
	p.lock.mu.Unlock()

	if err := p.shares.ForceTransfer(oldProvider, newProvider, locked); err != nil {
		return err
	}

	p.lock.mu.Lock()
	p.lock.provider = newProvider
	p.lock.mu.Unlock()

	refund := new(big.Int).Set(p.reserveToken)
	p.initialShareMatch = new(big.Int).Set(params.InitialShareMatch)
	p.ammTokenReserve = ammTokens
	p.virtualToken = pricing.VirtualTokenReserve(p.virtualBase, p.bootstrapBase, p.initialShareMatch, p.ammTokenReserve)
	// Over-deposits stay out of the reserve so the curve bookkeeping holds;
	// they remain recoverable through SweepExcessToken.
	p.reserveToken = required

	if refund.Sign() > 0 {
		if err := p.cfg.TokenLedger.Transfer(p.addr, oldProvider, refund); err != nil {
			return err
		}
	}

	p.logger.Info("pool taken over",
		zap.String("pool", p.addr.Hex()),
		zap.String("old_provider", oldProvider.Hex()),
		zap.String("new_provider", newProvider.Hex()),
	)
	p.emit(model.EventTakeover, model.TakeoverEventData{
		OldProvider: oldProvider.Hex(),
		NewProvider: newProvider.Hex(),
		Locked:      locked.String(),
		Refund:      refund.String(),
	})
	return nil
}
