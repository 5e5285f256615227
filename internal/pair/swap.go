package pair

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/inedibleX/goat-trading/internal/model"
	"github.com/inedibleX/goat-trading/internal/pricing"
)

// Swap executes a trade against the pool. The input asset must already sit in
// the pair account; the engine prices the balance delta it actually received,
// never a caller-declared amount, so transfer-taxed inputs and reentrant
// balance drift cannot overdraw the pool. Exactly one of tokenOut and baseOut
// must be positive, and it must not exceed what the received input is worth.
//
// A presale buy that crosses the bootstrap target is priced on both curves
// and converts the pool to the Amm phase within this same call.
func (p *Pair) Swap(tokenOut, baseOut *big.Int, to common.Address) error {
	if !p.mu.TryLock() {
		return ErrReentrantCall
	}
	defer p.mu.Unlock()

	if !p.initialized {
		return ErrNotInitialized
	}
	if tokenOut == nil {
		tokenOut = big.NewInt(0)
	}
	if baseOut == nil {
		baseOut = big.NewInt(0)
	}
	if tokenOut.Sign() > 0 && baseOut.Sign() > 0 {
		return ErrMultipleOutputs
	}
	if tokenOut.Sign() <= 0 && baseOut.Sign() <= 0 {
		return ErrInsufficientOutput
	}

	var err error
	if tokenOut.Sign() > 0 {
		err = p.swapBaseForToken(tokenOut, to)
	} else {
		err = p.swapTokenForBase(baseOut, to)
	}
	if err != nil {
		return err
	}

	p.sweepProtocolIfDue()
	return nil
}

func (p *Pair) swapBaseForToken(tokenOut *big.Int, to common.Address) error {
	baseIn := p.baseDelta()
	if baseIn.Sign() <= 0 {
		return ErrInsufficientInput
	}
	if tokenOut.Cmp(p.reserveToken) >= 0 {
		return ErrInsufficientOutput
	}

	converted := false
	var fee *big.Int

	if p.phase == PhasePresale {
		fee = new(big.Int).Mul(baseIn, new(big.Int).SetUint64(p.cfg.FeeBps))
		fee.Div(fee, big.NewInt(pricing.BpsDenominator))
		netIn := new(big.Int).Sub(baseIn, fee)

		out, presalePart, err := pricing.TokenOutPresale(
			netIn, p.virtualBase, p.reserveBase, p.bootstrapBase,
			p.reserveToken, p.virtualToken, p.ammTokenReserve)
		if err != nil {
			return err
		}
		if tokenOut.Cmp(out) > 0 {
			return ErrInsufficientInput
		}

		p.reserveBase.Add(p.reserveBase, netIn)
		p.reserveToken.Sub(p.reserveToken, tokenOut)

		credit := tokenOut
		if presalePart.Cmp(credit) < 0 {
			credit = presalePart
		}
		p.creditPresale(to, credit)

		p.fees.Accrue(fee, p.shares.TotalSupply(), true)

		if p.reserveBase.Cmp(p.bootstrapBase) >= 0 {
			p.convert()
			converted = true
		}
	} else {
		out, ammFee, err := pricing.TokenOutAmm(baseIn, p.reserveBase, p.reserveToken, p.cfg.FeeBps)
		if err != nil {
			return err
		}
		if tokenOut.Cmp(out) > 0 {
			return ErrInsufficientInput
		}
		fee = ammFee
		netIn := new(big.Int).Sub(baseIn, fee)

		k := new(big.Int).Mul(p.reserveBase, p.reserveToken)
		newBase := new(big.Int).Add(p.reserveBase, netIn)
		newToken := new(big.Int).Sub(p.reserveToken, tokenOut)
		if new(big.Int).Mul(newBase, newToken).Cmp(k) < 0 {
			return ErrInvariantViolated
		}

		p.reserveBase = newBase
		p.reserveToken = newToken
		p.fees.Accrue(fee, p.shares.TotalSupply(), false)
	}

	if err := p.cfg.TokenLedger.Transfer(p.addr, to, tokenOut); err != nil {
		return err
	}

	p.emit(model.EventSwap, model.SwapEventData{
		To:           to.Hex(),
		BaseIn:       baseIn.String(),
		TokenIn:      "0",
		BaseOut:      "0",
		TokenOut:     tokenOut.String(),
		Fee:          fee.String(),
		ReserveBase:  p.reserveBase.String(),
		ReserveToken: p.reserveToken.String(),
	})
	if converted {
		p.emit(model.EventConverted, model.ConvertedEventData{
			ReserveBase:  p.reserveBase.String(),
			ReserveToken: p.reserveToken.String(),
			VestingUntil: p.vestingUntil,
		})
	}
	return nil
}

func (p *Pair) swapTokenForBase(baseOut *big.Int, to common.Address) error {
	tokenIn := p.tokenDelta()
	if tokenIn.Sign() <= 0 {
		return ErrInsufficientInput
	}

	var fee *big.Int

	if p.phase == PhasePresale {
		// Presale sells are capped by what the seller bought on the curve.
		balance := p.presaleBalances[to]
		if balance == nil || balance.Cmp(tokenIn) < 0 {
			return ErrPresaleBalance
		}

		gross, err := pricing.BaseOutPresale(tokenIn, p.virtualBase, p.reserveBase, p.reserveToken, p.virtualToken)
		if err != nil {
			return err
		}
		fee = new(big.Int).Mul(gross, new(big.Int).SetUint64(p.cfg.FeeBps))
		fee.Div(fee, big.NewInt(pricing.BpsDenominator))
		netOut := new(big.Int).Sub(gross, fee)
		if baseOut.Cmp(netOut) > 0 {
			return ErrInsufficientInput
		}

		balance.Sub(balance, tokenIn)
		p.reserveToken.Add(p.reserveToken, tokenIn)
		p.reserveBase.Sub(p.reserveBase, new(big.Int).Add(baseOut, fee))
		p.fees.Accrue(fee, p.shares.TotalSupply(), true)
	} else {
		netOut, ammFee, err := pricing.BaseOutAmm(tokenIn, p.reserveBase, p.reserveToken, p.cfg.FeeBps)
		if err != nil {
			return err
		}
		if baseOut.Cmp(netOut) > 0 {
			return ErrInsufficientInput
		}
		fee = ammFee

		k := new(big.Int).Mul(p.reserveBase, p.reserveToken)
		newBase := new(big.Int).Sub(p.reserveBase, new(big.Int).Add(baseOut, fee))
		newToken := new(big.Int).Add(p.reserveToken, tokenIn)
		if new(big.Int).Mul(newBase, newToken).Cmp(k) < 0 {
			return ErrInvariantViolated
		}

		p.reserveBase = newBase
		p.reserveToken = newToken
		p.fees.Accrue(fee, p.shares.TotalSupply(), false)
	}

	if err := p.cfg.BaseLedger.Transfer(p.addr, to, baseOut); err != nil {
		return err
	}

	p.emit(model.EventSwap, model.SwapEventData{
		To:           to.Hex(),
		BaseIn:       "0",
		TokenIn:      tokenIn.String(),
		BaseOut:      baseOut.String(),
		TokenOut:     "0",
		Fee:          fee.String(),
		ReserveBase:  p.reserveBase.String(),
		ReserveToken: p.reserveToken.String(),
	})
	return nil
}

// convert performs the one-way presale -> Amm transition. Must be called with
// p.mu held; idempotent because the phase check gates every caller.
func (p *Pair) convert() {
	now := p.cfg.Clock()
	p.phase = PhaseAmm
	p.vestingUntil = now + p.cfg.VestingPeriod

	p.lock.mu.Lock()
	p.lock.presale = false
	p.lock.unlockAt = p.vestingUntil
	p.lock.mu.Unlock()

	p.logger.Info("pool converted to amm",
		zap.String("pool", p.addr.Hex()),
		zap.String("reserve_base", p.reserveBase.String()),
		zap.String("reserve_token", p.reserveToken.String()),
		zap.Uint64("vesting_until", p.vestingUntil),
	)
}

// Sync reconciles recorded reserves with the balances actually held,
// absorbing drift left behind by transfer-taxed settlements. Pending fees
// keep their slice of the base balance.
func (p *Pair) Sync() error {
	if !p.mu.TryLock() {
		return ErrReentrantCall
	}
	defer p.mu.Unlock()

	if !p.initialized {
		return ErrNotInitialized
	}

	baseBalance := p.cfg.BaseLedger.BalanceOf(p.addr)
	baseBalance.Sub(baseBalance, p.fees.PendingTotal())
	if baseBalance.Sign() < 0 {
		baseBalance.SetInt64(0)
	}
	if p.phase == PhasePresale && baseBalance.Cmp(p.bootstrapBase) >= 0 {
		// Donations can carry the pool to its funding target without a buy.
		// Conversion happens here, inside the crossing operation; base above
		// the target stays as drift for the next reconciliation.
		p.reserveBase = new(big.Int).Set(p.bootstrapBase)
		p.reserveToken = p.cfg.TokenLedger.BalanceOf(p.addr)
		p.convert()
	} else {
		p.reserveBase = baseBalance
		p.reserveToken = p.cfg.TokenLedger.BalanceOf(p.addr)
	}

	p.emit(model.EventSync, model.SyncEventData{
		ReserveBase:  p.reserveBase.String(),
		ReserveToken: p.reserveToken.String(),
	})
	return nil
}

// SweepExcessToken forwards token balance that sits above the recorded
// reserve to the treasury. Stray direct transfers are recoverable this way
// but can never be claimed as swap output.
func (p *Pair) SweepExcessToken() (*big.Int, error) {
	if !p.mu.TryLock() {
		return nil, ErrReentrantCall
	}
	defer p.mu.Unlock()

	if !p.initialized {
		return nil, ErrNotInitialized
	}

	excess := p.tokenDelta()
	if excess.Sign() <= 0 {
		return nil, ErrNoExcess
	}
	if err := p.cfg.TokenLedger.Transfer(p.addr, p.cfg.Treasury, excess); err != nil {
		return nil, err
	}

	p.emit(model.EventSweep, model.SweepEventData{
		Asset:  p.cfg.Token.Hex(),
		To:     p.cfg.Treasury.Hex(),
		Amount: excess.String(),
	})
	return excess, nil
}

// sweepProtocolIfDue forwards the accrued protocol fee once it crosses the
// configured minimum. Must be called with p.mu held.
func (p *Pair) sweepProtocolIfDue() {
	swept := p.fees.SweepProtocol()
	if swept == nil {
		return
	}
	if err := p.cfg.BaseLedger.Transfer(p.addr, p.cfg.Treasury, swept); err != nil {
		p.logger.Error("protocol sweep transfer failed", zap.Error(err), zap.String("amount", swept.String()))
		return
	}
	p.emit(model.EventProtocolSweep, model.ProtocolSweepEventData{
		Treasury: p.cfg.Treasury.Hex(),
		Amount:   swept.String(),
	})
}

func (p *Pair) creditPresale(user common.Address, amount *big.Int) {
	if amount.Sign() <= 0 {
		return
	}
	balance := p.presaleBalances[user]
	if balance == nil {
		balance = big.NewInt(0)
		p.presaleBalances[user] = balance
	}
	balance.Add(balance, amount)
}
