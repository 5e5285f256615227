// Package pricing holds the pure conversion math for the venue: the presale
// bonding curve, the constant-product formulas, and the bootstrap sizing
// functions. Nothing here touches state; every function is deterministic in
// its inputs and every division floors.
package pricing

import (
	"errors"
	"math/big"
)

// BpsDenominator is the basis-point scale used for fee rates.
const BpsDenominator = 10000

var (
	ErrInsufficientAmount    = errors.New("pricing: insufficient amount")
	ErrInsufficientLiquidity = errors.New("pricing: insufficient liquidity")
	ErrInvalidParams         = errors.New("pricing: invalid parameters")
)

// Quote returns the amount of B proportional to amountA at the reserve ratio.
// Used for ratio-matching liquidity deposits, never for swaps.
func Quote(amountA, reserveA, reserveB *big.Int) (*big.Int, error) {
	if amountA == nil || amountA.Sign() <= 0 {
		return nil, ErrInsufficientAmount
	}
	if reserveA == nil || reserveB == nil || reserveA.Sign() <= 0 || reserveB.Sign() <= 0 {
		return nil, ErrInsufficientLiquidity
	}
	out := new(big.Int).Mul(amountA, reserveB)
	return out.Div(out, reserveA), nil
}

// TokenAmountsForPresaleAndAmm sizes the token deposit that backs a pool.
//
// The presale curve is the constant product K = virtualBase × initialShareMatch
// evaluated over (virtualBase + reserveBase): the token side starts at
// initialShareMatch and shrinks to K/(virtualBase+bootstrapBase) when the
// bootstrap target is met, so the presale tranche is the difference. The AMM
// tranche seeds the post-conversion reserve at the same marginal price, which
// pins it to K × bootstrapBase / (virtualBase+bootstrapBase)².
//
// initialBase is base asset the creator settles up front; it consumes the
// presale tranche as if it had been deposited through the curve. With
// initialBase == bootstrapBase the presale tranche is zero (direct launch).
func TokenAmountsForPresaleAndAmm(virtualBase, bootstrapBase, initialBase, initialShareMatch *big.Int) (presale, amm *big.Int, err error) {
	if virtualBase == nil || bootstrapBase == nil || initialShareMatch == nil ||
		virtualBase.Sign() <= 0 || bootstrapBase.Sign() <= 0 || initialShareMatch.Sign() <= 0 {
		return nil, nil, ErrInvalidParams
	}
	if initialBase == nil {
		initialBase = big.NewInt(0)
	}
	if initialBase.Sign() < 0 || initialBase.Cmp(bootstrapBase) > 0 {
		return nil, nil, ErrInvalidParams
	}

	k := new(big.Int).Mul(virtualBase, initialShareMatch)
	denom := new(big.Int).Add(virtualBase, bootstrapBase)

	// Token side of the curve once the bootstrap target is fully met.
	sideAtTarget := new(big.Int).Div(k, denom)

	// Token side of the curve at the creator's prefunded position.
	sideAtInitial := new(big.Int).Add(virtualBase, initialBase)
	sideAtInitial.Div(k, sideAtInitial)

	presale = new(big.Int).Sub(sideAtInitial, sideAtTarget)

	amm = new(big.Int).Mul(k, bootstrapBase)
	amm.Div(amm, denom)
	amm.Div(amm, denom)
	if amm.Sign() == 0 {
		return nil, nil, ErrInsufficientLiquidity
	}
	return presale, amm, nil
}

// ActualBootstrapTokenAmount is the total token deposit a creator owes.
func ActualBootstrapTokenAmount(virtualBase, bootstrapBase, initialBase, initialShareMatch *big.Int) (*big.Int, error) {
	presale, amm, err := TokenAmountsForPresaleAndAmm(virtualBase, bootstrapBase, initialBase, initialShareMatch)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Add(presale, amm), nil
}

// VirtualTokenReserve derives the additive token-side offset of the presale
// curve from the pool parameters. During the presale the real token reserve is
// presaleRemaining + ammReserve, so the curve side is virtualToken + reserve.
func VirtualTokenReserve(virtualBase, bootstrapBase, initialShareMatch, tokenReserveForAmm *big.Int) *big.Int {
	k := new(big.Int).Mul(virtualBase, initialShareMatch)
	denom := new(big.Int).Add(virtualBase, bootstrapBase)
	side := k.Div(k, denom)
	return side.Sub(side, tokenReserveForAmm)
}

// TokenOutPresale prices a base deposit while the pool is in presale. The
// deposit is split at the bootstrap target: base up to the target moves along
// the bonding curve, any remainder is priced on the constant-product curve
// seeded with the AMM-reserved token amount. The total equals executing the
// two legs as sequential deposits, so a crossing deposit gains nothing over a
// pair of exact ones.
//
// baseIn is net of fees. The returned presalePart is the token amount released
// by the bonding-curve leg.
func TokenOutPresale(baseIn, virtualBase, reserveBase, bootstrapBase, reserveToken, virtualToken, tokenReserveForAmm *big.Int) (out, presalePart *big.Int, err error) {
	if baseIn == nil || baseIn.Sign() <= 0 {
		return nil, nil, ErrInsufficientAmount
	}
	if reserveBase.Cmp(bootstrapBase) >= 0 {
		return nil, nil, ErrInvalidParams
	}

	baseSide := new(big.Int).Add(virtualBase, reserveBase)
	tokenSide := new(big.Int).Add(virtualToken, reserveToken)
	k := new(big.Int).Mul(baseSide, tokenSide)

	remaining := new(big.Int).Sub(bootstrapBase, reserveBase)
	if baseIn.Cmp(remaining) <= 0 {
		newSide := new(big.Int).Add(baseSide, baseIn)
		newTokenSide := new(big.Int).Div(k, newSide)
		out = new(big.Int).Sub(tokenSide, newTokenSide)
		if out.Sign() <= 0 {
			return nil, nil, ErrInsufficientAmount
		}
		return out, new(big.Int).Set(out), nil
	}

	// Crossing deposit: exhaust the curve at the target, then price the
	// remainder against the freshly seeded AMM reserves.
	targetSide := new(big.Int).Add(virtualBase, bootstrapBase)
	tokenSideAtTarget := new(big.Int).Div(k, targetSide)
	presalePart = new(big.Int).Sub(tokenSide, tokenSideAtTarget)

	ammIn := new(big.Int).Sub(baseIn, remaining)
	ammOut := new(big.Int).Mul(tokenReserveForAmm, ammIn)
	ammOut.Div(ammOut, new(big.Int).Add(bootstrapBase, ammIn))

	out = new(big.Int).Add(presalePart, ammOut)
	if out.Sign() <= 0 {
		return nil, nil, ErrInsufficientAmount
	}
	return out, presalePart, nil
}

// BaseOutPresale prices a token sale back along the bonding curve. tokenIn is
// the amount received; the returned base amount is gross of fees.
func BaseOutPresale(tokenIn, virtualBase, reserveBase, reserveToken, virtualToken *big.Int) (*big.Int, error) {
	if tokenIn == nil || tokenIn.Sign() <= 0 {
		return nil, ErrInsufficientAmount
	}
	baseSide := new(big.Int).Add(virtualBase, reserveBase)
	tokenSide := new(big.Int).Add(virtualToken, reserveToken)

	out := new(big.Int).Mul(baseSide, tokenIn)
	out.Div(out, new(big.Int).Add(tokenSide, tokenIn))
	if out.Sign() <= 0 {
		return nil, ErrInsufficientAmount
	}
	if out.Cmp(reserveBase) > 0 {
		return nil, ErrInsufficientLiquidity
	}
	return out, nil
}

// TokenOutAmm is the constant-product buy. The fee is charged on the base
// input before the invariant math; the fee amount stays in base units.
func TokenOutAmm(baseIn, reserveBase, reserveToken *big.Int, feeBps uint64) (out, fee *big.Int, err error) {
	if baseIn == nil || baseIn.Sign() <= 0 {
		return nil, nil, ErrInsufficientAmount
	}
	if reserveBase.Sign() <= 0 || reserveToken.Sign() <= 0 {
		return nil, nil, ErrInsufficientLiquidity
	}

	netIn := new(big.Int).Mul(baseIn, big.NewInt(BpsDenominator-int64(feeBps)))
	netIn.Div(netIn, big.NewInt(BpsDenominator))
	fee = new(big.Int).Sub(baseIn, netIn)

	out = new(big.Int).Mul(reserveToken, netIn)
	out.Div(out, new(big.Int).Add(reserveBase, netIn))
	if out.Sign() <= 0 {
		return nil, nil, ErrInsufficientAmount
	}
	return out, fee, nil
}

// BaseOutAmm is the constant-product sell. The invariant is evaluated on the
// full token input; the fee is then carved out of the base output so fees are
// always collected in base units.
func BaseOutAmm(tokenIn, reserveBase, reserveToken *big.Int, feeBps uint64) (out, fee *big.Int, err error) {
	if tokenIn == nil || tokenIn.Sign() <= 0 {
		return nil, nil, ErrInsufficientAmount
	}
	if reserveBase.Sign() <= 0 || reserveToken.Sign() <= 0 {
		return nil, nil, ErrInsufficientLiquidity
	}

	gross := new(big.Int).Mul(reserveBase, tokenIn)
	gross.Div(gross, new(big.Int).Add(reserveToken, tokenIn))
	if gross.Sign() <= 0 {
		return nil, nil, ErrInsufficientAmount
	}
	if gross.Cmp(reserveBase) >= 0 {
		return nil, nil, ErrInsufficientLiquidity
	}

	out = new(big.Int).Mul(gross, big.NewInt(BpsDenominator-int64(feeBps)))
	out.Div(out, big.NewInt(BpsDenominator))
	fee = new(big.Int).Sub(gross, out)
	if out.Sign() <= 0 {
		return nil, nil, ErrInsufficientAmount
	}
	return out, fee, nil
}
