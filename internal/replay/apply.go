package replay

import (
	"fmt"

	"github.com/inedibleX/goat-trading/internal/pair"
	"github.com/inedibleX/goat-trading/internal/token"
)

// Apply executes one journal operation against the venue. The operation
// either commits in full or leaves the venue untouched; errors are returned
// for the runner to report.
func (v *Venue) Apply(op Op) error {
	v.advance(op.Ts)

	switch op.Op {
	case OpCreateToken:
		return v.applyCreateToken(op)
	case OpMintBase:
		return v.applyMintBase(op)
	case OpCreatePool:
		return v.applyCreatePool(op)
	case OpAddLiquidity:
		return v.applyAddLiquidity(op)
	case OpRemoveLiquidity:
		return v.applyRemoveLiquidity(op)
	case OpSwapBase:
		return v.applySwapBase(op)
	case OpSwapToken:
		return v.applySwapToken(op)
	case OpWithdrawFees:
		return v.applyWithdrawFees(op)
	case OpSync:
		return v.applySync(op)
	case OpSweepExcess:
		return v.applySweepExcess(op)
	case OpTakeover:
		return v.applyTakeover(op)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOp, op.Op)
	}
}

func (v *Venue) applyCreateToken(op Op) error {
	asset, err := parseAddress(op.Asset, "asset")
	if err != nil {
		return err
	}
	symbol := op.Symbol
	if symbol == "" {
		symbol = asset.Hex()
	}

	var ledger token.Ledger
	if op.TaxBps > 0 {
		ledger = token.NewTaxedAsset(symbol, op.TaxBps, v.cfg.Treasury)
	} else {
		ledger = token.NewAsset(symbol)
	}
	v.RegisterAsset(asset, ledger)

	if op.To != "" && op.Amount != "" {
		to, err := parseAddress(op.To, "to")
		if err != nil {
			return err
		}
		amount, err := parseAmount(op.Amount)
		if err != nil {
			return err
		}
		switch typed := ledger.(type) {
		case *token.Asset:
			typed.Mint(to, amount)
		case *token.TaxedAsset:
			typed.Mint(to, amount)
		}
	}
	return nil
}

func (v *Venue) applyMintBase(op Op) error {
	to, err := parseAddress(op.To, "to")
	if err != nil {
		return err
	}
	amount, err := parseAmount(op.Amount)
	if err != nil {
		return err
	}
	v.Base.Mint(to, amount)
	return nil
}

func (v *Venue) applyCreatePool(op Op) error {
	tokenAddr, err := parseAddress(op.Token, "token")
	if err != nil {
		return err
	}
	params, err := op.initParams()
	if err != nil {
		return err
	}
	_, err = v.Registry.CreatePool(tokenAddr, params)
	return err
}

func (v *Venue) applyAddLiquidity(op Op) error {
	p, tokenLedger, err := v.poolAndLedger(op.Token)
	if err != nil {
		return err
	}
	from, err := parseAddress(op.From, "from")
	if err != nil {
		return err
	}
	baseAmount, err := parseAmount(op.BaseAmount)
	if err != nil {
		return err
	}
	tokenAmount, err := parseAmount(op.TokenAmount)
	if err != nil {
		return err
	}
	minShares, err := optionalAmount(op.MinShares)
	if err != nil {
		return err
	}
	_, err = v.Router.AddLiquidity(p, v.Base, tokenLedger, from, baseAmount, tokenAmount, minShares, op.Deadline)
	return err
}

func (v *Venue) applyRemoveLiquidity(op Op) error {
	p, _, err := v.poolAndLedger(op.Token)
	if err != nil {
		return err
	}
	from, err := parseAddress(op.From, "from")
	if err != nil {
		return err
	}
	shares, err := parseAmount(op.Shares)
	if err != nil {
		return err
	}
	minBase, err := optionalAmount(op.MinBase)
	if err != nil {
		return err
	}
	minToken, err := optionalAmount(op.MinToken)
	if err != nil {
		return err
	}
	_, _, err = v.Router.RemoveLiquidity(p, from, shares, minBase, minToken, op.Deadline)
	return err
}

func (v *Venue) applySwapBase(op Op) error {
	p, _, err := v.poolAndLedger(op.Token)
	if err != nil {
		return err
	}
	from, err := parseAddress(op.From, "from")
	if err != nil {
		return err
	}
	baseIn, err := parseAmount(op.Amount)
	if err != nil {
		return err
	}
	minOut, err := optionalAmount(op.MinOut)
	if err != nil {
		return err
	}
	_, err = v.Router.SwapBaseForTokens(p, v.Base, from, baseIn, minOut, v.cfg.FeeBps, op.Deadline)
	return err
}

func (v *Venue) applySwapToken(op Op) error {
	p, tokenLedger, err := v.poolAndLedger(op.Token)
	if err != nil {
		return err
	}
	from, err := parseAddress(op.From, "from")
	if err != nil {
		return err
	}
	tokenIn, err := parseAmount(op.Amount)
	if err != nil {
		return err
	}
	minOut, err := optionalAmount(op.MinOut)
	if err != nil {
		return err
	}
	_, err = v.Router.SwapTokensForBase(p, tokenLedger, from, tokenIn, minOut, v.cfg.FeeBps, op.Deadline)
	return err
}

func (v *Venue) applyWithdrawFees(op Op) error {
	p, _, err := v.poolAndLedger(op.Token)
	if err != nil {
		return err
	}
	from, err := parseAddress(op.From, "from")
	if err != nil {
		return err
	}
	_, err = p.WithdrawFees(from)
	return err
}

func (v *Venue) applySync(op Op) error {
	p, _, err := v.poolAndLedger(op.Token)
	if err != nil {
		return err
	}
	return p.Sync()
}

func (v *Venue) applySweepExcess(op Op) error {
	p, _, err := v.poolAndLedger(op.Token)
	if err != nil {
		return err
	}
	_, err = p.SweepExcessToken()
	return err
}

func (v *Venue) applyTakeover(op Op) error {
	p, _, err := v.poolAndLedger(op.Token)
	if err != nil {
		return err
	}
	newProvider, err := parseAddress(op.From, "from")
	if err != nil {
		return err
	}
	params, err := op.initParams()
	if err != nil {
		return err
	}
	return p.Takeover(newProvider, params)
}

func (v *Venue) poolAndLedger(tokenField string) (*pair.Pair, token.Ledger, error) {
	tokenAddr, err := parseAddress(tokenField, "token")
	if err != nil {
		return nil, nil, err
	}
	p, err := v.Registry.Pool(tokenAddr)
	if err != nil {
		return nil, nil, err
	}
	ledger, err := v.Ledger(tokenAddr)
	if err != nil {
		return nil, nil, err
	}
	return p, ledger, nil
}
