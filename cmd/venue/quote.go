package main

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/spf13/cobra"

	"github.com/inedibleX/goat-trading/internal/pricing"
)

// quoteResult is printed as JSON so scripts can consume it.
type quoteResult struct {
	Side          string `json:"side"`
	AmountIn      string `json:"amount_in"`
	Fee           string `json:"fee"`
	AmountOut     string `json:"amount_out"`
	PresaleTokens string `json:"presale_tokens"`
	AmmTokens     string `json:"amm_tokens"`
	ReserveBase   string `json:"reserve_base"`
	ReserveToken  string `json:"reserve_token"`
}

func newQuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a presale trade without touching venue state",
		RunE:  runQuote,
	}

	cmd.Flags().String("virtual-base", "", "virtual base reserve of the curve")
	cmd.Flags().String("bootstrap-base", "", "base funding target")
	cmd.Flags().String("initial-base", "0", "base prepaid by the pool creator")
	cmd.Flags().String("initial-share-match", "", "token supply committed to the pool")
	cmd.Flags().String("reserve-base", "", "base raised so far (defaults to initial-base)")
	cmd.Flags().String("amount", "", "input amount")
	cmd.Flags().String("side", "buy", "trade side (buy = base in, sell = token in)")
	cmd.Flags().Uint64("fee-bps", 99, "swap fee in basis points")

	return cmd
}

func runQuote(cmd *cobra.Command, _ []string) error {
	virtualBase, err := flagBigInt(cmd, "virtual-base")
	if err != nil {
		return err
	}
	bootstrapBase, err := flagBigInt(cmd, "bootstrap-base")
	if err != nil {
		return err
	}
	initialBase, err := flagBigInt(cmd, "initial-base")
	if err != nil {
		return err
	}
	initialShareMatch, err := flagBigInt(cmd, "initial-share-match")
	if err != nil {
		return err
	}
	amount, err := flagBigInt(cmd, "amount")
	if err != nil {
		return err
	}
	side, _ := cmd.Flags().GetString("side")
	feeBps, _ := cmd.Flags().GetUint64("fee-bps")

	reserveBase := initialBase
	if raw, _ := cmd.Flags().GetString("reserve-base"); raw != "" {
		reserveBase, err = flagBigInt(cmd, "reserve-base")
		if err != nil {
			return err
		}
	}

	presale, amm, err := pricing.TokenAmountsForPresaleAndAmm(virtualBase, bootstrapBase, initialBase, initialShareMatch)
	if err != nil {
		return err
	}
	virtualToken := pricing.VirtualTokenReserve(virtualBase, bootstrapBase, initialShareMatch, amm)

	// Token reserve implied by buy-only progress to reserveBase.
	k := new(big.Int).Mul(virtualBase, initialShareMatch)
	curveSide := new(big.Int).Div(k, new(big.Int).Add(virtualBase, reserveBase))
	reserveToken := new(big.Int).Sub(curveSide, virtualToken)

	result := quoteResult{
		Side:          side,
		AmountIn:      amount.String(),
		PresaleTokens: presale.String(),
		AmmTokens:     amm.String(),
		ReserveBase:   reserveBase.String(),
		ReserveToken:  reserveToken.String(),
	}

	switch side {
	case "buy":
		fee := new(big.Int).Mul(amount, new(big.Int).SetUint64(feeBps))
		fee.Div(fee, big.NewInt(pricing.BpsDenominator))
		netIn := new(big.Int).Sub(amount, fee)
		out, _, err := pricing.TokenOutPresale(netIn, virtualBase, reserveBase, bootstrapBase, reserveToken, virtualToken, amm)
		if err != nil {
			return err
		}
		result.Fee = fee.String()
		result.AmountOut = out.String()
	case "sell":
		gross, err := pricing.BaseOutPresale(amount, virtualBase, reserveBase, reserveToken, virtualToken)
		if err != nil {
			return err
		}
		fee := new(big.Int).Mul(gross, new(big.Int).SetUint64(feeBps))
		fee.Div(fee, big.NewInt(pricing.BpsDenominator))
		result.Fee = fee.String()
		result.AmountOut = new(big.Int).Sub(gross, fee).String()
	default:
		return fmt.Errorf("invalid side: %q", side)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func flagBigInt(cmd *cobra.Command, name string) (*big.Int, error) {
	raw, err := cmd.Flags().GetString(name)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, fmt.Errorf("%s is required", name)
	}
	parsed, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return parsed, nil
}
