package replay

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/inedibleX/goat-trading/internal/pair"
)

// Operation names accepted in the journal.
const (
	OpCreateToken     = "create_token"
	OpMintBase        = "mint_base"
	OpCreatePool      = "create_pool"
	OpAddLiquidity    = "add_liquidity"
	OpRemoveLiquidity = "remove_liquidity"
	OpSwapBase        = "swap_base"
	OpSwapToken       = "swap_token"
	OpWithdrawFees    = "withdraw_fees"
	OpSync            = "sync"
	OpSweepExcess     = "sweep_excess"
	OpTakeover        = "takeover"
)

// Op is one journal line. Amount fields are decimal strings; address fields
// are hex. Ts advances the venue clock before the op applies.
type Op struct {
	Op string `json:"op"`
	Ts uint64 `json:"ts,omitempty"`

	Asset  string `json:"asset,omitempty"`
	Symbol string `json:"symbol,omitempty"`
	TaxBps uint64 `json:"tax_bps,omitempty"`

	Token string `json:"token,omitempty"`
	From  string `json:"from,omitempty"`
	To    string `json:"to,omitempty"`

	Amount      string `json:"amount,omitempty"`
	BaseAmount  string `json:"base_amount,omitempty"`
	TokenAmount string `json:"token_amount,omitempty"`
	MinOut      string `json:"min_out,omitempty"`
	MinShares   string `json:"min_shares,omitempty"`
	MinBase     string `json:"min_base,omitempty"`
	MinToken    string `json:"min_token,omitempty"`
	Shares      string `json:"shares,omitempty"`
	Deadline    uint64 `json:"deadline,omitempty"`

	VirtualBase       string `json:"virtual_base,omitempty"`
	BootstrapBase     string `json:"bootstrap_base,omitempty"`
	InitialBase       string `json:"initial_base,omitempty"`
	InitialShareMatch string `json:"initial_share_match,omitempty"`
}

func parseAmount(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %s", value)
	}
	return parsed, nil
}

// optionalAmount returns nil for an empty field so callers can skip bound
// checks the journal did not ask for.
func optionalAmount(value string) (*big.Int, error) {
	if value == "" {
		return nil, nil
	}
	return parseAmount(value)
}

func parseAddress(value, field string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("invalid %s address: %q", field, value)
	}
	return common.HexToAddress(value), nil
}

func (op Op) initParams() (pair.InitParams, error) {
	virtualBase, err := parseAmount(op.VirtualBase)
	if err != nil {
		return pair.InitParams{}, err
	}
	bootstrapBase, err := parseAmount(op.BootstrapBase)
	if err != nil {
		return pair.InitParams{}, err
	}
	initialBase, err := parseAmount(op.InitialBase)
	if err != nil {
		return pair.InitParams{}, err
	}
	initialShareMatch, err := parseAmount(op.InitialShareMatch)
	if err != nil {
		return pair.InitParams{}, err
	}
	return pair.InitParams{
		VirtualBase:       virtualBase,
		BootstrapBase:     bootstrapBase,
		InitialBase:       initialBase,
		InitialShareMatch: initialShareMatch,
	}, nil
}
