package pair

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/inedibleX/goat-trading/internal/pricing"
	"github.com/inedibleX/goat-trading/internal/storage"
	"github.com/inedibleX/goat-trading/internal/token"
)

var (
	baseAddr     = common.HexToAddress("0x0000000000000000000000000000000000000b01")
	tokenAddr    = common.HexToAddress("0x0000000000000000000000000000000000000701")
	treasuryAddr = common.HexToAddress("0x00000000000000000000000000000000000007ee")
	creator      = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	buyer        = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	rival        = common.HexToAddress("0x00000000000000000000000000000000000000c3")
)

// Scaled pool terms: sqrt(virtualBase*initialShareMatch) = 1e8 shares, presale
// tranche 5e8, amm tranche 2.5e8.
var (
	virtualBase       = big.NewInt(10_000_000)
	bootstrapBase     = big.NewInt(10_000_000)
	initialShareMatch = big.NewInt(1_000_000_000)
	bootstrapTokens   = big.NewInt(750_000_000)
)

type fixture struct {
	base  *token.Asset
	token *token.Asset
	pair  *Pair
	now   uint64
	sink  *storage.MemoryStorage
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		base:  token.NewAsset("BASE"),
		token: token.NewAsset("TKN"),
		now:   1_700_000_000,
		sink:  storage.NewMemoryStorage(),
	}

	p, err := New(Config{
		Token:               tokenAddr,
		Base:                baseAddr,
		TokenLedger:         f.token,
		BaseLedger:          f.base,
		Treasury:            treasuryAddr,
		FeeBps:              100,
		ProtocolFeeShareBps: 4000,
		ProtocolSweepMin:    big.NewInt(1_000_000_000),
		VestingPeriod:       1000,
		Clock:               func() uint64 { return f.now },
		Events:              f.sink,
	}, InitParams{
		VirtualBase:       virtualBase,
		BootstrapBase:     bootstrapBase,
		InitialShareMatch: initialShareMatch,
	})
	if err != nil {
		t.Fatalf("new pair: %v", err)
	}
	f.pair = p
	return f
}

// bootstrap settles the creator's token deposit and performs the first mint.
func (f *fixture) bootstrap(t *testing.T) *big.Int {
	t.Helper()
	f.token.Mint(creator, bootstrapTokens)
	if err := f.token.Transfer(creator, f.pair.Address(), bootstrapTokens); err != nil {
		t.Fatalf("settle bootstrap tokens: %v", err)
	}
	minted, err := f.pair.Mint(creator)
	if err != nil {
		t.Fatalf("bootstrap mint: %v", err)
	}
	return minted
}

// buy settles gross base into the pair, quotes the output the same way the
// router does, and swaps.
func (f *fixture) buy(t *testing.T, who common.Address, gross *big.Int) *big.Int {
	t.Helper()
	f.base.Mint(who, gross)
	if err := f.base.Transfer(who, f.pair.Address(), gross); err != nil {
		t.Fatalf("settle base: %v", err)
	}

	fee := new(big.Int).Mul(gross, big.NewInt(100))
	fee.Div(fee, big.NewInt(pricing.BpsDenominator))
	netIn := new(big.Int).Sub(gross, fee)

	reserveBase, reserveToken := f.pair.ReservesAmm()
	var out *big.Int
	var err error
	if f.pair.Phase() == PhasePresale {
		baseSide, tokenSide := f.pair.ReservesPresale()
		vb := new(big.Int).Sub(baseSide, reserveBase)
		vt := new(big.Int).Sub(tokenSide, reserveToken)
		out, _, err = pricing.TokenOutPresale(netIn, vb, reserveBase, f.pair.BootstrapBase(),
			reserveToken, vt, f.pair.AmmTokenReserve())
	} else {
		out, _, err = pricing.TokenOutAmm(gross, reserveBase, reserveToken, 100)
	}
	if err != nil {
		t.Fatalf("quote buy: %v", err)
	}
	if err := f.pair.Swap(out, nil, who); err != nil {
		t.Fatalf("swap: %v", err)
	}
	return out
}

func TestBootstrapMint(t *testing.T) {
	f := newFixture(t)
	minted := f.bootstrap(t)

	// sqrt(1e7 * 1e9) = 1e8 total, minus the burned minimum.
	want := big.NewInt(99_999_000)
	if minted.Cmp(want) != 0 {
		t.Fatalf("minted: got %s, want %s", minted, want)
	}
	if f.pair.Phase() != PhasePresale {
		t.Fatalf("phase: got %s, want presale", f.pair.Phase())
	}
	_, reserveToken := f.pair.ReservesAmm()
	if reserveToken.Cmp(bootstrapTokens) != 0 {
		t.Fatalf("token reserve: got %s, want %s", reserveToken, bootstrapTokens)
	}

	provider, locked, _ := f.pair.InitialProviderInfo()
	if provider != creator {
		t.Fatalf("lock provider: got %s, want creator", provider.Hex())
	}
	if locked.Cmp(minted) != 0 {
		t.Fatalf("locked shares: got %s, want %s", locked, minted)
	}
}

func TestBootstrapMintUnderfunded(t *testing.T) {
	f := newFixture(t)
	short := big.NewInt(700_000_000)
	f.token.Mint(creator, short)
	if err := f.token.Transfer(creator, f.pair.Address(), short); err != nil {
		t.Fatalf("settle tokens: %v", err)
	}
	if _, err := f.pair.Mint(creator); err != ErrInsufficientDeposit {
		t.Fatalf("expected ErrInsufficientDeposit, got %v", err)
	}
}

func TestMintRejectedDuringPresale(t *testing.T) {
	f := newFixture(t)
	f.bootstrap(t)

	f.base.Mint(buyer, big.NewInt(1_000_000))
	if err := f.base.Transfer(buyer, f.pair.Address(), big.NewInt(1_000_000)); err != nil {
		t.Fatalf("settle base: %v", err)
	}
	if _, err := f.pair.Mint(buyer); err != ErrPresaleLiquidity {
		t.Fatalf("expected ErrPresaleLiquidity, got %v", err)
	}
}

func TestBurnRejectedDuringPresale(t *testing.T) {
	f := newFixture(t)
	f.bootstrap(t)
	if _, _, err := f.pair.Burn(creator); err != ErrPresaleLiquidity {
		t.Fatalf("expected ErrPresaleLiquidity, got %v", err)
	}
}

func TestPresaleBuyTracksBalance(t *testing.T) {
	f := newFixture(t)
	f.bootstrap(t)

	out := f.buy(t, buyer, big.NewInt(1_000_000))
	if got := f.token.BalanceOf(buyer); got.Cmp(out) != 0 {
		t.Fatalf("buyer tokens: got %s, want %s", got, out)
	}
	if got := f.pair.PresaleBalance(buyer); got.Cmp(out) != 0 {
		t.Fatalf("presale balance: got %s, want %s", got, out)
	}
	if f.pair.Phase() != PhasePresale {
		t.Fatalf("phase: got %s, want presale", f.pair.Phase())
	}

	// The presale fee accrues entirely to the protocol.
	if got := f.pair.PendingProtocolFees(); got.Cmp(big.NewInt(10_000)) != 0 {
		t.Fatalf("protocol fees: got %s, want 10000", got)
	}
	if got := f.pair.PendingLiquidityFees(); got.Sign() != 0 {
		t.Fatalf("lp fees: got %s, want 0", got)
	}
}

func TestCrossingBuyConverts(t *testing.T) {
	f := newFixture(t)
	f.bootstrap(t)

	// Net input exceeds the bootstrap target, so the buy crosses and the
	// pool converts inside the same swap.
	f.buy(t, buyer, big.NewInt(12_200_000))

	if f.pair.Phase() != PhaseAmm {
		t.Fatalf("phase: got %s, want amm", f.pair.Phase())
	}
	if got, want := f.pair.VestingUntil(), f.now+1000; got != want {
		t.Fatalf("vesting until: got %d, want %d", got, want)
	}

	reserveBase, reserveToken := f.pair.ReservesAmm()
	if reserveBase.Cmp(bootstrapBase) < 0 {
		t.Fatalf("base reserve below target after conversion: %s", reserveBase)
	}
	if reserveToken.Sign() <= 0 {
		t.Fatalf("token reserve empty after conversion")
	}

	// The pair account must still cover reserves plus unclaimed fees.
	balance := f.base.BalanceOf(f.pair.Address())
	owed := new(big.Int).Add(reserveBase, f.pair.PendingProtocolFees())
	owed.Add(owed, f.pair.PendingLiquidityFees())
	if balance.Cmp(owed) < 0 {
		t.Fatalf("pair base balance %s below obligations %s", balance, owed)
	}
}

func TestPresaleSellCappedByPurchase(t *testing.T) {
	f := newFixture(t)
	f.bootstrap(t)

	bought := f.buy(t, buyer, big.NewInt(1_000_000))

	// Tokens acquired elsewhere cannot be dumped on the curve.
	extra := new(big.Int).Add(bought, big.NewInt(1_000_000))
	f.token.Mint(buyer, big.NewInt(1_000_000))
	if err := f.token.Transfer(buyer, f.pair.Address(), extra); err != nil {
		t.Fatalf("settle tokens: %v", err)
	}
	if err := f.pair.Swap(nil, big.NewInt(1), buyer); err != ErrPresaleBalance {
		t.Fatalf("expected ErrPresaleBalance, got %v", err)
	}
}

func TestPresaleSellRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.bootstrap(t)

	spent := big.NewInt(1_000_000)
	bought := f.buy(t, buyer, spent)

	if err := f.token.Transfer(buyer, f.pair.Address(), bought); err != nil {
		t.Fatalf("settle tokens: %v", err)
	}

	baseSide, tokenSide := f.pair.ReservesPresale()
	reserveBase, reserveToken := f.pair.ReservesAmm()
	vb := new(big.Int).Sub(baseSide, reserveBase)
	vt := new(big.Int).Sub(tokenSide, reserveToken)
	gross, err := pricing.BaseOutPresale(bought, vb, reserveBase, reserveToken, vt)
	if err != nil {
		t.Fatalf("quote sell: %v", err)
	}
	fee := new(big.Int).Mul(gross, big.NewInt(100))
	fee.Div(fee, big.NewInt(pricing.BpsDenominator))
	netOut := new(big.Int).Sub(gross, fee)

	if err := f.pair.Swap(nil, netOut, buyer); err != nil {
		t.Fatalf("sell: %v", err)
	}
	if got := f.base.BalanceOf(buyer); got.Cmp(spent) > 0 {
		t.Fatalf("round trip minted base: %s > %s", got, spent)
	}
	if got := f.pair.PresaleBalance(buyer); got.Sign() != 0 {
		t.Fatalf("presale balance after full sell: got %s, want 0", got)
	}
}

func TestAmmSwapAccruesLpFees(t *testing.T) {
	f := newFixture(t)
	f.bootstrap(t)
	f.buy(t, buyer, big.NewInt(12_200_000))

	protocolBefore := f.pair.PendingProtocolFees()
	f.buy(t, buyer, big.NewInt(1_000_000))

	// 1% of 1e6 split 40/60 between protocol and LPs.
	protocolDelta := new(big.Int).Sub(f.pair.PendingProtocolFees(), protocolBefore)
	if protocolDelta.Cmp(big.NewInt(4_000)) != 0 {
		t.Fatalf("protocol delta: got %s, want 4000", protocolDelta)
	}
	if got := f.pair.PendingLiquidityFees(); got.Cmp(big.NewInt(6_000)) != 0 {
		t.Fatalf("lp fees: got %s, want 6000", got)
	}
}

func TestWithdrawFees(t *testing.T) {
	f := newFixture(t)
	f.bootstrap(t)
	f.buy(t, buyer, big.NewInt(12_200_000))
	f.buy(t, buyer, big.NewInt(1_000_000))

	pending := f.pair.PendingLiquidityFees()
	claimed, err := f.pair.WithdrawFees(creator)
	if err != nil {
		t.Fatalf("withdraw fees: %v", err)
	}
	if claimed.Sign() <= 0 {
		t.Fatalf("nothing claimed")
	}
	// The creator holds all shares except the burned minimum, so nearly the
	// whole LP tranche is theirs.
	if claimed.Cmp(pending) > 0 {
		t.Fatalf("claimed %s exceeds pending %s", claimed, pending)
	}
	if got := f.base.BalanceOf(creator); got.Cmp(claimed) != 0 {
		t.Fatalf("creator base: got %s, want %s", got, claimed)
	}

	again, err := f.pair.WithdrawFees(creator)
	if err != nil {
		t.Fatalf("second withdraw: %v", err)
	}
	if again.Sign() != 0 {
		t.Fatalf("double claim: got %s, want 0", again)
	}
}

func TestVestingLockOnShares(t *testing.T) {
	f := newFixture(t)
	f.bootstrap(t)

	// Locked through the whole presale.
	if err := f.pair.Shares().Transfer(creator, buyer, big.NewInt(1)); err == nil {
		t.Fatalf("expected locked shares during presale")
	}

	f.buy(t, buyer, big.NewInt(12_200_000))

	// Still locked until the vesting deadline.
	if err := f.pair.Shares().Transfer(creator, buyer, big.NewInt(1)); err == nil {
		t.Fatalf("expected locked shares during vesting")
	}

	f.now = f.pair.VestingUntil()
	if err := f.pair.Shares().Transfer(creator, buyer, big.NewInt(1)); err != nil {
		t.Fatalf("transfer after vesting: %v", err)
	}
}

func TestAmmMintAndBurn(t *testing.T) {
	f := newFixture(t)
	f.bootstrap(t)
	f.buy(t, buyer, big.NewInt(12_200_000))

	reserveBase, reserveToken := f.pair.ReservesAmm()

	// Deposit a tenth of each reserve.
	baseIn := new(big.Int).Div(reserveBase, big.NewInt(10))
	tokenIn := new(big.Int).Div(reserveToken, big.NewInt(10))
	f.base.Mint(buyer, baseIn)
	if err := f.base.Transfer(buyer, f.pair.Address(), baseIn); err != nil {
		t.Fatalf("settle base: %v", err)
	}
	if err := f.token.Transfer(buyer, f.pair.Address(), tokenIn); err != nil {
		t.Fatalf("settle token: %v", err)
	}

	minted, err := f.pair.Mint(buyer)
	if err != nil {
		t.Fatalf("amm mint: %v", err)
	}
	if minted.Sign() <= 0 {
		t.Fatalf("no shares minted")
	}

	if err := f.pair.Shares().Transfer(buyer, f.pair.Address(), minted); err != nil {
		t.Fatalf("return shares: %v", err)
	}
	baseOut, tokenOut, err := f.pair.Burn(buyer)
	if err != nil {
		t.Fatalf("burn: %v", err)
	}
	if baseOut.Cmp(baseIn) > 0 || tokenOut.Cmp(tokenIn) > 0 {
		t.Fatalf("burn paid out more than deposited: %s/%s vs %s/%s", baseOut, tokenOut, baseIn, tokenIn)
	}
}

func TestSwapRejectsBothOutputs(t *testing.T) {
	f := newFixture(t)
	f.bootstrap(t)

	if err := f.pair.Swap(big.NewInt(1), big.NewInt(1), buyer); err != ErrMultipleOutputs {
		t.Fatalf("expected ErrMultipleOutputs, got %v", err)
	}
	if err := f.pair.Swap(nil, nil, buyer); err != ErrInsufficientOutput {
		t.Fatalf("expected ErrInsufficientOutput, got %v", err)
	}
}

func TestSwapWithoutInput(t *testing.T) {
	f := newFixture(t)
	f.bootstrap(t)
	if err := f.pair.Swap(big.NewInt(1), nil, buyer); err != ErrInsufficientInput {
		t.Fatalf("expected ErrInsufficientInput, got %v", err)
	}
}

func TestReentrantCallRejected(t *testing.T) {
	f := newFixture(t)
	f.bootstrap(t)

	var reentryErr error
	f.token.SetTransferHook(func(from, to common.Address, amount *big.Int) {
		if from == f.pair.Address() {
			reentryErr = f.pair.Sync()
		}
	})

	f.buy(t, buyer, big.NewInt(1_000_000))
	if reentryErr != ErrReentrantCall {
		t.Fatalf("expected ErrReentrantCall from hook, got %v", reentryErr)
	}
}

func TestSyncAbsorbsDrift(t *testing.T) {
	f := newFixture(t)
	f.bootstrap(t)

	// Stray base lands on the pair account outside any operation.
	f.base.Mint(f.pair.Address(), big.NewInt(5_000))
	reserveBefore, _ := f.pair.ReservesAmm()

	if err := f.pair.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}
	reserveAfter, _ := f.pair.ReservesAmm()
	want := new(big.Int).Add(reserveBefore, big.NewInt(5_000))
	if reserveAfter.Cmp(want) != 0 {
		t.Fatalf("reserve after sync: got %s, want %s", reserveAfter, want)
	}
}

func TestSyncConvertsOnDonatedTarget(t *testing.T) {
	f := newFixture(t)
	f.bootstrap(t)

	// A donation alone carries the pool past its funding target.
	donation := new(big.Int).Add(bootstrapBase, big.NewInt(5_000))
	f.base.Mint(f.pair.Address(), donation)

	if err := f.pair.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if f.pair.Phase() != PhaseAmm {
		t.Fatalf("phase: got %s, want amm", f.pair.Phase())
	}
	reserveBase, reserveToken := f.pair.ReservesAmm()
	if reserveBase.Cmp(bootstrapBase) != 0 {
		t.Fatalf("base reserve: got %s, want %s", reserveBase, bootstrapBase)
	}
	if reserveToken.Cmp(bootstrapTokens) != 0 {
		t.Fatalf("token reserve: got %s, want %s", reserveToken, bootstrapTokens)
	}
	if got, want := f.pair.VestingUntil(), f.now+1000; got != want {
		t.Fatalf("vesting until: got %d, want %d", got, want)
	}

	// The surplus above the target stays as drift until the next sync.
	if err := f.pair.Sync(); err != nil {
		t.Fatalf("second sync: %v", err)
	}
	reserveBase, _ = f.pair.ReservesAmm()
	wantBase := new(big.Int).Add(bootstrapBase, big.NewInt(5_000))
	if reserveBase.Cmp(wantBase) != 0 {
		t.Fatalf("base reserve after drift fold: got %s, want %s", reserveBase, wantBase)
	}

	// Trading continues on the constant-product curve.
	f.buy(t, buyer, big.NewInt(1_000_000))
}

func TestConfigRejectsFeeOutOfBounds(t *testing.T) {
	params := InitParams{
		VirtualBase:       virtualBase,
		BootstrapBase:     bootstrapBase,
		InitialShareMatch: initialShareMatch,
	}
	cfg := Config{
		Token:       tokenAddr,
		Base:        baseAddr,
		TokenLedger: token.NewAsset("TKN"),
		BaseLedger:  token.NewAsset("BASE"),
		Treasury:    treasuryAddr,
		FeeBps:      10_000,
		Clock:       func() uint64 { return 0 },
	}
	if _, err := New(cfg, params); err == nil {
		t.Fatalf("expected rejection of fee bps %d", cfg.FeeBps)
	}

	cfg.FeeBps = 100
	cfg.ProtocolFeeShareBps = 10_001
	if _, err := New(cfg, params); err == nil {
		t.Fatalf("expected rejection of protocol fee share bps %d", cfg.ProtocolFeeShareBps)
	}
}

func TestBurnRejectsLedgerShortfall(t *testing.T) {
	f := newFixture(t)
	f.bootstrap(t)
	f.buy(t, buyer, big.NewInt(12_200_000))

	reserveBase, reserveToken := f.pair.ReservesAmm()
	baseIn := new(big.Int).Div(reserveBase, big.NewInt(10))
	tokenIn := new(big.Int).Div(reserveToken, big.NewInt(10))
	f.base.Mint(buyer, baseIn)
	if err := f.base.Transfer(buyer, f.pair.Address(), baseIn); err != nil {
		t.Fatalf("settle base: %v", err)
	}
	if err := f.token.Transfer(buyer, f.pair.Address(), tokenIn); err != nil {
		t.Fatalf("settle token: %v", err)
	}
	minted, err := f.pair.Mint(buyer)
	if err != nil {
		t.Fatalf("amm mint: %v", err)
	}
	if err := f.pair.Shares().Transfer(buyer, f.pair.Address(), minted); err != nil {
		t.Fatalf("return shares: %v", err)
	}
	reserveBase, reserveToken = f.pair.ReservesAmm()

	// The token balance slips below the recorded reserve outside any pool
	// operation.
	if err := f.token.Transfer(f.pair.Address(), rival, f.token.BalanceOf(f.pair.Address())); err != nil {
		t.Fatalf("drain token balance: %v", err)
	}

	if _, _, err := f.pair.Burn(buyer); err != ErrBalanceShortfall {
		t.Fatalf("expected ErrBalanceShortfall, got %v", err)
	}
	if got := f.pair.Shares().BalanceOf(f.pair.Address()); got.Cmp(minted) != 0 {
		t.Fatalf("shares moved on failed burn: got %s, want %s", got, minted)
	}
	rb, rt := f.pair.ReservesAmm()
	if rb.Cmp(reserveBase) != 0 || rt.Cmp(reserveToken) != 0 {
		t.Fatalf("reserves moved on failed burn: %s/%s vs %s/%s", rb, rt, reserveBase, reserveToken)
	}
}

func TestSweepExcessToken(t *testing.T) {
	f := newFixture(t)
	f.bootstrap(t)

	if _, err := f.pair.SweepExcessToken(); err != ErrNoExcess {
		t.Fatalf("expected ErrNoExcess, got %v", err)
	}

	f.token.Mint(f.pair.Address(), big.NewInt(7_777))
	swept, err := f.pair.SweepExcessToken()
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if swept.Cmp(big.NewInt(7_777)) != 0 {
		t.Fatalf("swept: got %s, want 7777", swept)
	}
	if got := f.token.BalanceOf(treasuryAddr); got.Cmp(big.NewInt(7_777)) != 0 {
		t.Fatalf("treasury: got %s, want 7777", got)
	}
}

func TestTakeover(t *testing.T) {
	f := newFixture(t)
	f.bootstrap(t)
	f.buy(t, buyer, big.NewInt(1_000_000))

	reserveBase, reserveTokenBefore := f.pair.ReservesAmm()
	presaleTokens, ammTokens, err := pricing.TokenAmountsForPresaleAndAmm(
		virtualBase, bootstrapBase, reserveBase, initialShareMatch)
	if err != nil {
		t.Fatalf("size takeover deposit: %v", err)
	}
	required := new(big.Int).Add(presaleTokens, ammTokens)

	f.token.Mint(rival, required)
	if err := f.token.Transfer(rival, f.pair.Address(), required); err != nil {
		t.Fatalf("settle takeover deposit: %v", err)
	}

	if err := f.pair.Takeover(rival, InitParams{
		VirtualBase:       virtualBase,
		BootstrapBase:     bootstrapBase,
		InitialShareMatch: initialShareMatch,
	}); err != nil {
		t.Fatalf("takeover: %v", err)
	}

	provider, locked, _ := f.pair.InitialProviderInfo()
	if provider != rival {
		t.Fatalf("lock provider: got %s, want rival", provider.Hex())
	}
	if locked.Cmp(f.pair.Shares().BalanceOf(rival)) != 0 {
		t.Fatalf("locked shares %s do not match rival balance %s", locked, f.pair.Shares().BalanceOf(rival))
	}
	if got := f.pair.Shares().BalanceOf(creator); got.Sign() != 0 {
		t.Fatalf("creator kept shares: %s", got)
	}
	// The displaced provider is refunded the token backing they still had.
	if got := f.token.BalanceOf(creator); got.Cmp(reserveTokenBefore) != 0 {
		t.Fatalf("refund: got %s, want %s", got, reserveTokenBefore)
	}
	_, reserveTokenAfter := f.pair.ReservesAmm()
	if reserveTokenAfter.Cmp(required) != 0 {
		t.Fatalf("token reserve: got %s, want %s", reserveTokenAfter, required)
	}
}

func TestTakeoverRejectsWorseTerms(t *testing.T) {
	f := newFixture(t)
	f.bootstrap(t)

	worse := new(big.Int).Sub(initialShareMatch, big.NewInt(1))
	err := f.pair.Takeover(rival, InitParams{
		VirtualBase:       virtualBase,
		BootstrapBase:     bootstrapBase,
		InitialShareMatch: worse,
	})
	if err != ErrTakeoverTerms {
		t.Fatalf("expected ErrTakeoverTerms, got %v", err)
	}
}

func TestTakeoverRejectedAfterConversion(t *testing.T) {
	f := newFixture(t)
	f.bootstrap(t)
	f.buy(t, buyer, big.NewInt(12_200_000))

	err := f.pair.Takeover(rival, InitParams{
		VirtualBase:       virtualBase,
		BootstrapBase:     bootstrapBase,
		InitialShareMatch: initialShareMatch,
	})
	if err != ErrTakeoverPhase {
		t.Fatalf("expected ErrTakeoverPhase, got %v", err)
	}
}

func TestDirectLaunch(t *testing.T) {
	f := &fixture{
		base:  token.NewAsset("BASE"),
		token: token.NewAsset("TKN"),
		now:   1_700_000_000,
		sink:  storage.NewMemoryStorage(),
	}
	p, err := New(Config{
		Token:         tokenAddr,
		Base:          baseAddr,
		TokenLedger:   f.token,
		BaseLedger:    f.base,
		Treasury:      treasuryAddr,
		FeeBps:        100,
		VestingPeriod: 1000,
		Clock:         func() uint64 { return f.now },
		Events:        f.sink,
	}, InitParams{
		VirtualBase:       virtualBase,
		BootstrapBase:     bootstrapBase,
		InitialBase:       bootstrapBase,
		InitialShareMatch: initialShareMatch,
	})
	if err != nil {
		t.Fatalf("new pair: %v", err)
	}
	f.pair = p

	// Prefunding the full target leaves no presale tranche: only the AMM
	// reserve is owed, plus the base up front.
	_, ammTokens, err := pricing.TokenAmountsForPresaleAndAmm(
		virtualBase, bootstrapBase, bootstrapBase, initialShareMatch)
	if err != nil {
		t.Fatalf("size deposit: %v", err)
	}
	f.token.Mint(creator, ammTokens)
	f.base.Mint(creator, bootstrapBase)
	if err := f.token.Transfer(creator, p.Address(), ammTokens); err != nil {
		t.Fatalf("settle tokens: %v", err)
	}
	if err := f.base.Transfer(creator, p.Address(), bootstrapBase); err != nil {
		t.Fatalf("settle base: %v", err)
	}

	if _, err := p.Mint(creator); err != nil {
		t.Fatalf("direct launch mint: %v", err)
	}
	if p.Phase() != PhaseAmm {
		t.Fatalf("phase: got %s, want amm", p.Phase())
	}
}

func TestEventLogOrdering(t *testing.T) {
	f := newFixture(t)
	f.bootstrap(t)
	f.buy(t, buyer, big.NewInt(1_000_000))
	f.buy(t, buyer, big.NewInt(12_200_000))

	records := f.sink.Records()
	if len(records) == 0 {
		t.Fatalf("no events recorded")
	}
	var prev uint64
	for _, record := range records {
		if record.Seq <= prev {
			t.Fatalf("sequence not strictly increasing: %d after %d", record.Seq, prev)
		}
		prev = record.Seq
	}
	last := records[len(records)-1]
	sawConverted := false
	for _, record := range records {
		if record.EventName == "converted" {
			sawConverted = true
		}
	}
	if !sawConverted {
		t.Fatalf("conversion not recorded; last event %s", last.EventName)
	}
}
