package pricing

import (
	"math/big"
	"testing"
)

func bi(v int64) *big.Int { return big.NewInt(v) }

func TestTokenAmountsForPresaleAndAmm(t *testing.T) {
	presale, amm, err := TokenAmountsForPresaleAndAmm(bi(10), bi(10), bi(0), bi(1000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if presale.Cmp(bi(500)) != 0 {
		t.Fatalf("presale tranche: got %s, want 500", presale)
	}
	if amm.Cmp(bi(250)) != 0 {
		t.Fatalf("amm tranche: got %s, want 250", amm)
	}
}

func TestTokenAmountsDirectLaunch(t *testing.T) {
	presale, amm, err := TokenAmountsForPresaleAndAmm(bi(10), bi(10), bi(10), bi(1000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if presale.Sign() != 0 {
		t.Fatalf("presale tranche for direct launch: got %s, want 0", presale)
	}
	if amm.Cmp(bi(250)) != 0 {
		t.Fatalf("amm tranche: got %s, want 250", amm)
	}
}

func TestTokenAmountsInvalidParams(t *testing.T) {
	cases := []struct {
		name                          string
		vb, bb, initialBase, shareSum *big.Int
	}{
		{"zero virtual base", bi(0), bi(10), bi(0), bi(1000)},
		{"zero bootstrap", bi(10), bi(0), bi(0), bi(1000)},
		{"zero share match", bi(10), bi(10), bi(0), bi(0)},
		{"initial above bootstrap", bi(10), bi(10), bi(11), bi(1000)},
		{"negative initial", bi(10), bi(10), bi(-1), bi(1000)},
	}
	for _, tc := range cases {
		if _, _, err := TokenAmountsForPresaleAndAmm(tc.vb, tc.bb, tc.initialBase, tc.shareSum); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestActualBootstrapTokenAmount(t *testing.T) {
	total, err := ActualBootstrapTokenAmount(bi(10), bi(10), bi(0), bi(1000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total.Cmp(bi(750)) != 0 {
		t.Fatalf("total deposit: got %s, want 750", total)
	}
}

func TestVirtualTokenReserve(t *testing.T) {
	vt := VirtualTokenReserve(bi(10), bi(10), bi(1000), bi(250))
	if vt.Cmp(bi(250)) != 0 {
		t.Fatalf("virtual token: got %s, want 250", vt)
	}
}

func TestTokenOutPresaleWithinCurve(t *testing.T) {
	// vb=10 ism=1000 pool: curve token side starts at 1000, real reserve 750.
	out, presalePart, err := TokenOutPresale(bi(10), bi(10), bi(0), bi(10), bi(750), bi(250), bi(250))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Cmp(bi(500)) != 0 {
		t.Fatalf("out: got %s, want 500", out)
	}
	if presalePart.Cmp(out) != 0 {
		t.Fatalf("presale part should equal out inside the curve: %s != %s", presalePart, out)
	}
}

func TestTokenOutPresaleCrossing(t *testing.T) {
	// 12 in: 10 exhausts the curve for 500, the remaining 2 buys
	// 250*2/12 = 41 from the seeded AMM reserves.
	out, presalePart, err := TokenOutPresale(bi(12), bi(10), bi(0), bi(10), bi(750), bi(250), bi(250))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Cmp(bi(541)) != 0 {
		t.Fatalf("out: got %s, want 541", out)
	}
	if presalePart.Cmp(bi(500)) != 0 {
		t.Fatalf("presale part: got %s, want 500", presalePart)
	}
}

func TestTokenOutPresaleCrossingMatchesSequential(t *testing.T) {
	// A crossing deposit must pay out exactly what two sequential exact
	// deposits would.
	crossing, _, err := TokenOutPresale(bi(12), bi(10), bi(0), bi(10), bi(750), bi(250), bi(250))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, _, err := TokenOutPresale(bi(10), bi(10), bi(0), bi(10), bi(750), bi(250), bi(250))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _, err := TokenOutAmm(bi(2), bi(10), bi(250), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sum := new(big.Int).Add(first, second)
	if crossing.Cmp(sum) != 0 {
		t.Fatalf("crossing %s != sequential %s", crossing, sum)
	}
}

func TestTokenOutPresaleAfterTarget(t *testing.T) {
	if _, _, err := TokenOutPresale(bi(1), bi(10), bi(10), bi(10), bi(250), bi(250), bi(250)); err == nil {
		t.Fatalf("expected error once target reached")
	}
}

func TestTokenOutPresaleMonotonic(t *testing.T) {
	prev := big.NewInt(0)
	for in := int64(1); in <= 20; in++ {
		out, _, err := TokenOutPresale(bi(in), bi(10), bi(0), bi(10), bi(750), bi(250), bi(250))
		if err != nil {
			t.Fatalf("in=%d: unexpected error: %v", in, err)
		}
		if out.Cmp(prev) < 0 {
			t.Fatalf("in=%d: output decreased: %s < %s", in, out, prev)
		}
		prev = out
	}
}

func TestBaseOutPresaleRoundTrip(t *testing.T) {
	// Buying then selling the proceeds never returns more base than went in.
	bought, _, err := TokenOutPresale(bi(5), bi(10), bi(0), bi(10), bi(750), bi(250), bi(250))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reserveBase := bi(5)
	reserveToken := new(big.Int).Sub(bi(750), bought)
	back, err := BaseOutPresale(bought, bi(10), reserveBase, reserveToken, bi(250))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if back.Cmp(bi(5)) > 0 {
		t.Fatalf("round trip minted base: %s > 5", back)
	}
}

func TestBaseOutPresaleCappedByReserve(t *testing.T) {
	if _, err := BaseOutPresale(bi(600), bi(10), bi(1), bi(400), bi(250)); err == nil {
		t.Fatalf("expected insufficient liquidity")
	}
}

func TestTokenOutAmm(t *testing.T) {
	out, fee, err := TokenOutAmm(bi(1000), bi(10000), bi(10000), 99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// net = floor(1000*9901/10000) = 990, fee 10, out = floor(10000*990/10990) = 900.
	if fee.Cmp(bi(10)) != 0 {
		t.Fatalf("fee: got %s, want 10", fee)
	}
	if out.Cmp(bi(900)) != 0 {
		t.Fatalf("out: got %s, want 900", out)
	}
}

func TestBaseOutAmm(t *testing.T) {
	out, fee, err := BaseOutAmm(bi(1000), bi(10000), bi(10000), 99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// gross = floor(10000*1000/11000) = 909, net = floor(909*9901/10000) = 900, fee 9.
	if fee.Cmp(bi(9)) != 0 {
		t.Fatalf("fee: got %s, want 9", fee)
	}
	if out.Cmp(bi(900)) != 0 {
		t.Fatalf("out: got %s, want 900", out)
	}
}

func TestAmmPreservesInvariant(t *testing.T) {
	reserveBase, reserveToken := bi(10000), bi(10000)
	k := new(big.Int).Mul(reserveBase, reserveToken)

	out, fee, err := TokenOutAmm(bi(1234), reserveBase, reserveToken, 99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	newBase := new(big.Int).Add(reserveBase, new(big.Int).Sub(bi(1234), fee))
	newToken := new(big.Int).Sub(reserveToken, out)
	if new(big.Int).Mul(newBase, newToken).Cmp(k) < 0 {
		t.Fatalf("invariant decreased after buy")
	}
}

func TestQuote(t *testing.T) {
	out, err := Quote(bi(50), bi(100), bi(400))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Cmp(bi(200)) != 0 {
		t.Fatalf("quote: got %s, want 200", out)
	}

	if _, err := Quote(bi(0), bi(100), bi(400)); err == nil {
		t.Fatalf("expected error for zero amount")
	}
	if _, err := Quote(bi(50), bi(0), bi(400)); err == nil {
		t.Fatalf("expected error for empty reserves")
	}
}
