package fees

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

var holder = common.HexToAddress("0x00000000000000000000000000000000000000a1")

func TestAccrueSplitsFee(t *testing.T) {
	tr := NewTracker(4000, nil)
	tr.Settle(holder, big.NewInt(1000))

	tr.Accrue(big.NewInt(100), big.NewInt(1000), false)

	if got := tr.PendingProtocol(); got.Cmp(big.NewInt(40)) != 0 {
		t.Fatalf("protocol share: got %s, want 40", got)
	}
	if got := tr.PendingLiquidity(); got.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("lp share: got %s, want 60", got)
	}
	if got := tr.PendingTotal(); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("total pending: got %s, want 100", got)
	}
}

func TestPresaleFeeAllProtocol(t *testing.T) {
	tr := NewTracker(4000, nil)
	tr.Accrue(big.NewInt(100), big.NewInt(1000), true)

	if got := tr.PendingProtocol(); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("protocol share: got %s, want 100", got)
	}
	if got := tr.PendingLiquidity(); got.Sign() != 0 {
		t.Fatalf("lp share: got %s, want 0", got)
	}
}

func TestZeroSupplyFeeAllProtocol(t *testing.T) {
	tr := NewTracker(4000, nil)
	tr.Accrue(big.NewInt(100), big.NewInt(0), false)

	if got := tr.PendingProtocol(); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("protocol share: got %s, want 100", got)
	}
}

func TestClaimDecrementsPending(t *testing.T) {
	tr := NewTracker(4000, nil)
	tr.Settle(holder, big.NewInt(1000))
	tr.Accrue(big.NewInt(100), big.NewInt(1000), false)

	claimed := tr.Claim(holder, big.NewInt(1000))
	if claimed.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("claimed: got %s, want 60", claimed)
	}
	if got := tr.PendingLiquidity(); got.Sign() != 0 {
		t.Fatalf("pending after claim: got %s, want 0", got)
	}
}

func TestSweepProtocolThreshold(t *testing.T) {
	tr := NewTracker(4000, big.NewInt(50))
	tr.Accrue(big.NewInt(30), nil, true)

	if swept := tr.SweepProtocol(); swept != nil {
		t.Fatalf("swept below threshold: %s", swept)
	}

	tr.Accrue(big.NewInt(30), nil, true)
	swept := tr.SweepProtocol()
	if swept == nil || swept.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("swept: got %v, want 60", swept)
	}
	if got := tr.PendingProtocol(); got.Sign() != 0 {
		t.Fatalf("pending protocol after sweep: got %s, want 0", got)
	}
}
