package aggregate

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/inedibleX/goat-trading/internal/model"
)

func swapRecord(t *testing.T, seq, ts uint64, data model.SwapEventData) model.EventRecord {
	t.Helper()
	record, err := model.NewEventRecord(seq, ts, "0xpool", "0xtoken", model.EventSwap, data)
	if err != nil {
		t.Fatalf("build record: %v", err)
	}
	return record
}

func TestAccumulatorAggregatesSwaps(t *testing.T) {
	first := swapRecord(t, 1, 100, model.SwapEventData{
		BaseIn: "1000", TokenIn: "0", BaseOut: "0", TokenOut: "500",
		Fee: "10", ReserveBase: "11000", ReserveToken: "9500",
	})
	acc := NewAccumulator(first, 0, 300)
	if err := acc.AddEvent(first); err != nil {
		t.Fatalf("add first: %v", err)
	}

	second := swapRecord(t, 2, 200, model.SwapEventData{
		BaseIn: "0", TokenIn: "300", BaseOut: "250", TokenOut: "0",
		Fee: "2", ReserveBase: "10748", ReserveToken: "9800",
	})
	if err := acc.AddEvent(second); err != nil {
		t.Fatalf("add second: %v", err)
	}

	if acc.SwapCount != 2 {
		t.Fatalf("swap count: got %d, want 2", acc.SwapCount)
	}
	if acc.BaseVolume.Cmp(big.NewInt(1250)) != 0 {
		t.Fatalf("base volume: got %s, want 1250", acc.BaseVolume)
	}
	if acc.TokenVolume.Cmp(big.NewInt(800)) != 0 {
		t.Fatalf("token volume: got %s, want 800", acc.TokenVolume)
	}
	if acc.FeeTotal.Cmp(big.NewInt(12)) != 0 {
		t.Fatalf("fee total: got %s, want 12", acc.FeeTotal)
	}
	if acc.LastReserve0 != "10748" || acc.LastReserve1 != "9800" {
		t.Fatalf("last reserves: got %s/%s", acc.LastReserve0, acc.LastReserve1)
	}
	if acc.LastSeq != 2 {
		t.Fatalf("last seq: got %d, want 2", acc.LastSeq)
	}
}

func TestAccumulatorCountsMintBurn(t *testing.T) {
	mint, err := model.NewEventRecord(1, 100, "0xpool", "0xtoken", model.EventMint, model.MintEventData{})
	if err != nil {
		t.Fatalf("build record: %v", err)
	}
	acc := NewAccumulator(mint, 0, 300)
	if err := acc.AddEvent(mint); err != nil {
		t.Fatalf("add mint: %v", err)
	}

	burn, err := model.NewEventRecord(2, 150, "0xpool", "0xtoken", model.EventBurn, model.BurnEventData{})
	if err != nil {
		t.Fatalf("build record: %v", err)
	}
	if err := acc.AddEvent(burn); err != nil {
		t.Fatalf("add burn: %v", err)
	}

	if acc.MintCount != 1 || acc.BurnCount != 1 {
		t.Fatalf("counts: mint=%d burn=%d", acc.MintCount, acc.BurnCount)
	}
}

func TestAccumulatorStats(t *testing.T) {
	record := swapRecord(t, 7, 350, model.SwapEventData{
		BaseIn: "100", TokenIn: "0", BaseOut: "0", TokenOut: "50",
		Fee: "1", ReserveBase: "1100", ReserveToken: "950",
	})
	acc := NewAccumulator(record, 300, 600)
	if err := acc.AddEvent(record); err != nil {
		t.Fatalf("add: %v", err)
	}

	stats := acc.Stats(300)
	if stats.WindowSizeSecs != 300 {
		t.Fatalf("window size: got %d", stats.WindowSizeSecs)
	}
	if stats.WindowStart.Unix() != 300 || stats.WindowEnd.Unix() != 600 {
		t.Fatalf("window bounds: %d..%d", stats.WindowStart.Unix(), stats.WindowEnd.Unix())
	}
	if stats.BaseVolume != "100" || stats.FeeTotal != "1" {
		t.Fatalf("volumes: base=%s fee=%s", stats.BaseVolume, stats.FeeTotal)
	}
	if stats.LastSeq != 7 {
		t.Fatalf("last seq: got %d", stats.LastSeq)
	}
}

func TestWindowStartFor(t *testing.T) {
	if got := windowStartFor(350, 300); got != 300 {
		t.Fatalf("window start: got %d, want 300", got)
	}
	if got := windowStartFor(300, 300); got != 300 {
		t.Fatalf("window start: got %d, want 300", got)
	}
	if got := windowStartFor(299, 300); got != 0 {
		t.Fatalf("window start: got %d, want 0", got)
	}
}

func TestFileStateStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store := &FileStateStore{Path: path}
	ctx := context.Background()

	if _, ok, err := store.Load(ctx); err != nil || ok {
		t.Fatalf("load empty: ok=%v err=%v", ok, err)
	}
	if err := store.Save(ctx, 42); err != nil {
		t.Fatalf("save: %v", err)
	}
	seq, ok, err := store.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if seq != 42 {
		t.Fatalf("seq: got %d, want 42", seq)
	}
}
