package aggregate

import (
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/inedibleX/goat-trading/internal/model"
)

// Accumulator holds aggregate values for a pool window.
type Accumulator struct {
	PoolAddress  string
	Token        string
	WindowStart  uint64
	WindowEnd    uint64
	SwapCount    uint64
	MintCount    uint64
	BurnCount    uint64
	BaseVolume   *big.Int
	TokenVolume  *big.Int
	FeeTotal     *big.Int
	LastReserve0 string
	LastReserve1 string
	FirstSeq     uint64
	LastSeq      uint64
}

func NewAccumulator(record model.EventRecord, windowStart, windowEnd uint64) *Accumulator {
	return &Accumulator{
		PoolAddress: record.Pool,
		Token:       record.Token,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		BaseVolume:  big.NewInt(0),
		TokenVolume: big.NewInt(0),
		FeeTotal:    big.NewInt(0),
		FirstSeq:    record.Seq,
		LastSeq:     record.Seq,
	}
}

func (a *Accumulator) AddEvent(record model.EventRecord) error {
	if record.Seq > a.LastSeq {
		a.LastSeq = record.Seq
	}

	switch record.EventName {
	case model.EventSwap:
		var swap model.SwapEventData
		if err := json.Unmarshal(record.Decoded, &swap); err != nil {
			return fmt.Errorf("decode swap: %w", err)
		}
		return a.applySwap(swap)
	case model.EventMint:
		a.MintCount++
		return nil
	case model.EventBurn:
		a.BurnCount++
		return nil
	case model.EventSync:
		var sync model.SyncEventData
		if err := json.Unmarshal(record.Decoded, &sync); err != nil {
			return fmt.Errorf("decode sync: %w", err)
		}
		a.LastReserve0 = sync.ReserveBase
		a.LastReserve1 = sync.ReserveToken
		return nil
	default:
		return nil
	}
}

func (a *Accumulator) applySwap(swap model.SwapEventData) error {
	for _, pair := range []struct {
		target *big.Int
		value  string
	}{
		{a.BaseVolume, swap.BaseIn},
		{a.BaseVolume, swap.BaseOut},
		{a.TokenVolume, swap.TokenIn},
		{a.TokenVolume, swap.TokenOut},
		{a.FeeTotal, swap.Fee},
	} {
		amount, err := parseBigInt(pair.value)
		if err != nil {
			return err
		}
		pair.target.Add(pair.target, amount)
	}

	a.LastReserve0 = swap.ReserveBase
	a.LastReserve1 = swap.ReserveToken
	a.SwapCount++
	return nil
}

// Stats freezes the accumulator into a storable row.
func (a *Accumulator) Stats(windowSeconds uint64) model.PoolWindowStats {
	return model.PoolWindowStats{
		PoolAddress:    a.PoolAddress,
		WindowSizeSecs: int64(windowSeconds),
		WindowStart:    time.Unix(int64(a.WindowStart), 0).UTC(),
		WindowEnd:      time.Unix(int64(a.WindowEnd), 0).UTC(),
		SwapCount:      a.SwapCount,
		MintCount:      a.MintCount,
		BurnCount:      a.BurnCount,
		BaseVolume:     a.BaseVolume.String(),
		TokenVolume:    a.TokenVolume.String(),
		FeeTotal:       a.FeeTotal.String(),
		LastReserve0:   a.LastReserve0,
		LastReserve1:   a.LastReserve1,
		LastSeq:        a.LastSeq,
	}
}

func parseBigInt(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid int: %s", value)
	}
	return parsed, nil
}

func windowStartFor(ts, windowSeconds uint64) uint64 {
	return ts - ts%windowSeconds
}
