package model

import "time"

// PoolWindowStats stores aggregated trading activity for a pool window.
type PoolWindowStats struct {
	PoolAddress    string
	WindowSizeSecs int64
	WindowStart    time.Time
	WindowEnd      time.Time
	SwapCount      uint64
	MintCount      uint64
	BurnCount      uint64
	BaseVolume     string
	TokenVolume    string
	FeeTotal       string
	LastReserve0   string
	LastReserve1   string
	LastSeq        uint64
}
