package model

import (
	"encoding/json"
	"fmt"
)

// Event names emitted by the pair engine.
const (
	EventPoolCreated   = "pool_created"
	EventMint          = "mint"
	EventBurn          = "burn"
	EventSwap          = "swap"
	EventSync          = "sync"
	EventFeesWithdrawn = "fees_withdrawn"
	EventConverted     = "converted"
	EventTakeover      = "takeover"
	EventProtocolSweep = "protocol_sweep"
	EventSweep         = "sweep"
)

// EventRecord is one entry of the venue's ordered event log. Seq is the
// global commit order across all pools sharing the base asset.
type EventRecord struct {
	Seq       uint64          `json:"seq"`
	Timestamp uint64          `json:"timestamp"`
	Pool      string          `json:"pool"`
	Token     string          `json:"token"`
	EventName string          `json:"event_name"`
	Decoded   json.RawMessage `json:"decoded"`
}

// NewEventRecord marshals a typed payload into a record.
func NewEventRecord(seq, timestamp uint64, pool, token, name string, payload interface{}) (EventRecord, error) {
	decoded, err := json.Marshal(payload)
	if err != nil {
		return EventRecord{}, fmt.Errorf("marshal %s payload: %w", name, err)
	}
	return EventRecord{
		Seq:       seq,
		Timestamp: timestamp,
		Pool:      pool,
		Token:     token,
		EventName: name,
		Decoded:   decoded,
	}, nil
}
