package model

// PoolCreatedEventData records a new pool registration.
type PoolCreatedEventData struct {
	Token             string `json:"token"`
	Base              string `json:"base"`
	VirtualBase       string `json:"virtual_base"`
	BootstrapBase     string `json:"bootstrap_base"`
	InitialBase       string `json:"initial_base"`
	InitialShareMatch string `json:"initial_share_match"`
}

// MintEventData is the decoded liquidity-minted payload.
type MintEventData struct {
	To         string `json:"to"`
	BaseIn     string `json:"base_in"`
	TokenIn    string `json:"token_in"`
	Shares     string `json:"shares"`
	TotalShare string `json:"total_shares"`
}

// BurnEventData is the decoded liquidity-burned payload.
type BurnEventData struct {
	To       string `json:"to"`
	BaseOut  string `json:"base_out"`
	TokenOut string `json:"token_out"`
	Shares   string `json:"shares"`
}

// SwapEventData carries the actual settled input and output amounts, not the
// caller-declared ones.
type SwapEventData struct {
	To           string `json:"to"`
	BaseIn       string `json:"base_in"`
	TokenIn      string `json:"token_in"`
	BaseOut      string `json:"base_out"`
	TokenOut     string `json:"token_out"`
	Fee          string `json:"fee"`
	ReserveBase  string `json:"reserve_base"`
	ReserveToken string `json:"reserve_token"`
}

// SyncEventData snapshots reserves after reconciliation.
type SyncEventData struct {
	ReserveBase  string `json:"reserve_base"`
	ReserveToken string `json:"reserve_token"`
}

// FeesWithdrawnEventData records an LP fee payout.
type FeesWithdrawnEventData struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// ConvertedEventData marks the presale-to-amm phase transition.
type ConvertedEventData struct {
	ReserveBase  string `json:"reserve_base"`
	ReserveToken string `json:"reserve_token"`
	VestingUntil uint64 `json:"vesting_until"`
}

// TakeoverEventData records a replaced initial provider.
type TakeoverEventData struct {
	OldProvider string `json:"old_provider"`
	NewProvider string `json:"new_provider"`
	Locked      string `json:"locked"`
	Refund      string `json:"refund"`
}

// ProtocolSweepEventData records a treasury sweep.
type ProtocolSweepEventData struct {
	Treasury string `json:"treasury"`
	Amount   string `json:"amount"`
}

// SweepEventData records stray balance paid out above reserves.
type SweepEventData struct {
	Asset  string `json:"asset"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}
