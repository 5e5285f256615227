package model

// Pool is the pool metadata record for storage.
type Pool struct {
	Address       string `json:"address"`
	Token         string `json:"token"`
	Base          string `json:"base"`
	BootstrapBase string `json:"bootstrap_base"`
	FirstSeenSeq  uint64 `json:"first_seen_seq"`
}
