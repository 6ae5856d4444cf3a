package model

// FeeDecision is the normalized record of one fee decision and its
// reconciliation, emitted after each trade for storage and analysis.
type FeeDecision struct {
	PoolID         string `json:"pool_id"`
	Strategy       string `json:"strategy"`
	Period         uint32 `json:"period"`
	TickBefore     int32  `json:"tick_before"`
	TickAfter      int32  `json:"tick_after"`
	ChargedFeePpm  uint32 `json:"charged_fee_ppm"`
	RealizedFeePpm uint32 `json:"realized_fee_ppm"`
	CarryPpm       int32  `json:"carry_ppm"`
	PendingFeePpm  uint32 `json:"pending_fee_ppm"`
	SumSq          string `json:"sum_sq"`
	Timestamp      uint64 `json:"timestamp,omitempty"`
}
