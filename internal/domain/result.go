package domain

import "github.com/shopspring/decimal"

// Swap result statuses.
const (
	SwapStatusSuccess = "success"
	SwapStatusFailed  = "failed"
)

// SwapResult is the terminal outcome of one swap request. Returned to the
// caller; the pipeline itself never persists it (the journal is an async
// observer).
type SwapResult struct {
	RequestID       string
	Status          string
	InputAmount     decimal.Decimal
	PredictedOutput decimal.Decimal
	TransactionID   string
	FailureReason   string // empty on success
}

// SwapRecord is the journal row for a terminal swap outcome. Amounts are
// stored as decimal strings to keep the journal lossless.
type SwapRecord struct {
	RequestID       string
	InputSymbol     string
	OutputSymbol    string
	InputAmount     string
	PredictedOutput string // empty when the pipeline failed before quoting
	SlippageBps     int
	Status          string
	FailureReason   string
	TxSignature     string
	CreatedAt       int64 // Unix timestamp in milliseconds
}
