package domain

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultSlippageBps is applied when an order does not specify a slippage
// tolerance. 50 bps = 0.5%.
const DefaultSlippageBps = 50

// SwapOrder is a request to exchange Amount of the input token for the
// output token. Amount is in human units; conversion to base units happens
// after symbol validation.
type SwapOrder struct {
	InputSymbol  string
	OutputSymbol string
	Amount       decimal.Decimal
	SlippageBps  int
}

// Normalized returns a copy with uppercased symbols and the default
// slippage applied when unset.
func (o SwapOrder) Normalized() SwapOrder {
	o.InputSymbol = strings.ToUpper(strings.TrimSpace(o.InputSymbol))
	o.OutputSymbol = strings.ToUpper(strings.TrimSpace(o.OutputSymbol))
	if o.SlippageBps <= 0 {
		o.SlippageBps = DefaultSlippageBps
	}
	return o
}

// SwapQuote is the aggregator's priced proposal for an order. The fields
// below are the only ones this service interprets; Raw carries the full
// routing payload opaquely to the transaction build call.
// Owned transiently by a single in-flight swap.
type SwapQuote struct {
	InputMint  string
	OutputMint string
	InAmount   uint64 // base units of the input token
	OutAmount  uint64 // base units of the output token
	Raw        json.RawMessage
}
