// Package units converts between human-readable token amounts and the
// integer base-unit representation used on the ledger. All scaling is exact
// decimal arithmetic; no binary floating point is involved.
package units

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"solana-swap-service/internal/domain"
)

// ToBaseUnits converts a human-unit amount to base units (amount × 10^decimals).
// The conversion must be lossless: amounts with more fractional digits than
// the token's decimals, negative amounts, and amounts overflowing uint64 are
// rejected with ErrInvalidAmount.
func ToBaseUnits(amount decimal.Decimal, decimals int) (uint64, error) {
	if decimals < 0 || decimals > domain.MaxDecimals {
		return 0, fmt.Errorf("%w: decimals %d out of range", domain.ErrInvalidAmount, decimals)
	}
	if amount.IsNegative() {
		return 0, fmt.Errorf("%w: negative amount %s", domain.ErrInvalidAmount, amount)
	}

	scaled := amount.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("%w: %s has more than %d fractional digits", domain.ErrInvalidAmount, amount, decimals)
	}

	bi := scaled.BigInt()
	if !bi.IsUint64() {
		return 0, fmt.Errorf("%w: %s overflows base-unit range", domain.ErrInvalidAmount, amount)
	}
	return bi.Uint64(), nil
}

// FromBaseUnits converts base units back to a human-unit decimal amount.
func FromBaseUnits(baseUnits uint64, decimals int) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(baseUnits), -int32(decimals))
}
