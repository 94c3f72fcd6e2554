package domain

import "errors"

// Failure taxonomy for the swap pipeline and price path.
// Handlers map these to HTTP status codes; components wrap them with %w.
var (
	// ErrUnsupportedSymbol is returned when a symbol does not resolve to a
	// known mint/decimals entry. Client input error.
	ErrUnsupportedSymbol = errors.New("unsupported symbol")

	// ErrInvalidAmount is returned for negative amounts or amounts that
	// cannot be represented losslessly in base units.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrUpstreamUnavailable is returned when the price oracle yields no
	// usable price.
	ErrUpstreamUnavailable = errors.New("price upstream unavailable")

	// ErrQuoteUnavailable is returned when the aggregator quote call fails
	// or returns a malformed body.
	ErrQuoteUnavailable = errors.New("quote unavailable")

	// ErrMalformedTransaction is returned when the built transaction cannot
	// be obtained or deserialized.
	ErrMalformedTransaction = errors.New("malformed transaction")

	// ErrSigningFailure is returned when local signing fails. Always fatal
	// to the request.
	ErrSigningFailure = errors.New("signing failure")

	// ErrBroadcastFailure is returned when the ledger network rejects the
	// signed transaction.
	ErrBroadcastFailure = errors.New("broadcast failure")

	// ErrCacheUnavailable marks the degraded mode where the price cache
	// store is unreachable. Swap execution does not depend on the cache.
	ErrCacheUnavailable = errors.New("price cache unavailable")

	// ErrSignerNotConfigured is returned when the trade pipeline is invoked
	// without a signing identity loaded at startup.
	ErrSignerNotConfigured = errors.New("signer not configured")
)

// FailureReason returns the short taxonomy name for a pipeline error,
// or "Internal" when the error matches no known category.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedSymbol):
		return "UnsupportedSymbol"
	case errors.Is(err, ErrInvalidAmount):
		return "InvalidAmount"
	case errors.Is(err, ErrUpstreamUnavailable):
		return "UpstreamUnavailable"
	case errors.Is(err, ErrQuoteUnavailable):
		return "QuoteUnavailable"
	case errors.Is(err, ErrMalformedTransaction):
		return "MalformedTransaction"
	case errors.Is(err, ErrSigningFailure):
		return "SigningFailure"
	case errors.Is(err, ErrBroadcastFailure):
		return "BroadcastFailure"
	case errors.Is(err, ErrCacheUnavailable):
		return "CacheUnavailable"
	case errors.Is(err, ErrSignerNotConfigured):
		return "SignerNotConfigured"
	default:
		return "Internal"
	}
}
