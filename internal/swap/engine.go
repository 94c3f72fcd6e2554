// Package swap runs the custodial swap pipeline.
// It coordinates: validation → quote → build → sign → broadcast
package swap

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"solana-swap-service/internal/domain"
	"solana-swap-service/internal/observability"
	"solana-swap-service/internal/solana"
	"solana-swap-service/internal/storage"
	"solana-swap-service/internal/units"
)

// Default per-stage deadlines. The build stage is slower because the
// aggregator assembles the route server-side.
const (
	DefaultQuoteTimeout     = 10 * time.Second
	DefaultBuildTimeout     = 60 * time.Second
	DefaultBroadcastTimeout = 30 * time.Second
)

// Quoter obtains a priced route for a token pair.
type Quoter interface {
	Quote(ctx context.Context, inputMint, outputMint string, amount uint64, slippageBps int) (*domain.SwapQuote, error)
}

// Builder turns a quote into an unsigned serialized transaction.
type Builder interface {
	SwapTransaction(ctx context.Context, quote *domain.SwapQuote, userPublicKey string) ([]byte, error)
}

// Signer signs transactions with the custodial identity.
type Signer interface {
	PublicKey() string
	SignTransaction(unsigned []byte) ([]byte, error)
}

// Engine executes swap orders through the pipeline. One Engine serves one
// signing identity; build, sign, and broadcast run under a mutex so the
// identity's transactions are submitted one at a time.
type Engine struct {
	tokens      *domain.Registry
	quoter      Quoter
	builder     Builder
	signer      Signer
	broadcaster solana.Broadcaster
	journal     storage.SwapRecordStore
	logger      *slog.Logger

	quoteTimeout     time.Duration
	buildTimeout     time.Duration
	broadcastTimeout time.Duration

	// submitMu serializes the build-sign-broadcast window per identity.
	submitMu sync.Mutex
}

// Options for creating Engine.
type Options struct {
	// Required
	Tokens      *domain.Registry
	Quoter      Quoter
	Builder     Builder
	Signer      Signer
	Broadcaster solana.Broadcaster
	Logger      *slog.Logger

	// Optional async journal. Journal failures never affect swap outcomes.
	Journal storage.SwapRecordStore

	// Optional per-stage deadline overrides.
	QuoteTimeout     time.Duration
	BuildTimeout     time.Duration
	BroadcastTimeout time.Duration
}

// New creates a swap Engine.
func New(opts Options) *Engine {
	e := &Engine{
		tokens:           opts.Tokens,
		quoter:           opts.Quoter,
		builder:          opts.Builder,
		signer:           opts.Signer,
		broadcaster:      opts.Broadcaster,
		journal:          opts.Journal,
		logger:           opts.Logger,
		quoteTimeout:     opts.QuoteTimeout,
		buildTimeout:     opts.BuildTimeout,
		broadcastTimeout: opts.BroadcastTimeout,
	}
	if e.quoteTimeout <= 0 {
		e.quoteTimeout = DefaultQuoteTimeout
	}
	if e.buildTimeout <= 0 {
		e.buildTimeout = DefaultBuildTimeout
	}
	if e.broadcastTimeout <= 0 {
		e.broadcastTimeout = DefaultBroadcastTimeout
	}
	return e
}

// Execute runs order through the pipeline. On failure the returned result
// carries the failure reason alongside the error; the caller decides how
// to surface it. Once signing starts, the caller's cancellation no longer
// aborts the pipeline: an interrupted broadcast could leave a transaction
// in flight with no record of it.
func (e *Engine) Execute(ctx context.Context, order domain.SwapOrder) (*domain.SwapResult, error) {
	start := time.Now()
	requestID := uuid.NewString()
	order = order.Normalized()
	state := StateReceived

	logger := e.logger.With("request_id", requestID,
		"input", order.InputSymbol, "output", order.OutputSymbol,
		"amount", order.Amount.String())
	logger.Info("swap received")

	result, err := e.run(ctx, requestID, order, &state, logger)
	if err != nil {
		failedAt := state
		state = StateFailed
		result = &domain.SwapResult{
			RequestID:     requestID,
			Status:        domain.SwapStatusFailed,
			InputAmount:   order.Amount,
			FailureReason: domain.FailureReason(err),
		}
		logger.Error("swap failed", "failed_at", string(failedAt), "reason", result.FailureReason, "error", err)
		observability.RecordSwapFailure(result.FailureReason)
	} else {
		logger.Info("swap submitted", "signature", result.TransactionID,
			"predicted_output", result.PredictedOutput.String())
	}
	observability.RecordSwap(result.Status, time.Since(start).Seconds())

	e.journalResult(order, result)
	return result, err
}

// run drives the forward transitions. It returns as soon as any stage
// fails; Execute owns the terminal bookkeeping.
func (e *Engine) run(ctx context.Context, requestID string, order domain.SwapOrder, state *State, logger *slog.Logger) (*domain.SwapResult, error) {
	// RECEIVED -> VALIDATED
	input, err := e.tokens.Resolve(order.InputSymbol)
	if err != nil {
		return nil, err
	}
	output, err := e.tokens.Resolve(order.OutputSymbol)
	if err != nil {
		return nil, err
	}
	if input.Mint == output.Mint {
		return nil, fmt.Errorf("%w: cannot swap %s for itself", domain.ErrInvalidAmount, order.InputSymbol)
	}
	baseAmount, err := units.ToBaseUnits(order.Amount, input.Decimals)
	if err != nil {
		return nil, err
	}
	if baseAmount == 0 {
		return nil, fmt.Errorf("%w: amount is zero", domain.ErrInvalidAmount)
	}
	*state = StateValidated

	// VALIDATED -> QUOTED
	quote, err := e.stageQuote(ctx, input.Mint, output.Mint, baseAmount, order.SlippageBps)
	if err != nil {
		return nil, err
	}
	*state = StateQuoted
	logger.Info("quote obtained", "in_amount", quote.InAmount, "out_amount", quote.OutAmount)

	// The remaining stages commit real funds. They run detached from the
	// caller's cancellation and serialized per signing identity.
	ctx = context.WithoutCancel(ctx)
	e.submitMu.Lock()
	defer e.submitMu.Unlock()

	// QUOTED -> BUILT
	unsigned, err := e.stageBuild(ctx, quote)
	if err != nil {
		return nil, err
	}
	*state = StateBuilt

	// BUILT -> SIGNED
	signed, err := e.stageSign(unsigned)
	if err != nil {
		return nil, err
	}
	*state = StateSigned

	// SIGNED -> SUBMITTED
	signature, err := e.stageBroadcast(ctx, signed)
	if err != nil {
		return nil, err
	}
	*state = StateSubmitted

	return &domain.SwapResult{
		RequestID:       requestID,
		Status:          domain.SwapStatusSuccess,
		InputAmount:     order.Amount,
		PredictedOutput: units.FromBaseUnits(quote.OutAmount, output.Decimals),
		TransactionID:   signature,
	}, nil
}

func (e *Engine) stageQuote(ctx context.Context, inputMint, outputMint string, amount uint64, slippageBps int) (*domain.SwapQuote, error) {
	ctx, cancel := context.WithTimeout(ctx, e.quoteTimeout)
	defer cancel()

	start := time.Now()
	quote, err := e.quoter.Quote(ctx, inputMint, outputMint, amount, slippageBps)
	observability.RecordSwapStage("quote", time.Since(start).Seconds())
	return quote, err
}

func (e *Engine) stageBuild(ctx context.Context, quote *domain.SwapQuote) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, e.buildTimeout)
	defer cancel()

	start := time.Now()
	unsigned, err := e.builder.SwapTransaction(ctx, quote, e.signer.PublicKey())
	observability.RecordSwapStage("build", time.Since(start).Seconds())
	return unsigned, err
}

func (e *Engine) stageSign(unsigned []byte) ([]byte, error) {
	start := time.Now()
	signed, err := e.signer.SignTransaction(unsigned)
	observability.RecordSwapStage("sign", time.Since(start).Seconds())
	return signed, err
}

func (e *Engine) stageBroadcast(ctx context.Context, signed []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.broadcastTimeout)
	defer cancel()

	start := time.Now()
	signature, err := e.broadcaster.SendTransaction(ctx, signed)
	observability.RecordSwapStage("broadcast", time.Since(start).Seconds())
	return signature, err
}

// journalResult appends the terminal outcome to the journal. Runs
// detached; a journal outage never changes what the caller sees.
func (e *Engine) journalResult(order domain.SwapOrder, result *domain.SwapResult) {
	if e.journal == nil {
		return
	}

	record := &domain.SwapRecord{
		RequestID:     result.RequestID,
		InputSymbol:   order.InputSymbol,
		OutputSymbol:  order.OutputSymbol,
		InputAmount:   order.Amount.String(),
		SlippageBps:   order.SlippageBps,
		Status:        result.Status,
		FailureReason: result.FailureReason,
		TxSignature:   result.TransactionID,
		CreatedAt:     time.Now().UnixMilli(),
	}
	if !result.PredictedOutput.Equal(decimal.Zero) {
		record.PredictedOutput = result.PredictedOutput.String()
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := e.journal.Insert(ctx, record)
		observability.RecordJournalWrite(err)
		if err != nil {
			e.logger.Warn("journal write failed", "request_id", record.RequestID, "error", err)
		}
	}()
}
