package solana

import "context"

// Broadcaster submits signed transactions to the cluster. Submission is a
// single attempt; callers must not retry a failed broadcast because the
// transaction may have landed despite the error.
type Broadcaster interface {
	// SendTransaction submits a signed serialized transaction and returns
	// its signature.
	SendTransaction(ctx context.Context, signedTx []byte) (string, error)
}

// RPCClient defines the Solana RPC HTTP interface used by the service.
type RPCClient interface {
	Broadcaster

	// GetLatestBlockhash returns the most recent blockhash.
	GetLatestBlockhash(ctx context.Context) (*LatestBlockhash, error)

	// GetHealth reports whether the RPC node considers itself healthy.
	GetHealth(ctx context.Context) error
}
