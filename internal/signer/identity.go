package signer

import (
	"crypto/ed25519"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
	"github.com/portto/solana-go-sdk/types"

	"solana-swap-service/internal/domain"
)

// Identity holds the custodial signing keypair. The secret key never
// leaves this package and must never appear in logs or API responses.
type Identity struct {
	account types.Account
}

// NewIdentity loads a keypair from a base58-encoded 64-byte secret key
// (the standard Solana keypair export format). The embedded public key is
// checked to be a valid curve point before the identity is accepted.
func NewIdentity(base58Secret string) (*Identity, error) {
	raw, err := base58.Decode(base58Secret)
	if err != nil {
		return nil, fmt.Errorf("decode secret key: %w", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("secret key is %d bytes, want %d", len(raw), ed25519.PrivateKeySize)
	}

	account, err := types.AccountFromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("load keypair: %w", err)
	}

	pub := account.PublicKey.Bytes()
	if _, err := new(edwards25519.Point).SetBytes(pub); err != nil {
		return nil, fmt.Errorf("public key is not a valid curve point: %w", err)
	}

	return &Identity{account: account}, nil
}

// PublicKey returns the base58 address of the signing identity.
func (i *Identity) PublicKey() string {
	return i.account.PublicKey.ToBase58()
}

// SignTransaction deserializes an unsigned transaction, signs its message
// with the identity key, places the signature in the slot matching the
// identity's account position, and reserializes. The transaction content
// is never modified, only the signature slot.
func (i *Identity) SignTransaction(unsigned []byte) ([]byte, error) {
	tx, err := types.TransactionDeserialize(unsigned)
	if err != nil {
		return nil, fmt.Errorf("%w: deserialize: %v", domain.ErrMalformedTransaction, err)
	}

	msg, err := tx.Message.Serialize()
	if err != nil {
		return nil, fmt.Errorf("%w: serialize message: %v", domain.ErrMalformedTransaction, err)
	}

	idx := -1
	for n, acct := range tx.Message.Accounts {
		if acct == i.account.PublicKey {
			idx = n
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: identity %s is not a transaction account", domain.ErrSigningFailure, i.PublicKey())
	}
	if idx >= len(tx.Signatures) {
		return nil, fmt.Errorf("%w: identity %s is not a required signer", domain.ErrSigningFailure, i.PublicKey())
	}

	tx.Signatures[idx] = ed25519.Sign(i.account.PrivateKey, msg)

	signed, err := tx.Serialize()
	if err != nil {
		return nil, fmt.Errorf("%w: serialize: %v", domain.ErrSigningFailure, err)
	}
	return signed, nil
}
