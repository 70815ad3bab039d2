// Package signer abstracts the wallet capability the orchestrator depends
// on: turning a pool-built unsigned transaction into signed bytes. Key
// management stays on the wallet side.
package signer

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Signer produces signed transaction bytes from an unsigned, base64-encoded
// transaction. A user declining to sign is reported as UserRejectedError.
type Signer interface {
	Sign(ctx context.Context, unsignedTxBase64 string) ([]byte, error)
}

// UserRejectedError means the user declined the signing prompt. It is never
// retried and never counts against any circuit breaker: nothing upstream
// failed.
type UserRejectedError struct {
	Reason string
}

func (e *UserRejectedError) Error() string {
	if e.Reason == "" {
		return "user rejected signing"
	}
	return fmt.Sprintf("user rejected signing: %s", e.Reason)
}

// LocalSigner signs with an in-process private key. Used by the CLI; a
// browser-wallet host would supply its own Signer instead.
type LocalSigner struct {
	key solana.PrivateKey
}

// NewLocalSigner parses a base58-encoded private key.
func NewLocalSigner(base58Key string) (*LocalSigner, error) {
	if base58Key == "" {
		return nil, fmt.Errorf("wallet private key is not configured")
	}
	key, err := solana.PrivateKeyFromBase58(base58Key)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return &LocalSigner{key: key}, nil
}

// PublicKey returns the signer's wallet address.
func (s *LocalSigner) PublicKey() string {
	return s.key.PublicKey().String()
}

// Sign deserializes the unsigned transaction, signs it and returns the
// wire-ready bytes.
func (s *LocalSigner) Sign(ctx context.Context, unsignedTxBase64 string) ([]byte, error) {
	tx, err := solana.TransactionFromBase64(unsignedTxBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode unsigned transaction: %w", err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(s.key.PublicKey()) {
			return &s.key
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	signed, err := tx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize signed transaction: %w", err)
	}
	return signed, nil
}

// SignMessage signs an arbitrary payload, used as the authentication proof
// for private balance reads.
func (s *LocalSigner) SignMessage(message []byte) (string, error) {
	sig, err := s.key.Sign(message)
	if err != nil {
		return "", fmt.Errorf("failed to sign message: %w", err)
	}
	return sig.String(), nil
}
