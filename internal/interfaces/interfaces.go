package interfaces

import (
	"context"

	"time-release-helper/internal/models"
)

// ChainClient reads chain state from a node
type ChainClient interface {
	// Properties returns the chain's ss58Format, tokenSymbol and tokenDecimals
	Properties(ctx context.Context) (models.ChainProperties, error)

	// Head returns the best block number
	Head(ctx context.Context) (uint64, error)

	// Storage returns the raw value at a storage key, nil when empty
	Storage(ctx context.Context, key []byte) ([]byte, error)
}

// Signer turns call data into a signed extrinsic for an account
type Signer interface {
	Sign(ctx context.Context, address models.Signatory, callData []byte) ([]byte, error)
}

// Broadcaster signs a call, submits it and reports status updates until the
// channel is closed or ctx is cancelled.
type Broadcaster interface {
	SignAndBroadcast(ctx context.Context, call []byte, signer models.Signatory) (<-chan models.StatusEvent, error)
}

// EventEmitter defines the interface for emitting events
type EventEmitter interface {
	EmitEvent(event models.SubmissionEvent) error
}
