package rpc

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"time-release-helper/internal/interfaces"
	"time-release-helper/internal/models"
)

const DefaultSignerMethod = "signer_signExtrinsic"

var _ interfaces.Signer = (*RemoteSigner)(nil)

// RemoteSigner asks a wallet bridge to sign call data for an account.
// The bridge answers with the complete signed extrinsic as hex.
type RemoteSigner struct {
	Client *Client
	Method string
}

// NewRemoteSigner creates a signer for the bridge behind client
func NewRemoteSigner(client *Client, method string) *RemoteSigner {
	if method == "" {
		method = DefaultSignerMethod
	}
	return &RemoteSigner{Client: client, Method: method}
}

func (s *RemoteSigner) Sign(ctx context.Context, address models.Signatory, callData []byte) ([]byte, error) {
	var signed string
	err := s.Client.CallResult(ctx, s.Method, []interface{}{address.String(), hexutil.Encode(callData)}, &signed)
	if err != nil {
		var rejected *rpcCallError
		if errors.As(err, &rejected) {
			return nil, fmt.Errorf("%w: %s", models.ErrSigningRejected, rejected.Message)
		}
		return nil, fmt.Errorf("signer unavailable: %w", err)
	}

	b, err := hexutil.Decode(signed)
	if err != nil {
		return nil, fmt.Errorf("signer returned invalid extrinsic: %w", err)
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty extrinsic", models.ErrSigningRejected)
	}
	return b, nil
}
