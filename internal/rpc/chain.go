package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"time-release-helper/internal/interfaces"
	"time-release-helper/internal/models"
	"time-release-helper/internal/scale"
	"time-release-helper/internal/ss58"
	"time-release-helper/internal/units"
)

var _ interfaces.ChainClient = (*Client)(nil)

var (
	timestampNowKey = scale.StorageKey("Timestamp", "Now")
	lastRelayKey    = scale.StorageKey("ParachainSystem", "LastRelayChainBlockNumber")
)

// AccountInfo layout: nonce, consumers, providers, sufficients (u32 each), then free (u128)
const freeBalanceOffset = 16

// Properties reads system_properties. Missing fields keep their defaults.
func (c *Client) Properties(ctx context.Context) (models.ChainProperties, error) {
	var raw struct {
		SS58Format    *uint16         `json:"ss58Format"`
		TokenSymbol   json.RawMessage `json:"tokenSymbol"`
		TokenDecimals json.RawMessage `json:"tokenDecimals"`
	}
	props := models.ChainProperties{SS58Format: 42, TokenSymbol: "UNIT", TokenDecimals: units.DefaultDecimals}

	if err := c.CallResult(ctx, "system_properties", nil, &raw); err != nil {
		return props, fmt.Errorf("failed to read chain properties: %w", err)
	}

	if raw.SS58Format != nil {
		props.SS58Format = *raw.SS58Format
	}
	if sym, ok := firstOf[string](raw.TokenSymbol); ok {
		props.TokenSymbol = sym
	}
	if dec, ok := firstOf[uint8](raw.TokenDecimals); ok {
		props.TokenDecimals = dec
	}
	return props, nil
}

// firstOf decodes either a scalar or the first element of an array; multi-token
// chains report both fields as arrays.
func firstOf[T any](raw json.RawMessage) (T, bool) {
	var zero T
	if len(raw) == 0 || string(raw) == "null" {
		return zero, false
	}
	var v T
	if err := json.Unmarshal(raw, &v); err == nil {
		return v, true
	}
	var list []T
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list[0], true
	}
	return zero, false
}

// Head returns the number of the best block
func (c *Client) Head(ctx context.Context) (uint64, error) {
	var header struct {
		Number string `json:"number"`
	}
	if err := c.CallResult(ctx, "chain_getHeader", nil, &header); err != nil {
		return 0, fmt.Errorf("failed to get chain head: %w", err)
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(header.Number, "0x"), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid block number %q: %w", header.Number, err)
	}
	return n, nil
}

// Storage returns the raw storage value at key, or nil when the key is empty
func (c *Client) Storage(ctx context.Context, key []byte) ([]byte, error) {
	var value *string
	if err := c.CallResult(ctx, "state_getStorage", []interface{}{hexutil.Encode(key)}, &value); err != nil {
		return nil, fmt.Errorf("failed to read storage %s: %w", hexutil.Encode(key), err)
	}
	if value == nil {
		return nil, nil
	}
	b, err := hexutil.Decode(*value)
	if err != nil {
		return nil, fmt.Errorf("invalid storage value: %w", err)
	}
	return b, nil
}

// ChainContext is an established connection to one network. It is immutable;
// reconnecting builds a new value.
type ChainContext struct {
	Endpoint string
	Prefix   uint16
	Unit     string
	Decimals uint8

	chain interfaces.ChainClient
}

// Connect reads the chain properties through chain and returns the context for endpoint
func Connect(ctx context.Context, endpoint string, chain interfaces.ChainClient) (*ChainContext, error) {
	props, err := chain.Properties(ctx)
	if err != nil {
		return nil, err
	}
	return &ChainContext{
		Endpoint: endpoint,
		Prefix:   props.SS58Format,
		Unit:     props.TokenSymbol,
		Decimals: props.TokenDecimals,
		chain:    chain,
	}, nil
}

// CurrentRelayBlock returns the last relay chain block seen by a parachain,
// or the chain's own head on a relay or solo chain.
func (cc *ChainContext) CurrentRelayBlock(ctx context.Context) (uint64, error) {
	raw, err := cc.chain.Storage(ctx, lastRelayKey)
	if err != nil {
		return 0, err
	}
	if raw == nil {
		return cc.chain.Head(ctx)
	}
	n, err := scale.DecodeU32(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid relay block number: %w", err)
	}
	return uint64(n), nil
}

// LiveReference builds a chain reference from the node's current state
func (cc *ChainContext) LiveReference(ctx context.Context, interval time.Duration) (models.ChainReference, error) {
	block, err := cc.CurrentRelayBlock(ctx)
	if err != nil {
		return models.ChainReference{}, err
	}

	raw, err := cc.chain.Storage(ctx, timestampNowKey)
	if err != nil {
		return models.ChainReference{}, err
	}
	if raw == nil {
		return models.ChainReference{}, fmt.Errorf("node reports no Timestamp.Now")
	}
	ms, err := scale.DecodeU64(raw)
	if err != nil {
		return models.ChainReference{}, fmt.Errorf("invalid timestamp: %w", err)
	}

	ref := models.ChainReference{
		BlockHeight:   block,
		Timestamp:     time.UnixMilli(int64(ms)).UTC(),
		BlockInterval: interval,
	}
	return ref, ref.Validate()
}

// FreeBalance returns the free balance of an account, zero for unknown accounts
func (cc *ChainContext) FreeBalance(ctx context.Context, address models.Signatory) (*big.Int, error) {
	id, err := ss58.DecodeWithPrefix(address.String(), cc.Prefix)
	if err != nil {
		return nil, &models.InvalidAddressError{Which: address.String(), Reason: err.Error()}
	}

	raw, err := cc.chain.Storage(ctx, scale.MapKey("System", "Account", id[:]))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return new(big.Int), nil
	}
	return scale.DecodeU128(raw[min(freeBalanceOffset, len(raw)):])
}

// FormatBalance renders planck in this chain's unit
func (cc *ChainContext) FormatBalance(planck *big.Int) string {
	return units.FormatBalance(planck, cc.Decimals)
}

// HTTPURL maps a websocket endpoint to the HTTP endpoint served on the same port
func HTTPURL(endpoint string) string {
	switch {
	case strings.HasPrefix(endpoint, "wss://"):
		return "https://" + strings.TrimPrefix(endpoint, "wss://")
	case strings.HasPrefix(endpoint, "ws://"):
		return "http://" + strings.TrimPrefix(endpoint, "ws://")
	default:
		return endpoint
	}
}

// WSURL maps an HTTP endpoint to its websocket form
func WSURL(endpoint string) string {
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return "wss://" + strings.TrimPrefix(endpoint, "https://")
	case strings.HasPrefix(endpoint, "http://"):
		return "ws://" + strings.TrimPrefix(endpoint, "http://")
	default:
		return endpoint
	}
}
