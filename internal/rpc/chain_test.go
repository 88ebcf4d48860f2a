package rpc

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"math/big"
	"testing"
	"time"

	"time-release-helper/internal/models"
	"time-release-helper/internal/scale"
)

// MockChainClient serves storage from memory
type MockChainClient struct {
	props   models.ChainProperties
	head    uint64
	storage map[string][]byte
	err     error
}

func (m *MockChainClient) Properties(ctx context.Context) (models.ChainProperties, error) {
	return m.props, m.err
}

func (m *MockChainClient) Head(ctx context.Context) (uint64, error) {
	return m.head, m.err
}

func (m *MockChainClient) Storage(ctx context.Context, key []byte) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.storage[hex.EncodeToString(key)], nil
}

func (m *MockChainClient) set(key []byte, value []byte) {
	if m.storage == nil {
		m.storage = make(map[string][]byte)
	}
	m.storage[hex.EncodeToString(key)] = value
}

func connectMock(t *testing.T, m *MockChainClient) *ChainContext {
	t.Helper()
	cc, err := Connect(context.Background(), "ws://node:9944", m)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	return cc
}

func TestConnect(t *testing.T) {
	m := &MockChainClient{props: models.ChainProperties{SS58Format: 90, TokenSymbol: "FRQCY", TokenDecimals: 8}}
	cc := connectMock(t, m)
	if cc.Prefix != 90 || cc.Unit != "FRQCY" || cc.Decimals != 8 || cc.Endpoint != "ws://node:9944" {
		t.Errorf("ChainContext = %+v", cc)
	}

	if _, err := Connect(context.Background(), "ws://down", &MockChainClient{err: errors.New("refused")}); err == nil {
		t.Error("expected Connect() to fail")
	}
}

func TestCurrentRelayBlock(t *testing.T) {
	m := &MockChainClient{props: models.ChainProperties{SS58Format: 42}, head: 500}
	cc := connectMock(t, m)

	block, err := cc.CurrentRelayBlock(context.Background())
	if err != nil || block != 500 {
		t.Errorf("CurrentRelayBlock() without parachain storage = %d, %v", block, err)
	}

	m.set(scale.StorageKey("ParachainSystem", "LastRelayChainBlockNumber"), binary.LittleEndian.AppendUint32(nil, 4752207))
	block, err = cc.CurrentRelayBlock(context.Background())
	if err != nil || block != 4752207 {
		t.Errorf("CurrentRelayBlock() = %d, %v", block, err)
	}
}

func TestLiveReference(t *testing.T) {
	m := &MockChainClient{props: models.ChainProperties{SS58Format: 42}, head: 1000}
	cc := connectMock(t, m)

	if _, err := cc.LiveReference(context.Background(), 6*time.Second); err == nil {
		t.Error("expected error without Timestamp.Now")
	}

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	m.set(scale.StorageKey("Timestamp", "Now"), binary.LittleEndian.AppendUint64(nil, uint64(at.UnixMilli())))

	ref, err := cc.LiveReference(context.Background(), 6*time.Second)
	if err != nil {
		t.Fatalf("LiveReference() error = %v", err)
	}
	if ref.BlockHeight != 1000 || !ref.Timestamp.Equal(at) || ref.BlockInterval != 6*time.Second {
		t.Errorf("LiveReference() = %+v", ref)
	}

	if _, err := cc.LiveReference(context.Background(), 0); err == nil {
		t.Error("expected error for zero interval")
	}
}

func TestFreeBalance(t *testing.T) {
	m := &MockChainClient{props: models.ChainProperties{SS58Format: 42, TokenDecimals: 8}}
	cc := connectMock(t, m)
	alice := models.Signatory("5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY")

	balance, err := cc.FreeBalance(context.Background(), alice)
	if err != nil || balance.Sign() != 0 {
		t.Errorf("FreeBalance(unknown account) = %v, %v", balance, err)
	}

	aliceID, _ := hex.DecodeString("d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d")
	info := make([]byte, 16+64)
	info[0] = 3 // nonce
	binary.LittleEndian.PutUint64(info[16:], 250_000_000)
	m.set(scale.MapKey("System", "Account", aliceID), info)

	balance, err = cc.FreeBalance(context.Background(), alice)
	if err != nil {
		t.Fatalf("FreeBalance() error = %v", err)
	}
	if balance.Cmp(big.NewInt(250_000_000)) != 0 {
		t.Errorf("FreeBalance() = %s", balance)
	}
	if got := cc.FormatBalance(balance); got != "2.50000000" {
		t.Errorf("FormatBalance() = %s", got)
	}

	var invalid *models.InvalidAddressError
	if _, err := cc.FreeBalance(context.Background(), "15oF4uVJwmo4TdGW7VfQxNLavjCXviqxT9S1MgbjMNHr6Sp5"); !errors.As(err, &invalid) {
		t.Errorf("FreeBalance(other network) error = %v", err)
	}
}
