package scale

import (
	"encoding/hex"
	"math/big"
	"testing"
)

func TestEncodeCompact(t *testing.T) {
	tests := []struct {
		value    uint64
		expected string
	}{
		{0, "00"},
		{1, "04"},
		{42, "a8"},
		{63, "fc"},
		{64, "0101"},
		{16383, "fdff"},
		{16384, "02000100"},
		{1<<30 - 1, "feffffff"},
		{1 << 30, "0300000040"},
		{1 << 32, "070000000001"},
	}

	for _, tt := range tests {
		got := hex.EncodeToString(EncodeCompact(tt.value))
		if got != tt.expected {
			t.Errorf("EncodeCompact(%d) = %s, want %s", tt.value, got, tt.expected)
		}
	}
}

func TestEncodeCompactBig(t *testing.T) {
	// 2^64 needs nine bytes
	v := new(big.Int).Lsh(big.NewInt(1), 64)
	got, err := EncodeCompactBig(v)
	if err != nil {
		t.Fatalf("EncodeCompactBig() error = %v", err)
	}
	if hex.EncodeToString(got) == "" || got[0] != byte((9-4)<<2)|0b11 {
		t.Errorf("unexpected length prefix %x", got[0])
	}
	if hex.EncodeToString(got[1:]) != "000000000000000001" {
		t.Errorf("EncodeCompactBig(2^64) body = %x", got[1:])
	}

	small, err := EncodeCompactBig(big.NewInt(100_000_000))
	if err != nil {
		t.Fatalf("EncodeCompactBig() error = %v", err)
	}
	if hex.EncodeToString(small) != hex.EncodeToString(EncodeCompact(100_000_000)) {
		t.Errorf("small big.Int should match uint64 encoding, got %x", small)
	}

	if _, err := EncodeCompactBig(big.NewInt(-1)); err == nil {
		t.Error("expected error for negative value")
	}
}

func TestEncoderFixedWidth(t *testing.T) {
	var e Encoder
	e.PushU16(2)
	e.PushU32(0x01020304)
	e.PushByte(0xff)

	if got := hex.EncodeToString(e.Bytes()); got != "020004030201ff" {
		t.Errorf("Encoder bytes = %s", got)
	}
}

func TestDecodeU128(t *testing.T) {
	b := make([]byte, 16)
	b[0] = 0x00
	b[1] = 0xe1
	b[2] = 0xf5
	b[3] = 0x05
	got, err := DecodeU128(b)
	if err != nil {
		t.Fatalf("DecodeU128() error = %v", err)
	}
	if got.Int64() != 100_000_000 {
		t.Errorf("DecodeU128() = %s, want 100000000", got)
	}

	if _, err := DecodeU128(b[:8]); err == nil {
		t.Error("expected error for short buffer")
	}
}

func TestStorageKey(t *testing.T) {
	tests := []struct {
		pallet, item string
		expected     string
	}{
		{"Timestamp", "Now", "f0c365c3cf59d671eb72da0e7a4113c49f1f0515f462cdcf84e0f1d6045dfcbb"},
		{"System", "Account", "26aa394eea5630e07c48ae0c9558cef7b99d880ec681799c0cf30e8886371da9"},
	}

	for _, tt := range tests {
		got := hex.EncodeToString(StorageKey(tt.pallet, tt.item))
		if got != tt.expected {
			t.Errorf("StorageKey(%s, %s) = %s, want %s", tt.pallet, tt.item, got, tt.expected)
		}
	}
}

func TestMapKeyAppendsRawKey(t *testing.T) {
	key := []byte{1, 2, 3}
	got := MapKey("System", "Account", key)
	if len(got) != 32+16+3 {
		t.Fatalf("MapKey length = %d", len(got))
	}
	if hex.EncodeToString(got[48:]) != "010203" {
		t.Errorf("raw key suffix = %x", got[48:])
	}
}
