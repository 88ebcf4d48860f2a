// Package ss58 implements the SS58 address format for 32-byte account ids.
package ss58

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
	"golang.org/x/crypto/blake2b"
)

const (
	AccountIDLength = 32
	checksumLength  = 2
	maxPrefix       = 16383
)

var checksumPrefix = []byte("SS58PRE")

var (
	ErrInvalidLength   = errors.New("invalid decoded address length")
	ErrInvalidChecksum = errors.New("invalid decoded address checksum")
	ErrInvalidBase58   = errors.New("invalid base58 encoding")
	ErrInvalidPrefix   = errors.New("invalid address prefix")
)

// AccountID is the canonical fixed-length form of an address
type AccountID [AccountIDLength]byte

// Compare orders account ids by their bytes
func (a AccountID) Compare(b AccountID) int {
	return bytes.Compare(a[:], b[:])
}

// PrefixMismatchError is returned when a well-formed address belongs to another network
type PrefixMismatchError struct {
	Expected uint16
	Found    uint16
}

func (e *PrefixMismatchError) Error() string {
	return fmt.Sprintf("prefix mismatch, expected %d, found %d", e.Expected, e.Found)
}

// Encode renders an account id with the given network prefix
func Encode(id AccountID, prefix uint16) (string, error) {
	pre, err := encodePrefix(prefix)
	if err != nil {
		return "", err
	}
	payload := append(pre, id[:]...)
	sum := checksum(payload)
	return base58.Encode(append(payload, sum[:checksumLength]...)), nil
}

// Decode parses any SS58 address and returns the account id and its prefix
func Decode(address string) (AccountID, uint16, error) {
	var id AccountID

	raw := base58.Decode(address)
	if len(raw) == 0 {
		return id, 0, ErrInvalidBase58
	}

	prefix, preLen, err := decodePrefix(raw)
	if err != nil {
		return id, 0, err
	}
	if len(raw) != preLen+AccountIDLength+checksumLength {
		return id, 0, ErrInvalidLength
	}

	body := raw[:len(raw)-checksumLength]
	sum := checksum(body)
	if !bytes.Equal(sum[:checksumLength], raw[len(raw)-checksumLength:]) {
		return id, 0, ErrInvalidChecksum
	}

	copy(id[:], body[preLen:])
	return id, prefix, nil
}

// DecodeWithPrefix decodes an address and requires the expected network prefix
func DecodeWithPrefix(address string, expected uint16) (AccountID, error) {
	id, found, err := Decode(address)
	if err != nil {
		return id, err
	}
	if found != expected {
		return id, &PrefixMismatchError{Expected: expected, Found: found}
	}
	return id, nil
}

// Check validates an address against a prefix
func Check(address string, prefix uint16) error {
	_, err := DecodeWithPrefix(address, prefix)
	return err
}

// Reencode converts a valid address of any network to the given prefix
func Reencode(address string, prefix uint16) (string, error) {
	id, _, err := Decode(address)
	if err != nil {
		return "", err
	}
	return Encode(id, prefix)
}

func checksum(payload []byte) [64]byte {
	return blake2b.Sum512(append(append([]byte{}, checksumPrefix...), payload...))
}

func encodePrefix(prefix uint16) ([]byte, error) {
	switch {
	case prefix < 64:
		return []byte{byte(prefix)}, nil
	case prefix <= maxPrefix:
		first := byte((prefix&0b0000_0000_1111_1100)>>2) | 0b0100_0000
		second := byte(prefix>>8) | byte((prefix&0b0000_0000_0000_0011)<<6)
		return []byte{first, second}, nil
	default:
		return nil, ErrInvalidPrefix
	}
}

func decodePrefix(raw []byte) (uint16, int, error) {
	switch {
	case raw[0] < 64:
		return uint16(raw[0]), 1, nil
	case raw[0] < 128:
		if len(raw) < 2 {
			return 0, 0, ErrInvalidLength
		}
		lower := (raw[0] << 2) | (raw[1] >> 6)
		upper := raw[1] & 0b0011_1111
		return uint16(lower) | uint16(upper)<<8, 2, nil
	default:
		return 0, 0, ErrInvalidPrefix
	}
}
