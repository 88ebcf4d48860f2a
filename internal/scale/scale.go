// Package scale holds the small subset of the SCALE codec needed to build
// time-release and multisig calls, plus storage key hashers.
package scale

import (
	"encoding/binary"
	"errors"
	"math/big"
)

var errNegative = errors.New("scale: cannot encode a negative integer")

// Encoder accumulates SCALE encoded bytes
type Encoder struct {
	buf []byte
}

// Bytes returns the encoded payload
func (e *Encoder) Bytes() []byte {
	out := make([]byte, len(e.buf))
	copy(out, e.buf)
	return out
}

func (e *Encoder) PushByte(b byte) {
	e.buf = append(e.buf, b)
}

func (e *Encoder) PushBytes(b []byte) {
	e.buf = append(e.buf, b...)
}

func (e *Encoder) PushU16(v uint16) {
	e.buf = binary.LittleEndian.AppendUint16(e.buf, v)
}

func (e *Encoder) PushU32(v uint32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

// PushCompact appends v in compact encoding
func (e *Encoder) PushCompact(v uint64) {
	e.buf = append(e.buf, EncodeCompact(v)...)
}

// PushCompactBig appends a compact encoded big integer
func (e *Encoder) PushCompactBig(v *big.Int) error {
	b, err := EncodeCompactBig(v)
	if err != nil {
		return err
	}
	e.buf = append(e.buf, b...)
	return nil
}

// EncodeCompact returns the compact encoding of v
func EncodeCompact(v uint64) []byte {
	switch {
	case v < 1<<6:
		return []byte{byte(v << 2)}
	case v < 1<<14:
		return binary.LittleEndian.AppendUint16(nil, uint16(v<<2)|0b01)
	case v < 1<<30:
		return binary.LittleEndian.AppendUint32(nil, uint32(v<<2)|0b10)
	}
	le := binary.LittleEndian.AppendUint64(nil, v)
	n := len(le)
	for n > 4 && le[n-1] == 0 {
		n--
	}
	return append([]byte{byte((n-4)<<2) | 0b11}, le[:n]...)
}

// EncodeCompactBig returns the compact encoding of a non-negative integer of
// up to 536 bits.
func EncodeCompactBig(v *big.Int) ([]byte, error) {
	if v.Sign() < 0 {
		return nil, errNegative
	}
	if v.IsUint64() {
		return EncodeCompact(v.Uint64()), nil
	}
	be := v.Bytes()
	if len(be) > 67 {
		return nil, errors.New("scale: integer too large for compact encoding")
	}
	le := make([]byte, len(be))
	for i, b := range be {
		le[len(be)-1-i] = b
	}
	return append([]byte{byte((len(le)-4)<<2) | 0b11}, le...), nil
}

// DecodeU32 reads a little-endian u32
func DecodeU32(b []byte) (uint32, error) {
	if len(b) < 4 {
		return 0, errors.New("scale: short buffer for u32")
	}
	return binary.LittleEndian.Uint32(b), nil
}

// DecodeU64 reads a little-endian u64
func DecodeU64(b []byte) (uint64, error) {
	if len(b) < 8 {
		return 0, errors.New("scale: short buffer for u64")
	}
	return binary.LittleEndian.Uint64(b), nil
}

// DecodeU128 reads a little-endian u128 into a big.Int
func DecodeU128(b []byte) (*big.Int, error) {
	if len(b) < 16 {
		return nil, errors.New("scale: short buffer for u128")
	}
	be := make([]byte, 16)
	for i := 0; i < 16; i++ {
		be[15-i] = b[i]
	}
	return new(big.Int).SetBytes(be), nil
}
