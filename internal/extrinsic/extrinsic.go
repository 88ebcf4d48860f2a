// Package extrinsic encodes the runtime calls submitted by the helper.
package extrinsic

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/crypto/blake2b"

	"time-release-helper/internal/models"
	"time-release-helper/internal/scale"
	"time-release-helper/internal/ss58"
)

// MultiAddress::Id variant
const multiAddressID = 0x00

// CallIndex is the (pallet, call) pair that prefixes an encoded call
type CallIndex struct {
	Pallet uint8 `yaml:"pallet"`
	Call   uint8 `yaml:"call"`
}

// Builder encodes calls for one runtime
type Builder struct {
	Prefix      uint16
	TimeRelease CallIndex
	AsMulti     CallIndex
	MaxWeight   models.Weight
}

// BuildTransfer encodes timeRelease.transfer(dest, schedule)
func (b *Builder) BuildTransfer(call models.TransferCall) ([]byte, error) {
	dest, err := ss58.DecodeWithPrefix(call.Recipient.String(), b.Prefix)
	if err != nil {
		return nil, &models.InvalidAddressError{Which: call.Recipient.String(), Reason: err.Error()}
	}
	if call.AmountPlanck == nil {
		return nil, fmt.Errorf("transfer amount is not set")
	}

	enc := &scale.Encoder{}
	enc.PushByte(b.TimeRelease.Pallet)
	enc.PushByte(b.TimeRelease.Call)

	enc.PushByte(multiAddressID)
	enc.PushBytes(dest[:])

	enc.PushU32(call.ScheduleStart)
	enc.PushU32(call.Period)
	enc.PushU32(call.PeriodCount)
	if err := enc.PushCompactBig(call.AmountPlanck); err != nil {
		return nil, fmt.Errorf("failed to encode amount: %w", err)
	}

	return enc.Bytes(), nil
}

// BuildAsMulti wraps an encoded call in multisig.asMulti with no timepoint.
// others must already be in canonical order and exclude the signer.
func (b *Builder) BuildAsMulti(threshold uint16, others []ss58.AccountID, inner []byte) []byte {
	enc := &scale.Encoder{}
	enc.PushByte(b.AsMulti.Pallet)
	enc.PushByte(b.AsMulti.Call)

	enc.PushU16(threshold)
	enc.PushCompact(uint64(len(others)))
	for _, id := range others {
		enc.PushBytes(id[:])
	}

	// maybe_timepoint: None
	enc.PushByte(0x00)
	enc.PushBytes(inner)

	enc.PushCompact(b.MaxWeight.RefTime)
	enc.PushCompact(b.MaxWeight.ProofSize)

	return enc.Bytes()
}

// Hash is the blake2b-256 digest of data, 0x-prefixed hex
func Hash(data []byte) string {
	sum := blake2b.Sum256(data)
	return hexutil.Encode(sum[:])
}

// Fingerprint identifies a call before it has a transaction hash
func Fingerprint(call []byte) string {
	return Hash(call)
}

// TxHash is the hash of a signed extrinsic as reported by the node
func TxHash(signed []byte) string {
	return Hash(signed)
}
