package ss58

import (
	"encoding/binary"
	"slices"

	"golang.org/x/crypto/blake2b"

	"time-release-helper/internal/scale"
)

var multisigSeed = []byte("modlpy/utilisuba")

// SortAccounts sorts ids ascending by their bytes and drops duplicates
func SortAccounts(ids []AccountID) []AccountID {
	out := slices.Clone(ids)
	slices.SortFunc(out, AccountID.Compare)
	return slices.Compact(out)
}

// MultisigAccount derives the pallet-multisig account id for a signatory set
// and threshold. The input order does not matter.
func MultisigAccount(signatories []AccountID, threshold uint16) AccountID {
	sorted := SortAccounts(signatories)

	buf := append([]byte{}, multisigSeed...)
	buf = append(buf, scale.EncodeCompact(uint64(len(sorted)))...)
	for _, id := range sorted {
		buf = append(buf, id[:]...)
	}
	buf = binary.LittleEndian.AppendUint16(buf, threshold)

	return AccountID(blake2b.Sum256(buf))
}
