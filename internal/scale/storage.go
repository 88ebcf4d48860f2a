package scale

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/crypto/blake2b"
)

// Twox128 is the xxhash64 pair (seeds 0 and 1) used for pallet and item prefixes
func Twox128(data []byte) []byte {
	out := make([]byte, 0, 16)
	for seed := uint64(0); seed < 2; seed++ {
		d := xxhash.NewWithSeed(seed)
		_, _ = d.Write(data)
		out = binary.LittleEndian.AppendUint64(out, d.Sum64())
	}
	return out
}

// Blake2_128Concat hashes key with blake2b-128 and appends the raw key
func Blake2_128Concat(key []byte) []byte {
	h, _ := blake2b.New(16, nil)
	h.Write(key)
	return append(h.Sum(nil), key...)
}

// StorageKey builds the key of a plain storage value
func StorageKey(pallet, item string) []byte {
	return append(Twox128([]byte(pallet)), Twox128([]byte(item))...)
}

// MapKey builds the key of a Blake2_128Concat storage map entry
func MapKey(pallet, item string, key []byte) []byte {
	return append(StorageKey(pallet, item), Blake2_128Concat(key)...)
}
