package rpc

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/novasamatech/hydra-route-engine/internal/chain"
)

// storageKey builds the node storage key for a query:
// twox128(pallet) ++ twox128(entry), plus blake2_128_concat of the map key
// when the entry is a storage map.
func storageKey(query chain.StorageQuery) []byte {
	key := make([]byte, 0, 32+16+len(query.Key))
	key = append(key, twox128([]byte(query.Pallet))...)
	key = append(key, twox128([]byte(query.Entry))...)
	if len(query.Key) > 0 {
		key = append(key, blake2b128Concat(query.Key)...)
	}
	return key
}

// twox128 is two seeded xxhash64 runs concatenated little-endian.
func twox128(data []byte) []byte {
	out := make([]byte, 16)
	binary.LittleEndian.PutUint64(out[:8], xxhashSeeded(data, 0))
	binary.LittleEndian.PutUint64(out[8:], xxhashSeeded(data, 1))
	return out
}

func xxhashSeeded(data []byte, seed uint64) uint64 {
	digest := xxhash.NewWithSeed(seed)
	digest.Write(data)
	return digest.Sum64()
}

func blake2b128Concat(key []byte) []byte {
	digest, _ := blake2b.New(16, nil)
	digest.Write(key)
	return append(digest.Sum(nil), key...)
}
