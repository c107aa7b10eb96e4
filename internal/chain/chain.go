// Package chain holds the narrow contracts this engine consumes from the
// wallet's chain layer: the asset registry snapshot, read-only state queries
// and the runtime value decoder. Implementations live behind these interfaces
// so the engine never touches transport or metadata directly.
package chain

import (
	"context"
	"encoding/binary"
	"errors"

	"github.com/novasamatech/hydra-route-engine/internal/domain"
)

var (
	ErrDecode       = errors.New("chain value decode failed")
	ErrStateMissing = errors.New("storage value not found")
)

// AssetStorageKind classifies how an asset's balance is stored on chain.
type AssetStorageKind uint8

const (
	// StorageNative is the chain's own utility asset.
	StorageNative AssetStorageKind = iota
	// StorageOrml is a mapped currency backed by an orml-style tokens pallet;
	// the descriptor carries the encoded currency id.
	StorageOrml
	// StorageOther covers storage kinds this engine cannot trade.
	StorageOther
)

// AssetDescriptor is one entry of a chain's asset registry.
type AssetDescriptor struct {
	LocalIndex uint32
	Symbol     string
	Kind       AssetStorageKind

	// CurrencyID is the SCALE-encoded currency id declared by the registry
	// for orml assets, decodable through CurrencyTypeTag.
	CurrencyID      []byte
	CurrencyTypeTag string
}

// Chain is an immutable snapshot of one chain's registry. A registry reload
// produces a new snapshot; ids derived from an old one must not be reused.
type Chain struct {
	ID     string
	Assets []AssetDescriptor
}

// UtilityAsset returns the chain's native asset if the registry declares one.
func (c *Chain) UtilityAsset() (AssetDescriptor, bool) {
	for _, asset := range c.Assets {
		if asset.Kind == StorageNative {
			return asset, true
		}
	}
	return AssetDescriptor{}, false
}

// Asset looks a descriptor up by wallet-local index.
func (c *Chain) Asset(index uint32) (AssetDescriptor, bool) {
	for _, asset := range c.Assets {
		if asset.LocalIndex == index {
			return asset, true
		}
	}
	return AssetDescriptor{}, false
}

// LocalID builds the wallet registry key for an asset on this chain.
func (c *Chain) LocalID(index uint32) domain.LocalAssetID {
	return domain.LocalAssetID{ChainID: c.ID, AssetIndex: index}
}

// StorageQuery is a read-only point query against current chain state.
type StorageQuery struct {
	Pallet string
	Entry  string
	Key    []byte
}

// StateReader submits read-only state queries. Returns ErrStateMissing when
// the storage entry has no value.
type StateReader interface {
	ReadState(ctx context.Context, query StorageQuery) ([]byte, error)
}

// Decoder decodes a typed value from raw chain storage. The concrete type of
// the returned value is fixed per type tag; callers type-assert and treat a
// mismatch as ErrDecode.
type Decoder interface {
	Decode(raw []byte, typeTag string) (any, error)
}

// U32Key encodes a u32 storage map key the way the runtime expects it.
func U32Key(v uint32) []byte {
	key := make([]byte, 4)
	binary.LittleEndian.PutUint32(key, v)
	return key
}
