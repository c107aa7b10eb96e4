package domain

// RemoteAssetID is the chain-native numeric identifier of an asset. It is
// meaningful only within one chain's runtime.
type RemoteAssetID uint32

// NativeRemoteAssetID is reserved by the runtime for the chain's own utility
// asset.
const NativeRemoteAssetID RemoteAssetID = 0

func (id RemoteAssetID) IsNative() bool {
	return id == NativeRemoteAssetID
}

// LocalAssetID is the wallet's registry key for an asset on a chain.
type LocalAssetID struct {
	ChainID    string `json:"chainId"`
	AssetIndex uint32 `json:"assetIndex"`
}

// LocalRemoteAsset is a verified pairing of a local asset id with the remote
// id it currently maps to. Values are produced by the asset mapper against the
// currently loaded registry; a registry reload invalidates them.
type LocalRemoteAsset struct {
	Local  LocalAssetID
	Remote RemoteAssetID
}

// LocalSwapPair is an ordered (assetIn, assetOut) tuple keyed into the wallet
// registry.
type LocalSwapPair struct {
	AssetIn  LocalAssetID
	AssetOut LocalAssetID
}

// RemoteSwapPair is an ordered (assetIn, assetOut) tuple in chain-native ids.
type RemoteSwapPair struct {
	AssetIn  RemoteAssetID
	AssetOut RemoteAssetID
}

// RemotePair drops the local halves of a resolved pair.
func RemotePair(assetIn, assetOut LocalRemoteAsset) RemoteSwapPair {
	return RemoteSwapPair{AssetIn: assetIn.Remote, AssetOut: assetOut.Remote}
}
