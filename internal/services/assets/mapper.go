// Package assets translates between wallet-local asset identifiers and the
// chain-native ids the runtime trades with. All lookups run against the
// currently loaded registry snapshot; nothing is cached here.
package assets

import (
	"fmt"
	"math/big"

	"github.com/rs/zerolog/log"

	"github.com/novasamatech/hydra-route-engine/internal/chain"
	"github.com/novasamatech/hydra-route-engine/internal/common"
	"github.com/novasamatech/hydra-route-engine/internal/domain"
)

// ToRemote resolves a registered asset to its chain-native id. Native assets
// map to the reserved id 0; orml assets decode their declared currency id
// through the runtime decoder. Every other storage kind is untradable.
func ToRemote(chainModel *chain.Chain, asset chain.AssetDescriptor, decoder chain.Decoder) (domain.LocalRemoteAsset, error) {
	local := chainModel.LocalID(asset.LocalIndex)

	switch asset.Kind {
	case chain.StorageNative:
		return domain.LocalRemoteAsset{Local: local, Remote: domain.NativeRemoteAssetID}, nil
	case chain.StorageOrml:
		remote, err := decodeCurrencyID(asset, decoder)
		if err != nil {
			return domain.LocalRemoteAsset{}, fmt.Errorf("%w: asset %d: %v",
				common.ErrUnsupportedLocalAsset, asset.LocalIndex, err)
		}
		return domain.LocalRemoteAsset{Local: local, Remote: remote}, nil
	default:
		return domain.LocalRemoteAsset{}, fmt.Errorf("%w: asset %d has storage kind %d",
			common.ErrUnsupportedLocalAsset, asset.LocalIndex, asset.Kind)
	}
}

// ToLocal resolves a chain-native id back to the wallet registry. Id 0 always
// denotes the chain's utility asset. Registered assets whose currency id
// fails to decode are skipped, not fatal: the registry is expected to carry
// non-decodable stubs.
func ToLocal(remote domain.RemoteAssetID, chainModel *chain.Chain, decoder chain.Decoder) (domain.LocalAssetID, error) {
	if remote.IsNative() {
		utility, ok := chainModel.UtilityAsset()
		if !ok {
			return domain.LocalAssetID{}, fmt.Errorf("%w: chain %s has no utility asset",
				common.ErrUnknownRemoteAsset, chainModel.ID)
		}
		return chainModel.LocalID(utility.LocalIndex), nil
	}

	for _, asset := range chainModel.Assets {
		if asset.Kind != chain.StorageOrml {
			continue
		}
		candidate, err := decodeCurrencyID(asset, decoder)
		if err != nil {
			log.Debug().
				Str("chain", chainModel.ID).
				Uint32("asset", asset.LocalIndex).
				Err(err).
				Msg("skipping asset with undecodable currency id")
			continue
		}
		if candidate == remote {
			return chainModel.LocalID(asset.LocalIndex), nil
		}
	}

	return domain.LocalAssetID{}, fmt.Errorf("%w: remote id %d on chain %s",
		common.ErrUnknownRemoteAsset, remote, chainModel.ID)
}

// BatchRemoteToLocal resolves many chain-native ids at once. The registry is
// decoded a single time (same skip-on-error policy as ToLocal) and the result
// filtered to the requested ids; absent entries simply do not appear in the
// returned map.
func BatchRemoteToLocal(remotes map[domain.RemoteAssetID]struct{}, chainModel *chain.Chain, decoder chain.Decoder) map[domain.RemoteAssetID]domain.LocalAssetID {
	remoteToLocal := make(map[domain.RemoteAssetID]domain.LocalAssetID, len(remotes))

	if utility, ok := chainModel.UtilityAsset(); ok {
		remoteToLocal[domain.NativeRemoteAssetID] = chainModel.LocalID(utility.LocalIndex)
	}

	for _, asset := range chainModel.Assets {
		if asset.Kind != chain.StorageOrml {
			continue
		}
		remote, err := decodeCurrencyID(asset, decoder)
		if err != nil {
			log.Debug().
				Str("chain", chainModel.ID).
				Uint32("asset", asset.LocalIndex).
				Err(err).
				Msg("skipping asset with undecodable currency id")
			continue
		}
		if _, exists := remoteToLocal[remote]; !exists {
			remoteToLocal[remote] = chainModel.LocalID(asset.LocalIndex)
		}
	}

	result := make(map[domain.RemoteAssetID]domain.LocalAssetID, len(remotes))
	for remote := range remotes {
		if local, ok := remoteToLocal[remote]; ok {
			result[remote] = local
		}
	}
	return result
}

// ResolvePair resolves both sides of a local swap pair to their remote ids.
func ResolvePair(pair domain.LocalSwapPair, chainModel *chain.Chain, decoder chain.Decoder) (domain.RemoteSwapPair, error) {
	assetIn, ok := chainModel.Asset(pair.AssetIn.AssetIndex)
	if !ok {
		return domain.RemoteSwapPair{}, fmt.Errorf("%w: asset %d not registered",
			common.ErrUnsupportedLocalAsset, pair.AssetIn.AssetIndex)
	}
	assetOut, ok := chainModel.Asset(pair.AssetOut.AssetIndex)
	if !ok {
		return domain.RemoteSwapPair{}, fmt.Errorf("%w: asset %d not registered",
			common.ErrUnsupportedLocalAsset, pair.AssetOut.AssetIndex)
	}

	remoteIn, err := ToRemote(chainModel, assetIn, decoder)
	if err != nil {
		return domain.RemoteSwapPair{}, err
	}
	remoteOut, err := ToRemote(chainModel, assetOut, decoder)
	if err != nil {
		return domain.RemoteSwapPair{}, err
	}

	return domain.RemotePair(remoteIn, remoteOut), nil
}

func decodeCurrencyID(asset chain.AssetDescriptor, decoder chain.Decoder) (domain.RemoteAssetID, error) {
	if len(asset.CurrencyID) == 0 {
		return 0, fmt.Errorf("no currency id declared")
	}
	value, err := decoder.Decode(asset.CurrencyID, asset.CurrencyTypeTag)
	if err != nil {
		return 0, err
	}
	switch id := value.(type) {
	case domain.RemoteAssetID:
		return id, nil
	case uint32:
		return domain.RemoteAssetID(id), nil
	case *big.Int:
		if !id.IsUint64() || id.Uint64() > uint64(^uint32(0)) {
			return 0, fmt.Errorf("currency id out of range: %s", id)
		}
		return domain.RemoteAssetID(id.Uint64()), nil
	default:
		return 0, fmt.Errorf("%w: unexpected currency id type %T", chain.ErrDecode, value)
	}
}
