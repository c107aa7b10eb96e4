package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/novasamatech/hydra-route-engine/internal/domain"
)

// Runtime type tags understood by the decoder collaborator. Each tag fixes
// the concrete Go type the decoder returns for it.
const (
	TypeBalance            = "Balance"
	TypeOmnipoolAssetState = "pallet_omnipool::types::AssetState"
	TypeOmnipoolFeeParams  = "pallet_dynamic_fees::types::FeeParams"
	TypeStableswapPools    = "pallet_stableswap::types::PoolInfoMap"
	TypeStableswapReserves = "pallet_stableswap::types::ReserveMap"
	TypeXykPools           = "pallet_xyk::types::PoolStateList"
	TypeAavePairs          = "pallet_liquidation::types::ReservePairList"
	TypeAssetIDList        = "Vec<AssetId>"
	TypeFeeCurrency        = "AssetId"
	TypeReferralLink       = "pallet_referrals::ReferralAccount"
)

// Permill is a runtime fraction with denominator 1_000_000.
type Permill uint32

const PermillDenominator = 1_000_000

// OmnipoolAssetState is the tradable state of one omnipool asset.
type OmnipoolAssetState struct {
	HubReserve *big.Int
	Shares     *big.Int
	Tradable   bool
}

// OmnipoolFeeParams are the default asset and protocol fees applied when an
// asset has no dynamic fee entry.
type OmnipoolFeeParams struct {
	AssetFee    Permill
	ProtocolFee Permill
}

// StableswapPool describes one stableswap pool keyed by its share asset.
type StableswapPool struct {
	Assets        []domain.RemoteAssetID
	Amplification uint64
	Fee           Permill
	TotalShares   *big.Int
}

// XykPool is one constant-product pair with its current reserves.
type XykPool struct {
	AssetA   domain.RemoteAssetID
	AssetB   domain.RemoteAssetID
	ReserveA *big.Int
	ReserveB *big.Int
	Fee      Permill
}

// AavePair links a lending-protocol reserve asset with its atoken. Liquidity
// bounds how much can be wrapped or unwrapped at a time.
type AavePair struct {
	Reserve   domain.RemoteAssetID
	AToken    domain.RemoteAssetID
	Liquidity *big.Int
}

// StateClient composes the state reader and the runtime decoder into typed
// point queries. It owns no caching; callers cache per flow.
type StateClient struct {
	reader  StateReader
	decoder Decoder
}

func NewStateClient(reader StateReader, decoder Decoder) *StateClient {
	return &StateClient{reader: reader, decoder: decoder}
}

func read[T any](c *StateClient, ctx context.Context, query StorageQuery, typeTag string) (T, error) {
	var zero T
	raw, err := c.reader.ReadState(ctx, query)
	if err != nil {
		return zero, err
	}
	value, err := c.decoder.Decode(raw, typeTag)
	if err != nil {
		return zero, fmt.Errorf("%w: %s.%s: %v", ErrDecode, query.Pallet, query.Entry, err)
	}
	typed, ok := value.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s.%s: unexpected type %T", ErrDecode, query.Pallet, query.Entry, value)
	}
	return typed, nil
}

// OmnipoolAssets enumerates every asset registered in the omnipool.
func (c *StateClient) OmnipoolAssets(ctx context.Context) ([]domain.RemoteAssetID, error) {
	query := StorageQuery{Pallet: "Omnipool", Entry: "Assets"}
	return read[[]domain.RemoteAssetID](c, ctx, query, TypeAssetIDList)
}

func (c *StateClient) OmnipoolAssetState(ctx context.Context, asset domain.RemoteAssetID) (*OmnipoolAssetState, error) {
	query := StorageQuery{Pallet: "Omnipool", Entry: "Assets", Key: U32Key(uint32(asset))}
	return read[*OmnipoolAssetState](c, ctx, query, TypeOmnipoolAssetState)
}

// OmnipoolAssetBalance is the omnipool account's balance of one asset, the
// non-hub side of that asset's reserve.
func (c *StateClient) OmnipoolAssetBalance(ctx context.Context, asset domain.RemoteAssetID) (*big.Int, error) {
	query := StorageQuery{Pallet: "Omnipool", Entry: "Balances", Key: U32Key(uint32(asset))}
	return read[*big.Int](c, ctx, query, TypeBalance)
}

// OmnipoolFeeParams returns the current dynamic asset and protocol fee for
// trades against one omnipool asset.
func (c *StateClient) OmnipoolFeeParams(ctx context.Context, asset domain.RemoteAssetID) (*OmnipoolFeeParams, error) {
	query := StorageQuery{Pallet: "DynamicFees", Entry: "AssetFee", Key: U32Key(uint32(asset))}
	return read[*OmnipoolFeeParams](c, ctx, query, TypeOmnipoolFeeParams)
}

func (c *StateClient) StableswapPools(ctx context.Context) (map[domain.RemoteAssetID]*StableswapPool, error) {
	query := StorageQuery{Pallet: "Stableswap", Entry: "Pools"}
	return read[map[domain.RemoteAssetID]*StableswapPool](c, ctx, query, TypeStableswapPools)
}

func (c *StateClient) StableswapReserves(ctx context.Context, pool domain.RemoteAssetID) (map[domain.RemoteAssetID]*big.Int, error) {
	query := StorageQuery{Pallet: "Stableswap", Entry: "Reserves", Key: U32Key(uint32(pool))}
	return read[map[domain.RemoteAssetID]*big.Int](c, ctx, query, TypeStableswapReserves)
}

func (c *StateClient) XykPools(ctx context.Context) ([]*XykPool, error) {
	query := StorageQuery{Pallet: "XYK", Entry: "PoolAssets"}
	return read[[]*XykPool](c, ctx, query, TypeXykPools)
}

func (c *StateClient) AavePairs(ctx context.Context) ([]*AavePair, error) {
	query := StorageQuery{Pallet: "Liquidation", Entry: "ReservePairs"}
	return read[[]*AavePair](c, ctx, query, TypeAavePairs)
}

// AccountFeeCurrency returns the asset the account currently pays fees in,
// or the native id when no override is set.
func (c *StateClient) AccountFeeCurrency(ctx context.Context, account []byte) (domain.RemoteAssetID, error) {
	query := StorageQuery{Pallet: "MultiTransactionPayment", Entry: "AccountCurrencyMap", Key: account}
	currency, err := read[domain.RemoteAssetID](c, ctx, query, TypeFeeCurrency)
	if err != nil {
		if errors.Is(err, ErrStateMissing) {
			return domain.NativeRemoteAssetID, nil
		}
		return 0, err
	}
	return currency, nil
}

// AccountHasReferralLink reports whether the account is already linked to a
// referral code.
func (c *StateClient) AccountHasReferralLink(ctx context.Context, account []byte) (bool, error) {
	query := StorageQuery{Pallet: "Referrals", Entry: "LinkedAccounts", Key: account}
	linked, err := read[bool](c, ctx, query, TypeReferralLink)
	if err != nil {
		if errors.Is(err, ErrStateMissing) {
			return false, nil
		}
		return false, err
	}
	return linked, nil
}
