package quoter

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/holiman/uint256"

	"github.com/novasamatech/hydra-route-engine/internal/chain"
	"github.com/novasamatech/hydra-route-engine/internal/common"
	"github.com/novasamatech/hydra-route-engine/internal/domain"
	"github.com/novasamatech/hydra-route-engine/internal/services/router"
)

// omnipoolAsset is one asset's pool position: its reserve, the hub asset
// backing it, and the current dynamic fees for trading it.
type omnipoolAsset struct {
	hubReserve  *uint256.Int
	reserve     *uint256.Int
	assetFee    chain.Permill
	protocolFee chain.Permill
	tradable    bool
}

type omnipoolState map[domain.RemoteAssetID]*omnipoolAsset

// OmnipoolService quotes trades against the omnipool. Every tradable pool
// asset is swappable with every other through the hub asset in two legs: the
// input leg converts to hub reserve (charged the protocol fee), the output
// leg converts hub reserve to the target asset (charged the asset fee).
type OmnipoolService struct {
	client   *chain.StateClient
	snapshot *snapshot[omnipoolState]
}

func NewOmnipoolService(client *chain.StateClient, refreshInterval time.Duration) *OmnipoolService {
	s := &OmnipoolService{client: client}
	s.snapshot = newSnapshot(domain.PoolKindOmnipool.String(), refreshInterval, s.loadState)
	return s
}

func (s *OmnipoolService) loadState(ctx context.Context) (omnipoolState, error) {
	assets, err := s.client.OmnipoolAssets(ctx)
	if err != nil {
		return nil, fmt.Errorf("omnipool assets: %w", err)
	}

	state := make(omnipoolState, len(assets))
	for _, asset := range assets {
		assetState, err := s.client.OmnipoolAssetState(ctx, asset)
		if err != nil {
			return nil, fmt.Errorf("omnipool asset %d state: %w", asset, err)
		}
		reserve, err := s.client.OmnipoolAssetBalance(ctx, asset)
		if err != nil {
			return nil, fmt.Errorf("omnipool asset %d balance: %w", asset, err)
		}
		fees, err := s.client.OmnipoolFeeParams(ctx, asset)
		if err != nil {
			return nil, fmt.Errorf("omnipool asset %d fees: %w", asset, err)
		}

		hubReserve, overflow := uint256.FromBig(assetState.HubReserve)
		if overflow {
			return nil, fmt.Errorf("%w: omnipool asset %d hub reserve overflows", common.ErrDataCorruption, asset)
		}
		reserveU, overflow := uint256.FromBig(reserve)
		if overflow {
			return nil, fmt.Errorf("%w: omnipool asset %d reserve overflows", common.ErrDataCorruption, asset)
		}

		state[asset] = &omnipoolAsset{
			hubReserve:  hubReserve,
			reserve:     reserveU,
			assetFee:    fees.AssetFee,
			protocolFee: fees.ProtocolFee,
			tradable:    assetState.Tradable,
		}
	}
	return state, nil
}

// AvailableDirections reports the full mesh over tradable pool assets.
func (s *OmnipoolService) AvailableDirections(ctx context.Context) (router.DirectionMap, error) {
	state, err := s.snapshot.get(ctx)
	if err != nil {
		return nil, err
	}

	tradable := make([]domain.RemoteAssetID, 0, len(state))
	for asset, entry := range state {
		if entry.tradable {
			tradable = append(tradable, asset)
		}
	}

	directions := make(router.DirectionMap, len(tradable))
	for _, assetIn := range tradable {
		outs := make(map[domain.RemoteAssetID]struct{}, len(tradable)-1)
		for _, assetOut := range tradable {
			if assetIn == assetOut {
				continue
			}
			outs[assetOut] = struct{}{}
		}
		directions[assetIn] = outs
	}
	return directions, nil
}

func (s *OmnipoolService) QuoteHop(ctx context.Context, hop Hop, amount *big.Int, direction domain.Direction) (*big.Int, error) {
	state, err := s.snapshot.get(ctx)
	if err != nil {
		return nil, err
	}

	in, ok := state[hop.AssetIn]
	if !ok || !in.tradable {
		return nil, fmt.Errorf("%w: omnipool asset %d", common.ErrUnknownPool, hop.AssetIn)
	}
	out, ok := state[hop.AssetOut]
	if !ok || !out.tradable {
		return nil, fmt.Errorf("%w: omnipool asset %d", common.ErrUnknownPool, hop.AssetOut)
	}

	amountU, overflow := uint256.FromBig(amount)
	if overflow {
		return nil, fmt.Errorf("%w: amount overflows", common.ErrInsufficientLiquidity)
	}

	var result *uint256.Int
	switch direction {
	case domain.DirectionSell:
		result, err = omnipoolOutGivenIn(in, out, amountU)
	case domain.DirectionBuy:
		result, err = omnipoolInGivenOut(in, out, amountU)
	default:
		return nil, fmt.Errorf("unsupported direction %d", direction)
	}
	if err != nil {
		return nil, err
	}
	return result.ToBig(), nil
}

// Teardown stops the snapshot refresher.
func (s *OmnipoolService) Teardown() {
	s.snapshot.close()
}

// omnipoolOutGivenIn prices an exact-in trade. The input leg converts the
// sold amount to hub reserve, the protocol fee is withheld from the hub leg,
// and the output leg converts the remainder to the bought asset with the
// asset fee withheld from the proceeds. All intermediate rounding is down,
// against the trader.
func omnipoolOutGivenIn(in, out *omnipoolAsset, amountIn *uint256.Int) (*uint256.Int, error) {
	if amountIn.IsZero() {
		return uint256.NewInt(0), nil
	}

	// deltaHub = amountIn * hubReserveIn / (reserveIn + amountIn)
	denom := new(uint256.Int).Add(in.reserve, amountIn)
	deltaHub := mulDivFloor(amountIn, in.hubReserve, denom)

	deltaHub.Sub(deltaHub, permillFloor(deltaHub, in.protocolFee))

	// deltaOut = deltaHub * reserveOut / (hubReserveOut + deltaHub)
	denom = new(uint256.Int).Add(out.hubReserve, deltaHub)
	deltaOut := mulDivFloor(deltaHub, out.reserve, denom)

	deltaOut.Sub(deltaOut, permillFloor(deltaOut, out.assetFee))
	return deltaOut, nil
}

// omnipoolInGivenOut prices an exact-out trade by inverting the two legs.
// The gross output is grossed up by the asset fee, each division rounds up
// so the quoted input always covers the requested output.
func omnipoolInGivenOut(in, out *omnipoolAsset, amountOut *uint256.Int) (*uint256.Int, error) {
	if amountOut.IsZero() {
		return uint256.NewInt(0), nil
	}

	grossOut := permillGrossUp(amountOut, out.assetFee)
	if grossOut.Cmp(out.reserve) >= 0 {
		return nil, fmt.Errorf("%w: output exceeds omnipool reserve", common.ErrInsufficientLiquidity)
	}

	// deltaHub = grossOut * hubReserveOut / (reserveOut - grossOut) + 1
	denom := new(uint256.Int).Sub(out.reserve, grossOut)
	deltaHub := mulDivFloor(grossOut, out.hubReserve, denom)
	deltaHub.AddUint64(deltaHub, 1)

	deltaHub = permillGrossUp(deltaHub, in.protocolFee)
	if deltaHub.Cmp(in.hubReserve) >= 0 {
		return nil, fmt.Errorf("%w: trade exceeds omnipool hub reserve", common.ErrInsufficientLiquidity)
	}

	// amountIn = deltaHub * reserveIn / (hubReserveIn - deltaHub) + 1
	denom = new(uint256.Int).Sub(in.hubReserve, deltaHub)
	amountIn := mulDivFloor(deltaHub, in.reserve, denom)
	return amountIn.AddUint64(amountIn, 1), nil
}
