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

type xykPair struct {
	reserveIn  *uint256.Int
	reserveOut *uint256.Int
	fee        chain.Permill
}

// xykState is keyed by the ordered (in, out) asset pair; each pool yields two
// entries.
type xykState map[[2]domain.RemoteAssetID]*xykPair

// XykService quotes constant-product pair pools. The trade fee is withheld
// from the proceeds when selling and charged on top of the owed input when
// buying.
type XykService struct {
	client   *chain.StateClient
	snapshot *snapshot[xykState]
}

func NewXykService(client *chain.StateClient, refreshInterval time.Duration) *XykService {
	s := &XykService{client: client}
	s.snapshot = newSnapshot(domain.PoolKindXyk.String(), refreshInterval, s.loadState)
	return s
}

func (s *XykService) loadState(ctx context.Context) (xykState, error) {
	pools, err := s.client.XykPools(ctx)
	if err != nil {
		return nil, fmt.Errorf("xyk pools: %w", err)
	}

	state := make(xykState, 2*len(pools))
	for _, pool := range pools {
		reserveA, overflow := uint256.FromBig(pool.ReserveA)
		if overflow {
			return nil, fmt.Errorf("%w: xyk reserve overflows", common.ErrDataCorruption)
		}
		reserveB, overflow := uint256.FromBig(pool.ReserveB)
		if overflow {
			return nil, fmt.Errorf("%w: xyk reserve overflows", common.ErrDataCorruption)
		}
		state[[2]domain.RemoteAssetID{pool.AssetA, pool.AssetB}] = &xykPair{
			reserveIn:  reserveA,
			reserveOut: reserveB,
			fee:        pool.Fee,
		}
		state[[2]domain.RemoteAssetID{pool.AssetB, pool.AssetA}] = &xykPair{
			reserveIn:  reserveB,
			reserveOut: reserveA,
			fee:        pool.Fee,
		}
	}
	return state, nil
}

func (s *XykService) AvailableDirections(ctx context.Context) (router.DirectionMap, error) {
	state, err := s.snapshot.get(ctx)
	if err != nil {
		return nil, err
	}

	directions := make(router.DirectionMap)
	for pair := range state {
		outs, ok := directions[pair[0]]
		if !ok {
			outs = make(map[domain.RemoteAssetID]struct{})
			directions[pair[0]] = outs
		}
		outs[pair[1]] = struct{}{}
	}
	return directions, nil
}

func (s *XykService) QuoteHop(ctx context.Context, hop Hop, amount *big.Int, direction domain.Direction) (*big.Int, error) {
	state, err := s.snapshot.get(ctx)
	if err != nil {
		return nil, err
	}

	pair, ok := state[[2]domain.RemoteAssetID{hop.AssetIn, hop.AssetOut}]
	if !ok {
		return nil, fmt.Errorf("%w: no xyk pool for %d/%d", common.ErrUnknownPool, hop.AssetIn, hop.AssetOut)
	}

	amountU, overflow := uint256.FromBig(amount)
	if overflow {
		return nil, fmt.Errorf("%w: amount overflows", common.ErrInsufficientLiquidity)
	}
	if amountU.IsZero() {
		return big.NewInt(0), nil
	}

	switch direction {
	case domain.DirectionSell:
		// out = reserveOut * in / (reserveIn + in), fee off the proceeds
		denom := new(uint256.Int).Add(pair.reserveIn, amountU)
		out := mulDivFloor(amountU, pair.reserveOut, denom)
		out.Sub(out, permillCeil(out, pair.fee))
		return out.ToBig(), nil

	case domain.DirectionBuy:
		if amountU.Cmp(pair.reserveOut) >= 0 {
			return nil, fmt.Errorf("%w: output exceeds xyk reserve", common.ErrInsufficientLiquidity)
		}
		// in = reserveIn * out / (reserveOut - out) + 1, fee on top
		denom := new(uint256.Int).Sub(pair.reserveOut, amountU)
		in := mulDivFloor(amountU, pair.reserveIn, denom)
		in.AddUint64(in, 1)
		in.Add(in, permillCeil(in, pair.fee))
		return in.ToBig(), nil

	default:
		return nil, fmt.Errorf("unsupported direction %d", direction)
	}
}

func (s *XykService) Teardown() {
	s.snapshot.close()
}
