package quoter

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/novasamatech/hydra-route-engine/internal/chain"
	"github.com/novasamatech/hydra-route-engine/internal/common"
	"github.com/novasamatech/hydra-route-engine/internal/domain"
	"github.com/novasamatech/hydra-route-engine/internal/services/router"
)

type aavePairEntry struct {
	reserve   domain.RemoteAssetID
	atoken    domain.RemoteAssetID
	liquidity *big.Int
}

// AaveService quotes wrap/unwrap conversions between a reserve asset and its
// atoken. The conversion is 1:1 in both directions; unwrapping is bounded by
// the liquidity available for withdrawal.
type AaveService struct {
	client   *chain.StateClient
	snapshot *snapshot[[]*aavePairEntry]
}

func NewAaveService(client *chain.StateClient, refreshInterval time.Duration) *AaveService {
	s := &AaveService{client: client}
	s.snapshot = newSnapshot(domain.PoolKindAave.String(), refreshInterval, s.loadState)
	return s
}

func (s *AaveService) loadState(ctx context.Context) ([]*aavePairEntry, error) {
	pairs, err := s.client.AavePairs(ctx)
	if err != nil {
		return nil, fmt.Errorf("aave pairs: %w", err)
	}

	entries := make([]*aavePairEntry, 0, len(pairs))
	for _, pair := range pairs {
		entries = append(entries, &aavePairEntry{
			reserve:   pair.Reserve,
			atoken:    pair.AToken,
			liquidity: pair.Liquidity,
		})
	}
	return entries, nil
}

func (s *AaveService) AvailableDirections(ctx context.Context) (router.DirectionMap, error) {
	entries, err := s.snapshot.get(ctx)
	if err != nil {
		return nil, err
	}

	directions := make(router.DirectionMap, 2*len(entries))
	add := func(from, to domain.RemoteAssetID) {
		outs, ok := directions[from]
		if !ok {
			outs = make(map[domain.RemoteAssetID]struct{})
			directions[from] = outs
		}
		outs[to] = struct{}{}
	}
	for _, entry := range entries {
		add(entry.reserve, entry.atoken)
		add(entry.atoken, entry.reserve)
	}
	return directions, nil
}

func (s *AaveService) QuoteHop(ctx context.Context, hop Hop, amount *big.Int, direction domain.Direction) (*big.Int, error) {
	entries, err := s.snapshot.get(ctx)
	if err != nil {
		return nil, err
	}

	var entry *aavePairEntry
	unwrap := false
	for _, candidate := range entries {
		switch {
		case candidate.reserve == hop.AssetIn && candidate.atoken == hop.AssetOut:
			entry = candidate
		case candidate.atoken == hop.AssetIn && candidate.reserve == hop.AssetOut:
			entry = candidate
			unwrap = true
		}
		if entry != nil {
			break
		}
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: no aave pair for %d/%d", common.ErrUnknownPool, hop.AssetIn, hop.AssetOut)
	}

	switch direction {
	case domain.DirectionSell, domain.DirectionBuy:
	default:
		return nil, fmt.Errorf("unsupported direction %d", direction)
	}

	// 1:1 either way; withdrawals cannot exceed what the money market can
	// pay out right now.
	if unwrap && entry.liquidity != nil && amount.Cmp(entry.liquidity) > 0 {
		return nil, fmt.Errorf("%w: withdrawal exceeds available aave liquidity", common.ErrInsufficientLiquidity)
	}
	return new(big.Int).Set(amount), nil
}
