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

type stableswapPoolState struct {
	assets        []domain.RemoteAssetID
	amplification uint64
	fee           chain.Permill
	totalShares   *uint256.Int
	reserves      map[domain.RemoteAssetID]*uint256.Int
	invariant     *uint256.Int
}

type stableswapState map[domain.RemoteAssetID]*stableswapPoolState

// StableswapService quotes trades inside stableswap pools. Member assets
// trade against each other via the StableSwap invariant; the pool's share
// asset trades against members as single-asset liquidity adds and removes.
type StableswapService struct {
	client   *chain.StateClient
	snapshot *snapshot[stableswapState]
}

func NewStableswapService(client *chain.StateClient, refreshInterval time.Duration) *StableswapService {
	s := &StableswapService{client: client}
	s.snapshot = newSnapshot(domain.PoolKindStableswap.String(), refreshInterval, s.loadState)
	return s
}

func (s *StableswapService) loadState(ctx context.Context) (stableswapState, error) {
	pools, err := s.client.StableswapPools(ctx)
	if err != nil {
		return nil, fmt.Errorf("stableswap pools: %w", err)
	}

	state := make(stableswapState, len(pools))
	for poolAsset, pool := range pools {
		reserves, err := s.client.StableswapReserves(ctx, poolAsset)
		if err != nil {
			return nil, fmt.Errorf("stableswap pool %d reserves: %w", poolAsset, err)
		}

		entry := &stableswapPoolState{
			assets:        pool.Assets,
			amplification: pool.Amplification,
			fee:           pool.Fee,
			reserves:      make(map[domain.RemoteAssetID]*uint256.Int, len(pool.Assets)),
		}
		if pool.TotalShares != nil {
			entry.totalShares, _ = uint256.FromBig(pool.TotalShares)
		}

		balances := make([]*uint256.Int, 0, len(pool.Assets))
		for _, asset := range pool.Assets {
			reserve, ok := reserves[asset]
			if !ok {
				return nil, fmt.Errorf("%w: stableswap pool %d missing reserve for asset %d",
					common.ErrDataCorruption, poolAsset, asset)
			}
			reserveU, overflow := uint256.FromBig(reserve)
			if overflow {
				return nil, fmt.Errorf("%w: stableswap reserve overflows", common.ErrDataCorruption)
			}
			entry.reserves[asset] = reserveU
			balances = append(balances, reserveU)
		}

		entry.invariant, err = stableswapD(balances, pool.Amplification)
		if err != nil {
			return nil, fmt.Errorf("stableswap pool %d invariant: %w", poolAsset, err)
		}
		state[poolAsset] = entry
	}
	return state, nil
}

// PoolDirections reports, per pool, member-to-member pairs and both
// directions between each member and the pool's share asset.
func (s *StableswapService) PoolDirections(ctx context.Context) (map[domain.RemoteAssetID]router.DirectionMap, error) {
	state, err := s.snapshot.get(ctx)
	if err != nil {
		return nil, err
	}

	pools := make(map[domain.RemoteAssetID]router.DirectionMap, len(state))
	for poolAsset, pool := range state {
		directions := make(router.DirectionMap, len(pool.assets)+1)
		add := func(from, to domain.RemoteAssetID) {
			outs, ok := directions[from]
			if !ok {
				outs = make(map[domain.RemoteAssetID]struct{})
				directions[from] = outs
			}
			outs[to] = struct{}{}
		}
		for _, assetIn := range pool.assets {
			for _, assetOut := range pool.assets {
				if assetIn != assetOut {
					add(assetIn, assetOut)
				}
			}
			add(assetIn, poolAsset)
			add(poolAsset, assetIn)
		}
		pools[poolAsset] = directions
	}
	return pools, nil
}

func (s *StableswapService) QuoteHop(ctx context.Context, hop Hop, amount *big.Int, direction domain.Direction) (*big.Int, error) {
	if hop.Kind.Tag != domain.PoolKindStableswap {
		return nil, fmt.Errorf("%w: %s hop routed to stableswap", common.ErrUnknownPool, hop.Kind)
	}
	poolAsset := hop.Kind.PoolAsset

	state, err := s.snapshot.get(ctx)
	if err != nil {
		return nil, err
	}
	pool, ok := state[poolAsset]
	if !ok {
		return nil, fmt.Errorf("%w: stableswap pool %d", common.ErrUnknownPool, poolAsset)
	}

	amountU, overflow := uint256.FromBig(amount)
	if overflow {
		return nil, fmt.Errorf("%w: amount overflows", common.ErrInsufficientLiquidity)
	}
	if amountU.IsZero() {
		return big.NewInt(0), nil
	}

	var result *uint256.Int
	switch {
	case hop.AssetIn == poolAsset:
		result, err = pool.quoteShareToMember(hop.AssetOut, amountU, direction)
	case hop.AssetOut == poolAsset:
		result, err = pool.quoteMemberToShare(hop.AssetIn, amountU, direction)
	default:
		result, err = pool.quoteSwap(hop.AssetIn, hop.AssetOut, amountU, direction)
	}
	if err != nil {
		return nil, err
	}
	return result.ToBig(), nil
}

func (s *StableswapService) Teardown() {
	s.snapshot.close()
}

// otherBalances collects the pool balances except the named asset, with one
// substituted value, preserving the pool's asset order.
func (p *stableswapPoolState) otherBalances(except domain.RemoteAssetID, substitute domain.RemoteAssetID, value *uint256.Int) ([]*uint256.Int, error) {
	balances := make([]*uint256.Int, 0, len(p.assets)-1)
	found := false
	for _, asset := range p.assets {
		if asset == except {
			found = true
			continue
		}
		if asset == substitute {
			balances = append(balances, value)
			continue
		}
		balances = append(balances, p.reserves[asset])
	}
	if !found {
		return nil, fmt.Errorf("%w: asset %d not in stableswap pool", common.ErrUnknownPool, except)
	}
	return balances, nil
}

// quoteSwap prices a member-to-member trade against the pool invariant.
func (p *stableswapPoolState) quoteSwap(assetIn, assetOut domain.RemoteAssetID, amount *uint256.Int, direction domain.Direction) (*uint256.Int, error) {
	reserveIn, ok := p.reserves[assetIn]
	if !ok {
		return nil, fmt.Errorf("%w: asset %d not in stableswap pool", common.ErrUnknownPool, assetIn)
	}
	reserveOut, ok := p.reserves[assetOut]
	if !ok {
		return nil, fmt.Errorf("%w: asset %d not in stableswap pool", common.ErrUnknownPool, assetOut)
	}
	n := uint64(len(p.assets))

	switch direction {
	case domain.DirectionSell:
		newIn := new(uint256.Int).Add(reserveIn, amount)
		others, err := p.otherBalances(assetOut, assetIn, newIn)
		if err != nil {
			return nil, err
		}
		y, err := stableswapY(others, p.invariant, p.amplification, n)
		if err != nil {
			return nil, err
		}
		if y.Cmp(reserveOut) >= 0 {
			return uint256.NewInt(0), nil
		}
		out := new(uint256.Int).Sub(reserveOut, y)
		out.SubUint64(out, 1)
		out.Sub(out, permillCeil(out, p.fee))
		return out, nil

	case domain.DirectionBuy:
		grossOut := permillGrossUp(amount, p.fee)
		if grossOut.Cmp(reserveOut) >= 0 {
			return nil, fmt.Errorf("%w: output exceeds stableswap reserve", common.ErrInsufficientLiquidity)
		}
		newOut := new(uint256.Int).Sub(reserveOut, grossOut)
		others, err := p.otherBalances(assetIn, assetOut, newOut)
		if err != nil {
			return nil, err
		}
		y, err := stableswapY(others, p.invariant, p.amplification, n)
		if err != nil {
			return nil, err
		}
		if y.Cmp(reserveIn) <= 0 {
			return uint256.NewInt(0), nil
		}
		in := new(uint256.Int).Sub(y, reserveIn)
		return in.AddUint64(in, 1), nil

	default:
		return nil, fmt.Errorf("unsupported direction %d", direction)
	}
}

// quoteShareToMember prices burning pool shares for a single member asset.
func (p *stableswapPoolState) quoteShareToMember(assetOut domain.RemoteAssetID, amount *uint256.Int, direction domain.Direction) (*uint256.Int, error) {
	if p.totalShares == nil || p.totalShares.IsZero() {
		return nil, fmt.Errorf("%w: stableswap pool has no shares", common.ErrInsufficientLiquidity)
	}
	reserveOut, ok := p.reserves[assetOut]
	if !ok {
		return nil, fmt.Errorf("%w: asset %d not in stableswap pool", common.ErrUnknownPool, assetOut)
	}
	n := uint64(len(p.assets))

	switch direction {
	case domain.DirectionSell:
		// Burn `amount` shares, withdraw assetOut only.
		if amount.Cmp(p.totalShares) >= 0 {
			return nil, fmt.Errorf("%w: shares exceed pool total", common.ErrInsufficientLiquidity)
		}
		burnt := mulDivFloor(amount, p.invariant, p.totalShares)
		target := new(uint256.Int).Sub(p.invariant, burnt)
		others, err := p.otherBalances(assetOut, assetOut, nil)
		if err != nil {
			return nil, err
		}
		y, err := stableswapY(others, target, p.amplification, n)
		if err != nil {
			return nil, err
		}
		if y.Cmp(reserveOut) >= 0 {
			return uint256.NewInt(0), nil
		}
		out := new(uint256.Int).Sub(reserveOut, y)
		out.SubUint64(out, 1)
		out.Sub(out, permillCeil(out, p.fee))
		return out, nil

	case domain.DirectionBuy:
		// Shares required to withdraw exactly `amount` of assetOut.
		grossOut := permillGrossUp(amount, p.fee)
		if grossOut.Cmp(reserveOut) >= 0 {
			return nil, fmt.Errorf("%w: output exceeds stableswap reserve", common.ErrInsufficientLiquidity)
		}
		newOut := new(uint256.Int).Sub(reserveOut, grossOut)
		balances, err := p.balancesWith(assetOut, newOut)
		if err != nil {
			return nil, err
		}
		target, err := stableswapD(balances, p.amplification)
		if err != nil {
			return nil, err
		}
		drop := new(uint256.Int).Sub(p.invariant, target)
		shares := mulDivCeil(p.totalShares, drop, p.invariant)
		return shares, nil

	default:
		return nil, fmt.Errorf("unsupported direction %d", direction)
	}
}

// quoteMemberToShare prices depositing a single member asset for pool shares.
func (p *stableswapPoolState) quoteMemberToShare(assetIn domain.RemoteAssetID, amount *uint256.Int, direction domain.Direction) (*uint256.Int, error) {
	if p.totalShares == nil || p.totalShares.IsZero() {
		return nil, fmt.Errorf("%w: stableswap pool has no shares", common.ErrInsufficientLiquidity)
	}
	reserveIn, ok := p.reserves[assetIn]
	if !ok {
		return nil, fmt.Errorf("%w: asset %d not in stableswap pool", common.ErrUnknownPool, assetIn)
	}
	n := uint64(len(p.assets))

	switch direction {
	case domain.DirectionSell:
		// Deposit `amount` of assetIn, fee off the deposit.
		net := new(uint256.Int).Sub(amount, permillCeil(amount, p.fee))
		newIn := new(uint256.Int).Add(reserveIn, net)
		balances, err := p.balancesWith(assetIn, newIn)
		if err != nil {
			return nil, err
		}
		target, err := stableswapD(balances, p.amplification)
		if err != nil {
			return nil, err
		}
		if target.Cmp(p.invariant) <= 0 {
			return uint256.NewInt(0), nil
		}
		growth := new(uint256.Int).Sub(target, p.invariant)
		return mulDivFloor(p.totalShares, growth, p.invariant), nil

	case domain.DirectionBuy:
		// Deposit required to mint exactly `amount` shares.
		growth := mulDivCeil(amount, p.invariant, p.totalShares)
		target := new(uint256.Int).Add(p.invariant, growth)
		others, err := p.otherBalances(assetIn, assetIn, nil)
		if err != nil {
			return nil, err
		}
		y, err := stableswapY(others, target, p.amplification, n)
		if err != nil {
			return nil, err
		}
		if y.Cmp(reserveIn) <= 0 {
			return uint256.NewInt(0), nil
		}
		in := new(uint256.Int).Sub(y, reserveIn)
		in.AddUint64(in, 1)
		return permillGrossUp(in, p.fee), nil

	default:
		return nil, fmt.Errorf("unsupported direction %d", direction)
	}
}

// balancesWith returns all pool balances in asset order with one substituted.
func (p *stableswapPoolState) balancesWith(substitute domain.RemoteAssetID, value *uint256.Int) ([]*uint256.Int, error) {
	balances := make([]*uint256.Int, 0, len(p.assets))
	found := false
	for _, asset := range p.assets {
		if asset == substitute {
			balances = append(balances, value)
			found = true
			continue
		}
		balances = append(balances, p.reserves[asset])
	}
	if !found {
		return nil, fmt.Errorf("%w: asset %d not in stableswap pool", common.ErrUnknownPool, substitute)
	}
	return balances, nil
}
