// Package builder turns a priced quote into the ordered on-chain call list
// that executes it.
package builder

import (
	"fmt"
	"math/big"

	"github.com/novasamatech/hydra-route-engine/internal/common"
	"github.com/novasamatech/hydra-route-engine/internal/domain"
)

const slippageDenominator = 10_000

// SwapParams is the payer state the call list depends on: which asset fees
// are currently paid in and whether the payer is already linked to a
// referral code.
type SwapParams struct {
	FeeCurrency     domain.RemoteAssetID
	HasReferralLink bool
}

// BuildArgs carries everything needed to assemble one trade execution.
// RouteContext is the opaque context captured at quote time; the builder
// replays exactly the route that was priced.
type BuildArgs struct {
	Direction    domain.Direction
	AmountIn     *big.Int
	AmountOut    *big.Int
	SlippageBps  uint32
	RouteContext []byte
	Params       SwapParams
}

// Service assembles trade call lists. The referral code, when configured, is
// linked to payers that have none yet.
type Service struct {
	referralCode string
}

func NewService(referralCode string) *Service {
	return &Service{referralCode: referralCode}
}

// BuildCalls returns the ordered calls executing the trade: an optional
// best-effort referral link, an optional fee-currency switch, then the trade
// itself. A route context that fails to decode means the quote and the build
// disagree about what was priced, which is fatal.
func (s *Service) BuildCalls(args BuildArgs) (domain.CallList, error) {
	if args.AmountIn == nil || args.AmountOut == nil {
		return nil, fmt.Errorf("%w: build without amounts", common.ErrDataCorruption)
	}
	if args.SlippageBps > slippageDenominator {
		return nil, fmt.Errorf("slippage %d bps above 100%%", args.SlippageBps)
	}

	route, err := domain.DecodeRouteContext(args.RouteContext)
	if err != nil {
		return nil, fmt.Errorf("%w: route context: %v", common.ErrDataCorruption, err)
	}

	calls := make(domain.CallList, 0, 3)

	if s.referralCode != "" && !args.Params.HasReferralLink {
		calls = append(calls, domain.Call{
			Module:     "Referrals",
			Method:     "link_code",
			Args:       domain.LinkReferralCodeArgs{Code: s.referralCode},
			BestEffort: true,
		})
	}

	if !args.Params.FeeCurrency.IsNative() {
		calls = append(calls, domain.Call{
			Module: "MultiTransactionPayment",
			Method: "set_currency",
			Args:   domain.SetFeeCurrencyArgs{Currency: args.Params.FeeCurrency},
		})
	}

	trade, err := s.tradeCall(route, args)
	if err != nil {
		return nil, err
	}
	return append(calls, trade), nil
}

// tradeCall picks the direct omnipool call for a single omnipool hop and the
// router call for everything else.
func (s *Service) tradeCall(route domain.RemoteRoute, args BuildArgs) (domain.Call, error) {
	direct := len(route) == 1 && route[0].Kind == domain.Omnipool()

	switch args.Direction {
	case domain.DirectionSell:
		minOut := minAmountOut(args.AmountOut, args.SlippageBps)
		if direct {
			return domain.Call{
				Module: "Omnipool",
				Method: "sell",
				Args: domain.OmnipoolSellArgs{
					AssetIn:      route.AssetIn(),
					AssetOut:     route.AssetOut(),
					Amount:       args.AmountIn,
					MinBuyAmount: minOut,
				},
			}, nil
		}
		return domain.Call{
			Module: "Router",
			Method: "sell",
			Args: domain.RouterSellArgs{
				AssetIn:      route.AssetIn(),
				AssetOut:     route.AssetOut(),
				AmountIn:     args.AmountIn,
				MinAmountOut: minOut,
				Route:        tradeLegs(route),
			},
		}, nil

	case domain.DirectionBuy:
		maxIn := maxAmountIn(args.AmountIn, args.SlippageBps)
		if direct {
			return domain.Call{
				Module: "Omnipool",
				Method: "buy",
				Args: domain.OmnipoolBuyArgs{
					AssetOut:      route.AssetOut(),
					AssetIn:       route.AssetIn(),
					Amount:        args.AmountOut,
					MaxSellAmount: maxIn,
				},
			}, nil
		}
		return domain.Call{
			Module: "Router",
			Method: "buy",
			Args: domain.RouterBuyArgs{
				AssetIn:     route.AssetIn(),
				AssetOut:    route.AssetOut(),
				AmountOut:   args.AmountOut,
				MaxAmountIn: maxIn,
				Route:       tradeLegs(route),
			},
		}, nil

	default:
		return domain.Call{}, fmt.Errorf("unsupported direction %d", args.Direction)
	}
}

func tradeLegs(route domain.RemoteRoute) []domain.TradeLeg {
	legs := make([]domain.TradeLeg, len(route))
	for i, hop := range route {
		legs[i] = domain.TradeLeg{Kind: hop.Kind, AssetIn: hop.AssetIn, AssetOut: hop.AssetOut}
	}
	return legs
}

// minAmountOut rounds the slippage cut up, yielding the rounded-down worst
// acceptable output.
func minAmountOut(amountOut *big.Int, slippageBps uint32) *big.Int {
	cut := new(big.Int).Mul(amountOut, big.NewInt(int64(slippageBps)))
	cut.Add(cut, big.NewInt(slippageDenominator-1))
	cut.Quo(cut, big.NewInt(slippageDenominator))
	return new(big.Int).Sub(amountOut, cut)
}

// maxAmountIn rounds the slippage allowance up so the limit never falls
// below the quoted input.
func maxAmountIn(amountIn *big.Int, slippageBps uint32) *big.Int {
	cut := new(big.Int).Mul(amountIn, big.NewInt(int64(slippageBps)))
	cut.Add(cut, big.NewInt(slippageDenominator-1))
	cut.Quo(cut, big.NewInt(slippageDenominator))
	return new(big.Int).Add(amountIn, cut)
}
