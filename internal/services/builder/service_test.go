package builder

import (
	"errors"
	"math/big"
	"testing"

	"github.com/novasamatech/hydra-route-engine/internal/common"
	"github.com/novasamatech/hydra-route-engine/internal/domain"
)

func encodeRoute(t *testing.T, route domain.RemoteRoute) []byte {
	t.Helper()
	data, err := domain.EncodeRouteContext(route)
	if err != nil {
		t.Fatalf("encode route: %v", err)
	}
	return data
}

func directRoute(t *testing.T) []byte {
	return encodeRoute(t, domain.RemoteRoute{{AssetIn: 0, AssetOut: 7, Kind: domain.Omnipool()}})
}

func multiHopRoute(t *testing.T) []byte {
	return encodeRoute(t, domain.RemoteRoute{
		{AssetIn: 0, AssetOut: 100, Kind: domain.Omnipool()},
		{AssetIn: 100, AssetOut: 22, Kind: domain.Stableswap(100)},
	})
}

func TestBuildCallsDirectOmnipoolSell(t *testing.T) {
	calls, err := NewService("").BuildCalls(BuildArgs{
		Direction:    domain.DirectionSell,
		AmountIn:     big.NewInt(1000),
		AmountOut:    big.NewInt(995),
		SlippageBps:  100,
		RouteContext: directRoute(t),
	})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	call := calls[0]
	if call.Module != "Omnipool" || call.Method != "sell" {
		t.Fatalf("expected Omnipool.sell, got %s.%s", call.Module, call.Method)
	}
	args := call.Args.(domain.OmnipoolSellArgs)
	if args.AssetIn != 0 || args.AssetOut != 7 {
		t.Errorf("wrong assets: %d -> %d", args.AssetIn, args.AssetOut)
	}
	// 1% of 995 is 9.95; the cut rounds up to 10, floor 985.
	if args.MinBuyAmount.Cmp(big.NewInt(985)) != 0 {
		t.Errorf("expected min buy 985, got %s", args.MinBuyAmount)
	}
}

func TestBuildCallsRoutedBuy(t *testing.T) {
	calls, err := NewService("").BuildCalls(BuildArgs{
		Direction:    domain.DirectionBuy,
		AmountIn:     big.NewInt(995),
		AmountOut:    big.NewInt(1000),
		SlippageBps:  100,
		RouteContext: multiHopRoute(t),
	})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	call := calls[len(calls)-1]
	if call.Module != "Router" || call.Method != "buy" {
		t.Fatalf("expected Router.buy, got %s.%s", call.Module, call.Method)
	}
	args := call.Args.(domain.RouterBuyArgs)
	if len(args.Route) != 2 {
		t.Fatalf("expected 2 trade legs, got %d", len(args.Route))
	}
	if args.Route[1].Kind != domain.Stableswap(100) {
		t.Errorf("stableswap leg lost its pool asset: %+v", args.Route[1].Kind)
	}
	// 1% of 995 is 9.95, rounded up to 10, limit 1005.
	if args.MaxAmountIn.Cmp(big.NewInt(1005)) != 0 {
		t.Errorf("expected max in 1005, got %s", args.MaxAmountIn)
	}
}

func TestBuildCallsSlippageRounding(t *testing.T) {
	tests := []struct {
		name    string
		amount  int64
		bps     uint32
		wantMin int64
		wantMax int64
	}{
		{"exact division", 10_000, 50, 9_950, 10_050},
		{"fractional cut", 999, 50, 994, 1_004},
		{"zero slippage", 1000, 0, 1000, 1000},
		{"full slippage", 1000, 10_000, 0, 2000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			min := minAmountOut(big.NewInt(tt.amount), tt.bps)
			if min.Cmp(big.NewInt(tt.wantMin)) != 0 {
				t.Errorf("minAmountOut: expected %d, got %s", tt.wantMin, min)
			}
			max := maxAmountIn(big.NewInt(tt.amount), tt.bps)
			if max.Cmp(big.NewInt(tt.wantMax)) != 0 {
				t.Errorf("maxAmountIn: expected %d, got %s", tt.wantMax, max)
			}
		})
	}
}

func TestBuildCallsFeeCurrencySwitch(t *testing.T) {
	calls, err := NewService("").BuildCalls(BuildArgs{
		Direction:    domain.DirectionSell,
		AmountIn:     big.NewInt(1000),
		AmountOut:    big.NewInt(990),
		RouteContext: directRoute(t),
		Params:       SwapParams{FeeCurrency: 7},
	})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("expected set_currency + trade, got %d calls", len(calls))
	}
	if calls[0].Module != "MultiTransactionPayment" || calls[0].Method != "set_currency" {
		t.Fatalf("fee switch must precede the trade, got %s.%s", calls[0].Module, calls[0].Method)
	}
	if calls[0].BestEffort {
		t.Error("fee switch is not best-effort")
	}
	if calls[0].Args.(domain.SetFeeCurrencyArgs).Currency != 7 {
		t.Error("wrong fee currency")
	}
}

func TestBuildCallsNativeFeeCurrencyNeedsNoSwitch(t *testing.T) {
	calls, err := NewService("").BuildCalls(BuildArgs{
		Direction:    domain.DirectionSell,
		AmountIn:     big.NewInt(1000),
		AmountOut:    big.NewInt(990),
		RouteContext: directRoute(t),
		Params:       SwapParams{FeeCurrency: domain.NativeRemoteAssetID},
	})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("expected only the trade call, got %d", len(calls))
	}
}

func TestBuildCallsReferralLink(t *testing.T) {
	service := NewService("NOVA")

	calls, err := service.BuildCalls(BuildArgs{
		Direction:    domain.DirectionSell,
		AmountIn:     big.NewInt(1000),
		AmountOut:    big.NewInt(990),
		RouteContext: directRoute(t),
		Params:       SwapParams{HasReferralLink: false},
	})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if calls[0].Module != "Referrals" || calls[0].Method != "link_code" {
		t.Fatalf("referral link must come first, got %s.%s", calls[0].Module, calls[0].Method)
	}
	if !calls[0].BestEffort {
		t.Error("referral link must be best-effort")
	}

	linked, err := service.BuildCalls(BuildArgs{
		Direction:    domain.DirectionSell,
		AmountIn:     big.NewInt(1000),
		AmountOut:    big.NewInt(990),
		RouteContext: directRoute(t),
		Params:       SwapParams{HasReferralLink: true},
	})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	for _, call := range linked {
		if call.Module == "Referrals" {
			t.Error("already linked payer must not link again")
		}
	}
}

func TestBuildCallsCorruptContextIsFatal(t *testing.T) {
	for _, context := range [][]byte{nil, {}, []byte("{broken")} {
		_, err := NewService("").BuildCalls(BuildArgs{
			Direction:    domain.DirectionSell,
			AmountIn:     big.NewInt(1000),
			AmountOut:    big.NewInt(990),
			RouteContext: context,
		})
		if !errors.Is(err, common.ErrDataCorruption) {
			t.Fatalf("expected ErrDataCorruption for %q, got %v", context, err)
		}
	}
}
