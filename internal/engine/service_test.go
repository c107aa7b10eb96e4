package engine

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/novasamatech/hydra-route-engine/internal/adapters/scale"
	"github.com/novasamatech/hydra-route-engine/internal/chain"
	"github.com/novasamatech/hydra-route-engine/internal/config"
	"github.com/novasamatech/hydra-route-engine/internal/domain"
	"github.com/novasamatech/hydra-route-engine/internal/services/builder"
	"github.com/novasamatech/hydra-route-engine/internal/services/flow"
)

// stubReader serves canned storage values keyed by pallet, entry and map key.
type stubReader struct {
	values map[string][]byte
}

func (r *stubReader) ReadState(_ context.Context, query chain.StorageQuery) ([]byte, error) {
	key := fmt.Sprintf("%s/%s/%s", query.Pallet, query.Entry, hex.EncodeToString(query.Key))
	value, ok := r.values[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", chain.ErrStateMissing, query.Pallet, query.Entry)
	}
	return value, nil
}

func (r *stubReader) set(pallet, entry string, key, value []byte) {
	r.values[fmt.Sprintf("%s/%s/%s", pallet, entry, hex.EncodeToString(key))] = value
}

func u32le(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func u128le(v uint64) []byte {
	b := make([]byte, 16)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

const usdtRemote = 10

// newTestService wires a full engine over stubbed chain state: a two-asset
// omnipool (native and USDT, each with a reserve of 1e9 and zero fees) and no
// other pools.
func newTestService(t *testing.T) (*Service, *stubReader) {
	t.Helper()

	registry := filepath.Join(t.TempDir(), "assets.json")
	content := `{
		"chainId": "hydration",
		"assets": [
			{"localIndex": 0, "symbol": "HDX", "storage": "native"},
			{"localIndex": 1, "symbol": "USDT", "storage": "orml", "currencyId": "0x0a000000", "currencyType": "AssetId"}
		]
	}`
	if err := os.WriteFile(registry, []byte(content), 0o600); err != nil {
		t.Fatalf("write registry: %v", err)
	}
	chainModel, err := chain.LoadRegistry(registry)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}

	reader := &stubReader{values: make(map[string][]byte)}
	reader.set("Omnipool", "Assets", nil, concat([]byte{2 << 2}, u32le(0), u32le(usdtRemote)))
	for _, asset := range []uint32{0, usdtRemote} {
		reader.set("Omnipool", "Assets", u32le(asset), concat(u128le(1_000_000_000), u128le(1), []byte{1}))
		reader.set("Omnipool", "Balances", u32le(asset), u128le(1_000_000_000))
		reader.set("DynamicFees", "AssetFee", u32le(asset), concat(u32le(0), u32le(0)))
	}
	reader.set("Stableswap", "Pools", nil, []byte{0})
	reader.set("XYK", "PoolAssets", nil, []byte{0})
	reader.set("Liquidation", "ReservePairs", nil, []byte{0})

	decoder := scale.NewDecoder()
	client := chain.NewStateClient(reader, decoder)

	svc := &Service{
		chainConfig: &config.ChainConfig{ChainID: "hydration"},
		engineConfig: &config.EngineConfig{
			QuoteTimeout:       2 * time.Second,
			DefaultSlippageBps: 50,
			ReferralCode:       "WALLET",
		},
		chainModel: chainModel,
		decoder:    decoder,
		client:     client,
		flowState:  flow.NewState(client, time.Minute),
		builderSvc: builder.NewService("WALLET"),
	}
	t.Cleanup(func() { _ = svc.Stop() })
	return svc, reader
}

func quoteArgs(direction domain.Direction, amount int64) domain.QuoteArgs {
	return domain.QuoteArgs{
		AssetIn:   domain.LocalAssetID{ChainID: "hydration", AssetIndex: 0},
		AssetOut:  domain.LocalAssetID{ChainID: "hydration", AssetIndex: 1},
		Amount:    big.NewInt(amount),
		Direction: direction,
	}
}

func TestQuoteSell(t *testing.T) {
	svc, _ := newTestService(t)

	quote, err := svc.Quote(context.Background(), quoteArgs(domain.DirectionSell, 1_000_000))
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	// Two balanced fee-free legs through the hub asset.
	if quote.Amount.Cmp(big.NewInt(998_002)) != 0 {
		t.Fatalf("amount out = %s, want 998002", quote.Amount)
	}

	route, err := domain.DecodeRouteContext(quote.Context)
	if err != nil {
		t.Fatalf("DecodeRouteContext: %v", err)
	}
	if len(route) != 1 {
		t.Fatalf("route has %d hops, want 1", len(route))
	}
	if route[0].Kind != domain.Omnipool() || route[0].AssetIn != 0 || route[0].AssetOut != usdtRemote {
		t.Fatalf("route hop = %+v", route[0])
	}
}

func TestQuoteBuy(t *testing.T) {
	svc, _ := newTestService(t)

	quote, err := svc.Quote(context.Background(), quoteArgs(domain.DirectionBuy, 998_002))
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if quote.Amount.Cmp(big.NewInt(999_999)) != 0 {
		t.Fatalf("amount in = %s, want 999999", quote.Amount)
	}
}

func TestQuotePlannerReusedWithinPair(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	bundle := svc.flowState.ServicesFor(domain.RemoteSwapPair{AssetIn: 0, AssetOut: usdtRemote})
	first, err := bundle.Planner(ctx)
	if err != nil {
		t.Fatalf("Planner: %v", err)
	}
	second, err := bundle.Planner(ctx)
	if err != nil {
		t.Fatalf("Planner: %v", err)
	}
	if first != second {
		t.Fatal("same pair must reuse the cached planner")
	}

	reversed := svc.flowState.ServicesFor(domain.RemoteSwapPair{AssetIn: usdtRemote, AssetOut: 0})
	fresh, err := reversed.Planner(ctx)
	if err != nil {
		t.Fatalf("Planner: %v", err)
	}
	if fresh == first {
		t.Fatal("pair change must discard the cached planner")
	}
}

func TestQuoteRejectsBadAmount(t *testing.T) {
	svc, _ := newTestService(t)

	args := quoteArgs(domain.DirectionSell, 0)
	if _, err := svc.Quote(context.Background(), args); err == nil {
		t.Fatal("expected error for zero amount")
	}

	args.Amount = nil
	if _, err := svc.Quote(context.Background(), args); err == nil {
		t.Fatal("expected error for nil amount")
	}
}

func TestQuoteUnknownAsset(t *testing.T) {
	svc, _ := newTestService(t)

	args := quoteArgs(domain.DirectionSell, 1_000)
	args.AssetOut = domain.LocalAssetID{ChainID: "hydration", AssetIndex: 99}
	if _, err := svc.Quote(context.Background(), args); err == nil {
		t.Fatal("expected error for unregistered asset")
	}
}

func TestBuildSwapCallsDefaults(t *testing.T) {
	svc, _ := newTestService(t)

	quote, err := svc.Quote(context.Background(), quoteArgs(domain.DirectionSell, 1_000_000))
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}

	account := []byte{0xaa, 0xbb}
	calls, err := svc.BuildSwapCalls(context.Background(), SwapCallArgs{
		Account:      account,
		Direction:    domain.DirectionSell,
		AmountIn:     big.NewInt(1_000_000),
		AmountOut:    quote.Amount,
		RouteContext: quote.Context,
	})
	if err != nil {
		t.Fatalf("BuildSwapCalls: %v", err)
	}

	// No referral link and no fee currency override on chain: the referral
	// link comes first, no set_currency, then the direct omnipool trade.
	if len(calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(calls))
	}
	if calls[0].Module != "Referrals" || calls[0].Method != "link_code" || !calls[0].BestEffort {
		t.Fatalf("calls[0] = %+v", calls[0])
	}
	if calls[1].Module != "Omnipool" || calls[1].Method != "sell" {
		t.Fatalf("calls[1] = %+v", calls[1])
	}

	sell := calls[1].Args.(domain.OmnipoolSellArgs)
	// Default 50 bps slippage off the quoted output, cut rounded up.
	wantMin := big.NewInt(998_002 - 4_991)
	if sell.MinBuyAmount.Cmp(wantMin) != 0 {
		t.Fatalf("min buy = %s, want %s", sell.MinBuyAmount, wantMin)
	}
}

func TestBuildSwapCallsFeeCurrencySwitch(t *testing.T) {
	svc, reader := newTestService(t)

	quote, err := svc.Quote(context.Background(), quoteArgs(domain.DirectionSell, 1_000_000))
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}

	account := []byte{0xaa, 0xbb}
	reader.set("MultiTransactionPayment", "AccountCurrencyMap", account, u32le(usdtRemote))
	reader.set("Referrals", "LinkedAccounts", account, []byte{1})

	calls, err := svc.BuildSwapCalls(context.Background(), SwapCallArgs{
		Account:      account,
		Direction:    domain.DirectionSell,
		AmountIn:     big.NewInt(1_000_000),
		AmountOut:    quote.Amount,
		SlippageBps:  100,
		RouteContext: quote.Context,
	})
	if err != nil {
		t.Fatalf("BuildSwapCalls: %v", err)
	}

	// Already linked, but paying fees in USDT: set_currency then the trade.
	if len(calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(calls))
	}
	if calls[0].Module != "MultiTransactionPayment" || calls[0].Method != "set_currency" {
		t.Fatalf("calls[0] = %+v", calls[0])
	}
	if calls[1].Module != "Omnipool" {
		t.Fatalf("calls[1] = %+v", calls[1])
	}
}

func TestBuildSwapCallsRequiresAccount(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.BuildSwapCalls(context.Background(), SwapCallArgs{
		Direction: domain.DirectionSell,
		AmountIn:  big.NewInt(1),
		AmountOut: big.NewInt(1),
	})
	if err == nil {
		t.Fatal("expected error without account")
	}
}
