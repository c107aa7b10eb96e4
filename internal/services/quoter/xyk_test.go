package quoter

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/novasamatech/hydra-route-engine/internal/chain"
	"github.com/novasamatech/hydra-route-engine/internal/common"
	"github.com/novasamatech/hydra-route-engine/internal/domain"
)

func newXykService(state xykState) *XykService {
	service := &XykService{}
	service.snapshot = newSnapshot[xykState]("xyk", 0, nil)
	preload(service.snapshot, state)
	return service
}

func xykKey(in, out domain.RemoteAssetID) [2]domain.RemoteAssetID {
	return [2]domain.RemoteAssetID{in, out}
}

func TestXykSell(t *testing.T) {
	service := newXykService(xykState{
		xykKey(1, 2): {reserveIn: u(1000), reserveOut: u(2000), fee: 0},
	})

	hop := Hop{AssetIn: 1, AssetOut: 2, Kind: domain.Xyk()}
	// out = 2000*100/(1000+100) = 181
	out, err := service.QuoteHop(context.Background(), hop, big.NewInt(100), domain.DirectionSell)
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if out.Cmp(big.NewInt(181)) != 0 {
		t.Errorf("expected 181, got %s", out)
	}
}

func TestXykBuyCoversSell(t *testing.T) {
	tests := []struct {
		name      string
		fee       uint32
		amountOut int64
	}{
		{"no fee", 0, 500},
		{"with fee", 3000, 500},
		{"large with fee", 3000, 500_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pair := &xykPair{
				reserveIn:  u(10_000_000),
				reserveOut: u(8_000_000),
				fee:        chain.Permill(tt.fee),
			}
			service := newXykService(xykState{xykKey(1, 2): pair})
			hop := Hop{AssetIn: 1, AssetOut: 2, Kind: domain.Xyk()}

			amountIn, err := service.QuoteHop(context.Background(), hop, big.NewInt(tt.amountOut), domain.DirectionBuy)
			if err != nil {
				t.Fatalf("buy failed: %v", err)
			}
			proceeds, err := service.QuoteHop(context.Background(), hop, amountIn, domain.DirectionSell)
			if err != nil {
				t.Fatalf("sell failed: %v", err)
			}
			if proceeds.Cmp(big.NewInt(tt.amountOut)) < 0 {
				t.Errorf("buying %d quoted input %s but selling it yields %s",
					tt.amountOut, amountIn, proceeds)
			}
		})
	}
}

func TestXykBuyExhaustsReserve(t *testing.T) {
	service := newXykService(xykState{
		xykKey(1, 2): {reserveIn: u(1000), reserveOut: u(2000), fee: 0},
	})

	hop := Hop{AssetIn: 1, AssetOut: 2, Kind: domain.Xyk()}
	_, err := service.QuoteHop(context.Background(), hop, big.NewInt(2000), domain.DirectionBuy)
	if !errors.Is(err, common.ErrInsufficientLiquidity) {
		t.Fatalf("expected ErrInsufficientLiquidity, got %v", err)
	}
}

func TestXykUnknownPair(t *testing.T) {
	service := newXykService(xykState{})

	hop := Hop{AssetIn: 1, AssetOut: 2, Kind: domain.Xyk()}
	_, err := service.QuoteHop(context.Background(), hop, big.NewInt(100), domain.DirectionSell)
	if !errors.Is(err, common.ErrUnknownPool) {
		t.Fatalf("expected ErrUnknownPool, got %v", err)
	}
}
