package flow

import (
	"testing"
	"time"

	"github.com/novasamatech/hydra-route-engine/internal/domain"
)

func TestServicesForSamePairIsStable(t *testing.T) {
	state := NewState(nil, time.Second)
	pair := domain.RemoteSwapPair{AssetIn: 0, AssetOut: 7}

	first := state.ServicesFor(pair)
	second := state.ServicesFor(pair)
	if first != second {
		t.Fatal("same pair must reuse the service bundle")
	}
}

func TestServicesForPairChangeRebuilds(t *testing.T) {
	state := NewState(nil, time.Second)

	first := state.ServicesFor(domain.RemoteSwapPair{AssetIn: 0, AssetOut: 7})
	second := state.ServicesFor(domain.RemoteSwapPair{AssetIn: 7, AssetOut: 0})
	if first == second {
		t.Fatal("reversed pair must rebuild the service bundle")
	}
	if first.Omnipool == second.Omnipool {
		t.Fatal("pool services must be fresh instances after a pair change")
	}
}

func TestServicesForTeardownIsIdempotent(t *testing.T) {
	state := NewState(nil, time.Second)

	state.ServicesFor(domain.RemoteSwapPair{AssetIn: 0, AssetOut: 7})
	// A pair change tears the old bundle down; Reset tears down again and
	// must not panic on the already-released bundle.
	state.ServicesFor(domain.RemoteSwapPair{AssetIn: 0, AssetOut: 9})
	state.Reset()
	state.Reset()
}

func TestServicesForConcurrentAccess(t *testing.T) {
	state := NewState(nil, time.Second)
	pairs := []domain.RemoteSwapPair{
		{AssetIn: 0, AssetOut: 7},
		{AssetIn: 7, AssetOut: 0},
		{AssetIn: 0, AssetOut: 9},
	}

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(seed int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				bundle := state.ServicesFor(pairs[(seed+j)%len(pairs)])
				if bundle == nil || bundle.Registry == nil {
					t.Error("got a half-built bundle")
					return
				}
			}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
