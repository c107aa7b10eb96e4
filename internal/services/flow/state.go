// Package flow caches the per-pair quoting services of an active swap flow.
package flow

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/novasamatech/hydra-route-engine/internal/chain"
	"github.com/novasamatech/hydra-route-engine/internal/domain"
	"github.com/novasamatech/hydra-route-engine/internal/metrics"
	"github.com/novasamatech/hydra-route-engine/internal/services/quoter"
	"github.com/novasamatech/hydra-route-engine/internal/services/router"
)

// Services bundles the pool-kind services serving one swap pair. They share
// cached chain state snapshots, so quoting and graph building within a pair
// see consistent reserves.
type Services struct {
	Omnipool   *quoter.OmnipoolService
	Stableswap *quoter.StableswapService
	Xyk        *quoter.XykService
	Aave       *quoter.AaveService
	Registry   *quoter.Registry

	mu      sync.Mutex
	planner *router.Planner
}

// Sources exposes the bundle as graph direction sources.
func (s *Services) Sources() router.Sources {
	return router.Sources{
		Omnipool:   s.Omnipool,
		Stableswap: s.Stableswap,
		Xyk:        s.Xyk,
		Aave:       s.Aave,
	}
}

// Planner returns the route planner over the bundle's connectivity graph,
// building the graph on first use. The planner lives as long as the bundle;
// a pair change discards it along with the rest of the services. A failed
// graph build is not cached, the next call retries.
func (s *Services) Planner(ctx context.Context) (*router.Planner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.planner != nil {
		return s.planner, nil
	}
	graph, err := router.BuildGraph(ctx, s.Sources())
	if err != nil {
		return nil, err
	}
	s.planner = router.NewPlanner(graph)
	return s.planner, nil
}

// State hands out the service bundle for the pair currently being swapped.
// Changing the pair tears the previous bundle down, exactly once, and builds
// a fresh one; a single lock covers the compare, the teardown and the
// rebuild, so a concurrent request either gets the old pair's bundle before
// the reset or the new pair's bundle after it, never a half-built one.
type State struct {
	client          *chain.StateClient
	refreshInterval time.Duration

	mu       sync.Mutex
	pair     *domain.RemoteSwapPair
	services *Services
}

func NewState(client *chain.StateClient, refreshInterval time.Duration) *State {
	return &State{client: client, refreshInterval: refreshInterval}
}

// ServicesFor returns the bundle serving the pair, resetting first if the
// flow moved to a different pair.
func (s *State) ServicesFor(pair domain.RemoteSwapPair) *Services {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pair != nil && *s.pair == pair {
		return s.services
	}

	if s.services != nil {
		s.services.Registry.Teardown()
		metrics.FlowResets.Inc()
		log.Debug().
			Uint32("asset_in", uint32(pair.AssetIn)).
			Uint32("asset_out", uint32(pair.AssetOut)).
			Msg("swap pair changed, rebuilding flow services")
	}

	s.services = s.build()
	s.pair = &pair
	return s.services
}

// Reset tears down the current bundle, if any.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.services != nil {
		s.services.Registry.Teardown()
		s.services = nil
		s.pair = nil
	}
}

func (s *State) build() *Services {
	services := &Services{
		Omnipool:   quoter.NewOmnipoolService(s.client, s.refreshInterval),
		Stableswap: quoter.NewStableswapService(s.client, s.refreshInterval),
		Xyk:        quoter.NewXykService(s.client, s.refreshInterval),
		Aave:       quoter.NewAaveService(s.client, s.refreshInterval),
		Registry:   quoter.NewRegistry(),
	}
	services.Registry.Register(domain.PoolKindOmnipool, services.Omnipool)
	services.Registry.Register(domain.PoolKindStableswap, services.Stableswap)
	services.Registry.Register(domain.PoolKindXyk, services.Xyk)
	services.Registry.Register(domain.PoolKindAave, services.Aave)
	return services
}
