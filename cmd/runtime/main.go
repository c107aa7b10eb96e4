package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/novasamatech/hydra-route-engine/internal/config"
	"github.com/novasamatech/hydra-route-engine/internal/engine"
	"github.com/novasamatech/hydra-route-engine/internal/http"
)

// @title Hydra Route Engine API
// @version 1.0
// @description Wallet-embedded route engine for the Hydration DEX: plans and
// @description prices swap routes across the chain's liquidity sources and
// @description assembles the call lists executing them.
// @description
// @description ## - Features
// @description - **Multi-Pool Routing**: Omnipool, stableswap, XYK pairs and lending-reserve wrappers
// @description - **Concurrent Pricing**: Candidate routes are priced in parallel, hops within a route sequentially
// @description - **Pinned Routes**: The quoted route is replayed verbatim at call build time
// @description - **Fee Currency Aware**: Builds a fee currency switch when the payer pays fees in a non-native asset
// @description - **Slippage Protection**: Per-request tolerance with a configurable default
// @description
// @description ## - Usage Tips
// @description - Amounts are decimal strings in the smallest on-chain denomination
// @description - Asset ids are wallet-local registry indexes, not chain-native ids
// @description - Default slippage is 50 bps (0.5%)
// @description - Rate limit: 10 requests/second (burst: 20)
// @BasePath /
// @schemes https http
// @tag.name quote
// @tag.description Price the best swap route between two registered assets
// @tag.name swap
// @tag.description Build the ordered call list executing a quoted trade

func main() {
	// load env
	err := godotenv.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load env")
		return
	}

	// di container config
	conf := container.NewConf(
		&config.GeneralConfig{},
		&config.ChainConfig{},
		&config.EngineConfig{},
	)

	// di container
	dic, err := container.New(
		conf,

		&engine.Service{},
		&http.HTTPService{},
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to create di container")
		return
	}

	if err := dic.Run(); err != nil {
		log.Error().Err(err).Msg("failed to run di container")
		return
	}

	// Run() returns on SIGINT/SIGTERM without stopping services.
	log.Info().Msg("Shutting down services...")
	if err := dic.Stop(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("Shutdown complete")
}
