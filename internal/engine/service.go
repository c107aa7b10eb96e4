// Package engine is the top-level route engine service: it resolves wallet
// asset ids, plans and prices candidate routes, and assembles the call list
// executing the selected trade.
package engine

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/novasamatech/hydra-route-engine/internal/adapters/rpc"
	"github.com/novasamatech/hydra-route-engine/internal/adapters/scale"
	"github.com/novasamatech/hydra-route-engine/internal/chain"
	"github.com/novasamatech/hydra-route-engine/internal/config"
	"github.com/novasamatech/hydra-route-engine/internal/domain"
	"github.com/novasamatech/hydra-route-engine/internal/metrics"
	"github.com/novasamatech/hydra-route-engine/internal/services/assets"
	"github.com/novasamatech/hydra-route-engine/internal/services/builder"
	"github.com/novasamatech/hydra-route-engine/internal/services/flow"
	"github.com/novasamatech/hydra-route-engine/internal/services/quoter"
)

const ENGINE_SERVICE = "route-engine-service"

// SwapCallArgs carries one call-build request. A zero SlippageBps means the
// configured default applies.
type SwapCallArgs struct {
	Account      []byte
	Direction    domain.Direction
	AmountIn     *big.Int
	AmountOut    *big.Int
	SlippageBps  uint32
	RouteContext []byte
}

type Service struct {
	container.BaseDIInstance

	chainConfig  *config.ChainConfig
	engineConfig *config.EngineConfig

	chainModel *chain.Chain
	decoder    chain.Decoder
	client     *chain.StateClient
	flowState  *flow.State
	builderSvc *builder.Service
}

func (svc *Service) ID() string {
	return ENGINE_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	svc.chainConfig = c.GetConfig(config.CHAIN_CONFIG_KEY).(*config.ChainConfig)
	svc.engineConfig = c.GetConfig(config.ENGINE_CONFIG_KEY).(*config.EngineConfig)

	chainModel, err := chain.LoadRegistry(svc.chainConfig.AssetRegistryPath)
	if err != nil {
		return fmt.Errorf("configure %s: %w", ENGINE_SERVICE, err)
	}
	if chainModel.ID != svc.chainConfig.ChainID {
		return fmt.Errorf("configure %s: registry is for chain %q, configured chain is %q",
			ENGINE_SERVICE, chainModel.ID, svc.chainConfig.ChainID)
	}
	svc.chainModel = chainModel

	reader := rpc.NewStateReader(svc.chainConfig.RPCUrl, svc.chainConfig.RequestTimeout)
	svc.decoder = scale.NewDecoder()
	svc.client = chain.NewStateClient(reader, svc.decoder)
	svc.flowState = flow.NewState(svc.client, svc.chainConfig.RefreshInterval)
	svc.builderSvc = builder.NewService(svc.engineConfig.ReferralCode)

	return nil
}

func (svc *Service) Start() error {
	log.Info().
		Str("chain", svc.chainModel.ID).
		Int("assets", len(svc.chainModel.Assets)).
		Msg("route engine started")
	return nil
}

func (svc *Service) Stop() error {
	svc.flowState.Reset()
	return nil
}

// Quote prices the best route for the requested pair and amount. The returned
// quote carries an opaque context pinning the priced route, which a later
// BuildSwapCalls replays verbatim.
func (svc *Service) Quote(ctx context.Context, args domain.QuoteArgs) (*domain.Quote, error) {
	direction := args.Direction.String()
	started := time.Now()
	defer func() {
		metrics.QuoteDuration.WithLabelValues(direction).Observe(time.Since(started).Seconds())
	}()

	quote, err := svc.quote(ctx, args)
	if err != nil {
		metrics.QuoteRequests.WithLabelValues(direction, "error").Inc()
		return nil, err
	}
	metrics.QuoteRequests.WithLabelValues(direction, "ok").Inc()
	return quote, nil
}

func (svc *Service) quote(ctx context.Context, args domain.QuoteArgs) (*domain.Quote, error) {
	if args.Amount == nil || args.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("quote amount must be positive")
	}

	ctx, cancel := context.WithTimeout(ctx, svc.engineConfig.QuoteTimeout)
	defer cancel()

	pair := domain.LocalSwapPair{AssetIn: args.AssetIn, AssetOut: args.AssetOut}
	remotePair, err := assets.ResolvePair(pair, svc.chainModel, svc.decoder)
	if err != nil {
		return nil, err
	}

	bundle := svc.flowState.ServicesFor(remotePair)
	planner, err := bundle.Planner(ctx)
	if err != nil {
		return nil, err
	}

	routes := planner.ShortestRoutes(remotePair.AssetIn, remotePair.AssetOut)
	best, err := quoter.NewRouteQuoteAggregator(bundle.Registry).BestQuote(ctx, routes, args.Amount, args.Direction)
	if err != nil {
		return nil, err
	}

	routeContext, err := domain.EncodeRouteContext(best.Route)
	if err != nil {
		return nil, err
	}

	amount := best.AmountOut
	if args.Direction == domain.DirectionBuy {
		amount = best.AmountIn
	}
	return &domain.Quote{Args: args, Amount: amount, Context: routeContext}, nil
}

// BuildSwapCalls reads the payer's current fee currency and referral link
// state and assembles the ordered call list executing the quoted trade.
func (svc *Service) BuildSwapCalls(ctx context.Context, args SwapCallArgs) (domain.CallList, error) {
	direction := args.Direction.String()

	calls, err := svc.buildSwapCalls(ctx, args)
	if err != nil {
		metrics.SwapCallRequests.WithLabelValues(direction, "error").Inc()
		return nil, err
	}
	metrics.SwapCallRequests.WithLabelValues(direction, "ok").Inc()
	return calls, nil
}

func (svc *Service) buildSwapCalls(ctx context.Context, args SwapCallArgs) (domain.CallList, error) {
	if len(args.Account) == 0 {
		return nil, fmt.Errorf("swap call build without payer account")
	}

	params, err := svc.swapParams(ctx, args.Account)
	if err != nil {
		return nil, err
	}

	slippage := args.SlippageBps
	if slippage == 0 {
		slippage = svc.engineConfig.DefaultSlippageBps
	}

	return svc.builderSvc.BuildCalls(builder.BuildArgs{
		Direction:    args.Direction,
		AmountIn:     args.AmountIn,
		AmountOut:    args.AmountOut,
		SlippageBps:  slippage,
		RouteContext: args.RouteContext,
		Params:       params,
	})
}

func (svc *Service) swapParams(ctx context.Context, account []byte) (builder.SwapParams, error) {
	feeCurrency, err := svc.client.AccountFeeCurrency(ctx, account)
	if err != nil {
		return builder.SwapParams{}, fmt.Errorf("read fee currency: %w", err)
	}
	hasLink, err := svc.client.AccountHasReferralLink(ctx, account)
	if err != nil {
		return builder.SwapParams{}, fmt.Errorf("read referral link: %w", err)
	}
	return builder.SwapParams{FeeCurrency: feeCurrency, HasReferralLink: hasLink}, nil
}

// ChainModel exposes the loaded registry snapshot, mainly for request
// validation at the transport layer.
func (svc *Service) ChainModel() *chain.Chain {
	return svc.chainModel
}
