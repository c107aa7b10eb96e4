package quoter

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/novasamatech/hydra-route-engine/internal/common"
	"github.com/novasamatech/hydra-route-engine/internal/domain"
	"github.com/novasamatech/hydra-route-engine/internal/metrics"
)

// RouteQuote is one fully priced candidate route.
type RouteQuote struct {
	Route     domain.RemoteRoute
	AmountIn  *big.Int
	AmountOut *big.Int
}

// RouteQuoteAggregator prices candidate routes concurrently and picks the
// best. A route that fails to quote is dropped, not fatal; only an empty
// result set is an error.
type RouteQuoteAggregator struct {
	registry *Registry
}

func NewRouteQuoteAggregator(registry *Registry) *RouteQuoteAggregator {
	return &RouteQuoteAggregator{registry: registry}
}

type routeQuoteResult struct {
	quote *RouteQuote
	err   error
}

// BestQuote evaluates every candidate route for the given amount and
// direction and returns the one with the highest output (sell) or the lowest
// input (buy). Exact integer comparison; ties keep the earliest candidate,
// so the planner's ordering decides.
func (a *RouteQuoteAggregator) BestQuote(ctx context.Context, routes []domain.RemoteRoute, amount *big.Int, direction domain.Direction) (*RouteQuote, error) {
	if len(routes) == 0 {
		return nil, common.ErrNoRoutesAvailable
	}

	metrics.CandidateRoutes.Observe(float64(len(routes)))

	results := make([]routeQuoteResult, len(routes))

	// Sequential for small candidate sets, goroutine per route otherwise.
	if len(routes) <= 2 {
		for i, route := range routes {
			quote, err := a.quoteRoute(ctx, route, amount, direction)
			results[i] = routeQuoteResult{quote: quote, err: err}
		}
	} else {
		var wg sync.WaitGroup
		for i, route := range routes {
			wg.Add(1)
			go func(idx int, r domain.RemoteRoute) {
				defer wg.Done()
				quote, err := a.quoteRoute(ctx, r, amount, direction)
				results[idx] = routeQuoteResult{quote: quote, err: err}
			}(i, route)
		}
		wg.Wait()
	}

	var best *RouteQuote
	for i, res := range results {
		if res.err != nil {
			a.reportFailure(routes[i], res.err)
			continue
		}

		if best == nil {
			best = res.quote
			continue
		}

		if direction == domain.DirectionSell {
			if res.quote.AmountOut.Cmp(best.AmountOut) > 0 {
				best = res.quote
			}
		} else {
			if res.quote.AmountIn.Cmp(best.AmountIn) < 0 {
				best = res.quote
			}
		}
	}

	if best == nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, common.ErrNoRoutesAvailable
	}
	return best, nil
}

// quoteRoute chains hop quotes through the route: forward for sells so each
// hop's output feeds the next, backward for buys so each hop's required
// input becomes the previous hop's target output.
func (a *RouteQuoteAggregator) quoteRoute(ctx context.Context, route domain.RemoteRoute, amount *big.Int, direction domain.Direction) (*RouteQuote, error) {
	if err := route.Validate(); err != nil {
		return nil, err
	}

	current := new(big.Int).Set(amount)

	switch direction {
	case domain.DirectionSell:
		for _, hop := range route {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			out, err := a.registry.QuoteHop(ctx, hop, current, direction)
			if err != nil {
				return nil, fmt.Errorf("hop %d->%d via %s: %w", hop.AssetIn, hop.AssetOut, hop.Kind, err)
			}
			current = out
		}
		return &RouteQuote{Route: route, AmountIn: new(big.Int).Set(amount), AmountOut: current}, nil

	case domain.DirectionBuy:
		for i := len(route) - 1; i >= 0; i-- {
			hop := route[i]
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			in, err := a.registry.QuoteHop(ctx, hop, current, direction)
			if err != nil {
				return nil, fmt.Errorf("hop %d->%d via %s: %w", hop.AssetIn, hop.AssetOut, hop.Kind, err)
			}
			current = in
		}
		return &RouteQuote{Route: route, AmountIn: current, AmountOut: new(big.Int).Set(amount)}, nil

	default:
		return nil, fmt.Errorf("unsupported direction %d", direction)
	}
}

func (a *RouteQuoteAggregator) reportFailure(route domain.RemoteRoute, err error) {
	kind := "unknown"
	if len(route) > 0 {
		kind = route[0].Kind.Tag.String()
	}
	metrics.RouteQuoteFailures.WithLabelValues(kind).Inc()
	log.Debug().Err(err).Str("route", routeLabel(route)).Msg("candidate route dropped")
}

func routeLabel(route domain.RemoteRoute) string {
	if len(route) == 0 {
		return "empty"
	}
	label := fmt.Sprintf("%d", route[0].AssetIn)
	for _, hop := range route {
		label += fmt.Sprintf("-%s->%d", hop.Kind.Tag, hop.AssetOut)
	}
	return label
}
