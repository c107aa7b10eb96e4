// Package quoter prices single hops against each pool kind and aggregates
// per-route quotes into a best quote.
package quoter

import (
	"context"
	"fmt"
	"math/big"

	"github.com/novasamatech/hydra-route-engine/internal/common"
	"github.com/novasamatech/hydra-route-engine/internal/domain"
)

// Hop is one priced step of a route.
type Hop = domain.RouteComponent[domain.RemoteAssetID]

// PoolQuoter prices one hop against one pool kind. Selling quotes the output
// for a fixed input; buying quotes the input required for a fixed output.
// Implementations must not mutate amount.
type PoolQuoter interface {
	QuoteHop(ctx context.Context, hop Hop, amount *big.Int, direction domain.Direction) (*big.Int, error)
}

// Teardowner is implemented by pool quoters holding background state that
// must be released when their swap flow ends.
type Teardowner interface {
	Teardown()
}

// Registry dispatches hops to the quoter registered for their pool kind.
type Registry struct {
	quoters map[domain.PoolKindTag]PoolQuoter
}

func NewRegistry() *Registry {
	return &Registry{quoters: make(map[domain.PoolKindTag]PoolQuoter)}
}

func (r *Registry) Register(tag domain.PoolKindTag, quoter PoolQuoter) {
	r.quoters[tag] = quoter
}

func (r *Registry) QuoteHop(ctx context.Context, hop Hop, amount *big.Int, direction domain.Direction) (*big.Int, error) {
	quoter, ok := r.quoters[hop.Kind.Tag]
	if !ok {
		return nil, fmt.Errorf("%w: no quoter for %s", common.ErrUnknownPool, hop.Kind)
	}
	return quoter.QuoteHop(ctx, hop, amount, direction)
}

// Teardown releases every registered quoter that holds background state.
func (r *Registry) Teardown() {
	for _, quoter := range r.quoters {
		if closer, ok := quoter.(Teardowner); ok {
			closer.Teardown()
		}
	}
}
