// Package router builds the liquidity connectivity graph and searches it for
// candidate trade routes.
package router

import (
	"context"
	"fmt"
	"sort"

	"github.com/novasamatech/hydra-route-engine/internal/common"
	"github.com/novasamatech/hydra-route-engine/internal/domain"
	"github.com/novasamatech/hydra-route-engine/internal/metrics"
)

// Edge is one directed hop available in the graph.
type Edge = domain.RouteComponent[domain.RemoteAssetID]

// DirectionMap reports which assets are directly reachable from each asset
// within one pool kind.
type DirectionMap = map[domain.RemoteAssetID]map[domain.RemoteAssetID]struct{}

// DirectionsSource is implemented by pool-kind services that report a flat
// set of trade directions.
type DirectionsSource interface {
	AvailableDirections(ctx context.Context) (DirectionMap, error)
}

// StableswapDirectionsSource reports directions per pool, keyed by the pool's
// settlement (share) asset.
type StableswapDirectionsSource interface {
	PoolDirections(ctx context.Context) (map[domain.RemoteAssetID]DirectionMap, error)
}

// Graph maps every asset to its outgoing edges. Adjacency lists are sorted by
// (pool kind tag, pool asset, destination) so traversal order does not depend
// on map iteration order.
type Graph map[domain.RemoteAssetID][]Edge

// Sources bundles the per-pool-kind direction reporters a graph is built
// from. Nil sources contribute nothing.
type Sources struct {
	Omnipool   DirectionsSource
	Stableswap StableswapDirectionsSource
	Xyk        DirectionsSource
	Aave       DirectionsSource
}

// BuildGraph merges every pool kind's reported directions into one graph.
// Any source failing fails the build as a whole: an unavailable graph is a
// distinct outcome from an empty route set.
func BuildGraph(ctx context.Context, sources Sources) (Graph, error) {
	builder := newGraphBuilder()

	flat := []struct {
		kind   domain.PoolKind
		source DirectionsSource
	}{
		{domain.Omnipool(), sources.Omnipool},
		{domain.Xyk(), sources.Xyk},
		{domain.Aave(), sources.Aave},
	}

	for _, entry := range flat {
		if entry.source == nil {
			continue
		}
		directions, err := entry.source.AvailableDirections(ctx)
		if err != nil {
			metrics.GraphBuildErrors.Inc()
			return nil, fmt.Errorf("%w: %s directions: %v", common.ErrGraphUnavailable, entry.kind, err)
		}
		builder.addDirections(directions, entry.kind)
	}

	if sources.Stableswap != nil {
		pools, err := sources.Stableswap.PoolDirections(ctx)
		if err != nil {
			metrics.GraphBuildErrors.Inc()
			return nil, fmt.Errorf("%w: stableswap directions: %v", common.ErrGraphUnavailable, err)
		}
		for poolAsset, directions := range pools {
			builder.addStableswapPool(poolAsset, directions)
		}
	}

	graph := builder.finish()
	metrics.GraphBuilds.Inc()
	metrics.GraphEdgeCount.Set(float64(graph.edgeCount()))
	return graph, nil
}

type graphBuilder struct {
	edges map[domain.RemoteAssetID]map[Edge]struct{}
}

func newGraphBuilder() *graphBuilder {
	return &graphBuilder{edges: make(map[domain.RemoteAssetID]map[Edge]struct{})}
}

// addDirections adds every reported pair in its declared direction only.
func (b *graphBuilder) addDirections(directions DirectionMap, kind domain.PoolKind) {
	for assetIn, outs := range directions {
		for assetOut := range outs {
			if assetIn == assetOut {
				continue
			}
			b.addEdge(Edge{AssetIn: assetIn, AssetOut: assetOut, Kind: kind})
		}
	}
}

// addStableswapPool adds the pool's declared pairs and derives the pairs
// tradable through the pool's settlement asset: any two assets the pool
// connects to its settlement asset (or that equal it) are tradable with each
// other, whether or not the pool reported them directly.
func (b *graphBuilder) addStableswapPool(poolAsset domain.RemoteAssetID, directions DirectionMap) {
	kind := domain.Stableswap(poolAsset)

	b.addDirections(directions, kind)

	reachable := map[domain.RemoteAssetID]struct{}{poolAsset: {}}
	for assetOut := range directions[poolAsset] {
		reachable[assetOut] = struct{}{}
	}
	for assetIn, outs := range directions {
		if _, connected := outs[poolAsset]; connected {
			reachable[assetIn] = struct{}{}
		}
	}

	for assetIn := range reachable {
		for assetOut := range reachable {
			if assetIn == assetOut {
				continue
			}
			b.addEdge(Edge{AssetIn: assetIn, AssetOut: assetOut, Kind: kind})
		}
	}
}

// addEdge collapses duplicate (in, out, kind) edges; edges differing only by
// kind stay as distinct parallel edges.
func (b *graphBuilder) addEdge(edge Edge) {
	set, ok := b.edges[edge.AssetIn]
	if !ok {
		set = make(map[Edge]struct{})
		b.edges[edge.AssetIn] = set
	}
	set[edge] = struct{}{}
}

func (b *graphBuilder) finish() Graph {
	graph := make(Graph, len(b.edges))
	for assetIn, set := range b.edges {
		adjacency := make([]Edge, 0, len(set))
		for edge := range set {
			adjacency = append(adjacency, edge)
		}
		sortEdges(adjacency)
		graph[assetIn] = adjacency
	}
	return graph
}

// sortEdges fixes the traversal order: pool kind tag, then the stableswap
// pool asset, then the destination asset. Route tie-breaking follows from
// this order.
func sortEdges(edges []Edge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Kind.Tag != edges[j].Kind.Tag {
			return edges[i].Kind.Tag < edges[j].Kind.Tag
		}
		if edges[i].Kind.PoolAsset != edges[j].Kind.PoolAsset {
			return edges[i].Kind.PoolAsset < edges[j].Kind.PoolAsset
		}
		return edges[i].AssetOut < edges[j].AssetOut
	})
}

func (g Graph) edgeCount() int {
	count := 0
	for _, adjacency := range g {
		count += len(adjacency)
	}
	return count
}

// Neighbors returns the outgoing edges of an asset in deterministic order.
func (g Graph) Neighbors(asset domain.RemoteAssetID) []Edge {
	return g[asset]
}
