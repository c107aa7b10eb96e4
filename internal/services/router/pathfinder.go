package router

import (
	"github.com/novasamatech/hydra-route-engine/internal/domain"
)

const (
	// defaultMaxHops bounds the search depth. Hydration's router pallet
	// rejects routes longer than this, so deeper paths are never executable.
	defaultMaxHops = 4

	// defaultTopRoutes is how many shortest candidates the planner keeps for
	// quoting.
	defaultTopRoutes = 4
)

// Planner enumerates the shortest candidate routes between two assets over a
// built graph.
type Planner struct {
	graph     Graph
	maxHops   int
	topRoutes int
}

func NewPlanner(graph Graph) *Planner {
	return &Planner{graph: graph, maxHops: defaultMaxHops, topRoutes: defaultTopRoutes}
}

type searchPath struct {
	edges   []Edge
	visited map[domain.RemoteAssetID]struct{}
}

// ShortestRoutes runs a breadth-first search from assetIn and returns up to
// topRoutes routes ending at assetOut, shortest first. Routes of equal length
// keep the deterministic adjacency order. Parallel edges through different
// pool kinds yield distinct routes. An empty result means no route exists;
// asking for a route from an asset to itself also yields none.
func (p *Planner) ShortestRoutes(assetIn, assetOut domain.RemoteAssetID) []domain.RemoteRoute {
	if assetIn == assetOut {
		return nil
	}

	var found []domain.RemoteRoute

	queue := []searchPath{{
		edges:   nil,
		visited: map[domain.RemoteAssetID]struct{}{assetIn: {}},
	}}

	for len(queue) > 0 && len(found) < p.topRoutes {
		current := queue[0]
		queue = queue[1:]

		if len(current.edges) >= p.maxHops {
			continue
		}

		position := assetIn
		if len(current.edges) > 0 {
			position = current.edges[len(current.edges)-1].AssetOut
		}

		for _, edge := range p.graph.Neighbors(position) {
			if edge.AssetOut == assetOut {
				route := make(domain.RemoteRoute, len(current.edges), len(current.edges)+1)
				copy(route, current.edges)
				found = append(found, append(route, edge))
				if len(found) == p.topRoutes {
					return found
				}
				continue
			}

			if _, seen := current.visited[edge.AssetOut]; seen {
				continue
			}

			visited := make(map[domain.RemoteAssetID]struct{}, len(current.visited)+1)
			for asset := range current.visited {
				visited[asset] = struct{}{}
			}
			visited[edge.AssetOut] = struct{}{}

			edges := make([]Edge, len(current.edges), len(current.edges)+1)
			copy(edges, current.edges)

			queue = append(queue, searchPath{edges: append(edges, edge), visited: visited})
		}
	}

	return found
}
