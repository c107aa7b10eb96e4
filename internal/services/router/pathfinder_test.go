package router

import (
	"context"
	"testing"

	"github.com/novasamatech/hydra-route-engine/internal/domain"
)

func buildTestGraph(t testing.TB, sources Sources) Graph {
	t.Helper()
	graph, err := BuildGraph(context.Background(), sources)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	return graph
}

func TestShortestRoutesDirect(t *testing.T) {
	graph := buildTestGraph(t, Sources{
		Omnipool: stubDirections{directions: directions(
			[2]domain.RemoteAssetID{0, 7}, [2]domain.RemoteAssetID{7, 0},
		)},
	})

	routes := NewPlanner(graph).ShortestRoutes(0, 7)
	if len(routes) != 1 {
		t.Fatalf("expected 1 route, got %d", len(routes))
	}
	route := routes[0]
	if err := route.Validate(); err != nil {
		t.Fatalf("invalid route: %v", err)
	}
	if len(route) != 1 || route[0].Kind != domain.Omnipool() {
		t.Fatalf("unexpected route: %+v", route)
	}
}

func TestShortestRoutesMultiHop(t *testing.T) {
	// 1 -> 2 -> 3, no direct 1 -> 3 edge.
	graph := buildTestGraph(t, Sources{
		Omnipool: stubDirections{directions: directions(
			[2]domain.RemoteAssetID{1, 2}, [2]domain.RemoteAssetID{2, 3},
		)},
	})

	routes := NewPlanner(graph).ShortestRoutes(1, 3)
	if len(routes) != 1 {
		t.Fatalf("expected 1 route, got %d", len(routes))
	}
	route := routes[0]
	if err := route.Validate(); err != nil {
		t.Fatalf("invalid route: %v", err)
	}
	if len(route) != 2 {
		t.Fatalf("expected 2 hops, got %d", len(route))
	}
	if route.AssetIn() != 1 || route.AssetOut() != 3 {
		t.Fatalf("route endpoints wrong: %v -> %v", route.AssetIn(), route.AssetOut())
	}
}

func TestShortestRoutesOrderedByLength(t *testing.T) {
	// Direct xyk edge plus a two-hop omnipool path; shortest must come first.
	graph := buildTestGraph(t, Sources{
		Omnipool: stubDirections{directions: directions(
			[2]domain.RemoteAssetID{1, 2}, [2]domain.RemoteAssetID{2, 3},
		)},
		Xyk: stubDirections{directions: directions(
			[2]domain.RemoteAssetID{1, 3},
		)},
	})

	routes := NewPlanner(graph).ShortestRoutes(1, 3)
	if len(routes) != 2 {
		t.Fatalf("expected 2 routes, got %d", len(routes))
	}
	if len(routes[0]) != 1 {
		t.Errorf("shortest route not first: %d hops", len(routes[0]))
	}
	if len(routes[1]) != 2 {
		t.Errorf("expected two-hop route second, got %d hops", len(routes[1]))
	}
}

func TestShortestRoutesParallelKinds(t *testing.T) {
	graph := buildTestGraph(t, Sources{
		Omnipool: stubDirections{directions: directions([2]domain.RemoteAssetID{1, 2})},
		Xyk:      stubDirections{directions: directions([2]domain.RemoteAssetID{1, 2})},
	})

	routes := NewPlanner(graph).ShortestRoutes(1, 2)
	if len(routes) != 2 {
		t.Fatalf("expected 2 routes through distinct kinds, got %d", len(routes))
	}
	if routes[0][0].Kind == routes[1][0].Kind {
		t.Error("parallel routes share the same pool kind")
	}
}

func TestShortestRoutesCapped(t *testing.T) {
	// Five intermediate assets give five two-hop paths; only topRoutes survive.
	var pairs [][2]domain.RemoteAssetID
	for mid := domain.RemoteAssetID(10); mid < 15; mid++ {
		pairs = append(pairs, [2]domain.RemoteAssetID{1, mid}, [2]domain.RemoteAssetID{mid, 2})
	}
	graph := buildTestGraph(t, Sources{
		Omnipool: stubDirections{directions: directions(pairs...)},
	})

	routes := NewPlanner(graph).ShortestRoutes(1, 2)
	if len(routes) != defaultTopRoutes {
		t.Fatalf("expected %d routes, got %d", defaultTopRoutes, len(routes))
	}
}

func TestShortestRoutesNoCycles(t *testing.T) {
	graph := buildTestGraph(t, Sources{
		Omnipool: stubDirections{directions: directions(
			[2]domain.RemoteAssetID{1, 2}, [2]domain.RemoteAssetID{2, 1},
			[2]domain.RemoteAssetID{2, 3},
		)},
	})

	routes := NewPlanner(graph).ShortestRoutes(1, 3)
	for _, route := range routes {
		seen := map[domain.RemoteAssetID]struct{}{route.AssetIn(): {}}
		for _, hop := range route {
			if _, dup := seen[hop.AssetOut]; dup {
				t.Fatalf("route revisits asset %v: %+v", hop.AssetOut, route)
			}
			seen[hop.AssetOut] = struct{}{}
		}
	}
}

func TestShortestRoutesEmptyCases(t *testing.T) {
	graph := buildTestGraph(t, Sources{
		Omnipool: stubDirections{directions: directions([2]domain.RemoteAssetID{1, 2})},
	})
	planner := NewPlanner(graph)

	if routes := planner.ShortestRoutes(1, 99); len(routes) != 0 {
		t.Errorf("expected no routes to unknown asset, got %d", len(routes))
	}
	if routes := planner.ShortestRoutes(2, 1); len(routes) != 0 {
		t.Errorf("expected no routes against edge direction, got %d", len(routes))
	}
	if routes := planner.ShortestRoutes(1, 1); len(routes) != 0 {
		t.Errorf("expected no routes from asset to itself, got %d", len(routes))
	}
}

func TestShortestRoutesDeterministic(t *testing.T) {
	sources := Sources{
		Omnipool: stubDirections{directions: directions(
			[2]domain.RemoteAssetID{1, 2}, [2]domain.RemoteAssetID{2, 5},
			[2]domain.RemoteAssetID{1, 3}, [2]domain.RemoteAssetID{3, 5},
			[2]domain.RemoteAssetID{1, 4}, [2]domain.RemoteAssetID{4, 5},
		)},
		Xyk: stubDirections{directions: directions(
			[2]domain.RemoteAssetID{1, 5},
		)},
	}

	first := NewPlanner(buildTestGraph(t, sources)).ShortestRoutes(1, 5)
	for i := 0; i < 10; i++ {
		again := NewPlanner(buildTestGraph(t, sources)).ShortestRoutes(1, 5)
		if len(again) != len(first) {
			t.Fatalf("route count changed between runs")
		}
		for j := range first {
			if len(again[j]) != len(first[j]) {
				t.Fatalf("route %d length changed", j)
			}
			for k := range first[j] {
				if again[j][k] != first[j][k] {
					t.Fatalf("route %d hop %d changed", j, k)
				}
			}
		}
	}
}

func BenchmarkShortestRoutes(b *testing.B) {
	// Dense hub-and-spoke graph around a hub asset.
	var pairs [][2]domain.RemoteAssetID
	for asset := domain.RemoteAssetID(1); asset <= 50; asset++ {
		pairs = append(pairs, [2]domain.RemoteAssetID{0, asset}, [2]domain.RemoteAssetID{asset, 0})
	}
	graph := buildTestGraph(b, Sources{
		Omnipool: stubDirections{directions: directions(pairs...)},
	})
	planner := NewPlanner(graph)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		planner.ShortestRoutes(3, 47)
	}
}
