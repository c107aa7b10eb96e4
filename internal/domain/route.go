package domain

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

var (
	ErrEmptyRoute         = errors.New("route has no components")
	ErrBrokenRoute        = errors.New("route components are not contiguous")
	ErrUnknownPoolKind    = errors.New("unknown pool kind")
	ErrMissingPoolContext = errors.New("stableswap component is missing its pool asset")
)

// PoolKindTag enumerates the liquidity pool kinds the chain runtime trades
// through. The set is closed: every consumer switches exhaustively over it.
type PoolKindTag uint8

const (
	PoolKindOmnipool PoolKindTag = iota
	PoolKindStableswap
	PoolKindXyk
	PoolKindAave
)

func (t PoolKindTag) String() string {
	switch t {
	case PoolKindOmnipool:
		return "Omnipool"
	case PoolKindStableswap:
		return "Stableswap"
	case PoolKindXyk:
		return "XYK"
	case PoolKindAave:
		return "Aave"
	default:
		return "UNKNOWN"
	}
}

// PoolKind is a tagged variant over the pool kinds. Stableswap carries the
// settlement (share) asset of the concrete pool; for every other tag
// PoolAsset is zero. The struct is comparable, so equality and map keys take
// the embedded pool asset into account.
type PoolKind struct {
	Tag       PoolKindTag
	PoolAsset RemoteAssetID
}

func Omnipool() PoolKind {
	return PoolKind{Tag: PoolKindOmnipool}
}

func Stableswap(poolAsset RemoteAssetID) PoolKind {
	return PoolKind{Tag: PoolKindStableswap, PoolAsset: poolAsset}
}

func Xyk() PoolKind {
	return PoolKind{Tag: PoolKindXyk}
}

func Aave() PoolKind {
	return PoolKind{Tag: PoolKindAave}
}

func (k PoolKind) String() string {
	if k.Tag == PoolKindStableswap {
		return fmt.Sprintf("Stableswap(%d)", k.PoolAsset)
	}
	return k.Tag.String()
}

type poolKindJSON struct {
	Kind      string         `json:"kind"`
	PoolAsset *RemoteAssetID `json:"poolAsset,omitempty"`
}

func (k PoolKind) MarshalJSON() ([]byte, error) {
	out := poolKindJSON{}
	switch k.Tag {
	case PoolKindOmnipool:
		out.Kind = "omnipool"
	case PoolKindStableswap:
		out.Kind = "stableswap"
		pool := k.PoolAsset
		out.PoolAsset = &pool
	case PoolKindXyk:
		out.Kind = "xyk"
	case PoolKindAave:
		out.Kind = "aave"
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownPoolKind, k.Tag)
	}
	return sonic.Marshal(out)
}

func (k *PoolKind) UnmarshalJSON(data []byte) error {
	var in poolKindJSON
	if err := sonic.Unmarshal(data, &in); err != nil {
		return err
	}
	switch in.Kind {
	case "omnipool":
		*k = Omnipool()
	case "stableswap":
		if in.PoolAsset == nil {
			return ErrMissingPoolContext
		}
		*k = Stableswap(*in.PoolAsset)
	case "xyk":
		*k = Xyk()
	case "aave":
		*k = Aave()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPoolKind, in.Kind)
	}
	return nil
}

// RouteComponent is one hop of a route: a single trade through one pool. The
// asset representation is generic so the same shape carries a discovered
// local route and, after translation, the remote route handed to quoting and
// execution.
type RouteComponent[T comparable] struct {
	AssetIn  T        `json:"assetIn"`
	AssetOut T        `json:"assetOut"`
	Kind     PoolKind `json:"kind"`
}

// Route is an ordered, non-empty hop list. A sell interprets it head to tail,
// a buy traverses the same components tail to head; the route object itself
// is never mutated after construction.
type Route[T comparable] []RouteComponent[T]

// Validate checks the route is non-empty and contiguous: every hop's output
// asset feeds the next hop's input asset.
func (r Route[T]) Validate() error {
	if len(r) == 0 {
		return ErrEmptyRoute
	}
	for i := 0; i+1 < len(r); i++ {
		if r[i].AssetOut != r[i+1].AssetIn {
			return fmt.Errorf("%w: hop %d out != hop %d in", ErrBrokenRoute, i, i+1)
		}
	}
	return nil
}

func (r Route[T]) AssetIn() T {
	return r[0].AssetIn
}

func (r Route[T]) AssetOut() T {
	return r[len(r)-1].AssetOut
}

// RemoteRoute is a route in chain-native asset ids, the form that is priced
// and executed.
type RemoteRoute = Route[RemoteAssetID]

// LocalRoute is a route in wallet-local asset ids.
type LocalRoute = Route[LocalAssetID]
