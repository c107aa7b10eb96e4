package domain

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/bytedance/sonic"
)

var ErrInvalidDirection = errors.New("invalid trade direction")

// Direction tells how the requested amount is interpreted: a sell fixes the
// input amount and quotes the output, a buy fixes the output amount and
// quotes the required input.
type Direction uint8

const (
	DirectionSell Direction = iota
	DirectionBuy
)

func (d Direction) String() string {
	switch d {
	case DirectionSell:
		return "sell"
	case DirectionBuy:
		return "buy"
	default:
		return "UNKNOWN"
	}
}

func ParseDirection(s string) (Direction, error) {
	switch s {
	case "sell":
		return DirectionSell, nil
	case "buy":
		return DirectionBuy, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// QuoteArgs is a top-level quoting request over wallet-local asset ids.
// Amount is in the smallest on-chain denomination.
type QuoteArgs struct {
	AssetIn   LocalAssetID
	AssetOut  LocalAssetID
	Amount    *big.Int
	Direction Direction
}

// Quote is the result of pricing the best candidate route. Amount is the
// opposite side of the requested one: the output for a sell, the required
// input for a buy. Context carries the priced remote route serialized
// verbatim, so that a later call build cannot disagree with the selection on
// which path was priced.
type Quote struct {
	Args    QuoteArgs
	Amount  *big.Int
	Context []byte
}

// EncodeRouteContext serializes a remote route into the opaque context stored
// on a quote.
func EncodeRouteContext(route RemoteRoute) ([]byte, error) {
	if err := route.Validate(); err != nil {
		return nil, err
	}
	return sonic.Marshal(route)
}

// DecodeRouteContext restores the remote route from a quote's context. The
// round trip is lossless, including the stableswap pool-asset payload.
func DecodeRouteContext(data []byte) (RemoteRoute, error) {
	if len(data) == 0 {
		return nil, ErrEmptyRoute
	}
	var route RemoteRoute
	if err := sonic.Unmarshal(data, &route); err != nil {
		return nil, err
	}
	if err := route.Validate(); err != nil {
		return nil, err
	}
	return route, nil
}
