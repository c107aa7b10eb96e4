// Package common provides shared errors used across all services.
package common

import "errors"

var (
	// ErrUnknownRemoteAsset means a chain-native asset id has no counterpart
	// in the wallet registry.
	ErrUnknownRemoteAsset = errors.New("remote asset is not registered locally")

	// ErrUnsupportedLocalAsset means a registered asset's storage kind cannot
	// be traded through the runtime.
	ErrUnsupportedLocalAsset = errors.New("local asset has no remote representation")

	// ErrGraphUnavailable means at least one pool kind failed to report its
	// trade directions, so no connectivity graph could be built.
	ErrGraphUnavailable = errors.New("liquidity graph unavailable")

	// ErrNoRoutesAvailable means candidate routes existed (or the pair is
	// resolvable) but none could be priced.
	ErrNoRoutesAvailable = errors.New("no priceable routes available")

	// ErrDataCorruption means a quote's route context or required call
	// arguments were missing or undecodable at execution time.
	ErrDataCorruption = errors.New("trade context is missing or corrupted")

	// ErrInsufficientLiquidity is returned by pool quoters when the pool
	// cannot cover the requested amount.
	ErrInsufficientLiquidity = errors.New("insufficient pool liquidity")

	// ErrUnknownPool is returned by pool quoters for hops that reference a
	// pool the chain does not know.
	ErrUnknownPool = errors.New("pool not found")
)
