package domain

import "math/big"

// Call is a single on-chain call addressed by runtime module and method.
// Calls carry plain argument structs; encoding to the chain's wire format is
// the submitting layer's job.
type Call struct {
	Module string `json:"module"`
	Method string `json:"method"`
	Args   any    `json:"args"`

	// BestEffort marks a call whose failure must not abort the calls that
	// follow it in the same batch.
	BestEffort bool `json:"bestEffort,omitempty"`
}

// CallList is the ordered call sequence produced for one trade execution.
type CallList []Call

// TradeLeg is one hop of a routed trade in the runtime's own representation.
type TradeLeg struct {
	Kind     PoolKind      `json:"pool"`
	AssetIn  RemoteAssetID `json:"assetIn"`
	AssetOut RemoteAssetID `json:"assetOut"`
}

type LinkReferralCodeArgs struct {
	Code string `json:"code"`
}

type SetFeeCurrencyArgs struct {
	Currency RemoteAssetID `json:"currency"`
}

type OmnipoolSellArgs struct {
	AssetIn      RemoteAssetID `json:"assetIn"`
	AssetOut     RemoteAssetID `json:"assetOut"`
	Amount       *big.Int      `json:"amount"`
	MinBuyAmount *big.Int      `json:"minBuyAmount"`
}

type OmnipoolBuyArgs struct {
	AssetOut      RemoteAssetID `json:"assetOut"`
	AssetIn       RemoteAssetID `json:"assetIn"`
	Amount        *big.Int      `json:"amount"`
	MaxSellAmount *big.Int      `json:"maxSellAmount"`
}

type RouterSellArgs struct {
	AssetIn      RemoteAssetID `json:"assetIn"`
	AssetOut     RemoteAssetID `json:"assetOut"`
	AmountIn     *big.Int      `json:"amountIn"`
	MinAmountOut *big.Int      `json:"minAmountOut"`
	Route        []TradeLeg    `json:"route"`
}

type RouterBuyArgs struct {
	AssetIn     RemoteAssetID `json:"assetIn"`
	AssetOut    RemoteAssetID `json:"assetOut"`
	AmountOut   *big.Int      `json:"amountOut"`
	MaxAmountIn *big.Int      `json:"maxAmountIn"`
	Route       []TradeLeg    `json:"route"`
}
