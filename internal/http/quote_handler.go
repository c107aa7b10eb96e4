package http

import (
	"encoding/base64"
	"errors"
	"math/big"

	"github.com/gin-gonic/gin"

	"github.com/novasamatech/hydra-route-engine/internal/common"
	"github.com/novasamatech/hydra-route-engine/internal/domain"
	"github.com/novasamatech/hydra-route-engine/internal/engine"
	"github.com/novasamatech/hydra-route-engine/internal/http/httputil"
)

type QuoteHandler struct {
	engineSvc *engine.Service
}

func NewQuoteHandler(engineSvc *engine.Service) *QuoteHandler {
	return &QuoteHandler{engineSvc: engineSvc}
}

func (h *QuoteHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.getQuote)
}

func (h *QuoteHandler) Root() string {
	return "/quote"
}

// QuoteRequest represents the parameters for requesting a swap quote
type QuoteRequest struct {
	// Wallet-local index of the asset being sold
	AssetIn uint32 `form:"assetIn" example:"0"`

	// Wallet-local index of the asset being bought. Index 0 is valid, so
	// neither asset field is binding-required; a missing one reads as 0 and
	// an equal pair is rejected as having no route.
	AssetOut uint32 `form:"assetOut" example:"1"`

	// Amount in the smallest on-chain denomination
	// For sell: the exact input amount. For buy: the exact output wanted.
	Amount string `form:"amount" binding:"required" example:"1000000000000"`

	// Trade direction
	// - "sell": Amount is the exact input, output is quoted
	// - "buy": Amount is the exact output, required input is quoted
	Direction string `form:"direction" binding:"required" enums:"sell,buy" example:"sell"`
}

// RouteHopInfo describes a single hop of the selected route
type RouteHopInfo struct {
	// Pool kind executing this hop
	PoolKind string `json:"poolKind" enums:"Omnipool,Stableswap,XYK,Aave" example:"Omnipool"`

	// Share asset of the stableswap pool, present for stableswap hops only
	PoolAsset *uint32 `json:"poolAsset,omitempty" example:"100"`

	// Chain-native input asset id of this hop
	AssetIn uint32 `json:"assetIn" example:"0"`

	// Chain-native output asset id of this hop
	AssetOut uint32 `json:"assetOut" example:"10"`
}

// QuoteResponse contains the priced quote and the context replayed at build time
type QuoteResponse struct {
	// Wallet-local index of the asset being sold
	AssetIn uint32 `json:"assetIn" example:"0"`

	// Wallet-local index of the asset being bought
	AssetOut uint32 `json:"assetOut" example:"1"`

	// Quoted counter amount in the smallest on-chain denomination
	// For sell: the output amount. For buy: the required input.
	Amount string `json:"amount" example:"998002000000"`

	// Hops of the selected route in execution order
	Route []RouteHopInfo `json:"route"`

	// Number of hops in the selected route
	HopCount int `json:"hopCount" example:"1"`

	// Opaque base64 context pinning the priced route; pass it unchanged to
	// the swap call build endpoint
	Context string `json:"context"`
}

// @Summary Get swap quote
// @Description Price the best route between two registered assets. Candidate
// @Description routes are planned over the current liquidity graph and priced
// @Description concurrently; the best one is returned together with an opaque
// @Description context that the call build endpoint replays verbatim.
// @Description
// @Description **Amount Format:**
// @Description - Smallest on-chain denomination, decimal string
// @Description
// @Description **Directions:**
// @Description - sell: amount is the exact input, the output is quoted
// @Description - buy: amount is the exact output, the required input is quoted
// @Tags quote
// @Produce json
// @Param assetIn query int true "Wallet-local index of the sold asset" example(0)
// @Param assetOut query int true "Wallet-local index of the bought asset" example(1)
// @Param amount query string true "Amount in the smallest denomination" example("1000000000000")
// @Param direction query string true "Trade direction: sell or buy" Enums(sell, buy) example("sell")
// @Success 200 {object} QuoteResponse "Quote with the selected route"
// @Failure 400 {object} httputil.Response "Invalid request parameters"
// @Failure 404 {object} httputil.Response "No viable route between the assets"
// @Router /api/v1/quote [get]
func (h *QuoteHandler) getQuote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httputil.BadRequest(c, "invalid query parameters: "+err.Error())
		return
	}

	direction, err := domain.ParseDirection(req.Direction)
	if err != nil {
		httputil.BadRequest(c, "invalid direction: must be sell or buy")
		return
	}

	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok || amount.Sign() <= 0 {
		httputil.BadRequest(c, "invalid amount: must be a positive integer")
		return
	}

	chainID := h.engineSvc.ChainModel().ID
	args := domain.QuoteArgs{
		AssetIn:   domain.LocalAssetID{ChainID: chainID, AssetIndex: req.AssetIn},
		AssetOut:  domain.LocalAssetID{ChainID: chainID, AssetIndex: req.AssetOut},
		Amount:    amount,
		Direction: direction,
	}

	quote, err := h.engineSvc.Quote(c.Request.Context(), args)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNoRoutesAvailable),
			errors.Is(err, common.ErrInsufficientLiquidity):
			httputil.NotFound(c, "no viable route: "+err.Error())
		case errors.Is(err, common.ErrUnknownRemoteAsset),
			errors.Is(err, common.ErrUnsupportedLocalAsset):
			httputil.BadRequest(c, err.Error())
		default:
			httputil.InternalError(c, err.Error())
		}
		return
	}

	route, err := domain.DecodeRouteContext(quote.Context)
	if err != nil {
		httputil.InternalError(c, "quote produced an invalid route context")
		return
	}

	httputil.Success(c, buildQuoteResponse(&req, quote, route))
}

func buildQuoteResponse(req *QuoteRequest, quote *domain.Quote, route domain.RemoteRoute) QuoteResponse {
	hops := make([]RouteHopInfo, 0, len(route))
	for _, hop := range route {
		info := RouteHopInfo{
			PoolKind: hop.Kind.Tag.String(),
			AssetIn:  uint32(hop.AssetIn),
			AssetOut: uint32(hop.AssetOut),
		}
		if hop.Kind.Tag == domain.PoolKindStableswap {
			poolAsset := uint32(hop.Kind.PoolAsset)
			info.PoolAsset = &poolAsset
		}
		hops = append(hops, info)
	}

	return QuoteResponse{
		AssetIn:  req.AssetIn,
		AssetOut: req.AssetOut,
		Amount:   quote.Amount.String(),
		Route:    hops,
		HopCount: len(route),
		Context:  base64.StdEncoding.EncodeToString(quote.Context),
	}
}
