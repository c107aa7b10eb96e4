package http

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/novasamatech/hydra-route-engine/internal/common"
	"github.com/novasamatech/hydra-route-engine/internal/domain"
	"github.com/novasamatech/hydra-route-engine/internal/engine"
	"github.com/novasamatech/hydra-route-engine/internal/http/httputil"
)

// SwapHandler builds the call lists executing previously quoted trades.
type SwapHandler struct {
	engineSvc *engine.Service
}

func NewSwapHandler(engineSvc *engine.Service) *SwapHandler {
	return &SwapHandler{engineSvc: engineSvc}
}

func (h *SwapHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.POST("/calls", h.buildCalls)
}

func (h *SwapHandler) Root() string {
	return "/swap"
}

// SwapCallsRequest represents the parameters for building the swap call list
type SwapCallsRequest struct {
	// Hex-encoded account id of the payer executing the swap
	Account string `json:"account" binding:"required" example:"0x6d6f646c70792f74727372790000000000000000000000000000000000000000"`

	// Trade direction the quote was made for
	Direction string `json:"direction" binding:"required" enums:"sell,buy" example:"sell"`

	// Input amount in the smallest denomination
	// For sell: the amount being sold. For buy: the quoted required input.
	AmountIn string `json:"amountIn" binding:"required" example:"1000000000000"`

	// Output amount in the smallest denomination
	// For sell: the quoted output. For buy: the amount being bought.
	AmountOut string `json:"amountOut" binding:"required" example:"998002000000"`

	// Slippage tolerance in basis points (1 bps = 0.01%)
	// Zero or omitted applies the configured default
	SlippageBps uint32 `json:"slippageBps" example:"50"`

	// Opaque base64 context returned by the quote endpoint, unchanged
	Context string `json:"context" binding:"required"`
}

// SwapCallsResponse contains the ordered call list for the wallet to sign
type SwapCallsResponse struct {
	// Calls in execution order: an optional best-effort referral link, an
	// optional fee currency switch, then the trade itself
	Calls domain.CallList `json:"calls"`

	// Number of calls in the list
	CallCount int `json:"callCount" example:"2"`
}

// @Summary Build swap call list
// @Description Assemble the on-chain calls executing a quoted trade. The
// @Description payer's current fee currency and referral link state are read
// @Description from chain; the route context from the quote response is
// @Description replayed verbatim, so the built trade can never diverge from
// @Description the route that was priced.
// @Tags swap
// @Accept json
// @Produce json
// @Param request body SwapCallsRequest true "Call build parameters"
// @Success 200 {object} SwapCallsResponse "Ordered call list"
// @Failure 400 {object} httputil.Response "Invalid request parameters"
// @Failure 422 {object} httputil.Response "Route context does not match the quote"
// @Router /api/v1/swap/calls [post]
func (h *SwapHandler) buildCalls(c *gin.Context) {
	var req SwapCallsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	account, err := hex.DecodeString(strings.TrimPrefix(req.Account, "0x"))
	if err != nil || len(account) == 0 {
		httputil.BadRequest(c, "invalid account: must be hex-encoded")
		return
	}

	direction, err := domain.ParseDirection(req.Direction)
	if err != nil {
		httputil.BadRequest(c, "invalid direction: must be sell or buy")
		return
	}

	amountIn, ok := new(big.Int).SetString(req.AmountIn, 10)
	if !ok || amountIn.Sign() <= 0 {
		httputil.BadRequest(c, "invalid amountIn: must be a positive integer")
		return
	}
	amountOut, ok := new(big.Int).SetString(req.AmountOut, 10)
	if !ok || amountOut.Sign() <= 0 {
		httputil.BadRequest(c, "invalid amountOut: must be a positive integer")
		return
	}

	routeContext, err := base64.StdEncoding.DecodeString(req.Context)
	if err != nil {
		httputil.BadRequest(c, "invalid context: must be base64")
		return
	}

	calls, err := h.engineSvc.BuildSwapCalls(c.Request.Context(), engine.SwapCallArgs{
		Account:      account,
		Direction:    direction,
		AmountIn:     amountIn,
		AmountOut:    amountOut,
		SlippageBps:  req.SlippageBps,
		RouteContext: routeContext,
	})
	if err != nil {
		if errors.Is(err, common.ErrDataCorruption) {
			httputil.UnprocessableEntity(c, err.Error())
			return
		}
		httputil.InternalError(c, err.Error())
		return
	}

	httputil.Success(c, SwapCallsResponse{Calls: calls, CallCount: len(calls)})
}
