package handler

import (
	"errors"
	"net/http"

	"github.com/denizolgu/chancepool/internal/api/middleware"
	"github.com/denizolgu/chancepool/internal/config"
	"github.com/denizolgu/chancepool/internal/domain"
	"github.com/denizolgu/chancepool/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WagerHandler serves bet placement, queue queries, and settlement.
type WagerHandler struct {
	wagerSvc *service.WagerService
	cfg      *config.Config
}

// NewWagerHandler creates a WagerHandler.
func NewWagerHandler(wagerSvc *service.WagerService, cfg *config.Config) *WagerHandler {
	return &WagerHandler{wagerSvc: wagerSvc, cfg: cfg}
}

// PlaceBet godoc
// POST /api/wagers [JWT]
// Body: {"amount":"10.0"}
func (h *WagerHandler) PlaceBet(c *gin.Context) {
	bettor := middleware.GetAccountID(c)

	var body struct {
		Amount string `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}
	d, err := decimal.NewFromString(body.Amount)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_AMOUNT", "amount must be a positive decimal string")
		return
	}
	amount, err := domain.AmountFromDecimal(d, h.cfg.Ledger.AmountScale)
	if err != nil || amount.IsZero() {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_AMOUNT", "amount must be a positive decimal string")
		return
	}

	bet, err := h.wagerSvc.PlaceBet(c.Request.Context(), bettor, amount)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotEnoughLiquidity):
			respondError(c, http.StatusConflict, "ERR_NOT_ENOUGH_LIQUIDITY", err.Error())
		case errors.Is(err, domain.ErrInsufficientBalance):
			respondError(c, http.StatusPaymentRequired, "ERR_INSUFFICIENT_BALANCE", err.Error())
		case errors.Is(err, domain.ErrBetPending):
			respondError(c, http.StatusConflict, "ERR_BET_PENDING", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not place bet")
		}
		return
	}
	respondSuccess(c, http.StatusCreated, bet)
}

// Pending godoc
// GET /api/wagers (public) — full settlement queue
func (h *WagerHandler) Pending(c *gin.Context) {
	bets, err := h.wagerSvc.PendingBets(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch queue")
		return
	}
	respondList(c, bets, len(bets))
}

// MyPending godoc
// GET /api/wagers/my [JWT]
func (h *WagerHandler) MyPending(c *gin.Context) {
	bettor := middleware.GetAccountID(c)

	bets, err := h.wagerSvc.PendingForBettor(c.Request.Context(), bettor)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch bets")
		return
	}
	respondList(c, bets, len(bets))
}

// Settle godoc
// POST /api/wagers/settle [JWT, settler only]
// Body: {"bettor":"uuid","net_wager":"990000000000","won":true}
//
// net_wager is the base-unit figure the bet was queued at, which the caller
// read from GET /api/wagers.  The (bettor, net_wager) pair identifies the bet.
func (h *WagerHandler) Settle(c *gin.Context) {
	settler := middleware.GetAccountID(c)

	var body struct {
		Bettor   string `json:"bettor"    binding:"required"`
		NetWager string `json:"net_wager" binding:"required"`
		Won      *bool  `json:"won"       binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}
	bettor, err := uuid.Parse(body.Bettor)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ACCOUNT", "invalid bettor account id")
		return
	}
	netWager, err := domain.ParseAmount(body.NetWager)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_AMOUNT", "net_wager must be a base-unit integer string")
		return
	}

	err = h.wagerSvc.Settle(c.Request.Context(), settler, bettor, netWager, *body.Won)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotSettler):
			respondError(c, http.StatusForbidden, "ERR_NOT_SETTLER", err.Error())
		case errors.Is(err, domain.ErrBetNotFound):
			respondError(c, http.StatusNotFound, "ERR_BET_NOT_FOUND", err.Error())
		case errors.Is(err, domain.ErrInsufficientBalance):
			respondError(c, http.StatusConflict, "ERR_RESERVE_SHORT", err.Error())
		case errors.Is(err, domain.ErrConversion):
			respondError(c, http.StatusBadRequest, "ERR_CONVERSION", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not settle bet")
		}
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"bettor":    bettor,
		"net_wager": netWager,
		"won":       *body.Won,
	})
}
