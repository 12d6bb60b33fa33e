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

// PoolHandler serves deposit, withdraw, and share query endpoints.
type PoolHandler struct {
	poolSvc *service.PoolService
	cfg     *config.Config
}

// NewPoolHandler creates a PoolHandler.
func NewPoolHandler(poolSvc *service.PoolService, cfg *config.Config) *PoolHandler {
	return &PoolHandler{poolSvc: poolSvc, cfg: cfg}
}

// parseAmount converts a display-unit decimal string ("12.5") into base
// units.  Rejects zero, negative, and sub-base-unit fractional inputs.
func (h *PoolHandler) parseAmount(s string) (domain.Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, domain.ErrConversion
	}
	amount, err := domain.AmountFromDecimal(d, h.cfg.Ledger.AmountScale)
	if err != nil {
		return 0, err
	}
	if amount.IsZero() {
		return 0, domain.ErrAmountZero
	}
	return amount, nil
}

// display renders a base-unit amount as a display-unit decimal string.
func (h *PoolHandler) display(a domain.Amount) string {
	return a.Decimal(h.cfg.Ledger.AmountScale).String()
}

// Deposit godoc
// POST /api/pool/deposit [JWT]
// Body: {"amount":"100.5"}
func (h *PoolHandler) Deposit(c *gin.Context) {
	caller := middleware.GetAccountID(c)

	var body struct {
		Amount string `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}
	amount, err := h.parseAmount(body.Amount)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_AMOUNT", "amount must be a positive decimal string")
		return
	}

	shares, err := h.poolSvc.Deposit(c.Request.Context(), caller, amount)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInsufficientBalance):
			respondError(c, http.StatusPaymentRequired, "ERR_INSUFFICIENT_BALANCE", err.Error())
		case errors.Is(err, domain.ErrConversion):
			respondError(c, http.StatusBadRequest, "ERR_CONVERSION", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not deposit")
		}
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{
		"shares_minted": shares,
		"amount":        h.display(amount),
	})
}

// Withdraw godoc
// POST /api/pool/withdraw [JWT]
// Body: {"shares":"250000000000"}  (share units, not display units)
func (h *PoolHandler) Withdraw(c *gin.Context) {
	caller := middleware.GetAccountID(c)

	var body struct {
		Shares string `json:"shares" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}
	shares, err := domain.ParseAmount(body.Shares)
	if err != nil || shares.IsZero() {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_AMOUNT", "shares must be a positive integer string")
		return
	}

	payout, err := h.poolSvc.Withdraw(c.Request.Context(), caller, shares)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBalanceLow):
			respondError(c, http.StatusPaymentRequired, "ERR_BALANCE_LOW", err.Error())
		case errors.Is(err, domain.ErrBalanceZero):
			respondError(c, http.StatusConflict, "ERR_POOL_EMPTY", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not withdraw")
		}
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"shares_burned": shares,
		"payout":        h.display(payout),
	})
}

// TransferShares godoc
// POST /api/pool/transfer [JWT]
// Body: {"to":"uuid","shares":"250000000000"}
func (h *PoolHandler) TransferShares(c *gin.Context) {
	caller := middleware.GetAccountID(c)

	var body struct {
		To     string `json:"to"     binding:"required"`
		Shares string `json:"shares" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}
	to, err := uuid.Parse(body.To)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ACCOUNT", "invalid destination account id")
		return
	}
	shares, err := domain.ParseAmount(body.Shares)
	if err != nil || shares.IsZero() {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_AMOUNT", "shares must be a positive integer string")
		return
	}

	if err := h.poolSvc.TransferShares(c.Request.Context(), caller, to, shares); err != nil {
		switch {
		case errors.Is(err, domain.ErrBalanceLow):
			respondError(c, http.StatusPaymentRequired, "ERR_BALANCE_LOW", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not transfer shares")
		}
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"transferred": shares})
}

// MyShares godoc
// GET /api/pool/shares [JWT]
func (h *PoolHandler) MyShares(c *gin.Context) {
	caller := middleware.GetAccountID(c)

	shares, err := h.poolSvc.ShareBalance(c.Request.Context(), caller)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch shares")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"shares": shares})
}

// Summary godoc
// GET /api/pool (public)
func (h *PoolHandler) Summary(c *gin.Context) {
	summary, err := h.poolSvc.Summary(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch pool state")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"reserve":         summary.Reserve,
		"reserve_display": h.display(summary.Reserve),
		"total_shares":    summary.TotalShares,
		"pending_bets":    summary.PendingBets,
	})
}
