package handler

import (
	"net/http"

	"github.com/denizolgu/chancepool/internal/api/middleware"
	"github.com/denizolgu/chancepool/internal/config"
	"github.com/denizolgu/chancepool/internal/domain"
	"github.com/denizolgu/chancepool/internal/repository"
	"github.com/denizolgu/chancepool/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountHandler serves balance queries plus the development-only token and
// faucet endpoints.  Accounts are bare identities: there is no registration,
// an account exists once it holds a balance.
type AccountHandler struct {
	accountRepo *repository.AccountRepository
	authSvc     *service.AuthService
	cfg         *config.Config
}

// NewAccountHandler creates an AccountHandler.
func NewAccountHandler(accountRepo *repository.AccountRepository, authSvc *service.AuthService, cfg *config.Config) *AccountHandler {
	return &AccountHandler{accountRepo: accountRepo, authSvc: authSvc, cfg: cfg}
}

// Balance godoc
// GET /api/account/balance [JWT]
func (h *AccountHandler) Balance(c *gin.Context) {
	caller := middleware.GetAccountID(c)

	balance, err := h.accountRepo.FreeBalance(c.Request.Context(), caller)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch balance")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"balance":         balance,
		"balance_display": balance.Decimal(h.cfg.Ledger.AmountScale).String(),
	})
}

// IssueToken godoc
// POST /api/auth/token (development only)
// Body: {"account":"uuid"}
//
// Mints a token for any account.  In production tokens are issued
// out-of-band, so this endpoint is closed there.
func (h *AccountHandler) IssueToken(c *gin.Context) {
	if h.cfg.IsProd() {
		respondError(c, http.StatusForbidden, "ERR_FORBIDDEN", "token endpoint disabled in production")
		return
	}

	var body struct {
		Account string `json:"account" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}
	account, err := uuid.Parse(body.Account)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ACCOUNT", "invalid account id")
		return
	}

	token, err := h.authSvc.IssueToken(account)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not issue token")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"access_token": token})
}

// Faucet godoc
// POST /api/account/faucet [JWT] (development only)
// Body: {"amount":"1000"}
func (h *AccountHandler) Faucet(c *gin.Context) {
	if h.cfg.IsProd() {
		respondError(c, http.StatusForbidden, "ERR_FORBIDDEN", "faucet disabled in production")
		return
	}

	caller := middleware.GetAccountID(c)

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

	if err := h.accountRepo.Credit(c.Request.Context(), caller, amount); err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not credit account")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"credited": amount})
}
