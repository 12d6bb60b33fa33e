package handler

import (
	"errors"
	"net/http"

	"github.com/denizolgu/chancepool/internal/api/middleware"
	"github.com/denizolgu/chancepool/internal/domain"
	"github.com/denizolgu/chancepool/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SettlerHandler serves the settler roster endpoints.  Roster changes are
// self-governed: only a current settler may add or remove members, with the
// genesis seeding in main() bootstrapping the first one.
type SettlerHandler struct {
	settlerSvc *service.SettlerService
}

// NewSettlerHandler creates a SettlerHandler.
func NewSettlerHandler(settlerSvc *service.SettlerService) *SettlerHandler {
	return &SettlerHandler{settlerSvc: settlerSvc}
}

// List godoc
// GET /api/settlers (public)
func (h *SettlerHandler) List(c *gin.Context) {
	members, err := h.settlerSvc.Members(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch roster")
		return
	}
	respondList(c, members, len(members))
}

// Add godoc
// POST /api/settlers [JWT, settler only]
// Body: {"account":"uuid"}
func (h *SettlerHandler) Add(c *gin.Context) {
	caller := middleware.GetAccountID(c)

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

	if err := h.settlerSvc.EnsureSettler(c.Request.Context(), caller); err != nil {
		respondError(c, http.StatusForbidden, "ERR_NOT_SETTLER", domain.ErrNotSettler.Error())
		return
	}

	if err := h.settlerSvc.Add(c.Request.Context(), account); err != nil {
		switch {
		case errors.Is(err, domain.ErrSettlerLimit):
			respondError(c, http.StatusConflict, "ERR_SETTLER_LIMIT", err.Error())
		case errors.Is(err, domain.ErrAlreadySettler):
			respondError(c, http.StatusConflict, "ERR_ALREADY_SETTLER", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not add settler")
		}
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"account": account})
}

// Remove godoc
// DELETE /api/settlers/:id [JWT, settler only]
func (h *SettlerHandler) Remove(c *gin.Context) {
	caller := middleware.GetAccountID(c)

	account, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ACCOUNT", "invalid account id")
		return
	}

	if err := h.settlerSvc.EnsureSettler(c.Request.Context(), caller); err != nil {
		respondError(c, http.StatusForbidden, "ERR_NOT_SETTLER", domain.ErrNotSettler.Error())
		return
	}

	if err := h.settlerSvc.Remove(c.Request.Context(), account); err != nil {
		switch {
		case errors.Is(err, domain.ErrLastSettler):
			respondError(c, http.StatusConflict, "ERR_LAST_SETTLER", err.Error())
		case errors.Is(err, domain.ErrNotSettler):
			respondError(c, http.StatusNotFound, "ERR_NOT_SETTLER", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not remove settler")
		}
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"account": account})
}
