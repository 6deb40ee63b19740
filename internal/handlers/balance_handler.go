package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"moneta/internal/services"
)

// BalanceHandler serves projected per-account balances.
type BalanceHandler struct {
	projectionService services.ProjectionServicer
}

// NewBalanceHandler creates a new BalanceHandler.
func NewBalanceHandler(projectionService services.ProjectionServicer) *BalanceHandler {
	return &BalanceHandler{projectionService: projectionService}
}

// GetBalances returns per-account balances under the requested view mode.
// Defaults to the actual view when no mode is given.
func (h *BalanceHandler) GetBalances(c *gin.Context) {
	mode, err := services.ParseViewMode(c.Query("view"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	balances, err := h.projectionService.AccountBalances(mode)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"view": mode, "balances": balances})
}
