package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "moneta/internal/errors"
	"moneta/internal/pagination"
	"moneta/internal/services"
)

// InstanceHandler handles generated-instance requests.
type InstanceHandler struct {
	recurringService services.RecurringServicer
}

// NewInstanceHandler creates a new InstanceHandler.
func NewInstanceHandler(recurringService services.RecurringServicer) *InstanceHandler {
	return &InstanceHandler{recurringService: recurringService}
}

// BulkApproveRequest represents the payload for approving several instances
type BulkApproveRequest struct {
	InstanceIDs []string `json:"instance_ids" binding:"required,min=1,dive,uuid"`
}

// GetInstances lists generated instances, optionally only pending ones
func (h *InstanceHandler) GetInstances(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	pendingOnly := c.Query("pending") == "true"
	result, err := h.recurringService.GetInstances(pendingOnly, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ApproveInstance materializes and approves one instance
func (h *InstanceHandler) ApproveInstance(c *gin.Context) {
	instance, err := h.recurringService.ApproveInstance(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"instance": instance})
}

// SkipInstance skips one instance
func (h *InstanceHandler) SkipInstance(c *gin.Context) {
	instance, err := h.recurringService.SkipInstance(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"instance": instance})
}

// BulkApprove approves several instances independently and reports per-id
// results; partial success is expected, so the response is always 200.
func (h *InstanceHandler) BulkApprove(c *gin.Context) {
	var req BulkApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	results := h.recurringService.BulkApprove(req.InstanceIDs)
	c.JSON(http.StatusOK, gin.H{"results": results})
}
