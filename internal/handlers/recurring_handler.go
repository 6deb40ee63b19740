package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/pagination"
	"moneta/internal/services"
)

// RecurringHandler handles recurring-definition requests.
type RecurringHandler struct {
	recurringService services.RecurringServicer
}

// NewRecurringHandler creates a new RecurringHandler.
func NewRecurringHandler(recurringService services.RecurringServicer) *RecurringHandler {
	return &RecurringHandler{recurringService: recurringService}
}

// RecurringRequest represents the payload for creating or updating a
// recurring definition
type RecurringRequest struct {
	Type        string  `json:"type" binding:"required,transaction_type"`
	Amount      int64   `json:"amount" binding:"required,gt=0"`
	AccountID   string  `json:"account_id" binding:"required,uuid"`
	ToAccountID *string `json:"to_account_id" binding:"omitempty,uuid"`
	Frequency   string  `json:"frequency" binding:"required,frequency"`
	StartDate   string  `json:"start_date" binding:"required"`
	EndDate     *string `json:"end_date"`
	DayOfWeek   *int    `json:"day_of_week" binding:"omitempty,min=0,max=6"`
	DayOfMonth  *int    `json:"day_of_month" binding:"omitempty,min=1,max=31"`
	Category    string  `json:"category" binding:"max=100"`
	AutoApprove bool    `json:"auto_approve"`
}

func (r *RecurringRequest) toInput() (services.RecurringInput, error) {
	startDate, err := parseDate(r.StartDate)
	if err != nil {
		return services.RecurringInput{}, err
	}
	endDate, err := parseOptionalDate(r.EndDate)
	if err != nil {
		return services.RecurringInput{}, err
	}
	return services.RecurringInput{
		Type:        models.TransactionType(r.Type),
		Amount:      r.Amount,
		AccountID:   r.AccountID,
		ToAccountID: r.ToAccountID,
		Frequency:   models.Frequency(r.Frequency),
		StartDate:   startDate,
		EndDate:     endDate,
		DayOfWeek:   r.DayOfWeek,
		DayOfMonth:  r.DayOfMonth,
		Category:    r.Category,
		AutoApprove: r.AutoApprove,
	}, nil
}

// CreateDefinition creates a recurring definition and reconciles it
func (h *RecurringHandler) CreateDefinition(c *gin.Context) {
	var req RecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	def, err := h.recurringService.CreateDefinition(input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"recurring": def})
}

// GetDefinitions lists recurring definitions
func (h *RecurringHandler) GetDefinitions(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.recurringService.GetDefinitions(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetDefinitionByID returns a single recurring definition
func (h *RecurringHandler) GetDefinitionByID(c *gin.Context) {
	def, err := h.recurringService.GetDefinitionByID(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recurring": def})
}

// UpdateDefinition replaces a definition and re-reconciles it
func (h *RecurringHandler) UpdateDefinition(c *gin.Context) {
	var req RecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	def, err := h.recurringService.UpdateDefinition(c.Param("id"), input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recurring": def})
}

// DeleteDefinition removes a definition and its tracked instances
func (h *RecurringHandler) DeleteDefinition(c *gin.Context) {
	if err := h.recurringService.DeleteDefinition(c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
