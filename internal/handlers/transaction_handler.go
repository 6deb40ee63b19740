package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/pagination"
	"moneta/internal/services"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	projectionService  services.ProjectionServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, projectionService services.ProjectionServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, projectionService: projectionService}
}

// TransactionRequest represents the payload for creating or updating a transaction
type TransactionRequest struct {
	Type        string  `json:"type" binding:"required,transaction_type"`
	Amount      int64   `json:"amount" binding:"required,gt=0"`
	AccountID   string  `json:"account_id" binding:"required,uuid"`
	ToAccountID *string `json:"to_account_id" binding:"omitempty,uuid"`
	Date        string  `json:"date"`
	Category    string  `json:"category" binding:"max=100"`
	Approved    bool    `json:"approved"`
}

func (r *TransactionRequest) toInput() (services.TransactionInput, error) {
	date, err := parseDate(r.Date)
	if err != nil {
		return services.TransactionInput{}, err
	}
	return services.TransactionInput{
		Type:        models.TransactionType(r.Type),
		Amount:      r.Amount,
		AccountID:   r.AccountID,
		ToAccountID: r.ToAccountID,
		Date:        date,
		Category:    r.Category,
		Approved:    r.Approved,
	}, nil
}

// transactionFilterQuery represents the optional list filters.
type transactionFilterQuery struct {
	From string `form:"from"`
	To   string `form:"to"`
	Type string `form:"type" binding:"omitempty,transaction_type"`
}

func bindTransactionFilter(c *gin.Context) (services.TransactionFilter, error) {
	var q transactionFilterQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return services.TransactionFilter{}, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}

	var filter services.TransactionFilter
	from, err := parseOptionalDate(&q.From)
	if err != nil {
		return filter, err
	}
	to, err := parseOptionalDate(&q.To)
	if err != nil {
		return filter, err
	}
	filter.FromDate = from
	filter.ToDate = to
	if q.Type != "" {
		transactionType := models.TransactionType(q.Type)
		filter.Type = &transactionType
	}
	return filter, nil
}

// CreateTransaction creates a one-off transaction
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.CreateTransaction(input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": transaction})
}

// GetTransactions lists transactions. With view=expected the list is the
// forward-looking projection including virtual recurring instances; with
// view=actual (or no view) it is the stored, filterable transaction list.
func (h *TransactionHandler) GetTransactions(c *gin.Context) {
	if view := c.Query("view"); view != "" {
		mode, err := services.ParseViewMode(view)
		if err != nil {
			respondWithError(c, err)
			return
		}
		projected, err := h.projectionService.Project(mode)
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"view": mode, "transactions": projected})
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter, err := bindTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.GetTransactions(page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTransactionByID returns a single transaction
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	transaction, err := h.transactionService.GetTransactionByID(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// UpdateTransaction replaces a transaction's editable fields
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.UpdateTransaction(c.Param("id"), input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// ApproveTransaction marks a transaction approved
func (h *TransactionHandler) ApproveTransaction(c *gin.Context) {
	transaction, err := h.transactionService.ApproveTransaction(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// UnapproveTransaction reverts a transaction to unapproved
func (h *TransactionHandler) UnapproveTransaction(c *gin.Context) {
	transaction, err := h.transactionService.UnapproveTransaction(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// DeleteTransaction removes a transaction
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	if err := h.transactionService.DeleteTransaction(c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
