package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "finledger/internal/errors"
	"finledger/internal/models"
	"finledger/internal/pagination"
	"finledger/internal/services"
	"finledger/internal/uuid"
)

// TransactionHandler exposes the ledger over HTTP.
type TransactionHandler struct {
	transactionService services.TransactionServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// CreateTransactionRequest represents the request payload for creating a transaction.
type CreateTransactionRequest struct {
	AccountID   string                   `json:"account_id" binding:"required,uuid"`
	CategoryID  *string                  `json:"category_id" binding:"omitempty,uuid"`
	Kind        models.TransactionKind   `json:"kind" binding:"required,transaction_kind"`
	Amount      decimal.Decimal          `json:"amount" binding:"decimal_positive" swaggertype:"string" example:"150.00"`
	Description string                   `json:"description" binding:"max=500"`
	Date        *string                  `json:"date" example:"2024-03-15"`
	Status      models.TransactionStatus `json:"status" binding:"omitempty,transaction_status"`
	TagIDs      []string                 `json:"tag_ids" binding:"omitempty,dive,uuid"`

	IsSalary          bool `json:"is_salary"`
	SalaryInstallment int  `json:"salary_installment" binding:"min=0"`

	IsInvoicePayment bool    `json:"is_invoice_payment"`
	SourceCardID     *string `json:"source_card_id" binding:"omitempty,uuid"`
}

// UpdateTransactionRequest represents the request payload for updating a
// transaction. Omitted fields are left unchanged.
type UpdateTransactionRequest struct {
	AccountID     *string                   `json:"account_id" binding:"omitempty,uuid"`
	CategoryID    *string                   `json:"category_id" binding:"omitempty,uuid"`
	ClearCategory bool                      `json:"clear_category"`
	Amount        *decimal.Decimal          `json:"amount" binding:"omitempty,decimal_positive" swaggertype:"string" example:"150.00"`
	Description   *string                   `json:"description" binding:"omitempty,max=500"`
	Date          *string                   `json:"date" example:"2024-03-15"`
	Status        *models.TransactionStatus `json:"status" binding:"omitempty,transaction_status"`
	TagIDs        *[]string                 `json:"tag_ids" binding:"omitempty,dive,uuid"`

	IsSalary          *bool `json:"is_salary"`
	SalaryInstallment *int  `json:"salary_installment" binding:"omitempty,min=0"`

	IsInvoicePayment *bool   `json:"is_invoice_payment"`
	SourceCardID     *string `json:"source_card_id" binding:"omitempty,uuid"`
}

// CreateTransaction handles the creation of a new transaction
// @Summary     Create a transaction
// @Description Record an income or expense. Confirmed transactions immediately move the account balance, the card limit for invoice payments, and the monthly budget.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account or card not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	input := services.CreateTransactionInput{
		AccountID:         req.AccountID,
		CategoryID:        req.CategoryID,
		Kind:              req.Kind,
		Amount:            req.Amount,
		Description:       req.Description,
		Status:            req.Status,
		TagIDs:            req.TagIDs,
		IsSalary:          req.IsSalary,
		SalaryInstallment: req.SalaryInstallment,
		IsInvoicePayment:  req.IsInvoicePayment,
		SourceCardID:      req.SourceCardID,
	}
	if req.Date != nil && *req.Date != "" {
		parsed, parseErr := parseFlexibleTime(*req.Date)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, parseErr.Error()))
			return
		}
		input.Date = parsed
	}

	transaction, err := h.transactionService.Create(c.Request.Context(), userID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": transaction})
}

// ListTransactions handles the retrieval of the user's transactions
// @Summary     List transactions
// @Description Get a paginated list of active transactions with optional filters, newest first
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       page        query int    false "Page number (default 1)"
// @Param       page_size   query int    false "Items per page (default 20, max 100)"
// @Param       from_date   query string false "Filter by start date (RFC3339 or YYYY-MM-DD)"
// @Param       to_date     query string false "Filter by end date (RFC3339 or YYYY-MM-DD)"
// @Param       kind        query string false "Filter by kind (income, expense)"
// @Param       status      query string false "Filter by status (pending, confirmed, cancelled)"
// @Param       account_id  query string false "Filter by account ID"
// @Param       category_id query string false "Filter by category ID"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.List(c.Request.Context(), userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func parseTransactionFilter(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter

	if v := c.Query("from_date"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid from_date format, use RFC3339 or YYYY-MM-DD")
		}
		filter.FromDate = &t
	}

	if v := c.Query("to_date"); v != "" {
		// A bare date covers the whole day.
		if day, err := time.Parse(time.DateOnly, v); err == nil {
			next := day.AddDate(0, 0, 1)
			filter.Before = &next
		} else {
			t, err := parseFlexibleTime(v)
			if err != nil {
				return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid to_date format, use RFC3339 or YYYY-MM-DD")
			}
			filter.ToDate = &t
		}
	}

	if v := c.Query("kind"); v != "" {
		kind := models.TransactionKind(v)
		if !kind.Valid() {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid kind, must be income or expense")
		}
		filter.Kind = &kind
	}

	if v := c.Query("status"); v != "" {
		status := models.TransactionStatus(v)
		if !status.Valid() {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid status, must be pending, confirmed, or cancelled")
		}
		filter.Status = &status
	}

	if v := c.Query("account_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid account_id")
		}
		filter.AccountID = &id
	}

	if v := c.Query("category_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid category_id")
		}
		filter.CategoryID = &id
	}

	return filter, nil
}

// GetTransactionByID handles the retrieval of a specific transaction
// @Summary     Get transaction by ID
// @Description Get an active transaction with its tags and category
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction details"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetByID(c.Request.Context(), userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// UpdateTransaction handles updating an existing transaction
// @Summary     Update transaction
// @Description Partially update a transaction. Status changes into or out of confirmed apply or reverse its effect; edits to a confirmed transaction reverse the old effect and apply the new one.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                   true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Fields to update"
// @Success     200 {object} models.Transaction "Updated transaction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	patch := services.TransactionPatch{
		AccountID:         req.AccountID,
		CategoryID:        req.CategoryID,
		ClearCategory:     req.ClearCategory,
		Amount:            req.Amount,
		Description:       req.Description,
		Status:            req.Status,
		IsSalary:          req.IsSalary,
		SalaryInstallment: req.SalaryInstallment,
		IsInvoicePayment:  req.IsInvoicePayment,
		SourceCardID:      req.SourceCardID,
	}
	if req.TagIDs != nil {
		patch.TagIDs = *req.TagIDs
		if patch.TagIDs == nil {
			patch.TagIDs = []string{}
		}
	}
	if req.Date != nil {
		parsed, parseErr := parseFlexibleTime(*req.Date)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, parseErr.Error()))
			return
		}
		patch.Date = &parsed
	}

	transaction, err := h.transactionService.Update(c.Request.Context(), userID, transactionID, patch)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// DeleteTransaction handles soft-deleting a transaction
// @Summary     Delete transaction
// @Description Soft-delete a transaction, reversing its effect if it was confirmed
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} MessageResponse "Transaction deleted"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.Delete(c.Request.Context(), userID, transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Transaction deleted successfully"})
}
