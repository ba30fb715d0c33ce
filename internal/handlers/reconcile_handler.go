package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"finledger/internal/jobs"
	"finledger/internal/services"
)

// ReconcileRunner runs a full reconciliation pass.
type ReconcileRunner interface {
	RunOnce(ctx context.Context, now time.Time) (*jobs.RunResult, error)
}

// ReconcileHandler exposes the balance repair path.
type ReconcileHandler struct {
	balanceService services.BalanceServicer
	runner         ReconcileRunner
}

// NewReconcileHandler creates a new ReconcileHandler.
func NewReconcileHandler(balanceService services.BalanceServicer, runner ReconcileRunner) *ReconcileHandler {
	return &ReconcileHandler{balanceService: balanceService, runner: runner}
}

// OwnerFailure reports one owner that could not be reconciled.
type OwnerFailure struct {
	UserID string `json:"user_id"`
	Error  string `json:"error"`
}

// ReconcileRunResponse summarizes a reconciliation pass.
type ReconcileRunResponse struct {
	Owners     int            `json:"owners"`
	Periods    int            `json:"periods"`
	Accounts   int            `json:"accounts"`
	Failures   []OwnerFailure `json:"failures"`
	DurationMs int64          `json:"duration_ms"`
}

// ReconcileAccount recomputes an account balance from its transactions
// @Summary     Reconcile account balance
// @Description Rebuild the stored balance from the opening balance and confirmed, active transactions
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Account ID"
// @Success     200 {object} models.Account "Reconciled account"
// @Failure     400 {object} ErrorResponse "Invalid account ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /accounts/{id}/reconcile [post]
func (h *ReconcileHandler) ReconcileAccount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	account, err := h.balanceService.ReconcileAccount(c.Request.Context(), userID, accountID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": account})
}

// RunReconciliation runs a reconciliation pass over every owner
// @Summary     Run reconciliation
// @Description Reconcile the current and previous budget periods and every account balance of all owners
// @Tags        ops
// @Produce     json
// @Security    ApiKeyAuth
// @Success     200 {object} ReconcileRunResponse "Pass summary"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     503 {object} ErrorResponse "Ops endpoints not configured"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /ops/reconcile [post]
func (h *ReconcileHandler) RunReconciliation(c *gin.Context) {
	result, err := h.runner.RunOnce(c.Request.Context(), time.Now().UTC())
	if err != nil {
		respondWithError(c, err)
		return
	}

	resp := ReconcileRunResponse{
		Owners:     result.Owners,
		Periods:    result.Periods,
		Accounts:   result.Accounts,
		Failures:   make([]OwnerFailure, 0, len(result.Errors)),
		DurationMs: result.Duration.Milliseconds(),
	}
	for _, e := range result.Errors {
		resp.Failures = append(resp.Failures, OwnerFailure{UserID: e.UserID, Error: e.Err.Error()})
	}

	c.JSON(http.StatusOK, resp)
}
