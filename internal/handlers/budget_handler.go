package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "finledger/internal/errors"
	"finledger/internal/services"
)

// BudgetHandler serves monthly budget periods and summaries.
type BudgetHandler struct {
	budgetService  services.BudgetServicer
	summaryService services.SummaryServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, summaryService services.SummaryServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, summaryService: summaryService}
}

// UpdateSavingsGoalRequest represents the request payload for setting a savings goal.
type UpdateSavingsGoalRequest struct {
	SavingsGoal decimal.Decimal `json:"savings_goal" binding:"decimal_nonnegative" swaggertype:"string" example:"500.00"`
}

// GetBudgetPeriod returns the budget period of a month, creating it if needed
// @Summary     Get budget period
// @Description Get the income, expense and net totals of a month. A zeroed period is created on first access.
// @Tags        budget-periods
// @Produce     json
// @Security    BearerAuth
// @Param       year  path int true "Year"
// @Param       month path int true "Month (1-12)"
// @Success     200 {object} models.BudgetPeriod "Budget period"
// @Failure     400 {object} ErrorResponse "Invalid period"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget-periods/{year}/{month} [get]
func (h *BudgetHandler) GetBudgetPeriod(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	month, year, err := parsePeriod(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	period, err := h.budgetService.FindOrCreatePeriod(c.Request.Context(), userID, month, year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget_period": period})
}

// ListBudgetPeriods returns the existing budget periods of a year
// @Summary     List budget periods
// @Description List the budget periods of a year, ordered by month
// @Tags        budget-periods
// @Produce     json
// @Security    BearerAuth
// @Param       year path int true "Year"
// @Success     200 {array}  models.BudgetPeriod "Budget periods"
// @Failure     400 {object} ErrorResponse "Invalid period"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget-periods/{year} [get]
func (h *BudgetHandler) ListBudgetPeriods(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		respondWithError(c, apperrors.ErrInvalidPeriod)
		return
	}

	periods, err := h.budgetService.ListPeriods(c.Request.Context(), userID, year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget_periods": periods})
}

// ReconcileBudgetPeriod recomputes a month's totals from its transactions
// @Summary     Reconcile budget period
// @Description Rebuild the period totals from confirmed, active transactions dated in the month
// @Tags        budget-periods
// @Produce     json
// @Security    BearerAuth
// @Param       year  path int true "Year"
// @Param       month path int true "Month (1-12)"
// @Success     200 {object} models.BudgetPeriod "Reconciled budget period"
// @Failure     400 {object} ErrorResponse "Invalid period"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget-periods/{year}/{month}/reconcile [post]
func (h *BudgetHandler) ReconcileBudgetPeriod(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	month, year, err := parsePeriod(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	period, err := h.budgetService.Reconcile(c.Request.Context(), userID, month, year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget_period": period})
}

// UpdateSavingsGoal sets the savings goal of a month
// @Summary     Update savings goal
// @Description Set the savings goal of a budget period
// @Tags        budget-periods
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       year    path int                      true "Year"
// @Param       month   path int                      true "Month (1-12)"
// @Param       request body UpdateSavingsGoalRequest true "Savings goal"
// @Success     200 {object} models.BudgetPeriod "Updated budget period"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget-periods/{year}/{month}/savings-goal [put]
func (h *BudgetHandler) UpdateSavingsGoal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	month, year, err := parsePeriod(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateSavingsGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	period, err := h.budgetService.UpdateSavingsGoal(c.Request.Context(), userID, month, year, req.SavingsGoal)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget_period": period})
}

// GetMonthlySummary returns confirmed and pending totals of a month
// @Summary     Get monthly summary
// @Description Aggregate a month's non-cancelled transactions, with confirmed totals per category
// @Tags        summaries
// @Produce     json
// @Security    BearerAuth
// @Param       year  path int true "Year"
// @Param       month path int true "Month (1-12)"
// @Success     200 {object} services.MonthlySummary "Monthly summary"
// @Failure     400 {object} ErrorResponse "Invalid period"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /summaries/{year}/{month} [get]
func (h *BudgetHandler) GetMonthlySummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	month, year, err := parsePeriod(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.summaryService.GetMonthlySummary(c.Request.Context(), userID, month, year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}
