package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "finledger/internal/errors"
	"finledger/internal/models"
	"finledger/internal/services"
)

func setupBudgetRouter(handler *BudgetHandler) *gin.Engine {
	r := gin.New()
	r.Use(injectUserID(testUserID))
	r.GET("/budget-periods/:year", handler.ListBudgetPeriods)
	r.GET("/budget-periods/:year/:month", handler.GetBudgetPeriod)
	r.POST("/budget-periods/:year/:month/reconcile", handler.ReconcileBudgetPeriod)
	r.PUT("/budget-periods/:year/:month/savings-goal", handler.UpdateSavingsGoal)
	r.GET("/summaries/:year/:month", handler.GetMonthlySummary)
	return r
}

func TestBudgetHandler_GetBudgetPeriod(t *testing.T) {
	t.Run("returns the period of the requested month", func(t *testing.T) {
		budgets := &mockBudgetService{
			findOrCreateFn: func(userID string, month, year int) (*models.BudgetPeriod, error) {
				return &models.BudgetPeriod{
					UserID:       userID,
					Month:        month,
					Year:         year,
					TotalIncome:  decimal.NewFromInt(3000),
					TotalExpense: decimal.NewFromInt(1200),
					NetBalance:   decimal.NewFromInt(1800),
				}, nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(budgets, &mockSummaryService{}))

		rec := doRequest(r, "GET", "/budget-periods/2024/3", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		period := parseJSON(t, rec)["budget_period"].(map[string]interface{})
		if period["month"].(float64) != 3 || period["year"].(float64) != 2024 {
			t.Errorf("unexpected period key: %v", period)
		}
		if period["net_balance"] != "1800" {
			t.Errorf("expected net_balance 1800, got %v", period["net_balance"])
		}
	})

	t.Run("returns 400 on month out of range", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockSummaryService{}))

		rec := doRequest(r, "GET", "/budget-periods/2024/13", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_PERIOD")
	})
}

func TestBudgetHandler_ListBudgetPeriods(t *testing.T) {
	budgets := &mockBudgetService{
		listFn: func(_ string, year int) ([]models.BudgetPeriod, error) {
			return []models.BudgetPeriod{{Month: 1, Year: year}, {Month: 2, Year: year}}, nil
		},
	}
	r := setupBudgetRouter(NewBudgetHandler(budgets, &mockSummaryService{}))

	rec := doRequest(r, "GET", "/budget-periods/2024", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	periods := parseJSON(t, rec)["budget_periods"].([]interface{})
	if len(periods) != 2 {
		t.Errorf("expected 2 periods, got %d", len(periods))
	}
}

func TestBudgetHandler_ReconcileBudgetPeriod(t *testing.T) {
	called := false
	budgets := &mockBudgetService{
		reconcileFn: func(userID string, month, year int) (*models.BudgetPeriod, error) {
			called = true
			if userID != testUserID || month != 2 || year != 2024 {
				t.Errorf("unexpected reconcile args %s %d %d", userID, month, year)
			}
			return &models.BudgetPeriod{Month: month, Year: year}, nil
		},
	}
	r := setupBudgetRouter(NewBudgetHandler(budgets, &mockSummaryService{}))

	rec := doRequest(r, "POST", "/budget-periods/2024/2/reconcile", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !called {
		t.Error("expected Reconcile to be called")
	}
}

func TestBudgetHandler_UpdateSavingsGoal(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		var got decimal.Decimal
		budgets := &mockBudgetService{
			savingsGoalFn: func(_ string, month, year int, goal decimal.Decimal) (*models.BudgetPeriod, error) {
				got = goal
				return &models.BudgetPeriod{Month: month, Year: year, SavingsGoal: goal}, nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(budgets, &mockSummaryService{}))

		rec := doRequest(r, "PUT", "/budget-periods/2024/3/savings-goal", `{"savings_goal":"500.00"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !got.Equal(decimal.NewFromInt(500)) {
			t.Errorf("expected goal 500, got %s", got)
		}
	})

	t.Run("returns 400 on negative goal", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockSummaryService{}))

		rec := doRequest(r, "PUT", "/budget-periods/2024/3/savings-goal", `{"savings_goal":"-1"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestBudgetHandler_GetMonthlySummary(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		summaries := &mockSummaryService{
			getFn: func(userID string, month, year int) (*services.MonthlySummary, error) {
				return &services.MonthlySummary{
					UserID:           userID,
					Month:            month,
					Year:             year,
					ConfirmedIncome:  decimal.NewFromInt(100),
					TransactionCount: 1,
					ByCategory:       []services.CategoryTotal{},
				}, nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, summaries))

		rec := doRequest(r, "GET", "/summaries/2024/3", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		summary := parseJSON(t, rec)["summary"].(map[string]interface{})
		if summary["transaction_count"].(float64) != 1 {
			t.Errorf("expected 1 transaction, got %v", summary["transaction_count"])
		}
	})

	t.Run("propagates service errors", func(t *testing.T) {
		summaries := &mockSummaryService{
			getFn: func(_ string, _, _ int) (*services.MonthlySummary, error) {
				return nil, apperrors.ErrInternalServer
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, summaries))

		rec := doRequest(r, "GET", "/summaries/2024/3", "")

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	})
}
