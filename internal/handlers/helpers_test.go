package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"finledger/internal/jobs"
	"finledger/internal/models"
	"finledger/internal/pagination"
	"finledger/internal/services"
	"finledger/internal/validator"
)

const (
	testUserID    = "0190a6b2-4c1e-7a00-8000-000000000001"
	testAccountID = "0190a6b2-4c1e-7a00-8000-0000000000a1"
	testTxID      = "0190a6b2-4c1e-7a00-8000-0000000000f1"
)

// --- mock services ---

type mockTransactionService struct {
	createFn  func(userID string, input services.CreateTransactionInput) (*models.Transaction, error)
	updateFn  func(userID, transactionID string, patch services.TransactionPatch) (*models.Transaction, error)
	deleteFn  func(userID, transactionID string) error
	getByIDFn func(userID, transactionID string) (*models.Transaction, error)
	listFn    func(userID string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
}

func (m *mockTransactionService) Create(_ context.Context, userID string, input services.CreateTransactionInput) (*models.Transaction, error) {
	if m.createFn != nil {
		return m.createFn(userID, input)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) Update(_ context.Context, userID, transactionID string, patch services.TransactionPatch) (*models.Transaction, error) {
	if m.updateFn != nil {
		return m.updateFn(userID, transactionID, patch)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) Delete(_ context.Context, userID, transactionID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(userID, transactionID)
	}
	return nil
}

func (m *mockTransactionService) GetByID(_ context.Context, userID, transactionID string) (*models.Transaction, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(userID, transactionID)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) List(_ context.Context, userID string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if m.listFn != nil {
		return m.listFn(userID, page, filter)
	}
	resp := pagination.NewPageResponse[models.Transaction](nil, 1, 20, 0)
	return &resp, nil
}

var _ services.TransactionServicer = (*mockTransactionService)(nil)

type mockBudgetService struct {
	findOrCreateFn func(userID string, month, year int) (*models.BudgetPeriod, error)
	reconcileFn    func(userID string, month, year int) (*models.BudgetPeriod, error)
	savingsGoalFn  func(userID string, month, year int, goal decimal.Decimal) (*models.BudgetPeriod, error)
	listFn         func(userID string, year int) ([]models.BudgetPeriod, error)
}

func (m *mockBudgetService) FindOrCreatePeriod(_ context.Context, userID string, month, year int) (*models.BudgetPeriod, error) {
	if m.findOrCreateFn != nil {
		return m.findOrCreateFn(userID, month, year)
	}
	return &models.BudgetPeriod{UserID: userID, Month: month, Year: year}, nil
}

func (m *mockBudgetService) ApplyDelta(_ context.Context, _ string, _ time.Time, _ decimal.Decimal, _ models.TransactionKind, _ services.BudgetDirection) error {
	return nil
}

func (m *mockBudgetService) Reconcile(_ context.Context, userID string, month, year int) (*models.BudgetPeriod, error) {
	if m.reconcileFn != nil {
		return m.reconcileFn(userID, month, year)
	}
	return &models.BudgetPeriod{UserID: userID, Month: month, Year: year}, nil
}

func (m *mockBudgetService) UpdateSavingsGoal(_ context.Context, userID string, month, year int, goal decimal.Decimal) (*models.BudgetPeriod, error) {
	if m.savingsGoalFn != nil {
		return m.savingsGoalFn(userID, month, year, goal)
	}
	return &models.BudgetPeriod{UserID: userID, Month: month, Year: year, SavingsGoal: goal}, nil
}

func (m *mockBudgetService) ListPeriods(_ context.Context, userID string, year int) ([]models.BudgetPeriod, error) {
	if m.listFn != nil {
		return m.listFn(userID, year)
	}
	return []models.BudgetPeriod{}, nil
}

var _ services.BudgetServicer = (*mockBudgetService)(nil)

type mockSummaryService struct {
	getFn func(userID string, month, year int) (*services.MonthlySummary, error)
}

func (m *mockSummaryService) GetMonthlySummary(_ context.Context, userID string, month, year int) (*services.MonthlySummary, error) {
	if m.getFn != nil {
		return m.getFn(userID, month, year)
	}
	return &services.MonthlySummary{UserID: userID, Month: month, Year: year}, nil
}

type mockBalanceService struct {
	reconcileAccountFn func(userID, accountID string) (*models.Account, error)
}

func (m *mockBalanceService) Adjust(_ context.Context, _ string, _ decimal.Decimal, _ services.BalanceDirection) error {
	return nil
}

func (m *mockBalanceService) ReconcileAccount(_ context.Context, userID, accountID string) (*models.Account, error) {
	if m.reconcileAccountFn != nil {
		return m.reconcileAccountFn(userID, accountID)
	}
	return &models.Account{}, nil
}

func (m *mockBalanceService) ReconcileOwnerAccounts(_ context.Context, _ string) ([]models.Account, error) {
	return nil, nil
}

func (m *mockBalanceService) ListOwners(_ context.Context) ([]string, error) {
	return nil, nil
}

var _ services.BalanceServicer = (*mockBalanceService)(nil)

type mockAccountService struct {
	createFn func(userID string, input services.CreateAccountInput) (*models.Account, error)
	listFn   func(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	getFn    func(userID, accountID string) (*models.Account, error)
	updateFn func(userID, accountID string, fields services.AccountUpdateFields) (*models.Account, error)
}

func (m *mockAccountService) CreateAccount(_ context.Context, userID string, input services.CreateAccountInput) (*models.Account, error) {
	if m.createFn != nil {
		return m.createFn(userID, input)
	}
	return &models.Account{}, nil
}

func (m *mockAccountService) GetUserAccounts(_ context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	if m.listFn != nil {
		return m.listFn(userID, page)
	}
	resp := pagination.NewPageResponse[models.Account](nil, 1, 20, 0)
	return &resp, nil
}

func (m *mockAccountService) GetAccountByID(_ context.Context, userID, accountID string) (*models.Account, error) {
	if m.getFn != nil {
		return m.getFn(userID, accountID)
	}
	return &models.Account{}, nil
}

func (m *mockAccountService) UpdateAccount(_ context.Context, userID, accountID string, fields services.AccountUpdateFields) (*models.Account, error) {
	if m.updateFn != nil {
		return m.updateFn(userID, accountID, fields)
	}
	return &models.Account{}, nil
}

var _ services.AccountServicer = (*mockAccountService)(nil)

type mockCategoryService struct {
	createCategoryFn func(userID, name string, categoryType models.CategoryType, color string) (*models.Category, error)
	listCategoriesFn func(userID string, categoryType *models.CategoryType) ([]models.Category, error)
	getCategoryFn    func(userID, categoryID string) (*models.Category, error)
	createTagFn      func(userID, name, color string) (*models.Tag, error)
}

func (m *mockCategoryService) CreateCategory(_ context.Context, userID, name string, categoryType models.CategoryType, color string) (*models.Category, error) {
	if m.createCategoryFn != nil {
		return m.createCategoryFn(userID, name, categoryType, color)
	}
	return &models.Category{}, nil
}

func (m *mockCategoryService) ListCategories(_ context.Context, userID string, categoryType *models.CategoryType) ([]models.Category, error) {
	if m.listCategoriesFn != nil {
		return m.listCategoriesFn(userID, categoryType)
	}
	return []models.Category{}, nil
}

func (m *mockCategoryService) GetCategoryByID(_ context.Context, userID, categoryID string) (*models.Category, error) {
	if m.getCategoryFn != nil {
		return m.getCategoryFn(userID, categoryID)
	}
	return &models.Category{}, nil
}

func (m *mockCategoryService) CreateTag(_ context.Context, userID, name, color string) (*models.Tag, error) {
	if m.createTagFn != nil {
		return m.createTagFn(userID, name, color)
	}
	return &models.Tag{}, nil
}

func (m *mockCategoryService) ListTags(_ context.Context, _ string) ([]models.Tag, error) {
	return []models.Tag{}, nil
}

var _ services.CategoryServicer = (*mockCategoryService)(nil)

type mockRunner struct {
	runFn func(now time.Time) (*jobs.RunResult, error)
}

func (m *mockRunner) RunOnce(_ context.Context, now time.Time) (*jobs.RunResult, error) {
	if m.runFn != nil {
		return m.runFn(now)
	}
	return &jobs.RunResult{}, nil
}

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func injectUserID(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", uid)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}
