package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"finledger/internal/models"
	"finledger/internal/pagination"
)

// BalanceDirection says whether an amount is added to (credit) or removed
// from (debit) an account balance.
type BalanceDirection string

const (
	BalanceCredit BalanceDirection = "credit"
	BalanceDebit  BalanceDirection = "debit"
)

// BalanceServicer mutates and repairs cached account balances.
type BalanceServicer interface {
	// Adjust applies amount to the stored balance as a plain read-modify-write.
	// A missing account performs no write and returns ErrAccountNotFound.
	Adjust(ctx context.Context, accountID string, amount decimal.Decimal, direction BalanceDirection) error
	ReconcileAccount(ctx context.Context, userID, accountID string) (*models.Account, error)
	ReconcileOwnerAccounts(ctx context.Context, userID string) ([]models.Account, error)
	ListOwners(ctx context.Context) ([]string, error)
}

// CreditLimitServicer applies the two-sided effect of a credit card invoice payment.
type CreditLimitServicer interface {
	ApplyInvoicePayment(ctx context.Context, fundingAccountID, cardAccountID string, amount decimal.Decimal) []EffectResult
	ReverseInvoicePayment(ctx context.Context, fundingAccountID, cardAccountID string, amount decimal.Decimal) []EffectResult
}

// BudgetDirection says whether ApplyDelta adds to or subtracts from a total.
type BudgetDirection string

const (
	BudgetAdd      BudgetDirection = "add"
	BudgetSubtract BudgetDirection = "subtract"
)

// BudgetServicer maintains the monthly budget rollup.
type BudgetServicer interface {
	FindOrCreatePeriod(ctx context.Context, userID string, month, year int) (*models.BudgetPeriod, error)
	ApplyDelta(ctx context.Context, userID string, date time.Time, amount decimal.Decimal, kind models.TransactionKind, direction BudgetDirection) error
	Reconcile(ctx context.Context, userID string, month, year int) (*models.BudgetPeriod, error)
	UpdateSavingsGoal(ctx context.Context, userID string, month, year int, goal decimal.Decimal) (*models.BudgetPeriod, error)
	ListPeriods(ctx context.Context, userID string, year int) ([]models.BudgetPeriod, error)
}

// CreateAccountInput is the payload for opening an account. CreditLimit,
// ClosingDay and DueDay only apply to credit card accounts.
type CreateAccountInput struct {
	Name           string
	Type           models.AccountType
	Currency       string
	OpeningBalance decimal.Decimal
	CreditLimit    decimal.Decimal
	ClosingDay     int
	DueDay         int
}

// AccountUpdateFields holds optional fields for updating an account.
type AccountUpdateFields struct {
	Name        *string
	IsActive    *bool
	CreditLimit *decimal.Decimal
}

// AccountServicer sets up the accounts transactions are booked against.
type AccountServicer interface {
	CreateAccount(ctx context.Context, userID string, input CreateAccountInput) (*models.Account, error)
	GetUserAccounts(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	GetAccountByID(ctx context.Context, userID, accountID string) (*models.Account, error)
	UpdateAccount(ctx context.Context, userID, accountID string, fields AccountUpdateFields) (*models.Account, error)
}

// CategoryServicer manages the category and tag catalog.
type CategoryServicer interface {
	CreateCategory(ctx context.Context, userID, name string, categoryType models.CategoryType, color string) (*models.Category, error)
	ListCategories(ctx context.Context, userID string, categoryType *models.CategoryType) ([]models.Category, error)
	GetCategoryByID(ctx context.Context, userID, categoryID string) (*models.Category, error)
	CreateTag(ctx context.Context, userID, name, color string) (*models.Tag, error)
	ListTags(ctx context.Context, userID string) ([]models.Tag, error)
}

// CreateTransactionInput is a validated create payload. An empty Status
// defaults to confirmed and a zero Date defaults to now.
type CreateTransactionInput struct {
	AccountID   string
	CategoryID  *string
	Kind        models.TransactionKind
	Amount      decimal.Decimal
	Description string
	Date        time.Time
	Status      models.TransactionStatus
	TagIDs      []string

	// Income only
	IsSalary          bool
	SalaryInstallment int

	// Expense only
	IsInvoicePayment bool
	SourceCardID     *string
}

// TransactionPatch holds the fields to change on update; nil means unchanged.
// A non-nil TagIDs replaces the tag set (an empty slice clears it).
type TransactionPatch struct {
	AccountID     *string
	CategoryID    *string
	ClearCategory bool
	Amount        *decimal.Decimal
	Description   *string
	Date          *time.Time
	Status        *models.TransactionStatus
	TagIDs        []string

	IsSalary          *bool
	SalaryInstallment *int

	IsInvoicePayment *bool
	SourceCardID     *string
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate *time.Time
	// ToDate is inclusive; Before is exclusive and is what a whole-day
	// upper bound turns into.
	ToDate     *time.Time
	Before     *time.Time
	Kind       *models.TransactionKind
	Status     *models.TransactionStatus
	AccountID  *string
	CategoryID *string
}

// TransactionServicer owns the create/update/delete lifecycle of income and
// expense transactions and keeps balances and budget periods in step.
type TransactionServicer interface {
	Create(ctx context.Context, userID string, input CreateTransactionInput) (*models.Transaction, error)
	Update(ctx context.Context, userID, transactionID string, patch TransactionPatch) (*models.Transaction, error)
	Delete(ctx context.Context, userID, transactionID string) error
	GetByID(ctx context.Context, userID, transactionID string) (*models.Transaction, error)
	List(ctx context.Context, userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
}

// CategoryTotal is the confirmed amount booked to one category in a month.
type CategoryTotal struct {
	CategoryID   *string                `json:"category_id,omitempty"`
	CategoryName string                 `json:"category_name"`
	Kind         models.TransactionKind `json:"kind"`
	Total        decimal.Decimal        `json:"total"`
	Count        int                    `json:"count"`
}

// MonthlySummary aggregates a user's active transactions for one month.
type MonthlySummary struct {
	UserID           string          `json:"user_id"`
	Month            int             `json:"month"`
	Year             int             `json:"year"`
	ConfirmedIncome  decimal.Decimal `json:"confirmed_income"`
	ConfirmedExpense decimal.Decimal `json:"confirmed_expense"`
	PendingIncome    decimal.Decimal `json:"pending_income"`
	PendingExpense   decimal.Decimal `json:"pending_expense"`
	NetBalance       decimal.Decimal `json:"net_balance"`
	TransactionCount int             `json:"transaction_count"`
	ByCategory       []CategoryTotal `json:"by_category"`
}

// SummaryServicer answers read-only monthly summary queries.
type SummaryServicer interface {
	GetMonthlySummary(ctx context.Context, userID string, month, year int) (*MonthlySummary, error)
}

// UserServicer keeps a users row for every identity that reaches the API.
// Identities are issued elsewhere; the row only anchors ownership.
type UserServicer interface {
	EnsureUser(ctx context.Context, userID, email string) error
}
