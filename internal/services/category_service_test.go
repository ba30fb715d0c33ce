package services

import (
	"context"
	"testing"

	"finledger/internal/models"
	"finledger/internal/testutil"
	"finledger/internal/uuid"
)

func TestCreateCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)

		cat, err := svc.CreateCategory(ctx, user.ID, "Groceries", models.CategoryTypeExpense, "#FF0000")
		testutil.AssertNoError(t, err)

		if cat.ID == "" {
			t.Fatal("expected a category ID")
		}
		if cat.Type != models.CategoryTypeExpense {
			t.Errorf("expected type expense, got %s", cat.Type)
		}
	})

	t.Run("duplicate_name_ignores_case", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateCategory(ctx, user.ID, "Food", models.CategoryTypeExpense, "")
		testutil.AssertNoError(t, err)

		_, err = svc.CreateCategory(ctx, user.ID, "food", models.CategoryTypeExpense, "")
		testutil.AssertAppError(t, err, "DUPLICATE_CATEGORY")
	})

	t.Run("same_name_allowed_across_types_and_users", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)

		_, err := svc.CreateCategory(ctx, user.ID, "Other", models.CategoryTypeExpense, "")
		testutil.AssertNoError(t, err)
		_, err = svc.CreateCategory(ctx, user.ID, "Other", models.CategoryTypeIncome, "")
		testutil.AssertNoError(t, err)
		_, err = svc.CreateCategory(ctx, other.ID, "Other", models.CategoryTypeExpense, "")
		testutil.AssertNoError(t, err)
	})

	t.Run("rejects_unknown_type", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateCategory(ctx, user.ID, "Stocks", "investment", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestListCategories(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewCategoryService(db)
	user := testutil.CreateTestUser(t, db)

	for _, name := range []string{"Rent", "Food"} {
		_, err := svc.CreateCategory(ctx, user.ID, name, models.CategoryTypeExpense, "")
		testutil.AssertNoError(t, err)
	}
	_, err := svc.CreateCategory(ctx, user.ID, "Salary", models.CategoryTypeIncome, "")
	testutil.AssertNoError(t, err)

	all, err := svc.ListCategories(ctx, user.ID, nil)
	testutil.AssertNoError(t, err)
	if len(all) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(all))
	}

	expenseType := models.CategoryTypeExpense
	expenses, err := svc.ListCategories(ctx, user.ID, &expenseType)
	testutil.AssertNoError(t, err)
	if len(expenses) != 2 || expenses[0].Name != "Food" {
		t.Errorf("expected [Food Rent], got %v", expenses)
	}

	_, err = svc.GetCategoryByID(ctx, user.ID, uuid.New())
	testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
}

func TestTags(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewCategoryService(db)
	user := testutil.CreateTestUser(t, db)

	_, err := svc.CreateTag(ctx, user.ID, "travel", "#00FF00")
	testutil.AssertNoError(t, err)
	_, err = svc.CreateTag(ctx, user.ID, "Travel", "")
	testutil.AssertAppError(t, err, "DUPLICATE_TAG")
	_, err = svc.CreateTag(ctx, user.ID, "", "")
	testutil.AssertAppError(t, err, "INVALID_INPUT")

	tags, err := svc.ListTags(ctx, user.ID)
	testutil.AssertNoError(t, err)
	if len(tags) != 1 || tags[0].Name != "travel" {
		t.Errorf("expected [travel], got %v", tags)
	}
}
