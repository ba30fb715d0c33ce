package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "finledger/internal/errors"
	"finledger/internal/models"
)

// categoryService manages the per-user category and tag catalog that
// transactions reference.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// CreateCategory creates a new category. Names are unique per user and type.
func (s *categoryService) CreateCategory(ctx context.Context, userID, name string, categoryType models.CategoryType, color string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if categoryType != models.CategoryTypeIncome && categoryType != models.CategoryTypeExpense {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category type must be income or expense")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Category{}).
		Where("user_id = ? AND type = ? AND LOWER(name) = LOWER(?)", userID, categoryType, name).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateCategory
	}

	category := &models.Category{
		UserID: userID,
		Name:   name,
		Type:   categoryType,
		Color:  color,
	}
	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// ListCategories returns the user's categories ordered by name, optionally
// restricted to one type.
func (s *categoryService) ListCategories(ctx context.Context, userID string, categoryType *models.CategoryType) ([]models.Category, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if categoryType != nil {
		q = q.Where("type = ?", *categoryType)
	}

	var categories []models.Category
	if err := q.Order("name ASC").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

// GetCategoryByID retrieves a category by ID for a specific user.
func (s *categoryService) GetCategoryByID(ctx context.Context, userID, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// CreateTag creates a tag. Names are unique per user, ignoring case.
func (s *categoryService) CreateTag(ctx context.Context, userID, name, color string) (*models.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "tag name is required")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Tag{}).
		Where("user_id = ? AND LOWER(name) = LOWER(?)", userID, name).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateTag
	}

	tag := &models.Tag{UserID: userID, Name: name, Color: color}
	if err := s.db.WithContext(ctx).Create(tag).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return tag, nil
}

// ListTags returns the user's tags ordered by name.
func (s *categoryService) ListTags(ctx context.Context, userID string) ([]models.Tag, error) {
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("name ASC").Find(&tags).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return tags, nil
}
