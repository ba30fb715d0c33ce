package services

import (
	"context"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "finledger/internal/errors"
	"finledger/internal/models"
)

// userService provisions owner rows. known remembers ids already stored by
// this process so steady-state requests skip the insert.
type userService struct {
	db    *gorm.DB
	known sync.Map
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB) UserServicer {
	return &userService{db: db}
}

// EnsureUser inserts the owner row if it does not exist yet. An existing row
// is left untouched.
func (s *userService) EnsureUser(ctx context.Context, userID, email string) error {
	if _, ok := s.known.Load(userID); ok {
		return nil
	}

	user := models.User{Base: models.Base{ID: userID}, Email: email, IsActive: true}
	if err := s.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&user).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.known.Store(userID, struct{}{})
	return nil
}
