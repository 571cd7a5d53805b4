package creators

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crateful-app/crateful-backend/pkg/db/models"
)

// Repository handles creator persistence.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Creator, error)
	Create(ctx context.Context, creator *models.Creator) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a creator repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Creator, error) {
	var creator models.Creator
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&creator).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &creator, nil
}

func (r *repository) Create(ctx context.Context, creator *models.Creator) error {
	return r.db.WithContext(ctx).Create(creator).Error
}
