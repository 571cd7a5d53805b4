package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crateful-app/crateful-backend/pkg/db/models"
)

// Repository reads the purchasable-content tables across schema generations.
type Repository interface {
	FindProductBox(ctx context.Context, id uuid.UUID) (*models.ProductBox, error)
	FindBundle(ctx context.Context, id uuid.UUID) (*models.Bundle, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindProductBox(ctx context.Context, id uuid.UUID) (*models.ProductBox, error) {
	var box models.ProductBox
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&box).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &box, nil
}

func (r *repository) FindBundle(ctx context.Context, id uuid.UUID) (*models.Bundle, error) {
	var bundle models.Bundle
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&bundle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bundle, nil
}
