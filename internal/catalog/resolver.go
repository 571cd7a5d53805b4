package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/crateful-app/crateful-backend/pkg/db/models"
	"github.com/crateful-app/crateful-backend/pkg/enums"
	"github.com/crateful-app/crateful-backend/pkg/errors"
)

// Product is the canonical purchasable view every schema generation maps into.
type Product struct {
	ID          uuid.UUID
	CreatorID   uuid.UUID
	Title       string
	PriceCents  int64
	Currency    string
	Purchasable bool
}

// adapter maps one storage shape into the canonical product view. Returning
// (nil, nil) means the shape has no row for the id and the next adapter runs.
type adapter struct {
	name    string
	resolve func(ctx context.Context, id uuid.UUID) (*Product, error)
}

// Resolver finds a product across the current and legacy schemas. Adapters are
// tried in declaration order; the first hit wins.
type Resolver struct {
	adapters []adapter
}

// NewResolver builds the resolver with the product_boxes adapter first and the
// legacy bundles adapter behind it.
func NewResolver(repo Repository) (*Resolver, error) {
	if repo == nil {
		return nil, errors.New(errors.CodeInternal, "catalog repository is required")
	}
	return &Resolver{
		adapters: []adapter{
			{
				name: "product_boxes",
				resolve: func(ctx context.Context, id uuid.UUID) (*Product, error) {
					box, err := repo.FindProductBox(ctx, id)
					if err != nil {
						return nil, err
					}
					if box == nil {
						return nil, nil
					}
					return productFromBox(box), nil
				},
			},
			{
				name: "bundles",
				resolve: func(ctx context.Context, id uuid.UUID) (*Product, error) {
					bundle, err := repo.FindBundle(ctx, id)
					if err != nil {
						return nil, err
					}
					if bundle == nil {
						return nil, nil
					}
					return productFromBundle(bundle), nil
				},
			},
		},
	}, nil
}

// Resolve returns the canonical product for the id or NOT_FOUND when no
// schema generation knows it.
func (r *Resolver) Resolve(ctx context.Context, id uuid.UUID) (*Product, error) {
	for _, a := range r.adapters {
		product, err := a.resolve(ctx, id)
		if err != nil {
			return nil, errors.Wrap(errors.CodeDependency, err, fmt.Sprintf("resolving product via %s", a.name))
		}
		if product != nil {
			return product, nil
		}
	}
	return nil, errors.New(errors.CodeNotFound, "product not found")
}

func productFromBox(box *models.ProductBox) *Product {
	return &Product{
		ID:          box.ID,
		CreatorID:   box.CreatorID,
		Title:       box.Title,
		PriceCents:  box.PriceCents,
		Currency:    box.Currency,
		Purchasable: box.Status == enums.ProductBoxStatusActive,
	}
}

func productFromBundle(bundle *models.Bundle) *Product {
	return &Product{
		ID:          bundle.ID,
		CreatorID:   bundle.OwnerID,
		Title:       bundle.Name,
		PriceCents:  bundle.AmountCents,
		Currency:    bundle.Currency,
		Purchasable: bundle.Active,
	}
}
