package controllers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/crateful-app/crateful-backend/api/responses"
	pkgerrors "github.com/crateful-app/crateful-backend/pkg/errors"
	"github.com/crateful-app/crateful-backend/pkg/db/models"
	"github.com/crateful-app/crateful-backend/pkg/logger"
	"github.com/crateful-app/crateful-backend/pkg/pagination"
)

// LibraryService is the surface the library controller depends on.
type LibraryService interface {
	Library(ctx context.Context, buyerID uuid.UUID, params pagination.Params) ([]models.BuyerLibraryItem, *pagination.Cursor, error)
	HasActive(ctx context.Context, buyerID, productID uuid.UUID) (bool, error)
}

// LibraryList returns the buyer's purchased products, newest first.
func LibraryList(svc LibraryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "library service unavailable"))
			return
		}

		buyerID, err := buyerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := pagination.Params{Cursor: r.URL.Query().Get("cursor")}
		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid limit"))
				return
			}
			params.Limit = limit
		}

		items, next, err := svc.Library(r.Context(), buyerID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newLibraryResponse(items, next))
	}
}

// LibraryAccessCheck reports whether the buyer currently owns the product.
// Content delivery services call this before serving downloads.
func LibraryAccessCheck(svc LibraryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "library service unavailable"))
			return
		}

		buyerID, err := buyerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		owned, err := svc.HasActive(r.Context(), buyerID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"entitled": owned})
	}
}

type libraryItemResponse struct {
	ProductID        uuid.UUID `json:"product_id"`
	CreatorID        uuid.UUID `json:"creator_id"`
	ProductTitle     string    `json:"product_title"`
	PaymentReference string    `json:"payment_reference"`
	GrantedAt        time.Time `json:"granted_at"`
}

type libraryResponse struct {
	Items      []libraryItemResponse `json:"items"`
	NextCursor *string               `json:"next_cursor,omitempty"`
}

func newLibraryResponse(items []models.BuyerLibraryItem, next *pagination.Cursor) libraryResponse {
	resp := libraryResponse{Items: make([]libraryItemResponse, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, libraryItemResponse{
			ProductID:        item.ProductID,
			CreatorID:        item.CreatorID,
			ProductTitle:     item.ProductTitle,
			PaymentReference: item.PaymentReference,
			GrantedAt:        item.GrantedAt,
		})
	}
	if next != nil {
		encoded := pagination.EncodeCursor(*next)
		resp.NextCursor = &encoded
	}
	return resp
}
