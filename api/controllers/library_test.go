package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/crateful-app/crateful-backend/api/middleware"
	"github.com/crateful-app/crateful-backend/pkg/db/models"
	"github.com/crateful-app/crateful-backend/pkg/pagination"
)

type fakeLibraryService struct {
	items    []models.BuyerLibraryItem
	next     *pagination.Cursor
	entitled bool

	gotParams pagination.Params
}

func (f *fakeLibraryService) Library(_ context.Context, _ uuid.UUID, params pagination.Params) ([]models.BuyerLibraryItem, *pagination.Cursor, error) {
	f.gotParams = params
	return f.items, f.next, nil
}

func (f *fakeLibraryService) HasActive(_ context.Context, _, _ uuid.UUID) (bool, error) {
	return f.entitled, nil
}

func TestLibraryListReturnsItemsAndCursor(t *testing.T) {
	now := time.Now().UTC()
	svc := &fakeLibraryService{
		items: []models.BuyerLibraryItem{
			{
				ID:           uuid.New(),
				ProductID:    uuid.New(),
				CreatorID:    uuid.New(),
				ProductTitle: "Vinyl Break Crate",
				GrantedAt:    now,
			},
		},
		next: &pagination.Cursor{CreatedAt: now, ID: uuid.New()},
	}

	req := authedRequest(http.MethodGet, "/api/v1/library?limit=10", "", uuid.New())
	rec := httptest.NewRecorder()
	LibraryList(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, 10, svc.gotParams.Limit)

	var envelope struct {
		Data libraryResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Items, 1)
	require.Equal(t, "Vinyl Break Crate", envelope.Data.Items[0].ProductTitle)
	require.NotNil(t, envelope.Data.NextCursor)
}

func TestLibraryListRequiresAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/library", nil)
	rec := httptest.NewRecorder()
	LibraryList(&fakeLibraryService{}, nil).ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLibraryAccessCheckReportsOwnership(t *testing.T) {
	svc := &fakeLibraryService{entitled: true}
	productID := uuid.New()

	router := chi.NewRouter()
	router.Get("/library/{productId}/access", LibraryAccessCheck(svc, nil))

	req := httptest.NewRequest(http.MethodGet, "/library/"+productID.String()+"/access", nil)
	ctx := middleware.WithUserID(req.Context(), uuid.NewString())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req.WithContext(ctx))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var envelope struct {
		Data map[string]bool `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.True(t, envelope.Data["entitled"])
}

func TestLibraryAccessCheckRejectsBadProductID(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/library/{productId}/access", LibraryAccessCheck(&fakeLibraryService{}, nil))

	req := httptest.NewRequest(http.MethodGet, "/library/not-a-uuid/access", nil)
	ctx := middleware.WithUserID(req.Context(), uuid.NewString())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req.WithContext(ctx))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
