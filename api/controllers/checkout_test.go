package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/crateful-app/crateful-backend/api/middleware"
	checkoutsvc "github.com/crateful-app/crateful-backend/internal/checkout"
	"github.com/crateful-app/crateful-backend/pkg/db/models"
	pkgerrors "github.com/crateful-app/crateful-backend/pkg/errors"
)

type fakeCheckoutService struct {
	intent     *checkoutsvc.Intent
	intentErr  error
	confirmed  *models.Entitlement
	confirmErr error

	gotBuyerID   uuid.UUID
	gotProductID uuid.UUID
	gotSessionID string
}

func (f *fakeCheckoutService) CreateIntent(_ context.Context, buyerID, productID uuid.UUID) (*checkoutsvc.Intent, error) {
	f.gotBuyerID = buyerID
	f.gotProductID = productID
	if f.intentErr != nil {
		return nil, f.intentErr
	}
	return f.intent, nil
}

func (f *fakeCheckoutService) Confirm(_ context.Context, buyerID uuid.UUID, sessionID string) (*models.Entitlement, error) {
	f.gotBuyerID = buyerID
	f.gotSessionID = sessionID
	if f.confirmErr != nil {
		return nil, f.confirmErr
	}
	return f.confirmed, nil
}

func authedRequest(method, target, body string, buyerID uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	ctx := middleware.WithUserID(req.Context(), buyerID.String())
	ctx = middleware.WithRole(ctx, "buyer")
	return req.WithContext(ctx)
}

func TestCheckoutCreateReturnsIntent(t *testing.T) {
	buyerID := uuid.New()
	productID := uuid.New()
	svc := &fakeCheckoutService{
		intent: &checkoutsvc.Intent{
			SessionID:        uuid.New(),
			PaymentReference: "cs_test_1",
			PaymentURL:       "https://checkout.stripe.com/c/pay/cs_test_1",
			AmountCents:      1999,
			PlatformFeeCents: 499,
			Currency:         "usd",
		},
	}

	body := `{"product_id":"` + productID.String() + `"}`
	req := authedRequest(http.MethodPost, "/api/v1/checkout", body, buyerID)
	rec := httptest.NewRecorder()
	CheckoutCreate(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Equal(t, buyerID, svc.gotBuyerID)
	require.Equal(t, productID, svc.gotProductID)

	var envelope struct {
		Data checkoutCreateResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, "cs_test_1", envelope.Data.PaymentReference)
	require.Equal(t, int64(499), envelope.Data.PlatformFeeCents)
}

func TestCheckoutCreateRequiresAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	CheckoutCreate(&fakeCheckoutService{}, nil).ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCheckoutCreateRejectsMissingProduct(t *testing.T) {
	req := authedRequest(http.MethodPost, "/api/v1/checkout", `{}`, uuid.New())
	rec := httptest.NewRecorder()
	CheckoutCreate(&fakeCheckoutService{}, nil).ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckoutCreateMapsConflictCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "already owned", err: pkgerrors.New(pkgerrors.CodeConflict, "buyer already owns this product"), wantStatus: http.StatusConflict},
		{name: "creator not payable", err: pkgerrors.New(pkgerrors.CodeStateConflict, "creator cannot receive payouts"), wantStatus: http.StatusUnprocessableEntity},
		{name: "unknown product", err: pkgerrors.New(pkgerrors.CodeNotFound, "product not found"), wantStatus: http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeCheckoutService{intentErr: tc.err}
			body := `{"product_id":"` + uuid.NewString() + `"}`
			req := authedRequest(http.MethodPost, "/api/v1/checkout", body, uuid.New())
			rec := httptest.NewRecorder()
			CheckoutCreate(svc, nil).ServeHTTP(rec, req)
			require.Equal(t, tc.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestCheckoutConfirmReturnsEntitlement(t *testing.T) {
	buyerID := uuid.New()
	svc := &fakeCheckoutService{
		confirmed: &models.Entitlement{
			ID:               uuid.New(),
			ProductID:        uuid.New(),
			PaymentReference: "pi_test_1",
		},
	}

	req := authedRequest(http.MethodPost, "/api/v1/checkout/confirm", `{"session_id":"cs_test_1"}`, buyerID)
	rec := httptest.NewRecorder()
	CheckoutConfirm(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "cs_test_1", svc.gotSessionID)
	require.Equal(t, buyerID, svc.gotBuyerID)
}
