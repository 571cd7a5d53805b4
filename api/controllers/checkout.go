package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/crateful-app/crateful-backend/api/middleware"
	"github.com/crateful-app/crateful-backend/api/responses"
	"github.com/crateful-app/crateful-backend/api/validators"
	checkoutsvc "github.com/crateful-app/crateful-backend/internal/checkout"
	"github.com/crateful-app/crateful-backend/pkg/db/models"
	pkgerrors "github.com/crateful-app/crateful-backend/pkg/errors"
	"github.com/crateful-app/crateful-backend/pkg/logger"
)

// CheckoutService is the surface the checkout controllers depend on.
type CheckoutService interface {
	CreateIntent(ctx context.Context, buyerID, productID uuid.UUID) (*checkoutsvc.Intent, error)
	Confirm(ctx context.Context, buyerID uuid.UUID, stripeSessionID string) (*models.Entitlement, error)
}

// CheckoutCreate issues a payment session for the authenticated buyer.
func CheckoutCreate(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		buyerID, err := buyerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		intent, err := svc.CreateIntent(r.Context(), buyerID, payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCheckoutCreateResponse(intent))
	}
}

// CheckoutConfirm forces fulfillment from the buyer's return page without
// waiting for webhook delivery.
func CheckoutConfirm(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		buyerID, err := buyerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutConfirmRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ent, err := svc.Confirm(r.Context(), buyerID, payload.SessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newEntitlementResponse(ent))
	}
}

func buyerIDFromContext(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}

type checkoutCreateRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
}

type checkoutConfirmRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

type checkoutCreateResponse struct {
	SessionID        uuid.UUID `json:"session_id"`
	PaymentReference string    `json:"payment_reference"`
	PaymentURL       string    `json:"payment_url"`
	AmountCents      int64     `json:"amount_cents"`
	PlatformFeeCents int64     `json:"platform_fee_cents"`
	Currency         string    `json:"currency"`
}

func newCheckoutCreateResponse(intent *checkoutsvc.Intent) checkoutCreateResponse {
	if intent == nil {
		return checkoutCreateResponse{}
	}
	return checkoutCreateResponse{
		SessionID:        intent.SessionID,
		PaymentReference: intent.PaymentReference,
		PaymentURL:       intent.PaymentURL,
		AmountCents:      intent.AmountCents,
		PlatformFeeCents: intent.PlatformFeeCents,
		Currency:         intent.Currency,
	}
}

type entitlementResponse struct {
	EntitlementID    uuid.UUID  `json:"entitlement_id"`
	ProductID        uuid.UUID  `json:"product_id"`
	PaymentReference string     `json:"payment_reference"`
	Status           string     `json:"status"`
	GrantedAt        *time.Time `json:"granted_at,omitempty"`
}

func newEntitlementResponse(ent *models.Entitlement) entitlementResponse {
	if ent == nil {
		return entitlementResponse{}
	}
	resp := entitlementResponse{
		EntitlementID:    ent.ID,
		ProductID:        ent.ProductID,
		PaymentReference: ent.PaymentReference,
		Status:           string(ent.Status),
	}
	if !ent.GrantedAt.IsZero() {
		granted := ent.GrantedAt
		resp.GrantedAt = &granted
	}
	return resp
}
