package stripewebhook

import (
	"context"
	"encoding/json"

	"github.com/stripe/stripe-go/v84"

	"github.com/crateful-app/crateful-backend/internal/entitlements"
	"github.com/crateful-app/crateful-backend/pkg/db/models"
	"github.com/crateful-app/crateful-backend/pkg/enums"
	pkgerrors "github.com/crateful-app/crateful-backend/pkg/errors"
	"github.com/crateful-app/crateful-backend/pkg/logger"
)

type entitlementService interface {
	Grant(ctx context.Context, params entitlements.GrantParams) (*models.Entitlement, error)
	Revoke(ctx context.Context, params entitlements.RevokeParams) error
}

type sessionRecorder interface {
	MarkStatusByStripeID(ctx context.Context, stripeSessionID string, status enums.CheckoutSessionStatus) error
}

type ServiceParams struct {
	Entitlements entitlementService
	Sessions     sessionRecorder
	Logger       *logger.Logger
}

// Service routes verified Stripe events to the entitlement writer. Events it
// does not recognize are acknowledged without action so Stripe stops retrying.
type Service struct {
	entitlements entitlementService
	sessions     sessionRecorder
	logg         *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Entitlements == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "entitlement service required")
	}
	if params.Sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session recorder required")
	}
	return &Service{
		entitlements: params.Entitlements,
		sessions:     params.Sessions,
		logg:         params.Logger,
	}, nil
}

func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted,
		stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session event")
		}
		return s.handleSessionPaid(ctx, event.ID, &session)
	case stripe.EventTypeCheckoutSessionExpired:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session event")
		}
		if err := s.sessions.MarkStatusByStripeID(ctx, session.ID, enums.CheckoutSessionStatusExpired); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark session expired")
		}
		return nil
	case stripe.EventTypeChargeRefunded:
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode charge event")
		}
		return s.handleChargeRefunded(ctx, event.ID, &charge)
	default:
		return nil
	}
}

// handleSessionPaid grants the entitlement encoded in the session metadata.
// Sessions that are not yet paid (async payment methods) are acknowledged and
// handled by the follow-up async_payment_succeeded event.
func (s *Service) handleSessionPaid(ctx context.Context, eventID string, session *stripe.CheckoutSession) error {
	if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		if s.logg != nil {
			logCtx := s.logg.WithField(ctx, "session_id", session.ID)
			s.logg.Info(logCtx, "checkout session not paid yet, waiting for async payment")
		}
		return nil
	}

	contract, err := entitlements.ContractFromMetadata(session.Metadata)
	if err != nil {
		return err
	}

	reference := session.ID
	if session.PaymentIntent != nil && session.PaymentIntent.ID != "" {
		reference = session.PaymentIntent.ID
	}

	if _, err := s.entitlements.Grant(ctx, entitlements.GrantParams{
		Contract:         contract,
		PaymentReference: reference,
		EventID:          eventID,
	}); err != nil {
		// A conflicting grant (active entitlement under a different payment)
		// will conflict on every redelivery too. Ack it and leave the
		// resolution to support tooling.
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeConflict {
			if s.logg != nil {
				logCtx := s.logg.WithFields(ctx, map[string]any{
					"session_id": session.ID,
					"event_id":   eventID,
				})
				s.logg.Warn(logCtx, "grant conflicts with an existing entitlement, acknowledging event")
			}
			return nil
		}
		return err
	}

	if err := s.sessions.MarkStatusByStripeID(ctx, session.ID, enums.CheckoutSessionStatusCompleted); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark session completed")
	}
	return nil
}

// handleChargeRefunded revokes the entitlement tied to the refunded charge.
// Refunds for purchases this system never granted are logged and acknowledged,
// not retried.
func (s *Service) handleChargeRefunded(ctx context.Context, eventID string, charge *stripe.Charge) error {
	contract, err := entitlements.ContractFromMetadata(charge.Metadata)
	if err != nil {
		if s.logg != nil {
			logCtx := s.logg.WithField(ctx, "charge_id", charge.ID)
			s.logg.Warn(logCtx, "refunded charge carries no purchase metadata, ignoring")
		}
		return nil
	}

	err = s.entitlements.Revoke(ctx, entitlements.RevokeParams{
		BuyerID:   contract.BuyerID,
		ProductID: contract.ProductID,
		EventID:   eventID,
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			if s.logg != nil {
				logCtx := s.logg.WithField(ctx, "charge_id", charge.ID)
				s.logg.Warn(logCtx, "refund for unknown entitlement, ignoring")
			}
			return nil
		}
		return err
	}
	return nil
}
