package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"go.uber.org/multierr"

	"github.com/crateful-app/crateful-backend/internal/entitlements"
	"github.com/crateful-app/crateful-backend/pkg/config"
	"github.com/crateful-app/crateful-backend/pkg/db/models"
	"github.com/crateful-app/crateful-backend/pkg/errors"
	"github.com/crateful-app/crateful-backend/pkg/logger"
)

const (
	defaultLookback = 72 * time.Hour
	defaultPageSize = 100
)

type entitlementService interface {
	HasActive(ctx context.Context, buyerID, productID uuid.UUID) (bool, error)
	Grant(ctx context.Context, params entitlements.GrantParams) (*models.Entitlement, error)
}

// Report summarizes one reconciliation sweep.
type Report struct {
	Scanned  int
	Repaired int
	Skipped  int
	Failed   int
}

// ServiceParams configure the reconciler.
type ServiceParams struct {
	Stripe       StripeEventClient
	Entitlements entitlementService
	Logger       *logger.Logger
	Config       config.ReconcileConfig
	Now          func() time.Time
}

// Service replays the provider's recent payment events against local state
// and grants whatever a lost webhook left behind. Grants are idempotent, so
// sweeping over already-fulfilled payments is harmless.
type Service struct {
	stripe       StripeEventClient
	entitlements entitlementService
	logg         *logger.Logger
	lookback     time.Duration
	pageSize     int64
	now          func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Stripe == nil {
		return nil, errors.New(errors.CodeInternal, "stripe event client is required")
	}
	if params.Entitlements == nil {
		return nil, errors.New(errors.CodeInternal, "entitlement service is required")
	}
	lookback := params.Config.Lookback
	if lookback <= 0 {
		lookback = defaultLookback
	}
	pageSize := params.Config.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		stripe:       params.Stripe,
		entitlements: params.Entitlements,
		logg:         params.Logger,
		lookback:     lookback,
		pageSize:     pageSize,
		now:          now,
	}, nil
}

// Run sweeps paid checkout events inside the lookback window. Individual
// event failures are collected, not fatal; the sweep always covers the whole
// window.
func (s *Service) Run(ctx context.Context) (Report, error) {
	since := s.now().UTC().Add(-s.lookback)
	params := &stripe.EventListParams{
		Types: []*string{
			stripe.String(string(stripe.EventTypeCheckoutSessionCompleted)),
			stripe.String(string(stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded)),
		},
		CreatedRange: &stripe.RangeQueryParams{
			GreaterThanOrEqual: since.Unix(),
		},
	}
	params.Limit = stripe.Int64(s.pageSize)

	events, err := s.stripe.ListEvents(ctx, params)
	if err != nil {
		return Report{}, errors.Wrap(errors.CodeDependency, err, "listing stripe events")
	}

	var report Report
	var errs error
	for _, evt := range events {
		report.Scanned++
		repaired, err := s.reconcileEvent(ctx, evt)
		if err != nil {
			report.Failed++
			errs = multierr.Append(errs, fmt.Errorf("event %s: %w", evt.ID, err))
			continue
		}
		if repaired {
			report.Repaired++
		} else {
			report.Skipped++
		}
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"scanned":  report.Scanned,
			"repaired": report.Repaired,
			"skipped":  report.Skipped,
			"failed":   report.Failed,
		})
		s.logg.Info(logCtx, "entitlement reconcile sweep complete")
	}
	return report, errs
}

func (s *Service) reconcileEvent(ctx context.Context, evt *stripe.Event) (bool, error) {
	if evt == nil || evt.Data == nil {
		return false, errors.New(errors.CodeValidation, "event data missing")
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(evt.Data.Raw, &session); err != nil {
		return false, errors.Wrap(errors.CodeValidation, err, "decode checkout session")
	}
	if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return false, nil
	}

	contract, err := entitlements.ContractFromMetadata(session.Metadata)
	if err != nil {
		return false, err
	}

	active, err := s.entitlements.HasActive(ctx, contract.BuyerID, contract.ProductID)
	if err != nil {
		return false, err
	}
	if active {
		return false, nil
	}

	reference := session.ID
	if session.PaymentIntent != nil && session.PaymentIntent.ID != "" {
		reference = session.PaymentIntent.ID
	}

	granted, err := s.entitlements.Grant(ctx, entitlements.GrantParams{
		Contract:         contract,
		PaymentReference: reference,
		EventID:          evt.ID,
	})
	if err != nil {
		return false, err
	}
	if granted == nil {
		// The durable event claim suppressed the grant: the event was
		// fulfilled before and later revoked. Not a repair.
		return false, nil
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"event_id":          evt.ID,
			"payment_reference": reference,
		})
		s.logg.Warn(logCtx, "repaired entitlement missed by webhook delivery")
	}
	return true, nil
}
