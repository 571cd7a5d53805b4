package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/crateful-app/crateful-backend/internal/catalog"
	"github.com/crateful-app/crateful-backend/internal/entitlements"
	"github.com/crateful-app/crateful-backend/internal/pricing"
	"github.com/crateful-app/crateful-backend/pkg/config"
	"github.com/crateful-app/crateful-backend/pkg/db/models"
	"github.com/crateful-app/crateful-backend/pkg/enums"
	"github.com/crateful-app/crateful-backend/pkg/errors"
	"github.com/crateful-app/crateful-backend/pkg/logger"
	"github.com/crateful-app/crateful-backend/pkg/outbox"
	"github.com/crateful-app/crateful-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productResolver interface {
	Resolve(ctx context.Context, id uuid.UUID) (*catalog.Product, error)
}

type creatorService interface {
	Find(ctx context.Context, id uuid.UUID) (*models.Creator, error)
	PayoutEligibility(ctx context.Context, creator *models.Creator) (bool, error)
}

type entitlementService interface {
	HasActive(ctx context.Context, buyerID, productID uuid.UUID) (bool, error)
	Grant(ctx context.Context, params entitlements.GrantParams) (*models.Entitlement, error)
}

// ServiceParams groups dependencies for the checkout service.
type ServiceParams struct {
	DB           txRunner
	Repo         Repository
	Catalog      productResolver
	Creators     creatorService
	Entitlements entitlementService
	Stripe       StripeCheckoutClient
	Outbox       *outbox.Service
	Policy       pricing.Policy
	URLs         config.CheckoutConfig
	Logger       *logger.Logger
}

// Service issues payment sessions carrying the fulfillment contract and
// confirms them after the buyer returns from the provider.
type Service struct {
	db           txRunner
	repo         Repository
	catalog      productResolver
	creators     creatorService
	entitlements entitlementService
	stripe       StripeCheckoutClient
	outbox       *outbox.Service
	policy       pricing.Policy
	urls         config.CheckoutConfig
	logg         *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.DB == nil {
		return nil, errors.New(errors.CodeInternal, "database client is required")
	}
	if params.Repo == nil {
		return nil, errors.New(errors.CodeInternal, "checkout repository is required")
	}
	if params.Catalog == nil {
		return nil, errors.New(errors.CodeInternal, "product resolver is required")
	}
	if params.Creators == nil {
		return nil, errors.New(errors.CodeInternal, "creator service is required")
	}
	if params.Entitlements == nil {
		return nil, errors.New(errors.CodeInternal, "entitlement service is required")
	}
	if params.Stripe == nil {
		return nil, errors.New(errors.CodeInternal, "stripe client is required")
	}
	if params.Outbox == nil {
		return nil, errors.New(errors.CodeInternal, "outbox service is required")
	}
	return &Service{
		db:           params.DB,
		repo:         params.Repo,
		catalog:      params.Catalog,
		creators:     params.Creators,
		entitlements: params.Entitlements,
		stripe:       params.Stripe,
		outbox:       params.Outbox,
		policy:       params.Policy,
		urls:         params.URLs,
		logg:         params.Logger,
	}, nil
}

// Intent is what the API returns to the buyer: where to pay and what the
// charge will look like.
type Intent struct {
	SessionID        uuid.UUID
	PaymentReference string
	PaymentURL       string
	AmountCents      int64
	PlatformFeeCents int64
	Currency         string
}

// CreateIntent validates the purchase, prices it, and issues a provider
// session whose metadata carries everything fulfillment needs later. Nothing
// is granted here; grants only happen when the payment event arrives.
func (s *Service) CreateIntent(ctx context.Context, buyerID, productID uuid.UUID) (*Intent, error) {
	if buyerID == uuid.Nil || productID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "buyer and product ids are required")
	}

	product, err := s.catalog.Resolve(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.Purchasable {
		return nil, errors.New(errors.CodeStateConflict, "product is not purchasable")
	}

	creator, err := s.creators.Find(ctx, product.CreatorID)
	if err != nil {
		return nil, err
	}
	payable, err := s.creators.PayoutEligibility(ctx, creator)
	if err != nil {
		return nil, err
	}
	if !payable {
		return nil, errors.New(errors.CodeStateConflict, "creator cannot receive payouts")
	}

	owned, err := s.entitlements.HasActive(ctx, buyerID, productID)
	if err != nil {
		return nil, err
	}
	if owned {
		return nil, errors.New(errors.CodeConflict, "buyer already owns this product")
	}

	now := time.Now().UTC()
	contract := entitlements.Contract{
		BuyerID:          buyerID,
		CreatorID:        product.CreatorID,
		ProductID:        product.ID,
		ProductTitle:     product.Title,
		AmountCents:      product.PriceCents,
		PlatformFeeCents: s.policy.Fee(product.PriceCents),
		Currency:         product.Currency,
		IssuedAt:         now,
	}
	if err := contract.Validate(); err != nil {
		return nil, err
	}

	session, err := s.stripe.CreateSession(ctx, s.sessionParams(contract, *creator.StripeAccountID))
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "creating stripe checkout session")
	}

	record := &models.CheckoutSession{
		ID:               uuid.New(),
		BuyerID:          contract.BuyerID,
		ProductID:        contract.ProductID,
		CreatorID:        contract.CreatorID,
		PaymentReference: session.ID,
		AmountCents:      contract.AmountCents,
		PlatformFeeCents: contract.PlatformFeeCents,
		Currency:         contract.Currency,
		Status:           enums.CheckoutSessionStatusPending,
	}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, record); err != nil {
			return errors.Wrap(errors.CodeDependency, err, "recording checkout session")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCheckoutIssued,
			AggregateType: enums.AggregateCheckoutSession,
			AggregateID:   record.ID,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.CheckoutIssuedEvent{
				SessionID:        record.ID,
				BuyerID:          record.BuyerID,
				ProductID:        record.ProductID,
				CreatorID:        record.CreatorID,
				PaymentReference: record.PaymentReference,
				AmountCents:      record.AmountCents,
				PlatformFeeCents: record.PlatformFeeCents,
				Currency:         record.Currency,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"session_id":        record.ID.String(),
			"payment_reference": record.PaymentReference,
		})
		s.logg.Info(logCtx, "checkout session issued")
	}

	return &Intent{
		SessionID:        record.ID,
		PaymentReference: session.ID,
		PaymentURL:       session.URL,
		AmountCents:      record.AmountCents,
		PlatformFeeCents: record.PlatformFeeCents,
		Currency:         record.Currency,
	}, nil
}

// sessionParams builds the provider request. The contract rides in two
// places: session metadata for checkout events and payment-intent metadata so
// refund events can find it on the charge.
func (s *Service) sessionParams(contract entitlements.Contract, destinationAccount string) *stripe.CheckoutSessionParams {
	meta := contract.ToMetadata()
	return &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(s.urls.SuccessURL),
		CancelURL:         stripe.String(s.urls.CancelURL),
		ClientReferenceID: stripe.String(contract.BuyerID.String()),
		Metadata:          meta,
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(contract.Currency),
					UnitAmount: stripe.Int64(contract.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(contract.ProductTitle),
					},
				},
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata:             meta,
			ApplicationFeeAmount: stripe.Int64(contract.PlatformFeeCents),
			TransferData: &stripe.CheckoutSessionPaymentIntentDataTransferDataParams{
				Destination: stripe.String(destinationAccount),
			},
		},
	}
}

// Confirm lets the buyer's return page force fulfillment instead of waiting
// for the webhook. The provider is the source of truth: the session must be
// paid and its contract must belong to the caller.
func (s *Service) Confirm(ctx context.Context, buyerID uuid.UUID, stripeSessionID string) (*models.Entitlement, error) {
	if buyerID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "buyer id is required")
	}
	if stripeSessionID == "" {
		return nil, errors.New(errors.CodeValidation, "session id is required")
	}

	session, err := s.stripe.GetSession(ctx, stripeSessionID, &stripe.CheckoutSessionParams{})
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "fetching stripe checkout session")
	}
	if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return nil, errors.New(errors.CodeStateConflict, "payment has not completed")
	}

	contract, err := entitlements.ContractFromMetadata(session.Metadata)
	if err != nil {
		return nil, err
	}
	if contract.BuyerID != buyerID {
		return nil, errors.New(errors.CodeForbidden, "session belongs to another buyer")
	}

	reference := session.ID
	if session.PaymentIntent != nil && session.PaymentIntent.ID != "" {
		reference = session.PaymentIntent.ID
	}

	ent, err := s.entitlements.Grant(ctx, entitlements.GrantParams{
		Contract:         contract,
		PaymentReference: reference,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.MarkStatusByStripeID(ctx, session.ID, enums.CheckoutSessionStatusCompleted); err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "marking session completed")
	}
	return ent, nil
}
