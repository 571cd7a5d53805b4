package creators

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/crateful-app/crateful-backend/pkg/db/models"
	"github.com/crateful-app/crateful-backend/pkg/errors"
	"github.com/crateful-app/crateful-backend/pkg/logger"
)

// ServiceParams groups dependencies for the creator service.
type ServiceParams struct {
	Repo   Repository
	Stripe StripeAccountClient
	Logger *logger.Logger
}

// Service orchestrates creator lookups and payout-eligibility checks.
type Service struct {
	repo   Repository
	stripe StripeAccountClient
	logg   *logger.Logger
}

// NewService builds a creator service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New(errors.CodeInternal, "creator repository is required")
	}
	if params.Stripe == nil {
		return nil, errors.New(errors.CodeInternal, "stripe account client is required")
	}
	return &Service{repo: params.Repo, stripe: params.Stripe, logg: params.Logger}, nil
}

// Find returns the creator row or NOT_FOUND.
func (s *Service) Find(ctx context.Context, id uuid.UUID) (*models.Creator, error) {
	creator, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "loading creator")
	}
	if creator == nil {
		return nil, errors.New(errors.CodeNotFound, "creator not found")
	}
	return creator, nil
}

// PayoutEligibility checks whether the creator's connected Stripe account can
// accept destination charges: charges enabled, payouts enabled, details
// submitted. A creator without a connected account is never payable.
func (s *Service) PayoutEligibility(ctx context.Context, creator *models.Creator) (bool, error) {
	if creator == nil {
		return false, errors.New(errors.CodeInternal, "creator is required")
	}
	if creator.StripeAccountID == nil || strings.TrimSpace(*creator.StripeAccountID) == "" {
		return false, nil
	}

	acct, err := s.stripe.GetAccount(ctx, *creator.StripeAccountID, nil)
	if err != nil {
		return false, errors.Wrap(errors.CodeDependency, err, "fetching stripe account")
	}
	if acct == nil {
		return false, nil
	}
	return acct.ChargesEnabled && acct.PayoutsEnabled && acct.DetailsSubmitted, nil
}
