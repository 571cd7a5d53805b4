package creators

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/account"

	pkgstripe "github.com/crateful-app/crateful-backend/pkg/stripe"
)

// StripeAccountClient exposes the subset of Stripe operations required by the creator service.
type StripeAccountClient interface {
	GetAccount(ctx context.Context, id string, params *stripe.AccountParams) (*stripe.Account, error)
}

type stripeClientWrapper struct{}

// NewStripeClient wraps the provided Stripe client so the creator service can be tested.
func NewStripeClient(api *pkgstripe.Client) StripeAccountClient {
	if api == nil {
		return nil
	}
	return &stripeClientWrapper{}
}

func (w *stripeClientWrapper) GetAccount(ctx context.Context, id string, params *stripe.AccountParams) (*stripe.Account, error) {
	if params == nil {
		params = &stripe.AccountParams{}
	}
	params.Context = ctx
	return account.GetByID(id, params)
}
