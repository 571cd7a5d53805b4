package reconcile

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/event"

	pkgstripe "github.com/crateful-app/crateful-backend/pkg/stripe"
)

// StripeEventClient exposes the subset of Stripe operations required by the reconciler.
type StripeEventClient interface {
	ListEvents(ctx context.Context, params *stripe.EventListParams) ([]*stripe.Event, error)
}

type stripeClientWrapper struct{}

// NewStripeClient wraps the provided Stripe client so the reconciler can be tested.
func NewStripeClient(api *pkgstripe.Client) StripeEventClient {
	if api == nil {
		return nil
	}
	return &stripeClientWrapper{}
}

func (w *stripeClientWrapper) ListEvents(ctx context.Context, params *stripe.EventListParams) ([]*stripe.Event, error) {
	if params == nil {
		params = &stripe.EventListParams{}
	}
	params.Context = ctx

	var events []*stripe.Event
	iter := event.List(params)
	for iter.Next() {
		events = append(events, iter.Event())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
