package reconcile

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"

	"github.com/crateful-app/crateful-backend/internal/entitlements"
	"github.com/crateful-app/crateful-backend/pkg/config"
	"github.com/crateful-app/crateful-backend/pkg/db/models"
)

type stubEventLister struct {
	events []*stripe.Event
	params *stripe.EventListParams
}

func (s *stubEventLister) ListEvents(_ context.Context, params *stripe.EventListParams) ([]*stripe.Event, error) {
	s.params = params
	return s.events, nil
}

type stubEntitlements struct {
	active   map[string]bool
	grants   []entitlements.GrantParams
	suppress bool
}

func pairKey(buyerID, productID uuid.UUID) string {
	return buyerID.String() + "/" + productID.String()
}

func (s *stubEntitlements) HasActive(_ context.Context, buyerID, productID uuid.UUID) (bool, error) {
	return s.active[pairKey(buyerID, productID)], nil
}

func (s *stubEntitlements) Grant(_ context.Context, params entitlements.GrantParams) (*models.Entitlement, error) {
	s.grants = append(s.grants, params)
	if s.suppress {
		return nil, nil
	}
	if s.active == nil {
		s.active = map[string]bool{}
	}
	s.active[pairKey(params.Contract.BuyerID, params.Contract.ProductID)] = true
	return &models.Entitlement{ID: uuid.New()}, nil
}

func paidSessionEvent(t *testing.T, id string, contract entitlements.Contract) *stripe.Event {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"id":             "cs_" + id,
		"payment_status": "paid",
		"payment_intent": "pi_" + id,
		"metadata":       contract.ToMetadata(),
	})
	require.NoError(t, err)
	return &stripe.Event{
		ID:   "evt_" + id,
		Type: stripe.EventTypeCheckoutSessionCompleted,
		Data: &stripe.EventData{Raw: raw},
	}
}

func reconcileContract() entitlements.Contract {
	return entitlements.Contract{
		BuyerID:          uuid.New(),
		CreatorID:        uuid.New(),
		ProductID:        uuid.New(),
		ProductTitle:     "Field Recording Crate",
		AmountCents:      2999,
		PlatformFeeCents: 749,
		Currency:         "usd",
		IssuedAt:         time.Now().UTC(),
	}
}

func newTestService(t *testing.T, lister *stubEventLister, ents *stubEntitlements) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Stripe:       lister,
		Entitlements: ents,
		Config: config.ReconcileConfig{
			Lookback: 48 * time.Hour,
			PageSize: 50,
		},
	})
	require.NoError(t, err)
	return svc
}

func TestRunRepairsMissedGrant(t *testing.T) {
	contract := reconcileContract()
	lister := &stubEventLister{events: []*stripe.Event{paidSessionEvent(t, "gap1", contract)}}
	ents := &stubEntitlements{}
	svc := newTestService(t, lister, ents)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, Report{Scanned: 1, Repaired: 1}, report)
	require.Len(t, ents.grants, 1)
	require.Equal(t, "pi_gap1", ents.grants[0].PaymentReference)
	require.Equal(t, "evt_gap1", ents.grants[0].EventID)
}

func TestRunSkipsAlreadyGrantedPairs(t *testing.T) {
	contract := reconcileContract()
	ents := &stubEntitlements{
		active: map[string]bool{pairKey(contract.BuyerID, contract.ProductID): true},
	}
	lister := &stubEventLister{events: []*stripe.Event{paidSessionEvent(t, "dup1", contract)}}
	svc := newTestService(t, lister, ents)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, Report{Scanned: 1, Skipped: 1}, report)
	require.Empty(t, ents.grants)
}

func TestRunIsRepeatable(t *testing.T) {
	contract := reconcileContract()
	lister := &stubEventLister{events: []*stripe.Event{paidSessionEvent(t, "rep1", contract)}}
	ents := &stubEntitlements{}
	svc := newTestService(t, lister, ents)

	_, err := svc.Run(context.Background())
	require.NoError(t, err)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, Report{Scanned: 1, Skipped: 1}, report)
	require.Len(t, ents.grants, 1)
}

func TestRunCountsRevokedPairsAsSkippedNotRepaired(t *testing.T) {
	// A pair granted and later revoked: HasActive is false, but the durable
	// event claim suppresses the grant. The sweep must not report a repair,
	// and repeated sweeps over the same window stay stable.
	contract := reconcileContract()
	lister := &stubEventLister{events: []*stripe.Event{paidSessionEvent(t, "rev1", contract)}}
	ents := &stubEntitlements{suppress: true}
	svc := newTestService(t, lister, ents)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, Report{Scanned: 1, Skipped: 1}, report)

	report, err = svc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, Report{Scanned: 1, Skipped: 1}, report)
}

func TestRunCollectsPerEventFailures(t *testing.T) {
	good := reconcileContract()
	badRaw, err := json.Marshal(map[string]any{
		"id":             "cs_bad",
		"payment_status": "paid",
		"metadata":       map[string]string{"crateful_buyer_id": "junk"},
	})
	require.NoError(t, err)

	lister := &stubEventLister{events: []*stripe.Event{
		{ID: "evt_bad", Type: stripe.EventTypeCheckoutSessionCompleted, Data: &stripe.EventData{Raw: badRaw}},
		paidSessionEvent(t, "good", good),
	}}
	ents := &stubEntitlements{}
	svc := newTestService(t, lister, ents)

	report, err := svc.Run(context.Background())
	require.Error(t, err)
	require.Equal(t, Report{Scanned: 2, Repaired: 1, Failed: 1}, report)
	require.Len(t, ents.grants, 1)
}

func TestRunIgnoresUnpaidSessions(t *testing.T) {
	raw, err := json.Marshal(map[string]any{
		"id":             "cs_unpaid",
		"payment_status": "unpaid",
		"metadata":       reconcileContract().ToMetadata(),
	})
	require.NoError(t, err)
	lister := &stubEventLister{events: []*stripe.Event{
		{ID: "evt_unpaid", Type: stripe.EventTypeCheckoutSessionCompleted, Data: &stripe.EventData{Raw: raw}},
	}}
	ents := &stubEntitlements{}
	svc := newTestService(t, lister, ents)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, Report{Scanned: 1, Skipped: 1}, report)
	require.Empty(t, ents.grants)
}

func TestRunScopesTheProviderQuery(t *testing.T) {
	lister := &stubEventLister{}
	svc := newTestService(t, lister, &stubEntitlements{})

	_, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, lister.params)
	require.Len(t, lister.params.Types, 2)
	require.NotNil(t, lister.params.CreatedRange)
	require.InDelta(t, time.Now().Add(-48*time.Hour).Unix(), lister.params.CreatedRange.GreaterThanOrEqual, 5)
}
