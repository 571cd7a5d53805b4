package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/crateful-app/crateful-backend/pkg/config"
	"github.com/crateful-app/crateful-backend/pkg/errors"
)

const bpsDenominator = 10000

// Policy is the platform's cut of every sale, expressed in basis points.
// A single policy applies to all products; per-creator rates are not a thing yet.
type Policy struct {
	FeeBps int64
}

// NewPolicy builds the pricing policy from config.
func NewPolicy(cfg config.PricingConfig) (Policy, error) {
	if cfg.PlatformFeeBps < 0 || cfg.PlatformFeeBps > bpsDenominator {
		return Policy{}, errors.New(errors.CodeValidation, "platform fee bps must be between 0 and 10000")
	}
	return Policy{FeeBps: cfg.PlatformFeeBps}, nil
}

// Fee returns the platform fee for an amount in cents, rounded down so the
// platform never takes more than its rate.
func (p Policy) Fee(amountCents int64) int64 {
	if amountCents <= 0 || p.FeeBps <= 0 {
		return 0
	}
	amount := decimal.NewFromInt(amountCents)
	rate := decimal.NewFromInt(p.FeeBps).Div(decimal.NewFromInt(bpsDenominator))
	return amount.Mul(rate).Floor().IntPart()
}

// Net returns the creator's share after the platform fee.
func (p Policy) Net(amountCents int64) int64 {
	return amountCents - p.Fee(amountCents)
}
