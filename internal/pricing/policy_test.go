package pricing

import (
	"testing"

	"github.com/crateful-app/crateful-backend/pkg/config"
)

func TestPolicyFeeFloors(t *testing.T) {
	tests := []struct {
		name    string
		bps     int64
		amount  int64
		wantFee int64
	}{
		{name: "25 percent of 1999", bps: 2500, amount: 1999, wantFee: 499},
		{name: "25 percent of 100", bps: 2500, amount: 100, wantFee: 25},
		{name: "25 percent of 1", bps: 2500, amount: 1, wantFee: 0},
		{name: "20 percent of 999", bps: 2000, amount: 999, wantFee: 199},
		{name: "zero amount", bps: 2500, amount: 0, wantFee: 0},
		{name: "zero rate", bps: 0, amount: 5000, wantFee: 0},
		{name: "full rate", bps: 10000, amount: 1234, wantFee: 1234},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			policy, err := NewPolicy(config.PricingConfig{PlatformFeeBps: tc.bps})
			if err != nil {
				t.Fatalf("build policy: %v", err)
			}
			if got := policy.Fee(tc.amount); got != tc.wantFee {
				t.Fatalf("expected fee %d, got %d", tc.wantFee, got)
			}
			if got := policy.Net(tc.amount); got != tc.amount-tc.wantFee {
				t.Fatalf("expected net %d, got %d", tc.amount-tc.wantFee, got)
			}
		})
	}
}

func TestNewPolicyRejectsOutOfRangeBps(t *testing.T) {
	if _, err := NewPolicy(config.PricingConfig{PlatformFeeBps: -1}); err == nil {
		t.Fatal("expected error for negative bps")
	}
	if _, err := NewPolicy(config.PricingConfig{PlatformFeeBps: 10001}); err == nil {
		t.Fatal("expected error for bps above 10000")
	}
}
