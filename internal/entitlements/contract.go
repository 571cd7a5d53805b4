package entitlements

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/crateful-app/crateful-backend/pkg/errors"
)

// Stripe metadata keys carrying the fulfillment contract. The contract rides
// on both the Checkout Session and its PaymentIntent so refund events carry
// it too.
const (
	metaBuyerID      = "crateful_buyer_id"
	metaCreatorID    = "crateful_creator_id"
	metaProductID    = "crateful_product_id"
	metaProductTitle = "crateful_product_title"
	metaAmountCents  = "crateful_amount_cents"
	metaFeeCents     = "crateful_platform_fee_cents"
	metaCurrency     = "crateful_currency"
	metaIssuedAt     = "crateful_issued_at"
)

// Contract is the self-contained fulfillment payload attached to every
// payment. Webhook handlers and the reconciler grant entitlements from the
// contract alone, without re-reading the catalog.
type Contract struct {
	BuyerID          uuid.UUID
	CreatorID        uuid.UUID
	ProductID        uuid.UUID
	ProductTitle     string
	AmountCents      int64
	PlatformFeeCents int64
	Currency         string
	IssuedAt         time.Time
}

// Validate checks the contract invariants before it is attached to a payment.
func (c Contract) Validate() error {
	switch {
	case c.BuyerID == uuid.Nil:
		return errors.New(errors.CodeValidation, "contract missing buyer id")
	case c.CreatorID == uuid.Nil:
		return errors.New(errors.CodeValidation, "contract missing creator id")
	case c.ProductID == uuid.Nil:
		return errors.New(errors.CodeValidation, "contract missing product id")
	case c.AmountCents <= 0:
		return errors.New(errors.CodeValidation, "contract amount must be positive")
	case c.PlatformFeeCents < 0 || c.PlatformFeeCents > c.AmountCents:
		return errors.New(errors.CodeValidation, "contract platform fee out of range")
	case strings.TrimSpace(c.Currency) == "":
		return errors.New(errors.CodeValidation, "contract missing currency")
	}
	return nil
}

// ToMetadata flattens the contract into Stripe metadata.
func (c Contract) ToMetadata() map[string]string {
	return map[string]string{
		metaBuyerID:      c.BuyerID.String(),
		metaCreatorID:    c.CreatorID.String(),
		metaProductID:    c.ProductID.String(),
		metaProductTitle: c.ProductTitle,
		metaAmountCents:  strconv.FormatInt(c.AmountCents, 10),
		metaFeeCents:     strconv.FormatInt(c.PlatformFeeCents, 10),
		metaCurrency:     c.Currency,
		metaIssuedAt:     c.IssuedAt.UTC().Format(time.RFC3339),
	}
}

// ContractFromMetadata rebuilds the contract from Stripe metadata. Any
// missing or unparsable field fails with VALIDATION_ERROR so the caller can
// discard the event instead of retrying it forever.
func ContractFromMetadata(meta map[string]string) (Contract, error) {
	if len(meta) == 0 {
		return Contract{}, errors.New(errors.CodeValidation, "payment metadata missing fulfillment contract")
	}

	buyerID, err := parseUUIDField(meta, metaBuyerID)
	if err != nil {
		return Contract{}, err
	}
	creatorID, err := parseUUIDField(meta, metaCreatorID)
	if err != nil {
		return Contract{}, err
	}
	productID, err := parseUUIDField(meta, metaProductID)
	if err != nil {
		return Contract{}, err
	}
	amount, err := parseIntField(meta, metaAmountCents)
	if err != nil {
		return Contract{}, err
	}
	fee, err := parseIntField(meta, metaFeeCents)
	if err != nil {
		return Contract{}, err
	}

	currency := strings.TrimSpace(meta[metaCurrency])
	if currency == "" {
		return Contract{}, errors.New(errors.CodeValidation, fmt.Sprintf("contract metadata missing %s", metaCurrency))
	}

	issuedAt := time.Time{}
	if raw := strings.TrimSpace(meta[metaIssuedAt]); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return Contract{}, errors.Wrap(errors.CodeValidation, err, fmt.Sprintf("contract metadata invalid %s", metaIssuedAt))
		}
		issuedAt = parsed
	}

	contract := Contract{
		BuyerID:          buyerID,
		CreatorID:        creatorID,
		ProductID:        productID,
		ProductTitle:     meta[metaProductTitle],
		AmountCents:      amount,
		PlatformFeeCents: fee,
		Currency:         currency,
		IssuedAt:         issuedAt,
	}
	if err := contract.Validate(); err != nil {
		return Contract{}, err
	}
	return contract, nil
}

func parseUUIDField(meta map[string]string, key string) (uuid.UUID, error) {
	raw := strings.TrimSpace(meta[key])
	if raw == "" {
		return uuid.Nil, errors.New(errors.CodeValidation, fmt.Sprintf("contract metadata missing %s", key))
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.Wrap(errors.CodeValidation, err, fmt.Sprintf("contract metadata invalid %s", key))
	}
	return id, nil
}

func parseIntField(meta map[string]string, key string) (int64, error) {
	raw := strings.TrimSpace(meta[key])
	if raw == "" {
		return 0, errors.New(errors.CodeValidation, fmt.Sprintf("contract metadata missing %s", key))
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.Wrap(errors.CodeValidation, err, fmt.Sprintf("contract metadata invalid %s", key))
	}
	return value, nil
}
