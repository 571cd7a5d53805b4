package entitlements

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crateful-app/crateful-backend/pkg/db/models"
	"github.com/crateful-app/crateful-backend/pkg/enums"
	"github.com/crateful-app/crateful-backend/pkg/errors"
	"github.com/crateful-app/crateful-backend/pkg/logger"
	"github.com/crateful-app/crateful-backend/pkg/outbox"
	"github.com/crateful-app/crateful-backend/pkg/outbox/payloads"
	"github.com/crateful-app/crateful-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// indexWriter keeps one legacy read shape in sync with the canonical
// entitlements table. All writers run inside the grant/revoke transaction,
// so a partial fan-out is never observable.
type indexWriter struct {
	name   string
	grant  func(ctx context.Context, repo Repository, ent *models.Entitlement, contract Contract) error
	revoke func(ctx context.Context, repo Repository, ent *models.Entitlement, at time.Time) error
}

// ServiceParams groups dependencies for the entitlement service.
type ServiceParams struct {
	DB     txRunner
	Repo   Repository
	Outbox *outbox.Service
	Logger *logger.Logger
}

// Service owns every entitlement state change. Grants and revokes are the
// only writers of the entitlements table and its fan-out shapes.
type Service struct {
	db      txRunner
	repo    Repository
	outbox  *outbox.Service
	logg    *logger.Logger
	writers []indexWriter
}

// NewService builds an entitlement service with the standard fan-out writers.
func NewService(params ServiceParams) (*Service, error) {
	if params.DB == nil {
		return nil, errors.New(errors.CodeInternal, "database client is required")
	}
	if params.Repo == nil {
		return nil, errors.New(errors.CodeInternal, "entitlement repository is required")
	}
	if params.Outbox == nil {
		return nil, errors.New(errors.CodeInternal, "outbox service is required")
	}
	return &Service{
		db:      params.DB,
		repo:    params.Repo,
		outbox:  params.Outbox,
		logg:    params.Logger,
		writers: defaultIndexWriters(),
	}, nil
}

func defaultIndexWriters() []indexWriter {
	return []indexWriter{
		{
			name: "buyer_library_items",
			grant: func(ctx context.Context, repo Repository, ent *models.Entitlement, contract Contract) error {
				return repo.CreateLibraryItem(ctx, &models.BuyerLibraryItem{
					ID:               uuid.New(),
					BuyerID:          ent.BuyerID,
					ProductID:        ent.ProductID,
					CreatorID:        ent.CreatorID,
					ProductTitle:     contract.ProductTitle,
					PaymentReference: ent.PaymentReference,
					GrantedAt:        ent.GrantedAt,
				})
			},
			revoke: func(ctx context.Context, repo Repository, ent *models.Entitlement, at time.Time) error {
				return repo.MarkLibraryItemRevoked(ctx, ent.BuyerID, ent.PaymentReference, at)
			},
		},
		{
			name: "creator_sale_records",
			grant: func(ctx context.Context, repo Repository, ent *models.Entitlement, contract Contract) error {
				return repo.CreateSaleRecord(ctx, &models.CreatorSaleRecord{
					ID:               uuid.New(),
					CreatorID:        ent.CreatorID,
					ProductID:        ent.ProductID,
					BuyerID:          ent.BuyerID,
					PaymentReference: ent.PaymentReference,
					AmountCents:      ent.AmountCents,
					PlatformFeeCents: ent.PlatformFeeCents,
					NetCents:         ent.AmountCents - ent.PlatformFeeCents,
					Currency:         ent.Currency,
					SoldAt:           ent.GrantedAt,
				})
			},
			revoke: func(ctx context.Context, repo Repository, ent *models.Entitlement, at time.Time) error {
				return repo.MarkSaleRefunded(ctx, ent.CreatorID, ent.PaymentReference, at)
			},
		},
	}
}

// GrantParams carries the inputs for a grant. EventID is the provider event
// that triggered the grant; when set, the durable guard claims it inside the
// same transaction as the write.
type GrantParams struct {
	Contract         Contract
	PaymentReference string
	EventID          string
}

// Grant creates the canonical entitlement plus every fan-out shape in one
// transaction. Replays of the same event or payment reference are no-ops.
func (s *Service) Grant(ctx context.Context, params GrantParams) (*models.Entitlement, error) {
	if err := params.Contract.Validate(); err != nil {
		return nil, err
	}
	if params.PaymentReference == "" {
		return nil, errors.New(errors.CodeValidation, "payment reference is required")
	}

	var granted *models.Entitlement
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		now := time.Now().UTC()

		if params.EventID != "" {
			claimed, err := repo.ClaimEvent(ctx, params.EventID, params.PaymentReference, now)
			if err != nil {
				return errors.Wrap(errors.CodeDependency, err, "claiming event")
			}
			if !claimed {
				existing, err := repo.FindActive(ctx, params.Contract.BuyerID, params.Contract.ProductID)
				if err != nil {
					return errors.Wrap(errors.CodeDependency, err, "loading entitlement for duplicate event")
				}
				granted = existing
				if s.logg != nil {
					logCtx := s.logg.WithField(ctx, "event_id", params.EventID)
					s.logg.Info(logCtx, "event already processed, skipping grant")
				}
				return nil
			}
		}

		existing, err := repo.FindActive(ctx, params.Contract.BuyerID, params.Contract.ProductID)
		if err != nil {
			return errors.Wrap(errors.CodeDependency, err, "checking active entitlement")
		}
		if existing != nil {
			if existing.PaymentReference == params.PaymentReference {
				granted = existing
				return nil
			}
			return errors.New(errors.CodeConflict, "buyer already holds an active entitlement for this product")
		}

		ent := &models.Entitlement{
			ID:               uuid.New(),
			BuyerID:          params.Contract.BuyerID,
			ProductID:        params.Contract.ProductID,
			CreatorID:        params.Contract.CreatorID,
			PaymentReference: params.PaymentReference,
			AmountCents:      params.Contract.AmountCents,
			PlatformFeeCents: params.Contract.PlatformFeeCents,
			Currency:         params.Contract.Currency,
			Status:           enums.EntitlementStatusActive,
			GrantedAt:        now,
		}
		if err := repo.CreateEntitlement(ctx, ent); err != nil {
			return errors.Wrap(errors.CodeDependency, err, "creating entitlement")
		}

		for _, writer := range s.writers {
			if err := writer.grant(ctx, repo, ent, params.Contract); err != nil {
				return errors.Wrap(errors.CodeDependency, err, "fan-out write "+writer.name)
			}
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventEntitlementGranted,
			AggregateType: enums.AggregateEntitlement,
			AggregateID:   ent.ID,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.EntitlementGrantedEvent{
				EntitlementID:    ent.ID,
				BuyerID:          ent.BuyerID,
				ProductID:        ent.ProductID,
				CreatorID:        ent.CreatorID,
				PaymentReference: ent.PaymentReference,
				AmountCents:      ent.AmountCents,
				PlatformFeeCents: ent.PlatformFeeCents,
				Currency:         ent.Currency,
				GrantedAt:        ent.GrantedAt,
			},
		}); err != nil {
			return errors.Wrap(errors.CodeDependency, err, "emitting granted event")
		}

		granted = ent
		return nil
	})
	if err != nil {
		return nil, err
	}
	return granted, nil
}

// RevokeParams carries the inputs for a revoke triggered by a refund.
type RevokeParams struct {
	BuyerID   uuid.UUID
	ProductID uuid.UUID
	EventID   string
}

// Revoke flips the active entitlement to revoked and marks the fan-out
// shapes, never deleting rows. Revoking an already-revoked pair is a no-op.
func (s *Service) Revoke(ctx context.Context, params RevokeParams) error {
	if params.BuyerID == uuid.Nil || params.ProductID == uuid.Nil {
		return errors.New(errors.CodeValidation, "buyer and product ids are required")
	}

	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		now := time.Now().UTC()

		active, err := repo.FindActive(ctx, params.BuyerID, params.ProductID)
		if err != nil {
			return errors.Wrap(errors.CodeDependency, err, "checking active entitlement")
		}
		if active == nil {
			latest, err := repo.FindLatest(ctx, params.BuyerID, params.ProductID)
			if err != nil {
				return errors.Wrap(errors.CodeDependency, err, "checking entitlement history")
			}
			if latest != nil {
				// already revoked, nothing left to undo
				return nil
			}
			return errors.New(errors.CodeNotFound, "no entitlement to revoke")
		}

		if params.EventID != "" {
			claimed, err := repo.ClaimEvent(ctx, params.EventID, active.PaymentReference, now)
			if err != nil {
				return errors.Wrap(errors.CodeDependency, err, "claiming event")
			}
			if !claimed {
				return nil
			}
		}

		if err := repo.MarkRevoked(ctx, active.ID, now); err != nil {
			return errors.Wrap(errors.CodeDependency, err, "revoking entitlement")
		}
		for _, writer := range s.writers {
			if err := writer.revoke(ctx, repo, active, now); err != nil {
				return errors.Wrap(errors.CodeDependency, err, "fan-out revoke "+writer.name)
			}
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventEntitlementRevoked,
			AggregateType: enums.AggregateEntitlement,
			AggregateID:   active.ID,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.EntitlementRevokedEvent{
				EntitlementID:    active.ID,
				BuyerID:          active.BuyerID,
				ProductID:        active.ProductID,
				CreatorID:        active.CreatorID,
				PaymentReference: active.PaymentReference,
				RevokedAt:        now,
			},
		})
	})
}

// HasActive is the content-access check downstream services call before
// serving product content.
func (s *Service) HasActive(ctx context.Context, buyerID, productID uuid.UUID) (bool, error) {
	ent, err := s.repo.FindActive(ctx, buyerID, productID)
	if err != nil {
		return false, errors.Wrap(errors.CodeDependency, err, "checking entitlement")
	}
	return ent != nil, nil
}

// Library lists the buyer's non-revoked library items, newest first.
func (s *Service) Library(ctx context.Context, buyerID uuid.UUID, params pagination.Params) ([]models.BuyerLibraryItem, *pagination.Cursor, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, nil, errors.Wrap(errors.CodeValidation, err, "invalid cursor")
	}
	items, next, err := s.repo.ListLibrary(ctx, buyerID, params.Limit, cursor)
	if err != nil {
		return nil, nil, errors.Wrap(errors.CodeDependency, err, "listing library")
	}
	return items, next, nil
}
