package cron

import (
	"context"
	"fmt"

	"github.com/crateful-app/crateful-backend/internal/reconcile"
	"github.com/crateful-app/crateful-backend/pkg/logger"
)

type reconcileRunner interface {
	Run(ctx context.Context) (reconcile.Report, error)
}

// EntitlementReconcileJobParams configures the entitlement repair job.
type EntitlementReconcileJobParams struct {
	Logger     *logger.Logger
	Reconciler reconcileRunner
}

// NewEntitlementReconcileJob wraps the reconciler sweep as a scheduled job.
func NewEntitlementReconcileJob(params EntitlementReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reconciler == nil {
		return nil, fmt.Errorf("reconciler required")
	}
	return &entitlementReconcileJob{
		logg:       params.Logger,
		reconciler: params.Reconciler,
	}, nil
}

type entitlementReconcileJob struct {
	logg       *logger.Logger
	reconciler reconcileRunner
}

func (j *entitlementReconcileJob) Name() string { return "entitlement-reconcile" }

func (j *entitlementReconcileJob) Run(ctx context.Context) error {
	report, err := j.reconciler.Run(ctx)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"scanned":  report.Scanned,
		"repaired": report.Repaired,
		"skipped":  report.Skipped,
		"failed":   report.Failed,
	})
	if err != nil {
		j.logg.Error(logCtx, "entitlement reconcile sweep had failures", err)
		return fmt.Errorf("entitlement reconcile: %w", err)
	}
	j.logg.Info(logCtx, "entitlement reconcile sweep clean")
	return nil
}
