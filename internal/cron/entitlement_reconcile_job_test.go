package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/crateful-app/crateful-backend/internal/reconcile"
	"github.com/crateful-app/crateful-backend/pkg/logger"
)

type stubReconciler struct {
	report reconcile.Report
	err    error
	runs   int
}

func (s *stubReconciler) Run(context.Context) (reconcile.Report, error) {
	s.runs++
	return s.report, s.err
}

func TestEntitlementReconcileJobRunsSweep(t *testing.T) {
	rec := &stubReconciler{report: reconcile.Report{Scanned: 3, Repaired: 1, Skipped: 2}}
	job, err := NewEntitlementReconcileJob(EntitlementReconcileJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "cron-test"}),
		Reconciler: rec,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if job.Name() != "entitlement-reconcile" {
		t.Fatalf("unexpected job name %q", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run job: %v", err)
	}
	if rec.runs != 1 {
		t.Fatalf("expected one sweep, got %d", rec.runs)
	}
}

func TestEntitlementReconcileJobPropagatesFailures(t *testing.T) {
	rec := &stubReconciler{err: errors.New("provider unavailable")}
	job, err := NewEntitlementReconcileJob(EntitlementReconcileJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "cron-test"}),
		Reconciler: rec,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected sweep failure to surface")
	}
}
