package controllers

import (
	"context"
	"net/http"

	"github.com/crateful-app/crateful-backend/api/responses"
	"github.com/crateful-app/crateful-backend/internal/reconcile"
	pkgerrors "github.com/crateful-app/crateful-backend/pkg/errors"
	"github.com/crateful-app/crateful-backend/pkg/logger"
)

// ReconcileRunner is the surface the admin reconcile controller depends on.
type ReconcileRunner interface {
	Run(ctx context.Context) (reconcile.Report, error)
}

// AdminReconcileRun triggers an on-demand sweep of recent provider payment
// events. The scheduled worker does the same on a cadence; this exists for
// operators responding to a fulfillment incident.
func AdminReconcileRun(runner ReconcileRunner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if runner == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reconciler unavailable"))
			return
		}

		report, err := runner.Run(r.Context())
		if err != nil && report.Scanned == 0 {
			// the provider listing failed before the sweep covered anything
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reconcile sweep incomplete"))
			return
		}
		if err != nil && logg != nil {
			// per-event failures are counted in the report; the operator
			// still sees how far the sweep got
			logg.Error(r.Context(), "reconcile sweep had per-event failures", err)
		}

		responses.WriteSuccess(w, reconcileReportResponse{
			Scanned:  report.Scanned,
			Repaired: report.Repaired,
			Skipped:  report.Skipped,
			Failed:   report.Failed,
		})
	}
}

type reconcileReportResponse struct {
	Scanned  int `json:"scanned"`
	Repaired int `json:"repaired"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}
