package jobs

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"quest-market/internal/metrics"
	"quest-market/internal/services"
)

// Reconciler replays every user's ledger and reports balances that disagree
// with it. It only reads; fixing drift is left to an operator.
type Reconciler struct {
	ledger  *services.LedgerService
	timeout time.Duration
	cron    *cron.Cron
}

// NewReconciler creates a reconciler; timeout bounds a single pass
func NewReconciler(ledger *services.LedgerService, timeout time.Duration) *Reconciler {
	return &Reconciler{
		ledger:  ledger,
		timeout: timeout,
	}
}

// RunOnce performs a single reconciliation pass and returns the drifted users
func (r *Reconciler) RunOnce(ctx context.Context) ([]services.BalanceDrift, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	drifts, err := r.ledger.Reconcile(ctx)
	if err != nil {
		log.WithError(err).Error("[Reconciler] Reconciliation failed")
		return nil, err
	}

	metrics.SetDriftedUsers(len(drifts))

	for _, d := range drifts {
		log.WithFields(log.Fields{
			"username":       d.Username,
			"balance":        d.Balance.String(),
			"ledger_balance": d.LedgerBalance.String(),
			"difference":     d.Balance.Sub(d.LedgerBalance).String(),
		}).Error("[Reconciler] Balance does not match ledger")
	}

	log.WithFields(log.Fields{
		"drifted":  len(drifts),
		"duration": time.Since(start).String(),
	}).Info("[Reconciler] Reconciliation pass finished")

	return drifts, nil
}

// Start schedules RunOnce on a cron spec such as "@every 15m" or "0 3 * * *"
func (r *Reconciler) Start(schedule string) error {
	r.cron = cron.New()

	_, err := r.cron.AddFunc(schedule, func() {
		_, _ = r.RunOnce(context.Background())
	})
	if err != nil {
		return fmt.Errorf("invalid reconcile schedule %q: %w", schedule, err)
	}

	log.WithField("schedule", schedule).Info("[Reconciler] Starting reconciliation job")
	r.cron.Start()
	return nil
}

// Stop stops the schedule and waits for a running pass to finish
func (r *Reconciler) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
	log.Info("[Reconciler] Stopping reconciliation job")
}

// MetricsServer serves /metrics on addr so the drift gauge set by RunOnce can
// be scraped from the reconciler process.
func MetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
