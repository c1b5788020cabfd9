package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"quest-market/internal/config"
	"quest-market/internal/database"
	"quest-market/internal/jobs"
	"quest-market/internal/repository"
	"quest-market/internal/services"
)

func main() {
	schedule := flag.String("schedule", "", "cron spec to run on (defaults to RECONCILE_SCHEDULE)")
	once := flag.Bool("once", false, "run one pass and exit; exit status 1 when drift is found")
	timeout := flag.Duration("timeout", 2*time.Minute, "upper bound for a single pass")
	metricsAddr := flag.String("metrics-addr", "", "address serving /metrics while scheduled (defaults to RECONCILE_METRICS_ADDR)")
	flag.Parse()

	cfg, err := config.Parse()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.ConfigureLogging()

	if err := database.Connect(cfg.Database.Driver, cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	repo := repository.NewRepository(database.GetDB())
	reconciler := jobs.NewReconciler(services.NewLedgerService(repo), *timeout)

	if *once {
		drifts, err := reconciler.RunOnce(context.Background())
		if err != nil {
			os.Exit(2)
		}
		if len(drifts) > 0 {
			os.Exit(1)
		}
		return
	}

	spec := *schedule
	if spec == "" {
		spec = cfg.Jobs.ReconcileSchedule
	}
	addr := *metricsAddr
	if addr == "" {
		addr = cfg.Jobs.ReconcileMetricsAddr
	}
	srv := jobs.MetricsServer(addr)
	go func() {
		log.Infof("Reconciler metrics listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Metrics server error: %v", err)
		}
	}()

	if err := reconciler.Start(spec); err != nil {
		log.Fatalf("Failed to start reconciler: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	reconciler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Metrics server shutdown: %v", err)
	}
}
