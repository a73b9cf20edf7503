package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nholding/esgroll/internal/config"
	"github.com/nholding/esgroll/internal/esg/aggregation"
	"github.com/nholding/esgroll/internal/esg/catalog"
	"github.com/nholding/esgroll/internal/esg/job"
	"github.com/nholding/esgroll/internal/esg/rollup"
	"github.com/nholding/esgroll/internal/esg/store"
	"github.com/nholding/esgroll/internal/httpapi"
)

func main() {
	log := logrus.NewEntry(logrus.StandardLogger())
	logrus.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	recordStore, archiver, err := buildStore(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to build record store")
	}

	catalogClient := catalog.New(catalog.Config{
		BaseURL:     cfg.CatalogBaseURL,
		DevFallback: cfg.CatalogDevFallback || cfg.IsDevelopment(),
	}, log)

	aggEngine := aggregation.New(recordStore, log)
	rollEngine := rollup.New(recordStore, log)

	handlers := map[job.Kind]job.Handler{
		job.KindAggregation: func(ctx context.Context, companyID string) error {
			company, err := catalogClient.GetCompany(ctx, companyID)
			if err != nil {
				return err
			}
			return aggEngine.Run(ctx, company)
		},
		job.KindRollup: func(ctx context.Context, companyID string) error {
			company, err := catalogClient.GetCompany(ctx, companyID)
			if err != nil {
				return err
			}
			return rollEngine.Run(ctx, company)
		},
	}

	listCompanies := func(ctx context.Context) ([]string, error) {
		companies, err := catalogClient.ListCompanies(ctx)
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(companies))
		for _, c := range companies {
			ids = append(ids, c.ID)
		}
		return ids, nil
	}

	coordinator := job.NewCoordinator(cfg.WorkerPoolSize, handlers, listCompanies, log)
	defer coordinator.Shutdown()
	coordinator.SetArchiver(archiver)

	if cfg.SchedulerCronExpr != "" {
		scheduler := job.NewScheduler(coordinator, log)
		if err := scheduler.Start(ctx, cfg.SchedulerCronExpr); err != nil {
			log.WithError(err).Fatal("failed to start scheduler")
		}
		defer scheduler.Stop()
	}

	server := httpapi.NewServer(cfg.HTTPAddr, httpapi.Dependencies{
		Coordinator: coordinator,
		Store:       recordStore,
		Catalog:     catalogClient,
	}, log)

	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("starting HTTP control plane")
		if err := server.ListenAndServe(); err != nil {
			log.WithError(err).Error("HTTP server stopped")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}

func buildStore(ctx context.Context, cfg config.Config, log *logrus.Entry) (store.Store, *job.Archiver, error) {
	if cfg.IsDevelopment() && cfg.DBEndpoint == "" {
		log.Warn("DB_ENDPOINT not configured, using in-memory store (development only)")
		return store.NewMemory(), nil, nil
	}

	clients, err := store.NewClients(ctx, &store.ClientConfig{
		Profile:      cfg.AWSProfile,
		S3BucketName: cfg.S3ArchiveBucket,
		Region:       cfg.AWSRegion,
		DBInstanceID: cfg.DBInstanceID,
		DBEndpoint:   cfg.DBEndpoint,
		DBUser:       cfg.DBUser,
		DBName:       cfg.DBName,
		DBPort:       cfg.DBPort,
	})
	if err != nil {
		return nil, nil, err
	}

	var archiver *job.Archiver
	if cfg.S3ArchiveBucket != "" {
		archiver = job.NewArchiver(clients.S3, cfg.S3ArchiveBucket)
	}

	return store.NewPostgres(clients.RDS), archiver, nil
}
