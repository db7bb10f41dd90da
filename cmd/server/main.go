// Command server wires the HTTP API: auth, registrations, the credit
// ledger, payment verification and document export. Infrastructure is
// optional by configuration; anything not configured degrades to the
// in-memory implementation so the service boots in development with no
// environment at all.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	authHandler "github.com/SmartForm247/EasyForm2/internal/auth/handler"
	authService "github.com/SmartForm247/EasyForm2/internal/auth/service"
	authStore "github.com/SmartForm247/EasyForm2/internal/auth/store"
	authMemory "github.com/SmartForm247/EasyForm2/internal/auth/store/memory"
	authPostgres "github.com/SmartForm247/EasyForm2/internal/auth/store/postgres"
	"github.com/SmartForm247/EasyForm2/internal/auth/token"
	"github.com/SmartForm247/EasyForm2/internal/export"
	ledgerHandler "github.com/SmartForm247/EasyForm2/internal/ledger/handler"
	ledgerService "github.com/SmartForm247/EasyForm2/internal/ledger/service"
	ledgerMemory "github.com/SmartForm247/EasyForm2/internal/ledger/store/memory"
	ledgerPostgres "github.com/SmartForm247/EasyForm2/internal/ledger/store/postgres"
	"github.com/SmartForm247/EasyForm2/internal/payment"
	"github.com/SmartForm247/EasyForm2/internal/platform/config"
	"github.com/SmartForm247/EasyForm2/internal/platform/httpserver"
	"github.com/SmartForm247/EasyForm2/internal/platform/kafka"
	"github.com/SmartForm247/EasyForm2/internal/platform/logger"
	"github.com/SmartForm247/EasyForm2/internal/platform/metrics"
	platformRedis "github.com/SmartForm247/EasyForm2/internal/platform/redis"
	regHandler "github.com/SmartForm247/EasyForm2/internal/registration/handler"
	regService "github.com/SmartForm247/EasyForm2/internal/registration/service"
	regMemory "github.com/SmartForm247/EasyForm2/internal/registration/store/memory"
	regPostgres "github.com/SmartForm247/EasyForm2/internal/registration/store/postgres"
	audit "github.com/SmartForm247/EasyForm2/pkg/platform/audit"
	auditOps "github.com/SmartForm247/EasyForm2/pkg/platform/audit/publishers/ops"
	auditMemory "github.com/SmartForm247/EasyForm2/pkg/platform/audit/store/memory"
	auditPostgres "github.com/SmartForm247/EasyForm2/pkg/platform/audit/store/postgres"
	auditWorker "github.com/SmartForm247/EasyForm2/pkg/platform/audit/worker"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("open database", "error", err)
			os.Exit(1)
		}
		if err := db.PingContext(ctx); err != nil {
			log.Error("ping database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		log.Info("database connected")
	} else {
		log.Warn("no database configured, using in-memory stores")
	}

	redisClient, err := platformRedis.New(cfg.Redis())
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		log.Info("redis connected")
	}

	var producer *kafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = kafka.NewProducer(cfg.KafkaBrokers, log)
		if err != nil {
			log.Error("connect kafka", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		log.Info("kafka connected", "brokers", cfg.KafkaBrokers)
	}

	group, groupCtx := errgroup.WithContext(ctx)

	// Audit events are persisted in memory for the in-process trail; when
	// a database is configured a worker drains a copy into postgres off
	// the request path. The kafka sink feeds ops dashboards.
	var sinks []audit.Sink
	if db != nil {
		inbox := make(chan audit.Event, 256)
		sinks = append(sinks, chanSink(inbox))
		worker := auditWorker.NewWorker(auditPostgres.New(db), inbox)
		group.Go(func() error {
			err := worker.Run(groupCtx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	if opsSink, err := auditOps.NewKafkaPublisher(ctx, producer, log); err != nil {
		log.Error("create ops audit publisher", "error", err)
		os.Exit(1)
	} else if opsSink != nil {
		sinks = append(sinks, opsSink)
	}
	auditor := audit.NewPublisher(auditMemory.New(), sinks...)

	tokens := token.NewService(cfg.JWTSigningKey, "easyform")

	var users authStore.UserStore
	var sessions authStore.SessionStore
	if db != nil {
		pg := authPostgres.New(db)
		users, sessions = pg, pg
	} else {
		mem := authMemory.New()
		users, sessions = mem, mem
	}
	auth := authService.New(users, sessions, tokens,
		authService.WithLogger(log),
		authService.WithAuditPublisher(auditor),
	)

	var ledgerStore ledgerService.Store
	if db != nil {
		ledgerStore = ledgerPostgres.New(db)
	} else {
		ledgerStore = ledgerMemory.New()
	}
	ledger := ledgerService.New(ledgerStore,
		ledgerService.WithLogger(log),
		ledgerService.WithMetrics(m),
		ledgerService.WithAuditPublisher(auditor),
	)

	paymentOpts := []payment.Option{
		payment.WithLogger(log),
		payment.WithMetrics(m),
		payment.WithAuditPublisher(auditor),
	}
	if redisClient != nil {
		paymentOpts = append(paymentOpts, payment.WithRedis(redisClient.Client))
	}
	payments := payment.New(
		payment.NewClient(cfg.PaystackBaseURL, cfg.PaystackSecret),
		ledger,
		paymentOpts...,
	)

	regOpts := []regService.Option{
		regService.WithLogger(log),
		regService.WithMetrics(m),
		regService.WithAuditPublisher(auditor),
	}
	if db != nil {
		regOpts = append(regOpts, regService.WithDocumentStore(regPostgres.NewDocumentStore(db)))
	}
	registrations := regService.New(regMemory.New(), regOpts...)

	router := chi.NewRouter()
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	router.Handle("/metrics", promhttp.Handler())

	authHandler.New(auth, log, m, tokens).Register(router)
	ledgerHandler.New(ledger, log, m, tokens).Register(router)
	payment.NewHandler(payments, log, m).Register(router)
	regHandler.New(registrations, log, m, tokens).Register(router)

	if cfg.MinioEndpoint != "" {
		minioClient, err := minio.New(cfg.MinioEndpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
			Secure: cfg.MinioUseSSL,
		})
		if err != nil {
			log.Error("connect minio", "error", err)
			os.Exit(1)
		}
		exporter := export.New(
			registrations,
			ledger,
			export.NewChromeRenderer(),
			export.NewMinioStore(minioClient, cfg.MinioBucket),
			export.WithLogger(log),
			export.WithMetrics(m),
			export.WithAuditPublisher(auditor),
		)
		export.NewHandler(exporter, log, m, tokens).Register(router)
		log.Info("export enabled", "bucket", cfg.MinioBucket)
	} else {
		log.Warn("no object storage configured, export disabled")
	}

	srv := httpserver.New(cfg.Addr, router)

	group.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// chanSink adapts an audit inbox channel to the publisher's sink
// interface. Drops when the inbox is full rather than blocking a request.
type chanSink chan<- audit.Event

func (c chanSink) Publish(_ context.Context, event audit.Event) error {
	select {
	case c <- event:
		return nil
	default:
		return errors.New("audit inbox full")
	}
}
