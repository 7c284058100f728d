package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/trustchain-backend/api/routes"
	"github.com/angelmondragon/trustchain-backend/internal/admission"
	"github.com/angelmondragon/trustchain-backend/internal/ledger"
	"github.com/angelmondragon/trustchain-backend/internal/orders"
	"github.com/angelmondragon/trustchain-backend/internal/payments"
	"github.com/angelmondragon/trustchain-backend/internal/penalties"
	"github.com/angelmondragon/trustchain-backend/internal/products"
	"github.com/angelmondragon/trustchain-backend/internal/risk"
	"github.com/angelmondragon/trustchain-backend/pkg/config"
	"github.com/angelmondragon/trustchain-backend/pkg/db"
	"github.com/angelmondragon/trustchain-backend/pkg/logger"
	"github.com/angelmondragon/trustchain-backend/pkg/metrics"
	"github.com/angelmondragon/trustchain-backend/pkg/migrate"
	"github.com/angelmondragon/trustchain-backend/pkg/multichain"
	"github.com/angelmondragon/trustchain-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i].Close())
		}
	}()

	// The admission gate cannot serve without a valid model.
	scorer, err := risk.Load(cfg.Scorer.ArtifactPath)
	if err != nil {
		return err
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	closers = append(closers, dbClient)

	if err := migrate.MaybeRun(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		closers = append(closers, redisClient)
	} else {
		logg.Warn(ctx, "redis not configured, idempotency and rate limiting disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var rpc ledger.RPC
	if cfg.Ledger.Enabled {
		node, err := multichain.NewClient(cfg.Ledger.URL(),
			multichain.WithBasicAuth(cfg.Ledger.User, cfg.Ledger.Password),
			multichain.WithChainName(cfg.Ledger.ChainName),
			multichain.WithTimeout(cfg.Ledger.RequestTimeout),
		)
		if err != nil {
			return err
		}
		rpc = node
	}
	ledgerSvc := ledger.NewService(rpc, ledger.Options{
		Streams: ledger.Streams{Products: cfg.Ledger.ProductStream, Orders: cfg.Ledger.OrderStream},
		Timeout: cfg.Ledger.RequestTimeout,
		Logger:  logg,
		Metrics: metrics.NewLedgerMetrics(registry),
	})
	if err := ledgerSvc.Init(ctx); err != nil {
		logg.WarnErr(ctx, "ledger unavailable, starting in offline mode", err)
	}

	conn := dbClient.DB()
	productRepo := products.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)

	penaltySvc, err := penalties.NewService(penalties.NewRepository(conn), cfg.Admission.BlockThreshold)
	if err != nil {
		return err
	}
	productSvc, err := products.NewService(productRepo)
	if err != nil {
		return err
	}
	admissionSvc, err := admission.NewService(admission.ServiceParams{
		TxRunner:  dbClient,
		Products:  productRepo,
		Scorer:    scorer,
		Penalties: penaltySvc,
		Publisher: ledgerSvc,
		Logger:    logg,
		Metrics:   metrics.NewAdmissionMetrics(registry),
	})
	if err != nil {
		return err
	}
	orderSvc, err := orders.NewService(orders.ServiceParams{
		TxRunner: dbClient,
		Repo:     orderRepo,
		Products: productRepo,
		Ledger:   ledgerSvc,
		Logger:   logg,
	})
	if err != nil {
		return err
	}
	paymentSvc, err := payments.NewService(payments.ServiceParams{
		TxRunner: dbClient,
		Repo:     payments.NewRepository(conn),
		Orders:   orderRepo,
		Products: productRepo,
		Logger:   logg,
		Metrics:  metrics.NewSettlementMetrics(registry),
	})
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Params{
			Config:    cfg,
			Logger:    logg,
			DB:        dbClient,
			Redis:     redisClient,
			Ledger:    ledgerSvc,
			Metrics:   registry,
			Admission: admissionSvc,
			Products:  productSvc,
			Penalties: penaltySvc,
			Orders:    orderSvc,
			Payments:  paymentSvc,
		}),
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":    cfg.App.Env,
		"addr":   addr,
		"ledger": ledgerSvc.Online(),
	})
	logg.Info(logCtx, "starting api server")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		logg.Info(logCtx, "shutting down api server")
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
