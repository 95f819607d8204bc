package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/fkhayef/splitledger/internal/config"
	"github.com/fkhayef/splitledger/internal/database"
	"github.com/fkhayef/splitledger/internal/expense"
	"github.com/fkhayef/splitledger/internal/group"
	"github.com/fkhayef/splitledger/internal/settlement"
	"github.com/fkhayef/splitledger/internal/user"
	"github.com/fkhayef/splitledger/pkg/logger"
	"github.com/fkhayef/splitledger/pkg/metrics"
)

// @title           Split Ledger API
// @version         1.0
// @description     Group expense ledger: log shared expenses, see who owes whom and get the fewest payments that settle up.
// @host            localhost:8080
// @BasePath        /api/v1
func main() {
	// Load .env file
	envErr := godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Options{ServiceName: "splitledger-api"}).Ctx(context.Background()).Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.New(logger.Options{
		ServiceName: "splitledger-api",
		Level:       logger.ParseLevel(cfg.LogLevel),
		Format:      cfg.LogFormat,
	})
	base := log.Ctx(context.Background())
	if envErr != nil {
		base.Info().Msg("no .env file found, using environment variables")
	}
	if err := cfg.Validate(); err != nil {
		base.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database connection
	db, err := database.NewPostgresConnection(ctx, cfg.DatabaseURL, database.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		base.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	base.Info().Msg("connected to database")

	if cfg.MigrateOnStart {
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			base.Fatal().Err(err).Msg("failed to run migrations")
		}
		base.Info().Msg("migrations applied")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	ledgerMetrics := metrics.NewLedgerMetrics(registry)

	// User feature
	userRepo := user.NewRepository(db)
	userService := user.NewService(userRepo)
	userHandler := user.NewHandler(userService, log)

	// Group feature
	groupRepo := group.NewRepository(db)
	groupService := group.NewService(groupRepo, cfg.Currency(), log)
	groupHandler := group.NewHandler(groupService, log)

	// Expense feature
	expenseRepo := expense.NewRepository(db)
	expenseService := expense.NewService(expenseRepo, userService, groupService, cfg.Currency(), log, ledgerMetrics)
	expenseHandler := expense.NewHandler(expenseService, log)

	// Settlement and balance feature
	settlementRepo := settlement.NewRepository(db)
	settlementService := settlement.NewService(settlementRepo, userService, groupService, cfg.Currency(), log, ledgerMetrics)
	settlementHandler := settlement.NewHandler(settlementService, log)

	router := newRouter(log, registry, handlers{
		users:       userHandler,
		groups:      groupHandler,
		expenses:    expenseHandler,
		settlements: settlementHandler,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		base.Info().Msg("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			base.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	// Start server
	base.Info().Str("port", cfg.Port).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		base.Error().Err(err).Msg("server failed")
		db.Close()
		os.Exit(1)
	}
	base.Info().Msg("server stopped")
}
