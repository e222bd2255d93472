package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/fairsplit/fairsplit/docs"
	"github.com/fairsplit/fairsplit/internal/cache"
	"github.com/fairsplit/fairsplit/internal/config"
	"github.com/fairsplit/fairsplit/internal/database"
	"github.com/fairsplit/fairsplit/internal/expense"
	expensesplit "github.com/fairsplit/fairsplit/internal/expense/split"
	"github.com/fairsplit/fairsplit/internal/group"
	"github.com/fairsplit/fairsplit/internal/notification"
	"github.com/fairsplit/fairsplit/internal/settlement"
	"github.com/fairsplit/fairsplit/internal/user"
	"github.com/fairsplit/fairsplit/pkg/logging"
	mw "github.com/fairsplit/fairsplit/pkg/middleware"
	"github.com/fairsplit/fairsplit/pkg/response"
)

// @title        fairsplit API
// @version      1.0
// @description  Group expense splitting with balance aggregation, debt simplification, and settlements.
// @BasePath     /api/v1
//
// @securityDefinitions.apikey  UserID
// @in                          header
// @name                        X-User-ID
func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.LogFormat, cfg.LogLevel)

	db, err := database.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to database")

	// The cache is optional. Without Redis every balance read recomputes
	// from the database.
	var (
		groupCache         group.Cache
		expenseInvalidator expense.Invalidator
		settleInvalidator  settlement.Invalidator
	)
	if c, err := cache.New(context.Background(), cfg.RedisAddr, cfg.BalanceCacheTTL); err != nil {
		slog.Warn("redis unavailable, balance caching disabled", "addr", cfg.RedisAddr, "error", err)
	} else {
		defer c.Close()
		groupCache = c
		expenseInvalidator = c
		settleInvalidator = c
		slog.Info("connected to redis", "addr", cfg.RedisAddr)
	}

	splitFactory := expensesplit.NewFactory()

	// Notification feature
	notificationRepo := notification.NewRepository(db)
	notificationService := notification.NewService(notificationRepo)
	notificationHandler := notification.NewHandler(notificationService)

	// User feature
	userRepo := user.NewRepository(db)
	userService := user.NewService(userRepo)
	userHandler := user.NewHandler(userService)

	// Expense repository is shared: the group service reads expense
	// history for balances, the settlement service locks splits.
	expenseRepo := expense.NewRepository(db)

	// Group feature
	groupRepo := group.NewRepository(db)
	groupService := group.NewService(groupRepo, expenseRepo, groupCache, notificationService)
	groupHandler := group.NewHandler(groupService)

	// Expense feature
	expenseService := expense.NewService(expenseRepo, groupService, splitFactory, expenseInvalidator, notificationService)
	expenseHandler := expense.NewHandler(expenseService)

	// Settlement feature
	settlementRepo := settlement.NewRepository(db)
	settlementService := settlement.NewService(settlementRepo, expenseRepo, settleInvalidator, notificationService)
	settlementHandler := settlement.NewHandler(settlementService)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(httprate.LimitByIP(cfg.RateLimit, time.Minute))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			response.Error(w, http.StatusServiceUnavailable, "UNAVAILABLE", "database unreachable")
			return
		}
		response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.RequireUser)

		r.Mount("/users", userHandler.Routes())
		r.Mount("/groups", groupHandler.Routes())
		r.Mount("/expenses", expenseHandler.Routes())
		r.Mount("/settlements", settlementHandler.Routes())
		r.Mount("/notifications", notificationHandler.Routes())
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
}
