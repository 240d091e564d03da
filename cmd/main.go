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

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"gorm.io/gorm"

	"github.com/gymmatch/manager-api/internal/auth"
	"github.com/gymmatch/manager-api/internal/compensation"
	"github.com/gymmatch/manager-api/internal/config"
	"github.com/gymmatch/manager-api/internal/notification"
	"github.com/gymmatch/manager-api/internal/payout"
	"github.com/gymmatch/manager-api/internal/permissions"
	"github.com/gymmatch/manager-api/internal/rbac"
	"github.com/gymmatch/manager-api/internal/report"
	"github.com/gymmatch/manager-api/internal/user"
	"github.com/gymmatch/manager-api/internal/utils"
	"github.com/gymmatch/manager-api/internal/utils/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})).
		With("service", "gymmatch-manager-api")
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := auth.InitKeys(); err != nil {
		logger.Error("load signing key", "error", err)
		os.Exit(1)
	}

	database, err := db.Connect(ctx, db.Options{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		Name:     cfg.DBName,
		SecretID: cfg.DBSecretID,
	})
	if err != nil {
		logger.Error("connect database", "error", err)
		os.Exit(1)
	}
	if err := migrate(database); err != nil {
		logger.Error("auto migrate", "error", err)
		os.Exit(1)
	}

	var firebase *auth.FirebaseVerifier
	if cfg.FirebaseProjectID != "" {
		verifier, endJWKS, err := auth.NewRemoteFirebaseVerifier(cfg.FirebaseProjectID, logger)
		if err != nil {
			logger.Warn("firebase tokens disabled", "error", err)
		} else {
			firebase = verifier
			defer endJWKS()
		}
	}

	matrix := rbac.DefaultMatrix()
	router := newRouter(cfg, database, matrix, firebase, logger)

	handler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", utils.RequestIDHeader},
		ExposedHeaders:   []string{utils.RequestIDHeader},
		AllowCredentials: true,
	}).Handler(utils.RequestLogger(logger)(router))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("stopped")
}

func migrate(database *gorm.DB) error {
	if err := auth.Migrate(database); err != nil {
		return err
	}
	if err := compensation.Migrate(database); err != nil {
		return err
	}
	if err := payout.Migrate(database); err != nil {
		return err
	}
	return database.AutoMigrate(&user.User{})
}

func newRouter(cfg *config.Config, database *gorm.DB, matrix *rbac.Matrix, firebase *auth.FirebaseVerifier, logger *slog.Logger) *mux.Router {
	userHandler := user.NewHandler(database, logger)

	policyStore := compensation.NewRepository(database)
	policyHandler := compensation.NewHandler(policyStore, logger)

	alerts := notification.NewWebhook(cfg.AlertWebhookURL, logger)
	reportService := report.NewService(compensation.Source{Store: policyStore, DefaultTiers: cfg.DefaultTiers}, alerts, logger)
	reportHandler := report.NewHandler(reportService, logger)
	reportHandler.DefaultTiers = cfg.DefaultTiers

	payoutHandler := payout.NewHandler(payout.NewRepository(database), reportService, logger)
	permissionHandler := permissions.NewHandler(matrix)

	r := mux.NewRouter()

	// Public
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }).Methods(http.MethodGet)
	r.HandleFunc("/.well-known/jwks.json", auth.JWKSHandler).Methods(http.MethodGet)
	r.HandleFunc("/auth/login", userHandler.Login).Methods(http.MethodPost)
	r.HandleFunc("/auth/refresh", auth.RefreshHTTPHandler(database, userHandler.AccountActive)).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", auth.LogoutHTTPHandler(database)).Methods(http.MethodPost)

	// Authenticated
	api := r.NewRoute().Subrouter()
	api.Use(auth.Middleware(firebase, logger))

	guard := func(resource rbac.Resource, permission rbac.Permission, h http.HandlerFunc) http.Handler {
		return auth.RequirePermission(matrix, resource, permission)(h)
	}

	// Users
	api.HandleFunc("/users/me", userHandler.Me).Methods(http.MethodGet)
	api.Handle("/users", guard(rbac.ResourceUsers, rbac.PermRead, userHandler.List)).Methods(http.MethodGet)
	api.Handle("/users", guard(rbac.ResourceUsers, rbac.PermCreate, userHandler.Create)).Methods(http.MethodPost)
	api.Handle("/users/{id}/role", guard(rbac.ResourceUsers, rbac.PermUpdate, userHandler.ChangeRole)).Methods(http.MethodPatch)
	api.Handle("/users/{id}", guard(rbac.ResourceUsers, rbac.PermUpdate, userHandler.Update)).Methods(http.MethodPatch)
	api.Handle("/users/{id}", guard(rbac.ResourceUsers, rbac.PermDelete, userHandler.Delete)).Methods(http.MethodDelete)

	// Compensation policies
	api.Handle("/compensation/policies", guard(rbac.ResourceRevenue, rbac.PermRead, policyHandler.List)).Methods(http.MethodGet)
	api.Handle("/compensation/policies", guard(rbac.ResourceRevenue, rbac.PermManage, policyHandler.Create)).Methods(http.MethodPost)
	api.Handle("/compensation/policies/{id}", guard(rbac.ResourceRevenue, rbac.PermRead, policyHandler.Get)).Methods(http.MethodGet)
	api.Handle("/compensation/policies/{id}", guard(rbac.ResourceRevenue, rbac.PermManage, policyHandler.Update)).Methods(http.MethodPut)
	api.Handle("/compensation/policies/{id}", guard(rbac.ResourceRevenue, rbac.PermManage, policyHandler.Delete)).Methods(http.MethodDelete)
	api.Handle("/compensation/trainers/{trainerId}/effective", guard(rbac.ResourceRevenue, rbac.PermRead, policyHandler.Effective)).Methods(http.MethodGet)

	// Revenue engine
	api.Handle("/revenue/distribution", guard(rbac.ResourceRevenue, rbac.PermRead, reportHandler.Distribution)).Methods(http.MethodPost)
	api.Handle("/revenue/simulate", guard(rbac.ResourceRevenue, rbac.PermRead, reportHandler.Simulate)).Methods(http.MethodPost)
	// manager and above
	api.Handle("/revenue/compare", auth.RequireMinimumRole(rbac.RoleManager)(guard(rbac.ResourceRevenue, rbac.PermRead, reportHandler.Compare))).Methods(http.MethodPost)
	api.Handle("/revenue/target", guard(rbac.ResourceRevenue, rbac.PermRead, reportHandler.Target)).Methods(http.MethodPost)
	api.Handle("/revenue/compensation-types", guard(rbac.ResourceRevenue, rbac.PermRead, reportHandler.CompensationTypes)).Methods(http.MethodGet)

	// Payouts
	api.Handle("/payouts", guard(rbac.ResourceAccounting, rbac.PermRead, payoutHandler.List)).Methods(http.MethodGet)
	api.Handle("/payouts", guard(rbac.ResourceAccounting, rbac.PermCreate, payoutHandler.Create)).Methods(http.MethodPost)
	api.Handle("/payouts/{id}/status", guard(rbac.ResourceAccounting, rbac.PermUpdate, payoutHandler.UpdateStatus)).Methods(http.MethodPatch)

	// Permissions
	api.Handle("/permissions/matrix", guard(rbac.ResourcePermissions, rbac.PermRead, permissionHandler.MatrixTable)).Methods(http.MethodGet)
	api.HandleFunc("/permissions/roles", permissionHandler.Roles).Methods(http.MethodGet)
	api.HandleFunc("/permissions/me", permissionHandler.Me).Methods(http.MethodGet)
	api.HandleFunc("/permissions/check", permissionHandler.Check).Methods(http.MethodPost)

	return r
}
