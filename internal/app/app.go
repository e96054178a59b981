package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tour-booking-api/internal/config"
	"tour-booking-api/internal/database"
	"tour-booking-api/internal/handler"
	"tour-booking-api/internal/mailer"
	"tour-booking-api/internal/middleware"
	"tour-booking-api/internal/model"
	"tour-booking-api/internal/query"
	"tour-booking-api/internal/repository"
	"tour-booking-api/internal/router"
	"tour-booking-api/internal/service"
)

type App struct {
	server       *http.Server
	db           *database.DB
	cleanupFuncs []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	handler.Configure(cfg.Env)

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	tourRepo := repository.NewTourRepository(pool)
	reviewRepo := repository.NewReviewRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	slog.Info("database ready")

	var mail mailer.Mailer = mailer.LogMailer{}
	if cfg.SMTPHost != "" {
		mail = mailer.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	}

	auditService := service.NewAuditService(auditRepo)
	tokenService := service.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	passwordService := service.NewPasswordService(cfg.BcryptCost, cfg.ResetTTL, userRepo)
	authService := service.NewAuthService(tokenService, passwordService, userRepo, mail, auditService, cfg.AppBaseURL)

	authMiddleware := middleware.NewAuthMiddleware(tokenService, userRepo)
	authHandler := handler.NewAuthHandler(authService, cfg.CookieTTL, cfg.Production())
	userHandler := handler.NewUserHandler(userRepo, auditService)
	userResource := handler.NewResource[model.User](userRepo, "user", "users", capLimit(repository.UserQuery, cfg.QueryMaxLimit))
	tourHandler := handler.NewTourHandler(tourRepo, capLimit(repository.TourQuery, cfg.QueryMaxLimit))
	reviewResource := handler.NewReviewResource(reviewRepo, capLimit(repository.ReviewQuery, cfg.QueryMaxLimit))
	auditHandler := handler.NewAuditHandler(auditService, capLimit(repository.AuditQuery, cfg.QueryMaxLimit))

	appRouter := router.New(cfg, authMiddleware, authHandler, userHandler,
		userResource, tourHandler, reviewResource, auditHandler)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      appRouter,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		db:     db,
		cleanupFuncs: []func(){
			db.Close,
		},
	}, nil
}

func capLimit(opts query.Options, maxLimit int) query.Options {
	opts.MaxLimit = maxLimit
	return opts
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	slog.Info("server stopped")
	return nil
}
