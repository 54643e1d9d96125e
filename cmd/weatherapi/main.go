package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"moul.io/chizap"

	"github.com/osmacan/weather-api/internal/auth"
	"github.com/osmacan/weather-api/internal/config"
	"github.com/osmacan/weather-api/internal/database"
	"github.com/osmacan/weather-api/internal/token"
	"github.com/osmacan/weather-api/internal/user"
	"github.com/osmacan/weather-api/internal/weather"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Warn("no .env file loaded", zap.Error(err))
	}

	cfg, err := config.LoadConfig(logger)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	db, err := database.Init(cfg.DbConfig)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	database.SetMigrationLogger(logger)
	if err := database.Migrate(context.Background(), db); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	userRepo := user.NewRepo(db, logger)
	tokenService := token.NewService(logger, cfg.JWTConfig)

	blacklist := token.NewBlacklist(logger)
	go blacklist.Run(ctx, cfg.BlacklistConfig.SweepInterval)

	verifier := auth.NewCredentialVerifier(userRepo, logger)
	throttle := auth.NewThrottle(cfg.ThrottleConfig, logger)
	authService := auth.NewService(userRepo, verifier, throttle, tokenService, logger)
	gate := auth.NewMiddleware(tokenService, blacklist, logger)
	authHandler := auth.NewHandler(authService, blacklist, gate, logger)

	weatherClient := weather.NewClient(cfg.WeatherConfig, logger)
	weatherHandler := weather.NewHandler(weatherClient, userRepo, gate, logger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chizap.New(logger, &chizap.Opts{WithReferer: false, WithUserAgent: true}))
	r.Use(chimiddleware.Recoverer)
	r.Use(securityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.AppConfig.FrontendOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	// coarse per-IP limit on the auth surface; the precise per-account
	// lockout lives in the login throttle
	r.With(httprate.LimitByIP(30, time.Minute)).Mount("/api/auth", authHandler.Routes())
	r.Mount("/api/weather", weatherHandler.Routes())

	srv := &http.Server{
		Addr:         ":" + cfg.AppConfig.Port,
		Handler:      r,
		ReadTimeout:  cfg.AppConfig.ReadTimeout,
		WriteTimeout: cfg.AppConfig.WriteTimeout,
		IdleTimeout:  cfg.AppConfig.IdleTimeout,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.AppConfig.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		next.ServeHTTP(w, r)
	})
}
