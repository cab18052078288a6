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
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicore/auth-service/pkg/auth"
	authapi "github.com/clinicore/auth-service/pkg/auth/api"
	"github.com/clinicore/auth-service/pkg/config"
	"github.com/clinicore/auth-service/pkg/device"
	"github.com/clinicore/auth-service/pkg/notification"
	"github.com/clinicore/auth-service/pkg/password"
	"github.com/clinicore/auth-service/pkg/profile"
	profileapi "github.com/clinicore/auth-service/pkg/profile/api"
	"github.com/clinicore/auth-service/pkg/provider/apple"
	"github.com/clinicore/auth-service/pkg/provider/google"
	"github.com/clinicore/auth-service/pkg/resetcode"
	"github.com/clinicore/auth-service/pkg/tokenauth"
	"github.com/clinicore/auth-service/pkg/user"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	accessTTL, err := tokenauth.ParseTTL(cfg.JWT.TTL)
	if err != nil {
		slog.Error("Invalid JWT_EXPIRES_IN", "err", err)
		os.Exit(1)
	}

	userRepo, deviceRepo := buildRepositories(ctx, cfg)

	hasher := password.NewBcryptHasher()
	tokens := tokenauth.NewJwtTokenService(cfg.JWT.Secret, cfg.JWT.Issuer)
	codes := resetcode.NewTTLStore()
	defer codes.Stop()

	notifier := buildNotifier(cfg)

	opts := []auth.Option{
		auth.WithAccessTokenTTL(accessTTL),
		auth.WithDeviceService(device.NewService(deviceRepo)),
	}
	if cfg.Google.Enabled {
		verifier, err := google.NewIDTokenVerifier(ctx, cfg.Google.Audiences())
		if err != nil {
			slog.Error("Failed to initialize Google verifier", "err", err)
			os.Exit(1)
		}
		opts = append(opts, auth.WithGoogleVerifier(verifier))
		slog.Info("Google login enabled", "audiences", len(cfg.Google.Audiences()))
	}
	if cfg.Apple.Enabled() {
		verifier, err := apple.NewVerifier(ctx, apple.Config{
			BundleID:   cfg.Apple.BundleID,
			TeamID:     cfg.Apple.TeamID,
			KeyID:      cfg.Apple.KeyID,
			PrivateKey: cfg.Apple.NormalizedPrivateKey(),
		})
		if err != nil {
			slog.Error("Failed to initialize Apple verifier", "err", err)
			os.Exit(1)
		}
		opts = append(opts, auth.WithAppleVerifier(verifier))
		slog.Info("Apple biometric login enabled", "bundleID", cfg.Apple.BundleID)
	}

	authService := auth.NewService(userRepo, hasher, tokens, codes, notifier, opts...)
	profileService := profile.NewService(userRepo, hasher)
	tokenAuth := jwtauth.New("HS256", []byte(cfg.JWT.Secret), nil)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Mount("/auth", authapi.Handler(authapi.NewAuthHandler(authService)))
	r.Mount("/users", profileapi.Handler(profileapi.NewProfileHandler(profileService), tokenAuth))

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("auth service listening", "addr", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "err", err)
	}
}

// buildRepositories selects Postgres-backed repositories when DATABASE_URL
// is set, in-memory ones otherwise.
func buildRepositories(ctx context.Context, cfg config.Config) (user.Repository, device.Repository) {
	if cfg.Database.URL == "" {
		slog.Warn("DATABASE_URL not set, using in-memory repositories")
		return user.NewInMemRepository(), device.NewInMemRepository()
	}

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		slog.Error("Failed to create database pool", "err", err)
		os.Exit(1)
	}
	if err := pool.Ping(ctx); err != nil {
		slog.Error("Failed to reach database", "err", err)
		os.Exit(1)
	}
	slog.Info("connected to database")
	return user.NewPostgresRepository(pool), device.NewPostgresRepository(pool)
}

// buildNotifier returns the SMTP notifier when email is configured, a mock
// that only records sends otherwise.
func buildNotifier(cfg config.Config) notification.Notifier {
	if !cfg.Email.Enabled() {
		slog.Warn("Email not configured, reset codes will only be logged")
		return notification.NewMockNotifier()
	}
	notifier, err := notification.NewEmailNotifier(notification.SMTPConfig{
		Host:     cfg.Email.Host,
		Port:     cfg.Email.Port,
		TLS:      cfg.Email.UseTLS,
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
	})
	if err != nil {
		slog.Error("Failed to create email notifier", "err", err)
		os.Exit(1)
	}
	return notifier
}
