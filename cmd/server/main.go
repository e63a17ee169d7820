package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finlearn/internal/config"
	"finlearn/internal/database"
	"finlearn/internal/handlers"
	"finlearn/internal/logger"
	"finlearn/internal/notify"
	"finlearn/internal/repository"
	"finlearn/internal/scheduler"
	"finlearn/internal/security"
	"finlearn/internal/service"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", "error", err)
	}

	startup := handlers.NewStartupStatus()
	responder := handlers.NewResponder(log, cfg.IsDevelopment())

	// Initialize database with config (supports sqlite, postgres, mysql)
	startup.SetCurrentStep(handlers.StepDatabase)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal("failed to initialize database", "error", err)
	}
	defer db.Close()
	startup.CompleteStep(handlers.StepDatabase)
	log.Info("database connection established", "type", cfg.DatabaseType)

	// Run migrations
	startup.SetCurrentStep(handlers.StepMigrations)
	ctx := context.Background()
	applied, err := db.RunMigrations(ctx, cfg.MigrationsPath)
	if err != nil {
		log.Fatal("failed to run migrations", "error", err)
	}
	startup.CompleteStep(handlers.StepMigrations)
	log.Info("migrations completed", "applied", len(applied))

	// Initialize services
	startup.SetCurrentStep(handlers.StepServices)

	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	lessonRepo := repository.NewLessonRepository(db)

	emailService, err := service.NewEmailService(ctx, service.EmailConfig{
		AWSRegion:  cfg.AWSRegion,
		FromEmail:  cfg.SESFromEmail,
		FromName:   cfg.SESFromName,
		AppBaseURL: cfg.AppBaseURL,
		Debug:      cfg.EmailDebug,
	}, log)
	if err != nil {
		log.Fatal("failed to initialize email service", "error", err)
	}

	jwt := security.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	authService := service.NewAuthService(userRepo, tokenRepo, jwt, emailService, log)

	hub := notify.NewHub(cfg.CORSAllowedOrigins, log)
	progressionService := service.NewProgressionService(db, service.ProgressionOptions{
		LevelXPStep: cfg.LevelXPStep,
		StreakGrace: cfg.StreakGrace(),
	}, hub, log)
	lessonService := service.NewLessonService(lessonRepo)

	limiter, stopLimiter := newLimiter(ctx, cfg, log)
	defer stopLimiter()

	jobs := scheduler.New(authService, log)
	if err := jobs.Start(); err != nil {
		log.Fatal("failed to start scheduler", "error", err)
	}

	oauthProviders := map[string]handlers.OAuthProvider{
		"google": {
			Name:  "google",
			Label: "Google",
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     google.Endpoint,
				Scopes:       []string{"openid", "email", "profile"},
			},
			UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		},
		"github": {
			Name:  "github",
			Label: "GitHub",
			Config: &oauth2.Config{
				ClientID:     cfg.GitHubClientID,
				ClientSecret: cfg.GitHubClientSecret,
				Endpoint:     github.Endpoint,
				Scopes:       []string{"read:user", "user:email"},
			},
			UserInfoURL: "https://api.github.com/user",
			EmailsURL:   "https://api.github.com/user/emails",
		},
	}

	// Initialize handlers
	middleware := handlers.NewMiddleware(authService, limiter, log)
	authHandler := handlers.NewAuthHandler(authService, oauthProviders, security.NewStateSigner(cfg.JWTSecret), cfg.OAuthRedirectBaseURL, cfg.AppBaseURL, responder)
	progressionHandler := handlers.NewProgressionHandler(progressionService, responder)
	lessonHandler := handlers.NewLessonHandler(lessonService, responder)
	notificationHandler := handlers.NewNotificationHandler(hub)
	healthHandler := handlers.NewHealthHandler(db, startup, responder)
	startup.CompleteStep(handlers.StepServices)

	// Setup routes
	mux := http.NewServeMux()

	// Probes
	mux.HandleFunc("GET /healthz", healthHandler.Healthz)
	mux.HandleFunc("GET /readyz", healthHandler.Readyz)

	// Auth routes
	mux.HandleFunc("POST /api/v1/auth/signup", middleware.RateLimit(authHandler.Signup))
	mux.HandleFunc("POST /api/v1/auth/signin", middleware.RateLimit(authHandler.Signin))
	mux.HandleFunc("POST /api/v1/auth/signout", authHandler.Signout)
	mux.HandleFunc("POST /api/v1/auth/refresh-token", middleware.RateLimit(authHandler.RefreshToken))
	mux.HandleFunc("GET /api/v1/auth/verify-email/{token}", authHandler.VerifyEmail)
	mux.HandleFunc("POST /api/v1/auth/resend-verification", middleware.RateLimit(authHandler.ResendVerification))
	mux.HandleFunc("POST /api/v1/auth/reset-password", middleware.RateLimit(authHandler.RequestPasswordReset))
	mux.HandleFunc("GET /api/v1/auth/reset-password/{token}", authHandler.ValidateResetToken)
	mux.HandleFunc("POST /api/v1/auth/reset-password/{token}", middleware.RateLimit(authHandler.ResetPassword))
	mux.HandleFunc("GET /api/v1/auth/providers", authHandler.Providers)
	mux.HandleFunc("GET /api/v1/auth/{provider}/start", authHandler.StartOAuth)
	mux.HandleFunc("GET /api/v1/auth/{provider}/callback", authHandler.OAuthCallback)

	// Gamification routes
	mux.HandleFunc("GET /api/v1/education/gamification/summary", middleware.RequireAuth(progressionHandler.Summary))
	mux.HandleFunc("POST /api/v1/education/gamification/complete-module", middleware.RequireAuth(progressionHandler.CompleteModule))
	mux.HandleFunc("POST /api/v1/education/gamification/achievement", middleware.RequireAuth(progressionHandler.UnlockAchievement))
	mux.HandleFunc("GET /api/v1/education/gamification/achievements", middleware.RequireAuth(progressionHandler.Achievements))
	mux.HandleFunc("GET /api/v1/education/gamification/achievements/catalog", middleware.RequireAuth(progressionHandler.AchievementCatalog))
	mux.HandleFunc("GET /api/v1/education/gamification/skill-trees", middleware.RequireAuth(progressionHandler.SkillTrees))
	mux.HandleFunc("POST /api/v1/education/gamification/skill-tree", middleware.RequireAuth(progressionHandler.UpdateSkillTree))

	// Stats routes
	mux.HandleFunc("GET /api/v1/education/stats", middleware.RequireAuth(progressionHandler.Stats))
	mux.HandleFunc("PUT /api/v1/education/stats", middleware.RequireAuth(progressionHandler.UpdateStats))
	mux.HandleFunc("POST /api/v1/education/stats/add-xp", middleware.RequireAuth(progressionHandler.AddXP))
	mux.HandleFunc("GET /api/v1/education/stats/check-streak", middleware.RequireAuth(progressionHandler.CheckStreak))

	// Lesson routes
	mux.HandleFunc("GET /api/v1/education/lessons", lessonHandler.List)
	mux.HandleFunc("GET /api/v1/education/lessons/{id}", lessonHandler.Get)
	mux.HandleFunc("POST /api/v1/education/lessons", middleware.RequireAuth(lessonHandler.Create))

	// Notifications
	mux.HandleFunc("GET /api/v1/notifications/ws", middleware.RequireAuth(notificationHandler.Serve))

	handler := handlers.Chain(mux,
		handlers.Recover(log),
		handlers.Logging(log),
		handlers.CORS(cfg.CORSAllowedOrigins),
	)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", "error", err)
		}
	}()
	startup.MarkReady()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	jobs.Stop()
	hub.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

// newLimiter shares counters through Redis when REDIS_URL is set and falls
// back to the in-process limiter otherwise.
func newLimiter(ctx context.Context, cfg *config.Config, log *logger.Logger) (security.Limiter, func()) {
	if cfg.RedisURL != "" {
		limiter, err := security.NewRedisRateLimiter(ctx, cfg.RedisURL, cfg.RateLimitRequests, cfg.RateLimitWindow)
		if err == nil {
			log.Info("rate limiter using redis")
			return limiter, func() { _ = limiter.Close() }
		}
		log.Warn("redis rate limiter unavailable, using in-memory limiter", "error", err)
	}
	limiter := security.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	return limiter, limiter.Stop
}
