package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"kindred-match/internal/config"
	"kindred-match/internal/db"
	"kindred-match/internal/email"
	"kindred-match/internal/embedding"
	apihttp "kindred-match/internal/http"
	"kindred-match/internal/metrics"
	"kindred-match/internal/repository"
	"kindred-match/internal/service"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	userRepo := repository.NewPgUserRepository(pool)
	profileRepo := repository.NewPgProfileRepository(pool)
	entityRepo := repository.NewPgEntityRepository(pool)
	interactionRepo := repository.NewPgInteractionRepository(pool)

	provider := embedding.NewHTTPClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel, zap.NewStdLog(logger))

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	var (
		otpLimiter  service.OTPRateLimiter
		tokenStore  service.RefreshTokenStore
		recoCache   service.RecommendationCache
		redisClient *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			otpLimiter = service.NewRedisOTPRateLimiter(redisClient, 10*time.Minute, 3)
			tokenStore = service.NewRedisRefreshTokenStore(redisClient)
			recoCache = service.NewRedisRecommendationCache(redisClient)
		}
		cancel()
	}
	if recoCache == nil {
		recoCache = service.NewMemoryRecommendationCache()
	}

	jwtSvc := service.NewJWTServiceWithStore(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		tokenStore,
	)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}

	registry := prometheus.NewRegistry()
	stats := metrics.NewMetrics()
	if err := stats.Register(registry); err != nil {
		logger.Warn("metrics register failed", zap.Error(err))
	}

	weights := service.DefaultScoringWeights()
	traitEngine := service.NewTraitEngine(weights)
	scorer := service.NewHybridScorer(weights)
	cfSvc := service.NewCFService(profileRepo, interactionRepo, logger)
	recoOpts := service.RecommendationOptions{
		NeighborLimit: cfg.CFNeighborLimit,
		SimThreshold:  cfg.CFSimThreshold,
		CacheTTL:      time.Duration(cfg.RecoCacheSeconds) * time.Second,
	}
	recoSvc := service.NewRecommendationService(profileRepo, entityRepo, interactionRepo, cfSvc, scorer, recoCache, stats, recoOpts, logger)

	embeddingSvc := service.NewProfileEmbeddingService(profileRepo, entityRepo, interactionRepo, logger)
	interactionSvc := service.NewInteractionService(profileRepo, interactionRepo, embeddingSvc, logger)
	onboardingSvc := service.NewOnboardingService(profileRepo, entityRepo, provider, traitEngine, logger)
	userSvc := service.NewUserService(logger, userRepo, profileRepo, emailSender, otpLimiter)
	reminderSvc := service.NewReminderService(entityRepo, interactionRepo, profileRepo, userRepo, emailSender, logger)

	// Barrido periodico de recordatorios de plazos.
	go func() {
		ticker := time.NewTicker(6 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			sent, err := reminderSvc.SendDue(ctx)
			if err != nil {
				logger.Warn("deadline reminder sweep failed", zap.Error(err))
				continue
			}
			if sent > 0 {
				logger.Info("deadline reminders sent", zap.Int("count", sent))
			}
		}
	}()

	userHandler := apihttp.NewUserHandler(logger, userSvc, jwtSvc)
	profileHandler := apihttp.NewProfileHandler(logger, profileRepo, onboardingSvc)
	interactionHandler := apihttp.NewInteractionHandler(logger, interactionSvc)
	recoHandler := apihttp.NewRecommendationHandler(logger, recoSvc)
	router := apihttp.NewRouter(logger, jwtSvc, userHandler, profileHandler, interactionHandler, recoHandler, registry)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
