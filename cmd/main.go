package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/YmidOrtega/Clinica-sub000/config"
	"github.com/YmidOrtega/Clinica-sub000/db"
	"github.com/YmidOrtega/Clinica-sub000/internal/auth/handler"
	pgrepo "github.com/YmidOrtega/Clinica-sub000/internal/auth/repository/postgres"
	redisrepo "github.com/YmidOrtega/Clinica-sub000/internal/auth/repository/redis"
	"github.com/YmidOrtega/Clinica-sub000/internal/auth/service"
	"github.com/YmidOrtega/Clinica-sub000/internal/logger"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := db.NewPostgresPool(ctx, cfg.DBURL)
	if err != nil {
		log.Fatal("postgres connection failed", zap.Error(err))
	}
	defer dbPool.Close()

	redisClient, err := db.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal("redis connection failed", zap.Error(err))
	}
	defer redisClient.Close()

	accountRepo := pgrepo.NewAccountRepository(dbPool)
	refreshTokenRepo := pgrepo.NewRefreshTokenRepository(dbPool)
	attemptRepo := pgrepo.NewLoginAttemptRepository(dbPool)
	auditRepo := pgrepo.NewAuditEventRepository(dbPool)
	revocationStore := redisrepo.NewRevocationStore(redisClient, log)

	tokenService, err := service.NewTokenServiceFromFiles(
		cfg.JWTPrivateKeyFile, cfg.JWTPublicKeyFile, cfg.JWTIssuer,
		cfg.AccessTokenTTL, cfg.RefreshTokenTTL, revocationStore)
	if err != nil {
		log.Fatal("token service init failed", zap.Error(err))
	}

	lockoutService := service.NewLockoutService(accountRepo, attemptRepo, log,
		cfg.MaxLoginAttempts, cfg.LockoutDuration, cfg.RecentAttemptWindow)
	auditRecorder := service.NewAuditRecorder(auditRepo, log)
	defer auditRecorder.Close()

	authService := service.NewAuthService(accountRepo, refreshTokenRepo, attemptRepo,
		revocationStore, tokenService, lockoutService,
		service.NewAgePasswordPolicy(cfg.PasswordMaxAge), auditRecorder, log,
		cfg.MaxActiveSessions)

	sweeper := service.NewSweeper(refreshTokenRepo, attemptRepo, log,
		cfg.TokenSweepInterval, cfg.TokenSweepGrace,
		cfg.AttemptSweepInterval, cfg.AttemptRetention)
	go sweeper.Run(ctx)

	authHandler := handler.NewAuthHandler(authService, tokenService)

	app := fiber.New()
	handler.RegisterRoutes(app, authHandler)

	go func() {
		<-ctx.Done()
		if err := app.Shutdown(); err != nil {
			log.Error("server shutdown failed", zap.Error(err))
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
