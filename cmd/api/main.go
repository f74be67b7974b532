package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/emilythestrangee/postboard/backend/internal/auth"
	"github.com/emilythestrangee/postboard/backend/internal/config"
	"github.com/emilythestrangee/postboard/backend/internal/database"
	"github.com/emilythestrangee/postboard/backend/internal/logging"
	"github.com/emilythestrangee/postboard/backend/internal/repository"
	"github.com/emilythestrangee/postboard/backend/internal/server"
	"github.com/emilythestrangee/postboard/backend/internal/service"
	"github.com/emilythestrangee/postboard/backend/internal/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	logger := logging.New(cfg.AppName, cfg.Env)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	db, err := database.New(cfg, logger)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	defer func() { _ = db.Close() }()

	rdb := database.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		logger.Fatalf("token service: %v", err)
	}

	repo := repository.NewGormRepository(db.GetDB(), cfg.DBTimeout, logger)

	srv := server.New(server.Deps{
		Config:   cfg,
		Logger:   logger,
		Accounts: service.NewAccountService(repo, tokens, logger),
		Content:  service.NewContentService(repo, logger),
		Tokens:   tokens,
		DB:       db,
		Redis:    rdb,
	}).HTTPServer()

	go func() {
		logger.Infof("server starting on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("server forced to shutdown: %v", err)
		return
	}
	logger.Info("server exited properly")
}
