package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/accounthq/accounts-api/internal/api"
	"github.com/accounthq/accounts-api/internal/core/domain"
	"github.com/accounthq/accounts-api/internal/core/ports"
	"github.com/accounthq/accounts-api/internal/core/service"
	"github.com/accounthq/accounts-api/internal/infrastructure/config"
	mongodb "github.com/accounthq/accounts-api/internal/infrastructure/db/mongo"
	redisdb "github.com/accounthq/accounts-api/internal/infrastructure/db/redis"
	"github.com/accounthq/accounts-api/internal/infrastructure/hash"
	"github.com/accounthq/accounts-api/pkg/logger"
)

// @title        Accounts API
// @version      1.0
// @description  User account lifecycle service with role-based access control.
func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		panic(err)
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	accountRepo := mongodb.NewAccountRepository(db)
	if err := accountRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("index creation failed")
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	hasher := hash.NewBcryptHasher(cfg.BcryptCost)
	locks := redisdb.NewKeyLock(rdb, cfg.Redis.LockTTL)
	accounts := service.NewAccountService(accountRepo, hasher, locks, log)

	if err := seedAdmin(ctx, accounts, cfg.Admin, log); err != nil {
		log.Fatal().Err(err).Msg("admin bootstrap failed")
	}

	e := api.NewRouter(api.RouterConfig{
		Accounts:  accounts,
		Hasher:    hasher,
		JWTSecret: cfg.JWTSecret,
		Mongo:     db,
		Redis:     rdb,
		Logger:    log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info().Msg("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		return
	}
	log.Info().Msg("shutdown complete")
}

// seedAdmin creates the bootstrap ADMIN account from the environment when one
// is configured and not yet present. An existing holder of the username or
// email is left untouched.
func seedAdmin(ctx context.Context, accounts ports.AccountService, cfg config.AdminConfig, log zerolog.Logger) error {
	if cfg.Username == "" || cfg.Email == "" || cfg.Password == "" {
		return nil
	}

	_, err := accounts.Create(ctx, ports.CreateAccountInput{
		Username: cfg.Username,
		Email:    cfg.Email,
		Password: cfg.Password,
		Role:     domain.RoleAdmin,
	})
	if errors.Is(err, domain.ErrDuplicateUsername) || errors.Is(err, domain.ErrDuplicateEmail) {
		return nil
	}
	if err != nil {
		return err
	}
	log.Info().Str("username", cfg.Username).Msg("bootstrap admin account created")
	return nil
}
