package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"github.com/ovaphlow/pitchfork/service-fasting-go/internal/auth"
	authrepo "github.com/ovaphlow/pitchfork/service-fasting-go/internal/auth/repo"
	"github.com/ovaphlow/pitchfork/service-fasting-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-fasting-go/internal/fasting"
	fastingrepo "github.com/ovaphlow/pitchfork/service-fasting-go/internal/fasting/repo"
	"github.com/ovaphlow/pitchfork/service-fasting-go/internal/router"
	"github.com/ovaphlow/pitchfork/service-fasting-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-fasting-go/pkg/utilities"
)

func main() {
	// load .env file if present so os.Getenv picks values from it
	_ = godotenv.Load()

	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("starting service-fasting-go")

	cfg, err := config.Load("")
	if err != nil {
		sugar.Fatalf("config: %v", err)
	}

	tokens, err := auth.NewTokenIssuer(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.GetTokenTTL())
	if err != nil {
		sugar.Fatalf("auth: %v", err)
	}

	sqlDB, err := database.Connect(database.ConfigFromEnv())
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer sqlDB.Close()

	// wrap with sqlx for convenience in repos/services
	db := sqlx.NewDb(sqlDB, "postgres")

	authSvc := auth.NewService(authrepo.NewUserRepo(db), auth.BcryptHasher{Cost: cfg.Auth.BcryptCost}, tokens)
	fastingSvc := fasting.NewService(
		fastingrepo.NewSessionRepo(db),
		fastingrepo.NewLogRepo(db),
		fastingrepo.NewAchievementRepo(db),
		cfg.Coach,
		sugar,
	)

	handler := router.RegisterRoutes(sugar, router.Deps{
		BasePath: cfg.Server.BasePath,
		Auth:     auth.NewHandler(authSvc, sugar),
		Fasting:  fasting.NewHandler(fastingSvc, sugar),
		Tokens:   tokens,
		DB:       db,
	})
	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: handler,
	}

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		sugar.Infow("http server listening", "addr", cfg.Server.Addr, "base_path", cfg.Server.BasePath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()

	<-ctx.Done()

	sugar.Info("shutting down")

	doneCtx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}
