// shop-mock serves the shop listing and login endpoints the storefront client
// talks to, backed by seeded in-memory data or Postgres.
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

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/MikeMC777/storefront/internal/config"
	"github.com/MikeMC777/storefront/internal/logging"
	"github.com/MikeMC777/storefront/internal/shopapi"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "shop-mock: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	var (
		addr        string
		requireAuth bool
		seed        bool
		logLevel    string
	)
	fs := pflag.NewFlagSet("shop-mock", pflag.ContinueOnError)
	fs.StringVar(&addr, "addr", cfg.MockAddr, "listen address")
	fs.BoolVar(&requireAuth, "require-auth", false, "reject /shops requests without a valid bearer token")
	fs.BoolVar(&seed, "seed", true, "load the demo catalogue (Postgres: only into an empty database)")
	fs.StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return err
	}

	log, err := logging.New(logLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if logLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	// Prices go out as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shops, users, closeRepo, err := openRepos(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeRepo()
	if seed {
		if err := seedIfEmpty(ctx, shops, log); err != nil {
			return err
		}
	}
	_, err = shopapi.Register(ctx, users, "demo", cfg.MockUserEmail, cfg.MockUserPassword)
	if err != nil && !errors.Is(err, shopapi.ErrAlreadyExist) {
		return fmt.Errorf("register demo user: %w", err)
	}

	s := &shopapi.Server{
		Shops:       shops,
		Users:       users,
		Tokens:      shopapi.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL, nil),
		Log:         log,
		RequireAuth: requireAuth,
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("shop-mock listening",
			zap.String("addr", addr),
			zap.Bool("require_auth", requireAuth),
			zap.String("demo_user", cfg.MockUserEmail),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openRepos(ctx context.Context, cfg config.Config, log *zap.Logger) (shopapi.Repository, shopapi.UserRepository, func(), error) {
	if cfg.PostgresDSN == "" {
		log.Info("using in-memory repositories")
		return shopapi.NewMemRepo(), shopapi.NewMemoryUsers(), func() {}, nil
	}
	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("ping postgres: %w", err)
	}
	log.Info("using postgres repositories")
	return shopapi.NewPGRepo(pool), shopapi.NewPGUsers(pool), pool.Close, nil
}

func seedIfEmpty(ctx context.Context, repo shopapi.Repository, log *zap.Logger) error {
	_, total, err := repo.List(ctx, shopapi.Query{Limit: 1, Page: 1})
	if err != nil {
		return fmt.Errorf("count shops: %w", err)
	}
	if total > 0 {
		log.Info("repository already has shops, skipping seed", zap.Int("shops", total))
		return nil
	}
	if err := shopapi.Seed(ctx, repo); err != nil {
		return err
	}
	log.Info("seeded demo catalogue", zap.Int("shops", len(shopapi.SeedShops())))
	return nil
}
