package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pizzastore/accounts"
	"pizzastore/cache"
	"pizzastore/catalog"
	"pizzastore/config"
	"pizzastore/console"
	"pizzastore/gateway"
	"pizzastore/handlers"
	"pizzastore/logger"
	"pizzastore/middleware"
	"pizzastore/orders"
	"pizzastore/routes"
	"pizzastore/tracing"
)

const usage = `usage: pizzastore [flags] [shell|serve|migrate]

  shell    interactive console (default)
  serve    HTTP API
  migrate  create or update the database tables and exit`

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "pizzastore:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, args, err := config.FromArgs(os.Args[1:], os.LookupEnv)
	if err != nil {
		return err
	}
	command := "shell"
	if len(args) > 0 {
		command = args[0]
	}
	switch command {
	case "shell", "serve", "migrate":
	default:
		fmt.Fprintln(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
	if err := cfg.Validate(command); err != nil {
		return err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Spans go to stderr in the shell so they do not interleave with menus.
	var traceOut io.Writer = os.Stdout
	if command == "shell" {
		traceOut = os.Stderr
	}
	shutdown, err := tracing.Setup(cfg.Tracing.Enabled, traceOut)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			log.Warn("tracer shutdown", zap.Error(err))
		}
	}()

	gw, err := gateway.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer gw.Close()
	if err := gw.Migrate(); err != nil {
		return err
	}
	log.Info("database ready", zap.String("driver", cfg.Database.Driver))
	if command == "migrate" {
		return nil
	}

	var menuCache catalog.Cache
	if cfg.Redis.Addr != "" {
		rdb, err := cache.Connect(ctx, cfg.Redis)
		if err != nil {
			log.Warn("redis unavailable, menu cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			defer rdb.Close()
			menuCache = cache.NewRedis(rdb, cfg.Redis.TTL)
			log.Info("menu cache enabled", zap.String("addr", cfg.Redis.Addr))
		}
	}

	dir := accounts.New(gw, log.Named("accounts"))
	cat := catalog.New(gw, menuCache, log.Named("catalog"))
	eng := orders.New(gw, log.Named("orders"))

	if command == "shell" {
		err := console.New(os.Stdin, os.Stdout, dir, cat, eng, log.Named("console")).Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	h := &handlers.Handler{
		Accounts: dir,
		Catalog:  cat,
		Orders:   eng,
		Tokens:   middleware.NewTokens([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL),
		Gateway:  gw,
	}
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           routes.NewEngine(h, log.Named("http")),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return serve(ctx, srv, log)
}

// serve runs srv until it fails or ctx is cancelled, then drains in-flight
// requests.
func serve(ctx context.Context, srv *http.Server, log *zap.Logger) error {
	errc := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
