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

	"github.com/go-redis/redis/v8"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "itemstore: %v\n", err)
		os.Exit(1)
	}
	logger := newLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	ctx := context.Background()

	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("could not open store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	n, err := scanStore(ctx, store)
	if err != nil {
		logger.Error("store scan failed", "backend", cfg.StoreBackend, "error", err)
		_ = store.Close()
		os.Exit(1)
	}
	logger.Info("store opened", "backend", cfg.StoreBackend, "items", n)

	auth, err := NewAuthenticator(cfg)
	if err != nil {
		logger.Error("invalid auth configuration", "error", err)
		os.Exit(1)
	}

	handler := NewHandler(NewService(store), logger)
	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler.Routes(auth),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("server is listening", "addr", server.Addr, "backend", cfg.StoreBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errc:
		logger.Error("could not listen", "error", err)
	}
	logger.Info("server is shutting down")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}

// openStore opens the configured durable backend.
func openStore(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.StoreBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connect to redis (%s): %w", cfg.RedisAddr, err)
		}
		return NewRedisStore(client), nil
	default:
		return OpenSQLiteStore(ctx, cfg.SQLitePath)
	}
}

// scanStore decodes every stored record once and refuses to start on the
// first corrupt one.
func scanStore(ctx context.Context, store Store) (int, error) {
	var n int
	for _, err := range store.Iterate(ctx) {
		if err != nil {
			return n, integrityError("scan store", err)
		}
		n++
	}
	return n, nil
}
