package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "arena-server:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, srv, err := LoadConfig(os.Args[1:])
	if err != nil {
		return err
	}

	logger, err := newLogger(srv.LogLevel, srv.LogFormat)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var db *DB
	var analytics *Analytics
	opts := []GameOption{}
	if srv.DBPath != "" {
		db, err = OpenDB(srv.DBPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		analytics = NewAnalytics(db, logger)
		defer analytics.Stop()
		opts = append(opts, WithTracker(analytics))
	}

	auth, err := NewAuth(db, srv.AdminPassword, srv.JWTSecret, bcrypt.DefaultCost, logger)
	if err != nil {
		return err
	}

	game := NewGame(cfg, logger, opts...)
	hub := NewHub(game, srv, logger)
	go hub.Run(ctx)
	go game.Run(ctx)

	server := &http.Server{
		Addr:              srv.Addr,
		Handler:           NewServer(srv, game, hub, auth, analytics, logger).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("static", srv.StaticDir),
			zap.Bool("admin", auth.Enabled()),
			zap.Int("tick_rate", cfg.TickRate))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
	return nil
}
