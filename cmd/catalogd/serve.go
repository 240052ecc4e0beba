package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/mobit-catalog/internal/delivery/telegram"
	"github.com/yourusername/mobit-catalog/internal/delivery/web"
)

const (
	shutdownTimeout = 10 * time.Second
	expireInterval  = 10 * time.Minute
)

var httpAddr string

// serveCmd starts the web UI and the optional Telegram bot
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the catalog web UI",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&httpAddr, "addr", "", "listen address (overrides HTTP_ADDR)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.close()

	addr := a.cfg.HTTPAddr
	if httpAddr != "" {
		addr = httpAddr
	}

	handler := web.NewHandler(a.catalog, a.images, a.search, web.Options{
		MaxUploadBytes:  a.cfg.MaxUploadBytes,
		MaxImages:       a.cfg.MaxImagesPerProduct,
		DescribeEnabled: a.describe,
	}, a.logger)
	router, err := handler.NewRouter()
	if err != nil {
		return err
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("http server listening", zap.String("addr", addr), zap.String("catalog", a.cfg.CatalogPath))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(expireInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if _, err := a.catalog.ExpireSessions(gctx); err != nil {
					a.logger.Warn("session expiry failed", zap.Error(err))
				}
			}
		}
	})

	if a.cfg.TelegramToken != "" {
		bot, err := telegram.NewBotHandler(a.cfg.TelegramToken, a.catalog, a.search, a.logger)
		if err != nil {
			// the web UI still works without the bot
			a.logger.Error("telegram bot disabled", zap.Error(err))
		} else {
			g.Go(func() error { return bot.Start(gctx) })
		}
	}

	err = g.Wait()
	a.logger.Info("stopped")
	return err
}
