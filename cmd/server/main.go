package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/contactbook/backend/internal/config"
	"github.com/contactbook/backend/internal/handler"
	"github.com/contactbook/backend/internal/logging"
	"github.com/contactbook/backend/internal/service"
	"github.com/contactbook/backend/internal/view"
)

const shutdownTimeout = 5 * time.Second

var (
	addrFlag  string
	storeFlag string
)

var rootCmd = &cobra.Command{
	Use:          "server",
	Short:        "Serve the contacts web app",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.Addr = addrFlag
		}
		if cmd.Flags().Changed("store") {
			cfg.StoreDriver = storeFlag
			if err := cfg.Validate(); err != nil {
				return err
			}
		}
		logging.Setup(cfg.LogLevel)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return run(ctx, cfg)
	},
}

func init() {
	rootCmd.Flags().StringVar(&addrFlag, "addr", "", "listen address (overrides APP_ADDR)")
	rootCmd.Flags().StringVar(&storeFlag, "store", "", "store driver: postgres or sqlite (overrides STORE_DRIVER)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logging.Fatal("server exited", "error", err)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	renderer, err := view.NewTemplateRenderer()
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}

	contactService := service.NewContactService(st.contacts)
	contactHandler := handler.NewContactHandler(contactService, renderer)
	h := handler.New(st.contacts)

	var rl *handler.RateLimiter
	if cfg.RateLimitPerMinute > 0 {
		rl = handler.NewRateLimiter(handler.RateLimitConfig{
			PerMinute:      cfg.RateLimitPerMinute,
			TrustedProxies: cfg.TrustedProxies,
		})
		defer rl.Close()
	}

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler.NewRouter(h, contactHandler, rl),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server listening", "addr", server.Addr, "store", cfg.StoreDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		slog.Info("shutting down")
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		return nil
	})
	return g.Wait()
}

