// Local API for the self-custody wallet flows.
// Usage: go run ./cmd/server [-config config.yaml]
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

	"github.com/AlexZinkM/self-custody/internal/api"
	"github.com/AlexZinkM/self-custody/internal/client"
	"github.com/AlexZinkM/self-custody/internal/config"
	"github.com/AlexZinkM/self-custody/internal/custody"
	"github.com/AlexZinkM/self-custody/internal/handler"
	"github.com/AlexZinkM/self-custody/internal/logx"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "optional yaml config file (overrides $CONFIG_FILE)")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	cfg := config.Get()

	if err := logx.Init(logx.Config{Level: cfg.LogLevel, FilePath: cfg.LogFile}); err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer logx.Close()
	log := logx.Named("server")

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", zap.Error(err))
		logx.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	backend, err := client.NewBackendClient(client.Options{
		BaseURL:    config.GetBackendURL(),
		Token:      cfg.BackendToken,
		RevealPath: cfg.RevealPath,
		AttachPath: cfg.AttachPath,
		Timeout:    config.GetRequestTimeout(),
		Logger:     logx.Named("backend"),
	})
	switch {
	case errors.Is(err, client.ErrNotConfigured):
		log.Warn("BACKEND_URL not set, migration and attach are unavailable")
		backend = nil
	case err != nil:
		return err
	}

	h := handler.New(handler.Options{
		Backend: backend,
		Flow: custody.Options{
			Timeout:       cfg.RequestTimeout,
			SecretTTL:     cfg.SecretTTL,
			ChallengeSize: cfg.ChallengeSize,
		},
		SessionTTL:     cfg.SessionTTL,
		RevealInterval: cfg.RevealInterval,
		RevealBurst:    cfg.RevealBurst,
		Logger:         logx.L(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	janitorDone := make(chan struct{})
	go func() {
		defer close(janitorDone)
		h.Janitor(ctx, janitorInterval(cfg.SessionTTL))
	}()

	srv := &http.Server{
		Addr:              ":" + config.GetPort(),
		Handler:           api.SetupRouter(h, logx.Named("http")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		stop()
		<-janitorDone
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)
	// every open session is scrubbed before exit
	<-janitorDone
	return err
}

func janitorInterval(ttl time.Duration) time.Duration {
	every := ttl / 4
	if every < time.Second {
		every = time.Second
	}
	return every
}
