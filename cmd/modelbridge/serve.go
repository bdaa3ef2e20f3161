package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"modelbridge/internal/config"
	"modelbridge/internal/httpapi"
	"modelbridge/internal/loader"
	"modelbridge/internal/natsapi"
)

func newServeCmd(s *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API (and NATS when configured)",
		Example: "  modelbridge serve --addr :8080 --models-dir ~/models\n" +
			"  modelbridge serve --config modelbridge.yaml --nats-url nats://localhost:4222",
		RunE: func(cmd *cobra.Command, args []string) error {
			fl := cmd.Flags()
			if fl.Changed("addr") {
				s.cfg.Addr, _ = fl.GetString("addr")
			}
			if fl.Changed("nats-url") {
				s.cfg.NATSURL, _ = fl.GetString("nats-url")
			}
			if fl.Changed("nats-subject") {
				s.cfg.NATSSubject, _ = fl.GetString("nats-subject")
			}
			return serve(cmd.Context(), s)
		},
	}
	cmd.Flags().String("addr", defaultAddr, "HTTP listen address (defaults MODELBRIDGE_ADDR or :8080)")
	cmd.Flags().String("nats-url", "", "NATS server URL; enables the NATS run subject")
	cmd.Flags().String("nats-subject", natsapi.DefaultSubject, "NATS subject for run requests")
	return cmd
}

func serve(parent context.Context, s *settings) error {
	if parent == nil {
		parent = context.Background()
	}
	log, closer, err := s.logger(nil)
	if err != nil {
		return err
	}
	defer closer.Close()

	mgr, err := s.newManager(&log)
	if err != nil {
		return err
	}
	if s.cfg.ModelsDir != "" && !mgr.Ready() {
		log.Warn().Str("dir", s.cfg.ModelsDir).Msg("models dir missing; /readyz will report not ready")
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	applyHTTPSettings(s.cfg)
	httpapi.SetLogger(log)
	httpapi.SetBaseContext(ctx)
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           httpapi.NewMux(mgr),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.cfg.NATSURL != "" {
		ns, err := natsapi.Start(ctx, mgr, natsapi.Options{
			URL:     s.cfg.NATSURL,
			Subject: s.cfg.NATSSubject,
			Timeout: time.Duration(s.cfg.RunTimeoutSeconds) * time.Second,
			Logger:  &log,
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := ns.Close(); err != nil {
				log.Warn().Err(err).Msg("nats close")
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.cfg.Addr).Str("engine", mgr.Bridge().Engine()).
			Str("models_dir", s.cfg.ModelsDir).Bool("mmap", mgr.Bridge().Loader().Mmap()).Msg("listening")
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

	// Graceful shutdown (Ctrl+C / SIGTERM)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown")
		return err
	}
	log.Info().Msg("stopped")
	return nil
}

func applyHTTPSettings(cfg config.Config) {
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetRunTimeoutSeconds(cfg.RunTimeoutSeconds)
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSAllowedOrigins, cfg.CORSAllowedMethods, cfg.CORSAllowedHeaders)
}

func loaderOptions(cfg config.Config) loader.Options {
	return loader.Options{DisableMmap: cfg.DisableMmap}
}
