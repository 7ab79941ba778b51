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

	"predictd/internal/httpapi"
	"predictd/internal/inference"
	"predictd/internal/reload"
)

// predictTimeout bounds one model invocation behind the HTTP API.
const predictTimeout = 30 * time.Second

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Resolve the model and serve the HTTP API",
		Example: "  predictd serve --kind price --local-path model/model.json\n  MLFLOW_TRACKING_URI=http://127.0.0.1:5000 predictd serve",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().String("addr", "", "HTTP listen address, e.g. :8080 (env PREDICTD_ADDR)")
	cmd.Flags().Bool("watch", false, "Reload when the local artifact changes")
	cmd.Flags().Bool("swagger", false, "Serve Swagger UI at /swagger/")
	return cmd
}

func (a *app) serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	flush, err := a.initTracing(ctx)
	if err != nil {
		return err
	}
	defer flush()

	svc, closeCache, err := a.newService(ctx, true)
	if err != nil {
		return err
	}
	defer closeCache()

	// The listener only starts once a model is installed.
	if err := svc.Start(ctx); err != nil {
		a.log.Error().Err(err).Msg("startup model resolution failed")
		return err
	}

	httpapi.SetLogger(a.log.With().Str("component", "http").Logger())
	httpapi.SetBaseContext(ctx)
	httpapi.SetMaxBodyBytes(a.cfg.MaxBodyBytes)
	httpapi.SetPredictTimeout(predictTimeout)
	httpapi.SetSwagger(a.cfg.Swagger)
	httpapi.SetEventSource(a.events.Events)
	if len(a.cfg.CORSOrigins) > 0 {
		httpapi.SetCORSOptions(true, a.cfg.CORSOrigins, []string{"GET", "POST", "PUT", "OPTIONS"}, []string{"Content-Type", "X-Log-Level"})
	}

	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           httpapi.NewMux(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go a.reloadOnHangup(ctx, svc)
	if a.cfg.Watch {
		w, err := reload.New(a.cfg.LocalPath, reloader(svc), reload.DefaultDebounce, a.log.With().Str("component", "watch").Logger())
		if err != nil {
			return err
		}
		go func() {
			if err := w.Run(ctx); err != nil {
				a.log.Warn().Err(err).Msg("artifact watcher stopped")
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		h := svc.Handle()
		a.log.Info().Str("addr", a.cfg.Addr).Str("kind", a.cfg.Kind).Str("model", h.Name).
			Str("backend", string(h.Backend)).Str("version", h.Version).Msg("predictd listening")
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
	a.log.Info().Msg("shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		a.log.Error().Err(err).Msg("graceful shutdown error")
		return err
	}
	return nil
}

// reloadOnHangup re-resolves the model on every SIGHUP.
func (a *app) reloadOnHangup(ctx context.Context, svc *inference.Service) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			a.log.Info().Msg("SIGHUP received, reloading model")
			if _, err := svc.Reload(ctx); err == nil {
				a.log.Info().Str("version", svc.Handle().Version).Msg("model reloaded")
			}
		}
	}
}

func reloader(svc *inference.Service) reload.Reloader {
	return reload.ReloaderFunc(func(ctx context.Context) error {
		_, err := svc.Reload(ctx)
		return err
	})
}
