package main

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/aabenjamim/MC536-ed-indigena-mongo/config"
	"github.com/aabenjamim/MC536-ed-indigena-mongo/handlers"
	"github.com/aabenjamim/MC536-ed-indigena-mongo/middleware"
	"github.com/aabenjamim/MC536-ed-indigena-mongo/reports"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
)

const shutdownTimeout = 30 * time.Second

func (a *app) newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the reports over a read-only HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			store, client, closeDB, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			srv := &http.Server{
				Handler:           a.newRouter(reports.NewRunner(store, a.cfg.Parallel, a.logger), client),
				Addr:              ":" + strconv.Itoa(a.cfg.Port),
				WriteTimeout:      90 * time.Second,
				ReadTimeout:       15 * time.Second,
				IdleTimeout:       60 * time.Second,
				ReadHeaderTimeout: 5 * time.Second,
				MaxHeaderBytes:    1 << 20,
			}
			return a.listen(ctx, srv)
		},
	}
}

// newRouter builds the API handler. CORS wraps the whole router: mux only
// runs r.Use middleware on a matched route, and the routes are GET-only, so
// preflight OPTIONS requests would never reach it.
func (a *app) newRouter(runner handlers.ReportRunner, client *mongo.Client) http.Handler {
	r := mux.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(a.logger))
	r.Use(middleware.Logging(a.logger))
	r.Use(middleware.Metrics)

	api := r.PathPrefix("/api/v1").Subrouter()
	handlers.RegisterRoutes(api,
		handlers.NewReportHandler(runner, config.NewReportCache(a.cfg.CacheTTL), a.logger),
		handlers.NewHealthHandler(func(ctx context.Context) error {
			return config.CheckMongoHealth(ctx, client)
		}, a.cfg.Database),
	)
	r.Handle("/metrics", promhttp.Handler())
	return middleware.NewCORS(a.cfg.CORSOrigins, a.cfg.LogLevel == "debug", a.logger).Handler(r)
}

// listen serves until ctx is cancelled or the server fails, then shuts down
// gracefully.
func (a *app) listen(ctx context.Context, srv *http.Server) error {
	serverErrors := make(chan error, 1)
	go func() {
		a.logger.Info("Starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
		close(serverErrors)
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("Shutdown signal received")
	case err, ok := <-serverErrors:
		if ok {
			return errors.Wrap(err, "server error")
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "server shutdown")
	}
	a.logger.Info("Server shutdown completed")
	return nil
}
