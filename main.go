package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"media-gateway/internal/capability"
	"media-gateway/internal/handlers"
	"media-gateway/internal/logging"
	"media-gateway/internal/middleware"
	"media-gateway/internal/startup"
	"media-gateway/internal/stream"
	"media-gateway/internal/transcoder"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const capabilityTTL = 2 * time.Minute

func main() {
	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Delivery core
	tc := transcoder.New(config.FFmpegPath, config.Threads)
	registry := stream.NewRegistry()
	streamer := stream.New(tc, registry, config.TempDir)
	streamer.SetEmbedCoverArt(config.EmbedCoverArt)

	// Capability verifier for the stream endpoint
	verifier, err := capability.NewStore(capabilityTTL)
	if err != nil {
		startup.LogFatal("Failed to initialize capability store: %v", err)
	}

	h := handlers.New(streamer, verifier, config)

	router := setupRouter(h)

	// Middleware chain: CORS, metrics, request logging
	corsConfig := middleware.CORSConfig{Open: config.CORSOpen, AllowedOrigin: config.WebURL}
	handler := middleware.CORS(corsConfig)(router)

	if config.MetricsEnabled {
		handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)
	}

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler = middleware.Logger(loggingConfig)(handler)

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // long-running media streams
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logging.Info("API listening on :%s", config.Port)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:        ":" + config.MetricsPort,
			Handler:     metricsMux,
			ReadTimeout: 15 * time.Second,
		}

		group.Go(func() error {
			logging.Info("Metrics listening on :%s", config.MetricsPort)
			if err := metricsSrv.ListenAndServe(); err != http.ErrServerClosed {
				return err
			}
			return nil
		})
	}

	group.Go(func() error {
		<-groupCtx.Done()
		shutdown(srv, metricsSrv, streamer, tc)
		return nil
	})

	if err := group.Wait(); err != nil {
		startup.LogFatal("Server error: %v", err)
	}
	logging.Info("Shutdown complete")
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// API routes
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/download", h.Download).Methods("GET")
	api.HandleFunc("/stream", h.Stream).Methods("GET")
	api.HandleFunc("/pool", h.Pool).Methods("GET")
	api.HandleFunc("/serverInfo", h.ServerInfo).Methods("GET")
	api.HandleFunc("/status", h.Status).Methods("GET")
	api.PathPrefix("/").HandlerFunc(h.Unknown)

	return r
}

func shutdown(srv, metricsSrv *http.Server, streamer *stream.Streamer, tc *transcoder.Transcoder) {
	logging.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		}
	}

	// Tear down live jobs, then any stray processes.
	streamer.Shutdown()
	tc.Cleanup()
}
