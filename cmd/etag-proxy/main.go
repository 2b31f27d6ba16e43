// Command etag-proxy is a caching reverse proxy. It forwards requests to
// a configured upstream and answers repeat GETs carrying a current
// validator with 304 Not Modified, sparing the upstream the regeneration
// and the client the transfer.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/seaporter/etagcache/pkg/cache"
	"github.com/seaporter/etagcache/pkg/logging"
	"github.com/seaporter/etagcache/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: search ./etag-proxy.toml)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "etag-proxy: %v\n", err)
		os.Exit(1)
	}

	logWriter, logErr := logging.NewFileWriter(logging.FileConfig{
		Path:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		Compress:   cfg.Log.Compress,
	})
	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
		Output: logWriter,
	})
	logger := logging.NewLogger("etag-proxy")
	if logErr != nil {
		logger.Warn().Err(logErr).Str("path", cfg.Log.File).Msg("Log file unavailable, using stderr")
	}

	provider, err := cache.NewLRUProvider(cfg.CacheCapacity, cfg.QueueSize)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create cache provider")
	}

	upstream, err := url.Parse(cfg.UpstreamURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid upstream URL")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", healthzHandler)
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/", cache.Middleware(provider)(newProxy(upstream, logger)))

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           requestID(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().
			Str("addr", cfg.ListenAddr).
			Str("upstream", cfg.UpstreamURL).
			Int("cache_capacity", cfg.CacheCapacity).
			Msg("Starting etag proxy")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info().Msg("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Shutdown incomplete")
	}

	provider.Close()
	logger.Info().Msg("Stopped")
}

// newProxy builds the reverse proxy for the upstream origin.
func newProxy(upstream *url.URL, logger zerolog.Logger) *httputil.ReverseProxy {
	proxy := httputil.NewSingleHostReverseProxy(upstream)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Error().
			Err(err).
			Str("path", r.URL.Path).
			Str("request_id", r.Header.Get("X-Request-ID")).
			Msg("Upstream request failed")
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}
	return proxy
}

// requestID stamps every request and response with a correlation id,
// reusing the client's X-Request-ID when present.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
			r.Header.Set("X-Request-ID", id)
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

func healthzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(`{"status": "ok"}`)); err != nil {
		logger := logging.NewLogger("etag-proxy")
		logger.Debug().Err(err).Msg("Failed to write health response")
	}
}
