package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	httpapi "github.com/JeyllonSandoval/agritech-backend-sub000/internal/api/http"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/cache"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/config"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/delivery"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/ecowitt"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/logger"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/report"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/store"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/weather"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/weather/providers"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "agritech-backend: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	envErr := config.LoadDotEnv()

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	if envErr != nil {
		log.Info("No .env file loaded", zap.Error(envErr))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	// Shared HTTP client for outbound vendor calls.
	httpClient := &http.Client{Timeout: cfg.EcoWitt.Timeout}

	telemetry := ecowitt.NewClient(httpClient, log.Named("ecowitt"),
		ecowitt.WithBaseURL(cfg.EcoWitt.BaseURL),
		ecowitt.WithTimeout(cfg.EcoWitt.Timeout),
		ecowitt.WithRateLimitDelay(cfg.EcoWitt.RateLimitDelay),
	)

	forecasts, closeCache := newForecastService(ctx, cfg, httpClient, log)
	defer closeCache()

	reportOpts := []report.Option{report.WithGroupConcurrency(cfg.GroupConcurrency)}
	if forecasts != nil {
		reportOpts = append(reportOpts, report.WithForecaster(forecasts))
	}
	reports := report.NewService(st, telemetry, log.Named("report"), reportOpts...)

	deliveries, err := newDeliveryService(cfg, st, log)
	if err != nil {
		return err
	}

	deps := httpapi.Deps{
		Store:   st,
		Reports: reports,
		Health:  st.Ping,
		Logger:  log.Named("http"),
	}
	// A nil *delivery.Service must not become a non-nil interface.
	if deliveries != nil {
		deps.Delivery = deliveries
	}
	app := httpapi.NewApp(deps)

	go func() {
		log.Info("HTTP server listening", zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("fiber server stopped", zap.Error(err))
			stop()
		}
	}()

	// Wait for termination signal
	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", zap.Error(err))
	}
	return nil
}

// newForecastService returns nil when no forecast provider is configured.
func newForecastService(ctx context.Context, cfg *config.AppConfig, client *http.Client, log *zap.Logger) (*weather.Service, func()) {
	var provs []weather.Provider
	if cfg.Forecast.OpenWeatherAPIKey != "" {
		provs = append(provs, providers.NewOpenWeatherProvider(client, cfg.Forecast.OpenWeatherAPIKey, cfg.Forecast.OpenWeatherBaseURL))
	}
	if cfg.Forecast.OpenMeteoEnabled {
		provs = append(provs, providers.NewOpenMeteoProvider(client, cfg.Forecast.OpenMeteoBaseURL))
	}
	if len(provs) == 0 {
		log.Warn("No forecast provider configured; reports will not include weather")
		return nil, func() {}
	}

	closeCache := func() {}
	var c weather.Cache
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Warn("Redis unavailable; using in-memory forecast cache", zap.Error(err))
		} else {
			c = rc
			closeCache = func() { _ = rc.Close() }
		}
	}
	if c == nil {
		c = cache.NewMemoryCache(cfg.Forecast.CacheMaxEntries, cfg.Forecast.CacheTTL)
	}

	opts := []weather.Option{weather.WithCache(c, cfg.Forecast.CacheTTL)}
	if cfg.Forecast.GeocoderAPIKey != "" {
		opts = append(opts, weather.WithPlaceResolver(weather.NewGeocoderResolver(cfg.Forecast.GeocoderAPIKey)))
	}
	return weather.NewService(provs, log.Named("weather"), opts...), closeCache
}

// newDeliveryService returns nil when object storage is not configured.
func newDeliveryService(cfg *config.AppConfig, st *store.Store, log *zap.Logger) (*delivery.Service, error) {
	if cfg.S3.Bucket == "" {
		log.Warn("S3_BUCKET not set; report file delivery disabled")
		return nil, nil
	}

	uploader, err := delivery.NewS3Uploader(delivery.S3Config{
		Region:          cfg.S3.Region,
		Bucket:          cfg.S3.Bucket,
		Endpoint:        cfg.S3.Endpoint,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
		PublicBaseURL:   cfg.S3.PublicBaseURL,
	})
	if err != nil {
		return nil, err
	}

	html, err := delivery.NewHTMLRenderer()
	if err != nil {
		return nil, err
	}

	var pdf delivery.PDFConverter
	if cfg.PDF.Enabled {
		pdf = delivery.NewChromePDF(cfg.PDF.ChromePath, cfg.PDF.Timeout)
	}

	return delivery.NewService(html, pdf, uploader, st, log.Named("delivery")), nil
}
