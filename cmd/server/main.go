package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/productscan/backend/config"
	httpDelivery "github.com/productscan/backend/internal/delivery/http"
	"github.com/productscan/backend/internal/infrastructure/catalog"
	"github.com/productscan/backend/internal/infrastructure/imaging"
	"github.com/productscan/backend/internal/infrastructure/lookup"
	"github.com/productscan/backend/internal/infrastructure/telemetry"
	"github.com/productscan/backend/internal/infrastructure/zxing"
	"github.com/productscan/backend/internal/logger"
	"github.com/productscan/backend/internal/usecase"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	logger.Configure(cfg.Log.Level, cfg.Log.Format)
	logger.WithFields(logrus.Fields{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
	}).Info("Starting ProductScan Backend v1.0.0")

	// Infrastructure
	metrics := telemetry.NewMetrics()

	products, err := loadCatalog(cfg.Catalog.File)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load product catalog")
	}
	logger.WithField("entries", products.Size()).Info("Product catalog ready")

	lookupClient := lookup.NewClient(lookup.ClientConfig{
		APIKey:    cfg.Lookup.APIKey,
		BaseURL:   cfg.Lookup.BaseURL,
		Timeout:   cfg.Lookup.Timeout,
		RateLimit: cfg.Lookup.RateLimit,
		RateBurst: cfg.Lookup.RateBurst,
	})
	if lookupClient.Enabled() {
		logger.WithFields(logrus.Fields{
			"base_url": cfg.Lookup.BaseURL,
			"timeout":  cfg.Lookup.Timeout,
		}).Info("Remote product lookup enabled")
	} else {
		logger.Warn("No lookup API key configured, serving from the local catalog only")
	}

	formats, err := zxing.ParseFormats(cfg.Scanner.Formats)
	if err != nil {
		logger.WithError(err).Fatal("Invalid scanner formats")
	}
	detector := zxing.NewDetector(formats, cfg.Scanner.TryHarder)
	preprocessor := imaging.NewPreprocessor(imaging.Config{
		BlurKernel:      cfg.Scanner.BlurKernel,
		BlockSize:       cfg.Scanner.BlockSize,
		ThresholdOffset: cfg.Scanner.ThresholdOffset,
		MaxPixels:       cfg.Scanner.MaxPixels,
	})

	// Usecases
	scannerService := usecase.NewScannerService(preprocessor, detector, metrics)
	resolverService := usecase.NewResolverService(lookupClient, products, metrics, usecase.ResolverServiceConfig{
		MinRemoteLength: cfg.Lookup.MinBarcodeLength,
	})

	// Delivery
	handler := httpDelivery.NewHandler(scannerService, resolverService, cfg.Server.RequestTimeout)
	router := httpDelivery.SetupRouter(cfg, handler, metrics)

	server := &http.Server{
		Addr: fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: otelhttp.NewHandler(router, "productscan",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return fmt.Sprintf("%s %s", r.Method, r.URL.Path)
			}),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("addr", server.Addr).Info("Server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
	logger.Info("Server stopped")
}

// loadCatalog returns the bundled catalog, extended from path when set
func loadCatalog(path string) (*catalog.Store, error) {
	if path == "" {
		return catalog.NewDefaultStore(), nil
	}
	return catalog.LoadFile(path)
}
