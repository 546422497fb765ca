package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/productscan/backend/internal/domain"
	"github.com/productscan/backend/internal/infrastructure/telemetry"
	"github.com/productscan/backend/internal/logger"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMinRemoteLength is the shortest normalized barcode sent to the
// remote service (EAN-8)
const DefaultMinRemoteLength = 8

// ResolverServiceConfig holds configuration for the resolver service
type ResolverServiceConfig struct {
	MinRemoteLength int
}

// ResolverService resolves a barcode to a product by consulting the remote
// lookup service first and the local catalog second
type ResolverService struct {
	remote          domain.ProductLookupClient
	catalog         domain.CatalogRepository
	metrics         *telemetry.Metrics
	minRemoteLength int
}

// NewResolverService creates a resolver. A nil or disabled remote client
// leaves the catalog as the only source.
func NewResolverService(
	remote domain.ProductLookupClient,
	catalog domain.CatalogRepository,
	metrics *telemetry.Metrics,
	config ResolverServiceConfig,
) *ResolverService {
	minLength := config.MinRemoteLength
	if minLength <= 0 {
		minLength = DefaultMinRemoteLength
	}

	return &ResolverService{
		remote:          remote,
		catalog:         catalog,
		metrics:         metrics,
		minRemoteLength: minLength,
	}
}

// Resolve looks up the product for a barcode.
// Flow: normalize -> remote (unless skipped) -> catalog -> first hit wins.
// Only a blank barcode is an error; "unknown product" is a Resolution
// with a nil Product.
func (s *ResolverService) Resolve(ctx context.Context, barcode string) (*domain.Resolution, error) {
	if strings.TrimSpace(barcode) == "" {
		return nil, domain.ErrInvalidRequest
	}

	key := domain.NormalizeBarcode(barcode)
	result := &domain.Resolution{Barcode: key}

	ctx, span := tracer.Start(ctx, "ResolverService.Resolve", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()
	span.SetAttributes(attribute.String("barcode", key))

	log := logger.WithField("barcode", key)
	if key == "" {
		log.Debug("barcode has no digits, nothing to look up")
		return result, nil
	}

	for _, source := range domain.SourcePriority {
		product, outcome := s.lookup(ctx, source, key)
		s.metrics.ObserveLookup(source.String(), outcome)
		log.WithFields(logrus.Fields{
			"source":  source.String(),
			"outcome": outcome,
		}).Debug("lookup source consulted")

		if product != nil {
			result.Product = product
			result.Source = source.String()
			span.SetAttributes(attribute.String("product.source", result.Source))
			return result, nil
		}
	}

	log.Info("no product found for barcode")
	return result, nil
}

// lookup consults a single source and classifies the outcome. It never fails:
// every problem degrades to an absent product.
func (s *ResolverService) lookup(ctx context.Context, source domain.SourceKind, key string) (*domain.ProductRecord, string) {
	switch source {
	case domain.SourceRemote:
		return s.lookupRemote(ctx, key)
	case domain.SourceLocal:
		return s.lookupCatalog(ctx, key)
	default:
		return nil, telemetry.LookupSkipped
	}
}

func (s *ResolverService) lookupRemote(ctx context.Context, key string) (*domain.ProductRecord, string) {
	if s.remote == nil || !s.remote.Enabled() {
		return nil, telemetry.LookupSkipped
	}
	if len(key) < s.minRemoteLength {
		logger.WithError(domain.ErrBarcodeTooShort).WithFields(logrus.Fields{
			"barcode": key,
			"min":     s.minRemoteLength,
		}).Debug("skipping remote lookup")
		return nil, telemetry.LookupSkipped
	}

	start := time.Now()
	product, err := s.remote.LookupBarcode(ctx, key)
	s.metrics.ObserveRemoteDuration(time.Since(start))

	switch {
	case err == nil && product != nil:
		record := product.WithDefaults()
		return &record, telemetry.LookupHit
	case err == nil, errors.Is(err, domain.ErrProductNotFound):
		return nil, telemetry.LookupMiss
	default:
		logger.WithError(err).WithField("barcode", key).Warn("remote lookup unavailable, falling back")
		return nil, telemetry.LookupUnavailable
	}
}

func (s *ResolverService) lookupCatalog(ctx context.Context, key string) (*domain.ProductRecord, string) {
	if s.catalog == nil {
		return nil, telemetry.LookupSkipped
	}

	product, err := s.catalog.Lookup(ctx, key)
	if err != nil || product == nil {
		return nil, telemetry.LookupMiss
	}
	return product, telemetry.LookupHit
}
