package usecase

import (
	"context"
	"errors"

	"github.com/productscan/backend/internal/domain"
	"github.com/productscan/backend/internal/infrastructure/telemetry"
	"github.com/productscan/backend/internal/logger"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/productscan/backend/internal/usecase")

// ScannerService locates and decodes a barcode in an uploaded image
type ScannerService struct {
	preprocessor domain.ImagePreprocessor
	detector     domain.BarcodeDetector
	metrics      *telemetry.Metrics
}

// NewScannerService creates a new scanner service with dependencies
func NewScannerService(
	preprocessor domain.ImagePreprocessor,
	detector domain.BarcodeDetector,
	metrics *telemetry.Metrics,
) *ScannerService {
	return &ScannerService{
		preprocessor: preprocessor,
		detector:     detector,
		metrics:      metrics,
	}
}

// Scan decodes the image and returns the first barcode found.
// Flow: decode bytes -> build variants -> try each variant in order -> stop at first match.
// A nil reading with a nil error means no barcode was detected; only
// unreadable or oversized input (domain.ErrUnreadableImage,
// domain.ErrImageTooLarge) or cancellation is an error.
func (s *ScannerService) Scan(ctx context.Context, data []byte) (*domain.BarcodeReading, error) {
	ctx, span := tracer.Start(ctx, "ScannerService.Scan", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()
	span.SetAttributes(attribute.Int("image.bytes", len(data)))

	img, err := s.preprocessor.Decode(data)
	if err != nil {
		span.RecordError(err)
		outcome := telemetry.ScanUnreadable
		if errors.Is(err, domain.ErrImageTooLarge) {
			outcome = telemetry.ScanTooLarge
		}
		span.SetStatus(codes.Error, outcome)
		s.metrics.ObserveScan(outcome)
		logger.WithError(err).Warn("could not read uploaded image")
		return nil, err
	}

	for _, variant := range s.preprocessor.Variants(img) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		log := logger.WithField("variant", variant.Name)

		readings, err := s.detector.Detect(variant.Image)
		if err != nil {
			log.WithError(err).Warn("decode routine failed on variant")
			continue
		}
		if len(readings) == 0 {
			log.Debug("no barcode in variant")
			continue
		}

		// The decode routine's own order decides between multiple barcodes
		reading := readings[0]
		span.SetAttributes(
			attribute.String("barcode.variant", variant.Name),
			attribute.String("barcode.symbology", string(reading.Symbology)),
		)
		s.metrics.ObserveScan(telemetry.ScanDetected)
		s.metrics.ObserveVariantHit(variant.Name)
		log.WithFields(logrus.Fields{
			"barcode":   reading.Value,
			"symbology": reading.Symbology,
			"found":     len(readings),
		}).Debug("barcode detected")
		return &reading, nil
	}

	s.metrics.ObserveScan(telemetry.ScanNoBarcode)
	logger.Info("no barcode detected in image")
	return nil, nil
}
