package usecase

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	zxinggo "github.com/ericlevine/zxinggo"
	"github.com/productscan/backend/internal/domain"
	"github.com/productscan/backend/internal/infrastructure/imaging"
	"github.com/productscan/backend/internal/infrastructure/telemetry"
	"github.com/productscan/backend/internal/infrastructure/zxing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockPreprocessor returns fixed variants
type MockPreprocessor struct {
	variants  []domain.ImageVariant
	decodeErr error
}

func (m *MockPreprocessor) Decode(data []byte) (image.Image, error) {
	if m.decodeErr != nil {
		return nil, m.decodeErr
	}
	return image.NewGray(image.Rect(0, 0, 1, 1)), nil
}

func (m *MockPreprocessor) Variants(img image.Image) []domain.ImageVariant {
	return m.variants
}

// MockDetector records every image it is asked to decode
type MockDetector struct {
	results map[*image.Gray][]domain.BarcodeReading
	errs    map[*image.Gray]error
	decode  func(img *image.Gray) []domain.BarcodeReading
	calls   []*image.Gray
}

func NewMockDetector() *MockDetector {
	return &MockDetector{
		results: make(map[*image.Gray][]domain.BarcodeReading),
		errs:    make(map[*image.Gray]error),
	}
}

func (m *MockDetector) Detect(img *image.Gray) ([]domain.BarcodeReading, error) {
	m.calls = append(m.calls, img)
	if err := m.errs[img]; err != nil {
		return nil, err
	}
	if m.decode != nil {
		return m.decode(img), nil
	}
	return m.results[img], nil
}

func threeVariants() []domain.ImageVariant {
	return []domain.ImageVariant{
		{Name: domain.VariantGrayscale, Image: image.NewGray(image.Rect(0, 0, 2, 2))},
		{Name: domain.VariantDenoised, Image: image.NewGray(image.Rect(0, 0, 2, 2))},
		{Name: domain.VariantBinarized, Image: image.NewGray(image.Rect(0, 0, 2, 2))},
	}
}

func TestScan_StopsAtFirstSuccessfulVariant(t *testing.T) {
	ctx := context.Background()

	t.Run("only binarized decodes", func(t *testing.T) {
		variants := threeVariants()
		detector := NewMockDetector()
		detector.results[variants[2].Image] = []domain.BarcodeReading{
			{Value: "4901777046504", Symbology: domain.SymbologyEAN13},
		}
		metrics := telemetry.NewMetrics()
		svc := NewScannerService(&MockPreprocessor{variants: variants}, detector, metrics)

		reading, err := svc.Scan(ctx, []byte("img"))

		require.NoError(t, err)
		require.NotNil(t, reading)
		assert.Equal(t, "4901777046504", reading.Value)
		assert.Equal(t, domain.SymbologyEAN13, reading.Symbology)
		assert.Equal(t, []*image.Gray{variants[0].Image, variants[1].Image, variants[2].Image}, detector.calls)
	})

	t.Run("grayscale decodes, later variants untouched", func(t *testing.T) {
		variants := threeVariants()
		detector := NewMockDetector()
		detector.results[variants[0].Image] = []domain.BarcodeReading{{Value: "049000006346", Symbology: domain.SymbologyUPCA}}
		detector.results[variants[2].Image] = []domain.BarcodeReading{{Value: "different", Symbology: domain.SymbologyCode128}}
		svc := NewScannerService(&MockPreprocessor{variants: variants}, detector, nil)

		reading, err := svc.Scan(ctx, []byte("img"))

		require.NoError(t, err)
		assert.Equal(t, "049000006346", reading.Value)
		assert.Len(t, detector.calls, 1)
	})

	t.Run("denoised decodes after grayscale misses", func(t *testing.T) {
		variants := threeVariants()
		detector := NewMockDetector()
		detector.results[variants[1].Image] = []domain.BarcodeReading{{Value: "038000138416", Symbology: domain.SymbologyUPCA}}
		svc := NewScannerService(&MockPreprocessor{variants: variants}, detector, nil)

		reading, err := svc.Scan(ctx, []byte("img"))

		require.NoError(t, err)
		assert.Equal(t, "038000138416", reading.Value)
		assert.Len(t, detector.calls, 2)
	})
}

func TestScan_PicksFirstOfMultipleMatches(t *testing.T) {
	variants := threeVariants()
	detector := NewMockDetector()
	detector.results[variants[0].Image] = []domain.BarcodeReading{
		{Value: "first", Symbology: domain.SymbologyCode128},
		{Value: "second", Symbology: domain.SymbologyEAN13},
	}
	svc := NewScannerService(&MockPreprocessor{variants: variants}, detector, nil)

	reading, err := svc.Scan(context.Background(), []byte("img"))

	require.NoError(t, err)
	assert.Equal(t, "first", reading.Value)
}

func TestScan_NoBarcodeIsAbsenceNotError(t *testing.T) {
	variants := threeVariants()
	detector := NewMockDetector()
	metrics := telemetry.NewMetrics()
	svc := NewScannerService(&MockPreprocessor{variants: variants}, detector, metrics)

	reading, err := svc.Scan(context.Background(), []byte("img"))

	assert.NoError(t, err)
	assert.Nil(t, reading)
	assert.Len(t, detector.calls, 3)
	assert.Contains(t, gatherText(t, metrics), `productscan_scans_total{outcome="no_barcode"} 1`)
}

func TestScan_DetectorErrorMovesToNextVariant(t *testing.T) {
	variants := threeVariants()
	detector := NewMockDetector()
	detector.errs[variants[0].Image] = errors.New("decoder panic: index out of range")
	detector.results[variants[1].Image] = []domain.BarcodeReading{{Value: "123", Symbology: domain.SymbologyCode39}}
	svc := NewScannerService(&MockPreprocessor{variants: variants}, detector, nil)

	reading, err := svc.Scan(context.Background(), []byte("img"))

	require.NoError(t, err)
	assert.Equal(t, "123", reading.Value)
}

func TestScan_UnreadableImage(t *testing.T) {
	detector := NewMockDetector()
	svc := NewScannerService(imaging.NewPreprocessor(imaging.DefaultConfig()), detector, nil)

	reading, err := svc.Scan(context.Background(), []byte("not an image"))

	assert.ErrorIs(t, err, domain.ErrUnreadableImage)
	assert.Nil(t, reading)
	assert.Empty(t, detector.calls)
}

func TestScan_OversizedImage(t *testing.T) {
	detector := NewMockDetector()
	metrics := telemetry.NewMetrics()
	cfg := imaging.DefaultConfig()
	cfg.MaxPixels = 400
	svc := NewScannerService(imaging.NewPreprocessor(cfg), detector, metrics)

	reading, err := svc.Scan(context.Background(), encodePNG(t, image.NewGray(image.Rect(0, 0, 100, 100))))

	assert.ErrorIs(t, err, domain.ErrImageTooLarge)
	assert.Nil(t, reading)
	assert.Empty(t, detector.calls)
	assert.Contains(t, gatherText(t, metrics), `productscan_scans_total{outcome="too_large"} 1`)
}

func TestScan_CancelledContext(t *testing.T) {
	detector := NewMockDetector()
	svc := NewScannerService(&MockPreprocessor{variants: threeVariants()}, detector, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Scan(ctx, []byte("img"))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, detector.calls)
}

// isBinary reports whether every pixel is pure black or white
func isBinary(img *image.Gray) bool {
	for _, v := range img.Pix {
		if v != 0 && v != 255 {
			return false
		}
	}
	return true
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestScan_WithRealPreprocessor_OnlyBinarizedDecodable(t *testing.T) {
	// Smooth gradient: neither the grayscale nor the blurred variant is binary
	src := image.NewGray(image.Rect(0, 0, 40, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 40; x++ {
			src.SetGray(x, y, color.Gray{Y: uint8(40 + x*4)})
		}
	}

	var seen []bool
	detector := NewMockDetector()
	detector.decode = func(img *image.Gray) []domain.BarcodeReading {
		binary := isBinary(img)
		seen = append(seen, binary)
		if binary {
			return []domain.BarcodeReading{{Value: "9780201379624", Symbology: domain.SymbologyEAN13}}
		}
		return nil
	}
	svc := NewScannerService(imaging.NewPreprocessor(imaging.DefaultConfig()), detector, nil)

	reading, err := svc.Scan(context.Background(), encodePNG(t, src))

	require.NoError(t, err)
	require.NotNil(t, reading)
	assert.Equal(t, "9780201379624", reading.Value)
	assert.Equal(t, []bool{false, false, true}, seen)
}

func TestScan_EndToEndWithZxing(t *testing.T) {
	matrix, err := zxinggo.Encode("4901777046504", zxinggo.FormatEAN13, 300, 80, nil)
	require.NoError(t, err)
	data := encodePNG(t, zxinggo.BitMatrixToImage(matrix))

	metrics := telemetry.NewMetrics()
	svc := NewScannerService(
		imaging.NewPreprocessor(imaging.DefaultConfig()),
		zxing.NewDetector(nil, false),
		metrics,
	)

	reading, err := svc.Scan(context.Background(), data)

	require.NoError(t, err)
	require.NotNil(t, reading)
	assert.Equal(t, "4901777046504", reading.Value)
	assert.Equal(t, domain.SymbologyEAN13, reading.Symbology)
	assert.Contains(t, gatherText(t, metrics), `productscan_variant_hits_total{variant="grayscale"} 1`)
}

// gatherText renders the metrics registry in the exposition format
func gatherText(t *testing.T, metrics *telemetry.Metrics) string {
	t.Helper()
	w := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}
