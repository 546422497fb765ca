package zxing

import (
	"errors"
	"fmt"
	"image"
	"strings"

	zxinggo "github.com/ericlevine/zxinggo"
	"github.com/ericlevine/zxinggo/binarizer"
	"github.com/ericlevine/zxinggo/multi"
	"github.com/productscan/backend/internal/domain"

	// Register format readers with the multi-format reader.
	_ "github.com/ericlevine/zxinggo/oned"
	_ "github.com/ericlevine/zxinggo/qrcode"
)

// DefaultFormats are the symbologies attempted when none are configured
var DefaultFormats = []zxinggo.Format{
	zxinggo.FormatEAN13,
	zxinggo.FormatEAN8,
	zxinggo.FormatUPCA,
	zxinggo.FormatUPCE,
	zxinggo.FormatCode128,
	zxinggo.FormatCode39,
	zxinggo.FormatITF,
	zxinggo.FormatQRCode,
}

var formatsByName = map[string]zxinggo.Format{
	"EAN_13":   zxinggo.FormatEAN13,
	"EAN_8":    zxinggo.FormatEAN8,
	"UPC_A":    zxinggo.FormatUPCA,
	"UPC_E":    zxinggo.FormatUPCE,
	"CODE_128": zxinggo.FormatCode128,
	"CODE_39":  zxinggo.FormatCode39,
	"ITF":      zxinggo.FormatITF,
	"CODABAR":  zxinggo.FormatCodabar,
	"QR_CODE":  zxinggo.FormatQRCode,
}

// ParseFormats converts configured format names (e.g. "EAN_13") to zxinggo formats
func ParseFormats(names []string) ([]zxinggo.Format, error) {
	if len(names) == 0 {
		return DefaultFormats, nil
	}

	formats := make([]zxinggo.Format, 0, len(names))
	for _, name := range names {
		f, ok := formatsByName[strings.ToUpper(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unsupported barcode format: %q", name)
		}
		formats = append(formats, f)
	}
	return formats, nil
}

// Detector runs zxinggo against a single preprocessed grayscale image
type Detector struct {
	formats   []zxinggo.Format
	tryHarder bool
}

// NewDetector creates a detector restricted to the given formats
func NewDetector(formats []zxinggo.Format, tryHarder bool) *Detector {
	if len(formats) == 0 {
		formats = DefaultFormats
	}
	return &Detector{formats: formats, tryHarder: tryHarder}
}

// Detect returns every barcode found in the image in zxinggo's native order.
// An image without a barcode yields an empty slice and no error.
func (d *Detector) Detect(img *image.Gray) ([]domain.BarcodeReading, error) {
	source := zxinggo.NewGrayImageLuminanceSource(img)
	bitmap := zxinggo.NewBinaryBitmap(binarizer.NewGlobalHistogram(source))

	results, err := d.decode(bitmap)
	if err != nil {
		if errors.Is(err, zxinggo.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	readings := make([]domain.BarcodeReading, 0, len(results))
	for _, r := range results {
		if r == nil || r.Text == "" {
			continue
		}
		readings = append(readings, domain.BarcodeReading{
			Value:     r.Text,
			Symbology: symbologyFor(r.Format),
		})
	}
	return readings, nil
}

// decode recovers from panics that decoders may raise on malformed input
func (d *Detector) decode(bitmap *zxinggo.BinaryBitmap) (results []*zxinggo.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			results = nil
			err = fmt.Errorf("decoder panic: %v", r)
		}
	}()

	opts := &zxinggo.DecodeOptions{
		TryHarder:       d.tryHarder,
		PossibleFormats: d.formats,
	}
	reader := multi.NewGenericMultipleBarcodeReader(zxinggo.NewMultiFormatReader())
	return reader.DecodeMultiple(bitmap, opts)
}

func symbologyFor(f zxinggo.Format) domain.Symbology {
	name := f.String()
	if name == "" {
		return domain.SymbologyUnknown
	}
	return domain.Symbology(name)
}
