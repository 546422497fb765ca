package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/productscan/backend/internal/domain"
)

// Default filter parameters. They match the classic OpenCV recipe for barcode
// photographs: 5x5 Gaussian blur, then an 11x11 Gaussian-weighted adaptive
// threshold with an offset of 2.
const (
	DefaultBlurKernel      = 5
	DefaultBlockSize       = 11
	DefaultThresholdOffset = 2.0

	// DefaultMaxPixels bounds the decoded size of an upload. A flat PNG of
	// this size compresses to a few kilobytes but decodes to tens of megabytes.
	DefaultMaxPixels = 24_000_000
)

// Config holds the preprocessor filter parameters. Kernel sizes that are not
// odd and at least 3 select the defaults, as does a non-positive MaxPixels.
// ThresholdOffset is used as given, zero included.
type Config struct {
	BlurKernel      int
	BlockSize       int
	ThresholdOffset float64
	MaxPixels       int
}

// DefaultConfig returns the standard filter parameters
func DefaultConfig() Config {
	return Config{
		BlurKernel:      DefaultBlurKernel,
		BlockSize:       DefaultBlockSize,
		ThresholdOffset: DefaultThresholdOffset,
		MaxPixels:       DefaultMaxPixels,
	}
}

// Preprocessor derives the ordered list of decode variants from one input image:
// grayscale, noise-reduced grayscale, and a locally binarized image.
type Preprocessor struct {
	blurKernel      []float64
	thresholdKernel []float64
	offset          float64
	maxPixels       int64
}

// NewPreprocessor creates a preprocessor, substituting defaults for unset values
func NewPreprocessor(cfg Config) *Preprocessor {
	if cfg.BlurKernel < 3 || cfg.BlurKernel%2 == 0 {
		cfg.BlurKernel = DefaultBlurKernel
	}
	if cfg.BlockSize < 3 || cfg.BlockSize%2 == 0 {
		cfg.BlockSize = DefaultBlockSize
	}
	if cfg.MaxPixels <= 0 {
		cfg.MaxPixels = DefaultMaxPixels
	}

	return &Preprocessor{
		blurKernel:      gaussianKernel(cfg.BlurKernel),
		thresholdKernel: gaussianKernel(cfg.BlockSize),
		offset:          cfg.ThresholdOffset,
		maxPixels:       int64(cfg.MaxPixels),
	}
}

// Decode parses PNG, JPEG or GIF bytes. The header is checked first so that an
// image over the pixel limit fails with domain.ErrImageTooLarge before any pixel
// buffer is allocated. Every other failure wraps domain.ErrUnreadableImage.
func (p *Preprocessor) Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", domain.ErrUnreadableImage)
	}

	header, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnreadableImage, err)
	}
	if pixels := int64(header.Width) * int64(header.Height); pixels > p.maxPixels {
		return nil, fmt.Errorf("%w: %s image is %dx%d, limit is %d pixels",
			domain.ErrImageTooLarge, format, header.Width, header.Height, p.maxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnreadableImage, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: %s image has no pixels", domain.ErrUnreadableImage, format)
	}

	return img, nil
}

// Variants returns the decode variants from cheapest to most aggressive
func (p *Preprocessor) Variants(img image.Image) []domain.ImageVariant {
	gray := Grayscale(img)
	denoised := p.Denoise(gray)
	binarized := p.Binarize(denoised)

	return []domain.ImageVariant{
		{Name: domain.VariantGrayscale, Image: gray},
		{Name: domain.VariantDenoised, Image: denoised},
		{Name: domain.VariantBinarized, Image: binarized},
	}
}

// Grayscale converts any image to a single-channel intensity image anchored at (0,0)
func Grayscale(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(gray, gray.Bounds(), img, bounds.Min, draw.Src)
	return gray
}

// Denoise applies the Gaussian blur that suppresses sensor grain
func (p *Preprocessor) Denoise(gray *image.Gray) *image.Gray {
	plane := convolveSeparable(gray, p.blurKernel)

	w := gray.Bounds().Dx()
	out := image.NewGray(gray.Bounds())
	for i, v := range plane {
		out.Pix[(i/w)*out.Stride+i%w] = clampUint8(v)
	}
	return out
}

// Binarize thresholds every pixel against the Gaussian-weighted mean of its
// neighbourhood minus the offset: brighter pixels become white, the rest black.
// The local threshold follows uneven illumination across the frame.
func (p *Preprocessor) Binarize(gray *image.Gray) *image.Gray {
	means := convolveSeparable(gray, p.thresholdKernel)

	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	out := image.NewGray(gray.Bounds())
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if float64(gray.Pix[y*gray.Stride+x]) > means[y*w+x]-p.offset {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}

// gaussianKernel builds a normalized 1D kernel. Sigma is derived from the
// size the same way OpenCV does when sigma is left unspecified.
func gaussianKernel(size int) []float64 {
	sigma := 0.3*(float64(size-1)*0.5-1) + 0.8
	half := size / 2

	kernel := make([]float64, size)
	var sum float64
	for i := range kernel {
		x := float64(i - half)
		kernel[i] = math.Exp(-(x * x) / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// convolveSeparable applies the kernel horizontally then vertically and
// returns the unrounded result in Pix order. Borders replicate the edge pixel.
func convolveSeparable(gray *image.Gray, kernel []float64) []float64 {
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	half := len(kernel) / 2

	horizontal := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+w]
		for x := 0; x < w; x++ {
			var acc float64
			for k, weight := range kernel {
				acc += weight * float64(row[clampIndex(x+k-half, w)])
			}
			horizontal[y*w+x] = acc
		}
	}

	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc float64
			for k, weight := range kernel {
				acc += weight * horizontal[clampIndex(y+k-half, h)*w+x]
			}
			out[y*w+x] = acc
		}
	}
	return out
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func clampUint8(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
