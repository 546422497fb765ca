package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/productscan/backend/internal/domain"
	"github.com/productscan/backend/internal/logger"
	"github.com/sirupsen/logrus"
)

const (
	serviceName    = "productscan-backend"
	serviceVersion = "1.0.0"

	// imageField is the multipart form field holding the upload
	imageField = "image"
)

// allowedExtensions lists the upload file types accepted by ScanImage
var allowedExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
}

// Scanner decodes the first barcode in an image
type Scanner interface {
	Scan(ctx context.Context, data []byte) (*domain.BarcodeReading, error)
}

// Resolver maps a barcode to product metadata
type Resolver interface {
	Resolve(ctx context.Context, barcode string) (*domain.Resolution, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	scanner        Scanner
	resolver       Resolver
	requestTimeout time.Duration
}

// NewHandler creates a new HTTP handler. A zero requestTimeout leaves the
// request context as is.
func NewHandler(scanner Scanner, resolver Resolver, requestTimeout time.Duration) *Handler {
	return &Handler{
		scanner:        scanner,
		resolver:       resolver,
		requestTimeout: requestTimeout,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}

// ScanImage handles POST /api/v1/scan.
// Flow: read multipart upload -> scan for a barcode -> resolve product -> respond.
func (h *Handler) ScanImage(c *gin.Context) {
	if h.scanner == nil || h.resolver == nil {
		c.JSON(http.StatusNotImplemented, gin.H{
			"error": "Scanner not configured",
		})
		return
	}

	data, status, msg := h.readUpload(c)
	if status != 0 {
		c.JSON(status, gin.H{"error": msg})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	log := logger.WithFields(logrus.Fields{
		"request_id": requestID(c),
		"bytes":      len(data),
	})

	reading, err := h.scanner.Scan(ctx, data)
	if err != nil {
		log.WithError(err).Warn("scan failed")
		c.JSON(statusForError(err), gin.H{"error": messageForError(err)})
		return
	}
	if reading == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "No barcode detected in the image. Please try again with a clearer image.",
		})
		return
	}

	result := domain.ScanResult{
		Barcode:   reading.Value,
		Symbology: reading.Symbology,
	}

	resolution, err := h.resolver.Resolve(ctx, reading.Value)
	switch {
	case err != nil:
		// The barcode itself was read; an unresolvable value only means no product
		log.WithError(err).WithField("barcode", reading.Value).Warn("could not resolve scanned barcode")
	case resolution.Found():
		result.Product = resolution.Product
		result.Source = resolution.Source
	}

	log.WithFields(logrus.Fields{
		"barcode":   result.Barcode,
		"symbology": result.Symbology,
		"found":     result.Product != nil,
	}).Info("image scanned")

	c.JSON(http.StatusOK, result)
}

// GetProduct handles GET /api/v1/products/:barcode for typed-in barcodes
func (h *Handler) GetProduct(c *gin.Context) {
	if h.resolver == nil {
		c.JSON(http.StatusNotImplemented, gin.H{
			"error": "Product lookup not configured",
		})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	resolution, err := h.resolver.Resolve(ctx, c.Param("barcode"))
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": messageForError(err)})
		return
	}

	c.JSON(http.StatusOK, resolution)
}

// readUpload extracts the image bytes from the multipart request.
// A non-zero status means the request was rejected with msg.
func (h *Handler) readUpload(c *gin.Context) ([]byte, int, string) {
	fileHeader, err := c.FormFile(imageField)
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return nil, http.StatusRequestEntityTooLarge, "File too large"
		case errors.Is(err, http.ErrMissingFile) && hasEmptyFilePart(c):
			return nil, http.StatusBadRequest, "No selected file"
		default:
			return nil, http.StatusBadRequest, "No file part"
		}
	}

	if fileHeader.Filename == "" {
		return nil, http.StatusBadRequest, "No selected file"
	}
	if !allowedFile(fileHeader.Filename) {
		return nil, http.StatusBadRequest, "Invalid file type. Please upload an image file (png, jpg, jpeg, gif)."
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, http.StatusBadRequest, "Could not read uploaded file"
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, http.StatusBadRequest, "Could not read uploaded file"
	}
	return data, 0, ""
}

// hasEmptyFilePart reports whether the form carried an image part without a
// filename, which multipart parsing files under plain values
func hasEmptyFilePart(c *gin.Context) bool {
	form := c.Request.MultipartForm
	if form == nil {
		return false
	}
	_, ok := form.Value[imageField]
	return ok
}

// allowedFile checks the upload's extension against allowedExtensions
func allowedFile(filename string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	return allowedExtensions[ext]
}

func (h *Handler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.requestTimeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.requestTimeout)
}

// statusForError maps domain errors to HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrUnreadableImage):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// messageForError returns the client-facing message for an error
func messageForError(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return "Barcode is required"
	case errors.Is(err, domain.ErrImageTooLarge):
		return "Image dimensions too large"
	case errors.Is(err, domain.ErrUnreadableImage):
		return "Could not read the uploaded image"
	case errors.Is(err, context.DeadlineExceeded):
		return "Request timed out"
	default:
		return "Internal server error"
	}
}
