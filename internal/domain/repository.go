package domain

import (
	"context"
	"image"
)

// SourceKind identifies one of the fixed product lookup sources
type SourceKind int

const (
	SourceRemote SourceKind = iota
	SourceLocal
)

// String returns the name reported in resolutions, logs and metrics
func (k SourceKind) String() string {
	switch k {
	case SourceRemote:
		return "remote"
	case SourceLocal:
		return "catalog"
	default:
		return "unknown"
	}
}

// SourcePriority is the order in which lookup sources are consulted
var SourcePriority = []SourceKind{SourceRemote, SourceLocal}

// CatalogRepository is the read-only local barcode to product table
type CatalogRepository interface {
	Lookup(ctx context.Context, barcode string) (*ProductRecord, error)
}

// ProductLookupClient defines the interface for the remote product lookup service
type ProductLookupClient interface {
	// Enabled reports whether a credential is configured
	Enabled() bool
	// LookupBarcode returns ErrProductNotFound when the service has no usable
	// record and wraps ErrSourceUnavailable on any transport or format failure.
	LookupBarcode(ctx context.Context, barcode string) (*ProductRecord, error)
}

// ImagePreprocessor turns uploaded bytes into the ordered decode variants
type ImagePreprocessor interface {
	Decode(data []byte) (image.Image, error)
	Variants(img image.Image) []ImageVariant
}

// BarcodeDetector is the underlying decode routine run against one variant.
// It returns every barcode it finds, in its own native order.
type BarcodeDetector interface {
	Detect(img *image.Gray) ([]BarcodeReading, error)
}
