package domain

import "image"

// Symbology names the barcode encoding scheme, e.g. "EAN_13" or "CODE_128"
type Symbology string

const (
	SymbologyEAN13   Symbology = "EAN_13"
	SymbologyEAN8    Symbology = "EAN_8"
	SymbologyUPCA    Symbology = "UPC_A"
	SymbologyUPCE    Symbology = "UPC_E"
	SymbologyCode128 Symbology = "CODE_128"
	SymbologyCode39  Symbology = "CODE_39"
	SymbologyITF     Symbology = "ITF"
	SymbologyQRCode  Symbology = "QR_CODE"
	SymbologyUnknown Symbology = "UNKNOWN"
)

// BarcodeReading is a single decoded barcode. Value is the raw decoded text
// and may still contain separators; use NormalizeBarcode before lookups.
type BarcodeReading struct {
	Value     string    `json:"value"`
	Symbology Symbology `json:"symbology"`
}

// ImageVariant is one preprocessed single-channel rendition of an input image
type ImageVariant struct {
	Name  string
	Image *image.Gray
}

// Variant names, in the order they are attempted
const (
	VariantGrayscale = "grayscale"
	VariantDenoised  = "denoised"
	VariantBinarized = "binarized"
)
