package domain

import "strings"

// UnknownValue replaces any product field that could not be determined
const UnknownValue = "Unknown"

// ProductRecord is the human-readable description of a scanned product.
// Every field is always populated; missing data is UnknownValue.
type ProductRecord struct {
	Name         string `json:"name" yaml:"name"`
	Manufacturer string `json:"manufacturer" yaml:"manufacturer"`
	Category     string `json:"category" yaml:"category"`
	Description  string `json:"description" yaml:"description"`
}

// WithDefaults returns a copy of the record with blank fields set to UnknownValue
func (p ProductRecord) WithDefaults() ProductRecord {
	return ProductRecord{
		Name:         orUnknown(p.Name),
		Manufacturer: orUnknown(p.Manufacturer),
		Category:     orUnknown(p.Category),
		Description:  orUnknown(p.Description),
	}
}

func orUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return UnknownValue
	}
	return s
}

// Resolution is the outcome of resolving one barcode against the lookup sources.
// A nil Product means the barcode is valid but no source knows the product.
type Resolution struct {
	Barcode string         `json:"barcode"`
	Product *ProductRecord `json:"product"`
	Source  string         `json:"source,omitempty"` // "remote" or "catalog"
}

// Found reports whether any source produced a product
func (r *Resolution) Found() bool {
	return r != nil && r.Product != nil
}

// ScanResult is returned to callers after a successful image scan
type ScanResult struct {
	Barcode   string         `json:"barcode"`
	Symbology Symbology      `json:"type"`
	Product   *ProductRecord `json:"product"`
	Source    string         `json:"source,omitempty"`
}

// NormalizeBarcode strips every non-digit character from a barcode value.
// The result is the only key used for product lookups.
func NormalizeBarcode(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
