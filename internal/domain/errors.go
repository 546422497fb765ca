package domain

import "errors"

var (
	// ErrUnreadableImage is returned when the uploaded bytes are not a decodable raster image
	ErrUnreadableImage = errors.New("unreadable image")

	// ErrImageTooLarge is returned when an image header declares more pixels than the scanner accepts
	ErrImageTooLarge = errors.New("image dimensions exceed limit")

	// ErrProductNotFound is returned by a lookup source that has no record for a barcode
	ErrProductNotFound = errors.New("product not found")

	// ErrSourceUnavailable is returned when the remote lookup service fails
	// (transport error, non-success status, unparseable body)
	ErrSourceUnavailable = errors.New("lookup source unavailable")

	// ErrBarcodeTooShort is returned when a barcode is too short to be worth a remote lookup
	ErrBarcodeTooShort = errors.New("barcode shorter than minimum lookup length")

	// ErrLookupDisabled is returned when no remote lookup credential is configured
	ErrLookupDisabled = errors.New("remote lookup not configured")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrRateLimited is returned when the remote rate limiter cannot grant a request in time
	ErrRateLimited = errors.New("rate limit exceeded")
)
