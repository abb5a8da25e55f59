package uploads

import "errors"

// Sentinel errors for image storage.
var (
	// ErrInvalidImage is returned when the upload is not an allowed image type.
	ErrInvalidImage = errors.New("invalid image")

	// ErrTooLarge is returned when the upload exceeds the store's MaxBytes.
	ErrTooLarge = errors.New("image too large")

	// ErrInvalidFilename is returned for names that would escape the upload directory.
	ErrInvalidFilename = errors.New("invalid filename")
)
