package model

import "errors"

// Stable error kinds. Engines and repositories wrap these with %w so the
// handler layer can map kind to HTTP status without string matching.
var (
	// Validation errors, surfaced as client errors.
	ErrInvalidBinType        = errors.New("invalid bin type")
	ErrInvalidCoordinates    = errors.New("invalid coordinates")
	ErrInvalidLocationParams = errors.New("invalid location parameters")
	ErrInvalidBoundingBox    = errors.New("invalid bounding box")

	// Store errors. A query failure is never collapsed into an empty result.
	ErrQueryFailed  = errors.New("database query failed")
	ErrInsertFailed = errors.New("data insertion failed")
	ErrDeleteFailed = errors.New("data deletion failed")
)
