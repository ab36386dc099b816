package simplepublish

import (
	"errors"
	"fmt"
	"net/http"
)

// Error types
var (
	// ErrNotFound indicates the requested content ID has no envelope in the
	// blob store
	ErrNotFound = errors.New("envelope not found")

	// ErrCorrupt indicates stored envelope bytes failed to parse as JSON
	ErrCorrupt = errors.New("stored envelope is corrupt")

	// ErrObjectNotFound is returned by blob store adapters when no object
	// exists under the requested key
	ErrObjectNotFound = errors.New("object not found")

	// ErrInvalidAssetName indicates an asset's original name contains path
	// separators or dot elements and cannot become a storage key
	ErrInvalidAssetName = errors.New("invalid asset name")
)

// EnvelopeError represents an error from an envelope operation
type EnvelopeError struct {
	ContentID string
	Op        string
	Err       error
}

func (e *EnvelopeError) Error() string {
	return fmt.Sprintf("envelope operation %s failed for content %q: %v", e.Op, e.ContentID, e.Err)
}

func (e *EnvelopeError) Unwrap() error {
	return e.Err
}

// AssetError represents an error from the asset pipeline
type AssetError struct {
	OriginalName string
	Op           string
	Err          error
}

func (e *AssetError) Error() string {
	return fmt.Sprintf("asset operation %s failed for %q: %v", e.Op, e.OriginalName, e.Err)
}

func (e *AssetError) Unwrap() error {
	return e.Err
}

// StorageError represents an error from a backend call. StatusCode is
// optional; backends that know an appropriate HTTP status set it, and the
// boundary layer honors it over the generic 500.
type StorageError struct {
	Backend    string
	Key        string
	Op         string
	StatusCode int
	Err        error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %q on backend %s: %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps a service error to the status code the HTTP boundary
// should return. Backend-internal detail is not leaked beyond the code.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrInvalidAssetName) {
		return http.StatusBadRequest
	}
	var se *StorageError
	if errors.As(err, &se) && se.StatusCode != 0 {
		return se.StatusCode
	}
	return http.StatusInternalServerError
}
