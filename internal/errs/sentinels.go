// Package errs contains the sentinel errors surfaced by the local (offline) path.
package errs

import "errors"

var (
	// ErrInvalidCatalog indicates a draw over empty contents or a non-positive total weight.
	ErrInvalidCatalog = errors.New("invalid catalog")

	// ErrSleeveNotFound indicates the sleeve id is not in the local catalog.
	ErrSleeveNotFound = errors.New("sleeve not found")

	// ErrEmptySleeve indicates the sleeve exists but has nothing to draw.
	ErrEmptySleeve = errors.New("sleeve is empty")

	// ErrInvalidCredentials indicates a blank username or password.
	ErrInvalidCredentials = errors.New("username and password are required")

	// ErrOutcomeUnknown indicates the server accepted an open request but its
	// response was unreadable, so a grant may already have happened remotely.
	ErrOutcomeUnknown = errors.New("open outcome unknown")
)
