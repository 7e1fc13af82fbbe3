package service

import (
	"errors"
	"fmt"

	"go-brindes-ws/internal/resolver"
)

// Failure taxonomy shared by the engines, the assistant and the HTTP layer.
var (
	ErrResolution        = errors.New("reference not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrIllegalTransition = errors.New("illegal transition")
	ErrMalformedInput    = errors.New("malformed input")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
)

// resolutionError converts a resolver failure into the service taxonomy.
func resolutionError(kind, reference string, err error) error {
	if errors.Is(err, resolver.ErrEmptyReference) {
		return fmt.Errorf("%w: a %s reference is required", ErrMalformedInput, kind)
	}
	return fmt.Errorf("%w: no %s matches '%s'", ErrResolution, kind, reference)
}
