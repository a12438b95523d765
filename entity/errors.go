package entity

import (
	"errors"
	"fmt"
)

// Error values returned by the canal API and embedded in processing results.
// Most of them carry additional detail through error wrapping, so matching
// should be done with errors.Is().
var (
	// ErrValidation is returned when a channel definition fails any of the
	// structural or uniqueness checks. The wrapped detail names the failing field.
	ErrValidation = errors.New("channel validation failed")

	// ErrChannelNotFound is returned when an operation references an unknown channel id.
	ErrChannelNotFound = errors.New("channel not found")

	// ErrChannelAlreadyExists is returned when creating a channel with an id
	// already present in the store.
	ErrChannelAlreadyExists = errors.New("channel already exists")

	// ErrChannelDisabled is returned when message processing is attempted on a
	// disabled channel. No pipeline entity is invoked in that case.
	ErrChannelDisabled = errors.New("channel is disabled")

	// ErrUnsupportedVariant is returned when an unknown "type" discriminator is
	// found during config decoding or pipeline execution. This always hard-fails;
	// unknown variants are never silently skipped.
	ErrUnsupportedVariant = errors.New("unsupported config variant")

	// ErrUnsupportedTemplateEngine is returned by the transformer engine when a
	// TemplateTransformer names an engine no renderer is registered for.
	ErrUnsupportedTemplateEngine = errors.New("unsupported template engine")
)

// NewValidationError wraps ErrValidation with the failing field and reason.
func NewValidationError(field, reason string) error {
	return fmt.Errorf("%w: field '%s': %s", ErrValidation, field, reason)
}
