package services

import "errors"

// Failure kinds surfaced to the HTTP layer. Anything raised before the
// first streamed byte maps to one of these; provider failures that
// happen mid-stream are reported in-band instead (see Relay).
var (
	ErrEmptyRequest = errors.New("message or image is required")
	ErrInvalidImage = errors.New("image attachment could not be decoded")

	// raised instead of silently dropping an image sent to a text-only model
	ErrUnsupportedAttachment = errors.New("selected model does not accept image attachments")

	ErrProvider     = errors.New("provider request failed")
	ErrUnknownModel = errors.New("unknown model id")
)
