package core

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorInvalidInput = "MESSAGING_INVALID_INPUT"
	ErrorValidation   = "MESSAGING_VALIDATION"
	ErrorCredential   = "MESSAGING_CREDENTIAL"
	ErrorTransport    = "MESSAGING_TRANSPORT"
	ErrorUnsupported  = "MESSAGING_UNSUPPORTED"
	ErrorInternal     = "MESSAGING_INTERNAL"
)

// TransportError is the structured failure a Transport reports when a
// request could not produce an HTTP response.
type TransportError struct {
	Code    string
	Message string
}

func (e *TransportError) Error() string {
	if e == nil {
		return ""
	}
	if strings.TrimSpace(e.Code) == "" {
		return e.Message
	}
	return e.Code + ": " + e.Message
}

// InputError reports malformed input bytes or structure.
func InputError(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryBadInput).
		WithCode(400).
		WithTextCode(ErrorInvalidInput)
}

// ValidationError reports semantic violations such as missing text or an
// unroutable destination.
func ValidationError(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryValidation).
		WithCode(400).
		WithTextCode(ErrorValidation)
}

func CredentialError(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryAuth).
		WithCode(401).
		WithTextCode(ErrorCredential)
}

func TransportFailure(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryExternal).
		WithCode(502).
		WithTextCode(ErrorTransport)
}

func UnsupportedError(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryOperation).
		WithCode(400).
		WithTextCode(ErrorUnsupported)
}

// ErrorMessage returns the wire text for err. Rich errors contribute their
// message rather than the category decorated Error() rendering.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if transportErr, ok := err.(*TransportError); ok && transportErr != nil {
		return transportErr.Message
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr != nil && strings.TrimSpace(richErr.Message) != "" {
		if richErr.Source != nil {
			return richErr.Message + ": " + ErrorMessage(richErr.Source)
		}
		return richErr.Message
	}
	return err.Error()
}
