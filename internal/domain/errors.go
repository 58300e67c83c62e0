package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrAuthentication      = errors.New("authentication failed")
	ErrRateLimited         = errors.New("rate limit exceeded")
	ErrNotConfigured       = errors.New("platform not configured")
	ErrValidation          = errors.New("validation failed")
	ErrUpstream            = errors.New("upstream error")
	ErrUnsupportedPlatform = errors.New("operation not supported by platform")
)

// UpstreamError carries a non-2xx provider response, or a payload that failed schema checks (502)
type UpstreamError struct {
	Platform   Platform
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s API returned status %d: %s", e.Platform, e.StatusCode, e.Message)
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// NewSchemaError reports a provider payload that does not match the expected shape
func NewSchemaError(platform Platform, format string, args ...any) *UpstreamError {
	return &UpstreamError{
		Platform:   platform,
		StatusCode: http.StatusBadGateway,
		Message:    "unexpected response schema: " + fmt.Sprintf(format, args...),
	}
}

func NewValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func NewNotConfiguredError(platform Platform) error {
	return fmt.Errorf("%w: %s integration not configured", ErrNotConfigured, platform.Label())
}

func NewAuthenticationError(platform Platform, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %s", ErrAuthentication, platform.Label())
	}
	return fmt.Errorf("%w: %s: %v", ErrAuthentication, platform.Label(), cause)
}

func NewRateLimitError(platform Platform) error {
	return fmt.Errorf("%w: %s API local request window exhausted", ErrRateLimited, platform.Label())
}
