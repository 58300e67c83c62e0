package delivery

import (
	"context"
	"errors"
	"net/http"

	"adsphere/internal/domain"
)

// errorStatus maps service errors to an HTTP status and a short label for the envelope
func errorStatus(err error) (int, string) {
	var upstream *domain.UpstreamError

	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "Invalid request"
	case errors.Is(err, domain.ErrNotConfigured):
		return http.StatusBadRequest, "Platform not configured"
	case errors.Is(err, domain.ErrUnsupportedPlatform):
		return http.StatusBadRequest, "Operation not supported"
	case errors.Is(err, domain.ErrAuthentication):
		return http.StatusUnauthorized, "Authentication failed"
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "Rate limit exceeded"
	case errors.As(err, &upstream):
		switch upstream.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusTooManyRequests:
			return upstream.StatusCode, "Upstream request failed"
		}
		return http.StatusBadGateway, "Upstream request failed"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Request timeout"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
