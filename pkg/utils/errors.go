package utils

import (
	"context"
	"errors"
	"net"
	"os"
	"strings"
)

// --- Sentinel Errors for Categorization ---
var (
	ErrTransport        = errors.New("transport error")           // Wraps network-level failures (DNS, TCP, TLS, timeout)
	ErrClientHTTPError  = errors.New("client HTTP error (4xx)")   // Wraps original error/status
	ErrServerHTTPError  = errors.New("server HTTP error (5xx)")   // Wraps original error/status
	ErrOtherHTTPError   = errors.New("other HTTP error (non-2xx)") // Wraps original error/status
	ErrRequestCreation  = errors.New("failed to create HTTP request")
	ErrResponseBodyRead = errors.New("failed to read response body")
	ErrParsing          = errors.New("parsing error")    // Wraps specific parsing error (HTML, URL)
	ErrFilesystem       = errors.New("filesystem error") // Wraps os errors
	ErrConfigValidation = errors.New("configuration validation error")
)

// CategorizeError maps an error to a predefined category string for logging.
func CategorizeError(err error) string {
	if err == nil {
		return "None"
	}

	switch {
	case errors.Is(err, ErrClientHTTPError):
		errMsg := err.Error()
		if strings.Contains(errMsg, " 404 ") {
			return "HTTP_404"
		}
		if strings.Contains(errMsg, " 403 ") {
			return "HTTP_403"
		}
		if strings.Contains(errMsg, " 429 ") {
			return "HTTP_429"
		}
		return "HTTP_4xx"
	case errors.Is(err, ErrServerHTTPError):
		return "HTTP_5xx"
	case errors.Is(err, ErrOtherHTTPError):
		return "HTTP_OtherStatus"
	case errors.Is(err, ErrRequestCreation):
		return "Internal_RequestCreation"
	case errors.Is(err, ErrResponseBodyRead):
		return "Network_BodyRead"
	case errors.Is(err, ErrParsing):
		errMsg := err.Error()
		if strings.Contains(errMsg, "URL") {
			return "Content_ParsingURL"
		}
		if strings.Contains(errMsg, "HTML") {
			return "Content_ParsingHTML"
		}
		return "Content_ParsingOther"
	case errors.Is(err, ErrFilesystem):
		if errors.Is(err, os.ErrPermission) {
			return "Filesystem_Permission"
		}
		if errors.Is(err, os.ErrNotExist) {
			return "Filesystem_NotExist"
		}
		return "Filesystem_Other"
	case errors.Is(err, ErrConfigValidation):
		return "Config_Validation"
	case errors.Is(err, ErrTransport):
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return "Network_Timeout"
		}
		lowerMsg := strings.ToLower(err.Error())
		if strings.Contains(lowerMsg, "timeout") || strings.Contains(lowerMsg, "deadline exceeded") {
			return "Network_Timeout"
		}
		if strings.Contains(lowerMsg, "connection refused") {
			return "Network_ConnectionRefused"
		}
		if strings.Contains(lowerMsg, "no such host") {
			return "Network_DNSLookup"
		}
		if strings.Contains(lowerMsg, "tls") || strings.Contains(lowerMsg, "certificate") {
			return "Network_TLS"
		}
		if strings.Contains(lowerMsg, "reset by peer") {
			return "Network_ConnectionReset"
		}
		return "Network_Other"
	}

	// --- Fallback checks for common underlying error types ---
	if errors.Is(err, context.Canceled) {
		return "System_ContextCanceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "System_ContextDeadlineExceeded"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "Network_Timeout"
	}

	return "Unknown"
}
