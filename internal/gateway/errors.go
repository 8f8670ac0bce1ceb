package gateway

import (
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// Error types for gateway management API operations

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a transport-level error (connection reset, unreachable, etc.)
	ErrTypeNetwork ErrorType = iota
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates the gateway refused the connection
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates a DNS resolution failure
	ErrTypeDNS
	// ErrTypeTLS indicates the gateway certificate was rejected
	ErrTypeTLS
	// ErrTypeAuth indicates an authentication failure (bad credentials or expired token)
	ErrTypeAuth
	// ErrTypeHTTP indicates a non-2xx status without a readable status envelope
	ErrTypeHTTP
	// ErrTypeGateway indicates the gateway answered with a non-success status envelope
	ErrTypeGateway
	// ErrTypeProtocol indicates a response body that does not have the expected shape
	ErrTypeProtocol
	// ErrTypeUnknown indicates an unknown or unexpected error
	ErrTypeUnknown
)

// NetworkErrorSubtype provides more specific network error classification
type NetworkErrorSubtype int

const (
	NetworkErrorGeneral NetworkErrorSubtype = iota
	NetworkErrorTimeout
	NetworkErrorConnectionRefused
	NetworkErrorDNS
	NetworkErrorHostUnreachable
	NetworkErrorNetworkUnreachable
	NetworkErrorCertificate
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeTLS:
		return "TLS Error"
	case ErrTypeAuth:
		return "Authentication Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeGateway:
		return "Gateway Error"
	case ErrTypeProtocol:
		return "Protocol Error"
	case ErrTypeUnknown:
		return "Unknown Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error represents an error that occurred while talking to the gateway
type Error struct {
	Type           ErrorType           // Category of error
	Message        string              // Human-readable error message
	StatusCode     int                 // HTTP status code (if applicable)
	Err            error               // Underlying error (if any)
	NetworkSubtype NetworkErrorSubtype // More specific network error type
	Host           string              // Gateway host (for context)
	Method         string              // HTTP method of the failed call
	Path           string              // API path of the failed call, without query
	Retryable      bool                // Whether the error is retryable
}

// Error implements the error interface
func (e *Error) Error() string {
	where := ""
	if e.Method != "" && e.Path != "" {
		where = fmt.Sprintf(" [%s %s]", e.Method, e.Path)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s%s: %s (caused by: %v)", e.Type, where, e.Message, e.Err)
	}
	return fmt.Sprintf("%s%s: %s", e.Type, where, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError analyzes an error and returns a more specific error type
func ClassifyNetworkError(err error, host string) *Error {
	if err == nil {
		return nil
	}

	if os.IsTimeout(err) {
		return &Error{
			Type:           ErrTypeTimeout,
			Message:        "Request timed out",
			Err:            err,
			NetworkSubtype: NetworkErrorTimeout,
			Host:           host,
			Retryable:      true,
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &Error{
			Type:           ErrTypeDNS,
			Message:        fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Err:            err,
			NetworkSubtype: NetworkErrorDNS,
			Host:           host,
			Retryable:      false,
		}
	}

	var unknownAuthority x509.UnknownAuthorityError
	var hostnameErr x509.HostnameError
	var certInvalid x509.CertificateInvalidError
	if errors.As(err, &unknownAuthority) || errors.As(err, &hostnameErr) || errors.As(err, &certInvalid) {
		return &Error{
			Type:           ErrTypeTLS,
			Message:        "Gateway certificate was not trusted",
			Err:            err,
			NetworkSubtype: NetworkErrorCertificate,
			Host:           host,
			Retryable:      false,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNREFUSED) {
			return &Error{
				Type:           ErrTypeConnectionRefused,
				Message:        "Gateway refused connection",
				Err:            err,
				NetworkSubtype: NetworkErrorConnectionRefused,
				Host:           host,
				Retryable:      true,
			}
		}
		if errors.Is(opErr.Err, syscall.EHOSTUNREACH) {
			return &Error{
				Type:           ErrTypeNetwork,
				Message:        "Host unreachable",
				Err:            err,
				NetworkSubtype: NetworkErrorHostUnreachable,
				Host:           host,
				Retryable:      true,
			}
		}
		if errors.Is(opErr.Err, syscall.ENETUNREACH) {
			return &Error{
				Type:           ErrTypeNetwork,
				Message:        "Network unreachable",
				Err:            err,
				NetworkSubtype: NetworkErrorNetworkUnreachable,
				Host:           host,
				Retryable:      true,
			}
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != err {
		// Recursively classify the underlying error
		return ClassifyNetworkError(urlErr.Err, host)
	}

	return &Error{
		Type:           ErrTypeNetwork,
		Message:        "Network error occurred",
		Err:            err,
		NetworkSubtype: NetworkErrorGeneral,
		Host:           host,
		Retryable:      true,
	}
}

// NewNetworkError creates a transport-level error with automatic classification
func NewNetworkError(message string, err error) *Error {
	classified := ClassifyNetworkError(err, "")
	if classified != nil {
		classified.Message = message
		return classified
	}
	return &Error{
		Type:      ErrTypeNetwork,
		Message:   message,
		Err:       err,
		Retryable: true,
	}
}

// NewAuthError creates an authentication error
func NewAuthError(message string) *Error {
	return &Error{
		Type:       ErrTypeAuth,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
		Retryable:  false,
	}
}

// NewHTTPError creates an HTTP-level error
func NewHTTPError(statusCode int, message string) *Error {
	return &Error{
		Type:       ErrTypeHTTP,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  statusCode >= 500,
	}
}

// NewGatewayError creates an error for a non-success status envelope.
// message is the gateway's own error text, or a dump of the response.
func NewGatewayError(statusCode int, message string) *Error {
	return &Error{
		Type:       ErrTypeGateway,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  false,
	}
}

// NewProtocolError creates an error for a response body of unexpected shape
func NewProtocolError(message string, err error) *Error {
	return &Error{
		Type:      ErrTypeProtocol,
		Message:   message,
		Err:       err,
		Retryable: false,
	}
}

func asError(err error) (*Error, bool) {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr, true
	}
	return nil, false
}

// IsNetworkError checks if an error is a transport error (including timeout, connection refused, DNS, TLS)
func IsNetworkError(err error) bool {
	if gwErr, ok := asError(err); ok {
		return gwErr.Type == ErrTypeNetwork ||
			gwErr.Type == ErrTypeTimeout ||
			gwErr.Type == ErrTypeConnectionRefused ||
			gwErr.Type == ErrTypeDNS ||
			gwErr.Type == ErrTypeTLS
	}
	return false
}

// IsAuthError checks if an error is an authentication error
func IsAuthError(err error) bool {
	gwErr, ok := asError(err)
	return ok && gwErr.Type == ErrTypeAuth
}

// IsHTTPError checks if an error is an HTTP error
func IsHTTPError(err error) bool {
	gwErr, ok := asError(err)
	return ok && gwErr.Type == ErrTypeHTTP
}

// IsGatewayError checks if an error is a non-success status envelope
func IsGatewayError(err error) bool {
	gwErr, ok := asError(err)
	return ok && gwErr.Type == ErrTypeGateway
}

// IsProtocolError checks if an error is a response shape error
func IsProtocolError(err error) bool {
	gwErr, ok := asError(err)
	return ok && gwErr.Type == ErrTypeProtocol
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	if gwErr, ok := asError(err); ok {
		return gwErr.Retryable
	}
	// Unknown errors are not retryable by default
	return false
}

// TroubleshootingHint returns user-friendly troubleshooting advice for an error
func TroubleshootingHint(err error) []string {
	gwErr, ok := asError(err)
	if !ok {
		return nil
	}

	switch gwErr.Type {
	case ErrTypeTimeout:
		return []string{
			"Check that the gateway is powered on and reachable",
			"Try increasing --timeout; committing changes can take several seconds",
		}

	case ErrTypeConnectionRefused:
		return []string{
			"Verify the management API is enabled on the gateway (HTTPS, port 443 by default)",
			"Check the host and port passed with --gateway",
		}

	case ErrTypeDNS:
		return []string{
			"Use the gateway IP address instead of its hostname",
			"Run 'mtcap-cfg scan' to discover gateways on the local network",
		}

	case ErrTypeTLS:
		return []string{
			"The gateway ships a self-signed certificate",
			"Pass --insecure to skip certificate verification",
		}

	case ErrTypeAuth:
		return []string{
			"Check the username and password",
			"The session token may have expired; run the command again to log in",
		}

	case ErrTypeNetwork:
		switch gwErr.NetworkSubtype {
		case NetworkErrorHostUnreachable:
			return []string{
				"The gateway is not reachable on the network",
				"Verify the gateway IP address is correct",
				"Try pinging the gateway: ping " + gwErr.Host,
			}
		case NetworkErrorNetworkUnreachable:
			return []string{
				"Your computer cannot reach the gateway's network",
				"Check your network adapter and routing settings",
			}
		default:
			return []string{
				"Check your network connection",
				"Verify the gateway is powered on",
			}
		}

	case ErrTypeHTTP:
		if gwErr.StatusCode >= 500 {
			return []string{
				fmt.Sprintf("The gateway returned HTTP %d", gwErr.StatusCode),
				"Try rebooting the gateway",
			}
		}
		return []string{"Check the request parameters and firmware version"}

	case ErrTypeGateway:
		return []string{
			"The gateway rejected the request: " + gwErr.Message,
			"Changes issued before this call may already be applied; run 'mtcap-cfg list' to inspect",
		}

	case ErrTypeProtocol:
		return []string{
			"The gateway's response did not have the expected shape",
			"This may indicate an unsupported firmware version",
		}

	default:
		return nil
	}
}

// ShortMessage returns a concise, user-friendly error message
func ShortMessage(err error) string {
	gwErr, ok := asError(err)
	if !ok {
		return err.Error()
	}

	switch gwErr.Type {
	case ErrTypeTimeout:
		return "Gateway not responding (timeout)"
	case ErrTypeConnectionRefused:
		return "Gateway refused connection"
	case ErrTypeDNS:
		return "Cannot resolve gateway hostname"
	case ErrTypeTLS:
		return "Gateway certificate not trusted"
	case ErrTypeAuth:
		return "Authentication failed - check credentials"
	case ErrTypeNetwork:
		switch gwErr.NetworkSubtype {
		case NetworkErrorHostUnreachable:
			return "Gateway unreachable - check network connection"
		case NetworkErrorNetworkUnreachable:
			return "Network unreachable"
		default:
			return "Network error - check connection"
		}
	case ErrTypeHTTP:
		return fmt.Sprintf("Gateway error (HTTP %d)", gwErr.StatusCode)
	case ErrTypeGateway:
		return "Gateway rejected request: " + strings.TrimSpace(gwErr.Message)
	case ErrTypeProtocol:
		return "Unexpected gateway response"
	default:
		return gwErr.Message
	}
}
