package gateway

import (
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"
	"testing"
)

func TestClassifyNetworkError_Timeout(t *testing.T) {
	err := &url.Error{
		Op:  "Get",
		URL: "https://192.168.2.1/api/loraNetwork/whitelist",
		Err: &net.OpError{
			Op:  "dial",
			Net: "tcp",
			Err: &timeoutError{},
		},
	}

	gwErr := ClassifyNetworkError(err, "192.168.2.1")

	if gwErr == nil {
		t.Fatal("Expected Error, got nil")
	}
	if gwErr.Type != ErrTypeTimeout {
		t.Errorf("Expected error type %v, got %v", ErrTypeTimeout, gwErr.Type)
	}
	if gwErr.NetworkSubtype != NetworkErrorTimeout {
		t.Errorf("Expected network subtype %v, got %v", NetworkErrorTimeout, gwErr.NetworkSubtype)
	}
	if !gwErr.Retryable {
		t.Error("Expected timeout error to be retryable")
	}
}

func TestClassifyNetworkError_ConnectionRefused(t *testing.T) {
	err := &url.Error{
		Op:  "Get",
		URL: "https://192.168.2.1/api/login",
		Err: &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED},
	}

	gwErr := ClassifyNetworkError(err, "192.168.2.1")

	if gwErr.Type != ErrTypeConnectionRefused {
		t.Errorf("Expected error type %v, got %v", ErrTypeConnectionRefused, gwErr.Type)
	}
	if !gwErr.Retryable {
		t.Error("Expected connection refused error to be retryable")
	}
}

func TestClassifyNetworkError_DNS(t *testing.T) {
	err := &net.DNSError{Err: "no such host", Name: "mtcap.invalid", IsNotFound: true}

	gwErr := ClassifyNetworkError(err, "mtcap.invalid")

	if gwErr.Type != ErrTypeDNS {
		t.Errorf("Expected error type %v, got %v", ErrTypeDNS, gwErr.Type)
	}
	if gwErr.Retryable {
		t.Error("Expected DNS error to not be retryable")
	}
	if !strings.Contains(gwErr.Message, "mtcap.invalid") {
		t.Errorf("Expected message to name the host, got %q", gwErr.Message)
	}
}

func TestClassifyNetworkError_Certificate(t *testing.T) {
	err := &url.Error{
		Op:  "Get",
		URL: "https://192.168.2.1/api/login",
		Err: x509.UnknownAuthorityError{},
	}

	gwErr := ClassifyNetworkError(err, "192.168.2.1")

	if gwErr.Type != ErrTypeTLS {
		t.Errorf("Expected error type %v, got %v", ErrTypeTLS, gwErr.Type)
	}
	if gwErr.Retryable {
		t.Error("Expected TLS error to not be retryable")
	}
}

func TestClassifyNetworkError_Unreachable(t *testing.T) {
	tests := []struct {
		name    string
		errno   syscall.Errno
		subtype NetworkErrorSubtype
	}{
		{"host unreachable", syscall.EHOSTUNREACH, NetworkErrorHostUnreachable},
		{"network unreachable", syscall.ENETUNREACH, NetworkErrorNetworkUnreachable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &net.OpError{Op: "dial", Net: "tcp", Err: tt.errno}
			gwErr := ClassifyNetworkError(err, "10.0.0.1")

			if gwErr.Type != ErrTypeNetwork {
				t.Errorf("Type = %v, want %v", gwErr.Type, ErrTypeNetwork)
			}
			if gwErr.NetworkSubtype != tt.subtype {
				t.Errorf("NetworkSubtype = %v, want %v", gwErr.NetworkSubtype, tt.subtype)
			}
		})
	}
}

func TestClassifyNetworkError_Nil(t *testing.T) {
	if ClassifyNetworkError(nil, "host") != nil {
		t.Error("Expected nil for nil error")
	}
}

func TestErrorString(t *testing.T) {
	err := NewGatewayError(400, "Device already exists")
	err.Method = "PUT"
	err.Path = "loraNetwork/whitelist"

	got := err.Error()
	want := "Gateway Error [PUT loraNetwork/whitelist]: Device already exists"
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestErrorHelpers_Wrapped(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"auth", NewAuthError("bad token"), IsAuthError},
		{"http", NewHTTPError(502, "bad gateway"), IsHTTPError},
		{"gateway", NewGatewayError(200, "nope"), IsGatewayError},
		{"protocol", NewProtocolError("not a list", errors.New("json")), IsProtocolError},
		{"network", NewNetworkError("dial failed", errors.New("boom")), IsNetworkError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("remove: phase 1: %w", tt.err)
			if !tt.check(wrapped) {
				t.Errorf("helper did not classify wrapped %v", wrapped)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(NewHTTPError(503, "unavailable")) {
		t.Error("5xx should be retryable")
	}
	if IsRetryable(NewHTTPError(404, "not found")) {
		t.Error("4xx should not be retryable")
	}
	if IsRetryable(NewGatewayError(200, "fail")) {
		t.Error("gateway refusals should not be retryable")
	}
	if IsRetryable(errors.New("plain")) {
		t.Error("unknown errors should not be retryable")
	}
}

func TestShortMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{NewAuthError("x"), "Authentication failed - check credentials"},
		{NewHTTPError(500, "x"), "Gateway error (HTTP 500)"},
		{NewGatewayError(200, " Invalid deveui "), "Gateway rejected request: Invalid deveui"},
		{NewProtocolError("x", nil), "Unexpected gateway response"},
		{errors.New("plain failure"), "plain failure"},
	}

	for _, tt := range tests {
		if got := ShortMessage(tt.err); got != tt.want {
			t.Errorf("ShortMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestTroubleshootingHint(t *testing.T) {
	if hints := TroubleshootingHint(errors.New("plain")); hints != nil {
		t.Errorf("Expected no hints for plain errors, got %v", hints)
	}

	hints := TroubleshootingHint(&Error{Type: ErrTypeTLS})
	if len(hints) == 0 || !strings.Contains(strings.Join(hints, " "), "--insecure") {
		t.Errorf("Expected TLS hint to mention --insecure, got %v", hints)
	}
}

// timeoutError is a mock error that implements timeout behavior
type timeoutError struct{}

func (e *timeoutError) Error() string   { return "i/o timeout" }
func (e *timeoutError) Timeout() bool   { return true }
func (e *timeoutError) Temporary() bool { return true }
