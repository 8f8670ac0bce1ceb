package gateway

import (
	"testing"

	"github.com/muurk/mtcap-allowlist/internal/gateway/gatewaytest"
)

func newFakeClient(t *testing.T) (*Client, *gatewaytest.Server) {
	t.Helper()
	fake := gatewaytest.NewServer()
	t.Cleanup(fake.Close)

	client := NewClientWithURL(fake.APIURL(), fake.Client())
	client.MaxRetries = 0
	return client, fake
}

func TestLogin_StoresToken(t *testing.T) {
	client, fake := newFakeClient(t)
	fake.RequireAuth()

	if err := client.Login(gatewaytest.DefaultUsername, gatewaytest.DefaultPassword); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if !client.LoggedIn() {
		t.Fatal("LoggedIn() = false after login")
	}
	if client.Token() != fake.Token() {
		t.Errorf("Token() = %q, want %q", client.Token(), fake.Token())
	}

	if _, err := client.Get("loraNetwork/whitelist"); err != nil {
		t.Errorf("Get() with session error = %v", err)
	}
}

func TestLogin_BadPassword(t *testing.T) {
	client, fake := newFakeClient(t)
	fake.RequireAuth()

	err := client.Login(gatewaytest.DefaultUsername, "wrong")
	if !IsAuthError(err) {
		t.Fatalf("Login() error = %v, want auth error", err)
	}
	if client.LoggedIn() {
		t.Error("LoggedIn() = true after failed login")
	}
}

func TestLogin_DefaultUsername(t *testing.T) {
	client, _ := newFakeClient(t)

	if err := client.Login("", gatewaytest.DefaultPassword); err != nil {
		t.Errorf("Login() with empty username error = %v", err)
	}
}

func TestRequestWithoutSession(t *testing.T) {
	client, fake := newFakeClient(t)
	fake.RequireAuth()

	if _, err := client.Get("lora/devices"); !IsAuthError(err) {
		t.Errorf("Get() error = %v, want auth error", err)
	}
}

func TestLogout(t *testing.T) {
	client, fake := newFakeClient(t)
	fake.RequireAuth()

	if err := client.Login(gatewaytest.DefaultUsername, gatewaytest.DefaultPassword); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if err := client.Logout(); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if client.LoggedIn() {
		t.Error("LoggedIn() = true after logout")
	}
	if fake.Token() != "" {
		t.Error("gateway still holds a session after logout")
	}

	// Logging out twice is a no-op
	if err := client.Logout(); err != nil {
		t.Errorf("second Logout() error = %v", err)
	}
}
