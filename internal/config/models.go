package config

import (
	"sort"
	"time"
)

// Registry represents the entire user configuration file.
// It stores named gateway profiles and application preferences.
type Registry struct {
	Version     int                 `yaml:"version"`
	Default     string              `yaml:"default,omitempty"`  // Profile used when neither --gateway nor --profile is given
	Gateways    map[string]*Gateway `yaml:"gateways,omitempty"` // Keyed by profile name
	Preferences *Preferences        `yaml:"preferences,omitempty"`
}

// Gateway is a saved connection profile for one Conduit gateway.
// Note: Passwords are NEVER stored - they come from the environment or a prompt.
type Gateway struct {
	Host     string    `yaml:"host"`                // IP address or hostname, optionally with :port
	Username string    `yaml:"username,omitempty"`  // Management API account
	Insecure bool      `yaml:"insecure"`            // Skip TLS certificate verification
	Serial   string    `yaml:"serial,omitempty"`    // Device serial, when known from discovery
	LastUsed time.Time `yaml:"last_used,omitempty"` // Last successful login
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	AutoDiscover    bool   `yaml:"auto_discover"`    // Browse mDNS when no gateway is configured
	DiscoverTimeout int    `yaml:"discover_timeout"` // mDNS discovery timeout in seconds
	DefaultUsername string `yaml:"default_username"` // Username when a profile names none
	OutputFormat    string `yaml:"output_format"`    // text, json or yaml
}

const defaultUsername = "admin"

func defaultPreferences() *Preferences {
	return &Preferences{
		AutoDiscover:    true,
		DiscoverTimeout: 5,
		DefaultUsername: defaultUsername,
		OutputFormat:    "text",
	}
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     1,
		Gateways:    make(map[string]*Gateway),
		Preferences: defaultPreferences(),
	}
}

// GetGateway retrieves a profile by name.
// Returns nil if no such profile exists.
func (r *Registry) GetGateway(name string) *Gateway {
	return r.Gateways[name]
}

// SetGateway creates or replaces a profile. The first profile saved becomes
// the default.
func (r *Registry) SetGateway(name string, gw *Gateway) {
	if r.Gateways == nil {
		r.Gateways = make(map[string]*Gateway)
	}
	r.Gateways[name] = gw
	if r.Default == "" {
		r.Default = name
	}
}

// RemoveGateway deletes a profile and reports whether it existed.
// Removing the default profile clears the default.
func (r *Registry) RemoveGateway(name string) bool {
	if _, ok := r.Gateways[name]; !ok {
		return false
	}
	delete(r.Gateways, name)
	if r.Default == name {
		r.Default = ""
	}
	return true
}

// DefaultGateway returns the default profile and its name, or nil.
func (r *Registry) DefaultGateway() (string, *Gateway) {
	if r.Default == "" {
		return "", nil
	}
	return r.Default, r.Gateways[r.Default]
}

// MarkUsed records a successful login against a profile.
func (r *Registry) MarkUsed(name string) {
	if gw := r.Gateways[name]; gw != nil {
		gw.LastUsed = time.Now()
	}
}

// GatewayNames returns the profile names in sorted order.
func (r *Registry) GatewayNames() []string {
	names := make([]string, 0, len(r.Gateways))
	for name := range r.Gateways {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UsernameFor returns the username to log in to gw with.
func (r *Registry) UsernameFor(gw *Gateway) string {
	if gw != nil && gw.Username != "" {
		return gw.Username
	}
	if r.Preferences != nil && r.Preferences.DefaultUsername != "" {
		return r.Preferences.DefaultUsername
	}
	return defaultUsername
}
