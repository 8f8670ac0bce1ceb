package discovery

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Gateway is a Conduit gateway found on the local network
type Gateway struct {
	// Model is the product family taken from the hostname (e.g., "mtcap", "mtcdt")
	Model string

	// Serial is the suffix after the model prefix, usually the unit serial or MAC tail
	Serial string

	// Hostname is the mDNS hostname (e.g., "mtcap-21983422.local.")
	Hostname string

	// IP is the resolved address, IPv4 when available
	IP string

	// Port is the HTTPS port of the management API (typically 443)
	Port int

	// Metadata holds the TXT record pairs
	Metadata map[string]string

	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the gateway
func (g *Gateway) String() string {
	return fmt.Sprintf("%s %s (%s) at %s", strings.ToUpper(g.Model), g.Serial, g.Hostname, g.Address())
}

// Address returns the value to pass as a gateway host.
// The default HTTPS port is left implicit.
func (g *Gateway) Address() string {
	if g.Port == 0 || g.Port == DefaultPort {
		if strings.Contains(g.IP, ":") {
			return "[" + g.IP + "]"
		}
		return g.IP
	}
	return net.JoinHostPort(g.IP, strconv.Itoa(g.Port))
}

// ProfileName suggests a registry profile name, e.g. "mtcap-21983422"
func (g *Gateway) ProfileName() string {
	if g.Serial == "" {
		return g.Model
	}
	return g.Model + "-" + g.Serial
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (g *Gateway) GetMetadata(key string) string {
	if g.Metadata == nil {
		return ""
	}
	return g.Metadata[key]
}
