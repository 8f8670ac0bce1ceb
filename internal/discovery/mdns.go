package discovery

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/mtcap-allowlist/internal/logging"
)

const (
	// ServiceType is the mDNS service type browsed for.
	// Conduits advertise their web management interface over HTTPS.
	ServiceType = "_https._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for gateway discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is the default HTTPS port of the management API
	DefaultPort = 443
)

// hostnamePattern matches Conduit hostnames such as "mtcap-21983422.local." or "MTCDT.local"
var hostnamePattern = regexp.MustCompile(`(?i)^(mtcap|mtcdtip|mtcdt)(?:[-_]?([0-9a-z]+))?\.local\.?$`)

// Scanner handles mDNS gateway discovery
type Scanner struct {
	// Timeout is the maximum time to wait for answers
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// Scan browses until the timeout expires and returns every gateway that answered,
// ordered by hostname. A gateway answering more than once is reported once.
func (s *Scanner) Scan(ctx context.Context) ([]*Gateway, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)

	var (
		mu    sync.Mutex
		found = make(map[string]*Gateway)
		done  = make(chan struct{})
	)

	go func() {
		defer close(done)
		for entry := range entries {
			gw := s.parseServiceEntry(entry)
			if gw == nil {
				continue
			}
			logging.Debug("Discovered gateway",
				zap.String("hostname", gw.Hostname),
				zap.String("address", gw.Address()),
			)
			mu.Lock()
			found[gw.Hostname] = gw
			mu.Unlock()
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()

	// zeroconf closes entries once the browse context ends
	select {
	case <-done:
	case <-time.After(time.Second):
	}

	mu.Lock()
	defer mu.Unlock()

	gateways := make([]*Gateway, 0, len(found))
	for _, gw := range found {
		gateways = append(gateways, gw)
	}
	sort.Slice(gateways, func(i, j int) bool {
		return gateways[i].Hostname < gateways[j].Hostname
	})
	return gateways, nil
}

// Find waits for the gateway whose hostname, serial or profile name equals name.
func (s *Scanner) Find(ctx context.Context, name string) (*Gateway, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	result := make(chan *Gateway, 1)

	go func() {
		for entry := range entries {
			gw := s.parseServiceEntry(entry)
			if gw != nil && gw.matches(name) {
				select {
				case result <- gw:
				default:
				}
				cancel()
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case gw := <-result:
		return gw, nil
	case <-ctx.Done():
		select {
		case gw := <-result:
			return gw, nil
		default:
		}
		return nil, fmt.Errorf("gateway %s not found within %s", name, s.Timeout)
	}
}

func (g *Gateway) matches(name string) bool {
	name = strings.TrimSuffix(strings.ToLower(name), ".")
	host := strings.TrimSuffix(strings.ToLower(g.Hostname), ".")
	return name == host ||
		name == strings.TrimSuffix(host, ".local") ||
		(g.Serial != "" && name == strings.ToLower(g.Serial)) ||
		(g.Serial != "" && name == strings.ToLower(g.ProfileName()))
}

// parseServiceEntry converts a zeroconf service entry to a Gateway.
// Returns nil if the entry is not a Conduit.
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Gateway {
	hostname := entry.HostName
	if hostname == "" {
		return nil
	}

	matches := hostnamePattern.FindStringSubmatch(hostname)
	if matches == nil {
		return nil
	}

	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		key, value, _ := strings.Cut(txt, "=")
		metadata[key] = value
	}

	return &Gateway{
		Model:        strings.ToLower(matches[1]),
		Serial:       matches[2],
		Hostname:     hostname,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// Scan is a convenience function to scan with a custom timeout
func Scan(ctx context.Context, timeout time.Duration) ([]*Gateway, error) {
	scanner := NewScanner()
	if timeout > 0 {
		scanner.Timeout = timeout
	}
	return scanner.Scan(ctx)
}
