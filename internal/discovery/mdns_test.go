package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func TestScanner_parseServiceEntry(t *testing.T) {
	scanner := NewScanner()

	tests := []struct {
		name       string
		entry      *zeroconf.ServiceEntry
		wantNil    bool
		wantModel  string
		wantSerial string
		wantIP     string
		wantPort   int
	}{
		{
			name: "mtcap with IPv4",
			entry: &zeroconf.ServiceEntry{
				HostName: "mtcap-21983422.local.",
				Port:     443,
				AddrIPv4: []net.IP{net.ParseIP("192.168.2.1")},
				Text:     []string{"path=/"},
			},
			wantModel:  "mtcap",
			wantSerial: "21983422",
			wantIP:     "192.168.2.1",
			wantPort:   443,
		},
		{
			name: "factory hostname without serial",
			entry: &zeroconf.ServiceEntry{
				HostName: "mtcdt.local",
				Port:     443,
				AddrIPv4: []net.IP{net.ParseIP("10.0.0.5")},
			},
			wantModel:  "mtcdt",
			wantSerial: "",
			wantIP:     "10.0.0.5",
			wantPort:   443,
		},
		{
			name: "upper case hostname with custom port",
			entry: &zeroconf.ServiceEntry{
				HostName: "MTCDTIP-00080042.local",
				Port:     8443,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.100")},
			},
			wantModel:  "mtcdtip",
			wantSerial: "00080042",
			wantIP:     "192.168.1.100",
			wantPort:   8443,
		},
		{
			name: "no port defaults to 443",
			entry: &zeroconf.ServiceEntry{
				HostName: "mtcap-1.local",
				AddrIPv4: []net.IP{net.ParseIP("172.16.0.1")},
			},
			wantModel:  "mtcap",
			wantSerial: "1",
			wantIP:     "172.16.0.1",
			wantPort:   443,
		},
		{
			name: "unrelated HTTPS service",
			entry: &zeroconf.ServiceEntry{
				HostName: "printer.local",
				Port:     443,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.1")},
			},
			wantNil: true,
		},
		{
			name: "empty hostname",
			entry: &zeroconf.ServiceEntry{
				Port:     443,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.1")},
			},
			wantNil: true,
		},
		{
			name: "no address",
			entry: &zeroconf.ServiceEntry{
				HostName: "mtcap-21983422.local",
				Port:     443,
			},
			wantNil: true,
		},
		{
			name: "IPv6 only",
			entry: &zeroconf.ServiceEntry{
				HostName: "mtcap-2.local",
				Port:     443,
				AddrIPv6: []net.IP{net.ParseIP("fe80::1")},
			},
			wantModel:  "mtcap",
			wantSerial: "2",
			wantIP:     "fe80::1",
			wantPort:   443,
		},
		{
			name: "prefers IPv4",
			entry: &zeroconf.ServiceEntry{
				HostName: "mtcap-3.local",
				Port:     443,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.50")},
				AddrIPv6: []net.IP{net.ParseIP("fe80::2")},
			},
			wantModel:  "mtcap",
			wantSerial: "3",
			wantIP:     "192.168.1.50",
			wantPort:   443,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := scanner.parseServiceEntry(tt.entry)

			if tt.wantNil {
				if gw != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", gw)
				}
				return
			}

			if gw == nil {
				t.Fatal("parseServiceEntry() = nil, want gateway")
			}
			if gw.Model != tt.wantModel {
				t.Errorf("gw.Model = %v, want %v", gw.Model, tt.wantModel)
			}
			if gw.Serial != tt.wantSerial {
				t.Errorf("gw.Serial = %v, want %v", gw.Serial, tt.wantSerial)
			}
			if gw.IP != tt.wantIP {
				t.Errorf("gw.IP = %v, want %v", gw.IP, tt.wantIP)
			}
			if gw.Port != tt.wantPort {
				t.Errorf("gw.Port = %v, want %v", gw.Port, tt.wantPort)
			}
			if gw.Hostname != tt.entry.HostName {
				t.Errorf("gw.Hostname = %v, want %v", gw.Hostname, tt.entry.HostName)
			}
			if time.Since(gw.DiscoveredAt) > time.Second {
				t.Errorf("gw.DiscoveredAt is not recent: %v", gw.DiscoveredAt)
			}
		})
	}
}

func TestScanner_parseServiceEntry_Metadata(t *testing.T) {
	scanner := NewScanner()

	gw := scanner.parseServiceEntry(&zeroconf.ServiceEntry{
		HostName: "mtcap-21983422.local",
		Port:     443,
		AddrIPv4: []net.IP{net.ParseIP("192.168.2.1")},
		Text:     []string{"path=/", "flag", "fw=6.3.0"},
	})
	if gw == nil {
		t.Fatal("parseServiceEntry() = nil, want gateway")
	}

	expected := map[string]string{
		"path": "/",
		"flag": "",
		"fw":   "6.3.0",
	}
	if len(gw.Metadata) != len(expected) {
		t.Errorf("gw.Metadata has %d entries, want %d", len(gw.Metadata), len(expected))
	}
	for key, want := range expected {
		if got, ok := gw.Metadata[key]; !ok {
			t.Errorf("gw.Metadata missing key %q", key)
		} else if got != want {
			t.Errorf("gw.Metadata[%q] = %q, want %q", key, got, want)
		}
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()
	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("scanner.Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
}

func TestHostnamePattern(t *testing.T) {
	tests := []struct {
		hostname    string
		shouldMatch bool
	}{
		{"mtcap-21983422.local", true},
		{"mtcap-21983422.local.", true},
		{"mtcap.local", true},
		{"mtcdt_0001.local", true},
		{"mtcdtip.local", true},
		{"MTCAP.local", true},
		{"mtcap-21983422", false},
		{"evalve315260240.local", false},
		{"mtc.local", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.hostname, func(t *testing.T) {
			matched := hostnamePattern.MatchString(tt.hostname)
			if matched != tt.shouldMatch {
				t.Errorf("hostnamePattern.MatchString(%q) = %v, want %v", tt.hostname, matched, tt.shouldMatch)
			}
		})
	}
}

func TestGateway_matches(t *testing.T) {
	gw := &Gateway{Model: "mtcap", Serial: "21983422", Hostname: "mtcap-21983422.local."}

	for _, name := range []string{"mtcap-21983422.local.", "mtcap-21983422.local", "MTCAP-21983422", "21983422"} {
		if !gw.matches(name) {
			t.Errorf("matches(%q) = false, want true", name)
		}
	}
	for _, name := range []string{"mtcap", "2198342", "mtcap-1.local"} {
		if gw.matches(name) {
			t.Errorf("matches(%q) = true, want false", name)
		}
	}

	underscored := &Gateway{Model: "mtcap", Serial: "21983422", Hostname: "MTCAP_21983422.local."}
	if !underscored.matches("mtcap-21983422") {
		t.Error("matches() should accept the profile name of a gateway")
	}
}
