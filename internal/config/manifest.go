package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/muurk/mtcap-allowlist/internal/lorawan"
)

// Manifest is a YAML file declaring the devices a gateway should admit.
//
//	defaults:
//	  join_eui: 70-b3-d5-7e-d0-00-00-01
//	  class: A
//	  region: EU868
//	  network_profile: A
//	devices:
//	  - dev_eui: 00-80-00-00-00-01-5b-2c
//	    app_key: 2b7e151628aed2a6abf7158809cf4f3c
//
// Fields left empty on a device are taken from defaults.
type Manifest struct {
	Defaults ManifestEntry   `yaml:"defaults,omitempty"`
	Devices  []ManifestEntry `yaml:"devices"`
}

// ManifestEntry is one device as written in a manifest
type ManifestEntry struct {
	Name           string `yaml:"name,omitempty"`
	DevEUI         string `yaml:"dev_eui,omitempty"`
	JoinEUI        string `yaml:"join_eui,omitempty"`
	AppKey         string `yaml:"app_key,omitempty"`
	Class          string `yaml:"class,omitempty"`
	Region         string `yaml:"region,omitempty"`
	NetworkProfile string `yaml:"network_profile,omitempty"`
}

// ManifestError reports a device entry that could not be turned into a Device
type ManifestError struct {
	Index int    // Zero-based position in devices
	Name  string // Entry name or dev_eui, for display
	Field string
	Err   error
}

func (e *ManifestError) Error() string {
	label := fmt.Sprintf("device %d", e.Index+1)
	if e.Name != "" {
		label += " (" + e.Name + ")"
	}
	return fmt.Sprintf("%s: %s: %v", label, e.Field, e.Err)
}

func (e *ManifestError) Unwrap() error {
	return e.Err
}

// LoadManifest reads and parses the manifest at path.
func LoadManifest(path string) ([]lorawan.Device, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	devices, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return devices, nil
}

// ParseManifest parses manifest YAML into devices, in file order.
func ParseManifest(data []byte) ([]lorawan.Device, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	devices := make([]lorawan.Device, 0, len(m.Devices))
	for i, entry := range m.Devices {
		d, err := entry.withDefaults(m.Defaults).device()
		if err != nil {
			err.Index = i
			return nil, err
		}
		devices = append(devices, d)
	}
	return devices, nil
}

func (e ManifestEntry) withDefaults(def ManifestEntry) ManifestEntry {
	pick := func(v, fallback string) string {
		if strings.TrimSpace(v) == "" {
			return fallback
		}
		return v
	}
	e.JoinEUI = pick(e.JoinEUI, def.JoinEUI)
	e.AppKey = pick(e.AppKey, def.AppKey)
	e.Class = pick(e.Class, def.Class)
	e.Region = pick(e.Region, def.Region)
	e.NetworkProfile = pick(e.NetworkProfile, def.NetworkProfile)
	return e
}

func (e ManifestEntry) device() (lorawan.Device, *ManifestError) {
	name := e.Name
	if name == "" {
		name = e.DevEUI
	}
	fail := func(field string, err error) (lorawan.Device, *ManifestError) {
		return lorawan.Device{}, &ManifestError{Name: name, Field: field, Err: err}
	}

	if e.DevEUI == "" {
		return fail("dev_eui", fmt.Errorf("missing"))
	}
	devEUI, err := lorawan.ParseDevEUI(e.DevEUI)
	if err != nil {
		return fail("dev_eui", err)
	}
	if e.JoinEUI == "" {
		return fail("join_eui", fmt.Errorf("missing"))
	}
	joinEUI, err := lorawan.ParseJoinEUI(e.JoinEUI)
	if err != nil {
		return fail("join_eui", err)
	}
	if e.AppKey == "" {
		return fail("app_key", fmt.Errorf("missing"))
	}
	appKey, err := lorawan.ParseAppKey(e.AppKey)
	if err != nil {
		return fail("app_key", err)
	}
	class, err := lorawan.ParseClass(e.Class)
	if err != nil {
		return fail("class", err)
	}
	region, err := lorawan.ParseRegion(e.Region)
	if err != nil {
		return fail("region", err)
	}

	// The network profile follows the device class unless set explicitly
	profileText := e.NetworkProfile
	if profileText == "" {
		profileText = string(class)
	}
	profile, err := lorawan.ParseNetworkProfile(profileText)
	if err != nil {
		return fail("network_profile", err)
	}

	return lorawan.NewDevice(devEUI, joinEUI, appKey, class, region, profile), nil
}

// EntryFromWire converts a remote allowlist entry into manifest form.
// Profile IDs lose their LW102-OTA- and DEFAULT-CLASS- prefixes.
func EntryFromWire(w lorawan.WireEntry) ManifestEntry {
	return ManifestEntry{
		DevEUI:         w.DevEUI,
		JoinEUI:        w.AppEUI,
		AppKey:         w.AppKey,
		Class:          w.Class,
		Region:         strings.TrimPrefix(w.DeviceProfileID, lorawan.DeviceProfilePrefix),
		NetworkProfile: strings.TrimPrefix(w.NetworkProfileID, lorawan.NetworkProfilePrefix),
	}
}

// WriteManifest encodes m as YAML.
func WriteManifest(w io.Writer, m Manifest) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return enc.Close()
}
