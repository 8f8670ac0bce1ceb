package lorawan

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownClass is returned when a class letter is not A, B or C.
var ErrUnknownClass = errors.New("unknown device class")

// ErrUnknownRegion is returned for a regional profile code outside Regions.
var ErrUnknownRegion = errors.New("unknown regional profile")

// Class is the LoRaWAN device class of an end device.
type Class string

const (
	ClassA Class = "A"
	ClassB Class = "B"
	ClassC Class = "C"
)

// NetworkProfile selects the gateway's DEFAULT-CLASS-<X> network profile.
// It shares its values with Class but fills a different slot on a Device, so the
// two are separate types and cannot be assigned to each other by accident.
type NetworkProfile string

const (
	NetworkProfileA NetworkProfile = "A"
	NetworkProfileB NetworkProfile = "B"
	NetworkProfileC NetworkProfile = "C"
)

// Wire prefixes of the profile IDs on an allowlist entry
const (
	DeviceProfilePrefix  = "LW102-OTA-"
	NetworkProfilePrefix = "DEFAULT-CLASS-"
)

func parseClassLetter(s string) (string, error) {
	letter := strings.ToUpper(strings.TrimSpace(s))
	switch letter {
	case "A", "B", "C":
		return letter, nil
	}
	return "", fmt.Errorf("%w: %q (want A, B or C)", ErrUnknownClass, s)
}

// ParseClass parses a device class letter, case-insensitively.
func ParseClass(s string) (Class, error) {
	letter, err := parseClassLetter(s)
	if err != nil {
		return "", err
	}
	return Class(letter), nil
}

// ParseNetworkProfile parses a network profile class letter, case-insensitively.
func ParseNetworkProfile(s string) (NetworkProfile, error) {
	letter, err := parseClassLetter(s)
	if err != nil {
		return "", err
	}
	return NetworkProfile(letter), nil
}

// String returns the class letter
func (c Class) String() string {
	return string(c)
}

// String returns the class letter
func (p NetworkProfile) String() string {
	return string(p)
}

// ProfileID returns the gateway's network profile identifier, e.g. "DEFAULT-CLASS-A".
func (p NetworkProfile) ProfileID() string {
	return NetworkProfilePrefix + string(p)
}

// Region is a named LoRaWAN regional parameters profile.
type Region string

const (
	AS923 Region = "AS923"
	AU915 Region = "AU915"
	EU868 Region = "EU868"
	IN865 Region = "IN865"
	KR920 Region = "KR920"
	US915 Region = "US915"
)

// Regions lists every regional profile the gateway ships a device profile for.
var Regions = []Region{AS923, AU915, EU868, IN865, KR920, US915}

// ParseRegion parses a region code such as "EU868", case-insensitively.
func ParseRegion(s string) (Region, error) {
	code := Region(strings.ToUpper(strings.TrimSpace(s)))
	for _, r := range Regions {
		if r == code {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRegion, s)
}

// String returns the region code
func (r Region) String() string {
	return string(r)
}

// ProfileID returns the gateway's device profile identifier, e.g. "LW102-OTA-EU868".
func (r Region) ProfileID() string {
	return DeviceProfilePrefix + string(r)
}
