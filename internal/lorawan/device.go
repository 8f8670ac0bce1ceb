package lorawan

import "fmt"

// Device is the desired allowlist configuration of one end device.
// It is a value: the With* methods return a modified copy and never change the receiver.
type Device struct {
	devEUI         DevEUI
	joinEUI        JoinEUI
	appKey         AppKey
	class          Class
	region         Region
	networkProfile NetworkProfile
}

// NewDevice builds a Device record.
func NewDevice(devEUI DevEUI, joinEUI JoinEUI, appKey AppKey, class Class, region Region, networkProfile NetworkProfile) Device {
	return Device{
		devEUI:         devEUI,
		joinEUI:        joinEUI,
		appKey:         appKey,
		class:          class,
		region:         region,
		networkProfile: networkProfile,
	}
}

func (d Device) DevEUI() DevEUI                 { return d.devEUI }
func (d Device) JoinEUI() JoinEUI               { return d.joinEUI }
func (d Device) AppKey() AppKey                 { return d.appKey }
func (d Device) Class() Class                   { return d.class }
func (d Device) Region() Region                 { return d.region }
func (d Device) NetworkProfile() NetworkProfile { return d.networkProfile }

// WithAppKey returns a copy of d with a different root key.
func (d Device) WithAppKey(key AppKey) Device {
	d.appKey = key
	return d
}

// WithClass returns a copy of d with a different device class.
func (d Device) WithClass(class Class) Device {
	d.class = class
	return d
}

// WithRegion returns a copy of d with a different regional profile.
func (d Device) WithRegion(region Region) Device {
	d.region = region
	return d
}

// WithNetworkProfile returns a copy of d with a different network profile.
func (d Device) WithNetworkProfile(profile NetworkProfile) Device {
	d.networkProfile = profile
	return d
}

// ToWire translates the record into the gateway's allowlist entry shape.
func (d Device) ToWire() WireEntry {
	var e WireEntry
	e.Apply(d)
	return e
}

// String returns a one-line summary; the key is masked.
func (d Device) String() string {
	return fmt.Sprintf("%s (join %s, class %s, %s, %s, key %s)",
		d.devEUI, d.joinEUI, d.class, d.region, d.networkProfile.ProfileID(), d.appKey.Masked())
}
