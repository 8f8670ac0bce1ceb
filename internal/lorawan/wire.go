package lorawan

import (
	"encoding/json"
	"fmt"
)

// wireKeys are the allowlist entry fields managed by this package.
var wireKeys = []string{"deveui", "appeui", "appkey", "class", "device_profile_id", "network_profile_id"}

// WireEntry is one entry of the gateway's loraNetwork/whitelist devices array.
type WireEntry struct {
	DevEUI           string `json:"deveui,omitempty"`
	AppEUI           string `json:"appeui,omitempty"`
	AppKey           string `json:"appkey,omitempty"`
	Class            string `json:"class,omitempty"`
	DeviceProfileID  string `json:"device_profile_id,omitempty"`
	NetworkProfileID string `json:"network_profile_id,omitempty"`

	// extra holds fields returned by the gateway that are not listed above.
	extra map[string]json.RawMessage

	// blank holds managed fields the gateway sent as "" or null, so an entry
	// that is never applied to is written back as it was read.
	blank map[string]json.RawMessage
}

// Identity extracts the device identity from the entry's deveui field.
func (e WireEntry) Identity() (DevEUI, error) {
	return ParseDevEUI(e.DevEUI)
}

// Apply overwrites every managed field with the transcoding of d.
// Unmanaged fields are left alone.
func (e *WireEntry) Apply(d Device) {
	e.DevEUI = d.devEUI.String()
	e.AppEUI = d.joinEUI.String()
	e.AppKey = d.appKey.WireString()
	e.Class = d.class.String()
	e.DeviceProfileID = d.region.ProfileID()
	e.NetworkProfileID = d.networkProfile.ProfileID()
}

// Extra returns the raw value of an unmanaged field, if the gateway sent one.
func (e WireEntry) Extra(key string) (json.RawMessage, bool) {
	v, ok := e.extra[key]
	return v, ok
}

// MarshalJSON implements json.Marshaler, merging unmanaged fields back in.
func (e WireEntry) MarshalJSON() ([]byte, error) {
	type plain WireEntry
	known, err := json.Marshal(plain(e))
	if err != nil {
		return nil, err
	}
	if len(e.extra) == 0 && len(e.blank) == 0 {
		return known, nil
	}

	merged := make(map[string]json.RawMessage, len(e.extra)+len(wireKeys))
	for k, v := range e.extra {
		merged[k] = v
	}
	for k, v := range e.blank {
		merged[k] = v
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// value returns the managed field stored under the wire key k
func (e WireEntry) value(k string) string {
	switch k {
	case "deveui":
		return e.DevEUI
	case "appeui":
		return e.AppEUI
	case "appkey":
		return e.AppKey
	case "class":
		return e.Class
	case "device_profile_id":
		return e.DeviceProfileID
	case "network_profile_id":
		return e.NetworkProfileID
	}
	return ""
}

// UnmarshalJSON implements json.Unmarshaler, keeping unmanaged fields.
func (e *WireEntry) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("allowlist entry is not an object: %w", err)
	}

	type plain WireEntry
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("allowlist entry has mistyped fields: %w", err)
	}

	*e = WireEntry(p)
	for _, k := range wireKeys {
		v, present := raw[k]
		if !present {
			continue
		}
		delete(raw, k)
		// Non-empty values live in the typed fields and are emitted from there.
		if e.value(k) == "" {
			if e.blank == nil {
				e.blank = make(map[string]json.RawMessage)
			}
			e.blank[k] = v
		}
	}
	if len(raw) > 0 {
		e.extra = raw
	}
	return nil
}
