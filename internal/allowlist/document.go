package allowlist

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/muurk/mtcap-allowlist/internal/lorawan"
)

// API paths used by the reconciler
const (
	WhitelistPath     = "loraNetwork/whitelist"
	ActiveDevicesPath = "lora/devices"
)

// TimestampLayout is the format of last_seen and created_at on active sessions
const TimestampLayout = "2006-01-02T15:04:05Z"

// Document is the allowlist as read from and written to loraNetwork/whitelist.
// Fields other than devices and enabled survive a read-modify-write cycle.
type Document struct {
	Devices []lorawan.WireEntry
	Enabled *bool

	extra map[string]json.RawMessage
}

// MarshalJSON implements json.Marshaler. devices is always written as a list.
func (d Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.extra)+2)
	for k, v := range d.extra {
		out[k] = v
	}

	devices := d.Devices
	if devices == nil {
		devices = []lorawan.WireEntry{}
	}
	out["devices"] = devices
	if d.Enabled != nil {
		out["enabled"] = *d.Enabled
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler. A missing or null devices member
// reads as an empty allowlist.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("allowlist is not an object: %w", err)
	}
	if raw == nil {
		return fmt.Errorf("allowlist is null")
	}

	var doc Document
	if v, ok := raw["devices"]; ok {
		if err := json.Unmarshal(v, &doc.Devices); err != nil {
			return fmt.Errorf("allowlist devices: %w", err)
		}
		delete(raw, "devices")
	}
	if v, ok := raw["enabled"]; ok && string(v) != "null" {
		var enabled bool
		if err := json.Unmarshal(v, &enabled); err != nil {
			return fmt.Errorf("allowlist enabled flag: %w", err)
		}
		doc.Enabled = &enabled
		delete(raw, "enabled")
	}
	if len(raw) > 0 {
		doc.extra = raw
	}

	*d = doc
	return nil
}

// ActiveDevice is one entry of lora/devices: a device the gateway has seen join.
type ActiveDevice struct {
	DevEUI    string          `json:"deveui"`
	LastSeen  json.RawMessage `json:"last_seen,omitempty"`
	CreatedAt json.RawMessage `json:"created_at,omitempty"`
}

// Identity parses the entry's deveui.
func (a ActiveDevice) Identity() (lorawan.DevEUI, error) {
	return lorawan.ParseDevEUI(a.DevEUI)
}

// ReferenceDate is the calendar date of last_seen, or of created_at when
// last_seen is missing or unparsable. ok is false when neither parses.
func (a ActiveDevice) ReferenceDate() (date time.Time, ok bool) {
	if t, ok := parseTimestamp(a.LastSeen); ok {
		return dateOf(t), true
	}
	if t, ok := parseTimestamp(a.CreatedAt); ok {
		return dateOf(t), true
	}
	return time.Time{}, false
}

func parseTimestamp(raw json.RawMessage) (time.Time, bool) {
	if len(raw) == 0 {
		return time.Time{}, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, false
	}
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	// time.Parse accepts fractional seconds the layout does not name.
	if t.Format(TimestampLayout) != s {
		return time.Time{}, false
	}
	return t, true
}

// dateOf drops the time of day, keeping the date as written in t's location
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
