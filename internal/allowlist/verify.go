package allowlist

import (
	"fmt"
	"strings"

	"github.com/muurk/mtcap-allowlist/internal/lorawan"
)

// Mismatch is one managed field whose remote value differs from the device record
type Mismatch struct {
	DevEUI lorawan.DevEUI
	Field  string
	Want   string
	Got    string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s %s: expected %s, got %s", m.DevEUI, m.Field, m.Want, m.Got)
}

// VerifyResult compares the remote allowlist against a device list
type VerifyResult struct {
	// Missing devices have no allowlist entry
	Missing []lorawan.DevEUI
	// Unexpected entries are on the allowlist but not in the device list
	Unexpected []lorawan.DevEUI
	Mismatches []Mismatch
}

// OK reports whether the allowlist holds exactly the devices, field for field
func (v VerifyResult) OK() bool {
	return len(v.Missing)+len(v.Unexpected)+len(v.Mismatches) == 0
}

func (v VerifyResult) String() string {
	if v.OK() {
		return "allowlist matches"
	}
	var parts []string
	if len(v.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("%d missing", len(v.Missing)))
	}
	if len(v.Unexpected) > 0 {
		parts = append(parts, fmt.Sprintf("%d unexpected", len(v.Unexpected)))
	}
	if len(v.Mismatches) > 0 {
		parts = append(parts, fmt.Sprintf("%d mismatched fields", len(v.Mismatches)))
	}
	return strings.Join(parts, ", ")
}

// Verify fetches the allowlist and reports how it differs from devices.
// Nothing is written.
func (r *Reconciler) Verify(devices []lorawan.Device) (VerifyResult, error) {
	var result VerifyResult

	doc, err := r.fetchAllowlist()
	if err != nil {
		return result, fmt.Errorf("verify: fetch allowlist: %w", err)
	}
	index, err := newEntryIndex(doc.Devices)
	if err != nil {
		return result, fmt.Errorf("verify: fetch allowlist: %w", err)
	}

	// A repeated identity is checked against its last occurrence, as AddOrUpdate
	// would have written it.
	wanted := make(map[lorawan.DevEUI]lorawan.WireEntry, len(devices))
	var order []lorawan.DevEUI
	for _, d := range devices {
		if _, seen := wanted[d.DevEUI()]; !seen {
			order = append(order, d.DevEUI())
		}
		wanted[d.DevEUI()] = d.ToWire()
	}

	present := make(map[lorawan.DevEUI]bool, len(index.euis))
	for i, eui := range index.euis {
		want, ok := wanted[eui]
		if !ok {
			if !present[eui] {
				result.Unexpected = append(result.Unexpected, eui)
			}
			present[eui] = true
			continue
		}
		present[eui] = true
		result.Mismatches = append(result.Mismatches, compareEntries(eui, want, doc.Devices[i])...)
	}

	for _, eui := range order {
		if !present[eui] {
			result.Missing = append(result.Missing, eui)
		}
	}
	return result, nil
}

// compareEntries lists the managed fields of got that differ from want.
// Hex fields compare case-insensitively.
func compareEntries(eui lorawan.DevEUI, want, got lorawan.WireEntry) []Mismatch {
	var mismatches []Mismatch
	check := func(field, w, g string) {
		if !strings.EqualFold(w, g) {
			mismatches = append(mismatches, Mismatch{DevEUI: eui, Field: field, Want: w, Got: g})
		}
	}
	check("appeui", want.AppEUI, got.AppEUI)
	check("class", want.Class, got.Class)
	check("device_profile_id", want.DeviceProfileID, got.DeviceProfileID)
	check("network_profile_id", want.NetworkProfileID, got.NetworkProfileID)

	if !strings.EqualFold(want.AppKey, got.AppKey) {
		// Keys are never echoed in a mismatch.
		mismatches = append(mismatches, Mismatch{DevEUI: eui, Field: "appkey", Want: "<hidden>", Got: "<hidden>"})
	}
	return mismatches
}
