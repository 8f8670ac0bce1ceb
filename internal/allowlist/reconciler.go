package allowlist

import (
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/mtcap-allowlist/internal/gateway"
	"github.com/muurk/mtcap-allowlist/internal/logging"
	"github.com/muurk/mtcap-allowlist/internal/lorawan"
)

// Session is the authenticated gateway API the reconciler drives.
// *gateway.Client satisfies it.
type Session interface {
	Get(path string) (json.RawMessage, error)
	Put(path string, body any) error
	Delete(path string) error
	Commit() error
}

// Reconciler applies allowlist operations through a Session.
// It is not safe for concurrent use against the same gateway.
type Reconciler struct {
	session Session

	// Observer, when set, receives progress events from Sync
	Observer Observer
}

// NewReconciler creates a reconciler over session
func NewReconciler(session Session) *Reconciler {
	return &Reconciler{session: session}
}

// Count returns the number of allowlist entries.
func (r *Reconciler) Count() (int, error) {
	doc, err := r.fetchAllowlist()
	if err != nil {
		return 0, fmt.Errorf("count: fetch allowlist: %w", err)
	}
	return len(doc.Devices), nil
}

// List returns the allowlist entries as the gateway reports them.
func (r *Reconciler) List() ([]lorawan.WireEntry, error) {
	doc, err := r.fetchAllowlist()
	if err != nil {
		return nil, fmt.Errorf("list: fetch allowlist: %w", err)
	}
	return doc.Devices, nil
}

// ActiveDevices returns the devices the gateway currently holds a session for.
func (r *Reconciler) ActiveDevices() ([]ActiveDevice, error) {
	active, err := r.fetchActive()
	if err != nil {
		return nil, fmt.Errorf("active devices: fetch sessions: %w", err)
	}
	return active, nil
}

// Enable replaces the whole allowlist with devices, enables it and commits.
// Remote entries not in devices are discarded. With no devices the allowlist
// is left empty but enabled.
func (r *Reconciler) Enable(devices []lorawan.Device) error {
	enabled := true
	doc := Document{
		Devices: make([]lorawan.WireEntry, 0, len(devices)),
		Enabled: &enabled,
	}
	for _, d := range devices {
		doc.Devices = append(doc.Devices, d.ToWire())
	}

	if err := r.session.Put(WhitelistPath, doc); err != nil {
		return fmt.Errorf("enable: store allowlist: %w", err)
	}
	if err := r.session.Commit(); err != nil {
		return fmt.Errorf("enable: commit: %w", err)
	}

	logging.Info("Allowlist replaced", zap.Int("devices", len(devices)))
	return nil
}

// AddOrUpdate upserts devices into the allowlist and commits.
// An entry with the same identity is overwritten in place, otherwise the device
// is appended. When devices repeats an identity the last occurrence wins.
func (r *Reconciler) AddOrUpdate(devices []lorawan.Device) error {
	doc, err := r.fetchAllowlist()
	if err != nil {
		return fmt.Errorf("add or update: fetch allowlist: %w", err)
	}

	index, err := newEntryIndex(doc.Devices)
	if err != nil {
		return fmt.Errorf("add or update: fetch allowlist: %w", err)
	}
	for _, d := range devices {
		index.upsert(doc, d)
	}

	if err := r.session.Put(WhitelistPath, doc); err != nil {
		return fmt.Errorf("add or update: store allowlist: %w", err)
	}
	if err := r.session.Commit(); err != nil {
		return fmt.Errorf("add or update: commit: %w", err)
	}

	logging.Info("Allowlist updated", zap.Int("requested", len(devices)), zap.Int("entries", len(doc.Devices)))
	return nil
}

// Remove drops every listed identity from the allowlist, evicts the matching
// active sessions and commits once. Unknown identities are ignored.
func (r *Reconciler) Remove(euis []lorawan.DevEUI) error {
	targets := make(map[lorawan.DevEUI]struct{}, len(euis))
	for _, eui := range euis {
		targets[eui] = struct{}{}
	}

	doc, err := r.fetchAllowlist()
	if err != nil {
		return fmt.Errorf("remove: fetch allowlist: %w", err)
	}
	if _, err := filterEntries(doc, func(eui lorawan.DevEUI) bool {
		_, drop := targets[eui]
		return drop
	}); err != nil {
		return fmt.Errorf("remove: fetch allowlist: %w", err)
	}
	if err := r.session.Put(WhitelistPath, doc); err != nil {
		return fmt.Errorf("remove: store allowlist: %w", err)
	}

	if _, err := r.evict(targets); err != nil {
		return fmt.Errorf("remove: %w", err)
	}

	if err := r.session.Commit(); err != nil {
		return fmt.Errorf("remove: commit: %w", err)
	}

	logging.Info("Devices removed", zap.Int("requested", len(euis)))
	return nil
}

// Clear empties the allowlist (leaving it enabled) and evicts every active
// session, whatever its identity.
func (r *Reconciler) Clear() error {
	if err := r.Enable(nil); err != nil {
		return fmt.Errorf("clear: %w", err)
	}

	active, err := r.fetchActive()
	if err != nil {
		return fmt.Errorf("clear: fetch sessions: %w", err)
	}
	for i, a := range active {
		if a.DevEUI == "" {
			return fmt.Errorf("clear: evict sessions: %w",
				gateway.NewProtocolError(fmt.Sprintf("active device %d has no deveui", i), nil))
		}
		if err := r.session.Delete(ActiveDevicesPath + "/" + a.DevEUI); err != nil {
			return fmt.Errorf("clear: evict %s: %w", a.DevEUI, err)
		}
	}

	if err := r.session.Commit(); err != nil {
		return fmt.Errorf("clear: commit: %w", err)
	}

	logging.Warn("Allowlist cleared", zap.Int("sessions_evicted", len(active)))
	return nil
}

// SelectOld returns the active devices whose reference date falls strictly
// before the date of cutoff. Devices with no parsable timestamp are skipped.
func (r *Reconciler) SelectOld(cutoff time.Time) ([]lorawan.DevEUI, error) {
	active, err := r.fetchActive()
	if err != nil {
		return nil, fmt.Errorf("select old: fetch sessions: %w", err)
	}

	limit := dateOf(cutoff)
	var old []lorawan.DevEUI
	for i, a := range active {
		date, ok := a.ReferenceDate()
		if !ok {
			logging.Debug("Skipping active device without usable timestamp", zap.String("deveui", a.DevEUI))
			continue
		}
		if !date.Before(limit) {
			continue
		}
		eui, err := a.Identity()
		if err != nil {
			return nil, fmt.Errorf("select old: active device %d: %w",
				i, gateway.NewProtocolError("unparsable deveui "+a.DevEUI, err))
		}
		old = append(old, eui)
	}
	return old, nil
}

// RemoveOld removes every device whose last activity predates cutoff.
// It selects with SelectOld and delegates to Remove.
func (r *Reconciler) RemoveOld(cutoff time.Time) error {
	old, err := r.SelectOld(cutoff)
	if err != nil {
		return fmt.Errorf("remove old: %w", err)
	}
	if err := r.Remove(old); err != nil {
		return fmt.Errorf("remove old: %w", err)
	}
	return nil
}

// evict deletes the active session of every target. It stops at the first
// failure, leaving later sessions in place.
func (r *Reconciler) evict(targets map[lorawan.DevEUI]struct{}) ([]lorawan.DevEUI, error) {
	var evicted []lorawan.DevEUI

	active, err := r.fetchActive()
	if err != nil {
		return evicted, fmt.Errorf("fetch sessions: %w", err)
	}
	for i, a := range active {
		eui, err := a.Identity()
		if err != nil {
			return evicted, fmt.Errorf("fetch sessions: active device %d: %w",
				i, gateway.NewProtocolError("unparsable deveui "+a.DevEUI, err))
		}
		if _, ok := targets[eui]; !ok {
			continue
		}
		if err := r.session.Delete(ActiveDevicesPath + "/" + eui.String()); err != nil {
			return evicted, fmt.Errorf("evict %s: %w", eui, err)
		}
		evicted = append(evicted, eui)
	}
	return evicted, nil
}

func (r *Reconciler) fetchAllowlist() (*Document, error) {
	raw, err := r.session.Get(WhitelistPath)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, gateway.NewProtocolError("unexpected allowlist shape", err)
	}
	return &doc, nil
}

func (r *Reconciler) fetchActive() ([]ActiveDevice, error) {
	raw, err := r.session.Get(ActiveDevicesPath)
	if err != nil {
		return nil, err
	}
	var active []ActiveDevice
	if len(raw) == 0 {
		return active, nil
	}
	if err := json.Unmarshal(raw, &active); err != nil {
		return nil, gateway.NewProtocolError("unexpected active device list shape", err)
	}
	return active, nil
}
