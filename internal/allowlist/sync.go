package allowlist

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/muurk/mtcap-allowlist/internal/logging"
	"github.com/muurk/mtcap-allowlist/internal/lorawan"
)

// Event reports the progress of a multi-step operation.
// Total shrinks when a step turns out to be unnecessary.
type Event struct {
	Step  string
	Done  int
	Total int
}

// Observer receives progress events
type Observer func(Event)

// SyncReport lists what Sync changed, by identity
type SyncReport struct {
	Added     []lorawan.DevEUI
	Updated   []lorawan.DevEUI
	Unchanged []lorawan.DevEUI
	Removed   []lorawan.DevEUI
	Evicted   []lorawan.DevEUI
}

// Changed reports whether Sync had anything to write
func (s SyncReport) Changed() bool {
	return len(s.Added)+len(s.Updated)+len(s.Removed) > 0
}

// String summarises the report on one line
func (s SyncReport) String() string {
	return fmt.Sprintf("%d added, %d updated, %d unchanged, %d removed, %d sessions evicted",
		len(s.Added), len(s.Updated), len(s.Unchanged), len(s.Removed), len(s.Evicted))
}

// Sync makes the allowlist hold exactly devices: new devices are added,
// changed ones updated and entries absent from devices removed along with their
// active sessions. Everything lands in one PUT and one commit. When the
// allowlist already matches nothing is written.
func (r *Reconciler) Sync(devices []lorawan.Device) (SyncReport, error) {
	var report SyncReport
	progress := &syncProgress{observer: r.Observer, total: 4}

	progress.step("Fetching allowlist")
	doc, err := r.fetchAllowlist()
	if err != nil {
		return report, fmt.Errorf("sync: fetch allowlist: %w", err)
	}
	index, err := newEntryIndex(doc.Devices)
	if err != nil {
		return report, fmt.Errorf("sync: fetch allowlist: %w", err)
	}

	wanted := make(map[lorawan.DevEUI]struct{}, len(devices))
	outcome := make(map[lorawan.DevEUI]upsertResult, len(devices))
	var order []lorawan.DevEUI
	for _, d := range devices {
		eui := d.DevEUI()
		result := index.upsert(doc, d)
		if prev, seen := outcome[eui]; seen {
			// A repeated identity keeps the outcome of its first occurrence
			// unless a later one changed the entry.
			if prev == upsertAdded || result == upsertUnchanged {
				result = prev
			}
		} else {
			order = append(order, eui)
		}
		outcome[eui] = result
		wanted[eui] = struct{}{}
	}
	for _, eui := range order {
		switch outcome[eui] {
		case upsertAdded:
			report.Added = append(report.Added, eui)
		case upsertUpdated:
			report.Updated = append(report.Updated, eui)
		default:
			report.Unchanged = append(report.Unchanged, eui)
		}
	}

	stale := map[lorawan.DevEUI]struct{}{}
	removed, err := filterEntries(doc, func(eui lorawan.DevEUI) bool {
		_, keep := wanted[eui]
		if !keep {
			stale[eui] = struct{}{}
		}
		return !keep
	})
	if err != nil {
		return report, fmt.Errorf("sync: fetch allowlist: %w", err)
	}
	report.Removed = removed

	if !report.Changed() {
		progress.finish("Allowlist already in sync")
		logging.Info("Allowlist already in sync", zap.Int("devices", len(devices)))
		return report, nil
	}

	progress.step("Storing allowlist")
	if err := r.session.Put(WhitelistPath, doc); err != nil {
		return report, fmt.Errorf("sync: store allowlist: %w", err)
	}

	if len(stale) > 0 {
		progress.step("Evicting stale sessions")
		evicted, err := r.evict(stale)
		report.Evicted = evicted
		if err != nil {
			return report, fmt.Errorf("sync: %w", err)
		}
	} else {
		progress.total--
	}

	progress.step("Committing")
	if err := r.session.Commit(); err != nil {
		return report, fmt.Errorf("sync: commit: %w", err)
	}
	progress.finish("Allowlist synchronised")

	logging.Info("Allowlist synchronised",
		zap.Int("added", len(report.Added)),
		zap.Int("updated", len(report.Updated)),
		zap.Int("removed", len(report.Removed)),
		zap.Int("evicted", len(report.Evicted)),
	)
	return report, nil
}

type syncProgress struct {
	observer Observer
	done     int
	total    int
}

func (p *syncProgress) step(name string) {
	if p.observer != nil {
		p.observer(Event{Step: name, Done: p.done, Total: p.total})
	}
	p.done++
}

func (p *syncProgress) finish(name string) {
	p.done = p.total
	if p.observer != nil {
		p.observer(Event{Step: name, Done: p.done, Total: p.total})
	}
}
