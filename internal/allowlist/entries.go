package allowlist

import (
	"fmt"
	"strings"

	"github.com/muurk/mtcap-allowlist/internal/gateway"
	"github.com/muurk/mtcap-allowlist/internal/lorawan"
)

// entryIndex holds the parsed identity of every entry in a Document, in order.
type entryIndex struct {
	euis []lorawan.DevEUI
}

func newEntryIndex(entries []lorawan.WireEntry) (*entryIndex, error) {
	idx := &entryIndex{euis: make([]lorawan.DevEUI, len(entries))}
	for i, e := range entries {
		eui, err := e.Identity()
		if err != nil {
			return nil, gateway.NewProtocolError(fmt.Sprintf("allowlist entry %d has unparsable deveui %q", i, e.DevEUI), err)
		}
		idx.euis[i] = eui
	}
	return idx, nil
}

// upsertResult tells what upsert did to the document
type upsertResult int

const (
	upsertAdded upsertResult = iota
	upsertUpdated
	upsertUnchanged
)

// upsert overwrites every entry carrying d's identity, or appends d when there
// is none. The index is kept in step with doc.Devices.
func (idx *entryIndex) upsert(doc *Document, d lorawan.Device) upsertResult {
	result := upsertAdded
	for i, eui := range idx.euis {
		if eui != d.DevEUI() {
			continue
		}
		before := doc.Devices[i]
		doc.Devices[i].Apply(d)
		if result != upsertUpdated && sameManagedFields(before, doc.Devices[i]) {
			result = upsertUnchanged
		} else {
			result = upsertUpdated
		}
	}

	if result == upsertAdded {
		doc.Devices = append(doc.Devices, d.ToWire())
		idx.euis = append(idx.euis, d.DevEUI())
	}
	return result
}

// filterEntries removes every entry for which drop reports true and returns
// the identities removed.
func filterEntries(doc *Document, drop func(lorawan.DevEUI) bool) ([]lorawan.DevEUI, error) {
	idx, err := newEntryIndex(doc.Devices)
	if err != nil {
		return nil, err
	}

	var removed []lorawan.DevEUI
	kept := doc.Devices[:0]
	for i, e := range doc.Devices {
		if drop(idx.euis[i]) {
			removed = append(removed, idx.euis[i])
			continue
		}
		kept = append(kept, e)
	}
	doc.Devices = kept
	return removed, nil
}

func sameManagedFields(a, b lorawan.WireEntry) bool {
	return a.DevEUI == b.DevEUI &&
		a.AppEUI == b.AppEUI &&
		strings.EqualFold(a.AppKey, b.AppKey) &&
		a.Class == b.Class &&
		a.DeviceProfileID == b.DeviceProfileID &&
		a.NetworkProfileID == b.NetworkProfileID
}
