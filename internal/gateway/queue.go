package gateway

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/muurk/mtcap-allowlist/internal/lorawan"
)

const queuePath = "lora/packets/queue"

// Packet is one downlink waiting in the gateway's queue
type Packet struct {
	DevEUI lorawan.DevEUI
	Port   uint8
	Data   string
}

type wirePacket struct {
	DevEUI string          `json:"deveui"`
	Port   json.RawMessage `json:"port"`
	Data   string          `json:"data"`
}

// ListQueue returns every downlink queued on the gateway
func (c *Client) ListQueue() ([]Packet, error) {
	result, err := c.Get(queuePath)
	if err != nil {
		return nil, err
	}

	var entries []wirePacket
	if len(result) > 0 && string(result) != "null" {
		if err := json.Unmarshal(result, &entries); err != nil {
			return nil, withCall(NewProtocolError("queue result is not a list", err), "GET", queuePath, c.host)
		}
	}

	packets := make([]Packet, 0, len(entries))
	for i, entry := range entries {
		eui, err := lorawan.ParseDevEUI(entry.DevEUI)
		if err != nil {
			return nil, withCall(NewProtocolError(fmt.Sprintf("queue entry %d: bad deveui", i), err), "GET", queuePath, c.host)
		}
		port, err := parsePort(entry.Port)
		if err != nil {
			return nil, withCall(NewProtocolError(fmt.Sprintf("queue entry %d: bad port", i), err), "GET", queuePath, c.host)
		}
		packets = append(packets, Packet{DevEUI: eui, Port: port, Data: entry.Data})
	}
	return packets, nil
}

// ClearQueue drops the queued downlinks of every listed device, then commits.
// It stops at the first failed delete.
func (c *Client) ClearQueue(euis []lorawan.DevEUI) error {
	for _, eui := range euis {
		if err := c.Delete(queuePath + "/" + eui.String()); err != nil {
			return fmt.Errorf("clear queue for %s: %w", eui, err)
		}
	}
	return c.Commit()
}

// parsePort accepts the port as a JSON number or a numeric string
func parsePort(raw json.RawMessage) (uint8, error) {
	if len(raw) == 0 {
		return 0, fmt.Errorf("missing port")
	}

	text := string(raw)
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		text = s
	}

	port, err := strconv.ParseUint(text, 10, 8)
	if err != nil {
		return 0, err
	}
	return uint8(port), nil
}
