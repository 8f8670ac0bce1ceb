package gateway

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/muurk/mtcap-allowlist/internal/lorawan"
)

func TestListQueue(t *testing.T) {
	client, fake := newFakeClient(t)
	fake.SetQueue(
		map[string]any{"deveui": "00-80-00-00-00-01-5b-2c", "port": 10, "data": "AQI="},
		map[string]any{"deveui": "00-80-00-00-00-01-5b-2d", "port": "2", "data": ""},
	)

	packets, err := client.ListQueue()
	if err != nil {
		t.Fatalf("ListQueue() error = %v", err)
	}

	want := []Packet{
		{DevEUI: lorawan.MustParseDevEUI("00-80-00-00-00-01-5b-2c"), Port: 10, Data: "AQI="},
		{DevEUI: lorawan.MustParseDevEUI("00-80-00-00-00-01-5b-2d"), Port: 2, Data: ""},
	}
	if !reflect.DeepEqual(packets, want) {
		t.Errorf("ListQueue() = %+v, want %+v", packets, want)
	}
}

func TestListQueue_Empty(t *testing.T) {
	client, _ := newFakeClient(t)

	packets, err := client.ListQueue()
	if err != nil {
		t.Fatalf("ListQueue() error = %v", err)
	}
	if len(packets) != 0 {
		t.Errorf("ListQueue() = %v, want empty", packets)
	}
}

func TestListQueue_BadEntry(t *testing.T) {
	client, fake := newFakeClient(t)
	fake.SetQueue(map[string]any{"deveui": "not-an-eui", "port": 1, "data": ""})

	if _, err := client.ListQueue(); !IsProtocolError(err) {
		t.Errorf("ListQueue() error = %v, want protocol error", err)
	}
}

func TestClearQueue(t *testing.T) {
	client, fake := newFakeClient(t)
	fake.SetQueue(
		map[string]any{"deveui": "00-00-00-00-00-00-00-01", "port": 1, "data": ""},
		map[string]any{"deveui": "00-00-00-00-00-00-00-02", "port": 1, "data": ""},
		map[string]any{"deveui": "00-00-00-00-00-00-00-01", "port": 2, "data": ""},
	)

	err := client.ClearQueue([]lorawan.DevEUI{lorawan.MustParseDevEUI("00-00-00-00-00-00-00-01")})
	if err != nil {
		t.Fatalf("ClearQueue() error = %v", err)
	}

	if got := fake.QueueEUIs(); !reflect.DeepEqual(got, []string{"00-00-00-00-00-00-00-02"}) {
		t.Errorf("queue after clear = %v", got)
	}
	if fake.Commits() != 1 {
		t.Errorf("Commits() = %d, want 1", fake.Commits())
	}
}

func TestParsePort(t *testing.T) {
	tests := []struct {
		raw     string
		want    uint8
		wantErr bool
	}{
		{`1`, 1, false},
		{`"223"`, 223, false},
		{`256`, 0, true},
		{`"x"`, 0, true},
		{``, 0, true},
	}

	for _, tt := range tests {
		got, err := parsePort(json.RawMessage(tt.raw))
		if (err != nil) != tt.wantErr {
			t.Errorf("parsePort(%s) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parsePort(%s) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}
