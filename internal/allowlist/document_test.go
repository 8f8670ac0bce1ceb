package allowlist

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_PreservesUnknownMembers(t *testing.T) {
	in := `{"devices":[{"deveui":"00-80-00-00-00-01-5b-2a","serial":"x"}],"enabled":false,"maxEntries":500}`

	var doc Document
	require.NoError(t, json.Unmarshal([]byte(in), &doc))
	require.Len(t, doc.Devices, 1)
	require.NotNil(t, doc.Enabled)
	assert.False(t, *doc.Enabled)

	out, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

func TestDocument_MissingDevicesIsEmpty(t *testing.T) {
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(`{"devices":null}`), &doc))
	assert.Empty(t, doc.Devices)
	assert.Nil(t, doc.Enabled)

	out, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"devices":[]}`, string(out))
}

func TestDocument_BadShapes(t *testing.T) {
	for _, in := range []string{`[]`, `null`, `{"devices":{}}`, `{"enabled":"yes"}`} {
		var doc Document
		assert.Error(t, json.Unmarshal([]byte(in), &doc), "input %s", in)
	}
}

func TestActiveDevice_ReferenceDate(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   time.Time
		wantOK bool
	}{
		{
			name:   "last seen preferred",
			in:     `{"deveui":"x","last_seen":"2024-03-05T22:10:00Z","created_at":"2023-01-01T00:00:00Z"}`,
			want:   time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "created at fallback on null last seen",
			in:     `{"deveui":"x","last_seen":null,"created_at":"2023-01-01T12:00:00Z"}`,
			want:   time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "wrong layout",
			in:     `{"deveui":"x","last_seen":"2024-03-05 22:10:00"}`,
			wantOK: false,
		},
		{
			name:   "fractional seconds fall back to created at",
			in:     `{"deveui":"x","last_seen":"2025-06-01T10:00:00.123Z","created_at":"2020-01-01T00:00:00Z"}`,
			want:   time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "fractional seconds only",
			in:     `{"deveui":"x","created_at":"2020-01-01T00:00:00.5Z"}`,
			wantOK: false,
		},
		{
			name:   "numeric timestamp",
			in:     `{"deveui":"x","created_at":1709676600}`,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a ActiveDevice
			require.NoError(t, json.Unmarshal([]byte(tt.in), &a))

			got, ok := a.ReferenceDate()
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
			}
		})
	}
}
