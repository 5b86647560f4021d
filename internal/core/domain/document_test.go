package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_UnmarshalUpstreamPayload(t *testing.T) {
	payload := `{
		"id": "doc1",
		"content_preview": "Quarterly report...",
		"created_by": "alice",
		"created_at": "2024-05-01T10:00:00.123456",
		"updated_at": "2024-05-02T08:30:00Z"
	}`

	var doc Document
	require.NoError(t, json.Unmarshal([]byte(payload), &doc))

	assert.Equal(t, "doc1", doc.ID)
	assert.Equal(t, "alice", doc.CreatedBy)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 123456000, time.UTC), doc.CreatedAt.Time)
	assert.Equal(t, time.Date(2024, 5, 2, 8, 30, 0, 0, time.UTC), doc.UpdatedAt.Time)
	assert.True(t, doc.WasUpdated())
}

func TestDocument_WasUpdated(t *testing.T) {
	created := NewTimestamp(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))

	never := Document{CreatedAt: created, UpdatedAt: created}
	assert.False(t, never.WasUpdated())

	// Same instant expressed in another zone is still "never updated".
	sameInstant := Document{CreatedAt: created, UpdatedAt: Timestamp{created.In(time.FixedZone("CET", 3600))}}
	assert.False(t, sameInstant.WasUpdated())

	later := Document{CreatedAt: created, UpdatedAt: NewTimestamp(created.Add(time.Minute))}
	assert.True(t, later.WasUpdated())
}

func TestTimestamp_Unmarshal(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    time.Time
		wantErr bool
	}{
		{"rfc3339", `"2024-05-01T10:00:00+02:00"`, time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC), false},
		{"naive", `"2024-05-01T10:00:00"`, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), false},
		{"naive with space", `"2024-05-01 10:00:00"`, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), false},
		{"empty", `""`, time.Time{}, false},
		{"garbage", `"yesterday"`, time.Time{}, true},
		{"number", `1714557600`, time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			err := json.Unmarshal([]byte(tt.in), &ts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(ts.Time), "got %s", ts.Time)
		})
	}
}

func TestTimestamp_MarshalRoundTrip(t *testing.T) {
	ts := NewTimestamp(time.Date(2024, 5, 1, 10, 0, 0, 500, time.UTC))

	data, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2024-05-01T10:00:00.0000005Z"`, string(data))

	var back Timestamp
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, ts.Equal(back.Time))
}
