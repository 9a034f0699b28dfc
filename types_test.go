package relapse_test

import (
	"strings"
	"testing"
	"time"

	"github.com/sagarc03/relapse"
	"github.com/stretchr/testify/assert"
)

func TestEvent_IsReleased(t *testing.T) {
	release := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	event := relapse.Event{ReleaseAt: release}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{name: "before release", now: release.Add(-time.Nanosecond), want: false},
		{name: "at release", now: release, want: true},
		{name: "after release", now: release.Add(time.Hour), want: true},
		{name: "other zone before release", now: time.Date(2030, 1, 1, 0, 30, 0, 0, time.FixedZone("x", 3600)), want: false},
		{name: "other zone after release", now: time.Date(2029, 12, 31, 23, 30, 0, 0, time.FixedZone("y", -3600)), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, event.IsReleased(tt.now))
		})
	}
}

func TestTables_Validate(t *testing.T) {
	tests := []struct {
		name    string
		tables  relapse.Tables
		wantErr string
	}{
		{name: "defaults", tables: relapse.DefaultTables()},
		{name: "custom", tables: relapse.Tables{Events: "tenant_events", Photos: "tenant_photos"}},
		{name: "empty events", tables: relapse.Tables{Photos: "photos"}, wantErr: "events table name cannot be empty"},
		{name: "empty photos", tables: relapse.Tables{Events: "events"}, wantErr: "photos table name cannot be empty"},
		{name: "uppercase", tables: relapse.Tables{Events: "Events", Photos: "photos"}, wantErr: "invalid events table name"},
		{name: "injection", tables: relapse.Tables{Events: "events", Photos: "photos; drop"}, wantErr: "invalid photos table name"},
		{name: "too long", tables: relapse.Tables{Events: strings.Repeat("a", 64), Photos: "photos"}, wantErr: "invalid events table name"},
		{name: "same name", tables: relapse.Tables{Events: "items", Photos: "items"}, wantErr: "must differ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tables.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestIsValidTableName(t *testing.T) {
	assert.True(t, relapse.IsValidTableName("photos"))
	assert.True(t, relapse.IsValidTableName("_photos_2"))
	assert.True(t, relapse.IsValidTableName(strings.Repeat("a", 63)))
	assert.False(t, relapse.IsValidTableName("2photos"))
	assert.False(t, relapse.IsValidTableName("pho-tos"))
	assert.False(t, relapse.IsValidTableName(""))
}

func TestError(t *testing.T) {
	err := &relapse.Error{Kind: relapse.ErrStorage, Message: "Failed to upload to storage", Details: "timeout"}
	assert.Equal(t, "Failed to upload to storage: timeout", err.Error())
	assert.ErrorIs(t, err, relapse.ErrStorage)

	bare := &relapse.Error{Kind: relapse.ErrNotFound, Message: "Event not found"}
	assert.Equal(t, "Event not found", bare.Error())
}
