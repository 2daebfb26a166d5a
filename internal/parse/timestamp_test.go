package parse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimestamp(t *testing.T) {
	want := time.Date(2024, 8, 4, 10, 0, 0, 0, time.UTC)

	testCases := []struct {
		name      string
		raw       string
		expected  time.Time
		expectErr bool
	}{
		{name: "Export day-first with dashes", raw: "04-08-2024 10:00", expected: want},
		{name: "Export day-first with seconds", raw: "04-08-2024 10:00:00", expected: want},
		{name: "Export day-first with dots", raw: "04.08.2024 10:00", expected: want},
		{name: "ISO with space", raw: "2024-08-04 10:00:00", expected: want},
		{name: "ISO with T", raw: "2024-08-04T10:00:00", expected: want},
		{name: "RFC3339 with offset", raw: "2024-08-04T12:00:00+02:00", expected: want},
		{name: "Padded cell", raw: "  04-08-2024 10:00 ", expected: want},
		{name: "Empty cell", raw: "", expectErr: true},
		{name: "Garbage", raw: "not a time", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Timestamp(tc.raw)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.True(t, tc.expected.Equal(got), "got %s", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestTimestamp_EmptyIsSentinel(t *testing.T) {
	_, err := Timestamp("  ")
	assert.ErrorIs(t, err, ErrEmptyTimestamp)
}

func TestISOTimestamp(t *testing.T) {
	want := time.Date(2024, 8, 4, 11, 0, 0, 0, time.UTC)

	for _, raw := range []string{
		"2024-08-04T11:00:00",
		"2024-08-04 11:00:00",
		"2024-08-04T11:00",
		"2024-08-04T11:00:00Z",
		"2024-08-04T13:00:00+02:00",
		"2024-08-04T11:00:00.000",
	} {
		got, err := ISOTimestamp(raw)
		if assert.NoError(t, err, raw) {
			assert.True(t, want.Equal(got), "%s parsed as %s", raw, got)
		}
	}

	day, err := ISOTimestamp("2024-08-04")
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2024, 8, 4, 0, 0, 0, 0, time.UTC), day)

	_, err = ISOTimestamp("04-08-2024 11:00")
	assert.Error(t, err)
	_, err = ISOTimestamp("")
	assert.ErrorIs(t, err, ErrEmptyTimestamp)
}
