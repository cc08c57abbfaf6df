package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	want := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

	for _, raw := range []string{
		"2024-01-15",
		" 2024-01-15 ",
		"2024-01-15T23:59:59Z",
		"2024-01-15T06:00:00-08:00",
		"2024-01-15T10:00:00",
		"2024/01/15",
		"Mon Jan 15 2024",
		"Jan 15 2024",
		"January 15, 2024",
	} {
		got, ok := ParseDate(raw)
		require.True(t, ok, raw)
		assert.True(t, want.Equal(got), "%q parsed as %s", raw, got)
	}

	for _, raw := range []string{"", "yesterday", "2024-13-01", "15/01/2024"} {
		_, ok := ParseDate(raw)
		assert.False(t, ok, raw)
	}
}

func TestFormatDateIgnoresServerZone(t *testing.T) {
	d, ok := ParseDate("2024-01-15")
	require.True(t, ok)
	assert.Equal(t, "Mon Jan 15 2024", FormatDate(d))
	assert.Equal(t, "Mon Jan 01 2024", FormatDate(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)))
}

func TestLeadingInt(t *testing.T) {
	tests := []struct {
		raw  string
		want int
		ok   bool
	}{
		{"30", 30, true},
		{" 30 ", 30, true},
		{"30min", 30, true},
		{"45.9", 45, true},
		{"-4", -4, true},
		{"+7", 7, true},
		{"abc", 0, false},
		{"-", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := leadingInt(tt.raw)
		assert.Equal(t, tt.ok, ok, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestParseLimit(t *testing.T) {
	n, err := parseLimit("3", true)
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, 3, *n)

	n, err = parseLimit("", true)
	require.NoError(t, err)
	assert.Nil(t, n)

	n, err = parseLimit("3x", false)
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, 3, *n)

	_, err = parseLimit("3x", true)
	assert.Error(t, err)
}

func TestResolveDate(t *testing.T) {
	now := time.Date(2024, time.May, 5, 23, 0, 0, 0, time.UTC)

	got, err := resolveDate("", true, now)
	require.NoError(t, err)
	assert.Equal(t, "Sun May 05 2024", FormatDate(got))

	_, err = resolveDate("bogus", true, now)
	assert.Error(t, err)

	got, err = resolveDate("bogus", false, now)
	require.NoError(t, err)
	assert.Equal(t, "Sun May 05 2024", FormatDate(got))
}
