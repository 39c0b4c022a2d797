package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"7d", 7 * 24 * time.Hour},
		{"24h", 24 * time.Hour},
		{"30", 30 * time.Second},
		{" 2s ", 2 * time.Second},
		{"1m30s", 90 * time.Second},
	}
	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseDuration("xd")
	assert.Error(t, err)
	_, err = ParseDuration("soon")
	assert.Error(t, err)
}

func TestDurationOr(t *testing.T) {
	assert.Equal(t, 5*time.Second, DurationOr("", 5*time.Second))
	assert.Equal(t, 5*time.Second, DurationOr("-1s", 5*time.Second))
	assert.Equal(t, time.Minute, DurationOr("1m", 5*time.Second))
}

func TestParseSize(t *testing.T) {
	assert.Equal(t, int64(10*1024*1024), ParseSize("10MB", 1))
	assert.Equal(t, int64(512*1024), ParseSize("512kb", 1))
	assert.Equal(t, int64(100), ParseSize("100B", 1))
	assert.Equal(t, int64(2*1024*1024*1024), ParseSize("2GB", 1))
	assert.Equal(t, int64(7), ParseSize("", 7))
	assert.Equal(t, int64(7), ParseSize("lots", 7))
}
