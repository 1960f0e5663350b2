package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatBalance(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-25000, "-25,000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBalance(tt.in))
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "₹50,000", FormatAmount(50000))
}

func TestFormatDiscordTimestamp(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	assert.Equal(t, "<t:1700000000:R>", FormatDiscordTimestamp(ts, "R"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcd…", Truncate("abcdefgh", 5))
	assert.Equal(t, "…", Truncate("abcdefgh", 1))
	assert.Equal(t, "", Truncate("abcdefgh", 0))
	assert.Equal(t, "", Truncate("abcdefgh", -3))
}
