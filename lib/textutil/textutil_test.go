package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCount(t *testing.T) {
	require.Equal(t, int64(1234), ParseCount("1,234 post impressions"))
	require.Equal(t, int64(12), ParseCount("12"))
	require.Equal(t, int64(12345), ParseCount("12 345 reactions"))
	require.Equal(t, int64(0), ParseCount("no numbers here"))
	require.Equal(t, int64(0), ParseCount(""))
}

func TestCleanRelativeTime(t *testing.T) {
	require.Equal(t, "3d", CleanRelativeTime("3d • Edited"))
	require.Equal(t, "1w", CleanRelativeTime("  1w  •\n Visible to anyone on or off LinkedIn "))
	require.Equal(t, "5mo", CleanRelativeTime("5mo"))
	require.Equal(t, "", CleanRelativeTime(" • Edited"))
}
