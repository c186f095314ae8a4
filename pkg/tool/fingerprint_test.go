package tool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFingerprint(t *testing.T) {
	a := Fingerprint("10.0.0.1", "Mozilla/5.0")
	require.Len(t, a, 32)
	require.Equal(t, a, Fingerprint(" 10.0.0.1 ", "Mozilla/5.0"))
	require.NotEqual(t, a, Fingerprint("10.0.0.2", "Mozilla/5.0"))
	require.NotEqual(t, a, Fingerprint("10.0.0.1", "curl/8.0"))
	// the separator keeps ip/ua boundaries distinct
	require.NotEqual(t, Fingerprint("1", "23"), Fingerprint("12", "3"))
}

func TestDayKey(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	ts := time.Date(2024, 5, 2, 3, 0, 0, 0, loc)
	require.Equal(t, "2024-05-01", DayKey(ts))
}
