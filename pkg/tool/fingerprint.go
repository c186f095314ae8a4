package tool

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Fingerprint derives a stable, non-reversible viewer identity from the
// client network origin and user agent.
func Fingerprint(clientIP, userAgent string) string {
	h := sha256.New()
	h.Write([]byte(strings.TrimSpace(clientIP)))
	h.Write([]byte{0})
	h.Write([]byte(strings.TrimSpace(userAgent)))
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// DayKey is the UTC calendar day of t, e.g. 2024-05-01.
func DayKey(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}
