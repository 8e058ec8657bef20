package certificate

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

// hashTimestampLayout is ISO-8601 local time with nanoseconds.
const hashTimestampLayout = "2006-01-02T15:04:05.000000000"

// HashMinter issues per-render identity hashes. Within one minter no two calls
// share a timestamp, so the same name minted twice always yields different hashes.
type HashMinter struct {
	now  Clock
	mu   sync.Mutex
	last time.Time
}

// NewHashMinter returns a minter reading now; nil uses the wall clock.
func NewHashMinter(now Clock) *HashMinter {
	if now == nil {
		now = time.Now
	}
	return &HashMinter{now: now}
}

// Mint returns the lowercase hex SHA-256 of name + event + timestamp.
func (m *HashMinter) Mint(attendeeName, eventName string) string {
	ts := m.timestamp()

	var b strings.Builder
	b.WriteString(attendeeName)
	b.WriteString(eventName)
	b.WriteString(ts.Format(hashTimestampLayout))

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func (m *HashMinter) timestamp() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	ts := m.now().Round(0)
	if !ts.After(m.last) {
		ts = m.last.Add(time.Nanosecond)
	}
	m.last = ts
	return ts
}

// HashDisplay is the short form printed on the certificate.
func HashDisplay(hash string) string {
	short := hash
	if len(short) > 12 {
		short = short[:12]
	}
	return "ID: " + strings.ToUpper(short)
}
