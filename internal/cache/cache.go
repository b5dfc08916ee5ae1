// Package cache stores LLM suggestions so identical events are not sent
// to a provider twice. Keys are derived from event content, not the
// event id, so re-imports of the same gathering still hit.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/hosttab/hosttab/internal/model"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// EventKey generates a cache key from the classification-relevant fields
// of a calendar event
func EventKey(event model.NormalizedCalendarEvent) string {
	var b strings.Builder
	b.WriteString(event.Title)
	b.WriteByte('\n')
	b.WriteString(event.Description)
	b.WriteByte('\n')
	b.WriteString(event.Location)
	b.WriteByte('\n')
	b.WriteString(event.StartDate)
	b.WriteByte('\n')
	b.WriteString(strings.Join(event.Attendees, ","))

	hash := sha256.Sum256([]byte(b.String()))
	return "hosttab:v1:" + hex.EncodeToString(hash[:])
}
