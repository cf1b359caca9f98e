package id

import (
	"crypto/rand"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// New returns a ULID string for a stored entity. ULIDs sort by creation time,
// so ids double as a tiebreaker when two records share a created_at value.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

// NewAt returns a ULID whose time component is t.
func NewAt(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}

// Conn returns a random identifier for an ephemeral connection (not persisted).
func Conn() string {
	return uuid.NewString()
}
