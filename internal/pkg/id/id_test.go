package id

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
)

func TestNew_ParsesAsULID(t *testing.T) {
	_, err := ulid.ParseStrict(New())
	assert.NoError(t, err)
}

func TestNewAt_SortsByTime(t *testing.T) {
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	older := NewAt(base)
	newer := NewAt(base.Add(time.Second))
	assert.Less(t, older, newer)
}

func TestConn_Unique(t *testing.T) {
	assert.NotEqual(t, Conn(), Conn())
}
