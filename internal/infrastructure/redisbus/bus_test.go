package redisbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserFromChannel(t *testing.T) {
	id, ok := UserFromChannel("taara:notifications:01HZX")
	assert.True(t, ok)
	assert.Equal(t, "01HZX", id)

	_, ok = UserFromChannel("taara:notifications:")
	assert.False(t, ok)

	_, ok = UserFromChannel("other:01HZX")
	assert.False(t, ok)
}
