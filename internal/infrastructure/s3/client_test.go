package s3infra

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentType(t *testing.T) {
	cases := []struct {
		name string
		want string
		ok   bool
	}{
		{"id.JPG", "image/jpeg", true},
		{"barangay-cert.pdf", "application/pdf", true},
		{"selfie.png", "image/png", true},
		{"scan.webp", "image/webp", true},
		{"notes.txt", "", false},
		{"noext", "", false},
	}
	for _, c := range cases {
		got, ok := ContentType(c.name)
		assert.Equal(t, c.want, got, c.name)
		assert.Equal(t, c.ok, ok, c.name)
	}
}
