package google

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taara-api/internal/domain"
	"google.golang.org/api/idtoken"
)

func stubVerifier(p *idtoken.Payload, err error) *Verifier {
	return &Verifier{
		clientID: "client-1",
		validate: func(_ context.Context, _, aud string) (*idtoken.Payload, error) {
			if aud != "client-1" {
				return nil, errors.New("audience mismatch")
			}
			return p, err
		},
	}
}

func TestVerify_ExtractsIdentity(t *testing.T) {
	v := stubVerifier(&idtoken.Payload{Subject: "g-123", Claims: map[string]interface{}{
		"email": "ana@example.com", "email_verified": true, "given_name": "Ana", "family_name": "Reyes",
	}}, nil)

	id, err := v.Verify(context.Background(), "tok")

	require.NoError(t, err)
	assert.Equal(t, &Identity{Subject: "g-123", Email: "ana@example.com", DisplayName: "Ana Reyes"}, id)
}

func TestVerify_NameFallsBackToEmailLocalPart(t *testing.T) {
	v := stubVerifier(&idtoken.Payload{Claims: map[string]interface{}{"email": "juan@example.com", "email_verified": true}}, nil)

	id, err := v.Verify(context.Background(), "tok")

	require.NoError(t, err)
	assert.Equal(t, "juan", id.DisplayName)
}

func TestVerify_UnverifiedEmail(t *testing.T) {
	v := stubVerifier(&idtoken.Payload{Claims: map[string]interface{}{"email": "ana@example.com", "email_verified": false}}, nil)

	_, err := v.Verify(context.Background(), "tok")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestVerify_InvalidToken(t *testing.T) {
	_, err := stubVerifier(nil, errors.New("bad signature")).Verify(context.Background(), "tok")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
