package http

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taara-api/internal/config"
	"github.com/taara-api/internal/domain"
	jwtinfra "github.com/taara-api/internal/infrastructure/jwt"
)

type stubPets struct{ PetRepository }

func (stubPets) List(context.Context) ([]domain.Pet, error) {
	return []domain.Pet{{PetID: "p1", Name: "Bantay", Status: domain.PetAvailable}}, nil
}

func newProvider(t *testing.T) *jwtinfra.Provider {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	pubBytes, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})
	p, err := jwtinfra.NewProviderFromPEM(privPEM, pubPEM, time.Hour)
	require.NoError(t, err)
	return p
}

func newTestRouter(t *testing.T) (http.Handler, *jwtinfra.Provider) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	p := newProvider(t)
	cfg := &config.Config{AllowedOrigins: []string{"*"}, NotifyMaxRetries: 3}
	return NewRouter(ctx, cfg, &Deps{PetRepo: stubPets{}, TokenProvider: p}), p
}

func serve(h http.Handler, method, target, token string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, target, nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, r)
	return rr
}

func TestRouter_Public(t *testing.T) {
	h, _ := newTestRouter(t)

	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/v1/health-check/ping", "").Code)
	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/metrics", "").Code)

	rr := serve(h, http.MethodGet, "/v1/pets", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Bantay")
}

func TestRouter_AuthRequired(t *testing.T) {
	h, _ := newTestRouter(t)

	for _, path := range []string{"/v1/requests/mine", "/v1/notifications", "/v1/accounts/me", "/v1/registrations/mine"} {
		assert.Equal(t, http.StatusUnauthorized, serve(h, http.MethodGet, path, "").Code, path)
	}
}

func TestRouter_AdminRoutesRejectUsers(t *testing.T) {
	h, p := newTestRouter(t)
	token, err := p.Sign("u1", domain.RoleUser)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, serve(h, http.MethodGet, "/v1/requests", token).Code)
	assert.Equal(t, http.StatusForbidden, serve(h, http.MethodPut, "/v1/requests/r1/status", token).Code)
	assert.Equal(t, http.StatusForbidden, serve(h, http.MethodPost, "/v1/pets", token).Code)
	assert.Equal(t, http.StatusForbidden, serve(h, http.MethodDelete, "/v1/schedules/s1", token).Code)
	assert.Equal(t, http.StatusForbidden, serve(h, http.MethodPut, "/v1/accounts/u1/role", token).Code)
}
