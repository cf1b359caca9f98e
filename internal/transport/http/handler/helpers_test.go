package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/taara-api/internal/domain"
	jwtinfra "github.com/taara-api/internal/infrastructure/jwt"
	"github.com/taara-api/internal/transport/http/middleware"
)

var (
	alice = domain.Actor{UserID: "alice", Role: domain.RoleUser}
	admin = domain.Actor{UserID: "admin1", Role: domain.RoleAdmin}
)

// newReq builds a request carrying the actor's claims. A zero actor means anonymous.
func newReq(t *testing.T, method, target string, as domain.Actor, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	r := httptest.NewRequest(method, target, &buf)
	if as.UserID != "" {
		r = r.WithContext(middleware.WithClaims(r.Context(), &jwtinfra.Claims{UserID: as.UserID, Role: as.Role}))
	}
	return r
}

// withParams injects chi URL params into the request context.
func withParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rr.Body).Decode(v))
}

func ptr[T any](v T) *T { return &v }
