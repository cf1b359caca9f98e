package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/taara-api/internal/domain"
)

func TestHTTPError_Mapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{&domain.ValidationError{Fields: []string{"reason"}}, http.StatusUnprocessableEntity},
		{fmt.Errorf("bad ext: %w", domain.ErrBadRequest), http.StatusBadRequest},
		{fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized), http.StatusUnauthorized},
		{&domain.ForbiddenError{Reason: "admin only"}, http.StatusForbidden},
		{&domain.NotFoundError{Entity: "request", ID: "r1"}, http.StatusNotFound},
		{&domain.InvalidTransitionError{Kind: domain.KindAdoption, From: domain.StatusApproved, To: domain.StatusRejected}, http.StatusConflict},
		{&domain.CapacityExceededError{ScheduleID: "s1"}, http.StatusConflict},
		{domain.ErrConflict, http.StatusConflict},
		{errors.New("dynamodb: connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		httpError(rr, tc.err)
		assert.Equal(t, tc.code, rr.Code, tc.err.Error())
	}
}

func TestHTTPError_HidesInternalDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	httpError(rr, errors.New("dynamodb: table requests missing"))

	var env MessageEnvelope
	decodeBody(t, rr, &env)
	assert.Equal(t, "internal server error", env.Error)
	assert.Equal(t, http.StatusInternalServerError, env.ErrorCode)
}

func TestListOf_NilBecomesEmptyArray(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSON(rr, http.StatusOK, listOf[domain.Request](nil))
	assert.JSONEq(t, `{"data":[],"count":0}`, rr.Body.String())
}
