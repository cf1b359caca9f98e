package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taara-api/internal/domain"
)

func TestStruct_Valid(t *testing.T) {
	err := Struct(domain.LoginInput{Email: "ana@example.com", Password: "secret"})
	assert.NoError(t, err)
}

func TestStruct_ReportsJSONFieldNames(t *testing.T) {
	err := Struct(domain.ScheduleInput{Title: "Kapon Day", Capacity: 0, Date: "2026-13-40"})
	require.Error(t, err)

	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "date (datetime)")
	assert.Contains(t, ve.Fields, "capacity (required)")
	assert.Contains(t, ve.Fields, "location (required)")
	assert.True(t, errors.Is(err, domain.ErrValidation))
}
