package sms

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/taara-api/internal/domain"
)

type mockSender struct{ mock.Mock }

func (m *mockSender) SendSMS(ctx context.Context, to, message string) error {
	return m.Called(ctx, to, message).Error(0)
}

func adoption(status domain.RequestStatus, phone string) *domain.Request {
	return &domain.Request{
		RequestID: "r1",
		Kind:      domain.KindAdoption,
		Status:    status,
		Payload:   map[string]any{"contactNumber": phone, "petName": "Bantay"},
	}
}

func TestNormalizePH(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"09171234567", "+639171234567", true},
		{"0917-123-4567", "+639171234567", true},
		{"+63 917 123 4567", "+639171234567", true},
		{"639171234567", "+639171234567", true},
		{"9171234567", "+639171234567", true},
		{"0817123456", "", false},
		{"+1 415 555 0100", "", false},
		{"call me", "", false},
	}
	for _, tc := range cases {
		got, ok := NormalizePH(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestRequestSubmitted_SendsToNormalizedNumber(t *testing.T) {
	sender := &mockSender{}
	sender.On("SendSMS", mock.Anything, "+639171234567",
		"TAARA: We received your adoption request for Bantay. We will text you once it has been reviewed.").Return(nil)

	require.NoError(t, NewService(sender, nil).RequestSubmitted(context.Background(), adoption(domain.StatusPending, "09171234567")))
	sender.AssertExpectations(t)
}

func TestRequestReviewed_RejectionIncludesNotes(t *testing.T) {
	req := adoption(domain.StatusRejected, "09171234567")
	notes := "Incomplete documents"
	req.AdminNotes = &notes
	sender := &mockSender{}
	sender.On("SendSMS", mock.Anything, "+639171234567",
		"TAARA: Your adoption request for Bantay was not approved this time. Note: Incomplete documents").Return(nil)

	require.NoError(t, NewService(sender, nil).RequestReviewed(context.Background(), req))
	sender.AssertExpectations(t)
}

func TestRequestReviewed_CompletedSendsNothing(t *testing.T) {
	sender := &mockSender{}
	require.NoError(t, NewService(sender, nil).RequestReviewed(context.Background(), adoption(domain.StatusCompleted, "09171234567")))
	sender.AssertNotCalled(t, "SendSMS", mock.Anything, mock.Anything, mock.Anything)
}

func TestSend_SkipsMissingOrBadNumber(t *testing.T) {
	sender := &mockSender{}
	svc := NewService(sender, nil)

	require.NoError(t, svc.RequestSubmitted(context.Background(), adoption(domain.StatusPending, "")))
	require.NoError(t, svc.RequestSubmitted(context.Background(), adoption(domain.StatusPending, "n/a")))
	sender.AssertNotCalled(t, "SendSMS", mock.Anything, mock.Anything, mock.Anything)
}

func TestSend_WrapsSenderError(t *testing.T) {
	sender := &mockSender{}
	sender.On("SendSMS", mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)

	err := NewService(sender, nil).RequestReviewed(context.Background(), adoption(domain.StatusApproved, "09171234567"))
	assert.ErrorIs(t, err, assert.AnError)
}
