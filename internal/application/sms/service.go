// Package sms texts applicants about their adoption requests.
package sms

import (
	"context"
	"fmt"
	"strings"

	"github.com/taara-api/internal/domain"
	"github.com/taara-api/internal/infrastructure/sns"
	"github.com/taara-api/internal/pkg/logging"
	"go.uber.org/zap"
)

const phoneField = "contactNumber"

type Service struct {
	sender sns.SMSSender
	log    *zap.Logger
}

func NewService(sender sns.SMSSender, log *zap.Logger) *Service {
	return &Service{sender: sender, log: logging.OrNop(log)}
}

// RequestSubmitted confirms receipt. A request without a usable phone number is skipped.
func (s *Service) RequestSubmitted(ctx context.Context, req *domain.Request) error {
	msg := fmt.Sprintf("TAARA: We received your %s request%s. We will text you once it has been reviewed.",
		kindLabel(req.Kind), petSuffix(req))
	return s.send(ctx, req, msg)
}

// RequestReviewed reports an approval or rejection. Other statuses send nothing.
func (s *Service) RequestReviewed(ctx context.Context, req *domain.Request) error {
	var msg string
	switch req.Status {
	case domain.StatusApproved:
		msg = fmt.Sprintf("TAARA: Good news! Your %s request%s has been approved. Please check the app for next steps.",
			kindLabel(req.Kind), petSuffix(req))
	case domain.StatusRejected:
		msg = fmt.Sprintf("TAARA: Your %s request%s was not approved this time.", kindLabel(req.Kind), petSuffix(req))
		if req.AdminNotes != nil && *req.AdminNotes != "" {
			msg += " Note: " + *req.AdminNotes
		}
	default:
		return nil
	}
	return s.send(ctx, req, msg)
}

func (s *Service) send(ctx context.Context, req *domain.Request, msg string) error {
	raw, ok := req.PayloadString(phoneField)
	if !ok {
		s.log.Debug("sms skipped: no contact number", zap.String("request_id", req.RequestID))
		return nil
	}
	to, ok := NormalizePH(raw)
	if !ok {
		s.log.Warn("sms skipped: unusable contact number", zap.String("request_id", req.RequestID))
		return nil
	}
	if err := s.sender.SendSMS(ctx, to, msg); err != nil {
		return fmt.Errorf("send sms for %s: %w", req.RequestID, err)
	}
	return nil
}

// NormalizePH converts Philippine mobile numbers (09XXXXXXXXX, 639XXXXXXXXX,
// +639XXXXXXXXX, with spaces or dashes) to E.164.
func NormalizePH(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && b.Len() == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return "", false
		}
	}
	digits := b.String()
	switch {
	case len(digits) == 11 && strings.HasPrefix(digits, "09"):
		digits = "63" + digits[1:]
	case len(digits) == 10 && strings.HasPrefix(digits, "9"):
		digits = "63" + digits
	}
	if len(digits) != 12 || !strings.HasPrefix(digits, "639") {
		return "", false
	}
	return "+" + digits, true
}

func kindLabel(k domain.RequestKind) string {
	return strings.ReplaceAll(string(k), "_", " ")
}

func petSuffix(req *domain.Request) string {
	if name, ok := req.PayloadString("petName"); ok {
		return " for " + name
	}
	return ""
}
