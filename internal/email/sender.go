package email

import (
	"context"
	"errors"
	"time"
)

// Sender define la interfaz para correos transaccionales: verificacion OTP
// y recordatorios de plazos de eventos.
type Sender interface {
	SendVerificationOTP(ctx context.Context, toEmail string, code string, expiresAt time.Time) error
	SendDeadlineReminder(ctx context.Context, toEmail string, eventName string, urgencyLabel string, deadline time.Time) error
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendVerificationOTP(_ context.Context, _ string, _ string, _ time.Time) error {
	return s.err()
}

func (s *disabledSender) SendDeadlineReminder(_ context.Context, _ string, _ string, _ string, _ time.Time) error {
	return s.err()
}

func (s *disabledSender) err() error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}
