package ports

import (
	"context"
	"time"

	"github.com/vetconsult/auth-api/internal/core/domain"
)

// VerificationStore keeps at most one code per (mobile, purpose).
type VerificationStore interface {
	// Save replaces any existing code for the pair and resets its attempts.
	Save(ctx context.Context, code *domain.VerificationCode, ttl time.Duration) error
	// Get returns domain.ErrCodeNotFound when absent or expired.
	Get(ctx context.Context, mobile string, purpose domain.VerificationPurpose) (*domain.VerificationCode, error)
	// IncrAttempts records a failed guess and returns the running total.
	IncrAttempts(ctx context.Context, mobile string, purpose domain.VerificationPurpose) (int, error)
	// Delete removes the code and reports whether this call removed it. Only
	// the caller that gets true owns the redemption.
	Delete(ctx context.Context, mobile string, purpose domain.VerificationPurpose) (bool, error)
	// Throttle reserves the resend window; it returns false when a code was
	// issued for the pair less than window ago.
	Throttle(ctx context.Context, mobile string, purpose domain.VerificationPurpose, window time.Duration) (bool, error)
	// ReleaseThrottle drops the resend reservation for the pair.
	ReleaseThrottle(ctx context.Context, mobile string, purpose domain.VerificationPurpose) error
}

// Notifier delivers a text message to a mobile number.
type Notifier interface {
	Send(ctx context.Context, mobile, message string) error
}

// SMSQueue accepts fire-and-forget messages.
type SMSQueue interface {
	Enqueue(msg SMSMessage)
}

// SMSMessage is a queued outbound text.
type SMSMessage struct {
	Mobile string
	Body   string
}

// VerificationService issues and redeems one-time codes.
type VerificationService interface {
	// IssueCode generates and stores a code and dispatches it. When
	// failClosed is set the message is sent synchronously and a delivery
	// failure discards the code.
	IssueCode(ctx context.Context, mobile string, purpose domain.VerificationPurpose, failClosed bool) (string, error)
	VerifyCode(ctx context.Context, mobile string, purpose domain.VerificationPurpose, code string) error
}
