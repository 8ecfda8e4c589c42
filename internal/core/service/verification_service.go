package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog"

	"github.com/vetconsult/auth-api/internal/core/domain"
	"github.com/vetconsult/auth-api/internal/core/ports"
	"github.com/vetconsult/auth-api/pkg/logger"
)

const maxCodeLength = 12

// VerificationConfig tunes code shape, lifetime and guessing limits.
type VerificationConfig struct {
	CodeLength     int
	TTL            time.Duration
	MaxAttempts    int
	ResendInterval time.Duration
}

type verificationService struct {
	store    ports.VerificationStore
	notifier ports.Notifier
	queue    ports.SMSQueue
	cfg      VerificationConfig
	log      zerolog.Logger
}

// NewVerificationService returns a VerificationService. Synchronous sends go
// through notifier, fire-and-forget sends through queue.
func NewVerificationService(
	store ports.VerificationStore,
	notifier ports.Notifier,
	queue ports.SMSQueue,
	cfg VerificationConfig,
	log zerolog.Logger,
) ports.VerificationService {
	if cfg.CodeLength <= 0 || cfg.CodeLength > maxCodeLength {
		cfg.CodeLength = 6
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	return &verificationService{
		store:    store,
		notifier: notifier,
		queue:    queue,
		cfg:      cfg,
		log:      log,
	}
}

func (s *verificationService) IssueCode(ctx context.Context, mobile string, purpose domain.VerificationPurpose, failClosed bool) (string, error) {
	if s.cfg.ResendInterval > 0 {
		ok, err := s.store.Throttle(ctx, mobile, purpose, s.cfg.ResendInterval)
		if err != nil {
			return "", fmt.Errorf("issue code: %w", err)
		}
		if !ok {
			return "", domain.ErrTooManyRequests
		}
	}

	code, err := randomCode(s.cfg.CodeLength)
	if err != nil {
		return "", fmt.Errorf("issue code: %w", err)
	}

	vc := &domain.VerificationCode{
		Mobile:    mobile,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: time.Now().UTC().Add(s.cfg.TTL),
	}
	if err := s.store.Save(ctx, vc, s.cfg.TTL); err != nil {
		return "", fmt.Errorf("issue code: %w", err)
	}

	msg := s.message(purpose, code)

	if !failClosed {
		s.queue.Enqueue(ports.SMSMessage{Mobile: mobile, Body: msg})
		return code, nil
	}

	if err := s.notifier.Send(ctx, mobile, msg); err != nil {
		if _, delErr := s.store.Delete(ctx, mobile, purpose); delErr != nil {
			s.log.Warn().Err(delErr).Str("purpose", string(purpose)).Msg("failed to discard undelivered code")
		}
		// Nothing reached the user, so a retry must not wait out the window.
		if s.cfg.ResendInterval > 0 {
			if relErr := s.store.ReleaseThrottle(ctx, mobile, purpose); relErr != nil {
				s.log.Warn().Err(relErr).Str("purpose", string(purpose)).Msg("failed to release resend throttle")
			}
		}
		s.log.Error().Err(err).Str("purpose", string(purpose)).Str("mobile", logger.MaskMobile(mobile)).Msg("verification sms failed")
		return "", domain.ErrNotificationFailed
	}
	return code, nil
}

func (s *verificationService) VerifyCode(ctx context.Context, mobile string, purpose domain.VerificationPurpose, code string) error {
	stored, err := s.store.Get(ctx, mobile, purpose)
	if err != nil {
		return err
	}

	if subtle.ConstantTimeCompare([]byte(stored.Code), []byte(code)) != 1 {
		attempts, err := s.store.IncrAttempts(ctx, mobile, purpose)
		if err != nil {
			return fmt.Errorf("verify code: %w", err)
		}
		if attempts >= s.cfg.MaxAttempts {
			if _, err := s.store.Delete(ctx, mobile, purpose); err != nil {
				return fmt.Errorf("verify code: %w", err)
			}
			s.log.Warn().Str("purpose", string(purpose)).Str("mobile", logger.MaskMobile(mobile)).Int("attempts", attempts).Msg("verification code burned after repeated mismatches")
			return domain.ErrTooManyAttempts
		}
		return domain.ErrInvalidCode
	}

	// Single use: only the caller whose delete removed the code redeems it.
	claimed, err := s.store.Delete(ctx, mobile, purpose)
	if err != nil {
		return fmt.Errorf("verify code: %w", err)
	}
	if !claimed {
		return domain.ErrCodeNotFound
	}
	return nil
}

func (s *verificationService) message(purpose domain.VerificationPurpose, code string) string {
	minutes := int(s.cfg.TTL.Minutes())
	if purpose == domain.PurposePasswordReset {
		return fmt.Sprintf("Your password reset code is %s. It expires in %d minutes.", code, minutes)
	}
	return fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, minutes)
}

// randomCode returns a zero-padded crypto-random numeric string of n digits.
func randomCode(n int) (string, error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	v, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", n, v.Int64()), nil
}
