package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vetconsult/auth-api/internal/core/domain"
)

// VerificationStore keeps one-time codes in Redis hashes.
// Key format: verify:<purpose>:<mobile>          fields code, attempts, expires_at
// Throttle:   verify:throttle:<purpose>:<mobile> value "1", TTL = resend window
type VerificationStore struct {
	client *redis.Client
}

func NewVerificationStore(client *redis.Client) *VerificationStore {
	return &VerificationStore{client: client}
}

// incrIfExists bumps the attempts field without resurrecting an expired key.
var incrIfExists = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
  return -1
end
return redis.call("HINCRBY", KEYS[1], "attempts", 1)
`)

// Save overwrites any code for the (mobile, purpose) pair.
func (s *VerificationStore) Save(ctx context.Context, code *domain.VerificationCode, ttl time.Duration) error {
	key := codeKey(code.Mobile, code.Purpose)
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key)
		p.HSet(ctx, key,
			"code", code.Code,
			"attempts", 0,
			"expires_at", code.ExpiresAt.Unix(),
		)
		p.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save verification code: %w", err)
	}
	return nil
}

func (s *VerificationStore) Get(ctx context.Context, mobile string, purpose domain.VerificationPurpose) (*domain.VerificationCode, error) {
	fields, err := s.client.HGetAll(ctx, codeKey(mobile, purpose)).Result()
	if err != nil {
		return nil, fmt.Errorf("get verification code: %w", err)
	}
	if len(fields) == 0 || fields["code"] == "" {
		return nil, domain.ErrCodeNotFound
	}

	attempts, _ := strconv.Atoi(fields["attempts"])
	exp, _ := strconv.ParseInt(fields["expires_at"], 10, 64)
	return &domain.VerificationCode{
		Mobile:    mobile,
		Code:      fields["code"],
		Purpose:   purpose,
		ExpiresAt: time.Unix(exp, 0).UTC(),
		Attempts:  attempts,
	}, nil
}

func (s *VerificationStore) IncrAttempts(ctx context.Context, mobile string, purpose domain.VerificationPurpose) (int, error) {
	n, err := incrIfExists.Run(ctx, s.client, []string{codeKey(mobile, purpose)}).Int()
	if err != nil {
		return 0, fmt.Errorf("incr verification attempts: %w", err)
	}
	if n < 0 {
		return 0, domain.ErrCodeNotFound
	}
	return n, nil
}

// Delete reports true only to the caller whose DEL removed the key, so two
// concurrent redemptions of the same code cannot both succeed.
func (s *VerificationStore) Delete(ctx context.Context, mobile string, purpose domain.VerificationPurpose) (bool, error) {
	n, err := s.client.Del(ctx, codeKey(mobile, purpose)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("delete verification code: %w", err)
	}
	return n > 0, nil
}

// Throttle reserves the resend window with SET NX. It returns false while a
// previous reservation for the pair is still alive.
func (s *VerificationStore) Throttle(ctx context.Context, mobile string, purpose domain.VerificationPurpose, window time.Duration) (bool, error) {
	if window <= 0 {
		return true, nil
	}
	ok, err := s.client.SetNX(ctx, throttleKey(mobile, purpose), "1", window).Result()
	if err != nil {
		return false, fmt.Errorf("verification throttle: %w", err)
	}
	return ok, nil
}

func (s *VerificationStore) ReleaseThrottle(ctx context.Context, mobile string, purpose domain.VerificationPurpose) error {
	if err := s.client.Del(ctx, throttleKey(mobile, purpose)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release verification throttle: %w", err)
	}
	return nil
}

func codeKey(mobile string, purpose domain.VerificationPurpose) string {
	return fmt.Sprintf("verify:%s:%s", purpose, mobile)
}

func throttleKey(mobile string, purpose domain.VerificationPurpose) string {
	return fmt.Sprintf("verify:throttle:%s:%s", purpose, mobile)
}
