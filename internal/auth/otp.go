// Package auth implements mobile-OTP login, admin credential login, and the
// opaque bearer-token sessions both produce.
package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"

	"loanbridge/internal/common/database"
	"loanbridge/internal/common/errors"
	"loanbridge/internal/common/logger"
	"loanbridge/internal/common/metrics"
)

// SMSSender delivers an OTP text. The SNS client satisfies this; dev mode
// substitutes a logger-backed sender.
type SMSSender interface {
	SendSMS(ctx context.Context, phoneNumber, message string) error
}

// LogSMSSender logs OTP messages instead of sending them, for development.
type LogSMSSender struct {
	Logger logger.Logger
}

func (s LogSMSSender) SendSMS(_ context.Context, phoneNumber, message string) error {
	s.Logger.Info("dev-mode SMS", map[string]interface{}{
		"to":      phoneNumber,
		"message": message,
	})
	return nil
}

// OTPService issues and verifies one-time codes held in Redis.
type OTPService struct {
	redis       *database.RedisClient
	sender      SMSSender
	ttl         time.Duration
	length      int
	maxAttempts int
	logger      logger.Logger
}

func NewOTPService(rdb *database.RedisClient, sender SMSSender, ttl time.Duration, length, maxAttempts int, log logger.Logger) *OTPService {
	return &OTPService{
		redis:       rdb,
		sender:      sender,
		ttl:         ttl,
		length:      length,
		maxAttempts: maxAttempts,
		logger:      log.WithFields(map[string]interface{}{"component": "otp"}),
	}
}

func otpKey(mobile string) string         { return fmt.Sprintf("auth:otp:%s", mobile) }
func otpAttemptsKey(mobile string) string { return fmt.Sprintf("auth:otp:attempts:%s", mobile) }

// Issue generates a fresh code for the mobile number, stores it under the
// TTL, and sends it. Reissuing replaces any previous code.
func (s *OTPService) Issue(ctx context.Context, mobile string) error {
	code, err := generateCode(s.length)
	if err != nil {
		return fmt.Errorf("failed to generate OTP: %w", err)
	}

	if err := s.redis.Set(ctx, otpKey(mobile), code, s.ttl); err != nil {
		return fmt.Errorf("failed to store OTP: %w", err)
	}
	_ = s.redis.Del(ctx, otpAttemptsKey(mobile))

	msg := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(s.ttl.Minutes()))
	if err := s.sender.SendSMS(ctx, mobile, msg); err != nil {
		return errors.NewOTPSendFailedError(err)
	}

	metrics.OTPIssuedTotal.Inc()
	s.logger.Info("otp issued", map[string]interface{}{"mobile": maskMobile(mobile)})
	return nil
}

// Verify checks the submitted code. The stored code is consumed on success
// and after the attempt budget is exhausted.
func (s *OTPService) Verify(ctx context.Context, mobile, code string) error {
	stored, err := s.redis.Get(ctx, otpKey(mobile))
	if err != nil {
		if err == redis.Nil {
			return errors.NewOTPExpiredError()
		}
		return fmt.Errorf("failed to load OTP: %w", err)
	}

	if stored != code {
		attempts, _ := s.redis.Incr(ctx, otpAttemptsKey(mobile))
		_ = s.redis.Expire(ctx, otpAttemptsKey(mobile), s.ttl)
		if int(attempts) >= s.maxAttempts {
			_ = s.redis.Del(ctx, otpKey(mobile), otpAttemptsKey(mobile))
		}
		return errors.NewOTPInvalidError()
	}

	_ = s.redis.Del(ctx, otpKey(mobile), otpAttemptsKey(mobile))
	return nil
}

func generateCode(length int) (string, error) {
	max := big.NewInt(10)
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = byte('0' + n.Int64())
	}
	return string(out), nil
}

func maskMobile(mobile string) string {
	if len(mobile) <= 4 {
		return "****"
	}
	return "******" + mobile[len(mobile)-4:]
}
