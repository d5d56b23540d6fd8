package services

import (
	"context"
	"fmt"
	"time"

	"github.com/KOLIFAST/backend/pkg/cache"
	"github.com/KOLIFAST/backend/pkg/logger"
)

const (
	otpKeyPrefix = "otp_"
	otpTTL       = 10 * time.Minute
)

// CacheService is the redis-backed cache used for hot reads, OTP codes and
// simple counters.
type CacheService interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	Increment(ctx context.Context, key string) (int64, error)

	// OTP lifecycle
	StoreOTP(ctx context.Context, phone, code string) error
	GetOTP(ctx context.Context, phone string) (string, error)
	InvalidateOTP(ctx context.Context, phone string) error
}

type cacheService struct {
	redis  *cache.RedisCache
	logger *logger.Logger
}

func NewCacheService(redis *cache.RedisCache, logger *logger.Logger) CacheService {
	return &cacheService{
		redis:  redis,
		logger: logger,
	}
}

func (s *cacheService) Get(ctx context.Context, key string, dest interface{}) error {
	return s.redis.Get(ctx, key, dest)
}

func (s *cacheService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if err := s.redis.Set(ctx, key, value, expiration); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Cache set failed")
		return err
	}
	return nil
}

func (s *cacheService) Delete(ctx context.Context, keys ...string) error {
	return s.redis.Delete(ctx, keys...)
}

func (s *cacheService) Exists(ctx context.Context, key string) (bool, error) {
	return s.redis.Exists(ctx, key)
}

func (s *cacheService) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return s.redis.SetNX(ctx, key, value, expiration)
}

func (s *cacheService) Increment(ctx context.Context, key string) (int64, error) {
	return s.redis.Increment(ctx, key)
}

func (s *cacheService) StoreOTP(ctx context.Context, phone, code string) error {
	return s.redis.Set(ctx, otpKeyPrefix+phone, code, otpTTL)
}

func (s *cacheService) GetOTP(ctx context.Context, phone string) (string, error) {
	var code string
	if err := s.redis.Get(ctx, otpKeyPrefix+phone, &code); err != nil {
		return "", fmt.Errorf("otp for %s not found: %w", phone, err)
	}
	return code, nil
}

func (s *cacheService) InvalidateOTP(ctx context.Context, phone string) error {
	return s.redis.Delete(ctx, otpKeyPrefix+phone)
}
