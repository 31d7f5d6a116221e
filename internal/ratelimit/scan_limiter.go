package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/guardline/guardline/internal/config"
)

const keyScanUser = "scan:user:%s"

// ScanLimiter throttles QR token scan attempts per user to slow down
// token guessing. When redis is not configured the limiter is disabled
// and every attempt is allowed.
type ScanLimiter struct {
	enabled bool

	bucket *TokenBucket
	log    *zap.Logger

	rate  float64
	burst int
}

func NewScanLimiter(cfg config.Config, log *zap.Logger) *ScanLimiter {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" || cfg.ScanRate <= 0 || cfg.ScanBurst <= 0 {
		return &ScanLimiter{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})

	return &ScanLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		log:     log.Named("ratelimit.scan"),
		rate:    cfg.ScanRate,
		burst:   cfg.ScanBurst,
	}
}

func (l *ScanLimiter) Enabled() bool {
	return l != nil && l.enabled
}

// Allow reports whether the user may attempt another scan. Redis
// failures are logged and treated as allowed so the limiter never
// blocks legitimate traffic on an outage.
func (l *ScanLimiter) Allow(ctx context.Context, userID string) bool {
	if !l.Enabled() {
		return true
	}

	ok, err := l.bucket.Allow(ctx, fmt.Sprintf(keyScanUser, strings.TrimSpace(userID)), l.rate, l.burst)
	if err != nil {
		l.log.Warn("scan rate limit check failed", zap.Error(err))
		return true
	}
	return ok
}
