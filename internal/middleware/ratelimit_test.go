package middleware

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRateLimitKey(t *testing.T) {
	id := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	day := time.Date(2026, 6, 15, 9, 30, 0, 0, time.UTC)

	key := RateLimitKey("qr_generate", id, day)
	assert.Equal(t, "ratelimit:qr_generate:11111111-2222-3333-4444-555555555555:2026-06-15", key)
}

func TestRateLimitKeyUsesUTCDay(t *testing.T) {
	id := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	// 23:30 in UTC-5 is already the next day in UTC.
	loc := time.FixedZone("UTC-5", -5*3600)
	day := time.Date(2026, 6, 14, 23, 30, 0, 0, loc)

	key := RateLimitKey("qr_generate", id, day)
	assert.Equal(t, "ratelimit:qr_generate:11111111-2222-3333-4444-555555555555:2026-06-15", key)
}
