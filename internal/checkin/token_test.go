package checkin

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-please-rotate"

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestGenerateVerifyRoundTrip(t *testing.T) {
	now := time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)
	svc := NewService(testSecret, "https://app.example.com", fixedClock(now))

	tok, err := svc.Generate("reg-123", 24*time.Hour, "evt-456")
	require.NoError(t, err)
	require.NotEmpty(t, tok.Value)
	assert.Equal(t, "reg-123", tok.RegistrationID)
	assert.Equal(t, now.Add(24*time.Hour), tok.ExpiresAt)

	claims, err := svc.Verify(tok.Value)
	require.NoError(t, err)
	assert.Equal(t, "reg-123", claims.RegistrationID)
	assert.Equal(t, "evt-456", claims.EventID)
	assert.Equal(t, now, claims.IssuedAt)
	assert.Equal(t, now.Add(24*time.Hour), claims.ExpiresAt)
}

func TestGenerateWithoutEventID(t *testing.T) {
	svc := NewService(testSecret, "https://app.example.com", nil)

	tok, err := svc.Generate("reg-123", 24*time.Hour, "")
	require.NoError(t, err)

	claims, err := svc.Verify(tok.Value)
	require.NoError(t, err)
	assert.Equal(t, "reg-123", claims.RegistrationID)
	assert.Empty(t, claims.EventID)
}

func TestGenerateRejectsInvalidArguments(t *testing.T) {
	svc := NewService(testSecret, "https://app.example.com", nil)

	tests := []struct {
		name           string
		registrationID string
		expiresIn      time.Duration
	}{
		{"empty registration id", "", time.Hour},
		{"zero expiry", "reg-123", 0},
		{"negative expiry", "reg-123", -time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Generate(tt.registrationID, tt.expiresIn, "")
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestVerifyExpiry(t *testing.T) {
	issued := time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)
	clock := issued
	svc := NewService(testSecret, "https://app.example.com", func() time.Time { return clock })

	tok, err := svc.Generate("reg-123", time.Hour, "")
	require.NoError(t, err)

	// Valid while now <= expires_at, inclusive at the boundary.
	clock = issued.Add(time.Hour)
	_, err = svc.Verify(tok.Value)
	assert.NoError(t, err)

	clock = issued.Add(time.Hour + time.Second)
	_, err = svc.Verify(tok.Value)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	svc := NewService(testSecret, "https://app.example.com", nil)
	tok, err := svc.Generate("reg-123", time.Hour, "evt-456")
	require.NoError(t, err)

	payload, sig, ok := strings.Cut(tok.Value, ".")
	require.True(t, ok)

	for i := 0; i < len(payload); i++ {
		mutated := flipByte(payload, i) + "." + sig
		if mutated == tok.Value {
			continue
		}
		_, err := svc.Verify(mutated)
		assert.Errorf(t, err, "payload byte %d flipped", i)
	}
	for i := 0; i < len(sig); i++ {
		mutated := payload + "." + flipByte(sig, i)
		if mutated == tok.Value {
			continue
		}
		_, err := svc.Verify(mutated)
		assert.Errorf(t, err, "signature byte %d flipped", i)
	}
}

func TestVerifyRejectsRotatedSecret(t *testing.T) {
	svcA := NewService("secret-a", "https://app.example.com", nil)
	svcB := NewService("secret-b", "https://app.example.com", nil)

	tok, err := svcA.Generate("reg-123", time.Hour, "")
	require.NoError(t, err)

	_, err = svcB.Verify(tok.Value)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyRejectsMalformedTokens(t *testing.T) {
	svc := NewService(testSecret, "https://app.example.com", nil)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"no separator", "abcdef"},
		{"empty payload", ".sig"},
		{"empty signature", "payload."},
		{"garbage", "!!!.???"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Verify(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestCheckInURL(t *testing.T) {
	svc := NewService(testSecret, "https://app.example.com/", nil)
	assert.Equal(t, "https://app.example.com/check-in/abc.def", svc.CheckInURL("abc.def"))
}

// flipByte replaces the byte at index i with a different URL-safe character.
func flipByte(s string, i int) string {
	b := []byte(s)
	if b[i] == 'A' {
		b[i] = 'B'
	} else {
		b[i] = 'A'
	}
	return string(b)
}
