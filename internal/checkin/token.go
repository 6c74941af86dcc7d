// Package checkin issues and verifies signed QR check-in tokens. A token is
// valid purely as a function of its own bytes, the signing secret and the
// clock; no database lookup happens at verification time.
package checkin

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrMalformedToken   = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrExpired          = errors.New("token expired")
)

// Claims is the payload bound into a check-in token. EventID is optional and
// narrows the token to a single event.
type Claims struct {
	RegistrationID string    `json:"registration_id"`
	EventID        string    `json:"event_id,omitempty"`
	IssuedAt       time.Time `json:"issued_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// Token is a freshly generated credential plus display fields for the caller.
type Token struct {
	Value          string    `json:"qr_token"`
	RegistrationID string    `json:"registration_id"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// Service signs and verifies check-in tokens. The clock is injectable so
// expiry behaviour is testable with a fixed time.
type Service struct {
	secret  []byte
	baseURL string
	now     func() time.Time
}

// NewService creates a token service. If now is nil, time.Now is used.
func NewService(secret, baseURL string, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{secret: []byte(secret), baseURL: strings.TrimRight(baseURL, "/"), now: now}
}

// Generate creates a signed token for a registration, valid for expiresIn
// from now. eventID may be empty.
func (s *Service) Generate(registrationID string, expiresIn time.Duration, eventID string) (*Token, error) {
	if registrationID == "" {
		return nil, ErrInvalidArgument
	}
	if expiresIn <= 0 {
		return nil, ErrInvalidArgument
	}
	now := s.now().UTC().Truncate(time.Second)
	claims := Claims{
		RegistrationID: registrationID,
		EventID:        eventID,
		IssuedAt:       now,
		ExpiresAt:      now.Add(expiresIn),
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		return nil, err
	}
	encoded := base64.RawURLEncoding.EncodeToString(payload)
	sig := s.sign(encoded)
	return &Token{
		Value:          encoded + "." + sig,
		RegistrationID: registrationID,
		ExpiresAt:      claims.ExpiresAt,
	}, nil
}

// Verify checks a token's shape, signature and expiry, returning its claims.
// A token is valid while now <= expires_at (boundary inclusive). All failures
// are terminal for the attempt; callers collapse them into one external
// "invalid token" outcome.
func (s *Service) Verify(token string) (*Claims, error) {
	encoded, sig, ok := strings.Cut(token, ".")
	if !ok || encoded == "" || sig == "" {
		return nil, ErrMalformedToken
	}
	expected := s.sign(encoded)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return nil, ErrInvalidSignature
	}
	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrMalformedToken
	}
	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, ErrMalformedToken
	}
	if claims.RegistrationID == "" {
		return nil, ErrMalformedToken
	}
	if s.now().After(claims.ExpiresAt) {
		return nil, ErrExpired
	}
	return &claims, nil
}

// CheckInURL returns the scannable URL for a token.
func (s *Service) CheckInURL(token string) string {
	return s.baseURL + "/check-in/" + token
}

func (s *Service) sign(encodedPayload string) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(encodedPayload))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
