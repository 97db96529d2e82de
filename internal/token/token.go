package token

import (
  "errors"
  "fmt"
  "time"

  "github.com/golang-jwt/jwt/v5"
  "github.com/google/uuid"
)

const (
  UseAccess = "access"
  UseOtp    = "otp"
)

var ErrInvalidToken = errors.New("invalid or expired token")

type Claims struct {
  jwt.RegisteredClaims
  Use   string `json:"use"`
  Code  string `json:"token,omitempty"`
}

type Manager struct {
  secret    []byte
  accessTTL time.Duration
  otpTTL    time.Duration
  now       func() time.Time
}

func NewManager(secret string, accessTTL, otpTTL time.Duration) *Manager {
  return &Manager{
    secret:    []byte(secret),
    accessTTL: accessTTL,
    otpTTL:    otpTTL,
    now:       time.Now,
  }
}

// IssueAccessToken signs a bearer token for userID. Every call yields a distinct token.
func (m *Manager) IssueAccessToken(userID string) (string, error) {
  return m.sign(userID, UseAccess, "", m.accessTTL)
}

// IssueOtpToken binds userID and code into a signed token.
func (m *Manager) IssueOtpToken(userID, code string) (string, error) {
  return m.sign(userID, UseOtp, code, m.otpTTL)
}

func (m *Manager) sign(subject, use, code string, ttl time.Duration) (string, error) {
  now := m.now()
  claims := Claims{
    RegisteredClaims: jwt.RegisteredClaims{
      ID:        uuid.NewString(),
      Subject:   subject,
      IssuedAt:  jwt.NewNumericDate(now),
      ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
    },
    Use:  use,
    Code: code,
  }
  signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
  if err != nil {
    return "", fmt.Errorf("signing %s token: %w", use, err)
  }
  return signed, nil
}

// Verify checks signature, expiry and intended use.
func (m *Manager) Verify(tokenString, use string) (*Claims, error) {
  claims := &Claims{}
  parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
    return m.secret, nil
  }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
  if err != nil {
    return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
  }
  if !parsed.Valid || claims.Use != use || claims.Subject == "" {
    return nil, ErrInvalidToken
  }
  return claims, nil
}
