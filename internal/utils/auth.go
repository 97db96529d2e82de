package utils

import (
  "fmt"
  "strings"

  "golang.org/x/crypto/bcrypt"

  "github.com/ninthgrid/ninthgrid-backend/internal/logger"
)

func HashPassword(password string, log *logger.Logger) (string, error) {
  hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
  if err != nil {
    if log != nil {
      log.Warn("Failed to hash password", "error", err)
    }
    return "", fmt.Errorf("hashing password: %w", err)
  }
  return string(hashed), nil
}

func CheckPassword(hash, password string) bool {
  return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
  return strings.ToLower(strings.TrimSpace(email))
}

func NormalizeName(name string) string {
  return strings.ToLower(strings.TrimSpace(name))
}

// NormalizePhone trims the number and returns nil when nothing is left.
func NormalizePhone(phone *string) *string {
  if phone == nil {
    return nil
  }
  trimmed := strings.TrimSpace(*phone)
  if trimmed == "" {
    return nil
  }
  return &trimmed
}
