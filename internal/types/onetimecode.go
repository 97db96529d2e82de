package types

import (
  "time"
)

type OtpPurpose string

const (
  OtpPurposeChangePassword    OtpPurpose = "CHANGE_PASSWORD"
  OtpPurposeForgotPassword    OtpPurpose = "FORGOT_PASSWORD"
  OtpPurposeSignupComplete    OtpPurpose = "SIGNUP_COMPLETE"
  OtpPurposePasswordReset     OtpPurpose = "PASSWORD_RESET"
  OtpPurposeAccountValidation OtpPurpose = "ACCOUNT_VALIDATION"
)

func (p OtpPurpose) Valid() bool {
  switch p {
  case OtpPurposeChangePassword, OtpPurposeForgotPassword, OtpPurposeSignupComplete,
    OtpPurposePasswordReset, OtpPurposeAccountValidation:
    return true
  }
  return false
}

// Requestable reports whether clients may ask for a code with this purpose over HTTP.
func (p OtpPurpose) Requestable() bool {
  switch p {
  case OtpPurposeAccountValidation, OtpPurposeForgotPassword, OtpPurposeChangePassword:
    return true
  }
  return false
}

type OneTimePasscode struct {
  ID                  string                    `gorm:"type:varchar(36);primaryKey;column:id" json:"id"`
  UserID              string                    `gorm:"type:varchar(36);index;not null;column:user_id" json:"user_id"`
  User                *User                     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`

  Code                string                    `gorm:"type:varchar(16);uniqueIndex;not null;column:code" json:"code"`
  Token               string                    `gorm:"type:text;not null;column:token" json:"-"`
  Purpose             OtpPurpose                `gorm:"type:varchar(32);not null;column:otp_purpose" json:"otp_purpose"`

  CreatedAt           time.Time                 `gorm:"not null;autoCreateTime" json:"created_at"`
  UpdatedAt           time.Time                 `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (OneTimePasscode) TableName() string {
  return "otps"
}

// OtpChallenge is what the caller receives after a code is issued.
type OtpChallenge struct {
  Otp                 string                    `json:"otp"`
  Token               string                    `json:"token"`
}

type VerificationResult struct {
  UserID              string                    `json:"user_id"`
  Purpose             OtpPurpose                `json:"purpose"`
  User                *User                     `json:"user,omitempty"`
}
