package services

import (
  "context"
  "fmt"
  "strings"

  "github.com/ninthgrid/ninthgrid-backend/internal/logger"
  "github.com/ninthgrid/ninthgrid-backend/internal/templates"
  "github.com/ninthgrid/ninthgrid-backend/internal/types"
)

// OtpNotifier delivers an issued code out of band. Delivery is best-effort.
type OtpNotifier interface {
  NotifyOtp(ctx context.Context, user *types.User, purpose types.OtpPurpose, code string)
}

type otpNotifier struct {
  log   *logger.Logger
  email EmailService
  text  TextService
}

// NewOtpNotifier returns nil when no channel is configured.
func NewOtpNotifier(log *logger.Logger, email EmailService, text TextService) OtpNotifier {
  if email == nil && text == nil {
    return nil
  }
  return &otpNotifier{log: log.With("service", "OtpNotifier"), email: email, text: text}
}

func (n *otpNotifier) NotifyOtp(ctx context.Context, user *types.User, purpose types.OtpPurpose, code string) {
  subject, body := otpMessage(purpose, code)
  if n.email != nil && user.Email != "" {
    html, err := templates.RenderVerificationHTML(templates.VerificationEmailData{
      RecipientName: user.FirstName,
      Code:          code,
      Action:        purposeAction(purpose),
    })
    if err != nil {
      n.log.Warn("Verification email template failed, sending plain text", "error", err)
      html = fmt.Sprintf("<p>%s</p>", body)
    }
    if err := n.email.SendEmail(ctx, user.Email, subject, body, html); err != nil {
      n.log.Warn("Verification email not delivered", "userID", user.ID, "error", err)
    }
  }
  if n.text != nil && user.PhoneNumber != nil {
    if err := n.text.SendText(ctx, *user.PhoneNumber, body); err != nil {
      n.log.Warn("Verification text not delivered", "userID", user.ID, "error", err)
    }
  }
}

func purposeAction(purpose types.OtpPurpose) string {
  return strings.ToLower(strings.ReplaceAll(string(purpose), "_", " "))
}

func otpMessage(purpose types.OtpPurpose, code string) (string, string) {
  action := purposeAction(purpose)
  subject := "Your Ninthgrid verification code"
  body := fmt.Sprintf("Your verification code for %s is %s.", action, code)
  return subject, body
}
