package services

import (
  "context"
  "fmt"

  "github.com/sendgrid/sendgrid-go"
  "github.com/sendgrid/sendgrid-go/helpers/mail"

  "github.com/ninthgrid/ninthgrid-backend/internal/config"
  "github.com/ninthgrid/ninthgrid-backend/internal/logger"
)

type EmailService interface {
  SendEmail(ctx context.Context, toEmail string, subject string, plainText string, htmlContent string) error
}

type emailService struct {
  log        *logger.Logger
  client     *sendgrid.Client
  fromEmail  string
  fromName   string
}

func NewEmailService(log *logger.Logger, cfg config.SendGridConfig) (EmailService, error) {
  serviceLog := log.With("service", "EmailService")
  if cfg.APIKey == "" {
    return nil, fmt.Errorf("Missing SENDGRID_API_KEY environment variable")
  }
  if cfg.FromEmail == "" {
    serviceLog.Warn("SENDGRID_FROM_EMAIL not set; using fallback no-reply@ninthgrid.io")
    cfg.FromEmail = "no-reply@ninthgrid.io"
  }
  return &emailService{
    log:       serviceLog,
    client:    sendgrid.NewSendClient(cfg.APIKey),
    fromEmail: cfg.FromEmail,
    fromName:  cfg.FromName,
  }, nil
}

func (es *emailService) SendEmail(ctx context.Context, toEmail string, subject string, plainText string, htmlContent string) error {
  from := mail.NewEmail(es.fromName, es.fromEmail)
  to := mail.NewEmail("", toEmail)
  message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
  response, err := es.client.SendWithContext(ctx, message)
  if err != nil {
    es.log.Warn("Sendgrid email send failed", "error", err)
    return err
  }
  if response.StatusCode >= 300 {
    es.log.Warn("Sendgrid rejected email", "statusCode", response.StatusCode, "body", response.Body)
    return fmt.Errorf("sendgrid returned status %d", response.StatusCode)
  }
  es.log.Info("Email sent", "to", toEmail, "statusCode", response.StatusCode)
  return nil
}
