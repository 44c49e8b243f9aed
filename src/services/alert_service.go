// backend/src/services/alert_service.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/username/freightpay/backend/src/config"
	"github.com/username/freightpay/backend/src/logger"
	"github.com/username/freightpay/backend/src/models"
)

type BalanceAlertService interface {
	SendLowBalanceAlert(account *models.Account) error
}

func NewAlertService() BalanceAlertService {
	if config.Cfg == nil {
		slog.Error("Configuration (config.Cfg) is nil. Alert service will default to mock.")
		return &MockAlertService{}
	}

	provider := strings.ToLower(config.Cfg.AlertServiceProvider)
	logger.L.Info("Initializing balance alert service", "provider", provider)

	switch provider {
	case "mailgun":
		if config.Cfg.MailgunDomain == "" || config.Cfg.MailgunPrivateAPIKey == "" || config.Cfg.SenderEmail == "" {
			logger.L.Warn("Mailgun configuration incomplete (Domain, API Key, or SenderEmail missing). Falling back to MockAlertService.")
			return &MockAlertService{}
		}
		mg := mailgun.NewMailgun(config.Cfg.MailgunDomain, config.Cfg.MailgunPrivateAPIKey)
		logger.L.Info("Mailgun client initialized", "domain", config.Cfg.MailgunDomain)
		return &MailgunAlertService{
			mg:                mg,
			senderEmail:       config.Cfg.SenderEmail,
			senderName:        config.Cfg.SenderName,
			financeAlertEmail: config.Cfg.FinanceAlertEmail,
		}
	case "smtp":
		if config.Cfg.SMTPServer == "" || config.Cfg.SMTPUser == "" || config.Cfg.SMTPPassword == "" || config.Cfg.SenderEmail == "" {
			logger.L.Warn("SMTP configuration incomplete. Falling back to MockAlertService.")
			return &MockAlertService{}
		}
		return &SMTPAlertService{
			SMTPServer:        config.Cfg.SMTPServer,
			SMTPPort:          config.Cfg.SMTPPort,
			SMTPUser:          config.Cfg.SMTPUser,
			SMTPPassword:      config.Cfg.SMTPPassword,
			SenderEmail:       config.Cfg.SenderEmail,
			FinanceAlertEmail: config.Cfg.FinanceAlertEmail,
		}
	default:
		logger.L.Info("Defaulting to MockAlertService.")
		return &MockAlertService{}
	}
}

func lowBalanceSubject(account *models.Account) string {
	return fmt.Sprintf("Low balance warning for account %s", account.CompanyAccountID)
}

func lowBalanceBody(account *models.Account) string {
	return fmt.Sprintf(`Prepaid account %s (company %s) has dropped below its warning threshold.

    Current balance:   %d
    Warning threshold: %d
    Contact phone:     %s

Please arrange a recharge to avoid blocked settlements.`,
		account.CompanyAccountID, account.CompanyID, account.Balance, account.WarningVal, account.WarningPhone)
}

type SMTPAlertService struct {
	SMTPServer        string
	SMTPPort          int
	SMTPUser          string
	SMTPPassword      string
	SenderEmail       string
	FinanceAlertEmail string
}

func (s *SMTPAlertService) SendLowBalanceAlert(account *models.Account) error {
	if s.FinanceAlertEmail == "" {
		logger.L.Warn("No finance alert recipient configured, skipping low balance alert", "companyAccountID", account.CompanyAccountID)
		return nil
	}
	from := s.SenderEmail
	to := []string{s.FinanceAlertEmail}
	subject := lowBalanceSubject(account)
	body := lowBalanceBody(account)

	header := make(map[string]string)
	header["From"] = from
	header["To"] = s.FinanceAlertEmail
	header["Subject"] = subject
	header["MIME-version"] = "1.0"
	header["Content-Type"] = "text/plain; charset=\"UTF-8\""
	message := ""
	for k, v := range header {
		message += fmt.Sprintf("%s: %s\r\n", k, v)
	}
	message += "\r\n" + body
	auth := smtp.PlainAuth("", s.SMTPUser, s.SMTPPassword, s.SMTPServer)
	addr := fmt.Sprintf("%s:%d", s.SMTPServer, s.SMTPPort)
	err := smtp.SendMail(addr, auth, from, to, []byte(message))
	if err != nil {
		logger.L.Error("Failed to send low balance alert via SMTP", "error", err, "companyAccountID", account.CompanyAccountID)
		return fmt.Errorf("failed to send low balance alert via SMTP: %w", err)
	}
	logger.L.Info("Low balance alert sent successfully via SMTP", "companyAccountID", account.CompanyAccountID, "balance", account.Balance)
	return nil
}

type MailgunAlertService struct {
	mg                mailgun.Mailgun
	senderEmail       string
	senderName        string
	financeAlertEmail string
}

func (s *MailgunAlertService) SendLowBalanceAlert(account *models.Account) error {
	if s.financeAlertEmail == "" {
		logger.L.Warn("No finance alert recipient configured, skipping low balance alert", "companyAccountID", account.CompanyAccountID)
		return nil
	}
	from := fmt.Sprintf("%s <%s>", s.senderName, s.senderEmail)
	subject := lowBalanceSubject(account)
	plainTextBody := lowBalanceBody(account)

	message := s.mg.NewMessage(from, subject, plainTextBody, s.financeAlertEmail)
	message.AddTag("low-balance")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*20)
	defer cancel()

	resp, id, err := s.mg.Send(ctx, message)
	if err != nil {
		logger.L.Error("Failed to send low balance alert via Mailgun", "error", err, "companyAccountID", account.CompanyAccountID, "mailgunResp", resp, "mailgunId", id)
		return fmt.Errorf("mailgun send failed for low balance alert: %w. Response: %s", err, resp)
	}
	logger.L.Info("Low balance alert sent successfully via Mailgun", "companyAccountID", account.CompanyAccountID, "id", id, "mailgunResp", resp)
	return nil
}

type MockAlertService struct{}

func (m *MockAlertService) SendLowBalanceAlert(account *models.Account) error {
	logger.L.Info("MockAlertService: Would send low balance alert.",
		"companyAccountID", account.CompanyAccountID,
		"balance", account.Balance,
		"warningVal", account.WarningVal)
	return nil
}
