package notification

import (
	"context"
	"fmt"

	"github.com/Posteriot/makalah-app-sub005/internal/config"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Sender delivers a composed message. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpNotifier struct {
	sender   Sender
	from     string
	fromName string
	appURL   string
	logger   *zap.Logger
}

// NewSMTPNotifier creates a Notifier that sends through the configured SMTP relay.
func NewSMTPNotifier(cfg *config.EmailConfig, appURL string, logger *zap.Logger) Notifier {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password)
	return NewNotifierWithSender(dialer, cfg.FromAddress, cfg.FromName, appURL, logger)
}

// NewNotifierWithSender creates a Notifier over an arbitrary Sender.
func NewNotifierWithSender(sender Sender, from, fromName, appURL string, logger *zap.Logger) Notifier {
	if from == "" {
		from = "noreply@makalah.ai"
	}
	if fromName == "" {
		fromName = "Makalah AI"
	}
	if appURL == "" {
		appURL = "https://makalah.ai"
	}
	return &smtpNotifier{
		sender:   sender,
		from:     from,
		fromName: fromName,
		appURL:   appURL,
		logger:   logger,
	}
}

func (n *smtpNotifier) SendPaymentSuccess(ctx context.Context, email PaymentSuccessEmail) error {
	body, err := RenderPaymentSuccess(email, n.appURL)
	if err != nil {
		return fmt.Errorf("failed to render payment success email: %w", err)
	}
	if err := n.send(ctx, email.To, SubjectPaymentSuccess, body); err != nil {
		return err
	}

	n.logger.Info("Payment success email sent",
		zap.String("to", email.To),
		zap.String("transaction_id", email.TransactionID))
	return nil
}

func (n *smtpNotifier) SendPaymentFailed(ctx context.Context, email PaymentFailedEmail) error {
	body, err := RenderPaymentFailed(email, n.appURL)
	if err != nil {
		return fmt.Errorf("failed to render payment failed email: %w", err)
	}
	if err := n.send(ctx, email.To, SubjectPaymentFailed, body); err != nil {
		return err
	}

	n.logger.Info("Payment failed email sent",
		zap.String("to", email.To),
		zap.String("transaction_id", email.TransactionID))
	return nil
}

func (n *smtpNotifier) send(ctx context.Context, to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(n.from, n.fromName))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	// gomail has no context support; run the dial so a cancelled ctx returns early.
	done := make(chan error, 1)
	go func() {
		done <- n.sender.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
