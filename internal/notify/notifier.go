// Package notify e-mails operators when a scheduled sync fails.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/straye-as/commission-api/internal/config"
	"github.com/straye-as/commission-api/internal/domain"
	"go.uber.org/zap"
)

// maxListedErrors caps how many per-job errors are written into one e-mail
const maxListedErrors = 50

// Notifier reports sync problems to operators
type Notifier interface {
	NotifySyncFailure(ctx context.Context, err error) error
	NotifySyncErrors(ctx context.Context, result *domain.SyncResult) error
}

// New returns an SMTP notifier, or a no-op one when notifications are disabled
func New(cfg *config.NotificationConfig, logger *zap.Logger) Notifier {
	if cfg == nil || !cfg.Enabled || cfg.SMTPHost == "" || len(cfg.To) == 0 {
		logger.Info("Sync notifications disabled")
		return NoopNotifier{}
	}
	return NewSMTPNotifier(cfg, logger)
}

// NoopNotifier drops every notification
type NoopNotifier struct{}

func (NoopNotifier) NotifySyncFailure(context.Context, error) error { return nil }

func (NoopNotifier) NotifySyncErrors(context.Context, *domain.SyncResult) error { return nil }

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier sends plain-text e-mails through an SMTP relay
type SMTPNotifier struct {
	cfg    config.NotificationConfig
	send   sendFunc
	logger *zap.Logger
}

// NewSMTPNotifier creates a notifier for the given relay
func NewSMTPNotifier(cfg *config.NotificationConfig, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{cfg: *cfg, send: smtp.SendMail, logger: logger}
}

// NotifySyncFailure reports a sync run that could not start or finish
func (n *SMTPNotifier) NotifySyncFailure(ctx context.Context, err error) error {
	body := fmt.Sprintf("The customer sync failed at %s:\n\n%v\n",
		time.Now().UTC().Format(time.RFC3339), err)
	return n.deliver(ctx, "Customer Sync Error Notification", body)
}

// NotifySyncErrors reports a run that finished with per-job errors
func (n *SMTPNotifier) NotifySyncErrors(ctx context.Context, result *domain.SyncResult) error {
	if result == nil || len(result.Errors) == 0 {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The customer sync processed %d customers with %d errors.\n\n",
		result.CustomersProcessed, len(result.Errors))
	for i, e := range result.Errors {
		if i == maxListedErrors {
			fmt.Fprintf(&b, "... and %d more\n", len(result.Errors)-maxListedErrors)
			break
		}
		b.WriteString(formatSyncError(e))
		b.WriteByte('\n')
	}

	return n.deliver(ctx, "Customer Sync Completed With Errors", b.String())
}

func formatSyncError(e domain.SyncError) string {
	parts := []string{"[" + string(e.Type) + "]"}
	if e.JobName != "" {
		parts = append(parts, "job="+e.JobName)
	}
	if e.Role != "" {
		parts = append(parts, "role="+string(e.Role))
	}
	if e.UserID != nil {
		parts = append(parts, fmt.Sprintf("user=%d", *e.UserID))
	}
	if e.CustomerID != nil {
		parts = append(parts, fmt.Sprintf("customer=%d", *e.CustomerID))
	}
	parts = append(parts, e.Message)
	return strings.Join(parts, " ")
}

func (n *SMTPNotifier) deliver(ctx context.Context, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.SMTPHost)
	}
	addr := fmt.Sprintf("%s:%d", n.cfg.SMTPHost, n.cfg.SMTPPort)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n%s",
		n.cfg.From, strings.Join(n.cfg.To, ", "), subject, strings.ReplaceAll(body, "\n", "\r\n"))

	if err := n.send(addr, auth, n.cfg.From, n.cfg.To, []byte(msg)); err != nil {
		n.logger.Error("Failed to send notification e-mail",
			zap.String("subject", subject),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send notification: %w", err)
	}

	n.logger.Info("Notification e-mail sent",
		zap.String("subject", subject),
		zap.Strings("to", n.cfg.To),
	)
	return nil
}
