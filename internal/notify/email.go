package notify

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/SharanBarfa/ERM-server/internal/domain"
)

// EmailConfig holds SMTP connection details.
type EmailConfig struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
	// To is the inbox that receives notifications.
	To string
}

// EmailNotifier mails a plain-text summary of each activity.
type EmailNotifier struct {
	cfg EmailConfig
}

func NewEmailNotifier(cfg EmailConfig) *EmailNotifier {
	return &EmailNotifier{cfg: cfg}
}

func (n *EmailNotifier) Name() string { return "email" }

func (n *EmailNotifier) Notify(ctx context.Context, a *domain.Activity) error {
	ctx, span := otel.Tracer("notify").Start(ctx, "notify.email")
	defer span.End()

	if n.cfg.To == "" {
		err := errors.New("email notifier has no recipient configured")
		span.RecordError(err)
		span.SetStatus(codes.Error, "missing recipient")
		return err
	}
	span.SetAttributes(
		attribute.String("email.to", n.cfg.To),
		attribute.String("activity.type", string(a.Type)),
	)

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	msg := buildMIME(n.cfg.From, n.cfg.To, a.Subject, emailBody(a))

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	// SendMail does not take a context; race it against ctx.
	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, n.cfg.From, []string{n.cfg.To}, msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "smtp send failed")
			return fmt.Errorf("smtp send to %s: %w", n.cfg.To, err)
		}
		return nil
	case <-ctx.Done():
		err := fmt.Errorf("email send cancelled: %w", ctx.Err())
		span.RecordError(err)
		span.SetStatus(codes.Error, "timeout")
		return err
	}
}

func emailBody(a *domain.Activity) string {
	var b strings.Builder
	b.WriteString(a.Description)
	b.WriteString("\r\n\r\n")
	keys := make([]string, 0, len(a.Metadata))
	for k := range a.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %v\r\n", k, a.Metadata[k])
	}
	fmt.Fprintf(&b, "\r\n%s %s, %s\r\n", a.RelatedTo.Model, a.RelatedTo.ID, a.CreatedAt.Format("2006-01-02 15:04 MST"))
	return b.String()
}

func buildMIME(from, to, subject, body string) []byte {
	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		from, to, subject, body,
	)
	return []byte(msg)
}
