package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"net/url"
	"time"

	"github.com/Dosada05/gamejam/config"
)

// Notifier delivers redemption links. Implementations may block; services
// call it through AsyncNotifier so delivery never holds up a request.
type Notifier interface {
	SendPasswordReset(ctx context.Context, to, link string) error
	SendActivation(ctx context.Context, to, link string) error
}

//go:embed templates/*.html
var emailTemplates embed.FS

var templates = template.Must(template.ParseFS(emailTemplates, "templates/*.html"))

type emailData struct {
	Email    string
	Link     string
	ValidFor string
}

func renderEmail(name string, data emailData) (string, error) {
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, name, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return body.String(), nil
}

func NewNotifier(cfg *config.Config, logger *slog.Logger) Notifier {
	if cfg.MailMode == config.MailModeSMTP {
		return NewSMTPMailer(cfg)
	}
	return NewLogMailer(logger)
}

type smtpMailer struct {
	host     string
	port     int
	user     string
	pass     string
	from     string
	validFor time.Duration
}

func NewSMTPMailer(cfg *config.Config) Notifier {
	return &smtpMailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		user:     cfg.SMTPUser,
		pass:     cfg.SMTPPass,
		from:     cfg.SMTPFrom,
		validFor: cfg.ResetTokenTTL,
	}
}

func (m *smtpMailer) SendPasswordReset(ctx context.Context, to, link string) error {
	body, err := renderEmail("password_reset.html", emailData{Email: to, Link: link, ValidFor: m.validFor.String()})
	if err != nil {
		return err
	}
	return m.send(ctx, to, "Reset your game jam password", body)
}

func (m *smtpMailer) SendActivation(ctx context.Context, to, link string) error {
	body, err := renderEmail("activation.html", emailData{Email: to, Link: link, ValidFor: m.validFor.String()})
	if err != nil {
		return err
	}
	return m.send(ctx, to, "Activate your game jam account", body)
}

func (m *smtpMailer) send(ctx context.Context, to, subject, body string) error {
	msg := []byte("To: " + to + "\r\n" +
		"From: " + m.from + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	tlsConfig := &tls.Config{ServerName: m.host}

	var client *smtp.Client
	if m.port == 465 {
		dialer := &tls.Dialer{Config: tlsConfig}
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return fmt.Errorf("smtp tls dial: %w", err)
		}
		client, err = smtp.NewClient(conn, m.host)
		if err != nil {
			conn.Close()
			return fmt.Errorf("smtp client: %w", err)
		}
	} else {
		c, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("smtp dial: %w", err)
		}
		client = c
		if err = client.StartTLS(tlsConfig); err != nil {
			client.Close()
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	defer client.Quit()

	if m.user != "" {
		if err := client.Auth(smtp.PlainAuth("", m.user, m.pass, m.host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := client.Mail(m.from); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp RCPT TO: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("smtp close data: %w", err)
	}
	return nil
}

// logMailer writes deliveries to the log instead of sending mail. The token
// query parameter is redacted at info level and only shown at debug.
type logMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) Notifier {
	return &logMailer{logger: loggerOrDefault(logger)}
}

func (m *logMailer) SendPasswordReset(ctx context.Context, to, link string) error {
	m.log(ctx, "password reset", to, link)
	return nil
}

func (m *logMailer) SendActivation(ctx context.Context, to, link string) error {
	m.log(ctx, "account activation", to, link)
	return nil
}

func (m *logMailer) log(ctx context.Context, kind, to, link string) {
	m.logger.InfoContext(ctx, "mail delivery skipped", slog.String("kind", kind), slog.String("to", to), slog.String("link", redactToken(link)))
	m.logger.DebugContext(ctx, "mail link", slog.String("to", to), slog.String("link", link))
}

func redactToken(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return "[unparseable link]"
	}
	q := u.Query()
	if q.Has("token") {
		q.Set("token", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// AsyncNotifier hands each delivery to its own goroutine with a detached
// timeout context. Errors are logged and never returned.
type AsyncNotifier struct {
	next    Notifier
	timeout time.Duration
	logger  *slog.Logger
}

func NewAsyncNotifier(next Notifier, timeout time.Duration, logger *slog.Logger) *AsyncNotifier {
	return &AsyncNotifier{next: next, timeout: timeout, logger: loggerOrDefault(logger)}
}

func (n *AsyncNotifier) SendPasswordReset(ctx context.Context, to, link string) error {
	n.dispatch(ctx, "password_reset", to, func(ctx context.Context) error {
		return n.next.SendPasswordReset(ctx, to, link)
	})
	return nil
}

func (n *AsyncNotifier) SendActivation(ctx context.Context, to, link string) error {
	n.dispatch(ctx, "activation", to, func(ctx context.Context) error {
		return n.next.SendActivation(ctx, to, link)
	})
	return nil
}

func (n *AsyncNotifier) dispatch(parent context.Context, kind, to string, send func(context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), n.timeout)
		defer cancel()
		defer func() {
			if p := recover(); p != nil {
				n.logger.Error("notifier panicked", slog.String("kind", kind), slog.Any("panic", p))
			}
		}()
		if err := send(ctx); err != nil {
			n.logger.ErrorContext(ctx, "notification delivery failed",
				slog.String("kind", kind), slog.String("to", to), slog.String("error", err.Error()))
		}
	}()
}
