// Package notify delivers account lifecycle emails.
package notify

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
	"time"

	"github.com/atinyakov/taskmanager/internal/models"
	"github.com/go-mail/mail/v2"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// sendAttempts is how many times a message is dialed before giving up.
const sendAttempts = 3

// Message is a single notification addressed to one user.
type Message struct {
	Kind models.NotificationKind
	To   string
	Name string
}

// Sender delivers a Message.
type Sender interface {
	Send(msg Message) error
}

type dialer interface {
	DialAndSend(m ...*mail.Message) error
}

// MailerConfig holds SMTP settings.
type MailerConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// Mailer renders notification templates and sends them over SMTP.
type Mailer struct {
	dialer dialer
	from   string
	tmpl   map[models.NotificationKind]*template.Template
	// retryDelay is waited between failed attempts.
	retryDelay time.Duration
}

// NewMailer creates a Mailer from cfg.
func NewMailer(cfg MailerConfig) (*Mailer, error) {
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	if cfg.Timeout > 0 {
		d.Timeout = cfg.Timeout
	}
	return newMailer(d, cfg.From)
}

func newMailer(d dialer, from string) (*Mailer, error) {
	tmpl := make(map[models.NotificationKind]*template.Template)
	for _, kind := range []models.NotificationKind{models.NotifyWelcome, models.NotifyAccountDeleted} {
		// each kind is parsed on its own since all of them define "subject" and "plainBody"
		t, err := template.ParseFS(templateFS, "templates/"+string(kind)+".tmpl")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", kind, err)
		}
		tmpl[kind] = t
	}
	return &Mailer{dialer: d, from: from, tmpl: tmpl, retryDelay: 500 * time.Millisecond}, nil
}

// Render returns the subject and plain-text body for msg.
func (m *Mailer) Render(msg Message) (string, string, error) {
	t, ok := m.tmpl[msg.Kind]
	if !ok {
		return "", "", fmt.Errorf("unknown notification kind %q", msg.Kind)
	}

	var subject, body bytes.Buffer
	if err := t.ExecuteTemplate(&subject, "subject", msg); err != nil {
		return "", "", err
	}
	if err := t.ExecuteTemplate(&body, "plainBody", msg); err != nil {
		return "", "", err
	}
	return subject.String(), body.String(), nil
}

// Send renders and delivers msg, retrying up to three times.
func (m *Mailer) Send(msg Message) error {
	subject, body, err := m.Render(msg)
	if err != nil {
		return err
	}

	em := mail.NewMessage()
	em.SetHeader("To", msg.To)
	em.SetHeader("From", m.from)
	em.SetHeader("Subject", subject)
	em.SetBody("text/plain", body)

	for i := 0; i < sendAttempts; i++ {
		if err = m.dialer.DialAndSend(em); err == nil {
			return nil
		}
		if i < sendAttempts-1 {
			time.Sleep(m.retryDelay)
		}
	}
	return fmt.Errorf("send %s to %s: %w", msg.Kind, msg.To, err)
}
