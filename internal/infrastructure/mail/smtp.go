// Package mail delivers task reminders over SMTP.
package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/leadbook/crm-system/internal/core/domain"
)

const defaultTimeout = 30 * time.Second

// Config captures the SMTP relay settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTPMailer implements ports.Mailer. Every send opens its own connection.
type SMTPMailer struct {
	cfg Config
	now func() time.Time
}

func NewSMTPMailer(cfg Config) *SMTPMailer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &SMTPMailer{cfg: cfg, now: time.Now}
}

var reminderTemplate = template.Must(template.New("reminder").Parse(`<h2>Reminder for Task: {{.TaskTitle}}</h2>
<p><strong>Due Time:</strong> {{.Due}}</p>
{{- if .LeadName}}
<p><strong>Lead Name:</strong> {{.LeadName}}</p>
{{- end}}
{{- if .ProductName}}
<p><strong>Product:</strong> {{.ProductName}}</p>
{{- end}}
<p><strong>Description:</strong> {{.Description}}</p>
<p>Please make sure to complete the task before the due time.</p>
<p>Thank you!</p>
`))

type reminderView struct {
	TaskTitle   string
	Due         string
	LeadName    string
	ProductName string
	Description string
}

// Compose renders msg as a single-part HTML message.
func (m *SMTPMailer) Compose(msg domain.ReminderMessage) ([]byte, error) {
	view := reminderView{
		TaskTitle:   msg.TaskTitle,
		Due:         msg.DueAt.Format("Mon, 02 Jan 2006 15:04 MST"),
		Description: msg.Description,
	}
	if msg.LeadName != domain.NotAssigned {
		view.LeadName = msg.LeadName
	}
	if msg.ProductName != domain.NotAssigned {
		view.ProductName = msg.ProductName
	}

	var body bytes.Buffer
	if err := reminderTemplate.Execute(&body, view); err != nil {
		return nil, fmt.Errorf("render reminder: %w", err)
	}

	var h mail.Header
	h.SetDate(m.now())
	h.SetAddressList("From", []*mail.Address{{Address: m.cfg.From}})
	h.SetAddressList("To", []*mail.Address{{Address: msg.To}})
	h.SetSubject(msg.Subject())
	h.SetContentType("text/html", map[string]string{"charset": "utf-8"})
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("message id: %w", err)
	}

	var out bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&out, h)
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	if _, err := w.Write(body.Bytes()); err != nil {
		return nil, fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close message: %w", err)
	}
	return out.Bytes(), nil
}

// Send delivers msg. The whole SMTP session is bounded by the configured
// timeout and aborted when ctx is done.
func (m *SMTPMailer) Send(ctx context.Context, msg domain.ReminderMessage) error {
	raw, err := m.Compose(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	// unblock in-flight reads and writes on cancellation
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
			return fmt.Errorf("SMTP STARTTLS: %w", err)
		}
	}

	if m.cfg.Username != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP auth: %w", err)
		}
	}

	if err := client.Mail(m.cfg.From); err != nil {
		return fmt.Errorf("SMTP MAIL FROM: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("SMTP RCPT TO: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("SMTP DATA: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("writing email body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing email body: %w", err)
	}

	return client.Quit()
}
