package notifications

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"time"

	"evently-booking/internal/shared/config"
	"evently-booking/pkg/logger"
)

// Mailer delivers one email job.
type Mailer interface {
	Send(ctx context.Context, job *EmailJob) error
}

// Bodies are intentionally plain; rendering happens per job type with
// the flat EmailJob as the template context.
const emailTemplates = `
{{define "booking_confirmation"}}
<html><body>
<h2>Booking confirmed</h2>
<p>Your booking <strong>{{.Reference}}</strong> for event {{.EventID}} is confirmed.</p>
<p>{{.Quantity}} ticket(s), {{printf "%.2f" .TotalAmount}} {{.Currency}}.</p>
</body></html>
{{end}}

{{define "booking_cancellation"}}
<html><body>
<h2>Booking cancelled</h2>
<p>Your booking <strong>{{.Reference}}</strong> for event {{.EventID}} has been cancelled.</p>
<p>{{.Quantity}} ticket(s) were released.</p>
</body></html>
{{end}}

{{define "waitlist_joined"}}
<html><body>
<h2>You're on the waitlist</h2>
<p>We added you to the waitlist for event {{.EventID}} ({{.Quantity}} ticket(s)).</p>
<p>Your current position is <strong>{{.Position}}</strong>. We'll email you when seats open up.</p>
</body></html>
{{end}}

{{define "waitlist_cancelled"}}
<html><body>
<h2>Waitlist entry cancelled</h2>
<p>Your waitlist entry for event {{.EventID}} has been cancelled.</p>
</body></html>
{{end}}

{{define "waitlist_notification"}}
<html><body>
<h2>Seats are available</h2>
<p>{{.Quantity}} seat(s) opened up for event {{.EventID}}.</p>
<p>Book before <strong>{{.ExpiresAt}}</strong> or your spot passes to the next person in line.</p>
</body></html>
{{end}}
`

// SMTPMailer renders job templates and delivers over SMTP with
// STARTTLS.
type SMTPMailer struct {
	config    *config.EmailConfig
	templates *template.Template
	log       *logger.Logger
}

// NewSMTPMailer builds a mailer from the email configuration.
func NewSMTPMailer(cfg *config.EmailConfig, log *logger.Logger) (*SMTPMailer, error) {
	if cfg.SMTPHost == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.FromEmail == "" {
		return nil, fmt.Errorf("from email is required")
	}
	if log == nil {
		log = logger.GetDefault()
	}

	tmpl, err := template.New("emails").Parse(emailTemplates)
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}

	return &SMTPMailer{
		config:    cfg,
		templates: tmpl,
		log:       log.WithComponent("notifications.mailer"),
	}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, job *EmailJob) error {
	body, err := m.render(job)
	if err != nil {
		return err
	}

	message := m.buildMessage(job.Recipient, job.Subject(), body)
	if err := m.deliver(job.Recipient, message); err != nil {
		return fmt.Errorf("send email to %s: %w", job.Recipient, err)
	}

	m.log.Debug("email delivered", "job_id", job.ID, "type", string(job.Type))
	return nil
}

func (m *SMTPMailer) render(job *EmailJob) (string, error) {
	var buf bytes.Buffer
	if err := m.templates.ExecuteTemplate(&buf, string(job.Type), job); err != nil {
		return "", fmt.Errorf("render template %s: %w", job.Type, err)
	}
	return buf.String(), nil
}

func (m *SMTPMailer) buildMessage(to, subject, htmlBody string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s <%s>\r\n", m.config.FromName, m.config.FromEmail)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(htmlBody)
	buf.WriteString("\r\n")
	return buf.Bytes()
}

// deliver speaks SMTP with STARTTLS, the path mail relays expect on
// port 587.
func (m *SMTPMailer) deliver(to string, message []byte) error {
	addr := fmt.Sprintf("%s:%d", m.config.SMTPHost, m.config.SMTPPort)

	conn, err := net.DialTimeout("tcp", addr, m.config.Timeout)
	if err != nil {
		return fmt.Errorf("dial smtp server: %w", err)
	}

	client, err := smtp.NewClient(conn, m.config.SMTPHost)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Quit()

	if ok, _ := client.Extension("STARTTLS"); ok {
		tlsCfg := &tls.Config{ServerName: m.config.SMTPHost}
		if err := client.StartTLS(tlsCfg); err != nil {
			return fmt.Errorf("start tls: %w", err)
		}
	}

	if m.config.SMTPUsername != "" {
		auth := smtp.PlainAuth("", m.config.SMTPUsername, m.config.SMTPPassword, m.config.SMTPHost)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(m.config.FromEmail); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("open data writer: %w", err)
	}
	if _, err := w.Write(message); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return w.Close()
}

// NoopMailer logs jobs instead of sending them. Used when SMTP is not
// configured so the queue still drains in development.
type NoopMailer struct {
	log *logger.Logger
}

// NewNoopMailer creates a mailer that only logs.
func NewNoopMailer(log *logger.Logger) *NoopMailer {
	if log == nil {
		log = logger.GetDefault()
	}
	return &NoopMailer{log: log.WithComponent("notifications.mailer")}
}

func (m *NoopMailer) Send(ctx context.Context, job *EmailJob) error {
	m.log.Info("email skipped, smtp not configured",
		"job_id", job.ID, "type", string(job.Type), "recipient", job.Recipient, "subject", job.Subject())
	return nil
}
