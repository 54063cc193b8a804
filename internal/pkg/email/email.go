package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"strconv"
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/config"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/leave"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

//go:embed templates/*.html
var templateFS embed.FS

const maxRetries = 3

// EscalationNotifier mails the approver mailbox of the level a leave request
// escalated to.
type EscalationNotifier struct {
	cfg       config.SMTPConfig
	templates *template.Template
	// backoff is the wait before the second attempt; it doubles per attempt.
	backoff time.Duration
}

func NewEscalationNotifier(cfg config.SMTPConfig) (*EscalationNotifier, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	return &EscalationNotifier{
		cfg:       cfg,
		templates: tmpl,
		backoff:   time.Second,
	}, nil
}

type escalationEmailData struct {
	Role       string
	FromLevel  int
	ToLevel    int
	RequestID  string
	EmployeeID string
	LeaveType  string
	StartDate  string
	EndDate    string
	Reason     string
	Deadline   string
}

// NotifyEscalation implements leave.Notifier.
func (n *EscalationNotifier) NotifyEscalation(ctx context.Context, notice leave.EscalationNotice) error {
	to := n.cfg.Mailboxes[string(notice.Role)]
	if to == "" {
		slog.Warn("No mailbox configured for approver role, skipping escalation notice",
			"role", notice.Role,
			"request_id", notice.Request.ID,
		)
		return nil
	}

	r := notice.Request
	data := escalationEmailData{
		Role:       string(notice.Role),
		FromLevel:  notice.FromLevel,
		ToLevel:    notice.ToLevel,
		RequestID:  r.ID,
		EmployeeID: r.EmployeeID,
		LeaveType:  string(r.LeaveType),
		StartDate:  r.StartDate.Format("2006-01-02"),
		EndDate:    r.EndDate.Format("2006-01-02"),
		Reason:     r.Reason,
		Deadline:   r.Deadline.UTC().Format(time.RFC1123),
	}

	var body bytes.Buffer
	if err := n.templates.ExecuteTemplate(&body, "escalation.html", data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	subject := fmt.Sprintf("Leave request %s escalated to %s", r.ID, notice.Role)
	return n.sendHTML(ctx, to, subject, body.String())
}

func (n *EscalationNotifier) sendHTML(ctx context.Context, to, subject, htmlBody string) error {
	// Skip sending if SMTP is not configured
	if n.cfg.Host == "" {
		slog.Warn("SMTP not configured, skipping email send", "to", to, "subject", subject)
		return nil
	}

	from := n.cfg.From

	headers := fmt.Sprintf("From: %s <%s>\r\n", n.cfg.FromName, from)
	headers += fmt.Sprintf("To: %s\r\n", to)
	headers += fmt.Sprintf("Subject: %s\r\n", subject)
	headers += "MIME-Version: 1.0\r\n"
	headers += "Content-Type: text/html; charset=\"UTF-8\"\r\n"
	headers += "\r\n"

	message := []byte(headers + htmlBody)
	addr := n.cfg.Host + ":" + strconv.Itoa(n.cfg.Port)

	var auth sasl.Client
	if n.cfg.Username != "" {
		auth = sasl.NewPlainClient("", n.cfg.Username, n.cfg.Password)
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err := n.send(addr, auth, from, to, message)
		if err == nil {
			slog.Info("Email sent successfully", "to", to, "subject", subject, "attempt", attempt)
			return nil
		}

		lastErr = err
		slog.Error("Failed to send email",
			"to", to,
			"subject", subject,
			"attempt", attempt,
			"max_retries", maxRetries,
			"error", err,
		)

		// Wait before retrying (exponential backoff: 1s, 2s, 4s)
		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return fmt.Errorf("email send cancelled: %w", ctx.Err())
			case <-time.After(n.backoff << (attempt - 1)):
			}
		}
	}

	return fmt.Errorf("failed to send email after %d attempts: %w", maxRetries, lastErr)
}

// send delivers one message. TLS selects implicit TLS, StartTLS upgrades a
// plain connection, and neither talks to the relay in plaintext.
func (n *EscalationNotifier) send(addr string, auth sasl.Client, from, to string, message []byte) error {
	switch {
	case n.cfg.TLS:
		return smtp.SendMailTLS(addr, auth, from, []string{to}, bytes.NewReader(message))
	case n.cfg.StartTLS:
		return smtp.SendMail(addr, auth, from, []string{to}, bytes.NewReader(message))
	}

	c, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer c.Close()

	if auth != nil {
		if err := c.Auth(auth); err != nil {
			return err
		}
	}
	if err := c.SendMail(from, []string{to}, bytes.NewReader(message)); err != nil {
		return err
	}
	return c.Quit()
}
