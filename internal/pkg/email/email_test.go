package email

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/config"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/leave"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type delivered struct {
	from string
	to   []string
	data string
}

type backend struct {
	mu        sync.Mutex
	failFirst int
	attempts  int
	messages  []delivered
	// username/password is the one account AUTH PLAIN accepts.
	username string
	password string
	authed   []string
}

func (b *backend) NewSession(*smtp.Conn) (smtp.Session, error) {
	return &session{b: b}, nil
}

type session struct {
	b    *backend
	from string
	to   []string
}

func (s *session) AuthMechanisms() []string {
	return []string{sasl.Plain}
}

func (s *session) Auth(string) (sasl.Server, error) {
	return sasl.NewPlainServer(func(_, username, password string) error {
		if username != s.b.username || password != s.b.password {
			return errors.New("invalid credentials")
		}
		s.b.mu.Lock()
		s.b.authed = append(s.b.authed, username)
		s.b.mu.Unlock()
		return nil
	}), nil
}

func (s *session) Mail(from string, _ *smtp.MailOptions) error {
	s.from = from
	return nil
}

func (s *session) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.to = append(s.to, to)
	return nil
}

func (s *session) Data(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	s.b.attempts++
	if s.b.attempts <= s.b.failFirst {
		return &smtp.SMTPError{Code: 451, EnhancedCode: smtp.EnhancedCode{4, 3, 0}, Message: "try again later"}
	}
	s.b.messages = append(s.b.messages, delivered{from: s.from, to: s.to, data: string(data)})
	return nil
}

func (s *session) Reset() {
	s.from = ""
	s.to = nil
}

func (s *session) Logout() error { return nil }

func startServer(t *testing.T, be *backend) config.SMTPConfig {
	t.Helper()

	srv := smtp.NewServer(be)
	srv.Domain = "localhost"
	srv.AllowInsecureAuth = true

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go srv.Serve(l)
	t.Cleanup(func() { srv.Close() })

	return config.SMTPConfig{
		Host:     "127.0.0.1",
		Port:     l.Addr().(*net.TCPAddr).Port,
		From:     "payroll@example.com",
		FromName: "Payroll Compliance",
		Mailboxes: map[string]string{
			"manager":  "managers@example.com",
			"hr":       "hr@example.com",
			"director": "",
		},
	}
}

func newNotifier(t *testing.T, cfg config.SMTPConfig) *EscalationNotifier {
	n, err := NewEscalationNotifier(cfg)
	require.NoError(t, err)
	n.backoff = time.Millisecond
	return n
}

func notice(role leave.ApproverRole) leave.EscalationNotice {
	return leave.EscalationNotice{
		Request: leave.Request{
			ID:         "req-42",
			EmployeeID: "emp-7",
			LeaveType:  attendance.LeaveTypeCasual,
			StartDate:  time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC),
			EndDate:    time.Date(2026, time.March, 11, 0, 0, 0, 0, time.UTC),
			Reason:     "wedding",
			Level:      2,
			Deadline:   time.Date(2026, time.March, 5, 9, 0, 0, 0, time.UTC),
		},
		FromLevel: 1,
		ToLevel:   2,
		Role:      role,
	}
}

func TestNotifyEscalation_SendsToRoleMailbox(t *testing.T) {
	be := &backend{}
	n := newNotifier(t, startServer(t, be))

	require.NoError(t, n.NotifyEscalation(context.Background(), notice(leave.RoleHR)))

	be.mu.Lock()
	defer be.mu.Unlock()
	require.Len(t, be.messages, 1)
	msg := be.messages[0]
	assert.Equal(t, "payroll@example.com", msg.from)
	assert.Equal(t, []string{"hr@example.com"}, msg.to)
	assert.Contains(t, msg.data, "Subject: Leave request req-42 escalated to hr")
	assert.Contains(t, msg.data, "emp-7")
	assert.Contains(t, msg.data, "2026-03-10 to 2026-03-11")
	assert.Contains(t, msg.data, "at level 1 and now sits at level 2")
}

func TestNotifyEscalation_AuthenticatesOverPlainConnection(t *testing.T) {
	be := &backend{username: "relay-user", password: "s3cret"}
	cfg := startServer(t, be)
	cfg.Username = "relay-user"
	cfg.Password = "s3cret"
	n := newNotifier(t, cfg)

	require.NoError(t, n.NotifyEscalation(context.Background(), notice(leave.RoleManager)))

	be.mu.Lock()
	defer be.mu.Unlock()
	assert.Equal(t, []string{"relay-user"}, be.authed)
	require.Len(t, be.messages, 1)
	assert.Equal(t, []string{"managers@example.com"}, be.messages[0].to)
}

func TestNotifyEscalation_StartTLSRequiresServerSupport(t *testing.T) {
	be := &backend{}
	cfg := startServer(t, be)
	cfg.StartTLS = true
	n := newNotifier(t, cfg)

	err := n.NotifyEscalation(context.Background(), notice(leave.RoleHR))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STARTTLS")

	be.mu.Lock()
	defer be.mu.Unlock()
	assert.Empty(t, be.messages)
}

func TestNotifyEscalation_RetriesTransientFailures(t *testing.T) {
	be := &backend{failFirst: 2}
	n := newNotifier(t, startServer(t, be))

	require.NoError(t, n.NotifyEscalation(context.Background(), notice(leave.RoleHR)))

	be.mu.Lock()
	defer be.mu.Unlock()
	assert.Equal(t, 3, be.attempts)
	assert.Len(t, be.messages, 1)
}

func TestNotifyEscalation_GivesUp(t *testing.T) {
	be := &backend{failFirst: 10}
	n := newNotifier(t, startServer(t, be))

	err := n.NotifyEscalation(context.Background(), notice(leave.RoleHR))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")

	be.mu.Lock()
	defer be.mu.Unlock()
	assert.Equal(t, maxRetries, be.attempts)
}

func TestNotifyEscalation_StopsOnCancelledContext(t *testing.T) {
	be := &backend{failFirst: 10}
	n := newNotifier(t, startServer(t, be))
	n.backoff = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := n.NotifyEscalation(ctx, notice(leave.RoleHR))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNotifyEscalation_Skips(t *testing.T) {
	t.Run("role without mailbox", func(t *testing.T) {
		be := &backend{}
		n := newNotifier(t, startServer(t, be))

		require.NoError(t, n.NotifyEscalation(context.Background(), notice(leave.RoleDirector)))
		assert.Zero(t, be.attempts)
	})

	t.Run("smtp not configured", func(t *testing.T) {
		n := newNotifier(t, config.SMTPConfig{Mailboxes: map[string]string{"hr": "hr@example.com"}})
		assert.NoError(t, n.NotifyEscalation(context.Background(), notice(leave.RoleHR)))
	})
}
