package infra

import (
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"

	"github.com/YLCALP/ciftlik360-master-sub000/internal/config"
)

// ErrMailerDisabled is returned when SMTP_HOST is not configured.
var ErrMailerDisabled = errors.New("mailer: smtp not configured")

// Mailer sends plain-text notifications over SMTP. Sends go through a
// circuit breaker so a dead relay does not stall the worker pool.
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
	from     string
	cb       *CircuitBreaker
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		from:     cfg.SMTPUser,
		cb:       NewCircuitBreaker(DefaultCBConfig()),
	}
}

func (m *Mailer) Enabled() bool { return m != nil && m.host != "" }

// BreakerState is exposed for the health endpoint.
func (m *Mailer) BreakerState() CBState { return m.cb.State() }

// Send delivers one message to every recipient in the comma-separated list.
func (m *Mailer) Send(to, subject, body string) error {
	if !m.Enabled() {
		return ErrMailerDisabled
	}
	var recipients []string
	for _, addr := range strings.Split(to, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			recipients = append(recipients, addr)
		}
	}
	if len(recipients) == 0 {
		return fmt.Errorf("mailer: no recipients")
	}

	e := email.NewEmail()
	e.From = m.from
	e.To = recipients
	e.Subject = subject
	e.Text = []byte(body)

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	return m.cb.Execute(func() error { return e.Send(m.addr, auth) })
}
