// Package mailer delivers transactional email. Without SMTP settings it
// falls back to writing messages to the log.
package mailer

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/audioscribe/internal/logging"
	"github.com/wneessen/go-mail"
)

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Options configures SMTP delivery. Port 465 uses implicit TLS, any other
// port uses opportunistic STARTTLS. An empty User disables SMTP auth.
type Options struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// New returns an SMTP mailer, or a log-only mailer when opts.Host is empty.
func New(opts Options, logger logging.Logger) Mailer {
	if opts.Host == "" {
		return &LogMailer{logger: logger}
	}
	return &SMTPMailer{opts: opts}
}

// dialAndSend is a seam for tests.
var dialAndSend = func(ctx context.Context, c *mail.Client, m *mail.Msg) error {
	return c.DialAndSendWithContext(ctx, m)
}

type SMTPMailer struct {
	opts Options
}

func (s *SMTPMailer) Send(ctx context.Context, msg Message) error {
	m, err := s.build(msg)
	if err != nil {
		return err
	}

	c, err := mail.NewClient(s.opts.Host, s.clientOptions()...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := dialAndSend(ctx, c, m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (s *SMTPMailer) build(msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(s.opts.From); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid to address: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	return m, nil
}

func (s *SMTPMailer) clientOptions() []mail.Option {
	opts := []mail.Option{mail.WithPort(s.opts.Port)}
	if s.opts.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	if s.opts.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.opts.User),
			mail.WithPassword(s.opts.Password),
		)
	}
	return opts
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	logger logging.Logger
}

func (l *LogMailer) Send(ctx context.Context, msg Message) error {
	l.logger.Info(ctx, "email not sent, smtp is not configured",
		"to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}
