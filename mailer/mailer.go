package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"

	"tours-service/config"
	"tours-service/metrics"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

// SMTPMailer delivers mail through an SMTP relay.
type SMTPMailer struct {
	client *mail.Client
	from   string
}

func NewSMTP(cfg config.MailConfig) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPMailer{client: client, from: cfg.From}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	out := mail.NewMsg()
	if err := out.From(m.from); err != nil {
		return fmt.Errorf("from address: %w", err)
	}
	if err := out.To(msg.To); err != nil {
		return fmt.Errorf("to address: %w", err)
	}
	out.Subject(msg.Subject)
	out.SetBodyString(mail.TypeTextPlain, msg.Body)

	if err := m.client.DialAndSendWithContext(ctx, out); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// LogMailer writes messages to the log instead of delivering them.
type LogMailer struct {
	log *slog.Logger
}

func NewLog(log *slog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.log.Info("email", "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

func New(cfg config.MailConfig, log *slog.Logger) (Sender, error) {
	if cfg.Driver == "smtp" {
		return NewSMTP(cfg)
	}
	return NewLog(log), nil
}

type countingSender struct {
	Sender
	m *metrics.Registry
}

// WithMetrics counts every send attempt by result.
func WithMetrics(s Sender, m *metrics.Registry) Sender {
	return countingSender{Sender: s, m: m}
}

func (s countingSender) Send(ctx context.Context, msg Message) error {
	err := s.Sender.Send(ctx, msg)
	s.m.EmailsSent.WithLabelValues(metrics.Result(err)).Inc()
	return err
}
