// Package mail abstracts reminder delivery. The scheduler only sees the
// Dispatcher interface; the SMTP implementation lives behind it so tests and
// dry runs can substitute their own.
package mail

import (
	gomail "github.com/wneessen/go-mail"

	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/config"
	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/logger"
)

type Dispatcher interface {
	Send(to, subject, body string) error
}

// SMTPDispatcher delivers through an SMTP relay using go-mail.
type SMTPDispatcher struct {
	client *gomail.Client
	from   string
}

func NewSMTPDispatcher(cfg config.Config) (*SMTPDispatcher, error) {
	opts := []gomail.Option{gomail.WithPort(cfg.SMTPPort)}
	if cfg.SMTPUser != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.SMTPUser),
			gomail.WithPassword(cfg.SMTPPass),
		)
	}
	client, err := gomail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, err
	}
	return &SMTPDispatcher{client: client, from: cfg.MailFrom}, nil
}

func (d *SMTPDispatcher) Send(to, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.From(d.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)
	return d.client.DialAndSend(msg)
}

// LogDispatcher writes would-be sends to the log instead of the wire. Used
// when SMTP is not configured and for --dry-run reminder runs.
type LogDispatcher struct{}

func (LogDispatcher) Send(to, subject, _ string) error {
	log := logger.WithComponent("mail")
	log.Info().Str("to", to).Str("subject", subject).Msg("dry-run dispatch")
	return nil
}

// ForConfig picks the SMTP dispatcher when a host is configured, the log
// dispatcher otherwise.
func ForConfig(cfg config.Config) (Dispatcher, error) {
	if cfg.SMTPHost == "" {
		return LogDispatcher{}, nil
	}
	return NewSMTPDispatcher(cfg)
}
