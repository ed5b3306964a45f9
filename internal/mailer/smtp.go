package mailer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/mrlokans/cliffauth/internal/config"
)

// ErrNoRecipient is returned for messages without a To address.
var ErrNoRecipient = errors.New("email recipient is empty")

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender sends mail through an SMTP relay.
type SMTPSender struct {
	from   string
	dialer dialer
}

// NewSMTPSender creates a sender for the configured relay.
func NewSMTPSender(cfg config.SMTP) *SMTPSender {
	return &SMTPSender{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// NewSender returns an SMTPSender when SMTP is configured and a LogSender
// otherwise.
func NewSender(cfg config.SMTP) Sender {
	if !cfg.Configured() {
		log.Println("[MAILER] SMTP_HOST/SMTP_FROM not set, outgoing mail is logged and dropped")
		return LogSender{}
	}
	return NewSMTPSender(cfg)
}

// Send implements Sender.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(msg.To) == "" {
		return ErrNoRecipient
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	log.Printf("[MAILER] Sent %q to %s", msg.Subject, msg.To)
	return nil
}
