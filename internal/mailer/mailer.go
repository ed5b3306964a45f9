// Package mailer delivers account emails such as password reset links.
//
// Two senders are provided: SMTPSender talks to a real SMTP relay through
// gomail, and LogSender records only the recipient and subject for
// development setups without a relay.
package mailer

import (
	"context"
	"log"
)

// Message is a single plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes a line per message without the body, which may carry
// a reset link.
type LogSender struct{}

// Send implements Sender.
func (LogSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log.Printf("[MAILER] SMTP not configured, dropping message to %s: %q", msg.To, msg.Subject)
	return nil
}
