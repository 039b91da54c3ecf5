package provider

import (
	"context"
	"fmt"
	"net/smtp"
)

// EmailProvider delivers messages over SMTP. The rendered message already
// carries the Subject and MIME headers; the provider adds the envelope
// From/To headers.
type EmailProvider struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewEmailProvider(host string, port int, username, password, from string) *EmailProvider {
	return &EmailProvider{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

func (p *EmailProvider) Configured() bool {
	return p.host != "" && p.username != "" && p.password != ""
}

func (p *EmailProvider) Send(ctx context.Context, target, message string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\n%s", p.from, target, message)

	auth := smtp.PlainAuth("", p.username, p.password, p.host)
	addr := fmt.Sprintf("%s:%d", p.host, p.port)

	// smtp.SendMail has no context support, so run it in a goroutine and
	// race it against the deadline. A timed-out send keeps running in the
	// background until the SMTP dialer's own timeouts fire.
	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, p.from, []string{target}, []byte(msg))
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("error sending email to %s: %w", target, err)
		}
		return nil
	}
}
