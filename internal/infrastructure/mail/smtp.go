package mail

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"DigestMailer/internal/config"
	"DigestMailer/internal/domain"
	"DigestMailer/internal/ports"
	"DigestMailer/internal/retry"
)

// multipart/alternative boundary; parts are ordered least to most
// preferred per RFC 2046, so text comes before HTML.
const smtpBoundary = "digest-alt-7f3a9c"

// SMTPProvider delivers digests over authenticated SMTP submission.
type SMTPProvider struct {
	host      string
	port      string
	username  string
	password  string
	fromEmail string
	policy    retry.Policy

	// sendMail is swappable for tests; defaults to smtp.SendMail.
	sendMail func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

var _ ports.EmailProvider = (*SMTPProvider)(nil)

// NewSMTPProvider wires submission settings; username defaults to the
// sender address.
func NewSMTPProvider(cfg config.SMTPConfig, fromEmail string, policy retry.Policy) *SMTPProvider {
	username := cfg.Username
	if username == "" {
		username = fromEmail
	}
	return &SMTPProvider{
		host:      cfg.Host,
		port:      cfg.Port,
		username:  username,
		password:  cfg.Password,
		fromEmail: fromEmail,
		policy:    policy,
		sendMail:  smtp.SendMail,
	}
}

// Name identifies the provider inside the registry.
func (p *SMTPProvider) Name() string {
	return "smtp"
}

// Send submits the digest with bounded retries; SMTP failures do not
// distinguish transient from permanent reliably, so every failure is
// retried within the budget.
func (p *SMTPProvider) Send(ctx context.Context, digest domain.Digest, recipient string) error {
	if p.host == "" || p.fromEmail == "" || p.password == "" {
		return fmt.Errorf("smtp provider misconfigured")
	}

	addr := net.JoinHostPort(p.host, p.port)
	auth := smtp.PlainAuth("", p.username, p.password, p.host)
	msg := p.buildMessage(digest, recipient)

	return p.policy.Do(ctx, func(ctx context.Context) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if err := p.sendMail(addr, auth, p.fromEmail, []string{recipient}, msg); err != nil {
			return true, fmt.Errorf("smtp send: %w", err)
		}
		return false, nil
	})
}

// buildMessage assembles an RFC 5322 message with a multipart/alternative
// body carrying the text fallback and the HTML digest.
func (p *SMTPProvider) buildMessage(digest domain.Digest, recipient string) []byte {
	var msg strings.Builder

	msg.WriteString(fmt.Sprintf("From: %s\r\n", p.fromEmail))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", recipient))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", digest.Subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=%q\r\n", smtpBoundary))
	msg.WriteString("\r\n")

	msg.WriteString(fmt.Sprintf("--%s\r\n", smtpBoundary))
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(digest.TextBody)
	msg.WriteString("\r\n")

	msg.WriteString(fmt.Sprintf("--%s\r\n", smtpBoundary))
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(digest.HTMLBody)
	msg.WriteString("\r\n")

	msg.WriteString(fmt.Sprintf("--%s--\r\n", smtpBoundary))

	return []byte(msg.String())
}
