package provider

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"sort"
	"strings"
	"time"

	"github.com/gestionis/notify-core/internal/domain"
)

// SMTPSender delivers email over SMTP. SSL dials a TLS socket up front,
// STARTTLS and TLS upgrade after EHLO, none sends in the clear.
type SMTPSender struct{}

func NewSMTPSender() *SMTPSender {
	return &SMTPSender{}
}

func (s *SMTPSender) Send(ctx context.Context, cfg domain.EmailConfiguration, msg domain.MessageLog) (*SendResult, error) {
	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))

	from := msg.Sender
	if from == "" {
		from = cfg.FromEmail
	}

	recipients := append([]string{msg.Recipient}, msg.CCList()...)
	payload := buildMIMEMessage(cfg, from, msg)

	client, err := dialSMTP(ctx, cfg, addr)
	if err != nil {
		return nil, &ProviderError{
			Message:   fmt.Sprintf("smtp dial %s failed", addr),
			Transient: true,
			Cause:     err,
		}
	}
	defer client.Close()

	if cfg.SecurityProtocol == domain.SecuritySTARTTLS || cfg.SecurityProtocol == domain.SecurityTLS {
		if ok, _ := client.Extension("STARTTLS"); !ok {
			return nil, &ProviderError{
				Message: "smtp server does not support STARTTLS",
			}
		}
		if err := client.StartTLS(&tls.Config{ServerName: cfg.Host}); err != nil {
			return nil, &ProviderError{
				Message:   "smtp starttls failed",
				Transient: true,
				Cause:     err,
			}
		}
	}

	if cfg.Username != "" {
		auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
		if err := client.Auth(auth); err != nil {
			return nil, &ProviderError{
				Message: "smtp authentication failed",
				Cause:   err,
			}
		}
	}

	if err := client.Mail(from); err != nil {
		return nil, &ProviderError{Message: "smtp MAIL FROM rejected", Cause: err}
	}
	for _, rcpt := range recipients {
		if err := client.Rcpt(rcpt); err != nil {
			return nil, &ProviderError{
				Message: fmt.Sprintf("smtp RCPT TO %s rejected", rcpt),
				Cause:   err,
			}
		}
	}

	w, err := client.Data()
	if err != nil {
		return nil, &ProviderError{Message: "smtp DATA failed", Transient: true, Cause: err}
	}
	if _, err := w.Write([]byte(payload)); err != nil {
		_ = w.Close()
		return nil, &ProviderError{Message: "smtp body write failed", Transient: true, Cause: err}
	}
	if err := w.Close(); err != nil {
		return nil, &ProviderError{Message: "smtp message not accepted", Transient: true, Cause: err}
	}

	_ = client.Quit()

	// SMTP has no provider-side message id to record.
	return &SendResult{}, nil
}

func dialSMTP(ctx context.Context, cfg domain.EmailConfiguration, addr string) (*smtp.Client, error) {
	dialer := &net.Dialer{Timeout: cfg.Timeout()}

	var conn net.Conn
	var err error
	if cfg.SecurityProtocol == domain.SecuritySSL {
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: cfg.Host})
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, err
	}

	// The deadline bounds the whole SMTP conversation, not just the dial.
	deadline := time.Now().Add(cfg.Timeout())
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return nil, err
	}

	return smtp.NewClient(conn, cfg.Host)
}

func buildMIMEMessage(cfg domain.EmailConfiguration, from string, msg domain.MessageLog) string {
	var b strings.Builder

	writeHeader := func(key, value string) {
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\r\n")
	}

	writeHeader("From", from)
	writeHeader("To", msg.Recipient)
	if cc := msg.CCList(); len(cc) > 0 {
		writeHeader("Cc", strings.Join(cc, ", "))
	}
	writeHeader("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	writeHeader("MIME-Version", "1.0")

	keys := make([]string, 0, len(cfg.CustomHeaders))
	for k := range cfg.CustomHeaders {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		writeHeader(k, cfg.CustomHeaders[k])
	}

	html := msg.HTMLBody()
	if html == "" {
		writeHeader("Content-Type", `text/plain; charset="utf-8"`)
		b.WriteString("\r\n")
		b.WriteString(msg.Body)
		return b.String()
	}

	const boundary = "=_notify_core_alt"
	writeHeader("Content-Type", fmt.Sprintf(`multipart/alternative; boundary=%q`, boundary))
	b.WriteString("\r\n")

	b.WriteString("--" + boundary + "\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(msg.Body)
	b.WriteString("\r\n--" + boundary + "\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(html)
	b.WriteString("\r\n--" + boundary + "--\r\n")

	return b.String()
}
