package provider

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/gestionis/notify-core/internal/domain"
)

func TestBuildMIMEMessagePlain(t *testing.T) {
	t.Parallel()

	cfg := domain.EmailConfiguration{
		CustomHeaders: map[string]string{"X-Campaign": "onboarding"},
	}
	msg := domain.MessageLog{
		Recipient: "user@example.com",
		CC:        "cc@example.com",
		Subject:   "Welcome",
		Body:      "hello",
	}

	out := buildMIMEMessage(cfg, "noreply@example.com", msg)

	for _, want := range []string{
		"From: noreply@example.com\r\n",
		"To: user@example.com\r\n",
		"Cc: cc@example.com\r\n",
		"X-Campaign: onboarding\r\n",
		`Content-Type: text/plain; charset="utf-8"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("message missing %q:\n%s", want, out)
		}
	}
	if !strings.HasSuffix(out, "hello") {
		t.Fatalf("message should end with body:\n%s", out)
	}
}

func TestDialSMTPDeadlineCoversGreeting(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	// Accept the connection but never send the SMTP greeting.
	done := make(chan struct{})
	t.Cleanup(func() { close(done) })
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		<-done
		conn.Close()
	}()

	cfg := domain.EmailConfiguration{
		Host:           "127.0.0.1",
		TimeoutSeconds: 5,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	client, err := dialSMTP(ctx, cfg, ln.Addr().String())
	if err == nil {
		client.Close()
		t.Fatal("expected a timeout waiting for the greeting")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("dial returned after %v, connection deadline did not apply", elapsed)
	}
}

func TestBuildMIMEMessageMultipart(t *testing.T) {
	t.Parallel()

	msg := domain.MessageLog{
		Recipient: "user@example.com",
		Subject:   "Welcome",
		Body:      "hello",
	}
	msg.SetHTMLBody("<p>hello</p>")

	out := buildMIMEMessage(domain.EmailConfiguration{}, "noreply@example.com", msg)

	if !strings.Contains(out, "multipart/alternative") {
		t.Fatalf("expected multipart message:\n%s", out)
	}
	if !strings.Contains(out, "text/plain") || !strings.Contains(out, "text/html") {
		t.Fatalf("expected both body parts:\n%s", out)
	}
	if !strings.Contains(out, "<p>hello</p>") {
		t.Fatalf("expected html content:\n%s", out)
	}
}
