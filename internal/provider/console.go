package provider

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gestionis/notify-core/internal/domain"
)

// ConsoleEmailSender writes messages to a writer instead of sending them.
// Intended for local development.
type ConsoleEmailSender struct {
	out io.Writer
}

func NewConsoleEmailSender() *ConsoleEmailSender {
	return &ConsoleEmailSender{out: os.Stdout}
}

func NewConsoleEmailSenderWithWriter(out io.Writer) *ConsoleEmailSender {
	return &ConsoleEmailSender{out: out}
}

func (s *ConsoleEmailSender) Send(_ context.Context, cfg domain.EmailConfiguration, msg domain.MessageLog) (*SendResult, error) {
	from := msg.Sender
	if from == "" {
		from = cfg.FromEmail
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\n", from)
	fmt.Fprintf(&b, "To: %s\n", msg.Recipient)
	if cc := msg.CCList(); len(cc) > 0 {
		fmt.Fprintf(&b, "Cc: %s\n", strings.Join(cc, ", "))
	}
	fmt.Fprintf(&b, "Subject: %s\n\n%s\n", msg.Subject, msg.Body)
	b.WriteString(strings.Repeat("-", 79) + "\n")

	if _, err := io.WriteString(s.out, b.String()); err != nil {
		return nil, fmt.Errorf("console write failed: %w", err)
	}

	return &SendResult{MessageID: "console-" + msg.ID}, nil
}

// FileEmailSender appends messages to per-day files under a spool directory.
type FileEmailSender struct {
	dir string
	now func() time.Time
}

func NewFileEmailSender(dir string) *FileEmailSender {
	return &FileEmailSender{dir: dir, now: time.Now}
}

func (s *FileEmailSender) Send(_ context.Context, cfg domain.EmailConfiguration, msg domain.MessageLog) (*SendResult, error) {
	if strings.TrimSpace(s.dir) == "" {
		return nil, fmt.Errorf("%w: file backend requires a spool directory", domain.ErrConfiguration)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create spool directory: %w", err)
	}

	from := msg.Sender
	if from == "" {
		from = cfg.FromEmail
	}

	name := filepath.Join(s.dir, s.now().UTC().Format("20060102")+".log")
	f, err := os.OpenFile(name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open spool file: %w", err)
	}
	defer f.Close()

	entry := fmt.Sprintf("From: %s\nTo: %s\nSubject: %s\n\n%s\n%s\n",
		from, msg.Recipient, msg.Subject, msg.Body, strings.Repeat("-", 79))

	if _, err := f.WriteString(entry); err != nil {
		return nil, fmt.Errorf("spool write failed: %w", err)
	}

	return &SendResult{MessageID: "file-" + msg.ID}, nil
}
