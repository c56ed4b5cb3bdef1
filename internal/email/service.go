// Package email sends transactional mail. Production uses Resend; tests and
// --no-email runs use MockEmailService, which also drops a JSON copy of each
// message into an outbox directory.
package email

import (
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/jinwoo-notes/jinwoo/internal/obs"
)

// EmailService defines the interface for sending emails.
type EmailService interface {
	// Send sends an email using the named template. data depends on the template.
	Send(to, templateName string, data any) error
}

// SentEmail represents a captured email for testing.
type SentEmail struct {
	To       string
	Template string
	Data     any
}

// MockEmailService captures emails instead of sending them.
type MockEmailService struct {
	mu        sync.Mutex
	Emails    []SentEmail
	fs        afero.Fs
	outboxDir string
	seq       uint64
	// FailWith, when set, is returned from every Send after capturing.
	FailWith error
}

// NewMockEmailService creates a mock that keeps emails in memory only.
func NewMockEmailService() *MockEmailService {
	return &MockEmailService{Emails: make([]SentEmail, 0)}
}

// NewMockEmailServiceWithOutbox creates a mock that also writes each email as
// JSON under outboxDir on fs.
func NewMockEmailServiceWithOutbox(fs afero.Fs, outboxDir string) *MockEmailService {
	m := NewMockEmailService()
	if err := fs.MkdirAll(outboxDir, 0o755); err != nil {
		obs.Pkg("email").Warn("outbox_dir_create_failed", "dir", outboxDir, "error", err)
		return m
	}
	m.fs = fs
	m.outboxDir = outboxDir
	return m
}

// Send captures the email and logs it for manual testing.
func (m *MockEmailService) Send(to, templateName string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Emails = append(m.Emails, SentEmail{
		To:       to,
		Template: templateName,
		Data:     data,
	})

	obs.Pkg("email").Info("mock_email_sent", "template", templateName)
	event := outboxEmailEvent{
		To:             to,
		Template:       templateName,
		SentAtUnixNano: time.Now().UnixNano(),
	}
	if d, ok := data.(WelcomeData); ok {
		event.AppURL = d.AppURL
	} else {
		event.RawData = fmt.Sprintf("%+v", data)
	}

	if err := m.writeOutboxEvent(event); err != nil {
		return err
	}
	return m.FailWith
}

// LastEmail returns the most recently sent email, or the zero value.
func (m *MockEmailService) LastEmail() SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Emails) == 0 {
		return SentEmail{}
	}
	return m.Emails[len(m.Emails)-1]
}

// Count returns the number of captured emails.
func (m *MockEmailService) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Emails)
}

type outboxEmailEvent struct {
	Sequence       uint64 `json:"sequence"`
	To             string `json:"to"`
	Template       string `json:"template"`
	AppURL         string `json:"app_url,omitempty"`
	RawData        string `json:"raw_data,omitempty"`
	SentAtUnixNano int64  `json:"sent_at_unix_nano"`
}

func (m *MockEmailService) writeOutboxEvent(event outboxEmailEvent) error {
	if m.fs == nil {
		return nil
	}

	m.seq++
	event.Sequence = m.seq

	fileName := fmt.Sprintf(
		"%020d-%020d-%s-%s.json",
		event.Sequence,
		event.SentAtUnixNano,
		sanitizeOutboxComponent(event.Template),
		sanitizeOutboxComponent(event.To),
	)
	finalPath := path.Join(m.outboxDir, fileName)
	tempPath := finalPath + ".tmp"

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal outbox event: %w", err)
	}
	if err := afero.WriteFile(m.fs, tempPath, payload, 0o644); err != nil {
		return fmt.Errorf("write outbox temp file: %w", err)
	}
	if err := m.fs.Rename(tempPath, finalPath); err != nil {
		_ = m.fs.Remove(tempPath)
		return fmt.Errorf("rename outbox file: %w", err)
	}
	return nil
}

var outboxSanitizePattern = regexp.MustCompile(`[^a-zA-Z0-9._@-]+`)

func sanitizeOutboxComponent(input string) string {
	safe := strings.TrimSpace(input)
	if safe == "" {
		return "unknown"
	}
	return outboxSanitizePattern.ReplaceAllString(safe, "_")
}
