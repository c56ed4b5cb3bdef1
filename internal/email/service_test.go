package email

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEmailService_CapturesAndWritesOutbox(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	svc := NewMockEmailServiceWithOutbox(fs, "/outbox")

	require.NoError(t, svc.Send("a@example.com", TemplateWelcome, WelcomeData{Email: "a@example.com", AppURL: "http://x"}))
	require.NoError(t, svc.Send("b@example.com", "other", "payload"))

	assert.Equal(t, 2, svc.Count())
	assert.Equal(t, "b@example.com", svc.LastEmail().To)

	entries, err := afero.ReadDir(fs, "/outbox")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.True(t, strings.HasSuffix(e.Name(), ".json"), e.Name())
	}

	raw, err := afero.ReadFile(fs, "/outbox/"+entries[0].Name())
	require.NoError(t, err)
	var event outboxEmailEvent
	require.NoError(t, json.Unmarshal(raw, &event))
	assert.Equal(t, uint64(1), event.Sequence)
	assert.Equal(t, TemplateWelcome, event.Template)
	assert.Equal(t, "http://x", event.AppURL)
}

func TestMockEmailService_FailWith(t *testing.T) {
	t.Parallel()
	svc := NewMockEmailService()
	svc.FailWith = errors.New("smtp down")

	err := svc.Send("a@example.com", TemplateWelcome, WelcomeData{})
	assert.EqualError(t, err, "smtp down")
	assert.Equal(t, 1, svc.Count())
}

func TestSanitizeOutboxComponent(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "unknown", sanitizeOutboxComponent("  "))
	assert.Equal(t, "a_b@example.com", sanitizeOutboxComponent("a/b@example.com"))
}
