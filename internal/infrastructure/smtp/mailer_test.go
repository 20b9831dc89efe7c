package smtp

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/go-file-exchange/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage("noreply@x.com", "b@x.com", "Verify", "hello"))

	head, body, ok := strings.Cut(msg, "\r\n\r\n")
	require.True(t, ok)
	assert.Contains(t, head, "From: noreply@x.com")
	assert.Contains(t, head, "To: b@x.com")
	assert.Contains(t, head, "Subject: Verify")
	assert.Contains(t, head, "Content-Type: text/plain")
	assert.Equal(t, "hello", body)
}

func TestNewMailer_FallsBackToConsole(t *testing.T) {
	m := NewMailer(&config.Config{})
	_, isConsole := m.(*consoleMailer)
	assert.True(t, isConsole)

	m = NewMailer(&config.Config{SMTPHost: "smtp.example.com", SMTPPort: "587"})
	_, isSMTP := m.(*mailer)
	assert.True(t, isSMTP)
}

func TestConsoleMailer_Logs(t *testing.T) {
	var buf bytes.Buffer
	m := NewConsoleMailer(slog.New(slog.NewTextHandler(&buf, nil)))

	require.NoError(t, m.SendEmail("b@x.com", "Verify", "link"))
	assert.Contains(t, buf.String(), "to=b@x.com")
	assert.Contains(t, buf.String(), "subject=Verify")
}
