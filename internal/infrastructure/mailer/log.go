package mailer

import (
	"context"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"IdeaScanner/internal/ports"
)

const previewLength = 200

// LogMailer records emails in the log instead of sending them.
type LogMailer struct {
	logger *slog.Logger
}

var _ ports.Mailer = (*LogMailer)(nil)

// NewLogMailer builds the mock-mode mailer.
func NewLogMailer(log *slog.Logger) *LogMailer {
	return &LogMailer{logger: log}
}

// Send logs recipient, subject and a plain-text preview and returns a synthetic id.
func (m *LogMailer) Send(ctx context.Context, email ports.Email) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := "log-" + uuid.NewString()
	if m.logger != nil {
		m.logger.Info("email (not sent)",
			"id", id,
			"from", email.From,
			"to", email.To,
			"subject", email.Subject,
			"preview", Preview(email.HTML),
		)
	}
	return id, nil
}

// Preview flattens HTML to text and truncates it.
func Preview(html string) string {
	text := html
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		text = doc.Text()
	}
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) > previewLength {
		return string(runes[:previewLength]) + "..."
	}
	return text
}
