package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"IdeaScanner/internal/domain"
	"IdeaScanner/internal/ports"
)

const defaultAPIBase = "https://api.telegram.org"

// Notifier posts run reports to a Telegram chat via bot API.
type Notifier struct {
	apiBase  string
	botToken string
	chatID   string
	client   *http.Client
}

var _ ports.RunReporter = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(botToken, chatID string) *Notifier {
	return &Notifier{
		apiBase:  defaultAPIBase,
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// WithAPIBase points the notifier at another bot API host.
func (n *Notifier) WithAPIBase(base string) *Notifier {
	n.apiBase = strings.TrimRight(base, "/")
	return n
}

// ReportRun posts a Markdown summary of a finished run.
func (n *Notifier) ReportRun(ctx context.Context, summary domain.RunSummary, runErr error) error {
	return n.send(ctx, FormatSummary(summary, runErr))
}

func (n *Notifier) send(ctx context.Context, text string) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", text)
	form.Set("parse_mode", "Markdown")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}

// FormatSummary renders a run summary as Telegram Markdown.
func FormatSummary(s domain.RunSummary, runErr error) string {
	var b strings.Builder
	status := "done"
	if runErr != nil {
		status = "failed"
	}
	fmt.Fprintf(&b, "*IdeaScanner run %s* for `%s`\n", status, s.Topic)
	if s.RunID != "" {
		fmt.Fprintf(&b, "run: `%s`\n", s.RunID)
	}
	fmt.Fprintf(&b, "items: %d (%s)\n", s.ItemsFetched, s.Origin)
	fmt.Fprintf(&b, "pain points: %d, concepts: %d generated / %d inserted\n",
		s.PainPointsFound, s.ConceptsGenerated, s.ConceptsInserted)
	fmt.Fprintf(&b, "emails: %d sent, %d failed", s.EmailsSent, s.EmailsFailed)
	if s.Message != "" {
		fmt.Fprintf(&b, "\n_%s_", s.Message)
	}
	if runErr != nil {
		fmt.Fprintf(&b, "\nerror: %s", runErr.Error())
	}
	return b.String()
}
