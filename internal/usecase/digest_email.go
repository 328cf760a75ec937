package usecase

import (
	"bytes"
	"fmt"
	"html/template"

	"IdeaScanner/internal/domain"
)

var digestTemplate = template.Must(template.New("digest").Funcs(template.FuncMap{"band": domain.ScoreBand}).Parse(`<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, Helvetica, Arial, sans-serif; color: #111;">
  <h1>Your Idea Digest</h1>
  <p>{{len .Concepts}} new idea{{if ne (len .Concepts) 1}}s{{end}}{{if .Topic}} for <strong>{{.Topic}}</strong>{{end}}.</p>
  {{range .Concepts}}
  <div style="border: 1px solid #ddd; border-radius: 8px; padding: 16px; margin-bottom: 12px;">
    <h2 style="margin: 0 0 8px 0;">{{.Title}}</h2>
    <p style="margin: 0 0 8px 0;"><strong>Score:</strong> {{.Score}}/100 ({{band .Score}})</p>
    <p style="margin: 0 0 8px 0;">{{.Pitch}}</p>
    <p style="margin: 0 0 8px 0; color: #555;"><strong>Pain point:</strong> {{.PainPoint}}</p>
    {{if .TargetAudience}}<p style="margin: 0; color: #555;"><strong>For:</strong> {{.TargetAudience}}</p>{{end}}
  </div>
  {{end}}
  <p style="color: #888; font-size: 12px;">You receive this because you subscribed to all idea updates.</p>
</body>
</html>
`))

var confirmationTemplate = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, Helvetica, Arial, sans-serif; color: #111;">
  {{if .Subscribed}}
  <h1>You're subscribed!</h1>
  <p>You will receive new product ideas for <strong>{{.Topic}}</strong> in your digest.</p>
  {{else}}
  <h1>You've unsubscribed</h1>
  <p>You will no longer receive ideas for <strong>{{.Topic}}</strong>.</p>
  {{end}}
</body>
</html>
`))

// DigestSubject is the subject line for a digest of n concepts.
func DigestSubject(n int) string {
	return fmt.Sprintf("Your Daily Idea Digest - %d New Ideas", n)
}

// BuildDigestHTML renders concepts as an HTML email body. Text is escaped.
func BuildDigestHTML(concepts []domain.Concept, topic string) (string, error) {
	var buf bytes.Buffer
	err := digestTemplate.Execute(&buf, struct {
		Concepts []domain.Concept
		Topic    string
	}{Concepts: concepts, Topic: topic})
	if err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}
	return buf.String(), nil
}

// ConfirmationSubject is the subject of a subscription change email.
func ConfirmationSubject(subscribed bool) string {
	if subscribed {
		return "You're subscribed to idea updates!"
	}
	return "You've unsubscribed from idea updates"
}

// BuildConfirmationHTML renders the subscription change email.
func BuildConfirmationHTML(subscribed bool, topic string) (string, error) {
	var buf bytes.Buffer
	err := confirmationTemplate.Execute(&buf, struct {
		Subscribed bool
		Topic      string
	}{Subscribed: subscribed, Topic: topic})
	if err != nil {
		return "", fmt.Errorf("render confirmation: %w", err)
	}
	return buf.String(), nil
}
