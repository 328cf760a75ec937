package domain

import (
	"strings"
	"time"
)

// DefaultTopic is used by scheduled runs and by requests that omit a topic.
const DefaultTopic = "entrepreneur"

// Topic is a tracked discussion source. LastSyncedAt is the only signal
// observers use to tell that a run finished.
type Topic struct {
	Name         string
	Category     string
	LastSyncedAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeTopic trims and lower-cases a topic name, falling back to DefaultTopic.
func NormalizeTopic(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimPrefix(name, "r/")
	if name == "" {
		return DefaultTopic
	}
	return name
}
