package domain

import "time"

// Score bounds shared by pain points and concepts.
const (
	MinScore = 0
	MaxScore = 100
)

// PainPoint is a candidate problem statement. It only lives for one run.
type PainPoint struct {
	Text      string   `json:"text"`
	Score     int      `json:"score"`
	SourceIDs []string `json:"source_ids"`
}

// ConceptDraft is what the generation stage produces before persistence.
type ConceptDraft struct {
	Title          string   `json:"title"`
	Pitch          string   `json:"pitch"`
	TargetAudience string   `json:"target_audience"`
	Score          int      `json:"score"`
	PainPoint      string   `json:"pain_point"`
	SourceIDs      []string `json:"source_ids"`
}

// Concept is a persisted product idea. Rows are never updated.
type Concept struct {
	ID             int64
	RunID          string
	Ordinal        int
	Topic          string
	Title          string
	Pitch          string
	PainPoint      string
	TargetAudience string
	Score          int
	SourceIDs      []string
	CreatedAt      time.Time
}

// ScoreBand describes a score qualitatively. Bands are advisory only.
func ScoreBand(score int) string {
	switch {
	case score > 70:
		return "strong"
	case score >= 50:
		return "niche"
	case score >= 30:
		return "moderate"
	default:
		return "weak"
	}
}

// Subscriber receives digests. Topics holds subscribed tags.
type Subscriber struct {
	ID        string
	Email     string
	Topics    []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AllTopicsTag subscribes to every concept regardless of topic.
const AllTopicsTag = "all"

// WantsAll reports whether the subscriber carries the "all" tag.
func (s Subscriber) WantsAll() bool {
	for _, t := range s.Topics {
		if t == AllTopicsTag {
			return true
		}
	}
	return false
}
