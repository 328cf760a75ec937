package domain

import "time"

// RunState enumerates orchestrator milestones.
type RunState string

const (
	StatePending     RunState = "pending"
	StateEnsureTopic RunState = "ensure_topic"
	StateFetching    RunState = "fetching"
	StateEmptyExit   RunState = "empty_exit"
	StateAnalyzing   RunState = "analyzing"
	StateGenerating  RunState = "generating"
	StatePersisting  RunState = "persisting"
	StateNotifying   RunState = "notifying"
	StateStamping    RunState = "stamping"
	StateDone        RunState = "done"
	StateFailed      RunState = "failed"
)

// Delivery is the outcome of one digest dispatch.
type Delivery struct {
	SubscriberID string `json:"subscriber_id"`
	Email        string `json:"email"`
	Sent         bool   `json:"sent"`
	MessageID    string `json:"message_id,omitempty"`
	Error        string `json:"error,omitempty"`
}

// NotifyReport aggregates dispatch results.
type NotifyReport struct {
	Sent       int        `json:"sent"`
	Failed     int        `json:"failed"`
	Deliveries []Delivery `json:"deliveries"`
}

// RunSummary is returned by every workflow run.
type RunSummary struct {
	RunID             string      `json:"run_id"`
	Topic             string      `json:"topic"`
	ItemsFetched      int         `json:"items_fetched"`
	Origin            FetchOrigin `json:"origin,omitempty"`
	PainPointsFound   int         `json:"pain_points_found"`
	ConceptsGenerated int         `json:"concepts_generated"`
	ConceptsInserted  int         `json:"concepts_inserted"`
	EmailsSent        int         `json:"emails_sent"`
	EmailsFailed      int         `json:"emails_failed"`
	Deliveries        []Delivery  `json:"deliveries,omitempty"`
	Message           string      `json:"message,omitempty"`
	State             RunState    `json:"state"`
	StartedAt         time.Time   `json:"started_at"`
	SyncedAt          *time.Time  `json:"synced_at,omitempty"`
}
