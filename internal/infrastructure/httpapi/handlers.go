package httpapi

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"IdeaScanner/internal/domain"
	"IdeaScanner/internal/ports"
	"IdeaScanner/internal/usecase"
)

const (
	defaultIdeasLimit = 20
	maxIdeasLimit     = 100
)

type handlers struct {
	deps   Deps
	logger *slog.Logger
}

type syncRequest struct {
	Topic string `json:"topic"`
}

type syncResponse struct {
	Status string `json:"status"`
	Topic  string `json:"topic"`
	RunID  string `json:"run_id"`
}

// triggerSync starts a run and returns without waiting for it.
func (h *handlers) triggerSync(c *gin.Context) {
	var req syncRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if req.Topic == "" {
		req.Topic = c.Query("topic")
	}
	if strings.TrimSpace(req.Topic) == "" {
		req.Topic = h.deps.DefaultTopic
	}
	topic := domain.NormalizeTopic(req.Topic)

	runID, err := h.deps.Dispatcher.Trigger(c.Request.Context(), topic)
	if err != nil {
		h.logger.Error("trigger failed", "topic", topic, "err", err)
		respondError(c, http.StatusInternalServerError, "trigger_failed", err)
		return
	}
	c.JSON(http.StatusAccepted, syncResponse{Status: "triggered", Topic: topic, RunID: runID})
}

type topicResponse struct {
	Name         string     `json:"name"`
	Category     string     `json:"category,omitempty"`
	LastSyncedAt *time.Time `json:"last_synced_at"`
}

// getTopic is the observer's read path. A missing topic is 404.
func (h *handlers) getTopic(c *gin.Context) {
	t, err := h.deps.Topics.GetTopic(c.Request.Context(), domain.NormalizeTopic(c.Param("name")))
	if errors.Is(err, domain.ErrNotFound) {
		respondError(c, http.StatusNotFound, "topic_not_found", err)
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "topic_lookup_failed", err)
		return
	}
	respondOK(c, topicResponse{Name: t.Name, Category: t.Category, LastSyncedAt: t.LastSyncedAt})
}

type ideaResponse struct {
	ID             int64     `json:"id"`
	RunID          string    `json:"run_id"`
	Topic          string    `json:"topic"`
	Title          string    `json:"title"`
	Pitch          string    `json:"pitch"`
	PainPoint      string    `json:"pain_point"`
	TargetAudience string    `json:"target_audience"`
	Score          int       `json:"score"`
	Band           string    `json:"band"`
	SourceIDs      []string  `json:"source_ids"`
	CreatedAt      time.Time `json:"created_at"`
}

func (h *handlers) listIdeas(c *gin.Context) {
	limit := defaultIdeasLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(c, http.StatusBadRequest, "invalid_limit", fmt.Errorf("limit must be a positive integer"))
			return
		}
		limit = min(n, maxIdeasLimit)
	}

	concepts, err := h.deps.Concepts.ConceptsSince(c.Request.Context(), time.Time{}, limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ideas_failed", err)
		return
	}
	out := make([]ideaResponse, 0, len(concepts))
	for _, cc := range concepts {
		ids := cc.SourceIDs
		if ids == nil {
			ids = []string{}
		}
		out = append(out, ideaResponse{
			ID: cc.ID, RunID: cc.RunID, Topic: cc.Topic, Title: cc.Title, Pitch: cc.Pitch,
			PainPoint: cc.PainPoint, TargetAudience: cc.TargetAudience, Score: cc.Score,
			Band: domain.ScoreBand(cc.Score), SourceIDs: ids, CreatedAt: cc.CreatedAt,
		})
	}
	respondOK(c, gin.H{"ideas": out})
}

type subscriptionRequest struct {
	Email string `json:"email" binding:"required,email"`
	Topic string `json:"topic" binding:"required"`
}

type subscriptionResponse struct {
	Success    bool     `json:"success"`
	Subscribed bool     `json:"subscribed"`
	Topics     []string `json:"topics"`
	Message    string   `json:"message"`
}

// toggleSubscription adds or removes a topic tag. The confirmation email is best effort.
func (h *handlers) toggleSubscription(c *gin.Context) {
	var req subscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	ctx := c.Request.Context()
	topic := strings.ToLower(strings.TrimSpace(req.Topic))

	sub, err := h.deps.Subscribers.EnsureSubscriber(ctx, req.Email)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "subscriber_failed", err)
		return
	}

	subscribed := !slices.Contains(sub.Topics, topic)
	var topics []string
	if subscribed {
		topics = append(slices.Clone(sub.Topics), topic)
	} else {
		topics = slices.DeleteFunc(slices.Clone(sub.Topics), func(t string) bool { return t == topic })
	}
	if topics == nil {
		topics = []string{}
	}
	if err := h.deps.Subscribers.SetSubscriberTopics(ctx, sub.ID, topics); err != nil {
		respondError(c, http.StatusInternalServerError, "subscription_update_failed", err)
		return
	}

	h.sendConfirmation(c, sub.Email, subscribed, topic)

	msg := fmt.Sprintf("Subscribed to %q", topic)
	if !subscribed {
		msg = fmt.Sprintf("Unsubscribed from %q", topic)
	}
	respondOK(c, subscriptionResponse{Success: true, Subscribed: subscribed, Topics: topics, Message: msg})
}

func (h *handlers) sendConfirmation(c *gin.Context, email string, subscribed bool, topic string) {
	if h.deps.Mailer == nil {
		return
	}
	html, err := usecase.BuildConfirmationHTML(subscribed, topic)
	if err == nil {
		_, err = h.deps.Mailer.Send(c.Request.Context(), ports.Email{
			From:    h.deps.From,
			To:      email,
			Subject: usecase.ConfirmationSubject(subscribed),
			HTML:    html,
		})
	}
	if err != nil {
		h.logger.Warn("confirmation email failed", "email", email, "err", err)
	}
}

func (h *handlers) dbHealth(c *gin.Context) {
	now := time.Now().UTC().Format(time.RFC3339)
	if h.deps.Health == nil {
		respondError(c, http.StatusServiceUnavailable, "health_unavailable", errors.New("no health checker configured"))
		return
	}
	latency, count, err := h.deps.Health.Health(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":    "error",
			"message":   err.Error(),
			"timestamp": now,
		})
		return
	}
	respondOK(c, gin.H{
		"status":    "ok",
		"timestamp": now,
		"latency":   fmt.Sprintf("%dms", latency.Milliseconds()),
		"count":     count,
	})
}
