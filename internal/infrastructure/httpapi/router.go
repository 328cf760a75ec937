package httpapi

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"IdeaScanner/internal/ports"
)

// HealthChecker reports store latency and the number of stored concepts.
type HealthChecker interface {
	Health(ctx context.Context) (time.Duration, int, error)
}

// Deps wires the handlers to the application.
type Deps struct {
	Dispatcher     ports.Dispatcher
	Topics         ports.TopicStore
	Concepts       ports.ConceptStore
	Subscribers    ports.SubscriberStore
	Health         HealthChecker
	Mailer         ports.Mailer
	From           string
	DefaultTopic   string
	AllowedOrigins []string
	ServiceName    string
	Logger         *slog.Logger
}

// NewRouter builds the gin engine with CORS, tracing and request logging.
func NewRouter(deps Deps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.ServiceName == "" {
		deps.ServiceName = "ideascanner"
	}
	h := &handlers{deps: deps, logger: deps.Logger.With("component", "http")}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(deps.ServiceName))
	router.Use(requestLogger(h.logger))
	if len(deps.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins: deps.AllowedOrigins,
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Content-Type", "X-Requested-With"},
			MaxAge:       12 * time.Hour,
		}))
	}

	router.GET("/healthcheck", healthCheck)
	api := router.Group("/api")
	{
		api.POST("/sync", h.triggerSync)
		api.GET("/topics/:name", h.getTopic)
		api.GET("/ideas", h.listIdeas)
		api.POST("/subscriptions", h.toggleSubscription)
		api.GET("/health/db", h.dbHealth)
	}
	return router
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		log.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(started),
		)
	}
}
