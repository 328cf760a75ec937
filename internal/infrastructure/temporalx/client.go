package temporalx

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
)

// ClientOptions configures the connection to the Temporal frontend.
type ClientOptions struct {
	Address   string
	Namespace string
	// MaxWait bounds how long Dial keeps retrying an unreachable server.
	MaxWait time.Duration
}

// Dial connects to Temporal, retrying with backoff until MaxWait elapses.
func Dial(ctx context.Context, opts ClientOptions, log *slog.Logger) (client.Client, error) {
	if opts.Address == "" {
		return nil, fmt.Errorf("temporal address is not configured")
	}
	if log == nil {
		log = slog.Default()
	}
	copts := client.Options{
		HostPort:  opts.Address,
		Namespace: opts.Namespace,
		Logger:    tlog.NewStructuredLogger(log.With("component", "temporal")),
	}

	deadline := time.Now().Add(opts.MaxWait)
	for attempt := 1; ; attempt++ {
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		c, err := client.DialContext(dialCtx, copts)
		cancel()
		if err == nil {
			log.Info("connected to temporal", "address", opts.Address, "namespace", opts.Namespace, "attempts", attempt)
			return c, nil
		}
		if opts.MaxWait <= 0 || time.Now().After(deadline) || ctx.Err() != nil {
			return nil, fmt.Errorf("temporal dial failed (address=%s namespace=%s): %w", opts.Address, opts.Namespace, err)
		}
		log.Warn("temporal not reachable, retrying", "address", opts.Address, "attempt", attempt, "err", err)

		wait := backoff(250*time.Millisecond, 5*time.Second, attempt)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func backoff(base, max time.Duration, attempt int) time.Duration {
	d := base
	for i := 1; i < attempt && d < max; i++ {
		d *= 2
	}
	if d > max {
		return max
	}
	return d
}
