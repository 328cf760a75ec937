package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"IdeaScanner/internal/app"
	"IdeaScanner/internal/domain"
	"IdeaScanner/internal/logging"
	"IdeaScanner/internal/observer"
)

var (
	colorDim    = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#626262"}
	colorGreen  = lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#25D366"}
	colorYellow = lipgloss.AdaptiveColor{Light: "#B58900", Dark: "#E5C07B"}
	colorRed    = lipgloss.AdaptiveColor{Light: "#D70000", Dark: "#F25D94"}

	topicStyle = lipgloss.NewStyle().Bold(true).Width(16)
	dimStyle   = lipgloss.NewStyle().Foreground(colorDim)
	stateStyle = map[observer.State]lipgloss.Style{
		observer.StateIdle:     lipgloss.NewStyle().Foreground(colorDim),
		observer.StateSyncing:  lipgloss.NewStyle().Foreground(colorYellow),
		observer.StateComplete: lipgloss.NewStyle().Foreground(colorGreen).Bold(true),
		observer.StateStuck:    lipgloss.NewStyle().Foreground(colorRed).Bold(true),
	}
)

func watchCmd() *cobra.Command {
	var (
		server  string
		topic   string
		trigger bool
		follow  bool
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch a topic's last sync time through the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			topic = domain.NormalizeTopic(topic)
			reader := observer.NewHTTPReader(server, &http.Client{Timeout: 10 * time.Second})
			obs := observer.New(reader, observer.Options{Timeout: timeout, Logger: logging.New("warn", "text")})

			if follow {
				fmt.Println(dimStyle.Render(fmt.Sprintf("following %s every %s", topic, observer.IdleInterval)))
				err := obs.Follow(ctx, topic, printEvent)
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}

			baseline, err := obs.Baseline(ctx, topic)
			if err != nil {
				return err
			}
			if trigger {
				runID, err := reader.Trigger(ctx, topic)
				if err != nil {
					return err
				}
				fmt.Println(dimStyle.Render("triggered " + runID))
			}
			ev, err := obs.Watch(ctx, topic, baseline, printEvent)
			if err != nil {
				return err
			}
			printEvent(ev)
			if ev.State == observer.StateStuck {
				return fmt.Errorf("topic %s did not finish within %s", topic, timeout)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&server, "server", "http://localhost:8080", "API base URL")
	cmd.Flags().StringVarP(&topic, "topic", "t", "", "Topic to watch (default entrepreneur)")
	cmd.Flags().BoolVar(&trigger, "trigger", true, "Start a sync before watching")
	cmd.Flags().BoolVar(&follow, "follow", false, "Keep reporting every completed sync")
	cmd.Flags().DurationVar(&timeout, "timeout", observer.StuckTimeout, "Give up after this long")
	return cmd
}

func printEvent(ev observer.Event) {
	style, ok := stateStyle[ev.State]
	if !ok {
		style = dimStyle
	}
	line := topicStyle.Render(ev.Topic) + style.Render(string(ev.State))
	if ev.Value != nil {
		line += dimStyle.Render("  synced " + humanize.Time(*ev.Value))
	}
	if ev.Err != nil {
		line += dimStyle.Render("  (" + ev.Err.Error() + ")")
	}
	fmt.Println(line)
}

func statusCmd() *cobra.Command {
	var topic string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show topics and when they were last synced",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withApp(ctx, func(a *app.Application) error {
				var topics []domain.Topic
				if topic != "" {
					t, err := a.Store().GetTopic(ctx, topic)
					if err != nil {
						return err
					}
					topics = []domain.Topic{t}
				} else {
					var err error
					if topics, err = a.Store().ListTopics(ctx); err != nil {
						return err
					}
				}
				if len(topics) == 0 {
					fmt.Println(dimStyle.Render("no topics yet; run `ideascanner sync` first"))
					return nil
				}
				for _, t := range topics {
					synced := "never"
					if t.LastSyncedAt != nil {
						synced = humanize.Time(*t.LastSyncedAt)
					}
					fmt.Println(topicStyle.Render(t.Name) + dimStyle.Render(t.Category+"  ") + synced)
				}
				latency, concepts, err := a.Store().Health(ctx)
				if err != nil {
					return err
				}
				fmt.Println(dimStyle.Render(fmt.Sprintf("db ok in %s, %s concepts stored", latency.Round(time.Millisecond), humanize.Comma(int64(concepts)))))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&topic, "topic", "t", "", "Show a single topic")
	return cmd
}
