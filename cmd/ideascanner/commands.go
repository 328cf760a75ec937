package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"IdeaScanner/internal/app"
	"IdeaScanner/internal/domain"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scheduled syncs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.Application) error {
				return a.Serve(cmd.Context())
			})
		},
	}
}

func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Poll the Temporal task queue (mode.workflow: temporal)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.Application) error {
				return a.Worker(cmd.Context())
			})
		},
	}
}

func syncCmd() *cobra.Command {
	var (
		topic string
		async bool
	)
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync for a topic and print its summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withApp(ctx, func(a *app.Application) error {
				if topic == "" {
					topic = a.DefaultTopic()
				}
				runner := a.Dispatcher(ctx)
				if async {
					runID, err := runner.Trigger(ctx, topic)
					if err != nil {
						return err
					}
					fmt.Printf("triggered %s (%s), waiting for it to finish...\n", runID, domain.NormalizeTopic(topic))
					runner.Wait()
					return nil
				}
				summary, err := runner.RunNow(ctx, topic)
				if printErr := printJSON(summary); printErr != nil {
					return printErr
				}
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&topic, "topic", "t", "", "Topic to sync (default from config)")
	cmd.Flags().BoolVar(&async, "async", false, "Trigger in the background and only wait for completion")
	return cmd
}

func digestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "digest",
		Short: "Mail the ideas found in the last digest interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.Application) error {
				res, err := a.Digest(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(res)
			})
		},
	}
}

func syncMocksCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "sync-mocks",
		Short: "Snapshot the newest stored items into the mock items file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.Application) error {
				n, err := a.SyncMocks(cmd.Context(), limit)
				if err != nil {
					return err
				}
				fmt.Printf("wrote %d items\n", n)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum items to export")
	return cmd
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
