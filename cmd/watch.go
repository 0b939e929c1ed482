package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tacit/wm/internal/watch"
)

var (
	watchTranscript string
	watchSessionID  string
	watchPoll       time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a transcript and extract incrementally on change",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := watchTranscript
		if path == "" {
			path = os.Getenv("CLAUDE_TRANSCRIPT_PATH")
		}

		w, err := watch.New(watch.Config{
			TranscriptPath: path,
			SessionID:      watchSessionID,
			PollInterval:   watchPoll,
		})
		if err != nil {
			return err
		}
		defer w.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return w.Run(ctx)
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchTranscript, "transcript", "", "path to transcript file")
	watchCmd.Flags().StringVar(&watchSessionID, "session-id", "", "session ID for session-scoped extraction")
	watchCmd.Flags().DurationVar(&watchPoll, "poll", 30*time.Second, "poll interval fallback")
	rootCmd.AddCommand(watchCmd)
}
