package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wordpick/wordpick/pkg/history"
)

// NewOutcomeCommand builds the feedback command: after a fuzzing run, the
// operator attaches the observed hit count to the recommendation that
// produced it, which feeds future frequency adjustment.
func NewOutcomeCommand() *cobra.Command {
	var (
		entryID string
		hits    int
		failed  bool
		notes   string
	)

	cmd := &cobra.Command{
		Use:   "outcome",
		Short: "Attach a fuzzing outcome to a recorded recommendation",
		Example: `  wordpick outcome --entry-id 6f1c… --hits 42
  wordpick outcome --entry-id 6f1c… --failed --notes "target rate-limited"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := envFrom(cmd)
			if err != nil {
				return err
			}
			if env.store == nil {
				return fmt.Errorf("attaching outcomes needs the selection log; remove --no-history")
			}

			outcome := history.Outcome{
				HitCount:   hits,
				Successful: !failed,
				Notes:      notes,
				ObservedAt: time.Now().UTC(),
			}
			if err := env.store.AttachOutcome(cmd.Context(), entryID, outcome); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "outcome recorded for %s\n", entryID)
			return nil
		},
	}

	cmd.Flags().StringVar(&entryID, "entry-id", "", "Recommendation entry ID (required)")
	cmd.Flags().IntVar(&hits, "hits", 0, "Number of hits the wordlists produced")
	cmd.Flags().BoolVar(&failed, "failed", false, "Mark the fuzzing run as unsuccessful")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form operator notes")

	_ = cmd.MarkFlagRequired("entry-id")

	return cmd
}
