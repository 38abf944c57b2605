package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/touchline/internal/harness"
)

// TimelineEntry is one event of the timeline output.
type TimelineEntry struct {
	Minute     int       `json:"minute"`
	Kind       string    `json:"kind"`
	ID         string    `json:"id"`
	Summary    string    `json:"summary"`
	RecordedAt time.Time `json:"recorded_at"`
}

// TimelineResult is the timeline of one match.
type TimelineResult struct {
	MatchID  string          `json:"match_id"`
	Status   string          `json:"status"`
	Duration int             `json:"duration"`
	Events   []TimelineEntry `json:"events"`
}

// NewTimelineCommand creates the timeline command.
func NewTimelineCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "timeline <match-id>",
		Short: "Print the ordered events of a match",
		Long: `Print the events of a match in timeline order: minute, then the time
the event was recorded.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTimeline(rootOpts, args[0], cmd)
		},
	}
}

func runTimeline(opts *RootOptions, matchID string, cmd *cobra.Command) error {
	ctx := commandContext(cmd.Context())
	e, err := openEnv(ctx, opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer e.close()

	g, err := e.store.Game(ctx, matchID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load match", err)
	}
	tl, err := e.engine.Timeline(ctx, matchID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build timeline", err)
	}

	result := TimelineResult{
		MatchID:  matchID,
		Status:   string(g.Status),
		Duration: g.Duration(),
		Events:   make([]TimelineEntry, 0, len(tl)),
	}
	for _, ev := range tl {
		result.Events = append(result.Events, TimelineEntry{
			Minute:     ev.EventMinute(),
			Kind:       string(ev.Kind()),
			ID:         ev.EventID(),
			Summary:    harness.Summarize(ev),
			RecordedAt: ev.Recorded(),
		})
	}

	return newFormatter(opts, cmd).Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "Match %s (%s, %d minutes)\n", result.MatchID, result.Status, result.Duration)
		if len(result.Events) == 0 {
			fmt.Fprintln(w, "No events recorded.")
			return
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, ev := range result.Events {
			fmt.Fprintf(tw, "%3d'\t%s\t%s\t%s\n", ev.Minute, ev.Kind, ev.Summary, ev.ID)
		}
		tw.Flush()
	})
}
