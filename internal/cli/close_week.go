package cli

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"
)

// closeWeekOutput is the JSON printed by close-week.
type closeWeekOutput struct {
	Processed  bool     `json:"processed"`
	WeekID     string   `json:"weekId,omitempty"`
	Defaulters []string `json:"defaulters,omitempty"`
	FineAmount int64    `json:"fineAmount,omitempty"`
}

// CloseWeekOptions holds flags for the close-week command.
type CloseWeekOptions struct {
	*RootOptions
	GroupID string
}

// NewCloseWeekCommand creates the close-week command.
func NewCloseWeekCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CloseWeekOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "close-week",
		Short: "Close the previous ISO week for a group",
		Long: `Close the previous ISO week for a group if it is still open.

Participants without approved evidence for that week are fined the group's
current fine amount. Running it again for the same week changes nothing.

Example:
  multas close-week --db ./data/multas.db --group 3f6c...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCloseWeek(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.GroupID, "group", "g", "", "group ID (required)")
	_ = cmd.MarkFlagRequired("group")

	return cmd
}

func runCloseWeek(cmd *cobra.Command, opts *CloseWeekOptions) error {
	if opts.GroupID == "" {
		return WrapExitError(ExitConfig, "invalid flags", errors.New("--group must not be empty"))
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.engine.CloseWeekIfDue(ctx, opts.GroupID)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to close week", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(closeWeekOutput{
		Processed:  result.Processed,
		WeekID:     result.WeekID,
		Defaulters: result.Defaulters,
		FineAmount: result.FineAmount,
	})
}
