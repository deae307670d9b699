package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func notifyCmd() *cobra.Command {
	var (
		message string
		numbers []string
	)

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send one SMS to a list of numbers",
		Example: `  donorctl notify --message "Blood camp at City Hospital, 10am" \
    --numbers 9876543210,9123456789`,
		RunE: func(c *cobra.Command, _ []string) error {
			a, logger, err := bootstrap(c.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			defer logger.Sync() //nolint:errcheck

			outcome, err := a.Notifier.NotifyRecipients(c.Context(), numbers, message)
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(c.OutOrStdout(), outcome)
			}

			tw := newTabWriter(c.OutOrStdout())
			tw.writef("Provider:\t%s\n", outcome.Provider)
			tw.writef("Requested:\t%d\n", outcome.RequestedCount)
			tw.writef("Valid:\t%d\n", outcome.ValidCount)
			tw.writef("Sent:\t%d\n", outcome.SentCount)
			if len(outcome.InvalidNumbers) > 0 {
				tw.writef("Invalid:\t%s\n", strings.Join(outcome.InvalidNumbers, ", "))
			}
			if len(outcome.OverCapNumbers) > 0 {
				tw.writef("Over cap:\t%d\n", len(outcome.OverCapNumbers))
			}
			return tw.finish()
		},
	}

	cmd.Flags().StringVar(&message, "message", "", "message body")
	cmd.Flags().StringSliceVar(&numbers, "numbers", nil, "recipient phone numbers (comma separated or repeated)")
	_ = cmd.MarkFlagRequired("message")
	_ = cmd.MarkFlagRequired("numbers")

	return cmd
}

func refreshPriorityCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "refresh-priority",
		Short:   "Recompute donor eligibility and priority scores",
		Example: `  donorctl refresh-priority`,
		RunE: func(c *cobra.Command, _ []string) error {
			a, logger, err := bootstrap(c.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			defer logger.Sync() //nolint:errcheck

			updated, err := a.Matcher.RefreshPriorityScores(c.Context())
			if _, printErr := fmt.Fprintf(c.OutOrStdout(), "Refreshed %d donors.\n", updated); printErr != nil {
				return printErr
			}
			return err
		},
	}
}
