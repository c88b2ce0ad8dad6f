package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSubmitCmd(opts *rootOptions) *cobra.Command {
	var (
		rawIDs   []string
		priority string
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit record ids for ingestion",
		Example: `  # Submit five ids at high priority
  ingestctl submit --ids 1,2,3,4,5 --priority HIGH`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ids, err := parseIDs(rawIDs)
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				return errors.New("at least one id is required")
			}
			client, err := opts.client()
			if err != nil {
				return err
			}

			id, err := client.Submit(cmd.Context(), ids, strings.ToUpper(strings.TrimSpace(priority)))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&rawIDs, "ids", nil, "Comma separated record ids")
	cmd.Flags().StringVar(&priority, "priority", "MEDIUM", "Priority: HIGH, MEDIUM or LOW")
	_ = cmd.MarkFlagRequired("ids")

	return cmd
}
