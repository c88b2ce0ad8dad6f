// Package cli implements the ingestctl command line client.
package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

const (
	defaultServer  = "http://localhost:8080"
	defaultTimeout = 10 * time.Second
)

type rootOptions struct {
	server  string
	timeout time.Duration
}

func (o *rootOptions) client() (*Client, error) {
	return NewClient(o.server, o.timeout)
}

// NewRootCmd creates the ingestctl root command.
func NewRootCmd(ver string) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "ingestctl",
		Short:         "Submit ingestions and follow their progress",
		Version:       ver,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.server, "server", defaultServer, "ingestq server base URL")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", defaultTimeout, "HTTP request timeout")

	cmd.AddCommand(
		newSubmitCmd(opts),
		newStatusCmd(opts),
		newWatchCmd(opts),
	)
	return cmd
}

func parseIDs(values []string) ([]int64, error) {
	var ids []int64
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid id %q", part)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func printStatus(cmd *cobra.Command, status Status) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Ingestion %s: %s\n", status.IngestionID, status.Status)
	for _, batch := range status.Batches {
		ids := lo.Map(batch.IDs, func(id int64, _ int) string { return strconv.FormatInt(id, 10) })
		fmt.Fprintf(out, "  %-36s  %-12s  [%s]\n", batch.BatchID, batch.Status, strings.Join(ids, ", "))
	}
}
