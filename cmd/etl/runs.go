package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func (c *cli) newRunsCmd() *cobra.Command {
	var limit int32

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent import runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.settings()
			if err != nil {
				return err
			}
			if limit <= 0 {
				return fmt.Errorf("limit must be positive, got %d", limit)
			}

			ctx := cmd.Context()
			st, pool, err := openStore(ctx, s)
			if err != nil {
				return err
			}
			defer pool.Close()

			runs, err := st.ListImportRuns(ctx, limit)
			if err != nil {
				return err
			}
			if s.JSON {
				return printJSON(c.out, runs)
			}
			if len(runs) == 0 {
				warnStyle.Fprintln(c.out, "no import runs recorded")
				return nil
			}

			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "STARTED\tFILE\tENTITY\tTOTAL\tINSERTED\tSKIPPED\tFAILED\tDURATION")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
					r.StartedAt.Local().Format(time.DateTime), r.FileName, r.Entity,
					r.Total, r.Successful, r.Skipped, r.Failed, r.Duration.Round(time.Millisecond))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().Int32Var(&limit, "limit", 20, "number of runs to show")
	return cmd
}
