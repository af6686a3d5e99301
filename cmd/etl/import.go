package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/restaurant-etl/internal/core"
	"github.com/JonMunkholm/restaurant-etl/internal/logging"
)

// errRunFailed reports that at least one file did not import cleanly. The
// details were already printed.
var errRunFailed = errors.New("one or more imports failed")

func (c *cli) newImportCmd() *cobra.Command {
	var entity string

	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Import files into the database",
		Long: `Import runs every file through the full pipeline and loads the rows.

Files are processed one after another. A file that cannot be read, or whose
columns match no supported import, is reported and the remaining files are
still processed. The command exits non-zero if any file failed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.settings()
			if err != nil {
				return err
			}
			kind, err := core.ParseEntityKind(entity)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			st, pool, err := openStore(ctx, s)
			if err != nil {
				return err
			}
			defer pool.Close()

			service := core.NewService(st, st, s.serviceConfig())
			return c.runFiles(cmd, s, args, func(path string) (*core.Result, error) {
				return service.Import(ctx, core.Request{FileName: path, Entity: kind})
			})
		},
	}

	cmd.Flags().StringVar(&entity, "entity", "", "skip detection and import as this entity kind")
	return cmd
}

func (c *cli) newInspectCmd() *cobra.Command {
	var entity string

	cmd := &cobra.Command{
		Use:   "inspect FILE...",
		Short: "Read, classify and validate files without touching the database",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.settings()
			if err != nil {
				return err
			}
			kind, err := core.ParseEntityKind(entity)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			service := core.NewService(nil, nil, s.serviceConfig())
			return c.runFiles(cmd, s, args, func(path string) (*core.Result, error) {
				return service.Inspect(ctx, core.Request{FileName: path, Entity: kind})
			})
		},
	}

	cmd.Flags().StringVar(&entity, "entity", "", "skip detection and treat files as this entity kind")
	return cmd
}

// runFiles applies run to each path and prints every outcome.
func (c *cli) runFiles(cmd *cobra.Command, s settings, paths []string, run func(string) (*core.Result, error)) error {
	logger := logging.FromContext(cmd.Context())
	failed := 0

	var results []fileReport
	for _, path := range paths {
		res, err := run(path)
		if err != nil {
			failed++
			logger.Debug("file failed", "file", path, "error", err)
		} else if res.Load != nil && res.Load.FatalError != "" {
			failed++
		}
		report := fileReport{Path: path, Result: res}
		if err != nil {
			msg := core.MapError(err)
			report.Error = &msg
			report.Detail = err.Error()
		}

		if s.JSON {
			results = append(results, report)
			continue
		}
		printReport(c.out, report)
	}

	if s.JSON {
		if err := printJSON(c.out, results); err != nil {
			return err
		}
	}

	if failed > 0 {
		if !s.JSON {
			fmt.Fprintln(c.out)
			printFailureTotal(c.out, failed, len(paths))
		}
		return errRunFailed
	}
	return nil
}
