package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/JonMunkholm/restaurant-etl/internal/core"
)

// fileReport is one file's outcome as printed by import and inspect.
type fileReport struct {
	Path   string            `json:"path"`
	Result *core.Result      `json:"result,omitempty"`
	Error  *core.UserMessage `json:"error,omitempty"`
	Detail string            `json:"detail,omitempty"`
}

// maxPrintedRowErrors bounds the per-row lines in human output.
const maxPrintedRowErrors = 20

var (
	okStyle    = color.New(color.FgGreen, color.Bold)
	warnStyle  = color.New(color.FgYellow)
	errStyle   = color.New(color.FgRed, color.Bold)
	labelStyle = color.New(color.FgCyan)
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printReport(w io.Writer, r fileReport) {
	labelStyle.Fprintf(w, "%s\n", r.Path)

	if r.Result != nil {
		res := r.Result
		fmt.Fprintf(w, "  entity:  %s\n", res.Entity)
		fmt.Fprintf(w, "  rows:    %d\n", res.Rows)
		fmt.Fprintf(w, "  columns: %s\n", strings.Join(res.Columns, ", "))
		printValidation(w, res.Validation)
		if res.Load != nil {
			printLoad(w, res.Load)
		}
	}

	if r.Error != nil {
		errStyle.Fprintf(w, "  error: %s (%s)\n", r.Error.Message, r.Error.Code)
		if r.Error.Action != "" {
			fmt.Fprintf(w, "  %s\n", r.Error.Action)
		}
	}
}

func printValidation(w io.Writer, report core.ValidationReport) {
	if report.Count() == 0 {
		okStyle.Fprintln(w, "  validation: no findings")
		return
	}
	warnStyle.Fprintf(w, "  validation: %d findings\n", report.Count())
	for _, cat := range core.IssueCategories {
		for _, finding := range report[cat] {
			fmt.Fprintf(w, "    [%s] %s\n", cat, finding)
		}
	}
}

func printLoad(w io.Writer, out *core.LoadOutcome) {
	fmt.Fprintf(w, "  total: %d  ", out.Total)
	okStyle.Fprintf(w, "inserted: %d  ", out.Successful)
	warnStyle.Fprintf(w, "skipped: %d  ", out.Skipped)
	errStyle.Fprintf(w, "failed: %d\n", out.Failed)

	for i, e := range out.Errors {
		if i == maxPrintedRowErrors {
			fmt.Fprintf(w, "    ... %d more\n", len(out.Errors)-i+out.ErrorsTruncated)
			break
		}
		fmt.Fprintf(w, "    row %d %s: %s\n", e.Row, e.Status, e.Error)
	}
	if len(out.Errors) <= maxPrintedRowErrors && out.ErrorsTruncated > 0 {
		fmt.Fprintf(w, "    ... %d more\n", out.ErrorsTruncated)
	}

	if out.FatalError != "" {
		errStyle.Fprintf(w, "  fatal: %s\n", out.FatalError)
	}
}

func printFailureTotal(w io.Writer, failed, total int) {
	errStyle.Fprintf(w, "%d of %d files failed\n", failed, total)
}
