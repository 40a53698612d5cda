package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gnana997/nextscope/pkg/mcplog"
)

func newCallsCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "calls",
		Short: "Summarize the MCP and dev server call log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file == "" {
				root, err := a.root()
				if err != nil {
					return err
				}
				file = a.callLogPath(root)
			}
			if file == "" {
				return fmt.Errorf("no call log configured (set mcp.log_file or pass --file)")
			}

			entries, err := mcplog.ReadLog(file)
			if err != nil {
				return err
			}
			summary := mcplog.Summarize(entries)
			return render(cmd.OutOrStdout(), a.format, summary, func(w io.Writer) {
				printCalls(w, file, len(entries), summary)
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "call log to read (default: mcp.log_file)")
	return cmd
}

func printCalls(w io.Writer, file string, total int, summary []mcplog.ToolSummary) {
	printHeader(w, fmt.Sprintf("Calls (%d)", total))
	fmt.Fprintln(w, faintStyle.Render("  "+file))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s %s %s %s %s %s\n",
		column("TOOL", 22), column("CALLS", 6), column("ERRORS", 7),
		column("AVG MS", 7), column("MAX MS", 7), "BYTES")
	for _, s := range summary {
		errs := fmt.Sprint(s.Errors)
		if s.Errors > 0 {
			errs = errorStyle.Render(errs)
		}
		fmt.Fprintf(w, "  %s %s %s %s %s %d\n",
			column(s.Tool, 22), column(fmt.Sprint(s.Calls), 6), column(errs, 7),
			column(fmt.Sprint(s.AvgDurationMs), 7), column(fmt.Sprint(s.MaxDurationMs), 7),
			s.ResponseBytes)
	}
}
