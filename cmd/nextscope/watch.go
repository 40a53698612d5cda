package main

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gnana997/nextscope/pkg/scanner"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Re-run strategy discovery whenever project files change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := a.root()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			var previous map[string]scanner.FileStrategy
			run := func(changed []string) {
				report, err := a.scanner().DiscoverStrategies(root)
				if err != nil {
					a.log.Error("strategy discovery failed", "error", err)
					return
				}
				if previous == nil {
					_ = render(out, a.format, report, func(w io.Writer) {
						printStrategies(w, report, false)
					})
				} else {
					printStrategyChanges(out, previous, report, len(changed))
				}
				previous = indexStrategies(report)
			}

			run(nil)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// Events arrive on the watcher goroutine; the loop below serializes them.
			changes := make(chan []string, 16)
			w, err := a.startWatcher(root, func(paths []string) {
				select {
				case changes <- paths:
				case <-ctx.Done():
				}
			})
			if err != nil {
				return err
			}
			defer w.Stop()

			fmt.Fprintln(out, faintStyle.Render("watching "+root+" (ctrl-c to stop)"))
			for {
				select {
				case <-ctx.Done():
					return nil
				case paths := <-changes:
					run(paths)
				}
			}
		},
	}
}

func indexStrategies(report *scanner.StrategyReport) map[string]scanner.FileStrategy {
	out := make(map[string]scanner.FileStrategy, len(report.Files))
	for _, f := range report.Files {
		out[f.Path] = f
	}
	return out
}

// printStrategyChanges prints routes whose strategy changed, appeared or
// disappeared since the previous run.
func printStrategyChanges(w io.Writer, previous map[string]scanner.FileStrategy, report *scanner.StrategyReport, changed int) {
	stamp := time.Now().Format("15:04:05")
	current := indexStrategies(report)
	diffs := 0

	for _, f := range report.Files {
		old, ok := previous[f.Path]
		switch {
		case !ok:
			fmt.Fprintf(w, "%s  + %s %s\n", faintStyle.Render(stamp), column(badge(f.Strategy), 4), f.Path)
			diffs++
		case old.Strategy != f.Strategy:
			fmt.Fprintf(w, "%s  ~ %s -> %s %s\n", faintStyle.Render(stamp), badge(old.Strategy), column(badge(f.Strategy), 4), f.Path)
			diffs++
		}
	}
	for path, old := range previous {
		if _, ok := current[path]; !ok {
			fmt.Fprintf(w, "%s  - %s %s\n", faintStyle.Render(stamp), column(badge(old.Strategy), 4), path)
			diffs++
		}
	}
	for _, s := range report.Skipped {
		fmt.Fprintf(w, "%s  ! %s  %s\n", faintStyle.Render(stamp), s.Path, errorStyle.Render(s.Error))
	}
	if diffs == 0 && len(report.Skipped) == 0 {
		fmt.Fprintln(w, faintStyle.Render(fmt.Sprintf("%s  %d file(s) changed, no strategy changes", stamp, changed)))
	}
}
