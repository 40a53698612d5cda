package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gnana997/nextscope/pkg/routes"
	"github.com/gnana997/nextscope/pkg/scanner"
	"github.com/gnana997/nextscope/pkg/strategy"
)

func newRoutesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List page, layout and middleware files with their URLs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := a.root()
			if err != nil {
				return err
			}
			infos, err := a.scanner().DiscoverRoutes(root)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), a.format, infos, func(w io.Writer) {
				printRoutes(w, infos)
			})
		},
	}
}

func printRoutes(w io.Writer, infos []routes.RouteInfo) {
	printHeader(w, fmt.Sprintf("Routes (%d)", len(infos)))
	if len(infos) == 0 {
		fmt.Fprintln(w, faintStyle.Render("  (none)"))
		return
	}
	for _, info := range infos {
		fmt.Fprintf(w, "  %s %s %s %s\n",
			column(string(info.Router), 10),
			column(string(info.Role), 12),
			column(orDash(info.URL), 28),
			faintStyle.Render(info.Path))
	}
}

func newStrategyCmd(a *app) *cobra.Command {
	var only string
	var quiet bool

	cmd := &cobra.Command{
		Use:     "strategy",
		Aliases: []string{"strategies"},
		Short:   "Classify every route as SSG, ISR or SSR",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := a.root()
			if err != nil {
				return err
			}
			report, err := a.scanner().DiscoverStrategies(root)
			if err != nil {
				return err
			}
			if only != "" {
				report = filterStrategy(report, strategy.Strategy(strings.ToUpper(only)))
			}
			return render(cmd.OutOrStdout(), a.format, report, func(w io.Writer) {
				printStrategies(w, report, !quiet)
			})
		},
	}

	cmd.Flags().StringVar(&only, "only", "", "show only one strategy: SSG, ISR or SSR")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "omit the rationale lines")
	return cmd
}

func filterStrategy(report *scanner.StrategyReport, s strategy.Strategy) *scanner.StrategyReport {
	out := *report
	out.Files = nil
	for _, f := range report.Files {
		if f.Strategy == s {
			out.Files = append(out.Files, f)
		}
	}
	return &out
}

func printStrategies(w io.Writer, report *scanner.StrategyReport, rationale bool) {
	printHeader(w, fmt.Sprintf("Rendering strategies (%d)", len(report.Files)))
	for _, f := range report.Files {
		fmt.Fprintf(w, "  %s %s\n", column(badge(f.Strategy), 4), f.Path)
		if !rationale {
			continue
		}
		for _, line := range f.Rationale {
			fmt.Fprintf(w, "       %s\n", faintStyle.Render(line))
		}
	}

	counts := make(map[strategy.Strategy]int)
	for _, f := range report.Files {
		counts[f.Strategy]++
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s %d   %s %d   %s %d\n",
		badge(strategy.Static), counts[strategy.Static],
		badge(strategy.Incremental), counts[strategy.Incremental],
		badge(strategy.ServerRendered), counts[strategy.ServerRendered])

	printSkipped(w, report.Skipped)
	printStats(w, report.Stats)
}

func printSkipped(w io.Writer, skipped []scanner.SkippedFile) {
	if len(skipped) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Skipped (%d)", len(skipped))))
	for _, s := range skipped {
		fmt.Fprintf(w, "  %s  %s\n", s.Path, errorStyle.Render(s.Error))
	}
}

func printStats(w io.Writer, st scanner.ScanStats) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, faintStyle.Render(fmt.Sprintf(
		"  %d discovered, %d analyzed, %d skipped in %dms (cache: %d hits, %d misses)",
		st.FilesDiscovered, st.FilesAnalyzed, st.FilesSkipped, st.TotalTimeMs,
		st.Cache.Hits, st.Cache.Misses)))
}

func newAPICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "api",
		Short: "List API handlers with their endpoints and HTTP methods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := a.root()
			if err != nil {
				return err
			}
			report, err := a.scanner().DiscoverAPIRoutes(root)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), a.format, report, func(w io.Writer) {
				printHeader(w, fmt.Sprintf("API routes (%d)", len(report.Routes)))
				for _, r := range report.Routes {
					methods := strings.Join(r.Methods, ",")
					if methods == "" {
						methods = "*"
					}
					fmt.Fprintf(w, "  %s %s %s\n",
						column(methods, 18), column(r.Endpoint, 28), faintStyle.Render(r.Path))
				}
				printSkipped(w, report.Skipped)
				printStats(w, report.Stats)
			})
		},
	}
}

func newAssetsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "assets",
		Short: "List public files and app metadata assets with their URLs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := a.root()
			if err != nil {
				return err
			}
			assets, err := a.scanner().DiscoverAssets(root)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), a.format, assets, func(w io.Writer) {
				printHeader(w, fmt.Sprintf("Assets (%d)", len(assets)))
				for _, as := range assets {
					fmt.Fprintf(w, "  %s %s %s %s\n",
						column(string(as.Type), 13),
						column(orDash(as.URL), 30),
						column(humanSize(as.Size), 9),
						faintStyle.Render(as.Path))
				}
			})
		},
	}
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%cB", float64(n)/float64(div), "KMGTPE"[exp])
}

func newPackageCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "package",
		Short: "Show the project's package.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := a.root()
			if err != nil {
				return err
			}
			manifest, err := scanner.ReadPackageJSON(root)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), a.format, manifest, func(w io.Writer) {
				printPackage(w, manifest)
			})
		},
	}
}

func printPackage(w io.Writer, manifest map[string]any) {
	name, _ := manifest["name"].(string)
	ver, _ := manifest["version"].(string)
	printHeader(w, strings.TrimSpace(name+" "+ver))
	for _, section := range []string{"scripts", "dependencies", "devDependencies"} {
		entries, ok := manifest[section].(map[string]any)
		if !ok || len(entries) == 0 {
			continue
		}
		fmt.Fprintf(w, "  %s\n", headerStyle.Render(section))
		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "    %s %v\n", column(k, 24), entries[k])
		}
	}
}

func newAnalyzeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <file>",
		Short: "Analyze one file: strategy, rationale, features and route",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := a.root()
			if err != nil {
				return err
			}
			report, err := a.scanner().AnalyzeFile(root, args[0])
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), a.format, report, func(w io.Writer) {
				printFileReport(w, report)
			})
		},
	}
}

func printFileReport(w io.Writer, r *scanner.FileReport) {
	printHeader(w, r.Path)
	fmt.Fprintf(w, "  Strategy  %s\n", badge(r.Strategy))
	if r.PathFacts != nil {
		fmt.Fprintf(w, "  Router    %s\n", r.PathFacts.Router)
		fmt.Fprintf(w, "  Role      %s\n", r.PathFacts.Role)
	}
	if r.Route != nil {
		fmt.Fprintf(w, "  URL       %s\n", orDash(r.Route.URL))
	}
	if len(r.Methods) > 0 {
		fmt.Fprintf(w, "  Methods   %s\n", strings.Join(r.Methods, ", "))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("  Rationale"))
	for _, line := range r.Rationale {
		fmt.Fprintf(w, "    %s\n", line)
	}
	if len(r.Imports) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headerStyle.Render("  Imports"))
		for _, imp := range r.Imports {
			fmt.Fprintf(w, "    %s\n", imp)
		}
	}
}

func newSnapshotCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Run every discovery at once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := a.root()
			if err != nil {
				return err
			}
			snap, err := a.scanner().DiscoverAll(cmd.Context(), root)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), a.format, snap, func(w io.Writer) {
				printHeader(w, "Project "+snap.Root)
				fmt.Fprintf(w, "  %s %d\n", column("Routes", 12), len(snap.Routes))
				fmt.Fprintf(w, "  %s %d\n", column("Strategies", 12), len(snap.Strategies.Files))
				fmt.Fprintf(w, "  %s %d\n", column("API routes", 12), len(snap.API.Routes))
				fmt.Fprintf(w, "  %s %d\n", column("Assets", 12), len(snap.Assets))
				fmt.Fprintf(w, "  %s %d\n", column("Env files", 12), len(snap.Env))
				if snap.Package == nil {
					fmt.Fprintf(w, "  %s %s\n", column("package.json", 12), faintStyle.Render("missing"))
				}
				fmt.Fprintln(w)
				printStrategies(w, snap.Strategies, false)
			})
		},
	}
}
