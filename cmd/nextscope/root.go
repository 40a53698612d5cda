package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gnana997/nextscope/pkg/config"
	"github.com/gnana997/nextscope/pkg/scanner"
)

// app carries state shared by every command of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	format  string

	cfg  *config.Config
	log  *slog.Logger
	scan *scanner.Scanner
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	cmd := &cobra.Command{
		Use:   "nextscope",
		Short: "nextscope - route and rendering strategy analysis for Next.js projects",
		Long: `nextscope reads a Next.js project (App Router, Pages Router or both) and
reports its routes, API handlers, metadata assets and env files, and decides
for every route whether it renders as SSG, ISR or SSR, with the reasons.

The same discoveries are served to AI agents over MCP (serve) and to editor
tooling over a WebSocket (dev).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			a.close()
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default: .nextscope.yaml)")
	pf.String("root", ".", "Next.js project root")
	pf.StringVarP(&a.format, "format", "f", formatText, "output format: text, json or yaml")
	pf.String("log-level", "info", "log level: debug, info, warn or error")
	pf.String("log-format", "text", "log format: text or json")

	bindFlag := func(key, flag string) {
		if err := a.v.BindPFlag(key, pf.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("failed to bind %s flag: %v", flag, err))
		}
	}
	bindFlag("root", "root")
	bindFlag("log.level", "log-level")
	bindFlag("log.format", "log-format")

	cmd.AddCommand(
		newRoutesCmd(a),
		newStrategyCmd(a),
		newAPICmd(a),
		newAssetsCmd(a),
		newEnvCmd(a),
		newPackageCmd(a),
		newAnalyzeCmd(a),
		newSnapshotCmd(a),
		newServeCmd(a),
		newDevCmd(a),
		newWatchCmd(a),
		newCallsCmd(a),
		newSetupCmd(a),
		newVersionCmd(),
	)
	return cmd
}

func (a *app) load() error {
	if err := validFormat(a.format); err != nil {
		return err
	}
	cfg, err := config.LoadWith(a.v, a.cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg
	a.log = cfg.Logger()
	return nil
}

// scanner returns the invocation's scanner, creating it on first use.
func (a *app) scanner() *scanner.Scanner {
	if a.scan == nil {
		a.scan = scanner.New(a.cfg.ScannerOptions(a.log))
	}
	return a.scan
}

// root returns the absolute project root.
func (a *app) root() (string, error) {
	root, err := filepath.Abs(a.cfg.Root)
	if err != nil {
		return "", fmt.Errorf("resolve root %s: %w", a.cfg.Root, err)
	}
	return root, nil
}

func (a *app) close() {
	if a.scan != nil {
		_ = a.scan.Close()
		a.scan = nil
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "nextscope %s\n", version)
			return nil
		},
	}
}
