package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gnana997/nextscope/pkg/scanner"
)

func newEnvCmd(a *app) *cobra.Command {
	var showValues bool

	cmd := &cobra.Command{
		Use:   "env",
		Short: "List .env files and their variables",
		Long: `List the .env files at the project root and in src/.

Values are masked in text output unless --show-values is given. JSON and
YAML output always include values.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := a.root()
			if err != nil {
				return err
			}
			files, err := a.scanner().DiscoverEnv(root)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), a.format, files, func(w io.Writer) {
				printEnv(w, files, showValues)
			})
		},
	}
	cmd.Flags().BoolVar(&showValues, "show-values", false, "print values in text output")
	cmd.AddCommand(newEnvSetCmd(a))
	return cmd
}

func printEnv(w io.Writer, files []scanner.EnvFileInfo, showValues bool) {
	printHeader(w, fmt.Sprintf("Env files (%d)", len(files)))
	for _, f := range files {
		fmt.Fprintf(w, "  %s\n", headerStyle.Render(f.Path))
		keys := make([]string, 0, len(f.Values))
		for k := range f.Values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			value := faintStyle.Render("****")
			if showValues {
				value = f.Values[k]
			}
			fmt.Fprintf(w, "    %s=%s\n", k, value)
		}
	}
}

func newEnvSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <file> KEY=VALUE...",
		Short: "Set variables in an existing .env file",
		Example: `  nextscope env set .env.local API_URL=http://localhost:4000 DEBUG=1`,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := a.root()
			if err != nil {
				return err
			}
			updates, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			if err := scanner.UpdateEnv(root, args[0], updates); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %d variable(s) in %s\n", len(updates), args[0])
			return nil
		},
	}
}

func parseAssignments(args []string) (map[string]string, error) {
	updates := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("expected KEY=VALUE, got %q", arg)
		}
		updates[key] = value
	}
	return updates, nil
}
