package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	mcpserver "github.com/gnana997/nextscope/pkg/mcp"
	"github.com/gnana997/nextscope/pkg/devserver"
	"github.com/gnana997/nextscope/pkg/mcplog"
	"github.com/gnana997/nextscope/pkg/watcher"
)

// callLogPath resolves the call log file against the project root.
func (a *app) callLogPath(root string) string {
	path := a.cfg.MCP.LogFile
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// startWatcher keeps the scanner cache in step with the project.
func (a *app) startWatcher(root string, onChange func([]string)) (*watcher.Watcher, error) {
	w, err := watcher.New(a.scanner(), a.cfg.WatcherOptions(a.log, onChange))
	if err != nil {
		return nil, err
	}
	if err := w.Start(root); err != nil {
		_ = w.Stop()
		return nil, err
	}
	return w, nil
}

func newServeCmd(a *app) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdin/stdout",
		Long: `Start the MCP server on stdin/stdout. Every tool call is appended to the
call log (mcp.log_file) when one is configured.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := a.root()
			if err != nil {
				return err
			}
			calls, err := mcplog.NewLogger(a.callLogPath(root))
			if err != nil {
				return err
			}
			defer calls.Close()

			if watch {
				w, err := a.startWatcher(root, nil)
				if err != nil {
					return err
				}
				defer w.Stop()
			}

			srv := mcpserver.NewServer(a.scanner(), root, calls)
			a.log.Info("mcp server starting", "root", root, "tools", len(srv.ToolNames()))
			return srv.ServeStdio()
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", true, "drop cached analyses when project files change")
	return cmd
}

func newDevCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Serve discoveries over a WebSocket and push file changes",
		Long: `Serve discoveries to editor and browser tooling over a WebSocket at /ws.

Clients send {"id": "1", "action": "discoverStrategies"} and receive
{"type": "response", "id": "1", "success": true, "payload": ...}. When project
files change, every client receives {"type": "changed", "payload": {"paths": [...]}}.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := a.root()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = a.cfg.Dev.Addr
			}
			calls, err := mcplog.NewLogger(a.callLogPath(root))
			if err != nil {
				return err
			}
			defer calls.Close()

			opts := a.cfg.DevServerOptions(a.log)
			opts.Calls = calls
			srv := devserver.New(a.scanner(), root, opts)

			w, err := a.startWatcher(root, srv.Broadcast)
			if err != nil {
				return err
			}
			defer w.Stop()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "nextscope dev server on ws://%s/ws (root %s)\n", addr, root)
			if err := srv.ListenAndServe(ctx, addr); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: dev.addr from config)")
	return cmd
}
