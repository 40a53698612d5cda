package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

// serverName is the key nextscope is registered under in agent configs.
const serverName = "nextscope"

type agentKind int

const (
	// cliAgent is registered through the agent's own "mcp add" command.
	cliAgent agentKind = iota
	// fileAgent is registered by editing a JSON config file.
	fileAgent
)

// agent describes how to find and register one AI agent.
type agent struct {
	id     string
	name   string
	kind   agentKind
	binary string
	scoped bool // the CLI accepts --scope project|user

	markers    []string // directories whose presence means the agent is used here
	configFile func() string
	serversKey string
	extra      map[string]string
}

// detection is an agent found on this machine.
type detection struct {
	agent      agent
	config     string // resolved config file, file agents only
	registered bool
}

type setupOptions struct {
	auto   bool
	remove bool
	dryRun bool
	// root is passed to "nextscope serve --root"; empty serves the agent's
	// working directory.
	root string
}

// Replaceable in tests.
var (
	lookPath = exec.LookPath
	stat     = os.Stat
	command  = exec.Command
)

// agents lists the supported agents in display order.
var agents = []agent{
	{id: "claude_code", name: "Claude Code", kind: cliAgent, binary: "claude", scoped: true},
	{id: "openai_codex", name: "OpenAI Codex", kind: cliAgent, binary: "codex"},
	{
		id: "vscode_copilot", name: "VS Code Copilot", kind: fileAgent,
		markers:    []string{".vscode"},
		configFile: func() string { return filepath.Join(".vscode", "mcp.json") },
		serversKey: "servers",
		extra:      map[string]string{"type": "stdio"},
	},
	{
		id: "cursor", name: "Cursor", kind: fileAgent,
		markers:    []string{".cursor"},
		configFile: func() string { return filepath.Join(".cursor", "mcp.json") },
		serversKey: "mcpServers",
	},
	{
		id: "windsurf", name: "Windsurf", kind: fileAgent,
		configFile: func() string { return filepath.Join(homeDir(), ".codeium", "windsurf", "mcp_config.json") },
		serversKey: "mcpServers",
	},
	{
		id: "claude_desktop", name: "Claude Desktop", kind: fileAgent,
		configFile: claudeDesktopConfig,
		serversKey: "mcpServers",
	},
}

func homeDir() string {
	home, _ := os.UserHomeDir()
	return home
}

func claudeDesktopConfig() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Application Support", "Claude", "claude_desktop_config.json")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Claude", "claude_desktop_config.json")
	default:
		return filepath.Join(homeDir(), ".config", "Claude", "claude_desktop_config.json")
	}
}

// locate returns the agent's config file when the agent looks installed:
// a marker directory exists or, for agents without markers, the config
// file's directory does.
func (ag agent) locate() (string, bool) {
	if len(ag.markers) == 0 {
		path := ag.configFile()
		_, err := stat(filepath.Dir(path))
		return path, err == nil
	}
	for _, m := range ag.markers {
		if _, err := stat(m); err == nil {
			return ag.configFile(), true
		}
	}
	return "", false
}

func detectAgents() []detection {
	var found []detection
	for _, ag := range agents {
		switch ag.kind {
		case cliAgent:
			if _, err := lookPath(ag.binary); err != nil {
				continue
			}
			// Only project registrations are visible without asking the CLI.
			found = append(found, detection{agent: ag, registered: hasServer(".mcp.json", "mcpServers")})
		case fileAgent:
			path, ok := ag.locate()
			if !ok {
				continue
			}
			found = append(found, detection{agent: ag, config: path, registered: hasServer(path, ag.serversKey)})
		}
	}
	return found
}

// skip reports whether d needs no change, and why.
func (d detection) skip(remove bool) (bool, string) {
	switch {
	case !remove && d.registered:
		return true, "already configured"
	case remove && d.agent.kind == fileAgent && !d.registered:
		return true, "not configured"
	}
	return false, ""
}

// --- JSON configs ---

func serveArgs(root string) []string {
	args := []string{"serve"}
	if root != "" {
		args = append(args, "--root", root)
	}
	return args
}

// serverEntry is the config object agents launch nextscope from.
func serverEntry(root string, extra map[string]string) map[string]any {
	var args []any
	for _, arg := range serveArgs(root) {
		args = append(args, arg)
	}
	entry := map[string]any{"command": serverName, "args": args}
	for k, v := range extra {
		entry[k] = v
	}
	return entry
}

// loadServers parses an agent config and returns it with its servers object.
// Empty input is an empty config.
func loadServers(data []byte, key string) (map[string]any, map[string]any, error) {
	config := make(map[string]any)
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, nil, fmt.Errorf("invalid JSON: %w", err)
		}
	}
	servers, ok := config[key].(map[string]any)
	if !ok {
		servers = make(map[string]any)
	}
	return config, servers, nil
}

func encodeConfig(config map[string]any) ([]byte, error) {
	out, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

func hasServer(path, key string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	_, servers, err := loadServers(data, key)
	if err != nil {
		return false
	}
	_, ok := servers[serverName]
	return ok
}

// addServer returns data with a nextscope entry under key, or nil when one
// is already there. Other servers and top-level keys are preserved.
func addServer(data []byte, key, root string, extra map[string]string) ([]byte, error) {
	config, servers, err := loadServers(data, key)
	if err != nil {
		return nil, err
	}
	if _, ok := servers[serverName]; ok {
		return nil, nil
	}
	servers[serverName] = serverEntry(root, extra)
	config[key] = servers
	return encodeConfig(config)
}

// removeServer returns data without the nextscope entry, or nil when there
// is none.
func removeServer(data []byte, key string) ([]byte, error) {
	config, servers, err := loadServers(data, key)
	if err != nil {
		return nil, err
	}
	if _, ok := servers[serverName]; !ok {
		return nil, nil
	}
	delete(servers, serverName)
	config[key] = servers
	return encodeConfig(config)
}

// editConfig rewrites the config file at path through edit. A nil result
// leaves the file untouched; a missing file reads as empty.
func editConfig(path string, edit func([]byte) ([]byte, error)) error {
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	out, err := edit(data)
	if err != nil || out == nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return os.WriteFile(path, out, 0o644)
}

// --- agent CLIs ---

func cliArgs(ag agent, scope, root string, remove bool) []string {
	verb := "add"
	if remove {
		verb = "remove"
	}
	args := []string{"mcp", verb}
	if ag.scoped && scope != "" {
		args = append(args, "--scope", scope)
	}
	args = append(args, serverName)
	if remove {
		return args
	}
	args = append(args, "--", serverName)
	return append(args, serveArgs(root)...)
}

func runAgentCLI(ag agent, args []string, w io.Writer) error {
	cmd := command(ag.binary, args...)
	cmd.Stdout = w
	cmd.Stderr = w
	return cmd.Run()
}

// --- prompts ---

// prompter reads answers line by line from one buffered reader, so input
// meant for later questions is never lost.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(r io.Reader, w io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(r), out: w}
}

// answer reads one line. EOF yields "", which selects the default.
func (p *prompter) answer() string {
	line, _ := p.in.ReadString('\n')
	return strings.TrimSpace(line)
}

// confirm asks a yes/no question; yes is the default.
func (p *prompter) confirm(question string) bool {
	fmt.Fprintf(p.out, "%s [Y/n] ", question)
	switch strings.ToLower(p.answer()) {
	case "", "y", "yes":
		return true
	}
	return false
}

// scope asks where to register. Returns "project", "user" or "" to skip.
func (p *prompter) scope(agentName, action string) string {
	fmt.Fprintf(p.out, "\n%s: %s nextscope?\n", agentName, action)
	fmt.Fprintln(p.out, "  [1] Project scope (shared with team)")
	fmt.Fprintln(p.out, "  [2] User scope (personal, global)")
	fmt.Fprintln(p.out, "  [3] Skip")
	fmt.Fprint(p.out, "  > ")

	switch p.answer() {
	case "", "1":
		return "project"
	case "2":
		return "user"
	}
	return ""
}

// --- command ---

func newSetupCmd(a *app) *cobra.Command {
	var opts setupOptions
	var pinRoot bool

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Register the nextscope MCP server with installed AI agents",
		Long: `Detect AI agents on this machine (Claude Code, Codex, VS Code Copilot,
Cursor, Windsurf, Claude Desktop) and register "nextscope serve" as an MCP
server with each of them. With --remove the registrations are deleted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if pinRoot {
				root, err := a.root()
				if err != nil {
					return err
				}
				opts.root = root
			}
			executeSetup(cmd.InOrStdin(), cmd.OutOrStdout(), opts)
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.auto, "auto", false, "apply to every detected agent without prompting")
	cmd.Flags().BoolVar(&opts.remove, "remove", false, "remove the nextscope registration instead of adding it")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "print the detected agents and server entry, change nothing")
	cmd.Flags().BoolVar(&pinRoot, "pin-root", false, "launch the server with --root set to this project")
	return cmd
}

// executeSetup detects agents and registers (or removes) nextscope with
// them. Returns how many agents were changed.
func executeSetup(r io.Reader, w io.Writer, opts setupOptions) int {
	found := detectAgents()
	if len(found) == 0 {
		fmt.Fprintln(w, "No supported AI agents detected.")
		return 0
	}

	fmt.Fprintln(w, headerStyle.Render("Detected AI agents"))
	for _, d := range found {
		note := ""
		if d.registered {
			note = faintStyle.Render(" (configured)")
		}
		fmt.Fprintf(w, "  * %s%s\n", d.agent.name, note)
	}
	fmt.Fprintln(w)

	if opts.dryRun {
		entry, _ := json.MarshalIndent(map[string]any{serverName: serverEntry(opts.root, nil)}, "", "  ")
		fmt.Fprintf(w, "Server entry:\n%s\n", entry)
		return 0
	}

	question := "Configure agents?"
	if opts.remove {
		question = "Remove nextscope from agents?"
	}
	p := newPrompter(r, w)
	if !opts.auto && !p.confirm(question) {
		return 0
	}

	changed := 0
	for _, d := range found {
		if skip, why := d.skip(opts.remove); skip {
			fmt.Fprintf(w, "%s: %s, skipping\n", d.agent.name, why)
			continue
		}
		if applyAgent(p, w, d, opts) {
			changed++
		}
	}
	return changed
}

func applyAgent(p *prompter, w io.Writer, d detection, opts setupOptions) bool {
	action, done := "add", "configured"
	if opts.remove {
		action, done = "remove", "removed"
	}

	var where string
	var err error
	switch d.agent.kind {
	case cliAgent:
		scope := ""
		switch {
		case d.agent.scoped && opts.auto:
			scope = "project"
		case d.agent.scoped:
			if scope = p.scope(d.agent.name, action); scope == "" {
				fmt.Fprintln(w, "  skipped")
				return false
			}
		case !opts.auto && !p.confirm(fmt.Sprintf("\n%s: %s nextscope?", d.agent.name, action)):
			fmt.Fprintln(w, "  skipped")
			return false
		}
		where = d.agent.binary + " mcp " + action
		if scope != "" {
			where = "scope: " + scope
		}
		err = runAgentCLI(d.agent, cliArgs(d.agent, scope, opts.root, opts.remove), w)

	case fileAgent:
		if !opts.auto && !p.confirm(fmt.Sprintf("\n%s: update %s?", d.agent.name, d.config)) {
			fmt.Fprintln(w, "  skipped")
			return false
		}
		where = d.config
		err = editConfig(d.config, func(data []byte) ([]byte, error) {
			if opts.remove {
				return removeServer(data, d.agent.serversKey)
			}
			return addServer(data, d.agent.serversKey, opts.root, d.agent.extra)
		})
	}

	if err != nil {
		fmt.Fprintf(w, "  %s %s: %v\n", errorStyle.Render("!"), d.agent.name, err)
		return false
	}
	fmt.Fprintf(w, "  + %s %s (%s)\n", d.agent.name, done, where)
	return true
}
