// Package mcplog records one JSONL line per tool call or dev server action.
package mcplog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// LogEntry is the schema for one JSONL line.
type LogEntry struct {
	Ts            string         `json:"ts"`
	Tool          string         `json:"tool"`
	Transport     string         `json:"transport,omitempty"`
	Root          string         `json:"root,omitempty"`
	Params        map[string]any `json:"params"`
	DurationMs    int64          `json:"duration_ms"`
	ResponseBytes int            `json:"response_bytes"`
	TokensEst     int            `json:"tokens_est"`
	IsError       bool           `json:"is_error"`
	Error         *string        `json:"error"`
}

// Logger appends structured JSONL entries to a file.
// It is safe for concurrent use.
type Logger struct {
	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

// NewLogger opens (or creates) the file at path for append-only writing.
// Parent directories are created automatically.
// Returns nil, nil if path is empty; callers treat a nil Logger as disabled.
func NewLogger(path string) (*Logger, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("mcplog: create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("mcplog: open log file: %w", err)
	}
	return &Logger{f: f, enc: json.NewEncoder(f)}, nil
}

// Write appends a single JSONL entry. A nil Logger discards the entry.
// Errors are returned but callers ignore them so that log failures never
// affect call results.
func (l *Logger) Write(entry LogEntry) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enc.Encode(entry)
}

// Close closes the underlying log file.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

// SanitizeParams returns a copy of args safe for logging.
// String values longer than shortStringMax bytes are replaced with a
// "{key}_len" integer entry, and nested objects with a "{key}_keys" count,
// so env values and large payloads are never written to the log file.
func SanitizeParams(args map[string]any) map[string]any {
	const shortStringMax = 64
	out := make(map[string]any, len(args))
	for k, v := range args {
		switch val := v.(type) {
		case string:
			if len(val) > shortStringMax {
				out[k+"_len"] = len(val)
				continue
			}
			out[k] = val
		case map[string]any:
			out[k+"_keys"] = len(val)
		default:
			out[k] = v
		}
	}
	return out
}

// ResponseBytes returns the serialized byte length of a CallToolResult's
// content. Returns 0 for a nil result or on marshal error.
func ResponseBytes(result *mcp.CallToolResult) int {
	if result == nil {
		return 0
	}
	b, err := json.Marshal(result.Content)
	if err != nil {
		return 0
	}
	return len(b)
}

// Now is a replaceable clock for testing.
var Now = func() time.Time { return time.Now() }

// Call describes one finished tool call or dev server action.
type Call struct {
	Tool      string
	Transport string
	Root      string
	Args      map[string]any
	Start     time.Time
	Bytes     int
	Failed    bool
	Err       error
}

// Entry converts c to a log line. Args are sanitized and the duration runs
// from Start to Now.
func (c Call) Entry() LogEntry {
	var errStr *string
	if c.Err != nil {
		msg := c.Err.Error()
		errStr = &msg
	}
	return LogEntry{
		Ts:            c.Start.UTC().Format(time.RFC3339),
		Tool:          c.Tool,
		Transport:     c.Transport,
		Root:          c.Root,
		Params:        SanitizeParams(c.Args),
		DurationMs:    Now().Sub(c.Start).Milliseconds(),
		ResponseBytes: c.Bytes,
		TokensEst:     c.Bytes / 4,
		IsError:       c.Failed || c.Err != nil,
		Error:         errStr,
	}
}

// ReadLog parses every entry in a JSONL log file. Blank lines are skipped;
// a malformed line is an error naming its line number.
func ReadLog(path string) ([]LogEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mcplog: open log file: %w", err)
	}
	defer f.Close()

	var entries []LogEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e LogEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("mcplog: line %d: %w", line, err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("mcplog: read log file: %w", err)
	}
	return entries, nil
}

// ToolSummary aggregates the calls of one tool.
type ToolSummary struct {
	Tool          string `json:"tool" yaml:"tool"`
	Calls         int    `json:"calls" yaml:"calls"`
	Errors        int    `json:"errors" yaml:"errors"`
	AvgDurationMs int64  `json:"avg_duration_ms" yaml:"avg_duration_ms"`
	MaxDurationMs int64  `json:"max_duration_ms" yaml:"max_duration_ms"`
	ResponseBytes int    `json:"response_bytes" yaml:"response_bytes"`
}

// Summarize groups entries by tool, sorted by call count then name.
func Summarize(entries []LogEntry) []ToolSummary {
	byTool := make(map[string]*ToolSummary)
	total := make(map[string]int64)
	for _, e := range entries {
		s, ok := byTool[e.Tool]
		if !ok {
			s = &ToolSummary{Tool: e.Tool}
			byTool[e.Tool] = s
		}
		s.Calls++
		if e.IsError || e.Error != nil {
			s.Errors++
		}
		if e.DurationMs > s.MaxDurationMs {
			s.MaxDurationMs = e.DurationMs
		}
		s.ResponseBytes += e.ResponseBytes
		total[e.Tool] += e.DurationMs
	}

	out := make([]ToolSummary, 0, len(byTool))
	for tool, s := range byTool {
		s.AvgDurationMs = total[tool] / int64(s.Calls)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Calls != out[j].Calls {
			return out[i].Calls > out[j].Calls
		}
		return out[i].Tool < out[j].Tool
	})
	return out
}
