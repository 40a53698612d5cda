package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gnana997/nextscope/pkg/scanner"
)

// jsonResult marshals v as the text content of a successful result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// projectRoot resolves the root for a call and checks it is a directory.
func (s *Server) projectRoot(req mcp.CallToolRequest) (string, error) {
	root := req.GetString("root", s.root)
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("invalid project root %q: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("project root %s: %w", abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("project root %s is not a directory", abs)
	}
	return abs, nil
}

func (s *Server) handleDiscoverRoutes(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := s.projectRoot(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	infos, err := s.scanner.DiscoverRoutes(root)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("route discovery failed", err), nil
	}
	return jsonResult(infos)
}

func (s *Server) handleDiscoverStrategies(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := s.projectRoot(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	report, err := s.scanner.DiscoverStrategies(root)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("strategy discovery failed", err), nil
	}
	return jsonResult(report)
}

func (s *Server) handleDiscoverAPIRoutes(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := s.projectRoot(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	report, err := s.scanner.DiscoverAPIRoutes(root)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("API route discovery failed", err), nil
	}
	return jsonResult(report)
}

func (s *Server) handleDiscoverAssets(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := s.projectRoot(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	assets, err := s.scanner.DiscoverAssets(root)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("asset discovery failed", err), nil
	}
	return jsonResult(assets)
}

func (s *Server) handleDiscoverEnv(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := s.projectRoot(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	files, err := s.scanner.DiscoverEnv(root)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("env discovery failed", err), nil
	}
	return jsonResult(files)
}

func (s *Server) handleUpdateEnv(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := s.projectRoot(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	file, err := req.RequireString("file")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	updates, err := envUpdates(req.GetArguments()["updates"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := scanner.UpdateEnv(root, file, updates); err != nil {
		return mcp.NewToolResultErrorFromErr("env update failed", err), nil
	}

	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return jsonResult(map[string]any{"file": file, "updated": keys})
}

// envUpdates converts the "updates" argument into env values. Strings pass
// through, numbers and booleans are formatted.
func envUpdates(raw any) (map[string]string, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("updates must be an object of variable names to values")
	}
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		switch val := v.(type) {
		case string:
			out[k] = val
		case float64, bool:
			out[k] = fmt.Sprint(val)
		default:
			return nil, fmt.Errorf("value for %s must be a string, number or boolean", k)
		}
	}
	return out, nil
}

func (s *Server) handleAnalyzeFile(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := s.projectRoot(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	report, err := s.scanner.AnalyzeFile(root, path)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("analysis failed", err), nil
	}
	return jsonResult(report)
}

func (s *Server) handleReadPackageJSON(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := s.projectRoot(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	manifest, err := scanner.ReadPackageJSON(root)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("package.json unavailable", err), nil
	}
	return jsonResult(manifest)
}

func (s *Server) handleProjectSnapshot(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := s.projectRoot(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	snap, err := s.scanner.DiscoverAll(ctx, root)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("project snapshot failed", err), nil
	}
	return jsonResult(snap)
}
