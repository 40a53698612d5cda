package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gnana997/nextscope/pkg/mcplog"
	"github.com/gnana997/nextscope/pkg/scanner"
)

var errPayloadRequired = errors.New("payload is required")

// Dispatch runs one action and wraps its outcome in a Response. Failures are
// reported in the response, never returned.
func (s *Server) Dispatch(ctx context.Context, req Request) Response {
	start := mcplog.Now()
	payload, err := s.run(ctx, req)
	resp := Response{Type: TypeResponse, ID: req.ID, Action: req.Action, Success: err == nil, Payload: payload}
	if err != nil {
		resp.Payload = nil
		resp.Error = err.Error()
		s.log.Debug("action failed", "action", req.Action, "error", err)
	}
	s.record(req, resp, start)
	return resp
}

func (s *Server) run(ctx context.Context, req Request) (any, error) {
	switch req.Action {
	case ActionPing:
		return "pong", nil
	case ActionReadPackageJSON:
		return scanner.ReadPackageJSON(s.root)
	case ActionUpdateEnv:
		var p updateEnvPayload
		if err := decode(req.Payload, &p); err != nil {
			return nil, err
		}
		if p.FilePath == "" {
			return nil, errors.New("filePath is required")
		}
		if err := scanner.UpdateEnv(s.root, p.FilePath, p.Updates); err != nil {
			return nil, err
		}
		return map[string]any{"filePath": p.FilePath, "updated": len(p.Updates)}, nil
	case ActionDiscoverEnv:
		return s.scanner.DiscoverEnv(s.root)
	case ActionDiscoverAPIRoutes:
		return s.scanner.DiscoverAPIRoutes(s.root)
	case ActionDiscoverAssets:
		return s.scanner.DiscoverAssets(s.root)
	case ActionDiscoverRoutes:
		return s.scanner.DiscoverRoutes(s.root)
	case ActionDiscoverStrategies:
		return s.scanner.DiscoverStrategies(s.root)
	case ActionAnalyzeFile:
		var p analyzeFilePayload
		if err := decode(req.Payload, &p); err != nil {
			return nil, err
		}
		if p.FilePath == "" {
			return nil, errors.New("filePath is required")
		}
		return s.scanner.AnalyzeFile(s.root, p.FilePath)
	case ActionDiscoverAll:
		return s.scanner.DiscoverAll(ctx, s.root)
	case "":
		return nil, errors.New("action is required")
	default:
		return nil, fmt.Errorf("unknown action: %s", req.Action)
	}
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return errPayloadRequired
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

// record writes the call log entry for one action.
func (s *Server) record(req Request, resp Response, start time.Time) {
	if s.calls == nil {
		return
	}
	call := mcplog.Call{
		Tool:      req.Action,
		Transport: "ws",
		Root:      s.root,
		Start:     start,
		Failed:    !resp.Success,
	}
	if len(req.Payload) > 0 {
		_ = json.Unmarshal(req.Payload, &call.Args)
	}
	if data, err := json.Marshal(resp.Payload); err == nil {
		call.Bytes = len(data)
	}
	if resp.Error != "" {
		call.Err = errors.New(resp.Error)
	}
	_ = s.calls.Write(call.Entry())
}
