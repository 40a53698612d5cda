package devserver

import "encoding/json"

// Action names accepted by the dev server.
const (
	ActionReadPackageJSON    = "readPackageJson"
	ActionUpdateEnv          = "updateEnv"
	ActionDiscoverEnv        = "discoverEnv"
	ActionDiscoverAPIRoutes  = "discoverApiRoutes"
	ActionDiscoverAssets     = "discoverAssets"
	ActionDiscoverRoutes     = "discoverRoutes"
	ActionDiscoverStrategies = "discoverStrategies"
	ActionAnalyzeFile        = "analyzeFile"
	ActionDiscoverAll        = "discoverAll"
	ActionPing               = "ping"
)

// Message types sent to clients.
const (
	TypeResponse = "response"
	TypeChanged  = "changed"
)

// Request is one client message.
type Request struct {
	ID      string          `json:"id,omitempty"`
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response answers a Request, or announces changed files when Type is
// TypeChanged.
type Response struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Action  string `json:"action,omitempty"`
	Success bool   `json:"success"`
	Payload any    `json:"payload,omitempty"`
	Error   string `json:"error,omitempty"`
}

type updateEnvPayload struct {
	FilePath string            `json:"filePath"`
	Updates  map[string]string `json:"updates"`
}

type analyzeFilePayload struct {
	FilePath string `json:"filePath"`
}

// ChangedPayload lists files whose cached analysis was dropped.
type ChangedPayload struct {
	Paths []string `json:"paths"`
}
