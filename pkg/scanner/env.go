package scanner

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// DiscoverEnv parses the .env files at the project root and in src/.
// A file that cannot be parsed is logged and left out.
func (s *Scanner) DiscoverEnv(root string) ([]EnvFileInfo, error) {
	absRoot, files, err := s.discover(root, envPatterns)
	if err != nil {
		return nil, err
	}

	envFiles := make([]EnvFileInfo, 0, len(files))
	for _, f := range files {
		rel := relativeTo(absRoot, f)
		values, err := godotenv.Read(f)
		if err != nil {
			s.log.Warn("skipping env file", "file", rel, "error", err)
			continue
		}
		envFiles = append(envFiles, EnvFileInfo{Path: rel, Values: values})
	}
	return envFiles, nil
}

// UpdateEnv merges updates into an existing env file and rewrites it. Keys
// not named in updates are kept; lines without "=" are dropped. file is
// relative to root and must name a .env file inside it.
func UpdateEnv(root, file string, updates map[string]string) error {
	absPath, err := envFilePath(root, file)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(absPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf(".env file does not exist: %s", absPath)
		}
		return fmt.Errorf("failed to read %s: %w", absPath, err)
	}

	existing, err := parseEnvLines(string(raw))
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", absPath, err)
	}
	for k, v := range updates {
		existing[k] = v
	}

	if err := godotenv.Write(existing, absPath); err != nil {
		return fmt.Errorf("failed to write %s: %w", absPath, err)
	}
	return nil
}

// parseEnvLines parses env content, ignoring lines that hold no assignment.
func parseEnvLines(raw string) (map[string]string, error) {
	lines := strings.Split(raw, "\n")
	valid := lines[:0]
	for _, line := range lines {
		if strings.Contains(line, "=") {
			valid = append(valid, line)
		}
	}
	return godotenv.Unmarshal(strings.Join(valid, "\n"))
}

// envFilePath resolves file under root and checks it names an env file.
func envFilePath(root, file string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve root path: %w", err)
	}
	absPath := filepath.Join(absRoot, file)
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside project root %s", file, absRoot)
	}
	name := filepath.Base(absPath)
	if name != ".env" && !strings.HasPrefix(name, ".env.") {
		return "", fmt.Errorf("%s is not an env file", file)
	}
	return absPath, nil
}

// ReadPackageJSON decodes the project's package.json.
func ReadPackageJSON(root string) (map[string]any, error) {
	absPath := filepath.Join(root, "package.json")
	raw, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", absPath, err)
	}
	var manifest map[string]any
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", absPath, err)
	}
	return manifest, nil
}
