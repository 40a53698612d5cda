// SourceReader loads project source files through read-only memory maps.
//
// Analysis reads each file once per content change, so nothing stays mapped:
// the mapped region is copied into a private buffer and unmapped before Read
// returns. Edits made to the file afterwards never alias bytes the caller
// already holds (the compute cache hashes and keeps them).
//
// Lifecycle:
//   - Open, stat, map, copy, unmap, close on every Read
//   - Falls back to os.ReadFile when the platform refuses the mapping
//   - Files above MaxFileBytes are rejected before mapping
package util

import (
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/edsrzf/mmap-go"
)

// SourceReaderConfig controls SourceReader behavior.
type SourceReaderConfig struct {
	// MaxFileBytes rejects files larger than this many bytes.
	//
	// Set to 0 for unlimited. Generated bundles checked into app directories
	// can be tens of megabytes; they are never meaningful route modules.
	MaxFileBytes int64

	// Logger for mmap fallback warnings. If nil, uses slog.Default().
	Logger *slog.Logger
}

// DefaultSourceReaderConfig returns the limits used by the CLI and MCP server.
func DefaultSourceReaderConfig() SourceReaderConfig {
	return SourceReaderConfig{
		MaxFileBytes: 8 << 20,
	}
}

// SourceReaderStats tracks reader activity.
type SourceReaderStats struct {
	// FilesRead is the number of successful reads (cumulative).
	FilesRead int64

	// BytesRead is the total size of returned buffers (cumulative).
	BytesRead int64

	// MmapFailures counts reads served by the os.ReadFile fallback.
	MmapFailures int64
}

// FileTooLargeError is returned when a file exceeds MaxFileBytes.
type FileTooLargeError struct {
	Path  string
	Size  int64
	Limit int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file %q is %d bytes (limit: %d bytes)", e.Path, e.Size, e.Limit)
}

// SourceReader reads whole files via mmap. Safe for concurrent use.
type SourceReader struct {
	config SourceReaderConfig
	logger *slog.Logger

	filesRead    atomic.Int64
	bytesRead    atomic.Int64
	mmapFailures atomic.Int64
}

// NewSourceReader creates a SourceReader with the given config.
func NewSourceReader(config SourceReaderConfig) *SourceReader {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SourceReader{config: config, logger: logger}
}

// Read returns a private copy of the file's bytes.
//
// Returns error if:
//   - File cannot be opened or is a directory
//   - File exceeds MaxFileBytes
//   - Both mmap and the fallback read fail
func (r *SourceReader) Read(filePath string) ([]byte, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %q: %w", filePath, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file %q: %w", filePath, err)
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("cannot read %q: is a directory", filePath)
	}
	if r.config.MaxFileBytes > 0 && stat.Size() > r.config.MaxFileBytes {
		return nil, &FileTooLargeError{Path: filePath, Size: stat.Size(), Limit: r.config.MaxFileBytes}
	}

	// Zero-length files cannot be mapped.
	if stat.Size() == 0 {
		r.filesRead.Add(1)
		return []byte{}, nil
	}

	region, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		r.logger.Warn("mmap failed, using fallback",
			"file", filePath,
			"size", stat.Size(),
			"error", err)
		r.mmapFailures.Add(1)

		data, readErr := os.ReadFile(filePath)
		if readErr != nil {
			return nil, fmt.Errorf("mmap failed and fallback failed for %q: mmap error: %v, read error: %w",
				filePath, err, readErr)
		}
		r.record(data)
		return data, nil
	}

	data := make([]byte, len(region))
	copy(data, region)
	if err := region.Unmap(); err != nil {
		r.logger.Warn("failed to unmap file", "path", filePath, "error", err)
	}

	r.record(data)
	return data, nil
}

// Stats returns current reader metrics.
func (r *SourceReader) Stats() SourceReaderStats {
	return SourceReaderStats{
		FilesRead:    r.filesRead.Load(),
		BytesRead:    r.bytesRead.Load(),
		MmapFailures: r.mmapFailures.Load(),
	}
}

func (r *SourceReader) record(data []byte) {
	r.filesRead.Add(1)
	r.bytesRead.Add(int64(len(data)))
}

var defaultSourceReader = NewSourceReader(DefaultSourceReaderConfig())

// ReadSource reads a file with the package-level default reader.
func ReadSource(filePath string) ([]byte, error) {
	return defaultSourceReader.Read(filePath)
}
