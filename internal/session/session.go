// Package session manages per-session metadata sidecar files stored as
// JSON under "<home>/.toktrack/sessions/<session-id>.json".
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/wfarley16/toktrack/internal/errs"
	"github.com/wfarley16/toktrack/internal/types"
)

// Service reads and writes session metadata sidecar files.
type Service struct {
	sessionsDir string
}

// New returns a service rooted at the default sidecar directory, creating
// it if absent.
func New() (*Service, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolving home directory: %w", errs.ErrConfig)
	}
	dir := filepath.Join(home, ".toktrack", "sessions")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating sessions dir: %w", errs.ErrIO)
	}
	return &Service{sessionsDir: dir}, nil
}

// WithDir returns a service rooted at a custom directory, for tests.
func WithDir(dir string) *Service {
	return &Service{sessionsDir: dir}
}

// SidecarDir returns the directory this service reads and writes.
func (s *Service) SidecarDir() string {
	return s.sessionsDir
}

func (s *Service) path(sessionID string) string {
	return filepath.Join(s.sessionsDir, sessionID+".json")
}

// Load returns the metadata for sessionID, or (zero, false) if no sidecar
// file exists or it fails to parse.
func (s *Service) Load(sessionID string) (types.SessionMetadata, bool) {
	data, err := os.ReadFile(s.path(sessionID))
	if err != nil {
		return types.SessionMetadata{}, false
	}
	var meta types.SessionMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return types.SessionMetadata{}, false
	}
	return meta, true
}

// Save writes metadata to its sidecar file, named after metadata.SessionID.
func (s *Service) Save(metadata types.SessionMetadata) error {
	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session metadata: %w", errs.ErrCache)
	}
	if err := os.WriteFile(s.path(metadata.SessionID), data, 0o644); err != nil {
		return fmt.Errorf("writing session metadata: %w", errs.ErrIO)
	}
	return nil
}

// LoadAll reads every ".json" sidecar in the directory, keyed by session
// id. Unreadable or malformed files are skipped rather than failing the
// whole load.
func (s *Service) LoadAll() map[string]types.SessionMetadata {
	result := make(map[string]types.SessionMetadata)

	entries, err := os.ReadDir(s.sessionsDir)
	if err != nil {
		return result
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.sessionsDir, entry.Name()))
		if err != nil {
			continue
		}
		var meta types.SessionMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		result[meta.SessionID] = meta
	}

	return result
}

var issueIDPattern = regexp.MustCompile(`[A-Z]+-\d+`)

// ExtractIssueID returns the first "LETTERS-DIGITS" substring of branch
// (e.g. "ISE-123" out of "feature/ISE-123-fix-bug"), or "" if none match.
func ExtractIssueID(branch string) string {
	return issueIDPattern.FindString(branch)
}
