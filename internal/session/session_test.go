package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wfarley16/toktrack/internal/types"
)

func strPtr(s string) *string { return &s }

func makeMetadata(sessionID string) types.SessionMetadata {
	now := time.Now().UTC()
	return types.SessionMetadata{
		SessionID:  sessionID,
		IssueID:    strPtr("ISE-123"),
		Tags:       []string{"bug-fix"},
		Notes:      strPtr("test notes"),
		SkillsUsed: []string{"clarify", "implement"},
		AutoDetected: &types.AutoDetected{
			GitBranch:     strPtr("feature/ISE-123-fix-bug"),
			IssueIDSource: strPtr("branch"),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestExtractIssueID(t *testing.T) {
	cases := []struct {
		branch string
		want   string
	}{
		{"feature/ISE-123-foo", "ISE-123"},
		{"ISE-456", "ISE-456"},
		{"main", ""},
		{"bugfix/no-issue", ""},
		{"fix/PROJ-789-bar", "PROJ-789"},
		{"", ""},
		{"feature/ise-123-foo", ""},
	}
	for _, c := range cases {
		if got := ExtractIssueID(c.branch); got != c.want {
			t.Errorf("ExtractIssueID(%q) = %q, want %q", c.branch, got, c.want)
		}
	}
}

func TestLoadNonexistentReturnsFalse(t *testing.T) {
	svc := WithDir(t.TempDir())
	if _, ok := svc.Load("nonexistent-session"); ok {
		t.Errorf("expected ok=false for nonexistent session")
	}
}

func TestSaveAndLoad(t *testing.T) {
	svc := WithDir(t.TempDir())
	metadata := makeMetadata("test-session-1")

	if err := svc.Save(metadata); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, ok := svc.Load("test-session-1")
	if !ok {
		t.Fatalf("expected to load saved session")
	}
	if loaded.SessionID != "test-session-1" {
		t.Errorf("SessionID = %q", loaded.SessionID)
	}
	if loaded.IssueID == nil || *loaded.IssueID != "ISE-123" {
		t.Errorf("IssueID = %v, want ISE-123", loaded.IssueID)
	}
	if len(loaded.Tags) != 1 || loaded.Tags[0] != "bug-fix" {
		t.Errorf("Tags = %v", loaded.Tags)
	}
}

func TestSaveCreatesFile(t *testing.T) {
	dir := t.TempDir()
	svc := WithDir(dir)
	if err := svc.Save(makeMetadata("file-check")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "file-check.json")); err != nil {
		t.Errorf("expected sidecar file to exist: %v", err)
	}
}

func TestLoadAllMultiple(t *testing.T) {
	svc := WithDir(t.TempDir())
	if err := svc.Save(makeMetadata("session-a")); err != nil {
		t.Fatalf("Save a: %v", err)
	}
	if err := svc.Save(makeMetadata("session-b")); err != nil {
		t.Fatalf("Save b: %v", err)
	}

	all := svc.LoadAll()
	if len(all) != 2 {
		t.Fatalf("got %d sessions, want 2", len(all))
	}
	if _, ok := all["session-a"]; !ok {
		t.Errorf("missing session-a")
	}
	if _, ok := all["session-b"]; !ok {
		t.Errorf("missing session-b")
	}
}

func TestLoadAllEmptyDir(t *testing.T) {
	svc := WithDir(t.TempDir())
	all := svc.LoadAll()
	if len(all) != 0 {
		t.Errorf("got %d sessions, want 0", len(all))
	}
}

func TestLoadAllIgnoresInvalidJSONAndNonJSON(t *testing.T) {
	dir := t.TempDir()
	svc := WithDir(dir)
	if err := svc.Save(makeMetadata("valid")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "invalid.json"), []byte("not json"), 0o644); err != nil {
		t.Fatalf("write invalid.json: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("not a sidecar"), 0o644); err != nil {
		t.Fatalf("write readme.txt: %v", err)
	}

	all := svc.LoadAll()
	if len(all) != 1 {
		t.Fatalf("got %d sessions, want 1: %+v", len(all), all)
	}
	if _, ok := all["valid"]; !ok {
		t.Errorf("missing valid session")
	}
}

func TestSidecarDir(t *testing.T) {
	dir := t.TempDir()
	svc := WithDir(dir)
	if svc.SidecarDir() != dir {
		t.Errorf("SidecarDir() = %q, want %q", svc.SidecarDir(), dir)
	}
}
