package gemini

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleSession = `{
  "sessionId": "abc123",
  "model": "gemini-2.5-pro",
  "messages": [
    {"id": "msg-001", "type": "user", "timestamp": "2024-01-15T10:00:00Z"},
    {"id": "msg-002", "type": "gemini", "timestamp": "2024-01-15T10:00:01Z", "tokens": {"input": 100, "output": 50, "cached": 20, "thoughts": 30}},
    {"id": "msg-003", "type": "error", "timestamp": "2024-01-15T10:00:02Z"},
    {"id": "msg-004", "type": "gemini", "timestamp": "2024-01-15T10:00:03Z", "model": "gemini-2.5-flash", "tokens": {"input": 250, "output": 150, "cached": 50, "thoughts": 100}},
    {"id": "msg-005", "type": "info", "timestamp": "2024-01-15T10:00:04Z"}
  ]
}`

func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	sub := filepath.Join(dir, "tmp123", "chats")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(sub, "session-abc123.json")
	if err := os.WriteFile(path, []byte(sampleSession), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestParseGeminiJSON(t *testing.T) {
	p := WithDataDir(t.TempDir())
	entries, err := p.ParseFile(writeFixture(t))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	first := entries[0]
	if first.Model != "gemini-2.5-pro" || first.InputTokens != 100 || first.OutputTokens != 50 {
		t.Errorf("unexpected first entry: %+v", first)
	}
	if first.CacheReadTokens != 20 || first.ThinkingTokens != 30 {
		t.Errorf("unexpected first entry cache/thinking: %+v", first)
	}
	if first.MessageID != "msg-002" || first.RequestID != "abc123" {
		t.Errorf("unexpected ids: %+v", first)
	}
	if first.TotalTokens() != 200 {
		t.Errorf("TotalTokens = %d, want 200", first.TotalTokens())
	}

	second := entries[1]
	if second.Model != "gemini-2.5-flash" {
		t.Errorf("expected message-level model override, got %q", second.Model)
	}
	if second.TotalTokens() != 550 {
		t.Errorf("TotalTokens = %d, want 550", second.TotalTokens())
	}
}

func TestParseGeminiNonexistentFile(t *testing.T) {
	p := New()
	if _, err := p.ParseFile("/nonexistent/file.json"); err == nil {
		t.Errorf("expected error for nonexistent file")
	}
}

func TestParserNameAndPattern(t *testing.T) {
	p := New()
	if p.Name() != "gemini" {
		t.Errorf("Name() = %q, want gemini", p.Name())
	}
	if p.FilePattern() != "*/chats/session-*.json" {
		t.Errorf("FilePattern() = %q", p.FilePattern())
	}
}
