package opencode

import (
	"os"
	"path/filepath"
	"testing"
)

const msg1 = `{
  "id": "msg_001", "sessionID": "ses_test", "modelID": "claude-sonnet-4-20250514", "providerID": "anthropic",
  "time": {"created": 1705312800000},
  "tokens": {"input": 1000, "output": 500, "reasoning": 0, "cache": {"read": 100, "write": 50}},
  "cost": 0.05
}`

const msg2 = `{
  "id": "msg_002", "sessionID": "ses_test",
  "time": {"created": 1705312900000},
  "tokens": {"input": 2000, "output": 800, "reasoning": 150, "cache": {"read": 200, "write": 100}},
  "cost": 0.12
}`

const msg3NoTokens = `{
  "id": "msg_003", "sessionID": "ses_test",
  "time": {"created": 1705313000000}
}`

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	sub := filepath.Join(dir, "ses_test")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(sub, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestParseOpenCodeMessage(t *testing.T) {
	p := WithDataDir(t.TempDir())
	entries, err := p.ParseFile(writeFixture(t, "msg_001.json", msg1))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}

	e := entries[0]
	if e.Model != "claude-sonnet-4-20250514" || e.InputTokens != 1000 || e.OutputTokens != 500 {
		t.Errorf("unexpected entry: %+v", e)
	}
	if e.CacheReadTokens != 100 || e.CacheCreationTokens != 50 || e.ThinkingTokens != 0 {
		t.Errorf("unexpected cache/thinking: %+v", e)
	}
	if e.CostUSD == nil || *e.CostUSD != 0.05 {
		t.Errorf("unexpected cost: %+v", e.CostUSD)
	}
	if e.MessageID != "msg_001" || e.RequestID != "ses_test" {
		t.Errorf("unexpected ids: %+v", e)
	}
	if e.TotalTokens() != 1650 {
		t.Errorf("TotalTokens = %d, want 1650", e.TotalTokens())
	}
}

func TestParseOpenCodeReasoningTokens(t *testing.T) {
	p := WithDataDir(t.TempDir())
	entries, err := p.ParseFile(writeFixture(t, "msg_002.json", msg2))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	e := entries[0]
	if e.ThinkingTokens != 150 {
		t.Errorf("ThinkingTokens = %d, want 150", e.ThinkingTokens)
	}
	if e.TotalTokens() != 3250 {
		t.Errorf("TotalTokens = %d, want 3250", e.TotalTokens())
	}
}

func TestSkipMessageWithoutTokens(t *testing.T) {
	p := WithDataDir(t.TempDir())
	entries, err := p.ParseFile(writeFixture(t, "msg_003_no_tokens.json", msg3NoTokens))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}

func TestParserNameAndPattern(t *testing.T) {
	p := New()
	if p.Name() != "opencode" {
		t.Errorf("Name() = %q, want opencode", p.Name())
	}
	if p.FilePattern() != "**/msg_*.json" {
		t.Errorf("FilePattern() = %q", p.FilePattern())
	}
}

func TestParseOpenCodeNonexistentFile(t *testing.T) {
	p := New()
	if _, err := p.ParseFile("/nonexistent/file.json"); err == nil {
		t.Errorf("expected error for nonexistent file")
	}
}
