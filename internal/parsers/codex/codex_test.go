package codex

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleSession = `{"type":"session_meta","timestamp":"2024-01-15T09:00:00Z","payload":{"id":"session-001"}}
{"type":"turn_context","timestamp":"2024-01-15T09:00:01Z","payload":{"model":"o4-mini"}}
{"type":"event_msg","timestamp":"2024-01-15T09:01:00Z","payload":{"type":"token_count","info":{"total_token_usage":{"input_tokens":150,"output_tokens":75,"cached_input_tokens":25}}}}
this is not valid json
{"type":"turn_context","timestamp":"2024-01-15T09:02:00Z","payload":{"model":"gpt-4.1"}}
{"type":"event_msg","timestamp":"2024-01-15T09:03:00Z","payload":{"type":"other_event"}}
{"type":"event_msg","timestamp":"2024-01-15T09:04:00Z","payload":{"type":"token_count","info":{"total_token_usage":{"input_tokens":500,"output_tokens":200,"cached_input_tokens":100}}}}
`

func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sample-session.jsonl")
	if err := os.WriteFile(path, []byte(sampleSession), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestParseCodexJSONL(t *testing.T) {
	p := WithDataDir(t.TempDir())
	entries, err := p.ParseFile(writeFixture(t))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	first := entries[0]
	if first.Model != "o4-mini" || first.InputTokens != 150 || first.OutputTokens != 75 || first.CacheReadTokens != 25 {
		t.Errorf("unexpected first entry: %+v", first)
	}
	if first.MessageID != "session-001" || first.Source != "codex" {
		t.Errorf("unexpected first entry session/source: %+v", first)
	}
}

func TestParseCodexModelSwitch(t *testing.T) {
	p := WithDataDir(t.TempDir())
	entries, err := p.ParseFile(writeFixture(t))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}

	second := entries[1]
	if second.Model != "gpt-4.1" || second.InputTokens != 500 || second.OutputTokens != 200 || second.CacheReadTokens != 100 {
		t.Errorf("unexpected second entry: %+v", second)
	}
}

func TestParseCodexNonexistentFile(t *testing.T) {
	p := New()
	if _, err := p.ParseFile("/nonexistent/file.jsonl"); err == nil {
		t.Errorf("expected error for nonexistent file")
	}
}

func TestParserNameAndPattern(t *testing.T) {
	p := New()
	if p.Name() != "codex" {
		t.Errorf("Name() = %q, want codex", p.Name())
	}
	if p.FilePattern() != "**/*.jsonl" {
		t.Errorf("FilePattern() = %q", p.FilePattern())
	}
}
