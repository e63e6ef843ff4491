// Package codex parses Codex CLI's per-session JSONL usage logs, which
// interleave stateful session/model markers with cumulative token-count
// events.
package codex

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/wfarley16/toktrack/internal/errs"
	"github.com/wfarley16/toktrack/internal/types"
)

type jsonLine struct {
	Type      string   `json:"type"`
	Timestamp string   `json:"timestamp"`
	Payload   *payload `json:"payload"`
}

type payload struct {
	Type  *string `json:"type"`
	Model *string `json:"model"`
	Info  *info   `json:"info"`
	ID    *string `json:"id"`
}

type info struct {
	TotalTokenUsage *tokenUsage `json:"total_token_usage"`
}

type tokenUsage struct {
	InputTokens       uint64 `json:"input_tokens"`
	OutputTokens      uint64 `json:"output_tokens"`
	CachedInputTokens uint64 `json:"cached_input_tokens"`
}

// Parser reads Codex CLI's session JSONL state machine: session_meta lines
// update the running session id, turn_context lines update the running
// model, and event_msg/token_count lines emit a record carrying whichever
// model and session id are currently active.
type Parser struct {
	dataDir string
}

// New returns a parser rooted at the default "~/.codex/sessions" directory.
func New() *Parser {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Parser{dataDir: filepath.Join(home, ".codex", "sessions")}
}

// WithDataDir returns a parser rooted at a custom directory, for tests.
func WithDataDir(dir string) *Parser {
	return &Parser{dataDir: dir}
}

func (p *Parser) Name() string        { return "codex" }
func (p *Parser) DataDir() string     { return p.dataDir }
func (p *Parser) FilePattern() string { return "**/*.jsonl" }

// ParseFile scans the file in order, carrying state across lines. Unknown
// line types, lines without a payload, and token_count events without a
// total_token_usage subtree are all skipped.
func (p *Parser) ParseFile(path string) ([]types.UsageRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, errs.ErrIO)
	}
	defer f.Close()

	var entries []types.UsageRecord
	var currentModel, sessionID string

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var data jsonLine
		if err := json.Unmarshal(line, &data); err != nil {
			continue
		}
		if data.Payload == nil {
			continue
		}

		switch data.Type {
		case "turn_context":
			if data.Payload.Model != nil {
				currentModel = *data.Payload.Model
			}
			continue
		case "session_meta":
			if data.Payload.ID != nil {
				sessionID = *data.Payload.ID
			}
			continue
		case "event_msg":
			// handled below
		default:
			continue
		}

		if data.Payload.Type == nil || *data.Payload.Type != "token_count" {
			continue
		}
		if data.Payload.Info == nil || data.Payload.Info.TotalTokenUsage == nil {
			continue
		}
		tu := data.Payload.Info.TotalTokenUsage

		ts, err := time.Parse(time.RFC3339, data.Timestamp)
		if err != nil {
			log.Printf("[toktrack] Warning: invalid timestamp %q, using current time", data.Timestamp)
			ts = time.Now().UTC()
		}

		entries = append(entries, types.UsageRecord{
			Timestamp:       ts,
			Model:           currentModel,
			InputTokens:     tu.InputTokens,
			OutputTokens:    tu.OutputTokens,
			CacheReadTokens: tu.CachedInputTokens,
			MessageID:       sessionID,
			Source:          p.Name(),
		})
	}
	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("scanning %s: %w", path, errs.ErrIO)
	}
	return entries, nil
}
