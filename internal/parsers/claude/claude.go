// Package claude parses Claude Code's per-session JSONL usage logs.
package claude

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/wfarley16/toktrack/internal/errs"
	"github.com/wfarley16/toktrack/internal/types"
)

type jsonLine struct {
	Timestamp string   `json:"timestamp"`
	RequestID *string  `json:"requestId"`
	Message   *message `json:"message"`
	CostUSD   *float64 `json:"costUSD"`
}

type message struct {
	Model *string `json:"model"`
	ID    *string `json:"id"`
	Usage *usage  `json:"usage"`
}

type usage struct {
	InputTokens             uint64  `json:"input_tokens"`
	OutputTokens             uint64  `json:"output_tokens"`
	CacheCreationInputTokens *uint64 `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     *uint64 `json:"cache_read_input_tokens"`
}

// Parser reads Claude Code's "assistant message with usage" JSONL lines.
type Parser struct {
	dataDir string
}

// New returns a parser rooted at the default "~/.claude/projects" directory.
func New() *Parser {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Parser{dataDir: filepath.Join(home, ".claude", "projects")}
}

// WithDataDir returns a parser rooted at a custom directory, for tests.
func WithDataDir(dir string) *Parser {
	return &Parser{dataDir: dir}
}

func (p *Parser) Name() string        { return "claude-code" }
func (p *Parser) DataDir() string     { return p.dataDir }
func (p *Parser) FilePattern() string { return "**/*.jsonl" }

// ParseFile scans one JSONL file line by line. Each line is independent: a
// record is emitted only if the line parses and carries a message.usage
// subtree. Missing cache fields default to 0; invalid lines are silently
// skipped; an unparseable timestamp falls back to the current instant with
// no warning, matching the vendor's own tolerance for partially-written logs.
func (p *Parser) ParseFile(path string) ([]types.UsageRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, errs.ErrIO)
	}
	defer f.Close()

	var entries []types.UsageRecord
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
		if data.Message == nil || data.Message.Usage == nil {
			continue
		}
		msg, u := data.Message, data.Message.Usage

		ts, err := time.Parse(time.RFC3339, data.Timestamp)
		if err != nil {
			ts = time.Now().UTC()
		}

		entry := types.UsageRecord{
			Timestamp:           ts,
			InputTokens:         u.InputTokens,
			OutputTokens:        u.OutputTokens,
			CacheCreationTokens: derefU64(u.CacheCreationInputTokens),
			CacheReadTokens:     derefU64(u.CacheReadInputTokens),
			CostUSD:             data.CostUSD,
			Source:              p.Name(),
		}
		if msg.Model != nil {
			entry.Model = *msg.Model
		}
		if msg.ID != nil {
			entry.MessageID = *msg.ID
		}
		if data.RequestID != nil {
			entry.RequestID = *data.RequestID
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("scanning %s: %w", path, errs.ErrIO)
	}
	return entries, nil
}

func derefU64(v *uint64) uint64 {
	if v == nil {
		return 0
	}
	return *v
}
