// Package gemini parses Gemini CLI's per-session JSON usage logs.
package gemini

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/wfarley16/toktrack/internal/errs"
	"github.com/wfarley16/toktrack/internal/types"
)

type session struct {
	SessionID string    `json:"sessionId"`
	Model     *string   `json:"model"`
	Messages  []message `json:"messages"`
}

type message struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	Timestamp string  `json:"timestamp"`
	Tokens    *tokens `json:"tokens"`
	Model     *string `json:"model"`
}

type tokens struct {
	Input    uint64 `json:"input"`
	Output   uint64 `json:"output"`
	Cached   uint64 `json:"cached"`
	Thoughts uint64 `json:"thoughts"`
}

// Parser reads Gemini CLI's session JSON file: one file describes a whole
// session with a messages array; only "gemini"-type messages carrying a
// tokens subtree yield records.
type Parser struct {
	dataDir string
}

// New returns a parser rooted at the default "~/.gemini/tmp" directory.
func New() *Parser {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Printf("[toktrack] Warning: could not determine home directory")
		home = "."
	}
	return &Parser{dataDir: filepath.Join(home, ".gemini", "tmp")}
}

// WithDataDir returns a parser rooted at a custom directory, for tests.
func WithDataDir(dir string) *Parser {
	return &Parser{dataDir: dir}
}

func (p *Parser) Name() string        { return "gemini" }
func (p *Parser) DataDir() string     { return p.dataDir }
func (p *Parser) FilePattern() string { return "*/chats/session-*.json" }

// ParseFile decodes one session file. Model falls back from message-level
// to session-level. request_id is the session id; message_id is the
// per-message id. A bad per-message timestamp skips only that entry.
func (p *Parser) ParseFile(path string) ([]types.UsageRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, errs.ErrIO)
	}

	var sess session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, errs.ErrParse)
	}

	var entries []types.UsageRecord
	for _, msg := range sess.Messages {
		if msg.Type != "gemini" || msg.Tokens == nil {
			continue
		}

		ts, err := time.Parse(time.RFC3339, msg.Timestamp)
		if err != nil {
			log.Printf("[toktrack] Warning: invalid timestamp %q, skipping entry", msg.Timestamp)
			continue
		}

		model := msg.Model
		if model == nil {
			model = sess.Model
		}

		entry := types.UsageRecord{
			Timestamp:       ts,
			InputTokens:     msg.Tokens.Input,
			OutputTokens:    msg.Tokens.Output,
			CacheReadTokens: msg.Tokens.Cached,
			ThinkingTokens:  msg.Tokens.Thoughts,
			MessageID:       msg.ID,
			RequestID:       sess.SessionID,
			Source:          p.Name(),
		}
		if model != nil {
			entry.Model = *model
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
