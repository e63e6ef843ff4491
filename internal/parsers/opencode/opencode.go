// Package opencode parses OpenCode CLI's per-message JSON usage files.
package opencode

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

type opencodeMessage struct {
	ID         string  `json:"id"`
	SessionID  string  `json:"sessionID"`
	ModelID    *string `json:"modelID"`
	ProviderID *string `json:"providerID"`
	Time       msgTime `json:"time"`
	Tokens     *tokens `json:"tokens"`
	Cost       *float64 `json:"cost"`
}

type msgTime struct {
	Created int64 `json:"created"` // unix millis
}

type tokens struct {
	Input     uint64 `json:"input"`
	Output    uint64 `json:"output"`
	Reasoning uint64 `json:"reasoning"`
	Cache     *cache `json:"cache"`
}

type cache struct {
	Read  uint64 `json:"read"`
	Write uint64 `json:"write"`
}

// Parser reads OpenCode CLI's single-message-per-file JSON storage layout.
type Parser struct {
	dataDir string
}

// New returns a parser rooted at the default XDG location
// "~/.local/share/opencode/storage/message" (used on every OS, matching the
// vendor's own XDG-everywhere convention).
func New() *Parser {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Printf("[toktrack] Warning: could not determine home directory")
		home = "."
	}
	return &Parser{dataDir: filepath.Join(home, ".local", "share", "opencode", "storage", "message")}
}

// WithDataDir returns a parser rooted at a custom directory, for tests.
func WithDataDir(dir string) *Parser {
	return &Parser{dataDir: dir}
}

func (p *Parser) Name() string        { return "opencode" }
func (p *Parser) DataDir() string     { return p.dataDir }
func (p *Parser) FilePattern() string { return "**/msg_*.json" }

// ParseFile decodes one message file. Records require a tokens subtree;
// creation time is unix millis. A value out of int64 range fails the JSON
// decode, so ParseFile returns a parse error and emits no record; the bulk
// operations in package parsers log that error and skip the file.
func (p *Parser) ParseFile(path string) ([]types.UsageRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, errs.ErrIO)
	}

	var msg opencodeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, errs.ErrParse)
	}

	if msg.Tokens == nil {
		return nil, nil
	}

	ts := time.UnixMilli(msg.Time.Created)

	entry := types.UsageRecord{
		Timestamp:      ts,
		InputTokens:    msg.Tokens.Input,
		OutputTokens:   msg.Tokens.Output,
		ThinkingTokens: msg.Tokens.Reasoning,
		CostUSD:        msg.Cost,
		MessageID:      msg.ID,
		RequestID:      msg.SessionID,
		Source:         p.Name(),
	}
	if msg.ModelID != nil {
		entry.Model = *msg.ModelID
	}
	if msg.ProviderID != nil {
		entry.Provider = *msg.ProviderID
	}
	if msg.Tokens.Cache != nil {
		entry.CacheReadTokens = msg.Tokens.Cache.Read
		entry.CacheCreationTokens = msg.Tokens.Cache.Write
	}

	return []types.UsageRecord{entry}, nil
}
