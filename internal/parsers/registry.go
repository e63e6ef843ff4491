package parsers

import (
	"github.com/wfarley16/toktrack/internal/parsers/claude"
	"github.com/wfarley16/toktrack/internal/parsers/codex"
	"github.com/wfarley16/toktrack/internal/parsers/gemini"
	"github.com/wfarley16/toktrack/internal/parsers/opencode"
)

// Registry enumerates the parsers a data-loader run scans, storing them as
// a homogeneous collection of CLIParser values in registration order (no
// per-vendor reflection or dynamic dispatch beyond the interface call).
type Registry struct {
	parsers []CLIParser
}

// NewRegistry returns a registry populated with the four built-in vendor
// parsers, each defaulted to its standard data directory.
func NewRegistry() *Registry {
	return &Registry{
		parsers: []CLIParser{
			claude.New(),
			codex.New(),
			gemini.New(),
			opencode.New(),
		},
	}
}

// Parsers returns every registered parser.
func (r *Registry) Parsers() []CLIParser {
	return r.parsers
}

// Get finds a parser by its stable name.
func (r *Registry) Get(name string) (CLIParser, bool) {
	for _, p := range r.parsers {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}
