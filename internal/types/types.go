// Package types holds the shared entity definitions for usage records and
// their aggregated rollups.
package types

import "time"

// FreeProviders are upstream provider tags for which cost is always zero,
// regardless of any vendor-reported cost_usd.
var FreeProviders = map[string]bool{
	"github-copilot":            true,
	"github-copilot-enterprise": true,
}

// UsageRecord is one LLM call, as produced by a parser.
type UsageRecord struct {
	Timestamp time.Time `json:"timestamp"`

	Model string `json:"model,omitempty"`

	InputTokens          uint64 `json:"input_tokens"`
	OutputTokens         uint64 `json:"output_tokens"`
	CacheReadTokens      uint64 `json:"cache_read_tokens"`
	CacheCreationTokens  uint64 `json:"cache_creation_tokens"`
	ThinkingTokens       uint64 `json:"thinking_tokens"`

	CostUSD *float64 `json:"cost_usd,omitempty"`

	MessageID string `json:"message_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`

	Source   string `json:"source,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// TotalTokens sums every token kind carried by the record.
func (r UsageRecord) TotalTokens() uint64 {
	return saturatingAdd(
		r.InputTokens, r.OutputTokens, r.CacheReadTokens,
		r.CacheCreationTokens, r.ThinkingTokens,
	)
}

// LocalDate projects Timestamp into the machine's local time zone and
// truncates to the calendar date.
func (r UsageRecord) LocalDate() time.Time {
	t := r.Timestamp.Local()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DedupHash returns "<message_id>:<request_id>" when both fields are
// present, otherwise the empty string. Callers must check Ok before relying
// on the value; the aggregator does not call this itself (see §4.4).
func (r UsageRecord) DedupHash() (string, bool) {
	if r.MessageID == "" || r.RequestID == "" {
		return "", false
	}
	return r.MessageID + ":" + r.RequestID, true
}

func saturatingAdd(vals ...uint64) uint64 {
	var total uint64
	for _, v := range vals {
		sum := total + v
		if sum < total {
			return ^uint64(0)
		}
		total = sum
	}
	return total
}

// ModelUsage is a per-model rollup within one bucket.
type ModelUsage struct {
	InputTokens         uint64  `json:"input_tokens"`
	OutputTokens        uint64  `json:"output_tokens"`
	CacheReadTokens     uint64  `json:"cache_read_tokens"`
	CacheCreationTokens uint64  `json:"cache_creation_tokens"`
	ThinkingTokens      uint64  `json:"thinking_tokens"`
	CostUSD             float64 `json:"cost_usd"`
	Count               uint64  `json:"count"`
}

// Add folds one usage record's cost and token counts into m, using
// saturating integer adds and plain float cost addition.
func (m *ModelUsage) Add(r UsageRecord, cost float64) {
	m.InputTokens = satAdd2(m.InputTokens, r.InputTokens)
	m.OutputTokens = satAdd2(m.OutputTokens, r.OutputTokens)
	m.CacheReadTokens = satAdd2(m.CacheReadTokens, r.CacheReadTokens)
	m.CacheCreationTokens = satAdd2(m.CacheCreationTokens, r.CacheCreationTokens)
	m.ThinkingTokens = satAdd2(m.ThinkingTokens, r.ThinkingTokens)
	m.CostUSD += cost
	m.Count++
}

// Merge folds another ModelUsage into m.
func (m *ModelUsage) Merge(o ModelUsage) {
	m.InputTokens = satAdd2(m.InputTokens, o.InputTokens)
	m.OutputTokens = satAdd2(m.OutputTokens, o.OutputTokens)
	m.CacheReadTokens = satAdd2(m.CacheReadTokens, o.CacheReadTokens)
	m.CacheCreationTokens = satAdd2(m.CacheCreationTokens, o.CacheCreationTokens)
	m.ThinkingTokens = satAdd2(m.ThinkingTokens, o.ThinkingTokens)
	m.CostUSD += o.CostUSD
	m.Count += o.Count
}

func satAdd2(a, b uint64) uint64 {
	sum := a + b
	if sum < a {
		return ^uint64(0)
	}
	return sum
}

// DailySummary aggregates one calendar day (local date).
type DailySummary struct {
	Date time.Time `json:"date"`

	TotalInputTokens         uint64  `json:"total_input_tokens"`
	TotalOutputTokens        uint64  `json:"total_output_tokens"`
	TotalCacheReadTokens     uint64  `json:"total_cache_read_tokens"`
	TotalCacheCreationTokens uint64  `json:"total_cache_creation_tokens"`
	TotalThinkingTokens      uint64  `json:"total_thinking_tokens"`
	TotalCostUSD             float64 `json:"total_cost_usd"`

	ModelUsage map[string]ModelUsage `json:"model_usage"`
}

// NewDailySummary returns a zero-valued summary for the given date with an
// initialized model map.
func NewDailySummary(date time.Time) DailySummary {
	return DailySummary{
		Date:       date,
		ModelUsage: make(map[string]ModelUsage),
	}
}

// TotalSummary is the grand total across a set of days or entries.
type TotalSummary struct {
	TotalInputTokens         uint64  `json:"total_input_tokens"`
	TotalOutputTokens        uint64  `json:"total_output_tokens"`
	TotalCacheReadTokens     uint64  `json:"total_cache_read_tokens"`
	TotalCacheCreationTokens uint64  `json:"total_cache_creation_tokens"`
	TotalThinkingTokens      uint64  `json:"total_thinking_tokens"`
	TotalCostUSD             float64 `json:"total_cost_usd"`
	EntryCount               uint64  `json:"entry_count"`
	DayCount                 int     `json:"day_count"`
}

// SourceUsage is a cross-parser comparison triple.
type SourceUsage struct {
	Source       string  `json:"source"`
	TotalTokens  uint64  `json:"total_tokens"`
	TotalCostUSD float64 `json:"total_cost_usd"`
}

// CacheVersion is bumped whenever the aggregation contract changes
// (timezone rules, rollup semantics, field additions).
const CacheVersion uint32 = 6

// DailySummaryCache is the persisted, per-parser cache file.
type DailySummaryCache struct {
	CLI       string         `json:"cli"`
	Version   uint32         `json:"version"`
	UpdatedAt int64          `json:"updated_at"`
	Summaries []DailySummary `json:"summaries"`
}

// ModelPricing holds the optional per-token rates for one model.
type ModelPricing struct {
	InputCostPerToken             *float64 `json:"input_cost_per_token,omitempty"`
	OutputCostPerToken            *float64 `json:"output_cost_per_token,omitempty"`
	CacheReadInputTokenCost       *float64 `json:"cache_read_input_token_cost,omitempty"`
	CacheCreationInputTokenCost   *float64 `json:"cache_creation_input_token_cost,omitempty"`
}

// PricingCache is the persisted pricing table.
type PricingCache struct {
	FetchedAt int64                   `json:"fetched_at"`
	Models    map[string]ModelPricing `json:"models"`
}

// CacheWarningKind tags why a cache load degraded.
type CacheWarningKind int

const (
	CacheWarningLoadFailed CacheWarningKind = iota
	CacheWarningCorrupted
	CacheWarningVersionMismatch
)

// CacheWarning carries a kind and a free-text detail message.
type CacheWarning struct {
	Kind   CacheWarningKind
	Detail string
}

func (w CacheWarning) String() string {
	switch w.Kind {
	case CacheWarningLoadFailed:
		return "LoadFailed: " + w.Detail
	case CacheWarningCorrupted:
		return "Corrupted: " + w.Detail
	case CacheWarningVersionMismatch:
		return "VersionMismatch: " + w.Detail
	default:
		return w.Detail
	}
}

// AutoDetected records how session metadata fields were inferred, when
// inferred rather than user-supplied.
type AutoDetected struct {
	GitBranch     *string `json:"git_branch,omitempty"`
	IssueIDSource *string `json:"issue_id_source,omitempty"`
}

// SessionMetadata is a per-session sidecar annotation: free-form notes,
// tags, and the skills invoked during the session, plus whatever fields
// could be auto-detected (git branch, issue id) at save time.
type SessionMetadata struct {
	SessionID    string        `json:"session_id"`
	IssueID      *string       `json:"issue_id,omitempty"`
	Tags         []string      `json:"tags"`
	Notes        *string       `json:"notes,omitempty"`
	SkillsUsed   []string      `json:"skills_used"`
	AutoDetected *AutoDetected `json:"auto_detected,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}
