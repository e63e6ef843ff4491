package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wfarley16/toktrack/internal/types"
)

func ptr(f float64) *float64 { return &f }

func writeRawCache(t *testing.T, svc *Service, parserName string, cache types.DailySummaryCache) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(svc.CachePath(parserName)), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	data, err := json.Marshal(cache)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(svc.CachePath(parserName), data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestLoadOrComputeEmptyCache(t *testing.T) {
	svc := WithCacheDir(t.TempDir())
	today := todayLocal()

	entries := []types.UsageRecord{
		{Timestamp: today.Add(2 * time.Hour), Model: "gpt-4", InputTokens: 10, OutputTokens: 5, CostUSD: ptr(0.1)},
	}

	summaries, warning, err := svc.LoadOrCompute("claude-code", entries)
	if err != nil {
		t.Fatalf("LoadOrCompute: %v", err)
	}
	if warning != nil {
		t.Errorf("unexpected warning on fresh cache: %+v", warning)
	}
	if len(summaries) != 1 {
		t.Fatalf("got %d summaries, want 1", len(summaries))
	}

	if !fileExists(svc.CachePath("claude-code")) {
		t.Errorf("expected cache file to be persisted")
	}
}

// S4: cache version bump preserves orphan dates.
func TestVersionMismatchPreservesOrphanDates(t *testing.T) {
	svc := WithCacheDir(t.TempDir())
	today := todayLocal()
	yesterday := today.AddDate(0, 0, -1)
	thirtyDaysAgo := today.AddDate(0, 0, -30)

	orphan := types.NewDailySummary(thirtyDaysAgo)
	orphan.TotalInputTokens = 111

	stale := types.NewDailySummary(yesterday)
	stale.TotalInputTokens = 222

	writeRawCache(t, svc, "codex", types.DailySummaryCache{
		CLI: "codex", Version: 0, UpdatedAt: 1, Summaries: []types.DailySummary{orphan, stale},
	})

	entries := []types.UsageRecord{
		{Timestamp: yesterday.Add(3 * time.Hour), Model: "o4-mini", InputTokens: 999, OutputTokens: 1, CostUSD: ptr(0.01)},
	}

	summaries, warning, err := svc.LoadOrCompute("codex", entries)
	if err != nil {
		t.Fatalf("LoadOrCompute: %v", err)
	}
	if warning == nil || warning.Kind != types.CacheWarningVersionMismatch {
		t.Fatalf("expected VersionMismatch warning, got %+v", warning)
	}
	if len(summaries) != 2 {
		t.Fatalf("got %d summaries, want 2 (orphan preserved + recomputed)", len(summaries))
	}

	var gotOrphan, gotRecomputed *types.DailySummary
	for i := range summaries {
		s := &summaries[i]
		if s.Date.Equal(thirtyDaysAgo) {
			gotOrphan = s
		}
		if s.Date.Equal(yesterday) {
			gotRecomputed = s
		}
	}
	if gotOrphan == nil || gotOrphan.TotalInputTokens != 111 {
		t.Errorf("orphan date not preserved verbatim: %+v", gotOrphan)
	}
	if gotRecomputed == nil || gotRecomputed.TotalInputTokens != 999 {
		t.Errorf("stale date not recomputed from entries: %+v", gotRecomputed)
	}

	persisted, _, err := svc.readCache("codex")
	if err != nil {
		t.Fatalf("readCache after save: %v", err)
	}
	if persisted.Version != types.CacheVersion {
		t.Errorf("persisted version = %d, want %d", persisted.Version, types.CacheVersion)
	}
}

func TestIsVersionCurrent(t *testing.T) {
	svc := WithCacheDir(t.TempDir())
	if svc.IsVersionCurrent("gemini") {
		t.Errorf("expected false for absent cache")
	}

	writeRawCache(t, svc, "gemini", types.DailySummaryCache{CLI: "gemini", Version: types.CacheVersion})
	if !svc.IsVersionCurrent("gemini") {
		t.Errorf("expected true for current version")
	}

	writeRawCache(t, svc, "opencode", types.DailySummaryCache{CLI: "opencode", Version: 0})
	if svc.IsVersionCurrent("opencode") {
		t.Errorf("expected false for stale version")
	}
}

func TestModelKeysRenormalizedOnMigration(t *testing.T) {
	svc := WithCacheDir(t.TempDir())
	today := todayLocal()
	old := today.AddDate(0, 0, -10)

	day := types.NewDailySummary(old)
	day.ModelUsage["claude-sonnet-4-20250514"] = types.ModelUsage{InputTokens: 5, Count: 1}
	day.ModelUsage["claude-sonnet-4"] = types.ModelUsage{InputTokens: 7, Count: 1}

	writeRawCache(t, svc, "claude-code", types.DailySummaryCache{
		CLI: "claude-code", Version: types.CacheVersion, Summaries: []types.DailySummary{day},
	})

	summaries, _, err := svc.LoadOrCompute("claude-code", nil)
	if err != nil {
		t.Fatalf("LoadOrCompute: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("got %d summaries, want 1", len(summaries))
	}
	merged, ok := summaries[0].ModelUsage["claude-sonnet-4"]
	if !ok {
		t.Fatalf("expected merged key claude-sonnet-4, got %+v", summaries[0].ModelUsage)
	}
	if merged.InputTokens != 12 || merged.Count != 2 {
		t.Errorf("merged usage = %+v, want input=12 count=2", merged)
	}
}

func TestClearRemovesCacheAndLock(t *testing.T) {
	svc := WithCacheDir(t.TempDir())
	writeRawCache(t, svc, "gemini", types.DailySummaryCache{CLI: "gemini", Version: types.CacheVersion})
	if err := os.WriteFile(svc.lockPath("gemini"), nil, 0o644); err != nil {
		t.Fatalf("write lock: %v", err)
	}

	if err := svc.Clear("gemini"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if fileExists(svc.CachePath("gemini")) {
		t.Errorf("expected cache file removed")
	}
	if fileExists(svc.lockPath("gemini")) {
		t.Errorf("expected lock file removed")
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
