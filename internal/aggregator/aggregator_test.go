package aggregator

import (
	"testing"
	"time"

	"github.com/wfarley16/toktrack/internal/types"
)

func ptr(f float64) *float64 { return &f }

func entry(model string, input, output, cacheRead, cacheCreation uint64, cost float64, ts time.Time) types.UsageRecord {
	return types.UsageRecord{
		Timestamp: ts, Model: model,
		InputTokens: input, OutputTokens: output,
		CacheReadTokens: cacheRead, CacheCreationTokens: cacheCreation,
		CostUSD: ptr(cost),
	}
}

// S2: daily rollup and model merge.
func TestDailyRollupAndModelMerge(t *testing.T) {
	ts := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	entries := []types.UsageRecord{
		entry("claude-sonnet-4-20250514", 100, 50, 10, 5, 0.01, ts),
		entry("claude-sonnet-4", 200, 100, 20, 10, 0.02, ts),
		entry("gpt-4", 300, 150, 30, 15, 0.03, ts),
	}

	days := Daily(entries)
	if len(days) != 1 {
		t.Fatalf("got %d daily summaries, want 1", len(days))
	}
	day := days[0]

	if day.TotalInputTokens != 600 || day.TotalOutputTokens != 300 {
		t.Errorf("totals mismatch: %+v", day)
	}
	if day.TotalCacheReadTokens != 60 || day.TotalCacheCreationTokens != 30 {
		t.Errorf("cache totals mismatch: %+v", day)
	}
	if diff := day.TotalCostUSD - 0.06; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("cost total = %v, want 0.06", day.TotalCostUSD)
	}
	if len(day.ModelUsage) != 2 {
		t.Fatalf("got %d model keys, want 2: %+v", len(day.ModelUsage), day.ModelUsage)
	}
	sonnet := day.ModelUsage["claude-sonnet-4"]
	if sonnet.Count != 2 || sonnet.InputTokens != 300 {
		t.Errorf("sonnet usage mismatch: %+v", sonnet)
	}
	gpt := day.ModelUsage["gpt-4"]
	if gpt.Count != 1 || gpt.InputTokens != 300 {
		t.Errorf("gpt usage mismatch: %+v", gpt)
	}
}

// S3: weekly bucketing, Sunday-start.
func TestWeeklyBucketing(t *testing.T) {
	mon := time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)
	wed := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	sun := time.Date(2025, 1, 19, 0, 0, 0, 0, time.UTC)

	daily := []types.DailySummary{
		dailyAt(mon, 10), dailyAt(wed, 20), dailyAt(sun, 30),
	}

	weeks := Weekly(daily)
	if len(weeks) != 2 {
		t.Fatalf("got %d weeks, want 2", len(weeks))
	}
	wantFirst := time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC)
	wantSecond := time.Date(2025, 1, 19, 0, 0, 0, 0, time.UTC)
	if !weeks[0].Date.Equal(wantFirst) {
		t.Errorf("first week date = %v, want %v", weeks[0].Date, wantFirst)
	}
	if weeks[0].TotalInputTokens != 30 {
		t.Errorf("first week total = %d, want 30", weeks[0].TotalInputTokens)
	}
	if !weeks[1].Date.Equal(wantSecond) {
		t.Errorf("second week date = %v, want %v", weeks[1].Date, wantSecond)
	}
	if weeks[1].TotalInputTokens != 30 {
		t.Errorf("second week total = %d, want 30", weeks[1].TotalInputTokens)
	}
}

func dailyAt(date time.Time, input uint64) types.DailySummary {
	d := types.NewDailySummary(date)
	d.TotalInputTokens = input
	return d
}

// S5: source ranking.
func TestBySourceRanking(t *testing.T) {
	ts := time.Now()
	entries := []types.UsageRecord{
		withSource(entry("m", 100, 50, 0, 0, 0.01, ts), "claude"),
		withSource(entry("m", 300, 150, 0, 0, 0.03, ts), "opencode"),
		withSource(entry("m", 50, 25, 0, 0, 0.005, ts), "gemini"),
	}

	ranked := BySource(entries)
	if len(ranked) != 3 {
		t.Fatalf("got %d sources, want 3", len(ranked))
	}
	got := []string{ranked[0].Source, ranked[1].Source, ranked[2].Source}
	want := []string{"opencode", "claude", "gemini"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("rank[%d] = %q, want %q (got order %v)", i, got[i], want[i], got)
		}
	}
}

func withSource(r types.UsageRecord, source string) types.UsageRecord {
	r.Source = source
	return r
}

// Invariant 1: per-model sums equal day totals.
func TestDailyModelSumsMatchTotals(t *testing.T) {
	ts := time.Now()
	entries := []types.UsageRecord{
		entry("a", 10, 1, 1, 1, 0.1, ts),
		entry("b", 20, 2, 2, 2, 0.2, ts),
		entry("a", 30, 3, 3, 3, 0.3, ts),
	}
	day := Daily(entries)[0]

	var sumIn, sumOut, sumCR, sumCC uint64
	var sumCost float64
	for _, mu := range day.ModelUsage {
		sumIn += mu.InputTokens
		sumOut += mu.OutputTokens
		sumCR += mu.CacheReadTokens
		sumCC += mu.CacheCreationTokens
		sumCost += mu.CostUSD
	}
	if sumIn != day.TotalInputTokens || sumOut != day.TotalOutputTokens {
		t.Errorf("model sums don't match day totals")
	}
	if sumCR != day.TotalCacheReadTokens || sumCC != day.TotalCacheCreationTokens {
		t.Errorf("model cache sums don't match day totals")
	}
	if diff := sumCost - day.TotalCostUSD; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("model cost sum %v != day total %v", sumCost, day.TotalCostUSD)
	}
}

// Invariant 3: total(entries) == total_from_daily(daily(entries)).
func TestTotalMatchesTotalFromDaily(t *testing.T) {
	day1 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
	entries := []types.UsageRecord{
		entry("a", 10, 1, 0, 0, 0.1, day1),
		entry("b", 20, 2, 0, 0, 0.2, day2),
	}

	direct := Total(entries)
	viaDaily := TotalFromDaily(Daily(entries))
	if direct != viaDaily {
		t.Errorf("Total = %+v, TotalFromDaily(Daily()) = %+v", direct, viaDaily)
	}
	if direct.DayCount != 2 {
		t.Errorf("DayCount = %d, want 2", direct.DayCount)
	}
}

// Invariant 4: sort law — outputs carry strictly increasing dates.
func TestSortLawStrictlyIncreasing(t *testing.T) {
	d1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	d3 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	merged := MergeByDate([]types.DailySummary{dailyAt(d2, 1), dailyAt(d1, 1), dailyAt(d3, 1)})
	for i := 1; i < len(merged); i++ {
		if !merged[i].Date.After(merged[i-1].Date) {
			t.Fatalf("dates not strictly increasing at %d: %v -> %v", i, merged[i-1].Date, merged[i].Date)
		}
	}
}

func TestMergeByDateCombinesDuplicates(t *testing.T) {
	d := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	a := dailyAt(d, 10)
	b := dailyAt(d, 20)

	merged := MergeByDate([]types.DailySummary{a, b})
	if len(merged) != 1 {
		t.Fatalf("got %d summaries, want 1", len(merged))
	}
	if merged[0].TotalInputTokens != 30 {
		t.Errorf("merged input tokens = %d, want 30", merged[0].TotalInputTokens)
	}
}

func TestDailyEmptyInput(t *testing.T) {
	if got := Daily(nil); got != nil {
		t.Errorf("Daily(nil) = %v, want nil", got)
	}
}
