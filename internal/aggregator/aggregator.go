// Package aggregator implements the pure rollups over usage records and
// daily summaries: entries->daily, daily->weekly, daily->monthly, by-model,
// by-source, and merge-by-date. Nothing here performs I/O; everything is
// deterministic given its inputs.
package aggregator

import (
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/wfarley16/toktrack/internal/normalizer"
	"github.com/wfarley16/toktrack/internal/types"
)

// Daily groups entries by local_date, summing all token kinds and costs and
// accumulating a per-model map keyed by the normalizer's canonical name.
// Empty input yields empty output. Results sort ascending by date.
func Daily(entries []types.UsageRecord) []types.DailySummary {
	if len(entries) == 0 {
		return nil
	}

	byDate := lo.GroupBy(entries, func(r types.UsageRecord) int64 {
		return r.LocalDate().Unix()
	})

	summaries := make([]types.DailySummary, 0, len(byDate))
	for _, group := range byDate {
		day := types.NewDailySummary(group[0].LocalDate())
		for _, r := range group {
			accumulate(&day, r, costOf(r))
		}
		summaries = append(summaries, day)
	}

	sortDailyAscending(summaries)
	return summaries
}

func costOf(r types.UsageRecord) float64 {
	if r.CostUSD != nil {
		return *r.CostUSD
	}
	return 0
}

func accumulate(day *types.DailySummary, r types.UsageRecord, cost float64) {
	day.TotalInputTokens = satAdd(day.TotalInputTokens, r.InputTokens)
	day.TotalOutputTokens = satAdd(day.TotalOutputTokens, r.OutputTokens)
	day.TotalCacheReadTokens = satAdd(day.TotalCacheReadTokens, r.CacheReadTokens)
	day.TotalCacheCreationTokens = satAdd(day.TotalCacheCreationTokens, r.CacheCreationTokens)
	day.TotalThinkingTokens = satAdd(day.TotalThinkingTokens, r.ThinkingTokens)
	day.TotalCostUSD += cost

	key := normalizer.Normalize(r.Model)
	mu := day.ModelUsage[key]
	mu.Add(r, cost)
	day.ModelUsage[key] = mu
}

func satAdd(a, b uint64) uint64 {
	sum := a + b
	if sum < a {
		return ^uint64(0)
	}
	return sum
}

// Weekly groups daily summaries by the most recent Sunday on or before the
// day's date, summing fields and merging per-model maps. Sorted ascending.
func Weekly(daily []types.DailySummary) []types.DailySummary {
	return bucketDaily(daily, startOfWeek)
}

// Monthly groups daily summaries by (year, month); the bucket key is the
// first day of that month.
func Monthly(daily []types.DailySummary) []types.DailySummary {
	return bucketDaily(daily, startOfMonth)
}

func startOfWeek(t time.Time) time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return d.AddDate(0, 0, -int(d.Weekday()))
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func bucketDaily(daily []types.DailySummary, bucketStart func(time.Time) time.Time) []types.DailySummary {
	if len(daily) == 0 {
		return nil
	}

	groups := lo.GroupBy(daily, func(d types.DailySummary) int64 {
		return bucketStart(d.Date).Unix()
	})

	out := make([]types.DailySummary, 0, len(groups))
	for _, members := range groups {
		bucket := types.NewDailySummary(bucketStart(members[0].Date))
		for _, m := range members {
			mergeInto(&bucket, m)
		}
		out = append(out, bucket)
	}
	sortDailyAscending(out)
	return out
}

// MergeByDate combines summaries sharing an identical date, accumulating
// every field and per-model map. Sorted ascending.
func MergeByDate(daily []types.DailySummary) []types.DailySummary {
	if len(daily) == 0 {
		return nil
	}
	groups := lo.GroupBy(daily, func(d types.DailySummary) int64 { return d.Date.Unix() })

	out := make([]types.DailySummary, 0, len(groups))
	for _, members := range groups {
		bucket := types.NewDailySummary(members[0].Date)
		for _, m := range members {
			mergeInto(&bucket, m)
		}
		out = append(out, bucket)
	}
	sortDailyAscending(out)
	return out
}

func mergeInto(bucket *types.DailySummary, d types.DailySummary) {
	bucket.TotalInputTokens = satAdd(bucket.TotalInputTokens, d.TotalInputTokens)
	bucket.TotalOutputTokens = satAdd(bucket.TotalOutputTokens, d.TotalOutputTokens)
	bucket.TotalCacheReadTokens = satAdd(bucket.TotalCacheReadTokens, d.TotalCacheReadTokens)
	bucket.TotalCacheCreationTokens = satAdd(bucket.TotalCacheCreationTokens, d.TotalCacheCreationTokens)
	bucket.TotalThinkingTokens = satAdd(bucket.TotalThinkingTokens, d.TotalThinkingTokens)
	bucket.TotalCostUSD += d.TotalCostUSD

	for model, mu := range d.ModelUsage {
		existing := bucket.ModelUsage[model]
		existing.Merge(mu)
		bucket.ModelUsage[model] = existing
	}
}

// ByModel maps canonical model name -> ModelUsage across every entry.
func ByModel(entries []types.UsageRecord) map[string]types.ModelUsage {
	out := make(map[string]types.ModelUsage)
	for _, r := range entries {
		cost := costOf(r)
		key := normalizer.Normalize(r.Model)
		mu := out[key]
		mu.Add(r, cost)
		out[key] = mu
	}
	return out
}

// BySource collapses entries to per-source (total_tokens, total_cost) and
// sorts descending by total tokens.
func BySource(entries []types.UsageRecord) []types.SourceUsage {
	totals := make(map[string]*types.SourceUsage)
	for _, r := range entries {
		su, ok := totals[r.Source]
		if !ok {
			su = &types.SourceUsage{Source: r.Source}
			totals[r.Source] = su
		}
		su.TotalTokens = satAdd(su.TotalTokens, r.TotalTokens())
		su.TotalCostUSD += costOf(r)
	}

	out := make([]types.SourceUsage, 0, len(totals))
	for _, su := range totals {
		out = append(out, *su)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalTokens > out[j].TotalTokens })
	return out
}

// Total computes a TotalSummary directly from entries.
func Total(entries []types.UsageRecord) types.TotalSummary {
	return TotalFromDaily(Daily(entries))
}

// TotalFromDaily computes a TotalSummary from an already-aggregated daily
// series; entry_count sums per-model counts, day_count is the number of
// distinct dates.
func TotalFromDaily(daily []types.DailySummary) types.TotalSummary {
	var t types.TotalSummary
	t.DayCount = len(daily)
	for _, d := range daily {
		t.TotalInputTokens = satAdd(t.TotalInputTokens, d.TotalInputTokens)
		t.TotalOutputTokens = satAdd(t.TotalOutputTokens, d.TotalOutputTokens)
		t.TotalCacheReadTokens = satAdd(t.TotalCacheReadTokens, d.TotalCacheReadTokens)
		t.TotalCacheCreationTokens = satAdd(t.TotalCacheCreationTokens, d.TotalCacheCreationTokens)
		t.TotalThinkingTokens = satAdd(t.TotalThinkingTokens, d.TotalThinkingTokens)
		t.TotalCostUSD += d.TotalCostUSD
		for _, mu := range d.ModelUsage {
			t.EntryCount += mu.Count
		}
	}
	return t
}

func sortDailyAscending(s []types.DailySummary) {
	sort.Slice(s, func(i, j int) bool { return s[i].Date.Before(s[j].Date) })
}
