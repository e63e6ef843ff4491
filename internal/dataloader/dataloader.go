// Package dataloader provides the single cache-first load() entry point
// consolidating the per-parser scan/cache/pricing pipeline shared by the
// CLI and the TUI.
package dataloader

import (
	"context"
	"log"
	"os"
	"sort"
	"time"

	"github.com/wfarley16/toktrack/internal/aggregator"
	"github.com/wfarley16/toktrack/internal/cache"
	"github.com/wfarley16/toktrack/internal/errs"
	"github.com/wfarley16/toktrack/internal/parsers"
	"github.com/wfarley16/toktrack/internal/pricing"
	"github.com/wfarley16/toktrack/internal/types"
)

// LoadResult bundles everything a renderer (CLI table or TUI dashboard)
// needs from a single load.
type LoadResult struct {
	Summaries       []types.DailySummary
	SourceUsage     []types.SourceUsage
	SourceSummaries map[string][]types.DailySummary
	CacheWarning    *types.CacheWarning
}

// Service orchestrates the registry, cache, and pricing collaborators.
type Service struct {
	registry *parsers.Registry
	cache    *cache.Service
	pricing  *pricing.Service
}

// New builds a service with the default cache directory and a
// cache-only pricing service (no network call at construction time).
func New() *Service {
	svc := &Service{registry: parsers.NewRegistry()}
	if cs, err := cache.New(); err == nil {
		svc.cache = cs
	}
	if path, err := pricing.DefaultCachePath(); err == nil {
		if ps, err := pricing.FromCacheOnlyWithPath(path); err == nil {
			svc.pricing = ps
		}
	}
	return svc
}

// Load runs the cache-first strategy: try the warm path when any parser
// carries a current-version cache, falling back to a full cold parse
// otherwise or if the warm path yields nothing.
func (s *Service) Load(ctx context.Context) (LoadResult, error) {
	if s.hasValidCache() {
		if result, err := s.loadWarmPath(); err == nil && len(result.Summaries) > 0 {
			return result, nil
		}
	}
	return s.loadColdPath(ctx)
}

func (s *Service) hasValidCache() bool {
	if s.cache == nil {
		return false
	}
	for _, p := range s.registry.Parsers() {
		if s.cache.IsVersionCurrent(p.Name()) {
			return true
		}
	}
	return false
}

// warmPathSince is yesterday 00:00:00 local time: files touched since then
// are re-parsed so the most recently completed day is never trusted stale
// out of cache.
func warmPathSince() time.Time {
	now := time.Now().Local()
	yesterday := now.AddDate(0, 0, -1)
	return time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 0, 0, 0, 0, yesterday.Location())
}

func (s *Service) loadWarmPath() (LoadResult, error) {
	if s.cache == nil {
		return LoadResult{}, errs.ErrCache
	}

	since := warmPathSince()

	var allSummaries []types.DailySummary
	sourceStats := make(map[string]sourceTotals)
	sourceSummaries := make(map[string][]types.DailySummary)
	var cacheWarning *types.CacheWarning

	for _, p := range s.registry.Parsers() {
		hasParserCache := fileExists(s.cache.CachePath(p.Name()))

		var entries []types.UsageRecord
		var err error
		if hasParserCache {
			entries, err = parsers.ParseRecentFiles(p, since)
		} else {
			entries, err = parsers.ParseAll(p)
		}
		if err != nil {
			log.Printf("[toktrack] Warning: %s failed: %v", p.Name(), err)
			continue
		}

		entries = s.applyPricing(entries)

		summaries, warning, err := s.cache.LoadOrCompute(p.Name(), entries)
		if err != nil {
			log.Printf("[toktrack] Warning: cache for %s failed: %v", p.Name(), err)
			continue
		}
		if warning != nil && cacheWarning == nil {
			cacheWarning = warning
		}
		collectSourceStats(summaries, p.Name(), sourceStats)
		sourceSummaries[p.Name()] = append(sourceSummaries[p.Name()], summaries...)
		allSummaries = append(allSummaries, summaries...)
	}

	return LoadResult{
		Summaries:       aggregator.MergeByDate(allSummaries),
		SourceUsage:     buildSourceUsage(sourceStats),
		SourceSummaries: sourceSummaries,
		CacheWarning:    cacheWarning,
	}, nil
}

func (s *Service) loadColdPath(ctx context.Context) (LoadResult, error) {
	pricingRef := s.pricing
	if pricingRef == nil {
		if fresh, err := pricing.New(ctx); err == nil {
			pricingRef = fresh
		}
	}

	var allSummaries []types.DailySummary
	sourceStats := make(map[string]sourceTotals)
	sourceSummaries := make(map[string][]types.DailySummary)
	var cacheWarning *types.CacheWarning
	anyEntries := false

	for _, p := range s.registry.Parsers() {
		entries, err := parsers.ParseAll(p)
		if err != nil {
			log.Printf("[toktrack] Warning: %s failed: %v", p.Name(), err)
			continue
		}
		if len(entries) == 0 {
			continue
		}
		anyEntries = true

		entries = applyPricingWithRef(entries, pricingRef)

		if s.cache != nil {
			summaries, warning, err := s.cache.LoadOrCompute(p.Name(), entries)
			if err == nil {
				if warning != nil && cacheWarning == nil {
					cacheWarning = warning
				}
				collectSourceStats(summaries, p.Name(), sourceStats)
				sourceSummaries[p.Name()] = append(sourceSummaries[p.Name()], summaries...)
				allSummaries = append(allSummaries, summaries...)
				continue
			}
			log.Printf("[toktrack] Warning: cache for %s failed: %v", p.Name(), err)
		}

		summaries := aggregator.Daily(entries)
		collectSourceStats(summaries, p.Name(), sourceStats)
		sourceSummaries[p.Name()] = append(sourceSummaries[p.Name()], summaries...)
		allSummaries = append(allSummaries, summaries...)
	}

	if !anyEntries {
		return LoadResult{}, errs.ErrNoUsageData
	}

	return LoadResult{
		Summaries:       aggregator.MergeByDate(allSummaries),
		SourceUsage:     buildSourceUsage(sourceStats),
		SourceSummaries: sourceSummaries,
		CacheWarning:    cacheWarning,
	}, nil
}

func (s *Service) applyPricing(entries []types.UsageRecord) []types.UsageRecord {
	return applyPricingWithRef(entries, s.pricing)
}

// applyPricingWithRef overrides free-provider cost to zero and otherwise
// fills in any missing or zero cost_usd from the pricing service, leaving
// a genuinely vendor-reported nonzero cost untouched.
func applyPricingWithRef(entries []types.UsageRecord, ps *pricing.Service) []types.UsageRecord {
	out := make([]types.UsageRecord, len(entries))
	for i, r := range entries {
		if types.FreeProviders[r.Provider] {
			zero := 0.0
			r.CostUSD = &zero
		} else if r.CostUSD == nil || *r.CostUSD == 0 {
			if ps != nil {
				cost := ps.CalculateCost(r)
				r.CostUSD = &cost
			}
		}
		out[i] = r
	}
	return out
}

type sourceTotals struct {
	tokens uint64
	cost   float64
}

func collectSourceStats(summaries []types.DailySummary, sourceName string, stats map[string]sourceTotals) {
	t := stats[sourceName]
	for _, d := range summaries {
		tokens := d.TotalInputTokens + d.TotalOutputTokens + d.TotalCacheReadTokens +
			d.TotalCacheCreationTokens + d.TotalThinkingTokens
		t.tokens = saturatingAddU64(t.tokens, tokens)
		t.cost += d.TotalCostUSD
	}
	stats[sourceName] = t
}

func saturatingAddU64(a, b uint64) uint64 {
	sum := a + b
	if sum < a {
		return ^uint64(0)
	}
	return sum
}

func buildSourceUsage(stats map[string]sourceTotals) []types.SourceUsage {
	result := make([]types.SourceUsage, 0, len(stats))
	for source, t := range stats {
		result = append(result, types.SourceUsage{Source: source, TotalTokens: t.tokens, TotalCostUSD: t.cost})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].TotalTokens > result[j].TotalTokens })
	return result
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
