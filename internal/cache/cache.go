// Package cache implements the versioned, per-parser daily-summary cache:
// atomic, concurrency-safe writes and a load_or_compute contract that
// preserves orphan dates across a CACHE_VERSION bump.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/wfarley16/toktrack/internal/aggregator"
	"github.com/wfarley16/toktrack/internal/errs"
	"github.com/wfarley16/toktrack/internal/normalizer"
	"github.com/wfarley16/toktrack/internal/types"
)

// Service is a process-local value constructed once per load() and dropped
// at its end. The only mutable state it coordinates is on-disk files,
// guarded by advisory locks, so a Service is safe to reconstruct
// concurrently across processes.
type Service struct {
	cacheDir string
}

// New returns a service rooted at the default "<home>/.toktrack/cache".
func New() (*Service, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolving home directory: %w", errs.ErrConfig)
	}
	return &Service{cacheDir: filepath.Join(home, ".toktrack", "cache")}, nil
}

// WithCacheDir returns a service rooted at a custom directory, for tests.
func WithCacheDir(dir string) *Service {
	return &Service{cacheDir: dir}
}

func (s *Service) CachePath(parserName string) string {
	return filepath.Join(s.cacheDir, parserName+"_daily.json")
}

func (s *Service) lockPath(parserName string) string {
	return s.CachePath(parserName) + ".lock"
}

// IsVersionCurrent is true iff the parser's cache file exists, parses, and
// carries the current CACHE_VERSION.
func (s *Service) IsVersionCurrent(parserName string) bool {
	cache, _, err := s.readCache(parserName)
	if err != nil {
		return false
	}
	return cache.Version == types.CacheVersion
}

// LoadOrCompute implements §4.5's contract: merge cached past-day summaries
// with freshly-computed summaries for every date present in entries, then
// persist the result.
func (s *Service) LoadOrCompute(parserName string, entries []types.UsageRecord) ([]types.DailySummary, *types.CacheWarning, error) {
	today := todayLocal()

	pastSummaries, warning := s.loadPastSummaries(parserName, today)

	migrated := make([]types.DailySummary, len(pastSummaries))
	for i, d := range pastSummaries {
		migrated[i] = normalizeModelKeys(d)
	}

	fresh := aggregator.Daily(entries)
	freshDates := make(map[int64]bool, len(fresh))
	for _, d := range fresh {
		freshDates[d.Date.Unix()] = true
	}

	combined := make([]types.DailySummary, 0, len(migrated)+len(fresh))
	for _, d := range migrated {
		if !freshDates[d.Date.Unix()] {
			combined = append(combined, d)
		}
	}
	combined = append(combined, fresh...)
	sort.Slice(combined, func(i, j int) bool { return combined[i].Date.Before(combined[j].Date) })

	if err := s.saveCache(parserName, combined); err != nil {
		return combined, warning, fmt.Errorf("saving cache for %s: %w", parserName, err)
	}

	return combined, warning, nil
}

// loadPastSummaries returns cached summaries for dates strictly before
// today, plus the first warning encountered while reading.
func (s *Service) loadPastSummaries(parserName string, today time.Time) ([]types.DailySummary, *types.CacheWarning) {
	cache, warning, err := s.readCache(parserName)
	if err != nil {
		// Absence is not a warning; any other read failure already produced
		// one via readCache.
		return nil, warning
	}

	var past []types.DailySummary
	for _, d := range cache.Summaries {
		if d.Date.Before(today) {
			past = append(past, d)
		}
	}
	return past, warning
}

// readCache loads the raw cache file, classifying failures per §4.5 step 2:
// absent -> empty, no warning; unreadable -> LoadFailed; malformed JSON ->
// Corrupted; version mismatch -> VersionMismatch (summaries still returned).
func (s *Service) readCache(parserName string) (types.DailySummaryCache, *types.CacheWarning, error) {
	path := s.CachePath(parserName)

	lock, lockErr := acquireSharedLock(s.lockPath(parserName))
	if lockErr == nil {
		defer releaseSharedLock(lock)
	}
	// Absence or failure of the lock file is tolerated: proceed without it.

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return types.DailySummaryCache{}, nil, err
		}
		return types.DailySummaryCache{}, &types.CacheWarning{
			Kind: types.CacheWarningLoadFailed, Detail: err.Error(),
		}, err
	}

	var cache types.DailySummaryCache
	if err := json.Unmarshal(data, &cache); err != nil {
		return types.DailySummaryCache{}, &types.CacheWarning{
			Kind: types.CacheWarningCorrupted, Detail: err.Error(),
		}, err
	}

	if cache.Version != types.CacheVersion {
		return cache, &types.CacheWarning{
			Kind:   types.CacheWarningVersionMismatch,
			Detail: fmt.Sprintf("cache version %d != current %d", cache.Version, types.CacheVersion),
		}, nil
	}

	return cache, nil, nil
}

// saveCache implements the atomic-write protocol: exclusive lock, write to
// a sibling temp file in the same directory, fsync, atomic rename, unlock.
func (s *Service) saveCache(parserName string, summaries []types.DailySummary) error {
	if err := os.MkdirAll(s.cacheDir, 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", errs.ErrCache)
	}

	lock, err := acquireExclusiveLock(s.lockPath(parserName))
	if err != nil {
		return fmt.Errorf("acquiring exclusive lock for %s: %w", parserName, errs.ErrCache)
	}
	defer releaseExclusiveLock(lock)

	cache := types.DailySummaryCache{
		CLI:       parserName,
		Version:   types.CacheVersion,
		UpdatedAt: time.Now().Unix(),
		Summaries: summaries,
	}
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cache: %w", errs.ErrCache)
	}

	path := s.CachePath(parserName)
	// The temp file MUST be created in the same directory as the
	// destination so os.Rename stays atomic across devices.
	tmp, err := os.CreateTemp(s.cacheDir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", errs.ErrCache)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp cache file: %w", errs.ErrCache)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("fsyncing temp cache file: %w", errs.ErrCache)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp cache file: %w", errs.ErrCache)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming cache file: %w", errs.ErrCache)
	}
	return nil
}

// Clear removes a parser's cache and lock files, if present.
func (s *Service) Clear(parserName string) error {
	if err := os.Remove(s.CachePath(parserName)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing cache file: %w", errs.ErrCache)
	}
	if err := os.Remove(s.lockPath(parserName)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing lock file: %w", errs.ErrCache)
	}
	return nil
}

func todayLocal() time.Time {
	now := time.Now().Local()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// normalizeModelKeys re-keys a summary's per-model map through the
// normalizer, merging entries that collapse onto the same canonical name.
// Ported from the original implementation's migration helper, which this
// same step (§4.5 step 3) requires on every cache load.
func normalizeModelKeys(d types.DailySummary) types.DailySummary {
	merged := make(map[string]types.ModelUsage, len(d.ModelUsage))
	for model, usage := range d.ModelUsage {
		key := normalizer.Normalize(model)
		existing := merged[key]
		existing.Merge(usage)
		merged[key] = existing
	}
	d.ModelUsage = merged
	return d
}
