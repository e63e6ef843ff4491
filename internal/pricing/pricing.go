// Package pricing fetches, caches, and consults a per-model token-rate
// table, computing cost for usage records that don't already carry one.
package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/wfarley16/toktrack/internal/errs"
	"github.com/wfarley16/toktrack/internal/normalizer"
	"github.com/wfarley16/toktrack/internal/types"
)

// LiteLLMPricingURL is the community-maintained model-prices table this
// service fetches when no usable cache is present.
const LiteLLMPricingURL = "https://raw.githubusercontent.com/BerriAI/litellm/main/model_prices_and_context_window.json"

// CacheTTL is how long a fetched pricing cache is trusted before a refresh
// is attempted (a stale cache is still usable if refresh fails).
const CacheTTL = 3600 * time.Second

// RequestTimeout bounds the pricing HTTP fetch.
const RequestTimeout = 10 * time.Second

// Service holds an in-memory pricing cache plus the path it was loaded
// from/will be saved to. It is a process-local value constructed once per
// load() and dropped at its end; no global singleton.
type Service struct {
	cache     types.PricingCache
	cachePath string
	client    *http.Client
}

// DefaultCachePath returns "<home>/.toktrack/pricing.json".
func DefaultCachePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", errs.ErrConfig)
	}
	return filepath.Join(home, ".toktrack", "pricing.json"), nil
}

// New is the eager constructor: read the cache, refresh it if expired, and
// bootstrap over the network if no cache exists at all.
func New(ctx context.Context) (*Service, error) {
	path, err := DefaultCachePath()
	if err != nil {
		return nil, err
	}
	return newAtPath(ctx, path, true)
}

// WithCachePath is the cache-preferred constructor used by tests and by
// callers that want a specific on-disk location: it uses an existing cache
// even if stale, attempting a refresh only opportunistically.
func WithCachePath(ctx context.Context, path string) (*Service, error) {
	return newAtPath(ctx, path, false)
}

// FromCacheOnlyWithPath never touches the network: it loads the cache file
// at path as-is, whatever its age, and fails if the file is absent or
// unreadable. Tests use it to assert lookup/cost behavior in isolation.
func FromCacheOnlyWithPath(path string) (*Service, error) {
	svc := &Service{cachePath: path, client: newClient()}
	cache, err := loadCache(path)
	if err != nil {
		return nil, fmt.Errorf("loading pricing cache %s: %w", path, err)
	}
	svc.cache = cache
	return svc, nil
}

func newAtPath(ctx context.Context, path string, bootstrapIfAbsent bool) (*Service, error) {
	svc := &Service{cachePath: path, client: newClient()}

	cache, err := loadCache(path)
	switch {
	case err == nil:
		svc.cache = cache
		if isExpired(cache) {
			if fresh, ferr := svc.fetch(ctx); ferr == nil {
				svc.cache = fresh
				_ = saveCache(path, fresh)
			}
			// Expired cache remains usable if refresh failed.
		}
	case os.IsNotExist(err):
		if !bootstrapIfAbsent {
			return nil, fmt.Errorf("no pricing cache at %s: %w", path, errs.ErrPricing)
		}
		fresh, ferr := svc.fetch(ctx)
		if ferr != nil {
			return nil, fmt.Errorf("bootstrapping pricing cache: %w", ferr)
		}
		svc.cache = fresh
		if serr := saveCache(path, fresh); serr != nil {
			log.Printf("[toktrack] Warning: could not persist pricing cache: %v", serr)
		}
	default:
		// Corrupt or unreadable cache: fall back to a fresh fetch.
		fresh, ferr := svc.fetch(ctx)
		if ferr != nil {
			return nil, fmt.Errorf("pricing cache unreadable and fetch failed: %w", ferr)
		}
		svc.cache = fresh
		_ = saveCache(path, fresh)
	}
	return svc, nil
}

func newClient() *http.Client {
	return &http.Client{Timeout: RequestTimeout}
}

func isExpired(c types.PricingCache) bool {
	return time.Now().Unix()-c.FetchedAt > int64(CacheTTL.Seconds())
}

func loadCache(path string) (types.PricingCache, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.PricingCache{}, err
	}
	var cache types.PricingCache
	if err := json.Unmarshal(data, &cache); err != nil {
		return types.PricingCache{}, fmt.Errorf("parsing pricing cache: %w", errs.ErrPricing)
	}
	return cache, nil
}

func saveCache(path string, cache types.PricingCache) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating pricing cache dir: %w", err)
	}
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding pricing cache: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// fetch performs the single blocking HTTPS GET with a hard 10s timeout and
// never aborts the pipeline on failure; callers decide the fallback.
func (s *Service) fetch(ctx context.Context) (types.PricingCache, error) {
	reqCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, LiteLLMPricingURL, nil)
	if err != nil {
		return types.PricingCache{}, fmt.Errorf("building pricing request: %w", errs.ErrPricing)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return types.PricingCache{}, fmt.Errorf("fetching pricing table: %w", errs.ErrPricing)
	}
	defer resp.Body.Close()

	var models map[string]types.ModelPricing
	if err := json.NewDecoder(resp.Body).Decode(&models); err != nil {
		return types.PricingCache{}, fmt.Errorf("decoding pricing table: %w", errs.ErrPricing)
	}

	return types.PricingCache{FetchedAt: time.Now().Unix(), Models: models}, nil
}

// Refresh forces a re-fetch bypassing TTL, used ahead of a backup export so
// the snapshot carries current rates. Bypasses the opportunistic-refresh
// path entirely; on failure the existing in-memory cache is left untouched.
func (s *Service) Refresh(ctx context.Context) error {
	fresh, err := s.fetch(ctx)
	if err != nil {
		return fmt.Errorf("refreshing pricing cache: %w", err)
	}
	s.cache = fresh
	return saveCache(s.cachePath, fresh)
}

// GetPricing looks up a model, trying the exact raw name first, then the
// normalizer's output. Never mutates the raw name.
func (s *Service) GetPricing(model string) (types.ModelPricing, bool) {
	if p, ok := s.cache.Models[model]; ok {
		return p, true
	}
	if normalized := normalizer.Normalize(model); normalized != model {
		if p, ok := s.cache.Models[normalized]; ok {
			return p, true
		}
	}
	return types.ModelPricing{}, false
}

// CalculateCost always computes cost from token counts, ignoring any
// vendor-reported cost_usd. Missing rates and unknown models cost 0.
func (s *Service) CalculateCost(r types.UsageRecord) float64 {
	if r.Model == "" {
		return 0
	}
	p, ok := s.GetPricing(r.Model)
	if !ok {
		return 0
	}
	in := optFloat(p.InputCostPerToken)
	out := optFloat(p.OutputCostPerToken)
	cr := optFloat(p.CacheReadInputTokenCost)
	cc := optFloat(p.CacheCreationInputTokenCost)

	return float64(r.InputTokens)*in +
		float64(r.CacheReadTokens)*cr +
		float64(r.CacheCreationTokens)*cc +
		float64(r.OutputTokens)*out
}

// GetOrCalculateCost returns the record's own cost_usd if present, else
// CalculateCost.
func (s *Service) GetOrCalculateCost(r types.UsageRecord) float64 {
	if r.CostUSD != nil {
		return *r.CostUSD
	}
	return s.CalculateCost(r)
}

// ModelCount reports how many models the loaded pricing cache knows about.
func (s *Service) ModelCount() int {
	return len(s.cache.Models)
}

func optFloat(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
