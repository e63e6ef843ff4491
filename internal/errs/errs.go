// Package errs defines toktrack's error-kind taxonomy. Kinds are sentinel
// values meant to be wrapped with fmt.Errorf and unwrapped with errors.Is,
// not a parallel exception hierarchy.
package errs

import "errors"

// Kind sentinels. Wrap these with fmt.Errorf("...: %w", ErrParse) so callers
// can classify a failure with errors.Is without string matching.
var (
	// ErrParse marks a failure to decode JSON/JSONL, or the terminal
	// "no usage data found" condition. Per-line decode failures are not
	// errors; they are silently discarded by the parser.
	ErrParse = errors.New("parse error")

	// ErrIO wraps underlying OS/filesystem failures.
	ErrIO = errors.New("io error")

	// ErrCache marks serialization, temp-file, fsync, rename, or lock
	// failures. Readers degrade to a CacheWarning; writers propagate.
	ErrCache = errors.New("cache error")

	// ErrPricing marks HTTP/timeout/JSON failures during pricing fetch.
	ErrPricing = errors.New("pricing error")

	// ErrConfig marks a missing home directory or incoherent CLI arguments.
	ErrConfig = errors.New("config error")
)

// ErrNoUsageData is the one fatal condition load() can return: no parser
// produced any entries at all. It unwraps to ErrParse.
var ErrNoUsageData error = noUsageDataError{}

type noUsageDataError struct{}

func (noUsageDataError) Error() string { return "no usage data found from any CLI" }
func (noUsageDataError) Unwrap() error { return ErrParse }
