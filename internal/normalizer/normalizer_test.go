package normalizer

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{"dot to hyphen single", "claude-opus-4.5", "claude-opus-4-5"},
		{"dot to hyphen multiple", "model-1.2.3", "model-1-2-3"},
		{"date suffix opus", "claude-opus-4-5-20251101", "claude-opus-4-5"},
		{"date suffix sonnet", "claude-sonnet-4-20250514", "claude-sonnet-4"},
		{"dot and date combined", "claude-opus-4.5-20251101", "claude-opus-4-5"},
		{"already normalized", "claude-opus-4-5", "claude-opus-4-5"},
		{"no date suffix", "gpt-4o", "gpt-4o"},
		{"empty string", "", ""},
		{"unknown model", "unknown-model", "unknown-model"},
		{"short date not removed", "model-12345678-extra", "model-12345678-extra"},
		{"date must be at end", "20251101-claude", "20251101-claude"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"claude-opus-4.5-20251101", "gpt-4o", "", "model-1.2.3-20250514"}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}
