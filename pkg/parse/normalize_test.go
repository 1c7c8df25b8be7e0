package parse

import (
	"net/url"
	"testing"
)

func TestNormalizeKey_NilInput(t *testing.T) {
	if result := NormalizeKey(nil); result != IndexKey {
		t.Errorf("NormalizeKey(nil) = %q, want %q", result, IndexKey)
	}
}

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "EmptyPathBecomesIndex",
			input:    "https://example.com",
			expected: "index",
		},
		{
			name:     "RootPathBecomesIndex",
			input:    "https://example.com/",
			expected: "index",
		},
		{
			name:     "PlainPath",
			input:    "https://example.com/about",
			expected: "about",
		},
		{
			name:     "TrailingSlashStripped",
			input:    "https://example.com/about/",
			expected: "about",
		},
		{
			name:     "CaseLowered",
			input:    "https://example.com/About/Team",
			expected: "about/team",
		},
		{
			name:     "FragmentIgnored",
			input:    "https://example.com/about#section",
			expected: "about",
		},
		{
			name:     "QueryIgnored",
			input:    "https://example.com/search?q=go",
			expected: "search",
		},
		{
			name:     "DeepPath",
			input:    "https://example.com/blog/2024/post-1/",
			expected: "blog/2024/post-1",
		},
		{
			name:     "HostDoesNotLeakIntoKey",
			input:    "https://EXAMPLE.com/x",
			expected: "x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := url.Parse(tt.input)
			if err != nil {
				t.Fatalf("url.Parse(%q) failed: %v", tt.input, err)
			}
			if result := NormalizeKey(parsed); result != tt.expected {
				t.Errorf("NormalizeKey(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

// Query-string variants of the same path collapse to one key. This mirrors the
// path-only comparison the crawler deliberately uses for dedup.
func TestNormalizeKey_QueryVariantsCollapse(t *testing.T) {
	a, _ := url.Parse("https://example.com/item?id=1")
	b, _ := url.Parse("https://example.com/item?id=2")
	if NormalizeKey(a) != NormalizeKey(b) {
		t.Errorf("query variants should normalize identically: %q vs %q", NormalizeKey(a), NormalizeKey(b))
	}
}

func TestNormalizeKey_Idempotent(t *testing.T) {
	inputs := []string{
		"https://example.com/Blog/Post-1/",
		"https://example.com/",
		"http://example.com/a/b/c#frag",
		"https://example.com/x?y=z",
	}
	for _, input := range inputs {
		parsed, _ := url.Parse(input)
		key := NormalizeKey(parsed)
		// Reapply normalization to a URL built from the key
		reparsed, _ := url.Parse("https://example.com/" + key)
		if again := NormalizeKey(reparsed); again != key {
			t.Errorf("NormalizeKey not idempotent for %q: first %q, second %q", input, key, again)
		}
	}
}

func TestNormalizeKeyString(t *testing.T) {
	key, parsed, err := NormalizeKeyString("https://example.com/About/")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if key != "about" {
		t.Errorf("key = %q, want %q", key, "about")
	}
	if parsed.Hostname() != "example.com" {
		t.Errorf("hostname = %q, want %q", parsed.Hostname(), "example.com")
	}

	if _, _, err := NormalizeKeyString("http://exa mple.com/%"); err == nil {
		t.Error("expected error for malformed URL, got nil")
	}
}
