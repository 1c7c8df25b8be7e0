package utils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
)

func TestCompileRegexPatterns(t *testing.T) {
	t.Run("ValidPatterns", func(t *testing.T) {
		compiled, err := CompileRegexPatterns([]string{"^blog", `\.pdf$`, "private"})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if len(compiled) != 3 {
			t.Errorf("expected 3 compiled patterns, got %d", len(compiled))
		}
		if !compiled[0].MatchString("blog/post-1") {
			t.Error("pattern '^blog' should match 'blog/post-1'")
		}
	})

	t.Run("EmptyPatternsSkipped", func(t *testing.T) {
		compiled, err := CompileRegexPatterns([]string{"", "about", ""})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if len(compiled) != 1 {
			t.Errorf("expected 1 compiled pattern, got %d", len(compiled))
		}
	})

	t.Run("InvalidPattern", func(t *testing.T) {
		_, err := CompileRegexPatterns([]string{"["})
		if err == nil {
			t.Fatal("expected error for invalid pattern, got nil")
		}
		if !errors.Is(err, ErrConfigValidation) {
			t.Errorf("expected ErrConfigValidation, got: %v", err)
		}
	})

	t.Run("NoPatterns", func(t *testing.T) {
		compiled, err := CompileRegexPatterns(nil)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if len(compiled) != 0 {
			t.Errorf("expected no compiled patterns, got %d", len(compiled))
		}
	})
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"PlainName", "about", "about"},
		{"InvalidChars", `a<b>c:d"e`, "a_b_c_d_e"},
		{"ConsecutiveUnderscores", "a___b", "a_b"},
		{"LeadingTrailingTrimmed", "_abc_", "abc"},
		{"EmptyBecomesUntitled", "", "untitled"},
		{"OnlyInvalidBecomesUntitled", "???", "untitled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.input); got != tt.expected {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"Nil", nil, "None"},
		{"Client404", fmt.Errorf("%w: status 404 Not Found", ErrClientHTTPError), "HTTP_404"},
		{"Client403", fmt.Errorf("%w: status 403 Forbidden", ErrClientHTTPError), "HTTP_403"},
		{"ClientGeneric", fmt.Errorf("%w: status 410 Gone", ErrClientHTTPError), "HTTP_4xx"},
		{"Server", fmt.Errorf("%w: status 503", ErrServerHTTPError), "HTTP_5xx"},
		{"TransportRefused", fmt.Errorf("%w: %w", ErrTransport, errors.New("dial tcp: connection refused")), "Network_ConnectionRefused"},
		{"TransportDNS", fmt.Errorf("%w: %w", ErrTransport, errors.New("lookup example.invalid: no such host")), "Network_DNSLookup"},
		{"TransportOther", fmt.Errorf("%w: %w", ErrTransport, errors.New("weird")), "Network_Other"},
		{"ParsingHTML", fmt.Errorf("%w: bad HTML", ErrParsing), "Content_ParsingHTML"},
		{"FilesystemPermission", fmt.Errorf("%w: %w", ErrFilesystem, os.ErrPermission), "Filesystem_Permission"},
		{"ContextCanceled", context.Canceled, "System_ContextCanceled"},
		{"Unknown", errors.New("mystery"), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CategorizeError(tt.err); got != tt.expected {
				t.Errorf("CategorizeError(%v) = %q, want %q", tt.err, got, tt.expected)
			}
		})
	}
}
