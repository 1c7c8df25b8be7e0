package parse

import (
	"net/url"
	"strings"
)

// IndexKey is the sentinel key for URLs whose path is empty or the bare root.
const IndexKey = "index"

// NormalizeKey canonicalizes a URL into its comparable path key: the path
// component lower-cased with leading/trailing slashes stripped. An empty
// result becomes the "index" sentinel.
// Scheme, authority, query string and fragment never participate, so two URLs
// differing only in case, trailing slash, fragment or query collapse to the
// same key.
// Does not modify the input *url.URL
func NormalizeKey(u *url.URL) string {
	if u == nil {
		return IndexKey
	}
	key := strings.ToLower(u.Path)
	key = strings.Trim(key, "/")
	if key == "" {
		return IndexKey
	}
	return key
}

// NormalizeKeyString parses a raw URL string and returns its normalized key
// along with the parsed URL. Parse failures propagate to the caller.
func NormalizeKeyString(rawURL string) (string, *url.URL, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", nil, err
	}
	return NormalizeKey(parsed), parsed, nil
}
