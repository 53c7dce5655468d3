package remotepath

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrAnchorNotFound reports that a sub-path could not be computed because the
// anchor does not occur inside the full path.
var ErrAnchorNotFound = errors.New("anchor not found in path")

// Join builds a remote URL path from parts, stripping leading and trailing
// slashes from every part. Empty parts are skipped.
func Join(parts ...string) string {
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		cleaned = append(cleaned, strings.Trim(part, "/"))
	}
	return strings.Join(cleaned, "/")
}

// StripBasePrefix returns everything after the first "/{baseName}/" occurrence
// in path. The second return value reports whether the prefix was found; on a
// miss the path comes back unchanged so the caller can use it as-is.
func StripBasePrefix(path, baseName string) (string, bool) {
	_, after, found := strings.Cut(path, "/"+baseName+"/")
	if !found {
		return path, false
	}
	return after, true
}

// Decode percent-decodes s. Malformed escapes leave the input unchanged
// instead of failing.
func Decode(s string) string {
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}

// SubPath returns the portion of fullPath following anchor. Anchors and hrefs
// reach us with inconsistent percent-encoding, so matching is two-tier: an
// encoded prefix match that preserves the original encoding, and a decoded
// substring fallback.
func SubPath(fullPath, anchor string) (string, error) {
	decodedFull := Decode(fullPath)
	decodedAnchor := Decode(anchor)
	if !strings.HasSuffix(decodedAnchor, "/") {
		decodedAnchor += "/"
	}

	// The anchor is the target itself, there is no sub-path below it.
	if fullPath == strings.TrimSuffix(decodedAnchor, "/") {
		return "", nil
	}

	idx := strings.Index(decodedFull, decodedAnchor)
	if idx < 0 {
		return "", fmt.Errorf("%w: %q does not contain %q", ErrAnchorNotFound, fullPath, anchor)
	}

	if raw := strings.TrimSuffix(anchor, "/"); strings.HasPrefix(fullPath, raw) {
		return fullPath[len(raw):], nil
	}
	return decodedFull[idx+len(decodedAnchor):], nil
}
