package vocabulary

import (
	"net/url"
	"strings"
)

// DocumentURL strips the fragment from a resource URL, yielding the URL of
// the document the resource lives in.
func DocumentURL(resourceURL string) string {
	if i := strings.Index(resourceURL, "#"); i >= 0 {
		return resourceURL[:i]
	}
	return resourceURL
}

// ResolveURL resolves value against base. Relative references in catalog
// and dataset documents resolve against the document's own URL. On any
// parse failure the value is returned unchanged, matching the lenient
// behavior expected across the federated read path.
func ResolveURL(value, base string) string {
	if value == "" {
		return ""
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return value
	}
	ref, err := url.Parse(value)
	if err != nil {
		return value
	}
	return baseURL.ResolveReference(ref).String()
}

// NormalizeContainerURL ensures a container URL carries a trailing slash.
// Returns "" for empty input.
func NormalizeContainerURL(value string) string {
	if value == "" {
		return ""
	}
	if strings.HasSuffix(value, "/") {
		return value
	}
	return value + "/"
}

// PodRoot derives the storage root of a WebID. Path segments up to (but
// not including) a "profile" segment form the root; a WebID with no
// profile segment keeps its full path.
func PodRoot(webID string) string {
	parsed, err := url.Parse(webID)
	if err != nil {
		return ""
	}

	segments := make([]string, 0, 4)
	for _, s := range strings.Split(parsed.Path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	for i, s := range segments {
		if s == "profile" {
			segments = segments[:i]
			break
		}
	}

	basePath := "/"
	if len(segments) > 0 {
		basePath = "/" + strings.Join(segments, "/") + "/"
	}
	return parsed.Scheme + "://" + parsed.Host + basePath
}
