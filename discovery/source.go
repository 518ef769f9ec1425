// Package discovery walks the federated linked-data graph - registries,
// members, catalogs, datasets, distributions - and produces the
// deduplicated, title-ranked list of candidate temperature sources.
package discovery

import "strings"

// Source is a discovered data source. Constructed fresh on every discovery
// pass, never mutated, and superseded (not merged) by a later pass.
type Source struct {
	// Key is the stable identity: Identifier when present, else AccessURL.
	// Non-empty; it is the merge key here and the per-source state key in
	// the access package.
	Key string `json:"key"`
	// Identifier is the domain-assigned identifier (may be absent).
	Identifier string `json:"identifier"`
	// Title is the human display name.
	Title string `json:"title"`
	// AccessURL is the fully resolved URL current readings are fetched from.
	AccessURL string `json:"accessUrl"`
	// OwnerWebID is the identity of the publishing party; it resolves to
	// the inbox access requests are delivered to.
	OwnerWebID string `json:"ownerWebId"`
	// Public is the access classification.
	Public bool `json:"isPublic"`
}

// SourceKey derives the stable identity key: identifier when present,
// else the access URL. Two identifier-less datasets sharing an access URL
// collapse into one; that conflation is inherited behavior, not safe to
// optimize away.
func SourceKey(identifier, accessURL string) string {
	if identifier != "" {
		return identifier
	}
	return accessURL
}

// SourceFilter decides whether a discovered access URL is a candidate.
type SourceFilter func(accessURL string) bool

// TempJSONFilter accepts access URLs naming a temperature JSON payload:
// a .json document URL containing "temp".
func TempJSONFilter(accessURL string) bool {
	lower := strings.ToLower(accessURL)
	if i := strings.Index(lower, "#"); i >= 0 {
		lower = lower[:i]
	}
	return strings.HasSuffix(lower, ".json") && strings.Contains(lower, "temp")
}

// AllSourcesFilter accepts every access URL.
func AllSourcesFilter(string) bool { return true }
