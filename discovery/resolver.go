package discovery

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/hoelk-f/heatspace/linkeddata"
	"github.com/hoelk-f/heatspace/metric"
	"github.com/hoelk-f/heatspace/vocabulary"
)

// errSeriesExcluded marks dataset-series documents, which are containers
// of datasets rather than datasets themselves.
var errSeriesExcluded = errors.New("dataset series excluded")

// errNoAccessURL marks datasets with no resolvable distribution URL.
var errNoAccessURL = errors.New("no resolvable access url")

// registryMode values read from the requester's profile.
const (
	modeResearch = "research"
	modePrivate  = "private"
)

// registryConfig is the requester's registry selection: a single private
// registry, an explicit list, or (when neither is configured) the presets.
type registryConfig struct {
	mode            string
	registries      []string
	privateRegistry string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithPresets sets the fixed preset registry list used when the requester
// profile configures none.
func WithPresets(presets []string) Option {
	return func(r *Resolver) { r.presets = presets }
}

// WithFilter sets the candidate filter applied to discovered access URLs.
func WithFilter(f SourceFilter) Option {
	return func(r *Resolver) { r.filter = f }
}

// WithLogger sets the logger for skipped-branch reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// WithMetrics attaches discovery instruments.
func WithMetrics(m *metric.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// Resolver walks registries to members to catalogs to datasets and
// produces normalized Source records. Every network or parse failure at
// leaf granularity is treated as "this item does not exist": no error
// propagates out of DiscoverSources, which returns whatever subset it
// could resolve.
type Resolver struct {
	fetcher linkeddata.Fetcher
	presets []string
	filter  SourceFilter
	logger  *slog.Logger
	metrics *metric.Metrics
}

// NewResolver creates a Resolver over the given fetcher.
func NewResolver(fetcher linkeddata.Fetcher, opts ...Option) *Resolver {
	r := &Resolver{
		fetcher: fetcher,
		filter:  TempJSONFilter,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DiscoverSources walks the data space visible to requesterWebID and
// returns the deduplicated source list, ranked by title. Sibling branches
// fan out concurrently at every level; a failure in one branch never
// reduces the yield of the others.
func (r *Resolver) DiscoverSources(ctx context.Context, requesterWebID string) []Source {
	started := time.Now()

	members := r.loadRegistryMembers(ctx, requesterWebID)
	catalogs := r.resolveCatalogs(ctx, members)

	sourceLists := fanOut(ctx, catalogs, func(ctx context.Context, catalogURL string) branch[[]Source] {
		sources, err := r.loadCatalogSources(ctx, catalogURL)
		if err != nil {
			r.skip("catalog", catalogURL, err)
			return skipped[[]Source](err)
		}
		r.metrics.Branch("catalog", true)
		return ok(sources)
	})

	var merged []Source
	for _, list := range values(sourceLists) {
		for _, s := range list {
			if r.filter != nil && !r.filter(s.AccessURL) {
				continue
			}
			merged = append(merged, s)
		}
	}

	result := RankByTitle(Dedupe(merged))
	r.metrics.DiscoveryPass(time.Since(started), len(result))
	r.logger.Info("discovery pass complete",
		"members", len(members),
		"catalogs", len(catalogs),
		"sources", len(result),
		"elapsed", time.Since(started))
	return result
}

// loadRegistryConfig reads the requester's registry selection from its
// profile. Any failure falls back to the preset list; this never raises.
func (r *Resolver) loadRegistryConfig(ctx context.Context, webID string) registryConfig {
	defaults := registryConfig{
		mode:            modeResearch,
		privateRegistry: vocabulary.PodRoot(webID) + "registry/",
	}
	if webID == "" {
		return defaults
	}

	doc, err := linkeddata.Load(ctx, r.fetcher, webID)
	if err != nil || !doc.HasSubject(webID) {
		return defaults
	}

	cfg := defaults
	if mode := strings.ToLower(doc.Str(webID, vocabulary.SDMRegistryMode)); mode == modePrivate {
		cfg.mode = modePrivate
	}
	cfg.registries = doc.IRIs(webID, vocabulary.SDMRegistry)
	if private := doc.IRI(webID, vocabulary.SDMPrivateRegistry); private != "" {
		cfg.privateRegistry = private
	}
	return cfg
}

// containers resolves the registry containers to scan for this pass.
func (r *Resolver) containers(cfg registryConfig) []string {
	var raw []string
	switch {
	case cfg.mode == modePrivate:
		raw = []string{cfg.privateRegistry}
	case len(cfg.registries) > 0:
		raw = cfg.registries
	default:
		raw = r.presets
	}

	out := make([]string, 0, len(raw))
	for _, u := range raw {
		if normalized := vocabulary.NormalizeContainerURL(u); normalized != "" {
			out = append(out, normalized)
		}
	}
	return out
}

// loadRegistryMembers enumerates every configured registry container and
// collects the member identities of their entries. Duplicate identities
// across registries collapse; one bad registry cannot block the others.
func (r *Resolver) loadRegistryMembers(ctx context.Context, requesterWebID string) []string {
	cfg := r.loadRegistryConfig(ctx, requesterWebID)

	memberLists := fanOut(ctx, r.containers(cfg), func(ctx context.Context, containerURL string) branch[[]string] {
		container, err := linkeddata.Load(ctx, r.fetcher, containerURL)
		if err != nil {
			r.skip("registry", containerURL, err)
			return skipped[[]string](err)
		}
		r.metrics.Branch("registry", true)

		entries := fanOut(ctx, container.Contained(), func(ctx context.Context, entryURL string) branch[string] {
			member, err := r.readMember(ctx, entryURL)
			if err != nil {
				r.skip("registry_entry", entryURL, err)
				return skipped[string](err)
			}
			r.metrics.Branch("registry_entry", true)
			return ok(member)
		})
		return ok(values(entries))
	})

	seen := make(map[string]struct{})
	var members []string
	for _, list := range values(memberLists) {
		for _, m := range list {
			if m == "" {
				continue
			}
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			members = append(members, m)
		}
	}
	return members
}

// readMember loads one registry entry and reads its member identity.
func (r *Resolver) readMember(ctx context.Context, entryURL string) (string, error) {
	doc, err := linkeddata.Load(ctx, r.fetcher, entryURL)
	if err != nil {
		return "", err
	}
	subject := doc.PrimarySubject(entryURL + "#it")
	if subject == "" {
		return "", errors.New("registry entry has no subject")
	}
	return doc.IRI(subject, vocabulary.FOAFMember), nil
}

// resolveCatalogs maps member identities to their published catalog URLs,
// dropping members without one and deduplicating the rest.
func (r *Resolver) resolveCatalogs(ctx context.Context, members []string) []string {
	catalogs := fanOut(ctx, members, func(ctx context.Context, webID string) branch[string] {
		doc, err := linkeddata.Load(ctx, r.fetcher, webID)
		if err != nil {
			r.skip("member", webID, err)
			return skipped[string](err)
		}
		r.metrics.Branch("member", true)
		subject := doc.PrimarySubject(webID)
		return ok(doc.IRI(subject, vocabulary.DCATCatalog))
	})

	seen := make(map[string]struct{})
	var out []string
	for _, c := range values(catalogs) {
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// loadCatalogSources reads a catalog's dataset references and parses each
// dataset description into a Source.
func (r *Resolver) loadCatalogSources(ctx context.Context, catalogURL string) ([]Source, error) {
	doc, err := linkeddata.Load(ctx, r.fetcher, catalogURL)
	if err != nil {
		return nil, err
	}
	if !doc.HasSubject(catalogURL) {
		return nil, nil
	}

	sources := fanOut(ctx, doc.IRIs(catalogURL, vocabulary.DCATDataset), func(ctx context.Context, datasetURL string) branch[Source] {
		source, err := r.parseSource(ctx, datasetURL)
		if err != nil {
			r.skip("dataset", datasetURL, err)
			return skipped[Source](err)
		}
		r.metrics.Branch("dataset", true)
		return ok(source)
	})
	return values(sources), nil
}

// parseSource loads one dataset description and normalizes it into a
// Source. Series documents, datasets with no resolvable access URL, and
// datasets with no identity key are dropped.
func (r *Resolver) parseSource(ctx context.Context, datasetURL string) (Source, error) {
	docURL := vocabulary.DocumentURL(datasetURL)
	doc, err := linkeddata.Load(ctx, r.fetcher, datasetURL)
	if err != nil {
		return Source{}, err
	}

	subject := doc.PrimarySubject(datasetURL, docURL+"#it")
	if subject == "" {
		return Source{}, errors.New("dataset document has no subject")
	}
	if doc.HasType(subject, vocabulary.DCATDatasetSeries) {
		return Source{}, errSeriesExcluded
	}

	identifier := doc.Str(subject, vocabulary.DCTermsIdentifier)
	if identifier == "" {
		identifier = datasetURL
	}
	title := doc.Str(subject, vocabulary.DCTermsTitle)
	if title == "" {
		title = "Untitled source"
	}

	// First resolvable distribution URL wins, in declared order; a
	// download URL is preferred over an access URL per distribution.
	var accessURL string
	for _, distURL := range doc.IRIs(subject, vocabulary.DCATDistribution) {
		if !doc.HasSubject(distURL) {
			continue
		}
		if u := doc.IRI(distURL, vocabulary.DCATDownloadURL); u != "" {
			accessURL = u
			break
		}
		if u := doc.IRI(distURL, vocabulary.DCATAccessURL); u != "" {
			accessURL = u
			break
		}
	}
	if accessURL == "" {
		return Source{}, errNoAccessURL
	}

	key := SourceKey(identifier, accessURL)
	if key == "" {
		return Source{}, errors.New("dataset has no identity key")
	}

	return Source{
		Key:        key,
		Identifier: identifier,
		Title:      title,
		AccessURL:  accessURL,
		OwnerWebID: doc.IRI(subject, vocabulary.DCTermsCreator),
		Public:     strings.ToLower(doc.Str(subject, vocabulary.DCTermsAccessRights)) == "public",
	}, nil
}

func (r *Resolver) skip(level, url string, err error) {
	r.metrics.Branch(level, false)
	r.logger.Debug("discovery branch skipped", "level", level, "url", url, "error", err)
}
