package discovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoelk-f/heatspace/pkg/fetch"
)

// testPod serves a small federation of Turtle documents. Bodies may use
// {base} for the server's own URL; it is substituted once the listener is
// bound. Paths listed in failing return 500.
type testPod struct {
	mu      sync.Mutex
	docs    map[string]string
	failing map[string]bool
	srv     *httptest.Server
}

func newTestPod(t *testing.T) *testPod {
	t.Helper()
	pod := &testPod{
		docs:    make(map[string]string),
		failing: make(map[string]bool),
	}
	pod.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pod.mu.Lock()
		defer pod.mu.Unlock()
		if pod.failing[r.URL.Path] {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		body, found := pod.docs[r.URL.Path]
		if !found {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/turtle")
		_, _ = w.Write([]byte(strings.ReplaceAll(body, "{base}", pod.srv.URL)))
	}))
	t.Cleanup(pod.srv.Close)
	return pod
}

func (p *testPod) add(path, turtle string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.docs[path] = turtle
}

func (p *testPod) fail(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failing[path] = true
}

func (p *testPod) url(path string) string {
	return p.srv.URL + path
}

const prefixes = `
@prefix foaf: <http://xmlns.com/foaf/0.1/>.
@prefix ldp: <http://www.w3.org/ns/ldp#>.
@prefix dcat: <http://www.w3.org/ns/dcat#>.
@prefix dct: <http://purl.org/dc/terms/>.
`

// seedFederation populates two registries: alice (public temp source plus
// a dataset series and a duplicate) behind registry1, bob (restricted temp
// source plus the same duplicate and a filtered non-temp source) behind
// registry2.
func seedFederation(pod *testPod) {
	pod.add("/registry1/", prefixes+`
<{base}/registry1/> ldp:contains <{base}/registry1/entry-a>.
`)
	pod.add("/registry1/entry-a", prefixes+`
<{base}/registry1/entry-a#it> foaf:member <{base}/alice/profile/card#me>.
`)
	pod.add("/registry2/", prefixes+`
<{base}/registry2/> ldp:contains <{base}/registry2/entry-b>, <{base}/registry2/entry-broken>.
`)
	pod.add("/registry2/entry-b", prefixes+`
<{base}/registry2/entry-b#it> foaf:member <{base}/bob/profile/card#me>.
`)
	pod.add("/registry2/entry-broken", `not turtle at all {{{`)

	pod.add("/alice/profile/card", prefixes+`
<{base}/alice/profile/card#me> dcat:catalog <{base}/alice/catalog>.
`)
	pod.add("/bob/profile/card", prefixes+`
<{base}/bob/profile/card#me> dcat:catalog <{base}/bob/catalog>.
`)

	pod.add("/alice/catalog", prefixes+`
<{base}/alice/catalog> dcat:dataset <datasets/temp-1>, <datasets/series-1>, <datasets/temp-dup>.
`)
	pod.add("/alice/datasets/temp-1", prefixes+`
<{base}/alice/datasets/temp-1>
  dct:identifier "temp-1";
  dct:title "City Temp";
  dct:creator <{base}/alice/profile/card#me>;
  dct:accessRights "public";
  dcat:distribution <{base}/alice/datasets/temp-1#dist>.
<{base}/alice/datasets/temp-1#dist> dcat:downloadURL <{base}/alice/files/temp-1.json>.
`)
	pod.add("/alice/datasets/series-1", prefixes+`
<{base}/alice/datasets/series-1> a dcat:DatasetSeries;
  dct:identifier "series-1";
  dct:title "A Series";
  dcat:distribution <{base}/alice/datasets/series-1#dist>.
<{base}/alice/datasets/series-1#dist> dcat:downloadURL <{base}/alice/files/series-temp.json>.
`)
	pod.add("/alice/datasets/temp-dup", prefixes+`
<{base}/alice/datasets/temp-dup>
  dct:identifier "temp-dup";
  dct:title "Dup A";
  dct:accessRights "public";
  dcat:distribution <{base}/alice/datasets/temp-dup#dist>.
<{base}/alice/datasets/temp-dup#dist> dcat:downloadURL <{base}/alice/files/dup-temp.json>.
`)

	pod.add("/bob/catalog", prefixes+`
<{base}/bob/catalog> dcat:dataset <datasets/temp-2>, <datasets/temp-dup>, <datasets/noise>.
`)
	pod.add("/bob/datasets/temp-2", prefixes+`
<{base}/bob/datasets/temp-2>
  dct:identifier "temp-2";
  dct:title "Bob Restricted Temp";
  dct:creator <{base}/bob/profile/card#me>;
  dct:accessRights "restricted";
  dcat:distribution <{base}/bob/datasets/temp-2#dist>.
<{base}/bob/datasets/temp-2#dist> dcat:accessURL <{base}/bob/files/bob-temp.json>.
`)
	pod.add("/bob/datasets/temp-dup", prefixes+`
<{base}/bob/datasets/temp-dup>
  dct:identifier "temp-dup";
  dct:title "Dup B";
  dct:accessRights "public";
  dcat:distribution <{base}/bob/datasets/temp-dup#dist>.
<{base}/bob/datasets/temp-dup#dist> dcat:downloadURL <{base}/bob/files/dup2-temp.json>.
`)
	pod.add("/bob/datasets/noise", prefixes+`
<{base}/bob/datasets/noise>
  dct:identifier "noise-1";
  dct:title "Noise Levels";
  dct:accessRights "public";
  dcat:distribution <{base}/bob/datasets/noise#dist>.
<{base}/bob/datasets/noise#dist> dcat:downloadURL <{base}/bob/files/noise.csv>.
`)
}

func newResolver(pod *testPod) *Resolver {
	return NewResolver(fetch.New(), WithPresets([]string{
		pod.url("/registry1/"),
		pod.url("/registry2/"),
	}))
}

func keys(sources []Source) []string {
	out := make([]string, len(sources))
	for i, s := range sources {
		out[i] = s.Key
	}
	return out
}

func TestDiscoverSources_FullWalk(t *testing.T) {
	pod := newTestPod(t)
	seedFederation(pod)

	sources := newResolver(pod).DiscoverSources(context.Background(), pod.url("/app/profile/card#me"))

	// temp-1, temp-2, temp-dup survive; series excluded, noise filtered,
	// dup collapsed first-seen-wins. Output sorted by title.
	require.Len(t, sources, 3)
	assert.Equal(t, []string{"temp-2", "temp-1", "temp-dup"}, keys(sources))

	byKey := make(map[string]Source)
	for _, s := range sources {
		require.NotEmpty(t, s.Key)
		byKey[s.Key] = s
	}

	assert.Equal(t, "City Temp", byKey["temp-1"].Title)
	assert.True(t, byKey["temp-1"].Public)
	assert.Equal(t, pod.url("/alice/files/temp-1.json"), byKey["temp-1"].AccessURL)
	assert.Equal(t, pod.url("/alice/profile/card#me"), byKey["temp-1"].OwnerWebID)

	assert.False(t, byKey["temp-2"].Public)
	assert.Equal(t, pod.url("/bob/files/bob-temp.json"), byKey["temp-2"].AccessURL)

	// First-seen catalog scan wins for the duplicate key.
	assert.Equal(t, "Dup A", byKey["temp-dup"].Title)
}

func TestDiscoverSources_Idempotent(t *testing.T) {
	pod := newTestPod(t)
	seedFederation(pod)
	resolver := newResolver(pod)

	first := resolver.DiscoverSources(context.Background(), pod.url("/app/profile/card#me"))
	second := resolver.DiscoverSources(context.Background(), pod.url("/app/profile/card#me"))
	assert.Equal(t, keys(first), keys(second))
}

func TestDiscoverSources_DedupInvariant(t *testing.T) {
	pod := newTestPod(t)
	seedFederation(pod)

	sources := newResolver(pod).DiscoverSources(context.Background(), pod.url("/app/profile/card#me"))
	seen := make(map[string]bool)
	for _, s := range sources {
		require.NotEmpty(t, s.Key)
		assert.False(t, seen[s.Key], "duplicate key %q", s.Key)
		seen[s.Key] = true
	}
}

func TestDiscoverSources_BranchIsolation(t *testing.T) {
	pod := newTestPod(t)
	seedFederation(pod)
	pod.fail("/registry2/")

	sources := newResolver(pod).DiscoverSources(context.Background(), pod.url("/app/profile/card#me"))

	// Registry2's sources are gone, registry1's full yield remains.
	assert.Equal(t, []string{"temp-1", "temp-dup"}, keys(sources))
}

func TestDiscoverSources_DatasetFailureIsolated(t *testing.T) {
	pod := newTestPod(t)
	seedFederation(pod)
	pod.fail("/alice/datasets/temp-1")

	sources := newResolver(pod).DiscoverSources(context.Background(), pod.url("/app/profile/card#me"))

	assert.NotContains(t, keys(sources), "temp-1")
	assert.Contains(t, keys(sources), "temp-2")
	assert.Contains(t, keys(sources), "temp-dup")
}

func TestDiscoverSources_ConfigFallbackToPresets(t *testing.T) {
	pod := newTestPod(t)
	seedFederation(pod)

	// Requester profile does not exist; discovery must still scan presets.
	sources := newResolver(pod).DiscoverSources(context.Background(), pod.url("/missing/profile/card#me"))
	assert.Len(t, sources, 3)
}

func TestDiscoverSources_PrivateRegistryMode(t *testing.T) {
	pod := newTestPod(t)
	seedFederation(pod)

	pod.add("/app/profile/card", prefixes+`
@prefix sdm: <https://w3id.org/solid-dataspace-manager#>.
<{base}/app/profile/card#me>
  sdm:registryMode "private";
  sdm:privateRegistry <{base}/registry1/>.
`)

	sources := newResolver(pod).DiscoverSources(context.Background(), pod.url("/app/profile/card#me"))

	// Only registry1 is scanned in private mode.
	assert.Equal(t, []string{"temp-1", "temp-dup"}, keys(sources))
}

func TestDiscoverSources_ExplicitRegistryList(t *testing.T) {
	pod := newTestPod(t)
	seedFederation(pod)

	// Explicit registry list without trailing slash; it must be normalized.
	pod.add("/app/profile/card", prefixes+`
@prefix sdm: <https://w3id.org/solid-dataspace-manager#>.
<{base}/app/profile/card#me> sdm:registry <{base}/registry2>.
`)

	sources := newResolver(pod).DiscoverSources(context.Background(), pod.url("/app/profile/card#me"))
	assert.Equal(t, []string{"temp-2", "temp-dup"}, keys(sources))
}

func TestDiscoverSources_SeriesNeverReturned(t *testing.T) {
	pod := newTestPod(t)
	seedFederation(pod)

	sources := newResolver(pod).DiscoverSources(context.Background(), pod.url("/app/profile/card#me"))
	for _, s := range sources {
		assert.NotEqual(t, "series-1", s.Key)
	}
}
