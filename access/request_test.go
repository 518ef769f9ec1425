package access

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoelk-f/heatspace/discovery"
	"github.com/hoelk-f/heatspace/errors"
	"github.com/hoelk-f/heatspace/pkg/fetch"
)

// memStore is a minimal in-test Store.
type memStore struct {
	mu     sync.Mutex
	states map[string]StoredRequestState
}

func newMemStore() *memStore {
	return &memStore{states: make(map[string]StoredRequestState)}
}

func (s *memStore) Get(key string) (StoredRequestState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, found := s.states[key]
	return st, found
}

func (s *memStore) Set(key string, state StoredRequestState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[key] = state
	return nil
}

func (s *memStore) All() map[string]StoredRequestState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]StoredRequestState, len(s.states))
	for k, v := range s.states {
		out[k] = v
	}
	return out
}

// ownerPod serves an owner profile pointing at an inbox and records what
// gets posted there.
type ownerPod struct {
	mu         sync.Mutex
	srv        *httptest.Server
	hasInbox   bool
	postStatus int
	gotSlug    string
	gotBody    string
	gotType    string
}

func newOwnerPod(t *testing.T, hasInbox bool, postStatus int) *ownerPod {
	t.Helper()
	pod := &ownerPod{hasInbox: hasInbox, postStatus: postStatus}
	pod.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/owner/profile/card" && r.Method == http.MethodGet:
			w.Header().Set("Content-Type", "text/turtle")
			body := `<` + pod.srv.URL + `/owner/profile/card#me> <http://xmlns.com/foaf/0.1/name> "Owner".`
			if pod.hasInbox {
				body = `<` + pod.srv.URL + `/owner/profile/card#me> <http://www.w3.org/ns/ldp#inbox> <` + pod.srv.URL + `/owner/inbox/>.`
			}
			_, _ = w.Write([]byte(body))
		case r.URL.Path == "/owner/inbox/" && r.Method == http.MethodPost:
			raw, _ := io.ReadAll(r.Body)
			pod.mu.Lock()
			pod.gotSlug = r.Header.Get("Slug")
			pod.gotBody = string(raw)
			pod.gotType = r.Header.Get("Content-Type")
			pod.mu.Unlock()
			w.WriteHeader(pod.postStatus)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(pod.srv.Close)
	return pod
}

func (p *ownerPod) source() discovery.Source {
	return discovery.Source{
		Key:        "temp-1",
		Identifier: "temp-1",
		Title:      `City "Center" Temp`,
		AccessURL:  p.srv.URL + "/owner/files/temp-1.json",
		OwnerWebID: p.srv.URL + "/owner/profile/card#me",
		Public:     false,
	}
}

func testRequester() Requester {
	return Requester{
		WebID:   "https://pod.example/app/profile/card#me",
		Name:    "Smart City Urban Heat Monitoring",
		Contact: "noreply@smartcityurbanheatmonitoring.local",
	}
}

func authedFetcher() *fetch.Client {
	return fetch.New(fetch.WithTokenSource(fetch.StaticToken("token")))
}

func TestRequestAccess_DeliversEscapedTurtle(t *testing.T) {
	pod := newOwnerPod(t, true, http.StatusCreated)
	store := newMemStore()
	writer := NewRequestWriter(authedFetcher(), testRequester(), store, nil, nil)

	err := writer.RequestAccess(context.Background(), pod.source(), "please\nwith \"quotes\"")
	require.NoError(t, err)

	assert.Equal(t, "text/turtle", pod.gotType)
	assert.True(t, strings.HasPrefix(pod.gotSlug, "access-request-temp-1-"))

	body := pod.gotBody
	assert.Contains(t, body, "a sdm:AccessRequest, as:Offer;")
	assert.Contains(t, body, `sdm:status "pending";`)
	assert.Contains(t, body, "sdm:requesterWebId <https://pod.example/app/profile/card#me>;")
	assert.Contains(t, body, `sdm:datasetIdentifier "temp-1";`)
	// Literals are escaped, not raw.
	assert.Contains(t, body, `sdm:datasetTitle "City \"Center\" Temp";`)
	assert.Contains(t, body, `sdm:message "please\nwith \"quotes\"";`)
	assert.NotContains(t, body, "please\nwith")

	// A pending shadow is tracked locally once the request is sent.
	st, found := store.Get("temp-1")
	require.True(t, found)
	assert.Equal(t, StatePending, st.State)
}

func TestRequestAccess_EscapesEmbeddedIRIs(t *testing.T) {
	pod := newOwnerPod(t, true, http.StatusCreated)
	writer := NewRequestWriter(authedFetcher(), testRequester(), nil, nil, nil)

	// A discovered access URL is third-party data; a ">" must not break
	// out of the IRI reference.
	source := pod.source()
	source.AccessURL = pod.srv.URL + "/owner/files/temp>.<evil.json"

	require.NoError(t, writer.RequestAccess(context.Background(), source, "hi"))

	body := pod.gotBody
	assert.Contains(t, body, "sdm:datasetAccessUrl <"+pod.srv.URL+"/owner/files/temp%3E.%3Cevil.json>;")
	assert.NotContains(t, body, "temp>.<evil")
}

func TestRequestAccess_UniqueSlugs(t *testing.T) {
	pod := newOwnerPod(t, true, http.StatusCreated)
	writer := NewRequestWriter(authedFetcher(), testRequester(), nil, nil, nil)

	require.NoError(t, writer.RequestAccess(context.Background(), pod.source(), "first"))
	first := pod.gotSlug
	require.NoError(t, writer.RequestAccess(context.Background(), pod.source(), "second"))
	assert.NotEqual(t, first, pod.gotSlug)
}

func TestRequestAccess_RequiresLogin(t *testing.T) {
	pod := newOwnerPod(t, true, http.StatusCreated)
	writer := NewRequestWriter(fetch.New(), testRequester(), nil, nil, nil)

	err := writer.RequestAccess(context.Background(), pod.source(), "hi")
	require.Error(t, err)
	assert.True(t, errors.IsUnauthorized(err))
	assert.Empty(t, pod.gotBody)
}

func TestRequestAccess_InboxNotConfigured(t *testing.T) {
	pod := newOwnerPod(t, false, http.StatusCreated)
	writer := NewRequestWriter(authedFetcher(), testRequester(), nil, nil, nil)

	err := writer.RequestAccess(context.Background(), pod.source(), "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInboxNotConfigured)
}

func TestRequestAccess_RejectedCarriesStatus(t *testing.T) {
	pod := newOwnerPod(t, true, http.StatusForbidden)
	store := newMemStore()
	writer := NewRequestWriter(authedFetcher(), testRequester(), store, nil, nil)

	err := writer.RequestAccess(context.Background(), pod.source(), "hi")
	require.Error(t, err)
	assert.True(t, errors.IsRejected(err))
	assert.Equal(t, http.StatusForbidden, errors.StatusCode(err))

	// No pending shadow for a rejected send.
	_, found := store.Get("temp-1")
	assert.False(t, found)
}
