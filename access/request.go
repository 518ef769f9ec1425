package access

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/hoelk-f/heatspace/discovery"
	"github.com/hoelk-f/heatspace/errors"
	"github.com/hoelk-f/heatspace/linkeddata"
	"github.com/hoelk-f/heatspace/metric"
	"github.com/hoelk-f/heatspace/vocabulary"
)

// Fetcher is the transport surface the access paths need: authenticated
// reads plus the inbox POST. Satisfied by *fetch.Client.
type Fetcher interface {
	Get(ctx context.Context, url, accept string) (*resty.Response, error)
	PostTurtle(ctx context.Context, url, slug, body string) (*resty.Response, error)
	Authenticated() bool
}

// Requester identifies the party sending access requests: its WebID and
// the fixed display name/contact embedded in every request resource.
type Requester struct {
	WebID   string
	Name    string
	Contact string
}

// RequestWriter composes access-request resources and posts them to data
// owners' inboxes.
type RequestWriter struct {
	fetcher   Fetcher
	requester Requester
	store     Store
	logger    *slog.Logger
	metrics   *metric.Metrics
	now       func() time.Time
}

// NewRequestWriter creates a RequestWriter. store may be nil when the
// caller tracks pending state itself; metrics may be nil.
func NewRequestWriter(fetcher Fetcher, requester Requester, store Store, logger *slog.Logger, metrics *metric.Metrics) *RequestWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RequestWriter{
		fetcher:   fetcher,
		requester: requester,
		store:     store,
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
	}
}

// RequestAccess delivers a structured access request for source to its
// owner's inbox. It requires an authenticated caller, creates a remote
// resource in a third party's storage, and is therefore not idempotent:
// it is never silently retried.
func (w *RequestWriter) RequestAccess(ctx context.Context, source discovery.Source, message string) error {
	err := w.requestAccess(ctx, source, message)
	w.metrics.Request(err)
	return err
}

func (w *RequestWriter) requestAccess(ctx context.Context, source discovery.Source, message string) error {
	if !w.fetcher.Authenticated() {
		return errors.WrapUnauthorized(errors.ErrNotLoggedIn, "access", "RequestAccess", "check session")
	}

	inbox := resolveInbox(ctx, w.fetcher, source.OwnerWebID)
	if inbox == "" {
		return errors.WrapNotFound(errors.ErrInboxNotConfigured, "access", "RequestAccess", "resolve owner inbox")
	}

	body := w.composeRequest(source, message)
	slug := fmt.Sprintf("access-request-%s-%s", source.Identifier, uuid.NewString())

	resp, err := w.fetcher.PostTurtle(ctx, inbox, slug, body)
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return errors.Rejected("access", "RequestAccess", resp.StatusCode())
	}

	w.logger.Info("access request delivered", "key", source.Key, "inbox", inbox)

	if w.store != nil {
		if err := w.store.Set(source.Key, StoredRequestState{
			State:     StatePending,
			UpdatedAt: w.now(),
		}); err != nil {
			// The remote request was created; a local bookkeeping failure
			// must not make the caller believe the send failed.
			w.logger.Warn("failed to persist pending state", "key", source.Key, "error", err)
		}
	}
	return nil
}

// composeRequest renders the machine-parsable access-request resource.
// Every literal is escaped and every embedded IRI percent-encoded so
// third-party-controlled values cannot corrupt the Turtle syntax.
func (w *RequestWriter) composeRequest(source discovery.Source, message string) string {
	lines := []string{
		fmt.Sprintf("@prefix sdm: <%s>.", vocabulary.SDMNS),
		fmt.Sprintf("@prefix dct: <%s>.", vocabulary.DCTermsNS),
		fmt.Sprintf("@prefix as: <%s>.", vocabulary.ASNS),
		fmt.Sprintf("@prefix xsd: <%s>.", vocabulary.XSDNS),
		"",
		"<> a sdm:AccessRequest, as:Offer;",
		fmt.Sprintf(`  dct:created "%s"^^xsd:dateTime;`, w.now().UTC().Format(time.RFC3339)),
		`  sdm:status "pending";`,
		fmt.Sprintf("  sdm:requesterWebId <%s>;", vocabulary.EscapeIRI(w.requester.WebID)),
		fmt.Sprintf(`  sdm:requesterName "%s";`, vocabulary.EscapeLiteral(w.requester.Name)),
		fmt.Sprintf(`  sdm:requesterEmail "%s";`, vocabulary.EscapeLiteral(w.requester.Contact)),
		fmt.Sprintf(`  sdm:datasetIdentifier "%s";`, vocabulary.EscapeLiteral(source.Identifier)),
		fmt.Sprintf(`  sdm:datasetTitle "%s";`, vocabulary.EscapeLiteral(source.Title)),
		fmt.Sprintf("  sdm:datasetAccessUrl <%s>;", vocabulary.EscapeIRI(source.AccessURL)),
		fmt.Sprintf(`  sdm:message "%s";`, vocabulary.EscapeLiteral(message)),
		"  .",
	}
	return strings.Join(lines, "\n")
}

// resolveInbox reads the ldp:inbox relation from an identity's profile.
// Missing profiles or relations yield "".
func resolveInbox(ctx context.Context, f Fetcher, webID string) string {
	if webID == "" {
		return ""
	}
	doc, err := linkeddata.Load(ctx, f, webID)
	if err != nil {
		return ""
	}
	subject := doc.PrimarySubject(webID)
	if subject == "" {
		return ""
	}
	return doc.IRI(subject, vocabulary.LDPInbox)
}
