package access

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hoelk-f/heatspace/discovery"
	"github.com/hoelk-f/heatspace/errors"
	"github.com/hoelk-f/heatspace/linkeddata"
	"github.com/hoelk-f/heatspace/metric"
	"github.com/hoelk-f/heatspace/vocabulary"
)

// DecisionReader scans the requester's own inbox for decision resources
// and folds them into one authoritative item per source key.
type DecisionReader struct {
	fetcher Fetcher
	logger  *slog.Logger
	metrics *metric.Metrics
	now     func() time.Time
}

// NewDecisionReader creates a DecisionReader. metrics may be nil.
func NewDecisionReader(fetcher Fetcher, logger *slog.Logger, metrics *metric.Metrics) *DecisionReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &DecisionReader{
		fetcher: fetcher,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// LoadDecisions lists the requester's inbox and parses every contained
// resource that matches the decision vocabulary. Resources that fail to
// load or parse, or that are not decision resources, are skipped. Listing
// the inbox itself is the one failure that surfaces, because the polling
// caller owns retrying it.
//
// Expiry is projected as of the reader's clock: an approved item whose
// expiry has passed reads as expired without mutating anything remote.
func (r *DecisionReader) LoadDecisions(ctx context.Context, requesterWebID string) (map[string]DecisionItem, error) {
	inbox := resolveInbox(ctx, r.fetcher, requesterWebID)
	if inbox == "" {
		inbox = vocabulary.PodRoot(requesterWebID) + "inbox/"
	}

	inboxDoc, err := linkeddata.Load(ctx, r.fetcher, inbox)
	if err != nil {
		return nil, errors.Wrap(err, "access", "LoadDecisions", "list inbox")
	}

	resources := inboxDoc.Contained()
	parsed := make([]*DecisionItem, len(resources))

	g, gctx := errgroup.WithContext(ctx)
	for i, resourceURL := range resources {
		i, resourceURL := i, resourceURL
		g.Go(func() error {
			item, parseErr := r.parseDecision(gctx, resourceURL)
			if parseErr != nil {
				r.logger.Debug("inbox resource skipped", "url", resourceURL, "error", parseErr)
				return nil
			}
			parsed[i] = item
			return nil
		})
	}
	_ = g.Wait()

	folded := foldDecisions(parsed)

	now := r.now()
	for key, item := range folded {
		folded[key] = item.Projected(now)
	}
	return folded, nil
}

// parseDecision loads one inbox resource and extracts a decision item. A
// resource qualifies only if its declared type matches the decision
// vocabulary; everything else is reported as a skip.
func (r *DecisionReader) parseDecision(ctx context.Context, resourceURL string) (*DecisionItem, error) {
	doc, err := linkeddata.Load(ctx, r.fetcher, resourceURL)
	if err != nil {
		return nil, err
	}

	subject := doc.PrimarySubject(resourceURL)
	if subject == "" {
		return nil, errors.ErrNoSubject
	}
	if !doc.HasType(subject, vocabulary.SDMAccessDecision) {
		return nil, errors.WrapInvalid(errors.ErrDocumentNotFound, "access", "parseDecision", "match decision vocabulary")
	}

	identifier := doc.Str(subject, vocabulary.SDMDatasetIdentifier)
	accessURL := doc.IRI(subject, vocabulary.SDMDatasetAccessURL)
	key := discovery.SourceKey(identifier, accessURL)
	if key == "" {
		return nil, errors.WrapInvalid(errors.ErrNoSubject, "access", "parseDecision", "derive source key")
	}

	item := &DecisionItem{
		Key:   key,
		State: ParseDecisionLabel(doc.Str(subject, vocabulary.SDMDecision)),
	}
	if decidedAt, ok := doc.Time(subject, vocabulary.SDMDecidedAt); ok {
		item.DecidedAt = decidedAt
	}
	if expiresAt, ok := doc.Time(subject, vocabulary.SDMExpiresAt); ok {
		item.ExpiresAt = expiresAt
	}
	return item, nil
}

// foldDecisions keeps at most one item per key: the one with the latest
// decidedAt. On an exact timestamp tie the later-observed item in scan
// order replaces the earlier one - an implementation-defined tie-break
// preserved from the source behavior, not an invariant.
func foldDecisions(items []*DecisionItem) map[string]DecisionItem {
	out := make(map[string]DecisionItem)
	for _, item := range items {
		if item == nil {
			continue
		}
		existing, found := out[item.Key]
		if !found || !item.DecidedAt.Before(existing.DecidedAt) {
			out[item.Key] = *item
		}
	}
	return out
}
