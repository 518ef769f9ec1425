package access

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hoelk-f/heatspace/metric"
	"github.com/hoelk-f/heatspace/pkg/retry"
)

// ErrPollerStarted is returned when Start is called on a running poller.
var ErrPollerStarted = errors.New("poller already started")

// UpdateFunc receives the merged display state per source key after every
// successful poll.
type UpdateFunc func(states map[string]DecisionState)

// DecisionLoader is the read surface the poller drives. Satisfied by
// *DecisionReader.
type DecisionLoader interface {
	LoadDecisions(ctx context.Context, requesterWebID string) (map[string]DecisionItem, error)
}

// Poller drives the recurring decision poll: load decisions, persist
// fresher states into the store, merge with locally tracked state, and
// report the result. The poll path is the only one in this module that
// retries automatically; everything else surfaces failures to the caller.
type Poller struct {
	reader    DecisionLoader
	store     Store
	requester string
	interval  time.Duration
	retryCfg  retry.Config
	onUpdate  UpdateFunc
	logger    *slog.Logger
	metrics   *metric.Metrics
	now       func() time.Time

	// generation guards against a caller observing a stale in-flight
	// poll after Stop/Start cycles; late results are discarded.
	generation atomic.Uint64

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithPollInterval sets the fixed poll interval (default 30s).
func WithPollInterval(d time.Duration) PollerOption {
	return func(p *Poller) { p.interval = d }
}

// WithRetry sets the backoff applied to a failing poll attempt.
func WithRetry(cfg retry.Config) PollerOption {
	return func(p *Poller) { p.retryCfg = cfg }
}

// WithPollerLogger sets the poller's logger.
func WithPollerLogger(logger *slog.Logger) PollerOption {
	return func(p *Poller) { p.logger = logger }
}

// WithPollerMetrics attaches poll instruments.
func WithPollerMetrics(m *metric.Metrics) PollerOption {
	return func(p *Poller) { p.metrics = m }
}

// NewPoller creates a Poller over reader and store for the given
// requester identity. onUpdate may be nil when callers only use PollOnce.
func NewPoller(reader DecisionLoader, store Store, requesterWebID string, onUpdate UpdateFunc, opts ...PollerOption) *Poller {
	p := &Poller{
		reader:    reader,
		store:     store,
		requester: requesterWebID,
		interval:  30 * time.Second,
		retryCfg:  retry.DefaultConfig(),
		onUpdate:  onUpdate,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PollOnce performs a single poll: load the decision map (with backoff on
// failure), persist fresher decisions, and return the merged display
// state per key.
func (p *Poller) PollOnce(ctx context.Context) (map[string]DecisionState, error) {
	live, err := retry.DoWithResult(ctx, p.retryCfg, func() (map[string]DecisionItem, error) {
		return p.reader.LoadDecisions(ctx, p.requester)
	})
	p.metrics.Poll(err, len(live))
	if err != nil {
		return nil, err
	}

	p.persist(live)

	var stored map[string]StoredRequestState
	if p.store != nil {
		stored = p.store.All()
	}
	return MergeStates(stored, live, p.now()), nil
}

// persist overwrites the stored shadow for every key with a fresher live
// decision. Entries are never deleted; stale ones are harmless because
// lookups prefer live data.
func (p *Poller) persist(live map[string]DecisionItem) {
	if p.store == nil {
		return
	}
	for key, item := range live {
		updatedAt := item.DecidedAt
		if updatedAt.IsZero() {
			updatedAt = p.now()
		}
		if existing, found := p.store.Get(key); found && existing.UpdatedAt.After(updatedAt) {
			continue
		}
		if err := p.store.Set(key, StoredRequestState{
			State:     item.State,
			UpdatedAt: updatedAt,
			ExpiresAt: item.ExpiresAt,
		}); err != nil {
			p.logger.Warn("failed to persist decision state", "key", key, "error", err)
		}
	}
}

// Start launches the recurring poll loop. The first poll runs
// immediately; subsequent polls run on the fixed interval until Stop or
// context cancellation.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return ErrPollerStarted
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done
	gen := p.generation.Add(1)

	go p.run(loopCtx, gen, done)
	return nil
}

// Stop halts the poll loop and waits for the in-flight poll, if any, to
// finish. Its result is discarded.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel = nil
	p.done = nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	p.generation.Add(1)
	cancel()
	<-done
}

func (p *Poller) run(ctx context.Context, gen uint64, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		states, err := p.PollOnce(ctx)
		switch {
		case p.generation.Load() != gen:
			// A Stop raced the in-flight poll; the result is stale.
			return
		case err != nil:
			p.logger.Warn("decision poll failed", "error", err)
		default:
			p.logger.Debug("decision poll complete", "keys", len(states))
			if p.onUpdate != nil {
				p.onUpdate(states)
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
