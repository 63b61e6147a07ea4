// Package session decides whether this client is currently allowed to
// publish. The Oracle asks the backend once; the Guard turns the answer into
// an admit-or-redirect decision. Nothing in this package ever writes
// verification state.
package session

import (
	"context"
	"sync"

	"github.com/vecinomarket/publicar-flow/internal/models"
)

// Fetcher is the single backend operation the oracle needs.
type Fetcher interface {
	GetSession(ctx context.Context) (*models.RemoteSession, error)
}

// Oracle performs the one-shot authoritative session fetch. Construct one per
// "mount"; it issues exactly one request and settles exactly once. Any
// failure degrades to a nil session — the oracle fails closed and never
// retries; a fresh Oracle is the only way to ask again.
type Oracle struct {
	mu        sync.Mutex
	loading   bool
	cancelled bool
	session   *models.RemoteSession

	done     chan struct{}
	doneOnce sync.Once
}

// NewOracle starts the fetch immediately and returns the oracle.
func NewOracle(ctx context.Context, fetcher Fetcher) *Oracle {
	o := &Oracle{
		loading: true,
		done:    make(chan struct{}),
	}

	go func() {
		session, err := fetcher.GetSession(ctx)
		if err != nil {
			session = nil
		}

		o.mu.Lock()
		// A response landing after Cancel is discarded: the caller that
		// owned this oracle is gone and must not observe a late mutation.
		if !o.cancelled {
			o.session = session
			o.loading = false
		}
		o.mu.Unlock()
		o.doneOnce.Do(func() { close(o.done) })
	}()

	return o
}

// Cancel abandons the in-flight request. The request itself is not aborted;
// its result is simply never applied.
func (o *Oracle) Cancel() {
	o.mu.Lock()
	o.cancelled = true
	o.loading = false
	o.mu.Unlock()
	o.doneOnce.Do(func() { close(o.done) })
}

// Loading reports whether the single request is still outstanding.
func (o *Oracle) Loading() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.loading
}

// Session returns the authoritative session, or nil when there is none (not
// yet resolved, no session, degraded failure, or cancelled).
func (o *Oracle) Session() *models.RemoteSession {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session
}

// Done is closed once the fetch has settled or the oracle was cancelled.
func (o *Oracle) Done() <-chan struct{} {
	return o.done
}
