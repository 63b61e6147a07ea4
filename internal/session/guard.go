package session

import (
	"sync"
	"time"

	"github.com/vecinomarket/publicar-flow/internal/models"
)

// Redirector performs a replace-navigation. The guard never pushes history.
type Redirector interface {
	Replace(route string, st *models.NavState)
}

// Access is the guard's decision for the caller. While Loading is true no
// decision has been made and nothing should render.
type Access struct {
	Loading    bool
	OK         bool
	PhoneE164  string
	PhoneLocal string
}

// Guard gates publish-only views on the oracle's answer. It admits only a
// session with both phone fields, not explicitly unverified, and a parseable
// expiry in the future. On a denied resolution it issues exactly one
// replace-navigation to the fallback route, no matter how often it is
// re-evaluated afterwards.
type Guard struct {
	oracle   *Oracle
	nav      Redirector
	fallback string
	now      func() time.Time

	mu         sync.Mutex
	redirected bool
}

// NewGuard creates a guard over the oracle. An empty fallback defaults to the
// phone-entry route.
func NewGuard(oracle *Oracle, nav Redirector, fallback string) *Guard {
	if fallback == "" {
		fallback = models.RoutePhoneEntry
	}
	return &Guard{
		oracle:   oracle,
		nav:      nav,
		fallback: fallback,
		now:      time.Now,
	}
}

// Evaluate returns the current decision, triggering the one-time redirect on
// the first denied evaluation after the oracle resolves.
func (g *Guard) Evaluate() Access {
	if g.oracle.Loading() {
		return Access{Loading: true}
	}

	session := g.oracle.Session()
	if !sessionValid(session, g.now()) {
		g.mu.Lock()
		first := !g.redirected
		g.redirected = true
		g.mu.Unlock()
		if first && g.nav != nil {
			g.nav.Replace(g.fallback, nil)
		}
		return Access{}
	}

	return Access{
		OK:         true,
		PhoneE164:  session.PhoneE164,
		PhoneLocal: session.PhoneLocal,
	}
}

// Wait blocks until the oracle settles, then evaluates.
func (g *Guard) Wait() Access {
	<-g.oracle.Done()
	return g.Evaluate()
}

// sessionValid is the admit predicate. A malformed ExpiresAt counts as
// expired, never as "no expiry to enforce".
func sessionValid(s *models.RemoteSession, now time.Time) bool {
	if s == nil || s.PhoneE164 == "" || s.PhoneLocal == "" {
		return false
	}
	if s.Verified != nil && !*s.Verified {
		return false
	}
	expires, err := time.Parse(time.RFC3339, s.ExpiresAt)
	if err != nil {
		return false
	}
	return expires.After(now)
}
