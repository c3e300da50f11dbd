package auth

import "sync"

// GateState is the gate's position in its lifecycle.
type GateState string

const (
	// GateChecking means the identity is not known yet; the dictionary is
	// blocked and a loading surface should render.
	GateChecking GateState = "checking"
	// GateAuthenticated means an identity is present and the dictionary is
	// reachable.
	GateAuthenticated GateState = "authenticated"
	// GateUnauthenticated means no identity is present; only the credential
	// surface renders.
	GateUnauthenticated GateState = "unauthenticated"
)

// Gate wraps the dictionary behind the authentication state machine:
// checking -> authenticated | unauthenticated, with immediate transitions on
// later session changes. It holds its session subscription for its lifetime
// and releases it on Close.
type Gate struct {
	mu          sync.Mutex
	state       GateState
	identity    *Identity
	onChange    func(GateState, *Identity)
	unsubscribe func()
}

// NewGate creates a gate in the checking state, subscribed to the service.
// The first session notification (including a Resume resolving to nothing)
// moves it to authenticated or unauthenticated. onChange may be nil.
func NewGate(svc *Service, onChange func(GateState, *Identity)) *Gate {
	g := &Gate{state: GateChecking, onChange: onChange}
	g.unsubscribe = svc.Subscribe(g.apply)
	return g
}

func (g *Gate) apply(sess *Session) {
	g.mu.Lock()
	if sess == nil {
		g.state = GateUnauthenticated
		g.identity = nil
	} else {
		g.state = GateAuthenticated
		id := sess.Identity
		g.identity = &id
	}
	state, identity := g.state, g.identity
	cb := g.onChange
	g.mu.Unlock()
	if cb != nil {
		cb(state, identity)
	}
}

// State returns the current gate state.
func (g *Gate) State() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Identity returns the authenticated identity, or nil.
func (g *Gate) Identity() *Identity {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.identity
}

// Authenticated reports whether the dictionary is reachable.
func (g *Gate) Authenticated() bool {
	return g.State() == GateAuthenticated
}

// Close releases the session subscription.
func (g *Gate) Close() {
	if g.unsubscribe != nil {
		g.unsubscribe()
		g.unsubscribe = nil
	}
}
