package identity

import (
	"context"
	"sync"
)

// Collection is the slice of a sync engine the reactor drives.
// Consumers define this interface, not the engines.
type Collection interface {
	// Login binds the collection to an identity and triggers a full load.
	Login(ctx context.Context, ownerID string)
	// Reset discards all identity-scoped state.
	Reset()
}

// Reactor translates auth-state transitions into collection lifecycle calls:
// sign-in loads, sign-out resets, an account switch resets then loads. The
// previous identity's data is never merged into the next.
type Reactor struct {
	provider    Provider
	collections []Collection

	mu        sync.Mutex
	lastOwner string
	cancel    func()
}

func NewReactor(provider Provider, collections ...Collection) *Reactor {
	return &Reactor{
		provider:    provider,
		collections: collections,
	}
}

// Start subscribes to the provider and applies the current session once, so
// an already-signed-in process loads immediately.
func (r *Reactor) Start(ctx context.Context) {
	r.cancel = r.provider.Subscribe(func(session Session) {
		r.apply(ctx, session)
	})
	r.apply(ctx, r.provider.Current())
}

// Stop unsubscribes. Collections keep their last state.
func (r *Reactor) Stop() {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

func (r *Reactor) apply(ctx context.Context, session Session) {
	r.mu.Lock()
	last := r.lastOwner
	if session.Present {
		r.lastOwner = session.OwnerID
	} else {
		r.lastOwner = ""
	}
	r.mu.Unlock()

	switch {
	case !session.Present && last == "":
		// Still anonymous; nothing to do.
	case !session.Present:
		for _, c := range r.collections {
			c.Reset()
		}
	case session.OwnerID == last:
		// Same owner re-announced (initial session check); keep state.
	default:
		if last != "" {
			// Account switch: fresh login, no merge.
			for _, c := range r.collections {
				c.Reset()
			}
		}
		for _, c := range r.collections {
			c.Login(ctx, session.OwnerID)
		}
	}
}
