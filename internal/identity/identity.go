package identity

// Session is the auth state the storefront runs under. OwnerID is empty when
// no identity is present.
type Session struct {
	Present bool
	OwnerID string
}

// Listener receives every auth-state transition: initial session check,
// sign-in, sign-out, account switch.
type Listener func(Session)

// Provider supplies the current authenticated identity and pushes
// transitions to subscribers. The condition is pushed, never polled.
type Provider interface {
	Current() Session
	Subscribe(l Listener) (cancel func())
}
