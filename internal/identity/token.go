package identity

import (
	"errors"
	"fmt"
	"sync"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid session token")

// TokenProvider derives the session from HS256 session tokens issued by the
// auth backend. SetToken and ClearToken push the resulting transition to all
// subscribers.
type TokenProvider struct {
	secret []byte

	mu        sync.Mutex
	session   Session
	listeners map[int]Listener
	nextID    int
}

func NewTokenProvider(secret []byte) *TokenProvider {
	return &TokenProvider{
		secret:    secret,
		listeners: make(map[int]Listener),
	}
}

func (p *TokenProvider) Current() Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

func (p *TokenProvider) Subscribe(l Listener) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = l
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.listeners, id)
	}
}

// SetToken verifies the token and, when valid, switches the session to its
// subject.
func (p *TokenProvider) SetToken(token string) error {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	subject, err := parsed.Claims.GetSubject()
	if err != nil || subject == "" {
		return fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	p.publish(Session{Present: true, OwnerID: subject})
	return nil
}

// ClearToken drops the session (sign-out).
func (p *TokenProvider) ClearToken() {
	p.publish(Session{})
}

func (p *TokenProvider) publish(session Session) {
	p.mu.Lock()
	p.session = session
	listeners := make([]Listener, 0, len(p.listeners))
	for _, l := range p.listeners {
		listeners = append(listeners, l)
	}
	p.mu.Unlock()

	// Listeners run outside the lock so they may call back in.
	for _, l := range listeners {
		l(session)
	}
}
