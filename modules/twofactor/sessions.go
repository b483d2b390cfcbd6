package twofactor

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/dmitrymomot/twofactor/svc/twofactor"
)

// ErrNoSession is returned when state is written for a request without a principal.
var ErrNoSession = errors.New("twofactor: no session")

// Sessions is the bridge to the application's session layer.
type Sessions interface {
	// Load returns the caller's session. Anonymous requests yield a zero SessionContext.
	Load(r *http.Request) (twofactor.SessionContext, error)
	// Store persists the challenge flags of sess.
	Store(r *http.Request, sess twofactor.SessionContext) error
	// PendingSetup returns the setup token kept for the caller, or "".
	PendingSetup(r *http.Request) (string, error)
	// SetPendingSetup keeps token server side. An empty token clears it.
	SetPendingSetup(r *http.Request, token string) error
}

// Default header names used by HeaderSessions.
const (
	HeaderAccountID = "X-Account-ID"
	HeaderLabel     = "X-Account-Label"
	HeaderSessionID = "X-Session-ID"
)

// HeaderSessions reads the principal from headers set by a trusted gateway and keeps
// per-session two-factor state in memory. Never expose it without such a gateway in front.
type HeaderSessions struct {
	mu    sync.Mutex
	items *cache.Cache
	ttl   time.Duration
}

type sessionState struct {
	pending  bool
	verified bool
	token    string
}

// NewHeaderSessions keeps state for ttl after the last write.
func NewHeaderSessions(ttl time.Duration) *HeaderSessions {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &HeaderSessions{items: cache.New(ttl, ttl/2), ttl: ttl}
}

func (h *HeaderSessions) Load(r *http.Request) (twofactor.SessionContext, error) {
	id, ok := accountID(r)
	if !ok {
		return twofactor.SessionContext{}, nil
	}
	label := strings.TrimSpace(r.Header.Get(HeaderLabel))
	if label != "" {
		h.items.Set(labelKey(id), label, h.ttl)
	}
	st := h.state(r, id)
	return twofactor.SessionContext{
		AccountID:            id,
		Label:                label,
		Authenticated:        true,
		PendingSecondFactor:  st.pending,
		SecondFactorVerified: st.verified,
	}, nil
}

// EmailAddress implements twofactor.AccountDirectory with the last label seen for id.
// Gateways that put the email address in HeaderLabel get security notices for free.
func (h *HeaderSessions) EmailAddress(_ context.Context, id uuid.UUID) (string, error) {
	if v, ok := h.items.Get(labelKey(id)); ok {
		if label, ok := v.(string); ok && strings.Contains(label, "@") {
			return label, nil
		}
	}
	return "", twofactor.ErrNoAddress
}

func (h *HeaderSessions) Store(r *http.Request, sess twofactor.SessionContext) error {
	return h.update(r, func(st *sessionState) {
		st.pending = sess.PendingSecondFactor
		st.verified = sess.SecondFactorVerified
	})
}

func (h *HeaderSessions) PendingSetup(r *http.Request) (string, error) {
	id, ok := accountID(r)
	if !ok {
		return "", ErrNoSession
	}
	return h.state(r, id).token, nil
}

func (h *HeaderSessions) SetPendingSetup(r *http.Request, token string) error {
	return h.update(r, func(st *sessionState) { st.token = token })
}

func (h *HeaderSessions) update(r *http.Request, fn func(*sessionState)) error {
	id, ok := accountID(r)
	if !ok {
		return ErrNoSession
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	st := h.state(r, id)
	fn(&st)
	h.items.Set(sessionKey(r, id), st, h.ttl)
	return nil
}

func (h *HeaderSessions) state(r *http.Request, id uuid.UUID) sessionState {
	if v, ok := h.items.Get(sessionKey(r, id)); ok {
		if st, ok := v.(sessionState); ok {
			return st
		}
	}
	return sessionState{}
}

func accountID(r *http.Request) (uuid.UUID, bool) {
	raw := strings.TrimSpace(r.Header.Get(HeaderAccountID))
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

func labelKey(id uuid.UUID) string { return "label:" + id.String() }

// sessionKey scopes state to the gateway session, falling back to the account.
func sessionKey(r *http.Request, id uuid.UUID) string {
	if sid := strings.TrimSpace(r.Header.Get(HeaderSessionID)); sid != "" {
		return id.String() + ":" + sid
	}
	return id.String()
}
