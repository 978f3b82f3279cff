package iam

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vcubone/library-boot/internal/auth"
)

var (
	// ErrSessionNotFound is returned for a token the registry does not know.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired is returned when the session was invalidated or idled out.
	ErrSessionExpired = errors.New("session expired")
	// ErrRegistryClosed is returned by Register after Close.
	ErrRegistryClosed = errors.New("session registry closed")
)

// Session is a registered web session.
type Session struct {
	ID         string
	TokenHash  string
	Principal  auth.Principal
	CreatedAt  time.Time
	LastSeenAt time.Time
	Expired    bool
}

// SessionRegistryConfig configures a SessionRegistry.
type SessionRegistryConfig struct {
	// MaxPerIdentity caps live sessions per identity; the least recently
	// used are evicted on overflow. Values below 1 are treated as 1.
	MaxPerIdentity int
	// TTL is the idle lifetime. Zero disables idle expiry.
	TTL time.Duration
	// Now overrides time.Now.
	Now func() time.Time
}

// SessionRegistry tracks web sessions and the identities they belong to.
// It is safe for concurrent use.
type SessionRegistry struct {
	mu     sync.RWMutex
	cfg    SessionRegistryConfig
	byID   map[string]*Session
	byHash map[string]string  // token hash → session id
	byUser map[int64][]string // identity id → session ids
	closed bool
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry(cfg SessionRegistryConfig) *SessionRegistry {
	if cfg.MaxPerIdentity < 1 {
		cfg.MaxPerIdentity = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &SessionRegistry{
		cfg:    cfg,
		byID:   make(map[string]*Session),
		byHash: make(map[string]string),
		byUser: make(map[int64][]string),
	}
}

// Register creates a session for an authenticated principal and returns the
// raw token to hand to the client. Sessions of the same identity past the
// cap are evicted least recently used first and returned.
func (r *SessionRegistry) Register(p auth.Principal) (string, Session, []Session, error) {
	id, ok := p.Identity()
	if !ok {
		return "", Session{}, nil, fmt.Errorf("register session: principal is not authenticated")
	}

	token, tokenHash, err := auth.GenerateSessionToken()
	if err != nil {
		return "", Session{}, nil, err
	}
	sessionID, err := uuid.NewV7()
	if err != nil {
		return "", Session{}, nil, fmt.Errorf("generate session id: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return "", Session{}, nil, ErrRegistryClosed
	}

	now := r.cfg.Now()
	s := &Session{
		ID:         sessionID.String(),
		TokenHash:  tokenHash,
		Principal:  p,
		CreatedAt:  now,
		LastSeenAt: now,
	}

	// Drop dead sessions first so they do not count against the cap.
	for _, sid := range slices.Clone(r.byUser[id.ID]) {
		if old := r.byID[sid]; old != nil && r.deadLocked(old, now) {
			r.removeLocked(sid)
		}
	}

	var evicted []Session
	live := r.byUser[id.ID]
	for len(live) >= r.cfg.MaxPerIdentity {
		oldest := r.byID[live[0]]
		for _, sid := range live[1:] {
			if cand := r.byID[sid]; cand.LastSeenAt.Before(oldest.LastSeenAt) {
				oldest = cand
			}
		}
		evicted = append(evicted, *oldest)
		r.removeLocked(oldest.ID)
		live = r.byUser[id.ID]
	}

	r.byID[s.ID] = s
	r.byHash[tokenHash] = s.ID
	r.byUser[id.ID] = append(r.byUser[id.ID], s.ID)

	return token, *s, evicted, nil
}

// Lookup resolves a raw session token and refreshes its last-seen time.
// A session that was expired or idled out is removed and reported as
// ErrSessionExpired.
func (r *SessionRegistry) Lookup(token string) (Session, error) {
	hash := auth.HashSessionToken(token)

	r.mu.Lock()
	defer r.mu.Unlock()

	sid, ok := r.byHash[hash]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	s := r.byID[sid]

	now := r.cfg.Now()
	if r.deadLocked(s, now) {
		r.removeLocked(sid)
		return Session{}, ErrSessionExpired
	}

	s.LastSeenAt = now
	return *s, nil
}

// Get returns a session by id without touching it.
func (r *SessionRegistry) Get(id string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[id]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Remove deletes a session, as on logout. It reports whether it existed.
func (r *SessionRegistry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return false
	}
	r.removeLocked(id)
	return true
}

// ReplacePrincipal swaps the principal of a live session in place. The new
// principal must belong to the same identity. It reports whether the swap
// happened.
func (r *SessionRegistry) ReplacePrincipal(id string, p auth.Principal) bool {
	next, ok := p.Identity()
	if !ok {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[id]
	if !ok || s.Expired {
		return false
	}
	cur, _ := s.Principal.Identity()
	if cur.ID != next.ID {
		return false
	}
	s.Principal = p
	return true
}

// Expire marks a single session expired.
func (r *SessionRegistry) Expire(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[id]
	if !ok || s.Expired {
		return false
	}
	s.Expired = true
	return true
}

// ExpireByID marks every session of the identity expired and returns how
// many were newly expired. Repeated calls return 0.
func (r *SessionRegistry) ExpireByID(personID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, sid := range r.byUser[personID] {
		if s := r.byID[sid]; !s.Expired {
			s.Expired = true
			n++
		}
	}
	return n
}

// ExpireByUsername is ExpireByID keyed by the principal's username.
func (r *SessionRegistry) ExpireByUsername(username string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, s := range r.byID {
		id, _ := s.Principal.Identity()
		if id.Username == username && !s.Expired {
			s.Expired = true
			n++
		}
	}
	return n
}

// SessionsFor lists the sessions of an identity, expired ones included.
func (r *SessionRegistry) SessionsFor(personID int64) []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Session, 0, len(r.byUser[personID]))
	for _, sid := range r.byUser[personID] {
		out = append(out, *r.byID[sid])
	}
	return out
}

// Sweep removes expired and idle sessions and returns how many it removed.
func (r *SessionRegistry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.cfg.Now()
	n := 0
	for sid, s := range r.byID {
		if r.deadLocked(s, now) {
			r.removeLocked(sid)
			n++
		}
	}
	return n
}

// Count returns the number of tracked sessions.
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Close drops every session; later Register calls fail.
func (r *SessionRegistry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	clear(r.byID)
	clear(r.byHash)
	clear(r.byUser)
}

func (r *SessionRegistry) deadLocked(s *Session, now time.Time) bool {
	if s.Expired {
		return true
	}
	return r.cfg.TTL > 0 && now.Sub(s.LastSeenAt) > r.cfg.TTL
}

func (r *SessionRegistry) removeLocked(id string) {
	s, ok := r.byID[id]
	if !ok {
		return
	}
	delete(r.byID, id)
	delete(r.byHash, s.TokenHash)

	ident, _ := s.Principal.Identity()
	ids := slices.DeleteFunc(r.byUser[ident.ID], func(sid string) bool { return sid == id })
	if len(ids) == 0 {
		delete(r.byUser, ident.ID)
	} else {
		r.byUser[ident.ID] = ids
	}
}
