package relay

import (
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/aditpras/lapakchat/internal/domain"
)

// ErrRecipientOffline is returned when a directed delivery targets a
// user with no active session.
var ErrRecipientOffline = errors.New("recipient offline")

// Session is a registered identity with an open outbound channel.
type Session struct {
	ID       string
	Username string
	Role     domain.Role
	Channel  Channel

	seq uint64 // insertion order within the registry
}

// Registry owns all connection state: the sessions of both roles and
// the derived admin availability. All mutation goes through its lock,
// and fan-out methods hold the lock across the whole
// check-then-deliver sequence.
type Registry struct {
	mu       sync.Mutex
	sessions map[domain.Role]map[string]*Session
	nextSeq  uint64

	adminAvailable bool
	welcome        string
}

// NewRegistry creates an empty registry. The welcome text is pushed as
// a bot message to every user session right after it joins.
func NewRegistry(welcome string) *Registry {
	return &Registry{
		sessions: map[domain.Role]map[string]*Session{
			domain.RoleUser:  {},
			domain.RoleAdmin: {},
		},
		welcome: welcome,
	}
}

// Join registers a session for (id, role), replacing and closing any
// earlier session with the same key. User sessions receive a welcome
// message on the new channel.
func (r *Registry) Join(id, username string, role domain.Role, ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.sessions[role][id]; ok && existing.Channel != ch {
		_ = existing.Channel.Close()
		slog.Info("Session replaced", "id", id, "role", role)
	}

	r.nextSeq++
	sess := &Session{
		ID:       id,
		Username: username,
		Role:     role,
		Channel:  ch,
		seq:      r.nextSeq,
	}
	r.sessions[role][id] = sess

	if role == domain.RoleAdmin {
		r.adminAvailable = true
	}
	slog.Info("Session joined", "id", id, "role", role, "username", username)

	if role == domain.RoleUser && r.welcome != "" {
		r.deliverLocked(sess, domain.NewBotMessage(id, r.welcome))
	}
}

// Leave removes the session for (id, role) if present and updates
// admin availability.
func (r *Registry) Leave(id string, role domain.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(id, role)
}

// Disconnect removes the session for (id, role) only if it still owns
// the given channel. A session replaced by a later join is left alone,
// so a stale transport teardown cannot evict its successor.
func (r *Registry) Disconnect(id string, role domain.Role, ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sess, ok := r.sessions[role][id]; ok && sess.Channel == ch {
		r.removeLocked(id, role)
	}
}

// Lookup returns the session for (id, role), if any.
func (r *Registry) Lookup(id string, role domain.Role) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[role][id]
	return sess, ok
}

// AllOfRole returns the sessions of a role in insertion order.
func (r *Registry) AllOfRole(role domain.Role) []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.allOfRoleLocked(role)
}

// AdminAvailable reports whether at least one admin session exists.
func (r *Registry) AdminAvailable() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.adminAvailable
}

// Counts returns the number of active user and admin sessions.
func (r *Registry) Counts() (users, admins int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions[domain.RoleUser]), len(r.sessions[domain.RoleAdmin])
}

// ForwardToAdmins delivers the message to every admin session and
// returns how many deliveries succeeded. The availability check and
// the fan-out happen under one lock, so a concurrent leave cannot slip
// between them.
func (r *Registry) ForwardToAdmins(msg domain.Message) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	delivered := 0
	for _, sess := range r.allOfRoleLocked(domain.RoleAdmin) {
		if r.deliverLocked(sess, msg) {
			delivered++
		}
	}
	return delivered
}

// BroadcastToUsers delivers the message to every user session and
// returns how many deliveries succeeded.
func (r *Registry) BroadcastToUsers(msg domain.Message) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	delivered := 0
	for _, sess := range r.allOfRoleLocked(domain.RoleUser) {
		if r.deliverLocked(sess, msg) {
			delivered++
		}
	}
	return delivered
}

// DeliverToUser delivers the message to one user session. It returns
// ErrRecipientOffline when no session exists; a write failure is
// handled by dropping the broken session, not by failing the caller.
func (r *Registry) DeliverToUser(id string, msg domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[domain.RoleUser][id]
	if !ok {
		return ErrRecipientOffline
	}
	r.deliverLocked(sess, msg)
	return nil
}

// deliverLocked writes to a session's channel and self-heals on
// failure: a broken channel means the peer is gone, so the session is
// removed instead of surfacing the error.
func (r *Registry) deliverLocked(sess *Session, msg domain.Message) bool {
	if err := sess.Channel.Send(msg); err != nil {
		slog.Warn("Channel write failed, dropping session",
			"id", sess.ID, "role", sess.Role, "error", err)
		r.removeLocked(sess.ID, sess.Role)
		return false
	}
	return true
}

func (r *Registry) removeLocked(id string, role domain.Role) {
	sess, ok := r.sessions[role][id]
	if !ok {
		return
	}
	delete(r.sessions[role], id)
	_ = sess.Channel.Close()

	if role == domain.RoleAdmin && len(r.sessions[domain.RoleAdmin]) == 0 {
		r.adminAvailable = false
	}
	slog.Info("Session left", "id", id, "role", role)
}

func (r *Registry) allOfRoleLocked(role domain.Role) []*Session {
	out := make([]*Session, 0, len(r.sessions[role]))
	for _, sess := range r.sessions[role] {
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}
