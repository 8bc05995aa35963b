package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aditpras/lapakchat/internal/domain"
)

// Responder produces the automated reply for a user message.
type Responder interface {
	Reply(ctx context.Context, content string) string
}

// pendingEscalation tracks a user message forwarded to admins that has
// not been answered yet. If the deadline passes first, the bot answers
// on the admins' behalf.
type pendingEscalation struct {
	messageID string
	userID    string
	content   string
	timer     *time.Timer
}

// Router decides, per inbound message, where it must be delivered:
// a specific peer, a role-wide broadcast, or the bot fallback.
type Router struct {
	registry  *Registry
	responder Responder
	timeout   time.Duration

	mu      sync.Mutex
	pending map[string]*pendingEscalation // keyed by message id
}

// NewRouter creates a router. The timeout bounds how long a forwarded
// user message may wait for an admin reply before the bot steps in.
func NewRouter(registry *Registry, responder Responder, timeout time.Duration) *Router {
	return &Router{
		registry:  registry,
		responder: responder,
		timeout:   timeout,
		pending:   make(map[string]*pendingEscalation),
	}
}

// Send routes one inbound message. The returned ack means "accepted
// for routing"; downstream delivery failures are logged, not surfaced,
// except for a directed send to an offline recipient.
func (r *Router) Send(ctx context.Context, msg domain.Message) domain.Ack {
	switch msg.SenderType {
	case domain.SenderUser:
		return r.routeFromUser(ctx, msg)
	case domain.SenderAdmin:
		return r.routeFromAdmin(msg)
	case domain.SenderBot:
		return domain.Ack{Success: false, Message: "bot messages are relay-internal"}
	default:
		return domain.Ack{Success: false, Message: fmt.Sprintf("unknown sender type %q", msg.SenderType)}
	}
}

// routeFromUser forwards to admins when any are reachable, otherwise
// answers with the bot. User messages are always addressed to support,
// never to a specific peer.
func (r *Router) routeFromUser(ctx context.Context, msg domain.Message) domain.Ack {
	if delivered := r.registry.ForwardToAdmins(msg); delivered > 0 {
		r.scheduleEscalation(msg)
		slog.Info("Message forwarded to admins",
			"message_id", msg.ID, "sender_id", msg.SenderID, "delivered", delivered)
		return domain.Ack{Success: true, Message: "forwarded to admin"}
	}

	r.replyWithBot(ctx, msg.SenderID, msg.Content)
	return domain.Ack{Success: true, Message: "answered by bot"}
}

func (r *Router) routeFromAdmin(msg domain.Message) domain.Ack {
	if msg.ReceiverID == "" {
		delivered := r.registry.BroadcastToUsers(msg)
		slog.Info("Admin broadcast",
			"message_id", msg.ID, "sender_id", msg.SenderID, "delivered", delivered)
		return domain.Ack{Success: true, Message: fmt.Sprintf("broadcast to %d users", delivered)}
	}

	if err := r.registry.DeliverToUser(msg.ReceiverID, msg); err != nil {
		slog.Info("Admin message dropped, recipient offline",
			"message_id", msg.ID, "receiver_id", msg.ReceiverID)
		return domain.Ack{Success: false, Message: "recipient offline"}
	}

	r.clearEscalations(msg.ReceiverID)
	return domain.Ack{Success: true, Message: "delivered"}
}

// scheduleEscalation arms a cancellable timer for a forwarded message.
func (r *Router) scheduleEscalation(msg domain.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := &pendingEscalation{
		messageID: msg.ID,
		userID:    msg.SenderID,
		content:   msg.Content,
	}
	p.timer = time.AfterFunc(r.timeout, func() { r.escalate(p.messageID) })
	r.pending[p.messageID] = p
}

// clearEscalations resolves every pending escalation for a user. A
// timer that already fired finds its record gone and does nothing, so
// the admin-reply/timeout race settles on whichever removes the record
// first.
func (r *Router) clearEscalations(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, p := range r.pending {
		if p.userID == userID {
			p.timer.Stop()
			delete(r.pending, id)
		}
	}
}

// escalate fires when an admin never answered in time: the bot replies
// to the original message and the record is discarded.
func (r *Router) escalate(messageID string) {
	r.mu.Lock()
	p, ok := r.pending[messageID]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.pending, messageID)
	r.mu.Unlock()

	slog.Info("Escalation deadline elapsed, falling back to bot",
		"message_id", p.messageID, "user_id", p.userID)
	r.replyWithBot(context.Background(), p.userID, p.content)
}

func (r *Router) replyWithBot(ctx context.Context, userID, content string) {
	reply := r.responder.Reply(ctx, content)
	if err := r.registry.DeliverToUser(userID, domain.NewBotMessage(userID, reply)); err != nil {
		slog.Info("Bot reply dropped, user offline", "user_id", userID)
	}
}

// PendingCount reports the number of unresolved escalations.
func (r *Router) PendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Close stops all pending escalation timers. Used during shutdown.
func (r *Router) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.pending {
		p.timer.Stop()
		delete(r.pending, id)
	}
}
