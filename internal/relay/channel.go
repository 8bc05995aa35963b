// Package relay tracks connected chat sessions and routes messages
// between users, admins, and the automated responder.
package relay

import "github.com/aditpras/lapakchat/internal/domain"

// A Channel is the outbound half of a joined session: the relay pushes
// messages through it and closes it when the session is replaced or
// torn down. Implementations must be safe for concurrent use.
type Channel interface {
	// Send enqueues a message for delivery to the peer. It must not
	// block on the peer; a broken or saturated channel returns an
	// error so the registry can drop the session.
	Send(msg domain.Message) error

	// Close releases the channel. Further sends fail.
	Close() error
}
