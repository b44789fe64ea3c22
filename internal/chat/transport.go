package chat

import "context"

// Transport is the outbound side of the chat connection. Implementations
// deliver text either to a single user's private conversation or to a
// channel topic. Network retry semantics belong to the implementation,
// not the caller.
type Transport interface {
	// SendPrivate delivers text to one user's direct-message conversation.
	SendPrivate(ctx context.Context, to Address, text string) error
	// SendChannel delivers text to a channel topic.
	//
	// Precondition: dest must not be the private sentinel.
	SendChannel(ctx context.Context, dest Destination, text string) error
}

// Handler consumes inbound messages. The transport delivers messages one
// at a time: a Handle call completes before the next message is
// dispatched, so handlers may mutate shared state without locking.
type Handler interface {
	Handle(ctx context.Context, msg Message)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, msg Message)

// Handle calls the underlying function.
func (f HandlerFunc) Handle(ctx context.Context, msg Message) { f(ctx, msg) }
