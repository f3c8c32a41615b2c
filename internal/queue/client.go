package queue

import "context"

// Client sends blob cleanup messages to a queue backend.
// Implementations must be safe for concurrent use by request handlers.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, msg Message) error

// Send calls f.
func (f ClientFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}
