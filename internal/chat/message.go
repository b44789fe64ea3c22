// Package chat defines the message, addressing, and transport contracts
// between the game engine and the chat server.
package chat

import "fmt"

// Address is a chat user's unique address (e.g. "alice@example.com").
type Address string

// Destination identifies where a message is delivered: a channel plus a
// topic within it. The zero value is the private sentinel, meaning the
// conversation happens in direct messages rather than a channel.
type Destination struct {
	// Channel is the channel (stream) name.
	Channel string
	// Topic is the conversation topic within the channel.
	Topic string
}

// Private is the sentinel Destination for direct-message conversations.
var Private = Destination{}

// IsPrivate reports whether the destination is the private sentinel.
func (d Destination) IsPrivate() bool {
	return d.Channel == "" && d.Topic == ""
}

// String returns a human-readable form of the destination.
func (d Destination) String() string {
	if d.IsPrivate() {
		return "private"
	}
	return fmt.Sprintf("%s > %s", d.Channel, d.Topic)
}

// Message is one inbound user interaction.
type Message struct {
	// Sender is the author's address.
	Sender Address
	// SenderName is the author's display name.
	SenderName string
	// Content is the raw message text.
	Content string
	// Dest is where the message arrived. The zero value means a
	// private (direct) message.
	Dest Destination
}
