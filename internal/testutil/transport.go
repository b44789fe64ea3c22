package testutil

import (
	"context"

	"github.com/parlorbot/parlor/internal/chat"
)

// SentMessage records one outbound message captured by RecordingTransport.
type SentMessage struct {
	// Private is true for direct messages.
	Private bool
	// To is the recipient address for private messages.
	To chat.Address
	// Dest is the channel topic for channel messages.
	Dest chat.Destination
	// Text is the message body.
	Text string
}

// RecordingTransport is a chat.Transport that captures every send for
// assertions. The zero value is ready to use.
type RecordingTransport struct {
	Sent []SentMessage
	// Err, when non-nil, is returned by every send.
	Err error
}

// SendPrivate records a private message.
func (r *RecordingTransport) SendPrivate(_ context.Context, to chat.Address, text string) error {
	if r.Err != nil {
		return r.Err
	}
	r.Sent = append(r.Sent, SentMessage{Private: true, To: to, Text: text})
	return nil
}

// SendChannel records a channel message.
func (r *RecordingTransport) SendChannel(_ context.Context, dest chat.Destination, text string) error {
	if r.Err != nil {
		return r.Err
	}
	r.Sent = append(r.Sent, SentMessage{Dest: dest, Text: text})
	return nil
}

// PrivateTo returns the texts of all private messages sent to addr.
func (r *RecordingTransport) PrivateTo(addr chat.Address) []string {
	var texts []string
	for _, m := range r.Sent {
		if m.Private && m.To == addr {
			texts = append(texts, m.Text)
		}
	}
	return texts
}

// ChannelTexts returns the texts of all channel messages sent to dest.
func (r *RecordingTransport) ChannelTexts(dest chat.Destination) []string {
	var texts []string
	for _, m := range r.Sent {
		if !m.Private && m.Dest == dest {
			texts = append(texts, m.Text)
		}
	}
	return texts
}

// AllTexts returns every captured message body in send order.
func (r *RecordingTransport) AllTexts() []string {
	texts := make([]string, 0, len(r.Sent))
	for _, m := range r.Sent {
		texts = append(texts, m.Text)
	}
	return texts
}

// Reset discards captured messages.
func (r *RecordingTransport) Reset() {
	r.Sent = nil
}
