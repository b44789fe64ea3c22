// Package ws connects the engine to the chat server over a websocket.
// One goroutine reads events and dispatches each to the handler before
// reading the next, which is what gives the engine its message-at-a-time
// processing model.
package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/parlorbot/parlor/internal/chat"
	"github.com/parlorbot/parlor/internal/config"
)

// event is one frame on the wire, both directions.
type event struct {
	Type       string `json:"type"`
	Sender     string `json:"sender,omitempty"`
	SenderName string `json:"sender_name,omitempty"`
	To         string `json:"to,omitempty"`
	Channel    string `json:"channel,omitempty"`
	Topic      string `json:"topic,omitempty"`
	Content    string `json:"content,omitempty"`
}

const eventMessage = "message"

// Client is a websocket chat connection. It implements chat.Transport
// for outbound messages and delivers inbound messages to the handler,
// one at a time. Start blocks; it is meant to run under the server
// lifecycle.
type Client struct {
	cfg     config.ChatConfig
	handler chat.Handler
	logger  *zap.Logger

	writeMu sync.Mutex
	conn    *websocket.Conn

	stopOnce sync.Once
	stopped  chan struct{}
}

// NewClient creates a Client for the given chat server settings. The
// handler may be nil at construction and set later with SetHandler;
// this breaks the cycle between the transport and the engine, which
// each need the other.
//
// Precondition: logger must be non-nil.
func NewClient(cfg config.ChatConfig, handler chat.Handler, logger *zap.Logger) *Client {
	return &Client{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
		stopped: make(chan struct{}),
	}
}

// SetHandler installs the inbound message handler.
//
// Precondition: must be called before Start.
func (c *Client) SetHandler(h chat.Handler) { c.handler = h }

// Start dials the chat server and reads events until Stop is called or
// the connection fails.
//
// Postcondition: Returns nil after Stop, or the read/dial error.
func (c *Client) Start() error {
	if c.handler == nil {
		return fmt.Errorf("no handler installed")
	}

	header := http.Header{}
	if c.cfg.Token != "" {
		header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	conn, resp, err := websocket.DefaultDialer.Dial(c.cfg.URL, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dialing chat server %s: %w (status %s)", c.cfg.URL, err, resp.Status)
		}
		return fmt.Errorf("dialing chat server %s: %w", c.cfg.URL, err)
	}
	c.writeMu.Lock()
	c.conn = conn
	c.writeMu.Unlock()

	c.logger.Info("connected to chat server", zap.String("url", c.cfg.URL))

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	})
	go c.keepalive(conn)

	ctx := context.Background()
	for {
		if err := conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout)); err != nil {
			return c.readResult(fmt.Errorf("setting read deadline: %w", err))
		}

		var ev event
		if err := conn.ReadJSON(&ev); err != nil {
			return c.readResult(err)
		}
		if ev.Type != eventMessage || ev.Sender == "" {
			continue
		}

		// run-to-completion: the next event is not read until the
		// handler returns
		c.handler.Handle(ctx, chat.Message{
			Sender:     chat.Address(ev.Sender),
			SenderName: ev.SenderName,
			Content:    ev.Content,
			Dest:       chat.Destination{Channel: ev.Channel, Topic: ev.Topic},
		})
	}
}

// readResult maps read-loop errors after Stop to a clean nil return.
func (c *Client) readResult(err error) error {
	select {
	case <-c.stopped:
		return nil
	default:
	}
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return fmt.Errorf("chat server closed the connection: %w", err)
	}
	return fmt.Errorf("reading chat event: %w", err)
}

// keepalive pings the server until the connection stops.
func (c *Client) keepalive(conn *websocket.Conn) {
	interval := c.cfg.PingInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopped:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.cfg.WriteTimeout))
			c.writeMu.Unlock()
			if err != nil {
				c.logger.Warn("keepalive ping failed", zap.Error(err))
				return
			}
		}
	}
}

// Stop closes the connection, unblocking Start.
func (c *Client) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopped)
		c.writeMu.Lock()
		defer c.writeMu.Unlock()
		if c.conn == nil {
			return
		}
		deadline := time.Now().Add(c.cfg.WriteTimeout)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = c.conn.Close()
	})
}

// SendPrivate delivers text to one user as a direct message.
func (c *Client) SendPrivate(_ context.Context, to chat.Address, text string) error {
	return c.send(event{Type: eventMessage, To: string(to), Content: text})
}

// SendChannel delivers text to a channel topic.
func (c *Client) SendChannel(_ context.Context, dest chat.Destination, text string) error {
	if dest.IsPrivate() {
		return fmt.Errorf("channel send requires a non-private destination")
	}
	return c.send(event{
		Type:    eventMessage,
		Channel: dest.Channel,
		Topic:   dest.Topic,
		Content: text,
	})
}

func (c *Client) send(ev event) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout)); err != nil {
		return fmt.Errorf("setting write deadline: %w", err)
	}
	if err := c.conn.WriteJSON(ev); err != nil {
		return fmt.Errorf("writing chat event: %w", err)
	}
	return nil
}
