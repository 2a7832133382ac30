package gateway

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"huddle/internal/core/domain"
	"huddle/internal/core/ports"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var errNotSubscribable = errors.New("not a member of the channel")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Should be configured properly for production
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Event is the wire format pushed to subscribed clients.
type Event struct {
	Type      string           `json:"type"`
	ChannelID domain.ChannelID `json:"channel_id"`
	Message   *messageEvent    `json:"message,omitempty"`
	MessageID domain.MessageID `json:"message_id,omitempty"`
	Error     string           `json:"error,omitempty"`
}

type messageEvent struct {
	ID        domain.MessageID `json:"id"`
	AuthorID  domain.UserID    `json:"author_id"`
	Body      string           `json:"body"`
	CreatedAt time.Time        `json:"created_at"`
	Pinned    bool             `json:"pinned"`
}

// controlMessage is what clients send: subscribe or unsubscribe for a
// channel's event stream.
type controlMessage struct {
	Action    string           `json:"action"`
	ChannelID domain.ChannelID `json:"channel_id"`
}

// client is one websocket connection with its channel subscriptions.
// Events are pushed through a bounded queue; a client that cannot keep
// up is disconnected rather than allowed to stall the hub.
type client struct {
	userID   domain.UserID
	conn     *websocket.Conn
	send     chan Event
	channels map[domain.ChannelID]struct{}
	closed   bool
	mu       sync.Mutex
}

func (c *client) subscribed(ch domain.ChannelID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.channels[ch]
	return ok
}

// trySend queues ev without blocking. It reports false when the queue
// is full; a closed client swallows the event and reports true.
func (c *client) trySend(ev Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

// shutdown closes the queue exactly once.
func (c *client) shutdown() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.closed = true
	close(c.send)
	return true
}

// WebSocketGateway fans timeline events out to connected clients. It
// implements ports.EventSink.
type WebSocketGateway struct {
	channelRepo ports.ChannelRepository
	userRepo    ports.UserRepository

	clients map[*client]struct{}
	mu      sync.RWMutex

	writeTimeout time.Duration
	logger       *zap.SugaredLogger
}

func NewWebSocketGateway(channelRepo ports.ChannelRepository, userRepo ports.UserRepository, logger *zap.SugaredLogger) *WebSocketGateway {
	return &WebSocketGateway{
		channelRepo:  channelRepo,
		userRepo:     userRepo,
		clients:      make(map[*client]struct{}),
		writeTimeout: 10 * time.Second,
		logger:       logger,
	}
}

var _ ports.EventSink = (*WebSocketGateway)(nil)

// HandleConnection upgrades the request and runs the read/write pumps.
// The caller must have authenticated the user already.
func (g *WebSocketGateway) HandleConnection(w http.ResponseWriter, r *http.Request, userID domain.UserID) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}

	cl := &client{
		userID:   userID,
		conn:     conn,
		send:     make(chan Event, 64),
		channels: make(map[domain.ChannelID]struct{}),
	}

	g.mu.Lock()
	g.clients[cl] = struct{}{}
	g.mu.Unlock()

	g.logger.Infow("websocket client connected", "user_id", userID)

	go g.writePump(cl)
	g.readPump(r.Context(), cl)
}

func (g *WebSocketGateway) readPump(ctx context.Context, cl *client) {
	defer g.disconnect(cl)

	for {
		var msg controlMessage
		if err := cl.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Action {
		case "subscribe":
			if err := g.authorizeSubscription(ctx, cl.userID, msg.ChannelID); err != nil {
				g.writeError(cl, msg.ChannelID, err.Error())
				continue
			}
			cl.mu.Lock()
			cl.channels[msg.ChannelID] = struct{}{}
			cl.mu.Unlock()
		case "unsubscribe":
			cl.mu.Lock()
			delete(cl.channels, msg.ChannelID)
			cl.mu.Unlock()
		default:
			g.writeError(cl, msg.ChannelID, "unknown action")
		}
	}
}

func (g *WebSocketGateway) writePump(cl *client) {
	for ev := range cl.send {
		cl.conn.SetWriteDeadline(time.Now().Add(g.writeTimeout))
		if err := cl.conn.WriteJSON(ev); err != nil {
			g.disconnect(cl)
			return
		}
	}
}

// authorizeSubscription allows channel members and global-tier owners.
func (g *WebSocketGateway) authorizeSubscription(ctx context.Context, userID domain.UserID, channelID domain.ChannelID) error {
	user, err := g.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	channel, err := g.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return err
	}
	if !channel.HasMember(userID) && !domain.IsGlobalOwner(user) {
		return errNotSubscribable
	}
	return nil
}

// writeError goes through the send queue so the write pump stays the
// only writer on the connection.
func (g *WebSocketGateway) writeError(cl *client, channelID domain.ChannelID, message string) {
	cl.trySend(Event{Type: "error", ChannelID: channelID, Error: message})
}

func (g *WebSocketGateway) disconnect(cl *client) {
	if !cl.shutdown() {
		return
	}

	g.mu.Lock()
	delete(g.clients, cl)
	g.mu.Unlock()

	cl.conn.Close()
	g.logger.Infow("websocket client disconnected", "user_id", cl.userID)
}

// broadcast queues ev for every client subscribed to its channel.
// Clients with full queues are dropped.
func (g *WebSocketGateway) broadcast(ev Event) {
	g.mu.RLock()
	targets := make([]*client, 0, len(g.clients))
	for cl := range g.clients {
		if cl.subscribed(ev.ChannelID) {
			targets = append(targets, cl)
		}
	}
	g.mu.RUnlock()

	for _, cl := range targets {
		if !cl.trySend(ev) {
			g.logger.Warnw("dropping slow websocket client", "user_id", cl.userID)
			g.disconnect(cl)
		}
	}
}

func (g *WebSocketGateway) MessageCreated(channel domain.ChannelID, message *domain.Message) {
	g.broadcast(Event{Type: "message_created", ChannelID: channel, Message: toMessageEvent(message)})
}

func (g *WebSocketGateway) MessageEdited(channel domain.ChannelID, message *domain.Message) {
	g.broadcast(Event{Type: "message_edited", ChannelID: channel, Message: toMessageEvent(message)})
}

func (g *WebSocketGateway) MessageRemoved(channel domain.ChannelID, message domain.MessageID) {
	g.broadcast(Event{Type: "message_removed", ChannelID: channel, MessageID: message})
}

func (g *WebSocketGateway) StandupFlushed(channel domain.ChannelID, message *domain.Message) {
	g.broadcast(Event{Type: "standup_flushed", ChannelID: channel, Message: toMessageEvent(message)})
}

func toMessageEvent(m *domain.Message) *messageEvent {
	return &messageEvent{
		ID:        m.ID,
		AuthorID:  m.AuthorID,
		Body:      m.Body,
		CreatedAt: m.CreatedAt,
		Pinned:    m.Pinned,
	}
}
