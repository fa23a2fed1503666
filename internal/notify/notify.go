package notify

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	ChannelPrefix      = "notify:"
	DefaultMailboxSize = 50
)

type Notification struct {
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Conn is a live client connection that can take a pushed text frame.
type Conn interface {
	WriteText(b []byte) error
}

// Publisher sends notifications through Redis so whichever process holds the
// user's connection delivers them.
type Publisher struct {
	rdb *redis.Client
	now func() time.Time
}

func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb, now: time.Now}
}

func (p *Publisher) Notify(ctx context.Context, userID, message string) error {
	b, err := json.Marshal(Notification{UserID: userID, Message: message, Timestamp: p.now().UTC()})
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, ChannelPrefix+userID, b).Err()
}

// Hub tracks live connections and keeps a bounded mailbox of undelivered-or-recent
// notifications per user.
type Hub struct {
	mu        sync.Mutex
	conns     map[string]map[Conn]struct{}
	mailboxes map[string][]Notification
	capacity  int
	log       logrus.FieldLogger
}

func NewHub(capacity int, log logrus.FieldLogger) *Hub {
	if capacity <= 0 {
		capacity = DefaultMailboxSize
	}
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	return &Hub{
		conns:     make(map[string]map[Conn]struct{}),
		mailboxes: make(map[string][]Notification),
		capacity:  capacity,
		log:       log,
	}
}

func (h *Hub) Register(userID string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.conns[userID]
	if !ok {
		set = make(map[Conn]struct{})
		h.conns[userID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) Unregister(userID string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.conns[userID]
	delete(set, c)
	if len(set) == 0 {
		delete(h.conns, userID)
	}
}

func (h *Hub) Connections(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns[userID])
}

// Deliver stores n in the user's mailbox, dropping the oldest entry when full, and
// pushes the message to every live connection. It returns how many pushes succeeded.
func (h *Hub) Deliver(n Notification) int {
	h.mu.Lock()
	box := append(h.mailboxes[n.UserID], n)
	if len(box) > h.capacity {
		box = box[len(box)-h.capacity:]
	}
	h.mailboxes[n.UserID] = box

	targets := make([]Conn, 0, len(h.conns[n.UserID]))
	for c := range h.conns[n.UserID] {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	sent := 0
	for _, c := range targets {
		if err := c.WriteText([]byte(n.Message)); err != nil {
			h.log.WithError(err).WithField("user_id", n.UserID).Debug("push to connection failed")
			continue
		}
		sent++
	}
	return sent
}

// Drain returns and clears the user's mailbox, oldest first.
func (h *Hub) Drain(userID string) []Notification {
	h.mu.Lock()
	defer h.mu.Unlock()
	box := h.mailboxes[userID]
	delete(h.mailboxes, userID)
	if box == nil {
		return []Notification{}
	}
	return box
}

// Listen pattern-subscribes to every user channel and delivers until ctx is done.
// ready, if non-nil, is closed once the subscription is confirmed.
func (h *Hub) Listen(ctx context.Context, rdb *redis.Client, ready chan<- struct{}) error {
	ps := rdb.PSubscribe(ctx, ChannelPrefix+"*")
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		return err
	}
	if ready != nil {
		close(ready)
	}

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var n Notification
			if err := json.Unmarshal([]byte(m.Payload), &n); err != nil {
				h.log.WithError(err).WithField("channel", m.Channel).Warn("dropping malformed notification")
				continue
			}
			if n.UserID == "" {
				n.UserID = strings.TrimPrefix(m.Channel, ChannelPrefix)
			}
			h.Deliver(n)
		}
	}
}
