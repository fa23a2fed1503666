package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/yooassist/internal/models"
	"github.com/yoockh/yooassist/internal/notify"
	"github.com/yoockh/yooassist/internal/services"
	"github.com/yoockh/yooassist/internal/utils"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsWriteTimeout = 10 * time.Second
	wsPingEvery    = 30 * time.Second
)

type ConnObserver interface {
	ConnOpened()
	ConnClosed()
}

type WSHandler struct {
	dialogue services.DialogueService
	hub      *notify.Hub
	observer ConnObserver
	log      logrus.FieldLogger
	upgrader websocket.Upgrader
}

func NewWSHandler(dialogue services.DialogueService, hub *notify.Hub, observer ConnObserver, log logrus.FieldLogger) *WSHandler {
	return &WSHandler{
		dialogue: dialogue,
		hub:      hub,
		observer: observer,
		log:      log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin once the web client has a fixed host
		},
	}
}

type wsClientMsg struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) WriteText(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (w *wsConn) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.c.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout))
}

// parseWSMessage accepts {"user_id","text"} JSON or a raw text frame from a guest.
func parseWSMessage(data []byte) (msg wsClientMsg, isJSON bool) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		if err := json.Unmarshal([]byte(trimmed), &msg); err == nil {
			return msg, true
		}
	}
	return wsClientMsg{UserID: models.GuestUserID, Text: trimmed}, false
}

func (h *WSHandler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	if h.observer != nil {
		h.observer.ConnOpened()
		defer h.observer.ConnClosed()
	}

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	registered := ""
	defer func() {
		if registered != "" {
			h.hub.Unregister(registered, wc)
		}
	}()

	go func() {
		t := time.NewTicker(wsPingEvery)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if err := wc.ping(); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		msg, isJSON := parseWSMessage(data)
		if msg.UserID == "" {
			msg.UserID = models.GuestUserID
		}

		if isJSON && msg.UserID != models.GuestUserID && msg.UserID != registered {
			if registered != "" {
				h.hub.Unregister(registered, wc)
			}
			h.hub.Register(msg.UserID, wc)
			registered = msg.UserID
		}

		reply, err := h.dialogue.HandleMessage(ctx, msg.UserID, msg.Text)
		var out string
		switch {
		case err == nil:
			out = reply.Text
		case utils.IsCode(err, utils.CodeInvalidArgument):
			out = "⚠️ " + utils.SafeMessage(err)
		default:
			h.log.WithError(err).WithField("user_id", msg.UserID).Warn("ws message failed")
			out = "⚠️ Sorry, something went wrong handling your message."
		}
		if err := wc.WriteText([]byte(out)); err != nil {
			return
		}
	}
}
