package handlers

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/yooassist/internal/logger"
	"github.com/yoockh/yooassist/internal/metrics"
	"github.com/yoockh/yooassist/internal/models"
	"github.com/yoockh/yooassist/internal/notify"
)

func TestParseWSMessage(t *testing.T) {
	msg, isJSON := parseWSMessage([]byte(`{"user_id":"u1","text":"hi"}`))
	assert.True(t, isJSON)
	assert.Equal(t, wsClientMsg{UserID: "u1", Text: "hi"}, msg)

	msg, isJSON = parseWSMessage([]byte("  hello there "))
	assert.False(t, isJSON)
	assert.Equal(t, wsClientMsg{UserID: models.GuestUserID, Text: "hello there"}, msg)

	msg, isJSON = parseWSMessage([]byte("{not json"))
	assert.False(t, isJSON)
	assert.Equal(t, "{not json", msg.Text)
}

func dialWS(t *testing.T, h *WSHandler) *websocket.Conn {
	t.Helper()
	r := gin.New()
	r.GET("/ws", h.Serve)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readText(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, b, err := conn.ReadMessage()
	require.NoError(t, err)
	return string(b)
}

func TestWSHandler_RepliesAndPushesNotifications(t *testing.T) {
	d := &fakeDialogue{}
	hub := notify.NewHub(10, nil)
	m := metrics.New("wstest")
	conn := dialWS(t, NewWSHandler(d, hub, m, logger.Discard()))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"user_id":"u1","text":"hi"}`)))
	assert.Equal(t, "echo:hi", readText(t, conn))
	assert.Equal(t, 1, hub.Connections("u1"))

	sent := hub.Deliver(notify.Notification{UserID: "u1", Message: "⏰ Reminder: call mom"})
	assert.Equal(t, 1, sent)
	assert.Equal(t, "⏰ Reminder: call mom", readText(t, conn))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"user_id":"u1","text":""}`)))
	assert.True(t, strings.HasPrefix(readText(t, conn), "⚠️"))

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Connections("u1") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestWSHandler_RawTextIsGuest(t *testing.T) {
	d := &fakeDialogue{}
	hub := notify.NewHub(10, nil)
	conn := dialWS(t, NewWSHandler(d, hub, nil, logger.Discard()))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hello")))
	assert.Equal(t, "echo:hello", readText(t, conn))
	assert.Equal(t, []string{models.GuestUserID}, d.seen())
	assert.Equal(t, 0, hub.Connections(models.GuestUserID))
}
