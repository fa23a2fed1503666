package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu   sync.Mutex
	msgs []string
	fail bool
}

func (f *fakeConn) WriteText(b []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("closed")
	}
	f.msgs = append(f.msgs, string(b))
	return nil
}

func (f *fakeConn) received() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.msgs...)
}

func TestHub_DeliverPushesAndStores(t *testing.T) {
	h := NewHub(0, nil)
	live, dead := &fakeConn{}, &fakeConn{fail: true}
	h.Register("u1", live)
	h.Register("u1", dead)

	sent := h.Deliver(Notification{UserID: "u1", Message: "⏰ Reminder: call mom"})
	assert.Equal(t, 1, sent)
	assert.Equal(t, []string{"⏰ Reminder: call mom"}, live.received())

	box := h.Drain("u1")
	require.Len(t, box, 1)
	assert.Empty(t, h.Drain("u1"))
}

func TestHub_MailboxIsBounded(t *testing.T) {
	h := NewHub(3, nil)
	for i := 1; i <= 5; i++ {
		h.Deliver(Notification{UserID: "u1", Message: fmt.Sprintf("m%d", i)})
	}
	box := h.Drain("u1")
	require.Len(t, box, 3)
	assert.Equal(t, "m3", box[0].Message)
	assert.Equal(t, "m5", box[2].Message)
}

func TestHub_Unregister(t *testing.T) {
	h := NewHub(0, nil)
	c := &fakeConn{}
	h.Register("u1", c)
	assert.Equal(t, 1, h.Connections("u1"))
	h.Unregister("u1", c)
	assert.Zero(t, h.Connections("u1"))

	assert.Zero(t, h.Deliver(Notification{UserID: "u1", Message: "x"}))
	assert.Empty(t, c.received())
}

func TestHub_ListenDeliversPublishedNotifications(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	h := NewHub(0, nil)
	c := &fakeConn{}
	h.Register("u1", c)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ready := make(chan struct{})
	go func() { _ = h.Listen(ctx, rdb, ready) }()

	select {
	case <-ready:
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not ready")
	}

	require.NoError(t, NewPublisher(rdb).Notify(ctx, "u1", "⏰ Reminder: stretch"))

	assert.Eventually(t, func() bool { return len(c.received()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "⏰ Reminder: stretch", c.received()[0])
	assert.Len(t, h.Drain("u1"), 1)
}
