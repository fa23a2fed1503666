package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/yooassist/internal/models"
)

type fakeReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	committed []int64
	closed    bool
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	if len(f.msgs) > 0 {
		m := f.msgs[0]
		f.msgs = f.msgs[1:]
		f.mu.Unlock()
		return m, nil
	}
	f.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (f *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

func (f *fakeReader) Close() error { f.closed = true; return nil }

func (f *fakeReader) commits() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.committed...)
}

type fakeArchiver struct {
	mu    sync.Mutex
	calls int
	fail  bool
	got   []models.TurnEvent
}

func (a *fakeArchiver) Archive(ctx context.Context, ev models.TurnEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if a.fail {
		return errors.New("postgres down")
	}
	a.got = append(a.got, ev)
	return nil
}

func (a *fakeArchiver) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

func quiet() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func msg(t *testing.T, offset int64, ev models.TurnEvent) kafka.Message {
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	return kafka.Message{Offset: offset, Value: b}
}

func newTestConsumer(t *testing.T, r *fakeReader, a Archiver) (*Consumer, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	c := newConsumer(r, a, rdb, quiet())
	c.backoff = time.Millisecond
	return c, mr
}

func runUntil(t *testing.T, c *Consumer, cond func() bool) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	assert.Eventually(t, cond, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

func TestConsumer_ArchivesAndCommits(t *testing.T) {
	r := &fakeReader{}
	a := &fakeArchiver{}
	c, _ := newTestConsumer(t, r, a)
	r.msgs = []kafka.Message{
		msg(t, 1, models.TurnEvent{EventID: "e1", UserID: "u1", UserText: "hi", Reply: "hello"}),
		{Offset: 2, Value: []byte("not json")},
	}

	runUntil(t, c, func() bool { return len(r.commits()) == 2 })

	assert.Equal(t, []int64{1, 2}, r.commits())
	require.Len(t, a.got, 1)
	assert.Equal(t, "e1", a.got[0].EventID)
	assert.True(t, r.closed)
}

func TestConsumer_CommitsAfterThreeFailures(t *testing.T) {
	r := &fakeReader{}
	a := &fakeArchiver{fail: true}
	c, mr := newTestConsumer(t, r, a)
	r.msgs = []kafka.Message{msg(t, 7, models.TurnEvent{EventID: "e7", UserID: "u1"})}

	runUntil(t, c, func() bool { return len(r.commits()) == 1 })

	assert.Equal(t, 3, a.count())
	v, err := mr.Get(attemptsPrefix + "e7")
	require.NoError(t, err)
	assert.Equal(t, "3", v)
}

type recordingWriter struct {
	msgs []kafka.Message
}

func (w *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestKafkaPublisher_KeysByUser(t *testing.T) {
	w := &recordingWriter{}
	p := &KafkaPublisher{w: w}

	require.NoError(t, p.Publish(context.Background(), models.TurnEvent{EventID: "e1", UserID: "u42", Reply: "ok"}))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "u42", string(w.msgs[0].Key))

	var ev models.TurnEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &ev))
	assert.Equal(t, "ok", ev.Reply)
}

func TestDirectPublisher_CallsArchive(t *testing.T) {
	a := &fakeArchiver{}
	require.NoError(t, NewDirectPublisher(a).Publish(context.Background(), models.TurnEvent{EventID: "e1"}))
	assert.Equal(t, 1, a.count())
	require.NoError(t, NewDirectPublisher(nil).Publish(context.Background(), models.TurnEvent{}))
}
