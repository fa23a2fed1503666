package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/yooassist/internal/models"
)

const (
	DefaultTopic   = "chat-turns"
	DefaultGroupID = "yooassist-archive"

	maxAttempts    = 3
	attemptsTTL    = 24 * time.Hour
	attemptsPrefix = "kafka:attempts:"
	defaultBackoff = 2 * time.Second
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	w messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &KafkaPublisher{w: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}}
}

// Publish keys messages by user so one user's turns stay ordered within a partition.
func (p *KafkaPublisher) Publish(ctx context.Context, ev models.TurnEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, kafka.Message{Key: []byte(ev.UserID), Value: b, Time: ev.Timestamp})
}

func (p *KafkaPublisher) Close() error { return p.w.Close() }

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer archives turn events from Kafka. A message that keeps failing is committed
// after three attempts so it cannot block the partition; attempts are counted in Redis
// so restarts do not reset them.
type Consumer struct {
	r       messageReader
	archive Archiver
	rdb     *redis.Client
	log     logrus.FieldLogger
	backoff time.Duration
}

func NewConsumer(brokers []string, topic, groupID string, archive Archiver, rdb *redis.Client, log logrus.FieldLogger) *Consumer {
	if topic == "" {
		topic = DefaultTopic
	}
	if groupID == "" {
		groupID = DefaultGroupID
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return newConsumer(r, archive, rdb, log)
}

func newConsumer(r messageReader, archive Archiver, rdb *redis.Client, log logrus.FieldLogger) *Consumer {
	return &Consumer{r: r, archive: archive, rdb: rdb, log: log, backoff: defaultBackoff}
}

// Run consumes until ctx is cancelled, then closes the reader.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.r.Close()
	c.log.Info("kafka archive consumer started")

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		c.handle(ctx, m)
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (c *Consumer) handle(ctx context.Context, m kafka.Message) {
	log := c.log.WithFields(logrus.Fields{"partition": m.Partition, "offset": m.Offset})

	var ev models.TurnEvent
	if err := json.Unmarshal(m.Value, &ev); err != nil || ev.EventID == "" {
		log.WithError(err).Warn("dropping malformed turn event")
		c.commit(ctx, m, log)
		return
	}
	log = log.WithField("event_id", ev.EventID)
	key := attemptsPrefix + ev.EventID

	for {
		err := c.archive.Archive(ctx, ev)
		if err == nil {
			_ = c.rdb.Del(ctx, key).Err()
			c.commit(ctx, m, log)
			return
		}

		attempts, incErr := c.rdb.Incr(ctx, key).Result()
		if incErr == nil {
			_ = c.rdb.Expire(ctx, key, attemptsTTL).Err()
		}
		log.WithError(err).WithField("attempt", attempts).Warn("archiving turn event failed")

		if incErr == nil && attempts >= maxAttempts {
			log.Error("giving up on turn event after repeated failures")
			c.commit(ctx, m, log)
			return
		}

		t := time.NewTimer(c.backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

func (c *Consumer) commit(ctx context.Context, m kafka.Message, log logrus.FieldLogger) {
	if err := c.r.CommitMessages(ctx, m); err != nil {
		log.WithError(err).Warn("kafka commit failed")
	}
}
