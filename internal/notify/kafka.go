package notify

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"chamber_monitor/internal/logger"
	"chamber_monitor/internal/models"
)

const (
	kafkaWriteTimeout = 5 * time.Second
	kafkaBatchTimeout = 10 * time.Millisecond // longest an event waits for a batch to fill
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes events as JSON, keyed by chamber id so that one
// chamber's events stay ordered within a partition.
type KafkaNotifier struct {
	writer messageWriter
	log    *logger.Logger
}

func NewKafkaNotifier(brokers []string, topic string, log *logger.Logger) (*KafkaNotifier, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one kafka broker is required")
	}
	if topic == "" {
		return nil, errors.New("kafka topic must not be empty")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           kafkaBatchTimeout,
		AllowAutoTopicCreation: false,
	}
	return newKafkaNotifier(w, log), nil
}

func newKafkaNotifier(w messageWriter, log *logger.Logger) *KafkaNotifier {
	return &KafkaNotifier{writer: w, log: log}
}

func (n *KafkaNotifier) Notify(ctx context.Context, ev models.ChamberEvent) {
	if err := n.publish(ctx, ev); err != nil {
		n.log.Errorw("publishing chamber event failed", "event", ev.EventID, "type", ev.Type, "err", err)
	}
}

func (n *KafkaNotifier) publish(ctx context.Context, ev models.ChamberEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}
	ctx, cancel := context.WithTimeout(ctx, kafkaWriteTimeout)
	defer cancel()
	msg := kafka.Message{
		Key:   []byte(strconv.Itoa(ev.ChamberID)),
		Value: value,
		Time:  ev.OccurredAt,
	}
	return errors.Wrap(n.writer.WriteMessages(ctx, msg), "write kafka message")
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
