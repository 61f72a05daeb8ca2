package ledger_listener

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ferreirogomes/tijolo/models"

	"github.com/segmentio/kafka-go"
)

// MessageWriter é a parte do kafka.Writer usada pelo forwarder.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaForwarder publica cada notificação no tópico configurado, com o imóvel
// como chave de partição para preservar a ordem por imóvel.
type KafkaForwarder struct {
	writer MessageWriter
	topic  string
}

func NewKafkaForwarder(brokers []string, topic string) (*KafkaForwarder, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka forwarder exige ao menos um broker")
	}
	return NewKafkaForwarderWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		RequiredAcks: kafka.RequireAll,
		Balancer:     &kafka.Hash{},
	}, topic), nil
}

func NewKafkaForwarderWithWriter(w MessageWriter, topic string) *KafkaForwarder {
	return &KafkaForwarder{writer: w, topic: topic}
}

func (f *KafkaForwarder) Publish(ctx context.Context, n models.Notification) error {
	value, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("falha ao serializar notificação %d: %w", n.Seq, err)
	}
	return f.writer.WriteMessages(ctx, kafka.Message{
		Topic: f.topic,
		Key:   []byte(n.PropertyID),
		Value: value,
		Time:  n.OccurredAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(n.Type)},
			{Key: "id", Value: []byte(n.ID)},
		},
	})
}

func (f *KafkaForwarder) Close() error {
	return f.writer.Close()
}
