package pkg

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/segmentio/kafka-go"
)

type KafkaProducer struct {
	writer *kafka.Writer
	topic  string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// NewKafkaProducer 同步写、按 key 哈希分区，同一社区的事件保持有序
func NewKafkaProducer(cfg KafkaConfig) *KafkaProducer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		Async:                  false,
		AllowAutoTopicCreation: true,
	}
	return &KafkaProducer{writer: w, topic: cfg.Topic}
}

func (p *KafkaProducer) Topic() string {
	return p.topic
}

func (p *KafkaProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// Send headers 作为事件元数据，消费端无需解析 value 即可路由
func (p *KafkaProducer) Send(ctx context.Context, key string, value []byte, headers map[string]string) error {
	if err := p.writer.WriteMessages(ctx, eventMessage(key, value, headers)); err != nil {
		return fmt.Errorf("kafka write %s: %w", p.topic, err)
	}
	return nil
}

// eventMessage header 按 key 排序，输出稳定
func eventMessage(key string, value []byte, headers map[string]string) kafka.Message {
	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
	}
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		msg.Headers = append(msg.Headers, kafka.Header{Key: k, Value: []byte(headers[k])})
	}
	return msg
}

func MakeKeyFromID(id uint64) string {
	return strconv.FormatUint(id, 10)
}
