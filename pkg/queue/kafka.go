package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Publisher 由 KafkaProducer 实现，测试中可替换
type Publisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
}

type KafkaProducer struct {
	writer  *kafka.Writer
	timeout time.Duration
}

type KafkaConsumer struct {
	reader *kafka.Reader
	log    *logrus.Logger
}

// NewKafkaProducer timeout 限制单次 Publish 的总耗时，包括重试
func NewKafkaProducer(brokers []string, topic string, timeout time.Duration) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		Async:        false,
		BatchTimeout: 10 * time.Millisecond,
		MaxAttempts:  3,
		WriteTimeout: timeout,
	}

	return &KafkaProducer{writer: writer, timeout: timeout}
}

func NewKafkaConsumer(brokers []string, topic, groupID string, log *logrus.Logger) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: 1 * time.Second,
		StartOffset:    kafka.FirstOffset,
	})

	return &KafkaConsumer{reader: reader, log: log}
}

func (p *KafkaProducer) Publish(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// Subscribe 阻塞读取消息直到 ctx 取消，处理失败只记录日志
func (c *KafkaConsumer) Subscribe(ctx context.Context, handler func(context.Context, Message) error) error {
	for {
		message, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to read message: %w", err)
		}

		msg := Message{
			Key:   string(message.Key),
			Value: message.Value,
			Topic: message.Topic,
		}

		if err := handler(ctx, msg); err != nil {
			c.log.WithError(err).WithFields(logrus.Fields{
				"topic":  message.Topic,
				"offset": message.Offset,
			}).Error("Failed to handle message")
		}
	}
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

type Message struct {
	Key   string
	Value []byte
	Topic string
}

type EventType string

const (
	EventUserCreated   EventType = "user_created"
	EventPhotoCreated  EventType = "photo_created"
	EventFollowCreated EventType = "follow_created"
	EventFollowDeleted EventType = "follow_deleted"
)

type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// RawEvent 用于消费端，Data 按 Type 再解码
type RawEvent struct {
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

func DecodeEvent(msg Message) (*RawEvent, error) {
	var event RawEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return &event, nil
}

type UserEventData struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type PhotoEventData struct {
	PhotoID   string `json:"photo_id"`
	OwnerID   string `json:"owner_id"`
	CreatedAt string `json:"created_at"`
}

type FollowEventData struct {
	FollowerID string `json:"follower_id"`
	FolloweeID string `json:"followee_id"`
	CreatedAt  string `json:"created_at,omitempty"`
}
