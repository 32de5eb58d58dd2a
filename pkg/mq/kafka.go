// Package mq 提供 Kafka 生产者封装与基于 outbox 的事件发布
package mq

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/wyfcoding/posregister/pkg/logger"
)

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	Brokers      []string
	TopicPrefix  string
	MaxRetries   int
	RetryBackoff int
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducer Kafka 生产者
type KafkaProducer struct {
	writer messageWriter
	prefix string
}

// NewProducer 创建 Kafka 生产者，topic 由每条消息指定
func NewProducer(cfg KafkaConfig) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		Compression:            kafka.Gzip,
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            cfg.MaxRetries,
		WriteBackoffMin:        time.Duration(cfg.RetryBackoff) * time.Millisecond,
		WriteBackoffMax:        time.Duration(cfg.RetryBackoff*10) * time.Millisecond,
	}

	logger.Info(context.Background(), "Kafka producer created successfully", "brokers", cfg.Brokers)
	return &KafkaProducer{writer: writer, prefix: cfg.TopicPrefix}
}

// Topic 返回带前缀的完整 topic
func (kp *KafkaProducer) Topic(name string) string {
	return kp.prefix + name
}

// Push 投递 outbox 中已序列化的消息
func (kp *KafkaProducer) Push(ctx context.Context, topic, key string, payload []byte) error {
	msg := kafka.Message{
		Topic: kp.Topic(topic),
		Key:   []byte(key),
		Value: payload,
		Time:  time.Now(),
	}
	if err := kp.writer.WriteMessages(ctx, msg); err != nil {
		logger.Error(ctx, "Failed to send Kafka message",
			"topic", msg.Topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("push %s: %w", msg.Topic, err)
	}

	logger.Debug(ctx, "Kafka message sent",
		"topic", msg.Topic,
		"key", key,
	)
	return nil
}

// Close 关闭生产者
func (kp *KafkaProducer) Close() error {
	return kp.writer.Close()
}

// LogPublisher 未启用 Kafka 时使用，只记录事件
type LogPublisher struct{}

// Publish 以 debug 级别记录事件
func (LogPublisher) Publish(ctx context.Context, topic string, key string, event any) error {
	logger.Debug(ctx, "Event published", "topic", topic, "key", key, "event", event)
	return nil
}

func (p LogPublisher) PublishInTx(ctx context.Context, _ any, topic string, key string, event any) error {
	return p.Publish(ctx, topic, key, event)
}

// Push 作为 outbox 投递端时只记录消息
func (LogPublisher) Push(ctx context.Context, topic, key string, payload []byte) error {
	logger.Debug(ctx, "Outbox message relayed", "topic", topic, "key", key, "bytes", len(payload))
	return nil
}
