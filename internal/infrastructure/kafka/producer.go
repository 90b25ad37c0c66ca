package kafka

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"coinbridge/internal/infrastructure/telemetry"
	"coinbridge/internal/streaming"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Producer publishes query audit events, one topic per chain id.
type Producer struct {
	writer *kafka.Writer
	prefix string
}

type ProducerConfig struct {
	Brokers     []string
	TopicPrefix string
}

func NewProducer(cfg ProducerConfig) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if strings.TrimSpace(cfg.TopicPrefix) == "" {
		cfg.TopicPrefix = "coinbridge-queries"
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 500 * time.Millisecond,
	}
	return &Producer{writer: writer, prefix: cfg.TopicPrefix}, nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

func (p *Producer) PublishQuery(ctx context.Context, event streaming.QueryEvent) error {
	tracer := otel.Tracer("coinbridge/kafka")
	ctx, span := tracer.Start(ctx, "audit.publish_query", trace.WithSpanKind(trace.SpanKindProducer))
	defer span.End()
	span.SetAttributes(
		attribute.String("network", event.Network),
		attribute.String("account.address", event.Address),
		attribute.Int64("block.index", int64(event.BlockIndex)),
	)

	payload, err := streaming.Encode(event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	headers := make([]kafka.Header, 0, 2)
	telemetry.InjectKafkaHeaders(ctx, &headers)

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic:   p.topicForChain(event.ChainID),
		Key:     []byte(event.Address),
		Value:   payload,
		Headers: headers,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (p *Producer) topicForChain(chainID uint64) string {
	return fmt.Sprintf("%s-%d", p.prefix, chainID)
}
