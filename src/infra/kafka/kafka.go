package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"
)

const (
	batchTimeout = 250 * time.Millisecond
	retryBackoff = 5 * time.Second
)

type KafkaClient struct {
	logger    *slog.Logger
	consumer  sarama.ConsumerGroup
	producer  sarama.SyncProducer
	batchSize int
}

type Message struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int32
	Offset    int64
	internal  *sarama.ConsumerMessage
}

// Handler recebe um lote. Retornar erro encerra a sessão sem marcar o lote,
// que volta a ser entregue a partir do último offset commitado.
type Handler func(ctx context.Context, messages []Message) error

// NewKafkaClient cria consumer group e producer. Eventos de invalidação são
// pequenos e sensíveis a latência, então os lotes são curtos.
func NewKafkaClient(logger *slog.Logger, brokers string, groupID string, batchSize int) (*KafkaClient, error) {
	brokerList := strings.Split(brokers, ",")
	if batchSize <= 0 {
		batchSize = 50
	}

	config := sarama.NewConfig()
	config.Version = sarama.V2_8_0_0
	config.ClientID = "chatstatus"

	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	config.Consumer.Offsets.Initial = sarama.OffsetNewest
	config.Consumer.Group.Session.Timeout = 20 * time.Second
	config.Consumer.Group.Heartbeat.Interval = 5 * time.Second
	config.Consumer.MaxWaitTime = 100 * time.Millisecond
	config.ChannelBufferSize = batchSize * 2

	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Retry.Max = 3
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.MaxMessageBytes = 256 * 1024

	consumer, err := sarama.NewConsumerGroup(brokerList, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	producer, err := sarama.NewSyncProducer(brokerList, config)
	if err != nil {
		consumer.Close()
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	logger.Info("Kafka client initialized", "brokers", brokerList, "group_id", groupID, "batch_size", batchSize)

	return &KafkaClient{
		logger:    logger,
		consumer:  consumer,
		producer:  producer,
		batchSize: batchSize,
	}, nil
}

// Consumer bloqueia consumindo o tópico até o contexto ser cancelado.
func (k *KafkaClient) Consumer(ctx context.Context, handler Handler, topic string) error {
	consumerHandler := &consumerGroupHandler{
		logger:    k.logger,
		handler:   handler,
		batchSize: k.batchSize,
	}

	for {
		err := k.consumer.Consume(ctx, []string{topic}, consumerHandler)
		if err == nil && ctx.Err() != nil {
			k.logger.Info("Kafka consumer context cancelled", "topic", topic)
			return nil
		}

		if err != nil || consumerHandler.failed.Swap(false) {
			if err != nil {
				k.logger.Error("Error consuming from topic", "topic", topic, "error", err)
			}
			// Lote com erro: a nova sessão recomeça do último offset commitado
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(retryBackoff):
			}
		}
	}
}

func (k *KafkaClient) Producer(messages []Message, topic string) error {
	if len(messages) == 0 {
		return nil
	}

	kafkaMessages := make([]*sarama.ProducerMessage, 0, len(messages))
	for _, msg := range messages {
		headers := make([]sarama.RecordHeader, 0, len(msg.Headers))
		for key, value := range msg.Headers {
			headers = append(headers, sarama.RecordHeader{Key: []byte(key), Value: []byte(value)})
		}
		kafkaMessages = append(kafkaMessages, &sarama.ProducerMessage{
			Topic:   topic,
			Key:     sarama.StringEncoder(msg.Key),
			Value:   sarama.ByteEncoder(msg.Value),
			Headers: headers,
		})
	}

	if err := k.producer.SendMessages(kafkaMessages); err != nil {
		return fmt.Errorf("batch send to topic %s failed: %w", topic, err)
	}

	k.logger.Debug("Batch sent", "topic", topic, "count", len(kafkaMessages))
	return nil
}

func (k *KafkaClient) Close() error {
	var errs []error

	if err := k.consumer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close consumer: %w", err))
	}

	if err := k.producer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close producer: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing kafka client: %v", errs)
	}

	return nil
}

// consumerGroupHandler implementa sarama.ConsumerGroupHandler
type consumerGroupHandler struct {
	logger    *slog.Logger
	handler   Handler
	batchSize int
	failed    atomic.Bool
}

func (h *consumerGroupHandler) Setup(session sarama.ConsumerGroupSession) error {
	h.logger.Debug("Kafka consumer group session setup", "claims", session.Claims())
	return nil
}

func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	h.logger.Debug("Kafka consumer group session cleanup")
	return nil
}

// ConsumeClaim encerra a claim no primeiro lote com erro. Continuar marcaria
// mensagens posteriores da partição e o commit passaria por cima do lote; ao
// sair, o sarama cancela a sessão e a próxima recomeça do último commit.
func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	messages := make([]Message, 0, h.batchSize)
	timer := time.NewTimer(batchTimeout)
	defer timer.Stop()

	flush := func() error {
		err := h.processBatch(session, messages)
		messages = messages[:0]
		return err
	}

	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				return flush()
			}

			messages = append(messages, toMessage(message))

			if len(messages) >= h.batchSize {
				if err := flush(); err != nil {
					return err
				}
				timer.Reset(batchTimeout)
			}

		case <-timer.C:
			if err := flush(); err != nil {
				return err
			}
			timer.Reset(batchTimeout)

		case <-session.Context().Done():
			return flush()
		}
	}
}

func (h *consumerGroupHandler) processBatch(session sarama.ConsumerGroupSession, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}

	if err := h.handler(session.Context(), messages); err != nil {
		h.logger.Error("Handler error for batch",
			"count", len(messages),
			"first_offset", messages[0].Offset,
			"error", err)
		h.failed.Store(true)
		return fmt.Errorf("batch handler failed: %w", err)
	}

	for _, msg := range messages {
		if msg.internal != nil {
			session.MarkMessage(msg.internal, "")
		}
	}
	return nil
}

func toMessage(message *sarama.ConsumerMessage) Message {
	headers := make(map[string]string, len(message.Headers))
	for _, header := range message.Headers {
		if header != nil {
			headers[string(header.Key)] = string(header.Value)
		}
	}
	return Message{
		Key:       string(message.Key),
		Value:     message.Value,
		Headers:   headers,
		Partition: message.Partition,
		Offset:    message.Offset,
		internal:  message,
	}
}
