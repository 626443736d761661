package kafka

import (
	"errors"
	"fmt"
	"strconv"

	"bookstore/internal/config"
	"bookstore/internal/events"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// ClusterAdmin is the subset of sarama.ClusterAdmin used for provisioning.
type ClusterAdmin interface {
	CreateTopic(topic string, detail *sarama.TopicDetail, validateOnly bool) error
}

// EnsureTopics creates the application topics, leaving existing ones alone.
func EnsureTopics(cfg config.KafkaConfig, logger *zap.Logger) error {
	admin, err := sarama.NewClusterAdmin(cfg.Brokers, NewSaramaConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to create Kafka admin: %w", err)
	}
	defer admin.Close()

	return CreateTopics(admin, events.DefaultTopics(), logger)
}

func CreateTopics(admin ClusterAdmin, specs []events.TopicSpec, logger *zap.Logger) error {
	for _, spec := range specs {
		detail := &sarama.TopicDetail{
			NumPartitions:     spec.Partitions,
			ReplicationFactor: 1,
		}
		if spec.Retention > 0 {
			ms := strconv.FormatInt(spec.Retention.Milliseconds(), 10)
			detail.ConfigEntries = map[string]*string{"retention.ms": &ms}
		}

		err := admin.CreateTopic(spec.Name, detail, false)
		var terr *sarama.TopicError
		switch {
		case err == nil:
			logger.Info("Kafka topic created", zap.String("topic", spec.Name), zap.Int32("partitions", spec.Partitions))
		case errors.As(err, &terr) && terr.Err == sarama.ErrTopicAlreadyExists:
			logger.Debug("Kafka topic exists", zap.String("topic", spec.Name))
		case errors.Is(err, sarama.ErrTopicAlreadyExists):
			logger.Debug("Kafka topic exists", zap.String("topic", spec.Name))
		default:
			return fmt.Errorf("create topic %s: %w", spec.Name, err)
		}
	}
	return nil
}
