package kafka

import (
	"bookstore/internal/config"

	"github.com/IBM/sarama"
)

// NewSaramaConfig is shared by the producer, the consumer group and the admin client.
func NewSaramaConfig(cfg config.KafkaConfig) *sarama.Config {
	conf := sarama.NewConfig()
	conf.ClientID = cfg.ClientID
	conf.Version = sarama.V2_8_0_0

	conf.Producer.Idempotent = true
	conf.Producer.RequiredAcks = sarama.WaitForAll
	conf.Producer.Retry.Max = 3
	conf.Producer.Compression = sarama.CompressionSnappy
	conf.Producer.Return.Successes = true
	conf.Producer.Return.Errors = true
	conf.Net.MaxOpenRequests = 1

	conf.Consumer.Return.Errors = true
	conf.Consumer.Offsets.Initial = sarama.OffsetOldest
	conf.Consumer.Offsets.AutoCommit.Enable = false
	conf.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}

	return conf
}
