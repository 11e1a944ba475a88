//go:build integration

package kafka_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"punsj/internal/platform/config"
	"punsj/internal/platform/kafka"
	"punsj/pkg/testutil/containers"
)

type ProducerSuite struct {
	suite.Suite
	broker   *containers.RedpandaContainer
	producer *kafka.Producer
}

func TestProducerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ProducerSuite))
}

func (s *ProducerSuite) SetupSuite() {
	s.broker = containers.GetManager().GetRedpanda(s.T())
	p, err := kafka.NewProducer(config.KafkaConfig{
		Brokers:  []string{s.broker.Broker},
		ClientID: "punsj-test",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Require().NoError(err)
	s.producer = p
}

func (s *ProducerSuite) TearDownSuite() {
	s.producer.Close()
}

func (s *ProducerSuite) TestPublishIsConsumable() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	const topic = "punsjet-soknad-test"
	s.Require().NoError(s.producer.EnsureTopics(ctx, 1, 1, topic))
	s.Require().NoError(s.producer.EnsureTopics(ctx, 1, 1, topic), "existing topics are accepted")

	err := s.producer.Publish(ctx, kafka.Message{
		Topic:   topic,
		Key:     []byte("soknad-1"),
		Value:   []byte(`{"søknadId":"soknad-1"}`),
		Headers: map[string]string{"Nav-Callid": "call-1"},
	})
	s.Require().NoError(err)

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.broker.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().Empty(fetches.Errors())
	records := fetches.Records()
	s.Require().Len(records, 1)
	s.Equal("soknad-1", string(records[0].Key))
	s.Equal("call-1", string(records[0].Headers[0].Value))
}
