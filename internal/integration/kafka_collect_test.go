//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/trends-etl-service/internal/adapter/kafka"
	"github.com/couchcryptid/trends-etl-service/internal/adapter/pebble"
	"github.com/couchcryptid/trends-etl-service/internal/config"
	"github.com/couchcryptid/trends-etl-service/internal/domain"
	"github.com/couchcryptid/trends-etl-service/internal/observability"
	"github.com/couchcryptid/trends-etl-service/internal/pipeline"
	"github.com/couchcryptid/trends-etl-service/internal/snapshot"
	"github.com/couchcryptid/trends-etl-service/internal/source"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("trends-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func readEvents(ctx context.Context, t *testing.T, broker, topic string, n int) map[string]kafka.SnapshotEvent {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       topic,
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	events := make(map[string]kafka.SnapshotEvent, n)
	for len(events) < n {
		msg, err := consumer.ReadMessage(readCtx)
		require.NoError(t, err, "read snapshot event")
		var ev kafka.SnapshotEvent
		require.NoError(t, json.Unmarshal(msg.Value, &ev))
		events[string(msg.Key)] = ev
	}
	return events
}

// TestCollectPublishesSnapshots runs a batch against an embedded store with
// the sample source only and checks one event per stored region reaches
// Kafka.
func TestCollectPublishesSnapshots(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	const topic = "test-trend-snapshots"
	createTopic(t, broker, topic)

	repo, err := pebble.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaSnapshotTopic: topic}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	clock := clockwork.NewRealClock()
	metrics := observability.NewMetricsForTesting()
	chain := source.NewChain(source.Config{ForceSample: true}, discardLogger(), metrics)
	store := snapshot.NewStore(repo, clock, discardLogger())
	collector := pipeline.New(chain, store, writer, 2, clock, discardLogger(), metrics)

	report, err := collector.Run(ctx, []string{"US", "FR"})
	require.NoError(t, err)
	require.Equal(t, 2, report.Succeeded)

	events := readEvents(ctx, t, broker, topic, 2)
	for _, region := range []string{"US", "FR"} {
		ev, ok := events[region+"/"+string(report.Day)]
		require.True(t, ok, "event for %s", region)
		assert.Equal(t, report.RunID, ev.RunID)
		assert.Equal(t, domain.ProvenanceSample, ev.Snapshot.Provenance)
		assert.Len(t, ev.Snapshot.Topics, len(source.DefaultSampleTopics))
	}
}
