// Package kafka publishes stored snapshots as events for downstream
// consumers.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/trends-etl-service/internal/config"
	"github.com/couchcryptid/trends-etl-service/internal/domain"
)

// SnapshotEvent is the message value published after a snapshot upsert.
type SnapshotEvent struct {
	RunID    string          `json:"run_id"`
	Snapshot domain.Snapshot `json:"snapshot"`
}

// Writer produces snapshot events to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured snapshot topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSnapshotTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishSnapshot publishes one stored snapshot. Messages are keyed by
// region and day, so updates of one key stay ordered on one partition.
func (w *Writer) PublishSnapshot(ctx context.Context, runID string, snap domain.Snapshot) error {
	msg, err := serializeToMessage(runID, snap)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish snapshot %s: %w", msg.Key, err)
	}
	w.logger.Debug("snapshot published", "region", snap.Region, "day", snap.Day, "run_id", runID)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a snapshot event into a Kafka message.
func serializeToMessage(runID string, snap domain.Snapshot) (kafkago.Message, error) {
	data, err := json.Marshal(SnapshotEvent{RunID: runID, Snapshot: snap})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize snapshot event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(string(snap.Region) + "/" + string(snap.Day)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "provenance", Value: []byte(snap.Provenance)},
			{Key: "run_id", Value: []byte(runID)},
			{Key: "fetched_at", Value: []byte(snap.FetchedAt.Format(time.RFC3339))},
		},
	}, nil
}
