package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/hyperlocal-weather-service/internal/config"
	"github.com/couchcryptid/hyperlocal-weather-service/internal/domain"
	"github.com/couchcryptid/hyperlocal-weather-service/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// AlertWriter produces weather alerts to a Kafka topic.
// It implements pipeline.AlertPublisher.
type AlertWriter struct {
	writer  messageWriter
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewAlertWriter creates a Kafka producer for the configured alert topic.
func NewAlertWriter(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *AlertWriter {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaAlertTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &AlertWriter{writer: w, metrics: metrics, logger: logger}
}

// alertEvent is the message payload: the alert with the location it was
// raised for.
type alertEvent struct {
	domain.WeatherAlert
	Location domain.ForecastLocation `json:"location"`
}

// PublishAlerts writes every alert of one forecast in a single
// WriteMessages call. Messages for the same field share a key so they land
// on the same partition in order.
func (w *AlertWriter) PublishAlerts(ctx context.Context, loc domain.ForecastLocation, alerts []domain.WeatherAlert) error {
	if len(alerts) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(alerts))
	for i := range alerts {
		msg, err := serializeToMessage(loc, alerts[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}

	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		w.metrics.AlertsPublished.WithLabelValues("error").Add(float64(len(msgs)))
		return fmt.Errorf("publish alerts: %w", err)
	}
	w.metrics.AlertsPublished.WithLabelValues("success").Add(float64(len(msgs)))
	w.logger.Debug("alerts published", "count", len(msgs), "field_id", loc.FieldID)
	return nil
}

func (w *AlertWriter) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an alert into a Kafka message.
func serializeToMessage(loc domain.ForecastLocation, alert domain.WeatherAlert) (kafkago.Message, error) {
	data, err := json.Marshal(alertEvent{WeatherAlert: alert, Location: loc})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize weather alert: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(messageKey(loc)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "alert_type", Value: []byte(alert.Type)},
			{Key: "severity", Value: []byte(alert.Severity)},
		},
	}, nil
}

func messageKey(loc domain.ForecastLocation) string {
	if loc.FieldID != "" {
		return loc.FieldID
	}
	return fmt.Sprintf("%.4f,%.4f", loc.Latitude, loc.Longitude)
}
