package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/jdufresne12/web-portal/pkg/kafka"
	"github.com/jdufresne12/web-portal/pkg/logger"

	"github.com/jdufresne12/web-portal/internal/domain"
)

// Kafka topics for record lifecycle events.
var (
	TopicRecordCreated = pkgkafka.Topic("record", "created")
	TopicRecordUpdated = pkgkafka.Topic("record", "updated")
	TopicRecordDeleted = pkgkafka.Topic("record", "deleted")
)

// SourceSponsorsHub identifies events from this service.
const SourceSponsorsHub = "sponsors-hub"

// RecordEventData is the payload of a record lifecycle event.
type RecordEventData struct {
	ID            string             `json:"id"`
	Type          domain.SponsorType `json:"type"`
	Title         string             `json:"title"`
	Active        bool               `json:"active"`
	ReportID      string             `json:"report_id,omitempty"`
	FailedItems   int                `json:"failed_items"`
	MediaUploaded int                `json:"media_uploaded"`
	MediaDeleted  int                `json:"media_deleted"`
}

// Publisher sends an event to a topic. *pkgkafka.Producer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes record lifecycle events.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishRecordCreated publishes a sponsors.record.created event.
func (p *Producer) PublishRecordCreated(ctx context.Context, v domain.SponsorData, report *domain.MutationReport) error {
	return p.publish(ctx, TopicRecordCreated, v, report)
}

// PublishRecordUpdated publishes a sponsors.record.updated event.
func (p *Producer) PublishRecordUpdated(ctx context.Context, v domain.SponsorData, report *domain.MutationReport) error {
	return p.publish(ctx, TopicRecordUpdated, v, report)
}

// PublishRecordDeleted publishes a sponsors.record.deleted event.
func (p *Producer) PublishRecordDeleted(ctx context.Context, v domain.SponsorData, report *domain.MutationReport) error {
	return p.publish(ctx, TopicRecordDeleted, v, report)
}

func (p *Producer) publish(ctx context.Context, topic string, v domain.SponsorData, report *domain.MutationReport) error {
	data := RecordEventData{
		ID:     v.ID,
		Type:   v.Type,
		Title:  v.Title,
		Active: v.Active,
	}
	if report != nil {
		data.ReportID = report.ID
		data.FailedItems = len(report.Failures)
		data.MediaUploaded = report.MediaUploaded
		data.MediaDeleted = report.MediaDeleted
	}

	event, err := pkgkafka.NewEvent(topic, v.ID, SourceSponsorsHub, data)
	if err != nil {
		return err
	}
	event.WithCorrelationID(logger.CorrelationIDFromContext(ctx)).
		WithAttribute("record_type", string(v.Type)).
		WithAttribute("user_id", logger.UserIDFromContext(ctx))

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published record event",
		slog.String("topic", topic),
		slog.String("record_id", v.ID),
	)
	return nil
}

// NoopProducer satisfies the service's event publisher when Kafka is not
// configured.
type NoopProducer struct{}

func (NoopProducer) PublishRecordCreated(context.Context, domain.SponsorData, *domain.MutationReport) error {
	return nil
}

func (NoopProducer) PublishRecordUpdated(context.Context, domain.SponsorData, *domain.MutationReport) error {
	return nil
}

func (NoopProducer) PublishRecordDeleted(context.Context, domain.SponsorData, *domain.MutationReport) error {
	return nil
}
