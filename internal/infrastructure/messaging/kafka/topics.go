// Package kafka provides the messaging layer of the compliance platform:
// typed topics, the event envelope, and producer/consumer wrappers around
// segmentio/kafka-go. The API server publishes certificate updates and
// recalculation requests; the background worker consumes them and emits
// compliance alerts.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SeaCert-Compliance/pkg/errors"
	"github.com/turtacn/SeaCert-Compliance/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// Topics
// ─────────────────────────────────────────────────────────────────────────────

// Platform topics. Names are fixed; only the dead-letter topic may be
// overridden per environment through config.
const (
	TopicCertificateUpdated = "seacert.certificate.updated"
	TopicRecalcRequested    = "seacert.recalc.requested"
	TopicComplianceAlert    = "seacert.compliance.alert"
	TopicDeadLetter         = "seacert.deadletter"
)

// Event types carried in the envelope's event_type field.
const (
	EventTypeCertificateUpdated = "certificate.updated"
	EventTypeRecalcRequested    = "recalc.requested"
	EventTypeComplianceAlert    = "compliance.alert"
)

// ─────────────────────────────────────────────────────────────────────────────
// Event envelope
// ─────────────────────────────────────────────────────────────────────────────

// EventEnvelope is the wire shape of every platform event: routing and
// tracing metadata around an opaque JSON payload.
type EventEnvelope struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	Source        string            `json:"source"`
	Timestamp     time.Time         `json:"timestamp"`
	SchemaVersion string            `json:"schema_version"`
	TraceID       string            `json:"trace_id,omitempty"`
	Payload       json.RawMessage   `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// NewEventEnvelope wraps a payload in a fresh envelope.
func NewEventEnvelope(eventType, source string, payload interface{}) (*EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal event payload")
	}
	return &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: "v1",
		Payload:       data,
	}, nil
}

// DecodePayload unmarshals the envelope payload into target. An empty or
// null payload leaves target untouched.
func (e *EventEnvelope) DecodePayload(target interface{}) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to unmarshal event payload")
	}
	return nil
}

// ToMessage serializes the envelope into a producer message for the given
// topic. Envelope metadata is mirrored into message headers so consumers
// can route without unmarshaling the body.
func (e *EventEnvelope) ToMessage(topic string) (*common.ProducerMessage, error) {
	val, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal event envelope")
	}

	headers := map[string]string{
		"event_type":     e.EventType,
		"source_service": e.Source,
		"schema_version": e.SchemaVersion,
	}
	if e.TraceID != "" {
		headers["trace_id"] = e.TraceID
	}

	return &common.ProducerMessage{
		Topic:     topic,
		Key:       []byte(e.EventID),
		Value:     val,
		Headers:   headers,
		Timestamp: e.Timestamp,
	}, nil
}

// MessageToEventEnvelope decodes a consumed message back into an envelope.
func MessageToEventEnvelope(msg *common.Message) (*EventEnvelope, error) {
	if len(msg.Value) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "event message has an empty value")
	}
	var env EventEnvelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to unmarshal event envelope")
	}
	return &env, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Payloads
// ─────────────────────────────────────────────────────────────────────────────

// CertificateUpdatedPayload announces that a certificate's source dates or
// derived schedule changed. The worker recalculates the owning ship.
type CertificateUpdatedPayload struct {
	CertificateID  string     `json:"certificate_id"`
	ShipID         string     `json:"ship_id"`
	Name           string     `json:"name"`
	Category       string     `json:"category,omitempty"`
	NextSurveyDate *time.Time `json:"next_survey_date,omitempty"`
	NextSurveyType string     `json:"next_survey_type,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Validate checks the payload's required fields.
func (p CertificateUpdatedPayload) Validate() error {
	if p.CertificateID == "" {
		return errors.New(errors.ErrCodeValidation, "certificate.updated payload requires certificate_id")
	}
	if p.ShipID == "" {
		return errors.New(errors.ErrCodeValidation, "certificate.updated payload requires ship_id")
	}
	return nil
}

// RecalcRequestedPayload requests a schedule recalculation. An empty ShipID
// means the whole fleet.
type RecalcRequestedPayload struct {
	ShipID      string    `json:"ship_id,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	RequestedBy string    `json:"requested_by,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// Validate checks the payload's required fields.
func (p RecalcRequestedPayload) Validate() error {
	if p.RequestedAt.IsZero() {
		return errors.New(errors.ErrCodeValidation, "recalc.requested payload requires requested_at")
	}
	return nil
}

// Alert subject kinds.
const (
	AlertKindCertificate  = "certificate"
	AlertKindEquipment    = "equipment"
	AlertKindSurveyWindow = "survey_window"
)

// ComplianceAlertPayload announces a certificate, equipment record or
// survey window that needs attention.
type ComplianceAlertPayload struct {
	Kind          string     `json:"kind"`
	ShipID        string     `json:"ship_id"`
	SubjectID     string     `json:"subject_id"`
	SubjectName   string     `json:"subject_name"`
	Status        string     `json:"status"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	DaysRemaining *int       `json:"days_remaining,omitempty"`
	RaisedAt      time.Time  `json:"raised_at"`
}

// Validate checks the payload's required fields.
func (p ComplianceAlertPayload) Validate() error {
	switch p.Kind {
	case AlertKindCertificate, AlertKindEquipment, AlertKindSurveyWindow:
	default:
		return errors.Newf(errors.ErrCodeValidation, "compliance.alert payload has unknown kind %q", p.Kind)
	}
	if p.SubjectID == "" {
		return errors.New(errors.ErrCodeValidation, "compliance.alert payload requires subject_id")
	}
	if p.Status == "" {
		return errors.New(errors.ErrCodeValidation, "compliance.alert payload requires status")
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Topic management
// ─────────────────────────────────────────────────────────────────────────────

// TopicConfig describes a topic to provision.
type TopicConfig struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
	RetentionMs       int64
	CleanupPolicy     string
}

// ConnInterface abstracts kafka.Conn for tests.
type ConnInterface interface {
	CreateTopics(topics ...kafka.TopicConfig) error
	DeleteTopics(topics ...string) error
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	Close() error
}

// TopicManager provisions platform topics at startup.
type TopicManager struct {
	conn   ConnInterface
	logger logging.Logger
}

// NewTopicManager dials the first broker and returns a manager over it.
func NewTopicManager(brokers []string, logger logging.Logger) (*TopicManager, error) {
	if len(brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "at least one kafka broker is required")
	}
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMQPublish, "failed to dial kafka broker")
	}
	return &TopicManager{conn: conn, logger: logger}, nil
}

// CreateTopic creates one topic, tolerating topics that already exist.
func (m *TopicManager) CreateTopic(ctx context.Context, cfg TopicConfig) error {
	if cfg.Name == "" {
		return errors.New(errors.ErrCodeValidation, "topic name is required")
	}
	if cfg.NumPartitions <= 0 || cfg.ReplicationFactor <= 0 {
		return errors.New(errors.ErrCodeValidation, "topic partitions and replication factor must be positive")
	}

	kCfg := kafka.TopicConfig{
		Topic:             cfg.Name,
		NumPartitions:     cfg.NumPartitions,
		ReplicationFactor: cfg.ReplicationFactor,
	}
	if cfg.RetentionMs > 0 {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries,
			kafka.ConfigEntry{ConfigName: "retention.ms", ConfigValue: fmt.Sprintf("%d", cfg.RetentionMs)})
	}
	if cfg.CleanupPolicy != "" {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries,
			kafka.ConfigEntry{ConfigName: "cleanup.policy", ConfigValue: cfg.CleanupPolicy})
	}

	if err := m.conn.CreateTopics(kCfg); err != nil {
		if exists, _ := m.TopicExists(ctx, cfg.Name); exists {
			return nil
		}
		return errors.Wrap(err, errors.ErrCodeMQPublish, "failed to create topic")
	}

	m.logger.Info("kafka topic created", logging.String("topic", cfg.Name))
	return nil
}

// TopicExists reports whether the topic has at least one partition.
func (m *TopicManager) TopicExists(_ context.Context, name string) (bool, error) {
	partitions, err := m.conn.ReadPartitions(name)
	if err != nil {
		return false, nil
	}
	return len(partitions) > 0, nil
}

// EnsureTopics creates every listed topic that does not yet exist.
func (m *TopicManager) EnsureTopics(ctx context.Context, topics []TopicConfig) error {
	for _, t := range topics {
		if err := m.CreateTopic(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// EnsurePlatformTopics provisions the platform's topic set. dlqTopic
// overrides the default dead-letter topic name when non-empty.
func (m *TopicManager) EnsurePlatformTopics(ctx context.Context, dlqTopic string) error {
	if dlqTopic == "" {
		dlqTopic = TopicDeadLetter
	}
	return m.EnsureTopics(ctx, []TopicConfig{
		{Name: TopicCertificateUpdated, NumPartitions: 6, ReplicationFactor: 3, RetentionMs: 7 * 24 * 3600 * 1000},
		{Name: TopicRecalcRequested, NumPartitions: 3, ReplicationFactor: 3, RetentionMs: 3 * 24 * 3600 * 1000},
		{Name: TopicComplianceAlert, NumPartitions: 6, ReplicationFactor: 3, RetentionMs: 30 * 24 * 3600 * 1000},
		{Name: dlqTopic, NumPartitions: 3, ReplicationFactor: 3, RetentionMs: 30 * 24 * 3600 * 1000},
	})
}

// Close releases the broker connection.
func (m *TopicManager) Close() error {
	return m.conn.Close()
}
