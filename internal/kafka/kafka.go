package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

type SyncCompletedEvent struct {
	UserID     string         `json:"user_id"`
	Kind       string         `json:"kind"`   // "courses", "calendar"
	Status     string         `json:"status"` // SUCCESS, PARTIAL, ERROR, SKIPPED
	Message    string         `json:"message"`
	Counts     map[string]int `json:"counts,omitempty"`
	Errors     []string       `json:"errors,omitempty"`
	FinishedAt time.Time      `json:"finished_at"`
}

type AssignmentReminderEvent struct {
	UserID       string    `json:"user_id"`
	AssignmentID string    `json:"assignment_id"`
	CourseID     string    `json:"course_id"`
	Title        string    `json:"title"`
	HTMLURL      string    `json:"html_url,omitempty"`
	DueAt        time.Time `json:"due_at"`
	Status       string    `json:"status"`
}

type EventSender struct {
	writer        *kafka.Writer
	syncTopic     string
	reminderTopic string
}

func NewEventSender(brokers []string, syncTopic, reminderTopic string) *EventSender {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return &EventSender{
		writer:        writer,
		syncTopic:     syncTopic,
		reminderTopic: reminderTopic,
	}
}

func (s *EventSender) Close() error {
	return s.writer.Close()
}

func (s *EventSender) SendSyncCompleted(ctx context.Context, event SyncCompletedEvent) error {
	return s.send(ctx, s.syncTopic, event.UserID, event)
}

func (s *EventSender) SendAssignmentReminder(ctx context.Context, event AssignmentReminderEvent) error {
	return s.send(ctx, s.reminderTopic, event.UserID, event)
}

// send keys by user id so one user's events stay ordered within a partition.
func (s *EventSender) send(ctx context.Context, topic, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", topic, err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}

	if err := s.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to send %s event: %w", topic, err)
	}
	return nil
}

// NopSender drops events; used when no brokers are configured.
type NopSender struct{}

func (NopSender) SendSyncCompleted(context.Context, SyncCompletedEvent) error { return nil }

func (NopSender) SendAssignmentReminder(context.Context, AssignmentReminderEvent) error { return nil }

func (NopSender) Close() error { return nil }
