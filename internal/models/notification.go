package models

import "time"

// DeliveryStatus is the terminal outcome of one delivery attempt.
type DeliveryStatus string

const (
	DeliverySent    DeliveryStatus = "sent"
	DeliveryFailed  DeliveryStatus = "failed"
	DeliverySkipped DeliveryStatus = "skipped"
)

// NotificationLogEntry records exactly one delivery attempt for one matched
// (alert, channel) pair. Entries are immutable once written.
type NotificationLogEntry struct {
	AlertID      string         `json:"alert_id"`
	ChannelType  ChannelType    `json:"channel_type"`
	Target       string         `json:"target"`
	Timestamp    time.Time      `json:"timestamp"`
	Status       DeliveryStatus `json:"status"`
	Message      string         `json:"message,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
}
