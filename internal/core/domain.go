package core

import "encoding/json"

// NotificationSubject tags every notification published by the ingress
// server so consumers can recognize their own traffic on a shared channel.
const NotificationSubject = "WhatsApp Webhook Notification"

// Notification is one topic delivery of a webhook payload. ID is assigned
// at publish time and doubles as the queue deduplication key downstream.
type Notification struct {
	ID      string          `json:"id"`
	Subject string          `json:"subject"`
	Payload json.RawMessage `json:"payload"`
}

// QueueRecord is one ordered-queue delivery. Sender is the partition key
// (the sender's phone number), DedupID the originating notification's id.
type QueueRecord struct {
	ID      string          `json:"id"`
	Sender  string          `json:"sender"`
	DedupID string          `json:"dedup_id"`
	Payload json.RawMessage `json:"payload"`
}

// SendResult is the uniform outcome of an outbound message send. API and
// transport failures are folded into the value; callers never receive a
// raised error from the responder.
type SendResult struct {
	Success    bool            `json:"success"`
	MessageID  string          `json:"message_id,omitempty"`
	StatusCode int             `json:"status_code,omitempty"`
	Error      string          `json:"error,omitempty"`
	Response   json.RawMessage `json:"response,omitempty"`
}
