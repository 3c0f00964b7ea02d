package events

import (
	"encoding/json"
	"time"
)

// Batch lifecycle event types published on the hub.
const (
	TypeBatchStarted  = "batch_started"
	TypeItemProcessed = "item_processed"
	TypeBatchFinished = "batch_finished"
	TypeBatchWarning  = "batch_warning"

	// Sent once to each new SSE subscriber.
	TypeBatchStatus = "batch_status"
)

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

func MakeEvent(reqID, typ string, v int, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type:      typ,
		Version:   v,
		At:        time.Now().UTC(),
		RequestID: reqID,
		Data:      raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}

type BatchStarted struct {
	JobID       string `json:"jobId"`
	Total       int    `json:"total"`
	Concurrency int    `json:"concurrency"`
	Strategy    string `json:"strategy"`
}

type ItemProcessed struct {
	JobID      string `json:"jobId"`
	Name       string `json:"name"`
	OK         bool   `json:"ok"`
	ExternalID string `json:"externalId,omitempty"`
	Error      string `json:"error,omitempty"`
	Processed  int    `json:"processed"`
	Total      int    `json:"total"`
}

type BatchFinished struct {
	JobID     string `json:"jobId"`
	Phase     string `json:"phase"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	AuditFile string `json:"auditFile,omitempty"`
}

type BatchWarning struct {
	JobID   string `json:"jobId"`
	Message string `json:"message"`
}
