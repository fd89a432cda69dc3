package audit

import (
	"encoding/json"
	"log"
	"time"
)

type AuditEvent struct {
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
	RequestID string    `json:"request_id"`
	Pair      string    `json:"pair"`
	Amount    string    `json:"amount"`
	Status    string    `json:"status"`
	Details   any       `json:"details,omitempty"`
}

type AuditLogger struct{}

func NewAuditLogger() *AuditLogger {
	return &AuditLogger{}
}

func (a *AuditLogger) LogSwapCreated(requestID, pair, sourceAmount, rate string) {
	event := AuditEvent{
		Timestamp: time.Now(),
		EventType: "SWAP_CREATED",
		RequestID: requestID,
		Pair:      pair,
		Amount:    sourceAmount,
		Status:    "PENDING",
		Details:   map[string]string{"rate": rate},
	}
	a.log(event)
}

func (a *AuditLogger) LogSettlement(requestID, pair, sourceAmount, payer, transferRef string) {
	event := AuditEvent{
		Timestamp: time.Now(),
		EventType: "SETTLEMENT",
		RequestID: requestID,
		Pair:      pair,
		Amount:    sourceAmount,
		Status:    "COMPLETED",
		Details: map[string]string{
			"payer":        payer,
			"transfer_ref": transferRef,
		},
	}
	a.log(event)
}

func (a *AuditLogger) LogError(requestID string, err error) {
	event := AuditEvent{
		Timestamp: time.Now(),
		EventType: "ERROR",
		RequestID: requestID,
		Status:    "FAILED",
		Details:   map[string]string{"error": err.Error()},
	}
	a.log(event)
}

func (a *AuditLogger) log(event AuditEvent) {
	data, _ := json.Marshal(event)
	log.Printf("AUDIT: %s", string(data))
}
