package domain

import "time"

// NumberSwappedEvent is published after a long code has been replaced on a
// messaging service.
type NumberSwappedEvent struct {
	EventID            string    `json:"event_id"`
	RunID              string    `json:"run_id"`
	SubaccountSID      string    `json:"subaccount_sid"`
	ServiceSID         string    `json:"service_sid"`
	RemovedNumber      string    `json:"removed_number"`
	RemovedNumberSID   string    `json:"removed_number_sid"`
	AssignedNumber     string    `json:"assigned_number"`
	AssignedNumberSID  string    `json:"assigned_number_sid"`
	Source             string    `json:"source"` // reused or purchased
	ErrorCount         int       `json:"error_count"`
	VerificationQueued bool      `json:"verification_queued"`
	OccurredAt         time.Time `json:"occurred_at"`
}
