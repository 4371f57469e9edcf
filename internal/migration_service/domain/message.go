package domain

import "time"

// Delivery error codes reported by the provider when carriers filter long-code
// traffic.
const (
	ErrorCodeMessageBlocked   = 30034 // unregistered number
	ErrorCodeCarrierViolation = 30035 // content or volume violation
)

// DefaultErrorCodes are the delivery errors that make a long code a migration
// candidate.
var DefaultErrorCodes = []int{ErrorCodeMessageBlocked, ErrorCodeCarrierViolation}

// Message is an outbound message from the provider's message log. Only the
// fields needed for delivery-error telemetry are kept.
type Message struct {
	SID       string
	From      string
	To        string
	Status    string
	ErrorCode int // 0 when the provider reported no error
	DateSent  time.Time
}

// MessageFilter narrows a message log listing on the provider side.
type MessageFilter struct {
	From          string
	DateSentAfter time.Time // zero means unbounded
}
