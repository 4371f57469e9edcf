package app

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/aradsms/tollfree_migrator/internal/migration_service/domain"
)

// DefaultErrorWindow is the trailing window searched for delivery errors.
const DefaultErrorWindow = 7 * 24 * time.Hour

// TelemetryEvaluator reduces an account's message log to a per-number count of
// carrier-filtering errors.
type TelemetryEvaluator struct {
	logger     *slog.Logger
	window     time.Duration
	errorCodes []int
	now        func() time.Time
}

// TelemetryOption customizes a TelemetryEvaluator.
type TelemetryOption func(*TelemetryEvaluator)

// WithErrorWindow overrides the trailing window.
func WithErrorWindow(window time.Duration) TelemetryOption {
	return func(e *TelemetryEvaluator) {
		if window > 0 {
			e.window = window
		}
	}
}

// WithErrorCodes overrides the error codes that count.
func WithErrorCodes(codes ...int) TelemetryOption {
	return func(e *TelemetryEvaluator) {
		if len(codes) > 0 {
			e.errorCodes = codes
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) TelemetryOption {
	return func(e *TelemetryEvaluator) {
		e.now = now
	}
}

// NewTelemetryEvaluator creates a new TelemetryEvaluator.
func NewTelemetryEvaluator(logger *slog.Logger, opts ...TelemetryOption) *TelemetryEvaluator {
	e := &TelemetryEvaluator{
		logger:     logger.With("component", "telemetry_evaluator"),
		window:     DefaultErrorWindow,
		errorCodes: domain.DefaultErrorCodes,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CountRecentDeliveryErrors counts messages sent from number inside the window
// that failed with one of the target error codes to a US long code.
// A failed fetch counts as zero.
func (e *TelemetryEvaluator) CountRecentDeliveryErrors(ctx context.Context, lister domain.MessageLister, accountSID, number string) int {
	now := e.now().UTC()
	windowStart := now.Add(-e.window)

	messages, err := lister.ListMessages(ctx, domain.MessageFilter{From: number, DateSentAfter: windowStart})
	if err != nil {
		telemetryFetchFailuresCounter.Inc()
		e.logger.ErrorContext(ctx, "Failed to fetch message log, treating as no errors",
			"account_sid", accountSID, "phone_number", number, "error", err)
		return 0
	}

	count := 0
	for _, msg := range messages {
		if !slices.Contains(e.errorCodes, msg.ErrorCode) {
			continue
		}
		if !domain.IsLongCode(msg.To) {
			continue
		}
		if msg.DateSent.Before(windowStart) || !msg.DateSent.Before(now) {
			continue
		}
		count++
	}

	e.logger.InfoContext(ctx, "Counted recent delivery errors",
		"account_sid", accountSID, "phone_number", number, "error_codes", e.errorCodes,
		"window", e.window.String(), "messages_scanned", len(messages), "error_count", count)
	return count
}
