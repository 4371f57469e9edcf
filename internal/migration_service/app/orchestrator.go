package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aradsms/tollfree_migrator/internal/migration_service/domain"
	"github.com/google/uuid"
)

// SubaccountStatusActive is the only sub-account status that is migrated.
const SubaccountStatusActive = "active"

// ProviderFactory opens a provider session for a sub-account.
type ProviderFactory interface {
	ForSubaccount(sid, authToken string) domain.Provider
}

// SwapEventPublisher announces completed number swaps.
type SwapEventPublisher interface {
	PublishNumberSwapped(ctx context.Context, event domain.NumberSwappedEvent) error
}

type noopPublisher struct{}

func (noopPublisher) PublishNumberSwapped(context.Context, domain.NumberSwappedEvent) error {
	return nil
}

// OrchestratorConfig holds the run-wide settings of the orchestrator.
type OrchestratorConfig struct {
	RunID           string
	OnlyPending     bool
	TollFreeCountry string
}

// RunReport counts what a run did.
type RunReport struct {
	RunID string

	SubaccountsProcessed int
	SubaccountsSkipped   int
	SubaccountsFailed    int

	ServicesEvaluated  int
	ServicesIneligible int
	ServicesFailed     int

	NumbersChecked     int
	NumbersLeftInPlace int
	NumbersSwapped     int
	NumbersReused      int
	NumbersPurchased   int
	AllocationFailures int

	VerificationsQueued int
	Verification        VerificationSummary

	StartedAt  time.Time
	FinishedAt time.Time
}

// Orchestrator walks every active sub-account and its messaging services and
// replaces long codes that show carrier filtering with toll-free numbers.
// Sub-accounts, services and numbers are processed strictly in sequence.
type Orchestrator struct {
	directory     domain.AccountDirectory
	factory       ProviderFactory
	telemetry     *TelemetryEvaluator
	verifications *VerificationQueue
	publisher     SwapEventPublisher
	budget        *domain.PurchaseBudget
	exclusions    domain.ExclusionSet
	config        OrchestratorConfig
	logger        *slog.Logger
}

// NewOrchestrator creates a new Orchestrator. verifications and publisher may be
// nil, in which case no verification is filed and no event is published.
func NewOrchestrator(
	directory domain.AccountDirectory,
	factory ProviderFactory,
	telemetry *TelemetryEvaluator,
	verifications *VerificationQueue,
	publisher SwapEventPublisher,
	budget *domain.PurchaseBudget,
	exclusions domain.ExclusionSet,
	cfg OrchestratorConfig,
	logger *slog.Logger,
) *Orchestrator {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	if cfg.TollFreeCountry == "" {
		cfg.TollFreeCountry = DefaultTollFreeCountry
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	return &Orchestrator{
		directory:     directory,
		factory:       factory,
		telemetry:     telemetry,
		verifications: verifications,
		publisher:     publisher,
		budget:        budget,
		exclusions:    exclusions,
		config:        cfg,
		logger:        logger.With("component", "orchestrator", "run_id", cfg.RunID),
	}
}

// Run processes every active sub-account. Only failing to list sub-accounts or
// cancellation ends the run early; other failures are logged, counted and the
// run moves on. Queued verifications are awaited before Run returns.
func (o *Orchestrator) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{RunID: o.config.RunID, StartedAt: time.Now().UTC()}
	defer o.finish(report)

	o.logger.InfoContext(ctx, "Starting toll-free migration run", "only_pending", o.config.OnlyPending,
		"budget", o.budget.String(), "excluded_subaccounts", len(o.exclusions))

	subaccounts, err := o.directory.ListSubaccounts(ctx, SubaccountStatusActive)
	if err != nil {
		o.logger.ErrorContext(ctx, "Failed to list sub-accounts", "error", err)
		return report, fmt.Errorf("failed to list sub-accounts: %w", err)
	}

	for _, sub := range subaccounts {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		switch {
		case !sub.HasCredentials():
			o.logger.WarnContext(ctx, "Skipping sub-account without auth token", "subaccount_sid", sub.SID)
			subaccountsProcessedCounter.WithLabelValues("skipped_no_credentials").Inc()
			report.SubaccountsSkipped++
		case o.exclusions.Contains(sub.SID):
			o.logger.InfoContext(ctx, "Skipping sub-account in exclusion list", "subaccount_sid", sub.SID)
			subaccountsProcessedCounter.WithLabelValues("skipped_excluded").Inc()
			report.SubaccountsSkipped++
		default:
			if err := o.processSubaccount(ctx, sub, report); err != nil {
				o.logger.ErrorContext(ctx, "Failed to process sub-account", "subaccount_sid", sub.SID, "error", err)
				subaccountsProcessedCounter.WithLabelValues("failed").Inc()
				report.SubaccountsFailed++
				continue
			}
			subaccountsProcessedCounter.WithLabelValues("processed").Inc()
			report.SubaccountsProcessed++
		}
	}
	return report, nil
}

func (o *Orchestrator) finish(report *RunReport) {
	if o.verifications != nil {
		report.Verification = o.verifications.Wait()
	}
	report.FinishedAt = time.Now().UTC()
	o.logger.Info("Toll-free migration run finished",
		"subaccounts_processed", report.SubaccountsProcessed,
		"subaccounts_skipped", report.SubaccountsSkipped,
		"subaccounts_failed", report.SubaccountsFailed,
		"services_evaluated", report.ServicesEvaluated,
		"services_failed", report.ServicesFailed,
		"numbers_swapped", report.NumbersSwapped,
		"numbers_purchased", report.NumbersPurchased,
		"verifications_submitted", report.Verification.Submitted,
		"verifications_failed", report.Verification.Failed,
		"duration", report.FinishedAt.Sub(report.StartedAt).String())
}

func (o *Orchestrator) processSubaccount(ctx context.Context, sub domain.SubAccount, report *RunReport) error {
	logger := o.logger.With("subaccount_sid", sub.SID)
	logger.InfoContext(ctx, "Processing sub-account", "friendly_name", sub.FriendlyName)

	provider := o.factory.ForSubaccount(sub.SID, sub.AuthToken)

	services, err := provider.ListMessagingServices(ctx)
	if err != nil {
		return fmt.Errorf("failed to list messaging services: %w", err)
	}

	pool, err := ComputeUnassigned(ctx, provider, services, o.config.TollFreeCountry, logger)
	if err != nil {
		return fmt.Errorf("failed to compute unassigned toll-free numbers: %w", err)
	}

	for _, svc := range services {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := o.processService(ctx, provider, svc, pool, report, logger); err != nil {
			logger.ErrorContext(ctx, "Failed to process messaging service", "service_sid", svc.SID, "error", err)
			report.ServicesFailed++
		}
	}
	return nil
}

func (o *Orchestrator) processService(ctx context.Context, provider domain.Provider, svc domain.MessagingService, pool *TollFreePool, report *RunReport, logger *slog.Logger) error {
	logger = logger.With("service_sid", svc.SID)
	report.ServicesEvaluated++

	campaigns, err := provider.ListCampaigns(ctx, svc.SID)
	if err != nil {
		return fmt.Errorf("failed to list campaigns: %w", err)
	}

	eligibility := domain.ResolveEligibility(campaigns, o.config.OnlyPending)
	servicesEvaluatedCounter.WithLabelValues(eligibility.Kind.String()).Inc()

	switch eligibility.Kind {
	case domain.EligibilityIneligible:
		logger.InfoContext(ctx, "Skipping messaging service", "reason", eligibility.Reason, "campaigns", len(campaigns))
		report.ServicesIneligible++
		return nil
	case domain.EligibilityWithCampaign:
		logger.InfoContext(ctx, "Messaging service eligible, verification will be filed", "campaign_sid", eligibility.Campaign.SID)
	case domain.EligibilityNoCampaign:
		logger.InfoContext(ctx, "Messaging service eligible without campaign, no verification will be filed", "reason", eligibility.Reason)
	default:
		return fmt.Errorf("unhandled eligibility kind %d", eligibility.Kind)
	}

	numbers, err := provider.ListServicePhoneNumbers(ctx, svc.SID)
	if err != nil {
		return fmt.Errorf("failed to list service phone numbers: %w", err)
	}

	partitions := domain.PartitionNumbers(numbers)
	longCodes := domain.GetLongCodeNumbers(numbers)
	logger.InfoContext(ctx, "Classified service phone numbers",
		"total", len(numbers),
		"long_codes", len(longCodes),
		"toll_free", len(partitions[domain.NumberTypeTollFree]),
		"short_codes", len(partitions[domain.NumberTypeShortCode]),
		"unknown", len(partitions[domain.NumberTypeUnknown]))
	if len(longCodes) == 0 {
		logger.InfoContext(ctx, "No long code numbers on messaging service")
		return nil
	}

	for _, longCode := range longCodes {
		if err := ctx.Err(); err != nil {
			return err
		}
		stop, err := o.migrateNumber(ctx, provider, svc, longCode, eligibility, pool, report, logger)
		if err != nil {
			return err
		}
		if stop {
			logger.WarnContext(ctx, "No replacement toll-free number available, stopping this messaging service")
			break
		}
	}
	return nil
}

// migrateNumber evaluates one long code and swaps it when it shows delivery
// errors. stop is true when no replacement could be allocated.
func (o *Orchestrator) migrateNumber(
	ctx context.Context,
	provider domain.Provider,
	svc domain.MessagingService,
	longCode domain.PhoneNumberRecord,
	eligibility domain.Eligibility,
	pool *TollFreePool,
	report *RunReport,
	logger *slog.Logger,
) (stop bool, err error) {
	logger = logger.With("phone_number", longCode.PhoneNumber, "phone_number_sid", longCode.SID)
	report.NumbersChecked++

	errorCount := o.telemetry.CountRecentDeliveryErrors(ctx, provider, provider.AccountSID(), longCode.PhoneNumber)
	if errorCount <= 0 {
		logger.InfoContext(ctx, "No recent delivery errors, leaving long code in place")
		report.NumbersLeftInPlace++
		return false, nil
	}

	if err := provider.RemoveServicePhoneNumber(ctx, svc.SID, longCode.SID); err != nil {
		return false, fmt.Errorf("failed to remove long code %s: %w", longCode.PhoneNumber, err)
	}
	logger.InfoContext(ctx, "Removed long code from messaging service", "error_count", errorCount)

	allocation, err := pool.Allocate(ctx, o.budget)
	if err != nil {
		return false, fmt.Errorf("failed to allocate replacement for %s: %w", longCode.PhoneNumber, err)
	}
	if !allocation.Allocated() {
		allocationFailuresCounter.WithLabelValues(allocation.Outcome.String()).Inc()
		report.AllocationFailures++
		logger.WarnContext(ctx, "Could not allocate a toll-free number", "outcome", allocation.Outcome.String(), "budget", o.budget.String())
		return true, nil
	}

	tollFree := *allocation.Number
	if allocation.Outcome == AllocationPurchased {
		report.NumbersPurchased++
	}
	if err := provider.AddServicePhoneNumber(ctx, svc.SID, tollFree.SID); err != nil {
		pool.Return(tollFree)
		return false, fmt.Errorf("failed to assign toll-free number %s: %w", tollFree.PhoneNumber, err)
	}
	numbersSwappedCounter.WithLabelValues(allocation.Outcome.String()).Inc()
	report.NumbersSwapped++
	if allocation.Outcome == AllocationReused {
		report.NumbersReused++
	}
	logger.InfoContext(ctx, "Assigned toll-free number to messaging service",
		"tollfree_number", tollFree.PhoneNumber, "source", allocation.Outcome.String())

	verificationQueued := false
	if eligibility.Kind == domain.EligibilityWithCampaign && o.verifications != nil {
		o.verifications.Enqueue(VerificationTask{
			Provider:       provider,
			Campaign:       *eligibility.Campaign,
			TollFreeNumber: tollFree,
			ServiceSID:     svc.SID,
		})
		verificationQueued = true
		report.VerificationsQueued++
	}

	event := domain.NumberSwappedEvent{
		EventID:            uuid.NewString(),
		RunID:              o.config.RunID,
		SubaccountSID:      provider.AccountSID(),
		ServiceSID:         svc.SID,
		RemovedNumber:      longCode.PhoneNumber,
		RemovedNumberSID:   longCode.SID,
		AssignedNumber:     tollFree.PhoneNumber,
		AssignedNumberSID:  tollFree.SID,
		Source:             allocation.Outcome.String(),
		ErrorCount:         errorCount,
		VerificationQueued: verificationQueued,
		OccurredAt:         time.Now().UTC(),
	}
	if err := o.publisher.PublishNumberSwapped(ctx, event); err != nil {
		logger.WarnContext(ctx, "Failed to publish number swapped event", "event_id", event.EventID, "error", err)
	}
	return false, nil
}
