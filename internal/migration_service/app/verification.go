package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aradsms/tollfree_migrator/internal/migration_service/domain"
	"golang.org/x/sync/errgroup"
)

// DefaultVerificationConcurrency bounds in-flight verification submissions.
const DefaultVerificationConcurrency = 4

// VerificationExtractor assembles the business, representative and address data
// needed for a toll-free verification from a campaign's compliance records.
type VerificationExtractor struct {
	logger *slog.Logger
}

// NewVerificationExtractor creates a new VerificationExtractor.
func NewVerificationExtractor(logger *slog.Logger) *VerificationExtractor {
	return &VerificationExtractor{logger: logger.With("component", "verification_extractor")}
}

// Extract follows brand registration, customer profile, end users, entity
// assignments, supporting document and address for the campaign. Nothing is
// cached between campaigns.
func (x *VerificationExtractor) Extract(ctx context.Context, reader domain.ComplianceReader, campaign domain.Campaign) (*domain.VerificationRecord, error) {
	brand, err := reader.FetchBrandRegistration(ctx, campaign.BrandRegistrationSID)
	if err != nil {
		return nil, fmt.Errorf("fetch brand registration %s: %w", campaign.BrandRegistrationSID, err)
	}

	profile, err := reader.FetchCustomerProfile(ctx, brand.CustomerProfileBundleSID)
	if err != nil {
		return nil, fmt.Errorf("fetch customer profile %s: %w", brand.CustomerProfileBundleSID, err)
	}

	endUsers, err := reader.ListEndUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list end users: %w", err)
	}

	record := &domain.VerificationRecord{Campaign: campaign}
	for _, listed := range endUsers {
		if !listed.IsVerificationSource() {
			continue
		}
		endUser, err := reader.FetchEndUser(ctx, listed.SID)
		if err != nil {
			return nil, fmt.Errorf("fetch end user %s: %w", listed.SID, err)
		}
		switch endUser.Type {
		case domain.EndUserTypeBusinessInformation:
			record.Business.BusinessName = endUser.Attribute("business_name")
			record.Business.WebsiteURL = endUser.Attribute("website_url")
		case domain.EndUserTypeAuthorizedRepresentative1:
			record.Representative.PhoneNumber = endUser.Attribute("phone_number")
			record.Representative.FirstName = endUser.Attribute("first_name")
			record.Representative.LastName = endUser.Attribute("last_name")
			record.Representative.BusinessTitle = endUser.Attribute("business_title")
		}
	}
	record.Business.Email = profile.Email

	assignments, err := reader.ListEntityAssignments(ctx, profile.SID)
	if err != nil {
		return nil, fmt.Errorf("list entity assignments of %s: %w", profile.SID, err)
	}
	var documentSID string
	for _, a := range assignments {
		if a.IsSupportingDocument() {
			documentSID = a.ObjectSID
			break
		}
	}
	if documentSID == "" {
		return nil, fmt.Errorf("customer profile %s: %w", profile.SID, domain.ErrNoSupportingDocument)
	}

	document, err := reader.FetchSupportingDocument(ctx, documentSID)
	if err != nil {
		return nil, fmt.Errorf("fetch supporting document %s: %w", documentSID, err)
	}
	if len(document.AddressSIDs) == 0 {
		return nil, fmt.Errorf("supporting document %s: %w", documentSID, domain.ErrNoAddress)
	}

	address, err := reader.FetchAddress(ctx, document.AddressSIDs[0])
	if err != nil {
		return nil, fmt.Errorf("fetch address %s: %w", document.AddressSIDs[0], err)
	}
	record.Address = *address

	x.logger.DebugContext(ctx, "Extracted verification data", "campaign_sid", campaign.SID,
		"customer_profile_sid", profile.SID, "supporting_document_sid", documentSID, "address_sid", address.SID)
	return record, nil
}

// BuildSubmission merges the fetched record with the run's verification options
// into a toll-free verification request for the given number.
func BuildSubmission(record *domain.VerificationRecord, tollFreeNumberSID string, opts domain.RunOptions) domain.VerificationSubmission {
	return domain.VerificationSubmission{
		TollFreePhoneNumberSID:  tollFreeNumberSID,
		BusinessName:            record.Business.BusinessName,
		BusinessWebsite:         record.Business.WebsiteURL,
		NotificationEmail:       record.Business.Email,
		UseCaseCategories:       []string{opts.UseCaseCategory},
		UseCaseSummary:          record.Campaign.Description,
		ProductionMessageSample: record.Campaign.FirstMessageSample(),
		OptInImageURLs:          []string{opts.OptInImageURL},
		OptInType:               opts.OptInType,
		MessageVolume:           opts.MonthlyMessageVolume,
		BusinessStreetAddress:   record.Address.Street,
		BusinessCity:            record.Address.City,
		BusinessStateProvince:   record.Address.Region,
		BusinessPostalCode:      record.Address.PostalCode,
		BusinessCountry:         record.Address.IsoCountry,
		ContactFirstName:        record.Representative.FirstName,
		ContactLastName:         record.Representative.LastName,
		ContactEmail:            record.Business.Email,
		ContactPhone:            record.Representative.PhoneNumber,
	}
}

// VerificationTask is one queued verification for a newly assigned number.
type VerificationTask struct {
	Provider       domain.Provider
	Campaign       domain.Campaign
	TollFreeNumber domain.PhoneNumberRecord
	ServiceSID     string
}

// VerificationResult is the observed outcome of a VerificationTask.
type VerificationResult struct {
	AccountSID      string
	ServiceSID      string
	CampaignSID     string
	PhoneNumber     string
	VerificationSID string
	Err             error
	FinishedAt      time.Time
}

// VerificationSummary aggregates every result once the queue has drained.
type VerificationSummary struct {
	Submitted int
	Failed    int
	Results   []VerificationResult
}

// VerificationQueue runs verification submissions in the background so the
// migration loop never waits on them. Results are collected and returned by Wait.
// Failures never undo a number swap.
type VerificationQueue struct {
	extractor *VerificationExtractor
	opts      domain.RunOptions
	logger    *slog.Logger

	group *errgroup.Group
	slots chan struct{}
	ctx   context.Context

	mu      sync.Mutex
	results []VerificationResult
}

// NewVerificationQueue creates a queue whose tasks run under ctx with at most
// concurrency submissions in flight.
func NewVerificationQueue(ctx context.Context, extractor *VerificationExtractor, opts domain.RunOptions, concurrency int, logger *slog.Logger) *VerificationQueue {
	if concurrency <= 0 {
		concurrency = DefaultVerificationConcurrency
	}
	return &VerificationQueue{
		extractor: extractor,
		opts:      opts,
		logger:    logger.With("component", "verification_queue"),
		group:     &errgroup.Group{},
		slots:     make(chan struct{}, concurrency),
		ctx:       ctx,
	}
}

// Enqueue schedules a verification and returns immediately. The task waits for
// a free slot in its own goroutine.
func (q *VerificationQueue) Enqueue(task VerificationTask) {
	q.logger.InfoContext(q.ctx, "Queued toll-free verification",
		"account_sid", task.Provider.AccountSID(), "service_sid", task.ServiceSID,
		"campaign_sid", task.Campaign.SID, "phone_number", task.TollFreeNumber.PhoneNumber)
	q.group.Go(func() error {
		select {
		case q.slots <- struct{}{}:
			defer func() { <-q.slots }()
		case <-q.ctx.Done():
		}
		if err := q.ctx.Err(); err != nil {
			q.record(VerificationResult{
				AccountSID:  task.Provider.AccountSID(),
				ServiceSID:  task.ServiceSID,
				CampaignSID: task.Campaign.SID,
				PhoneNumber: task.TollFreeNumber.PhoneNumber,
				Err:         fmt.Errorf("verification not started: %w", err),
			})
			return nil
		}
		q.record(q.run(q.ctx, task))
		return nil
	})
}

func (q *VerificationQueue) run(ctx context.Context, task VerificationTask) VerificationResult {
	result := VerificationResult{
		AccountSID:  task.Provider.AccountSID(),
		ServiceSID:  task.ServiceSID,
		CampaignSID: task.Campaign.SID,
		PhoneNumber: task.TollFreeNumber.PhoneNumber,
	}

	record, err := q.extractor.Extract(ctx, task.Provider, task.Campaign)
	if err != nil {
		verificationSubmissionsCounter.WithLabelValues("extract_error").Inc()
		q.logger.ErrorContext(ctx, "Failed to extract verification data",
			"account_sid", result.AccountSID, "campaign_sid", result.CampaignSID, "phone_number", result.PhoneNumber, "error", err)
		result.Err = fmt.Errorf("extract verification data: %w", err)
		return result
	}

	submission := BuildSubmission(record, task.TollFreeNumber.SID, q.opts)
	sid, err := task.Provider.CreateTollFreeVerification(ctx, submission)
	if err != nil {
		verificationSubmissionsCounter.WithLabelValues("submit_error").Inc()
		q.logger.ErrorContext(ctx, "Failed to submit toll-free verification",
			"account_sid", result.AccountSID, "campaign_sid", result.CampaignSID, "phone_number", result.PhoneNumber, "error", err)
		result.Err = fmt.Errorf("submit toll-free verification: %w", err)
		return result
	}

	verificationSubmissionsCounter.WithLabelValues("success").Inc()
	q.logger.InfoContext(ctx, "Submitted toll-free verification",
		"account_sid", result.AccountSID, "campaign_sid", result.CampaignSID, "phone_number", result.PhoneNumber, "verification_sid", sid)
	result.VerificationSID = sid
	return result
}

func (q *VerificationQueue) record(result VerificationResult) {
	result.FinishedAt = time.Now().UTC()
	q.mu.Lock()
	defer q.mu.Unlock()
	q.results = append(q.results, result)
}

// Wait blocks until every queued task has finished and summarizes the results.
func (q *VerificationQueue) Wait() VerificationSummary {
	_ = q.group.Wait()

	q.mu.Lock()
	defer q.mu.Unlock()
	summary := VerificationSummary{Results: append([]VerificationResult(nil), q.results...)}
	for _, r := range q.results {
		if r.Err != nil {
			summary.Failed++
		} else {
			summary.Submitted++
		}
	}
	return summary
}

// Err joins every failed result's error, or returns nil.
func (s VerificationSummary) Err() error {
	var errs []error
	for _, r := range s.Results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s on %s: %w", r.PhoneNumber, r.ServiceSID, r.Err))
		}
	}
	return errors.Join(errs...)
}
