package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aradsms/tollfree_migrator/internal/migration_service/domain"
)

var testNow = time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)

func fromNumber(number string) interface{} {
	return mock.MatchedBy(func(f domain.MessageFilter) bool { return f.From == number })
}

func blockedMessages(n int) []domain.Message {
	msgs := make([]domain.Message, 0, n)
	for i := 0; i < n; i++ {
		msgs = append(msgs, domain.Message{
			To:        "+16175550001",
			ErrorCode: domain.ErrorCodeMessageBlocked,
			DateSent:  testNow.Add(-time.Duration(i+1) * time.Hour),
		})
	}
	return msgs
}

// stubSubaccount wires a provider with one messaging service MG1 holding a long
// code, a toll-free number and a short code. The account owns no spare numbers.
func stubSubaccount(provider *MockProvider, campaigns []domain.Campaign) {
	serviceNumbers := []domain.PhoneNumberRecord{
		{SID: "PNL1", PhoneNumber: "+14155551234"},
		{SID: "PNT1", PhoneNumber: "+18002345678"},
		{SID: "PNS1", PhoneNumber: "12345"},
	}
	provider.On("ListMessagingServices", mock.Anything).Return([]domain.MessagingService{{SID: "MG1", FriendlyName: "Reminders"}}, nil).Once()
	provider.On("ListIncomingPhoneNumbers", mock.Anything).Return(serviceNumbers, nil)
	provider.On("ListServicePhoneNumbers", mock.Anything, "MG1").Return(serviceNumbers, nil)
	provider.On("ListCampaigns", mock.Anything, "MG1").Return(campaigns, nil)
}

type orchestratorFixture struct {
	directory *MockAccountDirectory
	factory   *MockProviderFactory
	publisher *MockSwapEventPublisher
	budget    *domain.PurchaseBudget
	queue     *VerificationQueue
}

func newOrchestratorFixture(maxPurchases int) *orchestratorFixture {
	return &orchestratorFixture{
		directory: new(MockAccountDirectory),
		factory:   new(MockProviderFactory),
		publisher: new(MockSwapEventPublisher),
		budget:    domain.NewPurchaseBudget(maxPurchases),
		queue:     NewVerificationQueue(context.Background(), NewVerificationExtractor(discardLogger()), testRunOptions(), 2, discardLogger()),
	}
}

func (f *orchestratorFixture) orchestrator(exclusions domain.ExclusionSet, onlyPending bool) *Orchestrator {
	telemetry := NewTelemetryEvaluator(discardLogger(), WithClock(func() time.Time { return testNow }))
	return NewOrchestrator(f.directory, f.factory, telemetry, f.queue, f.publisher, f.budget, exclusions,
		OrchestratorConfig{RunID: "run-1", OnlyPending: onlyPending}, discardLogger())
}

func TestOrchestrator_Run_SwapsFilteredLongCode(t *testing.T) {
	f := newOrchestratorFixture(1)
	provider := &MockProvider{SID: "AC1"}
	stubSubaccount(provider, []domain.Campaign{testCampaign()})
	expectCompliance(provider)

	f.directory.On("ListSubaccounts", mock.Anything, SubaccountStatusActive).Return([]domain.SubAccount{{SID: "AC1", AuthToken: "tok1"}}, nil)
	f.factory.On("ForSubaccount", "AC1", "tok1").Return(provider)

	provider.On("ListMessages", mock.Anything, fromNumber("+14155551234")).Return(blockedMessages(3), nil)
	provider.On("RemoveServicePhoneNumber", mock.Anything, "MG1", "PNL1").Return(nil).Once()
	provider.On("SearchAvailableTollFree", mock.Anything, "US", 1).Return([]string{"+18882345678"}, nil).Once()
	provider.On("PurchasePhoneNumber", mock.Anything, "+18882345678").Return(&domain.PhoneNumberRecord{SID: "PNNEW", PhoneNumber: "+18882345678"}, nil).Once()
	provider.On("AddServicePhoneNumber", mock.Anything, "MG1", "PNNEW").Return(nil).Once()
	provider.On("CreateTollFreeVerification", mock.Anything, mock.MatchedBy(func(s domain.VerificationSubmission) bool {
		return s.TollFreePhoneNumberSID == "PNNEW"
	})).Return("HH1", nil).Once()

	f.publisher.On("PublishNumberSwapped", mock.Anything, mock.MatchedBy(func(e domain.NumberSwappedEvent) bool {
		return e.RunID == "run-1" && e.SubaccountSID == "AC1" && e.ServiceSID == "MG1" &&
			e.RemovedNumber == "+14155551234" && e.AssignedNumber == "+18882345678" &&
			e.Source == "purchased" && e.ErrorCount == 3 && e.VerificationQueued
	})).Return(nil).Once()

	report, err := f.orchestrator(nil, false).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.SubaccountsProcessed)
	assert.Equal(t, 1, report.ServicesEvaluated)
	assert.Equal(t, 1, report.NumbersChecked)
	assert.Equal(t, 1, report.NumbersSwapped)
	assert.Equal(t, 1, report.NumbersPurchased)
	assert.Equal(t, 1, report.VerificationsQueued)
	assert.Equal(t, 1, report.Verification.Submitted)
	assert.Equal(t, 0, report.Verification.Failed)
	assert.Equal(t, 1, f.budget.Used())
	assert.False(t, report.FinishedAt.IsZero())

	provider.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
	f.factory.AssertExpectations(t)
	provider.AssertNotCalled(t, "RemoveServicePhoneNumber", mock.Anything, "MG1", "PNT1")
	provider.AssertNotCalled(t, "RemoveServicePhoneNumber", mock.Anything, "MG1", "PNS1")
}

func TestOrchestrator_Run_HealthyLongCodeLeftInPlace(t *testing.T) {
	f := newOrchestratorFixture(1)
	provider := &MockProvider{SID: "AC1"}
	stubSubaccount(provider, []domain.Campaign{testCampaign()})

	f.directory.On("ListSubaccounts", mock.Anything, SubaccountStatusActive).Return([]domain.SubAccount{{SID: "AC1", AuthToken: "tok1"}}, nil)
	f.factory.On("ForSubaccount", "AC1", "tok1").Return(provider)
	provider.On("ListMessages", mock.Anything, fromNumber("+14155551234")).Return([]domain.Message{}, nil)

	report, err := f.orchestrator(nil, false).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.NumbersChecked)
	assert.Equal(t, 1, report.NumbersLeftInPlace)
	assert.Equal(t, 0, report.NumbersSwapped)
	assert.Equal(t, 0, report.VerificationsQueued)
	assert.Equal(t, 0, f.budget.Used())

	provider.AssertNotCalled(t, "RemoveServicePhoneNumber", mock.Anything, mock.Anything, mock.Anything)
	provider.AssertNotCalled(t, "SearchAvailableTollFree", mock.Anything, mock.Anything, mock.Anything)
	provider.AssertNotCalled(t, "PurchasePhoneNumber", mock.Anything, mock.Anything)
	provider.AssertNotCalled(t, "CreateTollFreeVerification", mock.Anything, mock.Anything)
	f.publisher.AssertNotCalled(t, "PublishNumberSwapped", mock.Anything, mock.Anything)
}

func TestOrchestrator_Run_HealthyLongCodeDoesNotStopService(t *testing.T) {
	f := newOrchestratorFixture(0)
	provider := &MockProvider{SID: "AC1"}
	serviceNumbers := []domain.PhoneNumberRecord{
		{SID: "PNL1", PhoneNumber: "+14155551234"},
		{SID: "PNL2", PhoneNumber: "+14155555678"},
	}
	provider.On("ListMessagingServices", mock.Anything).Return([]domain.MessagingService{{SID: "MG1"}}, nil).Once()
	provider.On("ListIncomingPhoneNumbers", mock.Anything).Return(append(serviceNumbers,
		domain.PhoneNumberRecord{SID: "PNSPARE", PhoneNumber: "+18442345678"}), nil)
	provider.On("ListServicePhoneNumbers", mock.Anything, "MG1").Return(serviceNumbers, nil)
	provider.On("ListCampaigns", mock.Anything, "MG1").Return([]domain.Campaign{{SID: "QE5", Status: domain.CampaignStatusFailed}}, nil)
	provider.On("ListMessages", mock.Anything, fromNumber("+14155551234")).Return([]domain.Message{}, nil).Once()
	provider.On("ListMessages", mock.Anything, fromNumber("+14155555678")).Return(blockedMessages(4), nil).Once()
	provider.On("RemoveServicePhoneNumber", mock.Anything, "MG1", "PNL2").Return(nil).Once()
	provider.On("AddServicePhoneNumber", mock.Anything, "MG1", "PNSPARE").Return(nil).Once()

	f.directory.On("ListSubaccounts", mock.Anything, SubaccountStatusActive).Return([]domain.SubAccount{{SID: "AC1", AuthToken: "tok1"}}, nil)
	f.factory.On("ForSubaccount", "AC1", "tok1").Return(provider)
	f.publisher.On("PublishNumberSwapped", mock.Anything, mock.MatchedBy(func(e domain.NumberSwappedEvent) bool {
		return e.RemovedNumber == "+14155555678" && e.AssignedNumber == "+18442345678" && e.Source == "reused"
	})).Return(nil).Once()

	report, err := f.orchestrator(nil, false).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.NumbersChecked)
	assert.Equal(t, 1, report.NumbersLeftInPlace)
	assert.Equal(t, 1, report.NumbersSwapped)
	assert.Equal(t, 1, report.NumbersReused)

	provider.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
	provider.AssertNumberOfCalls(t, "ListMessagingServices", 1)
	provider.AssertNotCalled(t, "RemoveServicePhoneNumber", mock.Anything, "MG1", "PNL1")
}

func TestOrchestrator_Run_FailedAssignmentReturnsNumberToPool(t *testing.T) {
	f := newOrchestratorFixture(0)
	provider := &MockProvider{SID: "AC1"}
	provider.On("ListMessagingServices", mock.Anything).Return([]domain.MessagingService{{SID: "MG1"}, {SID: "MG2"}}, nil).Once()
	provider.On("ListIncomingPhoneNumbers", mock.Anything).Return([]domain.PhoneNumberRecord{
		{SID: "PNL1", PhoneNumber: "+14155551234"},
		{SID: "PNL2", PhoneNumber: "+14155555678"},
		{SID: "PNSPARE", PhoneNumber: "+18442345678"},
	}, nil)
	provider.On("ListServicePhoneNumbers", mock.Anything, "MG1").Return([]domain.PhoneNumberRecord{{SID: "PNL1", PhoneNumber: "+14155551234"}}, nil)
	provider.On("ListServicePhoneNumbers", mock.Anything, "MG2").Return([]domain.PhoneNumberRecord{{SID: "PNL2", PhoneNumber: "+14155555678"}}, nil)
	provider.On("ListCampaigns", mock.Anything, mock.Anything).Return([]domain.Campaign{{SID: "QE5", Status: domain.CampaignStatusFailed}}, nil)
	provider.On("ListMessages", mock.Anything, mock.Anything).Return(blockedMessages(2), nil)
	provider.On("RemoveServicePhoneNumber", mock.Anything, "MG1", "PNL1").Return(nil).Once()
	provider.On("RemoveServicePhoneNumber", mock.Anything, "MG2", "PNL2").Return(nil).Once()
	provider.On("AddServicePhoneNumber", mock.Anything, "MG1", "PNSPARE").Return(errors.New("21710 phone number already in service")).Once()
	provider.On("AddServicePhoneNumber", mock.Anything, "MG2", "PNSPARE").Return(nil).Once()

	f.directory.On("ListSubaccounts", mock.Anything, SubaccountStatusActive).Return([]domain.SubAccount{{SID: "AC1", AuthToken: "tok1"}}, nil)
	f.factory.On("ForSubaccount", "AC1", "tok1").Return(provider)
	f.publisher.On("PublishNumberSwapped", mock.Anything, mock.MatchedBy(func(e domain.NumberSwappedEvent) bool {
		return e.ServiceSID == "MG2" && e.AssignedNumber == "+18442345678"
	})).Return(nil).Once()

	report, err := f.orchestrator(nil, false).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.ServicesFailed)
	assert.Equal(t, 1, report.NumbersSwapped)
	assert.Equal(t, 1, report.NumbersReused)
	assert.Equal(t, 0, report.AllocationFailures)
	provider.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestOrchestrator_Run_SkipsExcludedAndTokenlessSubaccounts(t *testing.T) {
	f := newOrchestratorFixture(1)
	provider := &MockProvider{SID: "AC3"}
	stubSubaccount(provider, []domain.Campaign{{SID: "QE9", Status: domain.CampaignStatusSuccess}})

	f.directory.On("ListSubaccounts", mock.Anything, SubaccountStatusActive).Return([]domain.SubAccount{
		{SID: "AC1"},
		{SID: "AC2", AuthToken: "tok2"},
		{SID: "AC3", AuthToken: "tok3"},
	}, nil)
	f.factory.On("ForSubaccount", "AC3", "tok3").Return(provider)

	report, err := f.orchestrator(domain.NewExclusionSet("AC2"), false).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.SubaccountsSkipped)
	assert.Equal(t, 1, report.SubaccountsProcessed)
	assert.Equal(t, 1, report.ServicesIneligible)
	assert.Equal(t, 0, report.NumbersChecked)

	f.factory.AssertNotCalled(t, "ForSubaccount", "AC1", mock.Anything)
	f.factory.AssertNotCalled(t, "ForSubaccount", "AC2", mock.Anything)
	provider.AssertNotCalled(t, "ListMessages", mock.Anything, mock.Anything)
}

func TestOrchestrator_Run_BudgetExhaustionStopsService(t *testing.T) {
	f := newOrchestratorFixture(0)
	provider := &MockProvider{SID: "AC1"}
	serviceNumbers := []domain.PhoneNumberRecord{
		{SID: "PNL1", PhoneNumber: "+14155551234"},
		{SID: "PNL2", PhoneNumber: "+14155555678"},
	}
	provider.On("ListMessagingServices", mock.Anything).Return([]domain.MessagingService{{SID: "MG1"}}, nil)
	provider.On("ListIncomingPhoneNumbers", mock.Anything).Return(serviceNumbers, nil)
	provider.On("ListServicePhoneNumbers", mock.Anything, "MG1").Return(serviceNumbers, nil)
	provider.On("ListCampaigns", mock.Anything, "MG1").Return([]domain.Campaign{}, nil)
	provider.On("ListMessages", mock.Anything, fromNumber("+14155551234")).Return(blockedMessages(2), nil)
	provider.On("RemoveServicePhoneNumber", mock.Anything, "MG1", "PNL1").Return(nil).Once()

	f.directory.On("ListSubaccounts", mock.Anything, SubaccountStatusActive).Return([]domain.SubAccount{{SID: "AC1", AuthToken: "tok1"}}, nil)
	f.factory.On("ForSubaccount", "AC1", "tok1").Return(provider)

	report, err := f.orchestrator(nil, true).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.NumbersChecked)
	assert.Equal(t, 1, report.AllocationFailures)
	assert.Equal(t, 0, report.NumbersSwapped)

	provider.AssertExpectations(t)
	provider.AssertNotCalled(t, "ListMessages", mock.Anything, fromNumber("+14155555678"))
	provider.AssertNotCalled(t, "SearchAvailableTollFree", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrchestrator_Run_ReusesOwnedNumberWithoutVerification(t *testing.T) {
	f := newOrchestratorFixture(0)
	provider := &MockProvider{SID: "AC1"}
	serviceNumbers := []domain.PhoneNumberRecord{{SID: "PNL1", PhoneNumber: "+14155551234"}}
	provider.On("ListMessagingServices", mock.Anything).Return([]domain.MessagingService{{SID: "MG1"}}, nil)
	provider.On("ListIncomingPhoneNumbers", mock.Anything).Return([]domain.PhoneNumberRecord{
		{SID: "PNL1", PhoneNumber: "+14155551234"},
		{SID: "PNSPARE", PhoneNumber: "+18442345678"},
	}, nil)
	provider.On("ListServicePhoneNumbers", mock.Anything, "MG1").Return(serviceNumbers, nil)
	provider.On("ListCampaigns", mock.Anything, "MG1").Return([]domain.Campaign{{SID: "QE5", Status: domain.CampaignStatusFailed}}, nil)
	provider.On("ListMessages", mock.Anything, fromNumber("+14155551234")).Return(blockedMessages(1), nil)
	provider.On("RemoveServicePhoneNumber", mock.Anything, "MG1", "PNL1").Return(nil).Once()
	provider.On("AddServicePhoneNumber", mock.Anything, "MG1", "PNSPARE").Return(nil).Once()

	f.directory.On("ListSubaccounts", mock.Anything, SubaccountStatusActive).Return([]domain.SubAccount{{SID: "AC1", AuthToken: "tok1"}}, nil)
	f.factory.On("ForSubaccount", "AC1", "tok1").Return(provider)
	f.publisher.On("PublishNumberSwapped", mock.Anything, mock.Anything).Return(errors.New("nats: connection closed")).Once()

	report, err := f.orchestrator(nil, false).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.NumbersSwapped)
	assert.Equal(t, 1, report.NumbersReused)
	assert.Equal(t, 0, report.VerificationsQueued)
	assert.Empty(t, report.Verification.Results)
	provider.AssertExpectations(t)
	provider.AssertNotCalled(t, "PurchasePhoneNumber", mock.Anything, mock.Anything)
}

func TestOrchestrator_Run_FailedSubaccountDoesNotStopRun(t *testing.T) {
	f := newOrchestratorFixture(1)
	broken := &MockProvider{SID: "AC1"}
	broken.On("ListMessagingServices", mock.Anything).Return(nil, errors.New("20003 authenticate"))
	healthy := &MockProvider{SID: "AC2"}
	healthy.On("ListMessagingServices", mock.Anything).Return([]domain.MessagingService{}, nil)
	healthy.On("ListIncomingPhoneNumbers", mock.Anything).Return([]domain.PhoneNumberRecord{}, nil)

	f.directory.On("ListSubaccounts", mock.Anything, SubaccountStatusActive).Return([]domain.SubAccount{
		{SID: "AC1", AuthToken: "tok1"},
		{SID: "AC2", AuthToken: "tok2"},
	}, nil)
	f.factory.On("ForSubaccount", "AC1", "tok1").Return(broken)
	f.factory.On("ForSubaccount", "AC2", "tok2").Return(healthy)

	report, err := f.orchestrator(nil, false).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.SubaccountsFailed)
	assert.Equal(t, 1, report.SubaccountsProcessed)
	healthy.AssertExpectations(t)
}

func TestOrchestrator_Run_ListSubaccountsError(t *testing.T) {
	f := newOrchestratorFixture(1)
	f.directory.On("ListSubaccounts", mock.Anything, SubaccountStatusActive).Return(nil, errors.New("401 unauthorized"))

	report, err := f.orchestrator(nil, false).Run(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to list sub-accounts")
	require.NotNil(t, report)
	assert.Equal(t, "run-1", report.RunID)
	f.factory.AssertNotCalled(t, "ForSubaccount", mock.Anything, mock.Anything)
}
