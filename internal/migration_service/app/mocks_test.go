package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/stretchr/testify/mock"

	"github.com/aradsms/tollfree_migrator/internal/migration_service/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockProvider is a mock implementation of domain.Provider
type MockProvider struct {
	mock.Mock
	SID string
}

func (m *MockProvider) AccountSID() string {
	return m.SID
}

func (m *MockProvider) ListMessages(ctx context.Context, filter domain.MessageFilter) ([]domain.Message, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Message), args.Error(1)
}

func (m *MockProvider) ListIncomingPhoneNumbers(ctx context.Context) ([]domain.PhoneNumberRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PhoneNumberRecord), args.Error(1)
}

func (m *MockProvider) SearchAvailableTollFree(ctx context.Context, country string, limit int) ([]string, error) {
	args := m.Called(ctx, country, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockProvider) PurchasePhoneNumber(ctx context.Context, phoneNumber string) (*domain.PhoneNumberRecord, error) {
	args := m.Called(ctx, phoneNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PhoneNumberRecord), args.Error(1)
}

func (m *MockProvider) ListMessagingServices(ctx context.Context) ([]domain.MessagingService, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MessagingService), args.Error(1)
}

func (m *MockProvider) ListServicePhoneNumbers(ctx context.Context, serviceSID string) ([]domain.PhoneNumberRecord, error) {
	args := m.Called(ctx, serviceSID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PhoneNumberRecord), args.Error(1)
}

func (m *MockProvider) AddServicePhoneNumber(ctx context.Context, serviceSID, phoneNumberSID string) error {
	args := m.Called(ctx, serviceSID, phoneNumberSID)
	return args.Error(0)
}

func (m *MockProvider) RemoveServicePhoneNumber(ctx context.Context, serviceSID, phoneNumberSID string) error {
	args := m.Called(ctx, serviceSID, phoneNumberSID)
	return args.Error(0)
}

func (m *MockProvider) ListCampaigns(ctx context.Context, serviceSID string) ([]domain.Campaign, error) {
	args := m.Called(ctx, serviceSID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Campaign), args.Error(1)
}

func (m *MockProvider) FetchBrandRegistration(ctx context.Context, sid string) (*domain.BrandRegistration, error) {
	args := m.Called(ctx, sid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BrandRegistration), args.Error(1)
}

func (m *MockProvider) FetchCustomerProfile(ctx context.Context, sid string) (*domain.CustomerProfile, error) {
	args := m.Called(ctx, sid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CustomerProfile), args.Error(1)
}

func (m *MockProvider) ListEndUsers(ctx context.Context) ([]domain.EndUser, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.EndUser), args.Error(1)
}

func (m *MockProvider) FetchEndUser(ctx context.Context, sid string) (*domain.EndUser, error) {
	args := m.Called(ctx, sid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EndUser), args.Error(1)
}

func (m *MockProvider) ListEntityAssignments(ctx context.Context, customerProfileSID string) ([]domain.EntityAssignment, error) {
	args := m.Called(ctx, customerProfileSID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.EntityAssignment), args.Error(1)
}

func (m *MockProvider) FetchSupportingDocument(ctx context.Context, sid string) (*domain.SupportingDocument, error) {
	args := m.Called(ctx, sid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SupportingDocument), args.Error(1)
}

func (m *MockProvider) FetchAddress(ctx context.Context, sid string) (*domain.Address, error) {
	args := m.Called(ctx, sid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Address), args.Error(1)
}

func (m *MockProvider) CreateTollFreeVerification(ctx context.Context, submission domain.VerificationSubmission) (string, error) {
	args := m.Called(ctx, submission)
	return args.String(0), args.Error(1)
}

// MockAccountDirectory is a mock implementation of domain.AccountDirectory
type MockAccountDirectory struct {
	mock.Mock
}

func (m *MockAccountDirectory) ListSubaccounts(ctx context.Context, status string) ([]domain.SubAccount, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SubAccount), args.Error(1)
}

// MockProviderFactory hands out one prepared provider per sub-account SID.
type MockProviderFactory struct {
	mock.Mock
}

func (m *MockProviderFactory) ForSubaccount(sid, authToken string) domain.Provider {
	args := m.Called(sid, authToken)
	return args.Get(0).(domain.Provider)
}

// MockSwapEventPublisher is a mock implementation of SwapEventPublisher
type MockSwapEventPublisher struct {
	mock.Mock
}

func (m *MockSwapEventPublisher) PublishNumberSwapped(ctx context.Context, event domain.NumberSwappedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
