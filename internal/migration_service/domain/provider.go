package domain

import "context"

// AccountDirectory lists the parent account's sub-accounts.
type AccountDirectory interface {
	ListSubaccounts(ctx context.Context, status string) ([]SubAccount, error)
}

// MessageLister reads an account's outbound message log.
type MessageLister interface {
	ListMessages(ctx context.Context, filter MessageFilter) ([]Message, error)
}

// NumberInventory covers the numbers an account owns and can buy.
type NumberInventory interface {
	ListIncomingPhoneNumbers(ctx context.Context) ([]PhoneNumberRecord, error)
	// SearchAvailableTollFree returns up to limit purchasable toll-free numbers
	// in country (ISO 3166-1 alpha-2).
	SearchAvailableTollFree(ctx context.Context, country string, limit int) ([]string, error)
	PurchasePhoneNumber(ctx context.Context, phoneNumber string) (*PhoneNumberRecord, error)
}

// MessagingServices manages messaging services and their sender pools.
type MessagingServices interface {
	ListMessagingServices(ctx context.Context) ([]MessagingService, error)
	ListServicePhoneNumbers(ctx context.Context, serviceSID string) ([]PhoneNumberRecord, error)
	AddServicePhoneNumber(ctx context.Context, serviceSID, phoneNumberSID string) error
	RemoveServicePhoneNumber(ctx context.Context, serviceSID, phoneNumberSID string) error
	ListCampaigns(ctx context.Context, serviceSID string) ([]Campaign, error)
}

// ComplianceReader fetches the brand and trust hub records behind a campaign.
type ComplianceReader interface {
	FetchBrandRegistration(ctx context.Context, sid string) (*BrandRegistration, error)
	FetchCustomerProfile(ctx context.Context, sid string) (*CustomerProfile, error)
	ListEndUsers(ctx context.Context) ([]EndUser, error)
	FetchEndUser(ctx context.Context, sid string) (*EndUser, error)
	ListEntityAssignments(ctx context.Context, customerProfileSID string) ([]EntityAssignment, error)
	FetchSupportingDocument(ctx context.Context, sid string) (*SupportingDocument, error)
	FetchAddress(ctx context.Context, sid string) (*Address, error)
}

// VerificationSubmitter files toll-free verification requests and returns the
// provider's verification SID.
type VerificationSubmitter interface {
	CreateTollFreeVerification(ctx context.Context, submission VerificationSubmission) (string, error)
}

// Provider is everything the migration needs from one provider account.
type Provider interface {
	AccountSID() string
	MessageLister
	NumberInventory
	MessagingServices
	ComplianceReader
	VerificationSubmitter
}
