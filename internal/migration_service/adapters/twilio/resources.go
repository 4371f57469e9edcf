package twilio

import (
	"context"
	"time"

	api "github.com/twilio/twilio-go/rest/api/v2010"
	messaging "github.com/twilio/twilio-go/rest/messaging/v1"
	numbers "github.com/twilio/twilio-go/rest/numbers/v2"
	trusthub "github.com/twilio/twilio-go/rest/trusthub/v1"

	"github.com/aradsms/tollfree_migrator/internal/migration_service/domain"
)

const pageSize = 1000

// ListSubaccounts lists accounts visible to the parent account with the given status.
func (c *Client) ListSubaccounts(ctx context.Context, status string) ([]domain.SubAccount, error) {
	params := &api.ListAccountParams{}
	params.SetPageSize(pageSize)
	if status != "" {
		params.SetStatus(status)
	}
	accounts, err := call(ctx, c, "list_accounts", func() ([]api.ApiV2010Account, error) {
		return c.rest.Api.ListAccount(params)
	})
	if err != nil {
		return nil, err
	}
	subaccounts := make([]domain.SubAccount, 0, len(accounts))
	for _, a := range accounts {
		subaccounts = append(subaccounts, domain.SubAccount{
			SID:          str(a.Sid),
			FriendlyName: str(a.FriendlyName),
			Status:       str(a.Status),
			AuthToken:    str(a.AuthToken),
		})
	}
	return subaccounts, nil
}

// ListMessages lists outbound messages matching filter.
func (c *Client) ListMessages(ctx context.Context, filter domain.MessageFilter) ([]domain.Message, error) {
	params := &api.ListMessageParams{}
	params.SetPageSize(pageSize)
	if filter.From != "" {
		params.SetFrom(filter.From)
	}
	if !filter.DateSentAfter.IsZero() {
		// The provider filters by calendar day, on or after.
		params.SetDateSentAfter(filter.DateSentAfter.UTC().Truncate(24 * time.Hour))
	}
	resources, err := call(ctx, c, "list_messages", func() ([]api.ApiV2010Message, error) {
		return c.rest.Api.ListMessage(params)
	})
	if err != nil {
		return nil, err
	}
	messages := make([]domain.Message, 0, len(resources))
	for _, m := range resources {
		msg := domain.Message{SID: str(m.Sid), From: str(m.From), To: str(m.To), Status: str(m.Status)}
		if m.ErrorCode != nil {
			msg.ErrorCode = *m.ErrorCode
		}
		if m.DateSent != nil {
			if t, err := time.Parse(time.RFC1123Z, *m.DateSent); err == nil {
				msg.DateSent = t.UTC()
			}
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// ListIncomingPhoneNumbers lists every number the account owns.
func (c *Client) ListIncomingPhoneNumbers(ctx context.Context) ([]domain.PhoneNumberRecord, error) {
	params := &api.ListIncomingPhoneNumberParams{}
	params.SetPageSize(pageSize)
	owned, err := call(ctx, c, "list_incoming_phone_numbers", func() ([]api.ApiV2010IncomingPhoneNumber, error) {
		return c.rest.Api.ListIncomingPhoneNumber(params)
	})
	if err != nil {
		return nil, err
	}
	records := make([]domain.PhoneNumberRecord, 0, len(owned))
	for _, n := range owned {
		records = append(records, domain.PhoneNumberRecord{SID: str(n.Sid), PhoneNumber: str(n.PhoneNumber)})
	}
	return records, nil
}

// SearchAvailableTollFree returns up to limit toll-free numbers that can be bought.
func (c *Client) SearchAvailableTollFree(ctx context.Context, country string, limit int) ([]string, error) {
	params := &api.ListAvailablePhoneNumberTollFreeParams{}
	params.SetPageSize(limit)
	params.SetLimit(limit)
	available, err := call(ctx, c, "search_available_tollfree", func() ([]api.ApiV2010AvailablePhoneNumberTollFree, error) {
		return c.rest.Api.ListAvailablePhoneNumberTollFree(country, params)
	})
	if err != nil {
		return nil, err
	}
	found := make([]string, 0, len(available))
	for _, n := range available {
		found = append(found, str(n.PhoneNumber))
	}
	return found, nil
}

// PurchasePhoneNumber buys phoneNumber for the account.
func (c *Client) PurchasePhoneNumber(ctx context.Context, phoneNumber string) (*domain.PhoneNumberRecord, error) {
	params := &api.CreateIncomingPhoneNumberParams{}
	params.SetPhoneNumber(phoneNumber)
	purchased, err := call(ctx, c, "purchase_phone_number", func() (*api.ApiV2010IncomingPhoneNumber, error) {
		return c.rest.Api.CreateIncomingPhoneNumber(params)
	})
	if err != nil {
		return nil, err
	}
	return &domain.PhoneNumberRecord{SID: str(purchased.Sid), PhoneNumber: str(purchased.PhoneNumber)}, nil
}

// ListMessagingServices lists the account's messaging services.
func (c *Client) ListMessagingServices(ctx context.Context) ([]domain.MessagingService, error) {
	params := &messaging.ListServiceParams{}
	params.SetPageSize(pageSize)
	services, err := call(ctx, c, "list_messaging_services", func() ([]messaging.MessagingV1Service, error) {
		return c.rest.MessagingV1.ListService(params)
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.MessagingService, 0, len(services))
	for _, s := range services {
		out = append(out, domain.MessagingService{SID: str(s.Sid), FriendlyName: str(s.FriendlyName)})
	}
	return out, nil
}

// ListServicePhoneNumbers lists the numbers in a messaging service's sender pool.
func (c *Client) ListServicePhoneNumbers(ctx context.Context, serviceSID string) ([]domain.PhoneNumberRecord, error) {
	params := &messaging.ListPhoneNumberParams{}
	params.SetPageSize(pageSize)
	pooled, err := call(ctx, c, "list_service_phone_numbers", func() ([]messaging.MessagingV1PhoneNumber, error) {
		return c.rest.MessagingV1.ListPhoneNumber(serviceSID, params)
	})
	if err != nil {
		return nil, err
	}
	records := make([]domain.PhoneNumberRecord, 0, len(pooled))
	for _, n := range pooled {
		records = append(records, domain.PhoneNumberRecord{SID: str(n.Sid), PhoneNumber: str(n.PhoneNumber)})
	}
	return records, nil
}

// AddServicePhoneNumber adds an owned number to a messaging service.
func (c *Client) AddServicePhoneNumber(ctx context.Context, serviceSID, phoneNumberSID string) error {
	params := &messaging.CreatePhoneNumberParams{}
	params.SetPhoneNumberSid(phoneNumberSID)
	_, err := call(ctx, c, "add_service_phone_number", func() (*messaging.MessagingV1PhoneNumber, error) {
		return c.rest.MessagingV1.CreatePhoneNumber(serviceSID, params)
	})
	return err
}

// RemoveServicePhoneNumber removes a number from a messaging service. The
// number stays owned by the account.
func (c *Client) RemoveServicePhoneNumber(ctx context.Context, serviceSID, phoneNumberSID string) error {
	_, err := call(ctx, c, "remove_service_phone_number", func() (struct{}, error) {
		return struct{}{}, c.rest.MessagingV1.DeletePhoneNumber(serviceSID, phoneNumberSID)
	})
	return err
}

// ListCampaigns lists the US A2P campaigns of a messaging service.
func (c *Client) ListCampaigns(ctx context.Context, serviceSID string) ([]domain.Campaign, error) {
	params := &messaging.ListUsAppToPersonParams{}
	params.SetPageSize(pageSize)
	compliance, err := call(ctx, c, "list_campaigns", func() ([]messaging.MessagingV1UsAppToPerson, error) {
		return c.rest.MessagingV1.ListUsAppToPerson(serviceSID, params)
	})
	if err != nil {
		return nil, err
	}
	campaigns := make([]domain.Campaign, 0, len(compliance))
	for _, a := range compliance {
		campaigns = append(campaigns, domain.Campaign{
			SID:                  str(a.Sid),
			AccountSID:           str(a.AccountSid),
			Status:               domain.CampaignStatus(str(a.CampaignStatus)),
			BrandRegistrationSID: str(a.BrandRegistrationSid),
			MessagingServiceSID:  str(a.MessagingServiceSid),
			Description:          str(a.Description),
			UseCase:              str(a.UsAppToPersonUsecase),
			MessageSamples:       strs(a.MessageSamples),
			MessageFlow:          str(a.MessageFlow),
			HasEmbeddedLinks:     boolean(a.HasEmbeddedLinks),
			HasEmbeddedPhone:     boolean(a.HasEmbeddedPhone),
			OptInMessage:         str(a.OptInMessage),
			OptOutMessage:        str(a.OptOutMessage),
			HelpMessage:          str(a.HelpMessage),
			OptInKeywords:        strs(a.OptInKeywords),
			OptOutKeywords:       strs(a.OptOutKeywords),
			HelpKeywords:         strs(a.HelpKeywords),
		})
	}
	return campaigns, nil
}

// FetchBrandRegistration fetches an A2P brand registration.
func (c *Client) FetchBrandRegistration(ctx context.Context, sid string) (*domain.BrandRegistration, error) {
	brand, err := call(ctx, c, "fetch_brand_registration", func() (*messaging.MessagingV1BrandRegistrations, error) {
		return c.rest.MessagingV1.FetchBrandRegistrations(sid)
	})
	if err != nil {
		return nil, err
	}
	return &domain.BrandRegistration{
		SID:                      str(brand.Sid),
		CustomerProfileBundleSID: str(brand.CustomerProfileBundleSid),
		A2PProfileBundleSID:      str(brand.A2pProfileBundleSid),
		Status:                   str(brand.Status),
	}, nil
}

// FetchCustomerProfile fetches a trust hub customer profile.
func (c *Client) FetchCustomerProfile(ctx context.Context, sid string) (*domain.CustomerProfile, error) {
	profile, err := call(ctx, c, "fetch_customer_profile", func() (*trusthub.TrusthubV1CustomerProfile, error) {
		return c.rest.TrusthubV1.FetchCustomerProfile(sid)
	})
	if err != nil {
		return nil, err
	}
	return &domain.CustomerProfile{
		SID:          str(profile.Sid),
		FriendlyName: str(profile.FriendlyName),
		Email:        str(profile.Email),
		Status:       str(profile.Status),
	}, nil
}

// ListEndUsers lists the account's trust hub end users.
func (c *Client) ListEndUsers(ctx context.Context) ([]domain.EndUser, error) {
	params := &trusthub.ListEndUserParams{}
	params.SetPageSize(pageSize)
	listed, err := call(ctx, c, "list_end_users", func() ([]trusthub.TrusthubV1EndUser, error) {
		return c.rest.TrusthubV1.ListEndUser(params)
	})
	if err != nil {
		return nil, err
	}
	endUsers := make([]domain.EndUser, 0, len(listed))
	for _, u := range listed {
		endUsers = append(endUsers, domain.EndUser{SID: str(u.Sid), Type: str(u.Type), Attributes: attributes(u.Attributes)})
	}
	return endUsers, nil
}

// FetchEndUser fetches one trust hub end user with its attributes.
func (c *Client) FetchEndUser(ctx context.Context, sid string) (*domain.EndUser, error) {
	u, err := call(ctx, c, "fetch_end_user", func() (*trusthub.TrusthubV1EndUser, error) {
		return c.rest.TrusthubV1.FetchEndUser(sid)
	})
	if err != nil {
		return nil, err
	}
	return &domain.EndUser{SID: str(u.Sid), Type: str(u.Type), Attributes: attributes(u.Attributes)}, nil
}

// ListEntityAssignments lists the objects assigned to a customer profile.
func (c *Client) ListEntityAssignments(ctx context.Context, customerProfileSID string) ([]domain.EntityAssignment, error) {
	params := &trusthub.ListCustomerProfileEntityAssignmentParams{}
	params.SetPageSize(pageSize)
	listed, err := call(ctx, c, "list_entity_assignments", func() ([]trusthub.TrusthubV1CustomerProfileEntityAssignment, error) {
		return c.rest.TrusthubV1.ListCustomerProfileEntityAssignment(customerProfileSID, params)
	})
	if err != nil {
		return nil, err
	}
	assignments := make([]domain.EntityAssignment, 0, len(listed))
	for _, a := range listed {
		assignments = append(assignments, domain.EntityAssignment{SID: str(a.Sid), ObjectSID: str(a.ObjectSid)})
	}
	return assignments, nil
}

// FetchSupportingDocument fetches a regulatory supporting document.
func (c *Client) FetchSupportingDocument(ctx context.Context, sid string) (*domain.SupportingDocument, error) {
	doc, err := call(ctx, c, "fetch_supporting_document", func() (*numbers.NumbersV2SupportingDocument, error) {
		return c.rest.NumbersV2.FetchSupportingDocument(sid)
	})
	if err != nil {
		return nil, err
	}
	document := &domain.SupportingDocument{SID: str(doc.Sid), Type: str(doc.Type)}
	if raw, ok := attributes(doc.Attributes)["address_sids"].([]interface{}); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok {
				document.AddressSIDs = append(document.AddressSIDs, s)
			}
		}
	}
	return document, nil
}

// FetchAddress fetches one of the account's addresses.
func (c *Client) FetchAddress(ctx context.Context, sid string) (*domain.Address, error) {
	a, err := call(ctx, c, "fetch_address", func() (*api.ApiV2010Address, error) {
		return c.rest.Api.FetchAddress(sid, &api.FetchAddressParams{})
	})
	if err != nil {
		return nil, err
	}
	return &domain.Address{
		SID:        str(a.Sid),
		Street:     str(a.Street),
		City:       str(a.City),
		Region:     str(a.Region),
		PostalCode: str(a.PostalCode),
		IsoCountry: str(a.IsoCountry),
	}, nil
}

// CreateTollFreeVerification files a toll-free verification and returns its SID.
// Empty fields are left out of the request.
func (c *Client) CreateTollFreeVerification(ctx context.Context, s domain.VerificationSubmission) (string, error) {
	params := &messaging.CreateTollfreeVerificationParams{}
	setIf := func(value string, set func(string) *messaging.CreateTollfreeVerificationParams) {
		if value != "" {
			set(value)
		}
	}
	setIf(s.TollFreePhoneNumberSID, params.SetTollfreePhoneNumberSid)
	setIf(s.BusinessName, params.SetBusinessName)
	setIf(s.BusinessWebsite, params.SetBusinessWebsite)
	setIf(s.NotificationEmail, params.SetNotificationEmail)
	setIf(s.UseCaseSummary, params.SetUseCaseSummary)
	setIf(s.ProductionMessageSample, params.SetProductionMessageSample)
	setIf(s.OptInType, params.SetOptInType)
	setIf(s.MessageVolume, params.SetMessageVolume)
	setIf(s.BusinessStreetAddress, params.SetBusinessStreetAddress)
	setIf(s.BusinessCity, params.SetBusinessCity)
	setIf(s.BusinessStateProvince, params.SetBusinessStateProvinceRegion)
	setIf(s.BusinessPostalCode, params.SetBusinessPostalCode)
	setIf(s.BusinessCountry, params.SetBusinessCountry)
	setIf(s.ContactFirstName, params.SetBusinessContactFirstName)
	setIf(s.ContactLastName, params.SetBusinessContactLastName)
	setIf(s.ContactEmail, params.SetBusinessContactEmail)
	setIf(s.ContactPhone, params.SetBusinessContactPhone)
	if len(s.UseCaseCategories) > 0 {
		params.SetUseCaseCategories(s.UseCaseCategories)
	}
	if len(s.OptInImageURLs) > 0 {
		params.SetOptInImageUrls(s.OptInImageURLs)
	}

	verification, err := call(ctx, c, "create_tollfree_verification", func() (*messaging.MessagingV1TollfreeVerification, error) {
		return c.rest.MessagingV1.CreateTollfreeVerification(params)
	})
	if err != nil {
		return "", err
	}
	return str(verification.Sid), nil
}
