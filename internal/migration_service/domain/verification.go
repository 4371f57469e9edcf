package domain

import "strings"

// End-user types read from the trust hub when filing a verification.
const (
	EndUserTypeBusinessInformation       = "customer_profile_business_information"
	EndUserTypeAuthorizedRepresentative1 = "authorized_representative_1"
)

// supportingDocumentSIDPrefix marks entity assignments that point at a
// regulatory supporting document.
const supportingDocumentSIDPrefix = "RD"

// BrandRegistration links a campaign to the customer profile it was filed under.
type BrandRegistration struct {
	SID                      string `json:"sid"`
	CustomerProfileBundleSID string `json:"customer_profile_bundle_sid"`
	A2PProfileBundleSID      string `json:"a2p_profile_bundle_sid"`
	Status                   string `json:"status"`
}

// CustomerProfile is the trust hub bundle describing the business.
type CustomerProfile struct {
	SID          string `json:"sid"`
	FriendlyName string `json:"friendly_name"`
	Email        string `json:"email"`
	Status       string `json:"status"`
}

// EndUser is a trust hub end-user record. Attributes are provider-defined.
type EndUser struct {
	SID        string         `json:"sid"`
	Type       string         `json:"type"`
	Attributes map[string]any `json:"attributes"`
}

// Attribute returns the string attribute key, or "".
func (u EndUser) Attribute(key string) string {
	if v, ok := u.Attributes[key].(string); ok {
		return v
	}
	return ""
}

// IsVerificationSource reports whether the end user carries data used in a
// toll-free verification.
func (u EndUser) IsVerificationSource() bool {
	return u.Type == EndUserTypeBusinessInformation || u.Type == EndUserTypeAuthorizedRepresentative1
}

// EntityAssignment binds an object (end user, document) to a customer profile.
type EntityAssignment struct {
	SID       string `json:"sid"`
	ObjectSID string `json:"object_sid"`
}

// IsSupportingDocument reports whether the assignment references a regulatory
// supporting document.
func (a EntityAssignment) IsSupportingDocument() bool {
	return strings.HasPrefix(a.ObjectSID, supportingDocumentSIDPrefix)
}

// SupportingDocument is a regulatory document; only its address references are
// used here.
type SupportingDocument struct {
	SID         string   `json:"sid"`
	Type        string   `json:"type"`
	AddressSIDs []string `json:"address_sids"`
}

// Address is a provider address record.
type Address struct {
	SID        string `json:"sid"`
	Street     string `json:"street"`
	City       string `json:"city"`
	Region     string `json:"region"`
	PostalCode string `json:"postal_code"`
	IsoCountry string `json:"iso_country"`
}

// BusinessInformation is taken from the business-information end user and the
// customer profile.
type BusinessInformation struct {
	BusinessName string
	WebsiteURL   string
	Email        string
}

// AuthorizedRepresentative is taken from the authorized_representative_1 end user.
type AuthorizedRepresentative struct {
	FirstName     string
	LastName      string
	BusinessTitle string
	PhoneNumber   string
}

// VerificationRecord is everything fetched for one campaign before submission.
type VerificationRecord struct {
	Campaign       Campaign
	Business       BusinessInformation
	Representative AuthorizedRepresentative
	Address        Address
}

// VerificationSubmission is the write-only toll-free verification request.
type VerificationSubmission struct {
	TollFreePhoneNumberSID  string
	BusinessName            string
	BusinessWebsite         string
	NotificationEmail       string
	UseCaseCategories       []string
	UseCaseSummary          string
	ProductionMessageSample string
	OptInImageURLs          []string
	OptInType               string
	MessageVolume           string
	BusinessStreetAddress   string
	BusinessCity            string
	BusinessStateProvince   string
	BusinessPostalCode      string
	BusinessCountry         string
	ContactFirstName        string
	ContactLastName         string
	ContactEmail            string
	ContactPhone            string
}
