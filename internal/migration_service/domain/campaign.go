package domain

// CampaignStatus is the provider-reported state of an A2P compliance campaign.
type CampaignStatus string

const (
	CampaignStatusInProgress CampaignStatus = "IN_PROGRESS"
	CampaignStatusSuccess    CampaignStatus = "SUCCESS"
	CampaignStatusFailed     CampaignStatus = "FAILED"
)

// Campaign is a US A2P compliance campaign attached to a messaging service.
type Campaign struct {
	SID                  string         `json:"sid"`
	AccountSID           string         `json:"account_sid"`
	Status               CampaignStatus `json:"campaign_status"`
	BrandRegistrationSID string         `json:"brand_registration_sid"`
	MessagingServiceSID  string         `json:"messaging_service_sid"`
	Description          string         `json:"description"`
	UseCase              string         `json:"us_app_to_person_usecase"`
	MessageSamples       []string       `json:"message_samples"`
	MessageFlow          string         `json:"message_flow"`
	HasEmbeddedLinks     bool           `json:"has_embedded_links"`
	HasEmbeddedPhone     bool           `json:"has_embedded_phone"`
	OptInMessage         string         `json:"opt_in_message"`
	OptOutMessage        string         `json:"opt_out_message"`
	HelpMessage          string         `json:"help_message"`
	OptInKeywords        []string       `json:"opt_in_keywords"`
	OptOutKeywords       []string       `json:"opt_out_keywords"`
	HelpKeywords         []string       `json:"help_keywords"`
}

// FirstMessageSample returns the first production message sample, or "" when
// the campaign has none.
func (c Campaign) FirstMessageSample() string {
	if len(c.MessageSamples) == 0 {
		return ""
	}
	return c.MessageSamples[0]
}

// EligibilityKind is the outcome of evaluating a service's campaigns.
type EligibilityKind int

const (
	// EligibilityIneligible means the service must not be touched.
	EligibilityIneligible EligibilityKind = iota
	// EligibilityWithCampaign means numbers may be swapped and a toll-free
	// verification can be filed from the selected campaign.
	EligibilityWithCampaign
	// EligibilityNoCampaign means numbers may be swapped but no verification
	// can be filed.
	EligibilityNoCampaign
)

// String returns the string representation of the EligibilityKind.
func (k EligibilityKind) String() string {
	switch k {
	case EligibilityWithCampaign:
		return "eligible_with_campaign"
	case EligibilityNoCampaign:
		return "eligible_no_campaign"
	default:
		return "ineligible"
	}
}

// Eligibility is the decision for one messaging service.
type Eligibility struct {
	Kind     EligibilityKind
	Campaign *Campaign // set only for EligibilityWithCampaign
	Reason   string
}

// Proceed reports whether the service's numbers may be evaluated for migration.
func (e Eligibility) Proceed() bool {
	return e.Kind != EligibilityIneligible
}

// ResolveEligibility decides whether a service may be migrated.
//
// A SUCCESS campaign anywhere in the list makes the service ineligible. Otherwise
// the last IN_PROGRESS campaign is selected. A service without campaigns is only
// a candidate when onlyPending is set. A service whose campaigns are all in some
// other state (e.g. FAILED) is a candidate without a campaign.
func ResolveEligibility(campaigns []Campaign, onlyPending bool) Eligibility {
	if len(campaigns) == 0 {
		if onlyPending {
			return Eligibility{Kind: EligibilityNoCampaign, Reason: "no campaigns, pending-only mode"}
		}
		return Eligibility{Kind: EligibilityIneligible, Reason: "no campaigns"}
	}

	var selected *Campaign
	for i := range campaigns {
		switch campaigns[i].Status {
		case CampaignStatusSuccess:
			return Eligibility{Kind: EligibilityIneligible, Reason: "campaign " + campaigns[i].SID + " already verified"}
		case CampaignStatusInProgress:
			c := campaigns[i]
			selected = &c
		}
	}

	if selected != nil {
		return Eligibility{Kind: EligibilityWithCampaign, Campaign: selected, Reason: "campaign " + selected.SID + " in progress"}
	}
	return Eligibility{Kind: EligibilityNoCampaign, Reason: "no in-progress or verified campaign"}
}
