package domain

// SubAccount is a child account of the operating (parent) account.
type SubAccount struct {
	SID          string `json:"sid"`
	FriendlyName string `json:"friendly_name"`
	Status       string `json:"status"`
	AuthToken    string `json:"auth_token"`
}

// HasCredentials reports whether the sub-account can be operated on.
func (s SubAccount) HasCredentials() bool {
	return s.AuthToken != ""
}

// MessagingService is a provider-side sender pool owned by a sub-account.
type MessagingService struct {
	SID          string `json:"sid"`
	FriendlyName string `json:"friendly_name"`
}

// ExclusionSet holds sub-account SIDs that must not be processed. It is loaded
// once at startup and only read afterwards.
type ExclusionSet map[string]struct{}

// NewExclusionSet builds a set from the given SIDs.
func NewExclusionSet(sids ...string) ExclusionSet {
	set := make(ExclusionSet, len(sids))
	for _, sid := range sids {
		set[sid] = struct{}{}
	}
	return set
}

// Contains reports whether sid is excluded. A nil set excludes nothing.
func (s ExclusionSet) Contains(sid string) bool {
	_, ok := s[sid]
	return ok
}
