package domain

import "regexp"

// NumberType is the derived shape of a phone number string. It is never stored.
type NumberType int

const (
	// NumberTypeUnknown matches none of the recognized shapes and is never migrated.
	NumberTypeUnknown NumberType = iota
	NumberTypeTollFree
	NumberTypeLongCode
	NumberTypeShortCode
)

// String returns the string representation of the NumberType.
func (t NumberType) String() string {
	switch t {
	case NumberTypeTollFree:
		return "toll_free"
	case NumberTypeLongCode:
		return "long_code"
	case NumberTypeShortCode:
		return "short_code"
	default:
		return "unknown"
	}
}

var (
	tollFreeRegex  = regexp.MustCompile(`^(\+?1)?8(00|33|44|55|66|77|88)[2-9]\d{6}$`)
	longCodeRegex  = regexp.MustCompile(`^\+1\d{10}$`)
	shortCodeRegex = regexp.MustCompile(`^(\+?1)?\d{5,6}$`)
)

// PhoneNumberRecord is a number as returned by the provider, either bound to a
// messaging service or owned by the account.
type PhoneNumberRecord struct {
	SID         string `json:"sid"`
	PhoneNumber string `json:"phone_number"`
}

// Type classifies the record's phone number.
func (r PhoneNumberRecord) Type() NumberType {
	return Classify(r.PhoneNumber)
}

// IsTollFree reports whether s is a North American toll-free number with an
// optional "+1"/"1" prefix.
func IsTollFree(s string) bool {
	return tollFreeRegex.MatchString(s)
}

// IsLongCode reports whether s is "+1" followed by exactly ten digits.
func IsLongCode(s string) bool {
	return longCodeRegex.MatchString(s)
}

// IsShortCode reports whether s is a 5 or 6 digit short code with an optional
// "+1"/"1" prefix.
func IsShortCode(s string) bool {
	return shortCodeRegex.MatchString(s)
}

// Classify returns the single type of s. A "+1800..." string also has the raw
// long-code shape; toll-free takes precedence so no string ever has two types.
func Classify(s string) NumberType {
	switch {
	case IsTollFree(s):
		return NumberTypeTollFree
	case IsShortCode(s):
		return NumberTypeShortCode
	case IsLongCode(s):
		return NumberTypeLongCode
	default:
		return NumberTypeUnknown
	}
}

// GetLongCodeNumbers keeps the records that are long codes and satisfy neither
// the toll-free nor the short-code shape.
func GetLongCodeNumbers(records []PhoneNumberRecord) []PhoneNumberRecord {
	var longCodes []PhoneNumberRecord
	for _, r := range records {
		if IsLongCode(r.PhoneNumber) && !IsTollFree(r.PhoneNumber) && !IsShortCode(r.PhoneNumber) {
			longCodes = append(longCodes, r)
		}
	}
	return longCodes
}

// PartitionNumbers groups records by their classified type, preserving order.
func PartitionNumbers(records []PhoneNumberRecord) map[NumberType][]PhoneNumberRecord {
	partitions := make(map[NumberType][]PhoneNumberRecord)
	for _, r := range records {
		t := r.Type()
		partitions[t] = append(partitions[t], r)
	}
	return partitions
}
