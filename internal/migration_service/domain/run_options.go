package domain

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MessageVolumes are the monthly volume tiers accepted by toll-free verification.
var MessageVolumes = []string{
	"10", "100", "1,000", "10,000", "100,000", "250,000", "500,000",
	"750,000", "1,000,000", "5,000,000", "10,000,000+",
}

// OptInTypes are the consent collection methods accepted by toll-free verification.
var OptInTypes = []string{"VERBAL", "WEB_FORM", "PAPER_FORM", "VIA_TEXT", "MOBILE_QR_CODE"}

// UseCaseCategories are the use-case categories accepted by toll-free verification.
var UseCaseCategories = []string{
	"TWO_FACTOR_AUTHENTICATION",
	"ACCOUNT_NOTIFICATIONS",
	"CUSTOMER_CARE",
	"CHARITY_NONPROFIT",
	"DELIVERY_NOTIFICATIONS",
	"FRAUD_ALERT_MESSAGING",
	"EVENTS",
	"HIGHER_EDUCATION",
	"K12",
	"MARKETING",
	"POLLING_AND_VOTING_NON_POLITICAL",
	"POLITICAL_ELECTION_CAMPAIGNS",
	"PUBLIC_SERVICE_ANNOUNCEMENT",
	"SECURITY_ALERT",
}

// RunOptions is the operator's input for one run. It is immutable once validated.
type RunOptions struct {
	OnlyPending          bool
	MaxTollFreeNumbers   string `validate:"required"`
	ExclusionFilePath    string
	MonthlyMessageVolume string `validate:"required,message_volume"`
	OptInType            string `validate:"required,opt_in_type"`
	UseCaseCategory      string `validate:"required,use_case_category"`
	OptInImageURL        string `validate:"required,url"`
}

var runOptionsValidator = newRunOptionsValidator()

func newRunOptionsValidator() *validator.Validate {
	v := validator.New()
	mustRegisterOneOf(v, "message_volume", MessageVolumes)
	mustRegisterOneOf(v, "opt_in_type", OptInTypes)
	mustRegisterOneOf(v, "use_case_category", UseCaseCategories)
	return v
}

func mustRegisterOneOf(v *validator.Validate, tag string, allowed []string) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return slices.Contains(allowed, fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// Validate checks every field and reports all violations at once.
func (o RunOptions) Validate() error {
	err := runOptionsValidator.Struct(o)
	if err == nil {
		_, err = ParseMaxTollFree(o.MaxTollFreeNumbers)
		return err
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidRunOptions, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidRunOptions, strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "url":
		return fmt.Sprintf("%s %q is not a valid URL", fe.Field(), fe.Value())
	case "message_volume":
		return fmt.Sprintf("%s %q must be one of %s", fe.Field(), fe.Value(), strings.Join(MessageVolumes, ", "))
	case "opt_in_type":
		return fmt.Sprintf("%s %q must be one of %s", fe.Field(), fe.Value(), strings.Join(OptInTypes, ", "))
	case "use_case_category":
		return fmt.Sprintf("%s %q must be one of %s", fe.Field(), fe.Value(), strings.Join(UseCaseCategories, ", "))
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
