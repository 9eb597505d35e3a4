// internal/wizard/steps.go
package wizard

import "regexp"

// Step enumerates the wizard screens in order.
type Step int

const (
	StepLoanExplorer Step = iota // 0
	StepIdentityCheck
	StepEmploymentProfiler
	StepLocationContact
	StepFinalReview
)

const StepCount = 5

// StepLabels returns the labels shown in the step indicator.
func StepLabels() []string {
	return []string{
		"Loan Explorer",
		"Identity Check",
		"Employment Profiler",
		"Location & Contact",
		"Final Review",
	}
}

func (s Step) String() string {
	labels := StepLabels()
	if s < 0 || int(s) >= len(labels) {
		return "unknown"
	}
	return labels[s]
}

var (
	// Custom tenure: digits only, at most 3 characters.
	customTenureRe = regexp.MustCompile(`^\d{1,3}$`)
	// Custom rate: digits with at most one '.', at most 5 characters total.
	// A trailing dot ("12.") is a valid in-progress entry.
	customRateRe = regexp.MustCompile(`^\d{1,4}\.?\d{0,3}$`)

	pincodeRe = regexp.MustCompile(`^\d{6}$`)
	mobileRe  = regexp.MustCompile(`^\d{10}$`)
)

// ValidCustomTenure reports whether a free-form tenure entry is acceptable.
func ValidCustomTenure(v string) bool {
	return len(v) <= 3 && customTenureRe.MatchString(v)
}

// ValidCustomRate reports whether a free-form rate entry is acceptable.
func ValidCustomRate(v string) bool {
	return len(v) <= 5 && customRateRe.MatchString(v)
}

// VisibleEmploymentFields lists the conditional fields revealed for an
// employment type, in display order.
func VisibleEmploymentFields(employmentType string) []string {
	switch employmentType {
	case EmploymentSalaried:
		return []string{"companyName", "designation"}
	case EmploymentSelfEmployed:
		return []string{"businessName", "businessNature", "yearsInBusiness"}
	default:
		return nil
	}
}

// CanAdvance is a pure predicate over the step's slice of the form state.
// Next and JumpToStep are unconditional by default, matching the original;
// the controller consults these only in strict mode.
func (s Step) CanAdvance(f FormState) bool {
	switch s {
	case StepLoanExplorer:
		if f.Amount < MinAmount || f.Amount > MaxAmount {
			return false
		}
		if f.Tenure == CustomSentinel && !ValidCustomTenure(f.CustomTenure) {
			return false
		}
		if f.Rate == CustomSentinel && !ValidCustomRate(f.CustomRate) {
			return false
		}
		return f.Purpose != ""
	case StepIdentityCheck:
		// The original never gates on document presence; the accept
		// attribute is advisory only.
		return true
	case StepEmploymentProfiler:
		if f.EmploymentType == "" {
			return false
		}
		switch f.EmploymentType {
		case EmploymentSalaried:
			return f.CompanyName != "" && f.Designation != ""
		case EmploymentSelfEmployed:
			return f.BusinessName != "" && f.BusinessNature != ""
		}
		return true
	case StepLocationContact:
		if f.AddressLine1 == "" {
			return false
		}
		if f.Pincode != "" && !pincodeRe.MatchString(f.Pincode) {
			return false
		}
		return f.Mobile == "" || mobileRe.MatchString(f.Mobile)
	case StepFinalReview:
		return f.ConsentShare
	}
	return false
}

// CanSubmit reports whether the submit control on the final review step is
// enabled: the share consent alone gates it.
func CanSubmit(f FormState) bool {
	return f.ConsentShare
}
