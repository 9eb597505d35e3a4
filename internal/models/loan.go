// internal/models/loan.go
package models

import "time"

// ApplicationStatus tracks an application through the back office.
type ApplicationStatus string

const (
	StatusSubmitted   ApplicationStatus = "submitted"
	StatusUnderReview ApplicationStatus = "under_review"
	StatusApproved    ApplicationStatus = "approved"
	StatusRejected    ApplicationStatus = "rejected"
)

// DocNotUploaded is the sentinel stored for a document slot the applicant
// never filled.
const DocNotUploaded = "NOT_UPLOADED"

// LoanApplication is a persisted loan application record.
type LoanApplication struct {
	ID                 string                 `json:"id" db:"id"`
	UserID             string                 `json:"userId" db:"user_id"`
	Amount             int64                  `json:"amount" db:"amount"`
	TenureMonths       int                    `json:"tenureMonths" db:"tenure_months"`
	InterestRate       float64                `json:"interestRate" db:"interest_rate"`
	Purpose            string                 `json:"purpose" db:"purpose"`
	EmploymentType     string                 `json:"employmentType" db:"employment_type"`
	EmploymentDetails  map[string]interface{} `json:"employmentDetails,omitempty" db:"employment_details"`
	ContactDetails     map[string]interface{} `json:"contactDetails,omitempty" db:"contact_details"`
	DocumentsSubmitted map[string]string      `json:"documents_submitted" db:"documents_submitted"`
	ConsentShare       bool                   `json:"consentShare" db:"consent_share"`
	ConsentCreditPull  bool                   `json:"consentCreditPull" db:"consent_credit_pull"`
	Status             ApplicationStatus      `json:"status" db:"status"`
	DecisionReason     string                 `json:"decisionReason,omitempty" db:"decision_reason"`
	ApprovedTerms      map[string]interface{} `json:"approvedTerms,omitempty" db:"approved_terms"`
	CreatedAt          time.Time              `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time              `json:"updatedAt" db:"updated_at"`
}

// IsDecided reports whether an admin has ruled on the application.
func (a *LoanApplication) IsDecided() bool {
	return a.Status == StatusApproved || a.Status == StatusRejected
}

// PartnerOffer is one of the offer cards shown on the final review step.
type PartnerOffer struct {
	Partner      string  `json:"partner"`
	InterestRate float64 `json:"interestRate"`
	MaxAmount    int64   `json:"maxAmount"`
	TenureMonths int     `json:"tenureMonths"`
	Tagline      string  `json:"tagline"`
}
