// Package wizard implements the multi-step loan application: the form data
// model, the step state machine, and the income-verification sub-machine.
package wizard

import (
	"strconv"
)

// CustomSentinel marks that the free-form companion field is authoritative
// for tenure or rate instead of the enumerated pick.
const CustomSentinel = "custom"

// Principal slider bounds.
const (
	MinAmount = 10_000
	MaxAmount = 500_000
)

// TenureOptions are the enumerated tenure choices, in months.
var TenureOptions = []string{"12", "24", "36", "48", "60"}

// RateOptions are the enumerated annual interest rate choices, in percent.
var RateOptions = []string{"10.5", "11", "12", "13.5", "15"}

// PurposeOptions are the enumerated loan purposes.
var PurposeOptions = []string{
	"Personal",
	"Home Renovation",
	"Education",
	"Medical",
	"Business",
	"Debt Consolidation",
}

// Employment types.
const (
	EmploymentSalaried     = "Salaried"
	EmploymentSelfEmployed = "Self-Employed/Business"
	EmploymentStudent      = "Student"
	EmploymentOther        = "Other"
)

var EmploymentOptions = []string{
	EmploymentSalaried,
	EmploymentSelfEmployed,
	EmploymentStudent,
	EmploymentOther,
}

// FileMeta is the structural copy of a picked file. Only name/size/type are
// retained; raw bytes never enter the form state.
type FileMeta struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

// FormState is the flat record of all wizard fields across all steps. It is
// volatile: created with defaults when a wizard session opens, replaced
// wholesale on every mutation, discarded on successful submission.
type FormState struct {
	// Loan terms
	Amount       int64  `json:"amount"`
	Tenure       string `json:"tenure"`       // enumerated months or CustomSentinel
	CustomTenure string `json:"customTenure"` // authoritative iff Tenure == CustomSentinel
	Rate         string `json:"rate"`         // enumerated percent or CustomSentinel
	CustomRate   string `json:"customRate"`   // authoritative iff Rate == CustomSentinel
	Purpose      string `json:"purpose"`

	// Identity documents (metadata only)
	PanCard      *FileMeta `json:"panCard"`
	AadhaarFront *FileMeta `json:"aadhaarFront"`
	AadhaarBack  *FileMeta `json:"aadhaarBack"`

	// Employment
	EmploymentType  string    `json:"employmentType"`
	CompanyName     string    `json:"companyName"`
	Designation     string    `json:"designation"`
	BusinessName    string    `json:"businessName"`
	BusinessNature  string    `json:"businessNature"`
	YearsInBusiness string    `json:"yearsInBusiness"`
	SalarySlip      *FileMeta `json:"salarySlip"`

	// Location & contact
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2"`
	City         string `json:"city"`
	Pincode      string `json:"pincode"`
	Mobile       string `json:"mobile"`
	Email        string `json:"email"`
	BackupEmail  string `json:"backupEmail"`

	// Consents
	ConsentShare      bool `json:"consentShare"`
	ConsentCreditPull bool `json:"consentCreditPull"`
}

// NewFormState returns the fixed defaults every wizard session starts from.
func NewFormState() FormState {
	return FormState{
		Amount:         100_000,
		Tenure:         "24",
		Rate:           "12",
		Purpose:        "Personal",
		EmploymentType: EmploymentSalaried,
	}
}

// Clone returns a copy of the form state. File metadata is copied too so a
// mutation of the clone never aliases the original.
func (f FormState) Clone() FormState {
	out := f
	out.PanCard = cloneFile(f.PanCard)
	out.AadhaarFront = cloneFile(f.AadhaarFront)
	out.AadhaarBack = cloneFile(f.AadhaarBack)
	out.SalarySlip = cloneFile(f.SalarySlip)
	return out
}

func cloneFile(m *FileMeta) *FileMeta {
	if m == nil {
		return nil
	}
	cp := *m
	return &cp
}

// ResolveTenure collapses the tenure/custom-tenure duality into months.
// The second return is false when the authoritative value does not parse to
// a positive integer.
func (f FormState) ResolveTenure() (int, bool) {
	raw := f.Tenure
	if f.Tenure == CustomSentinel {
		raw = f.CustomTenure
	}
	months, err := strconv.Atoi(raw)
	if err != nil || months <= 0 {
		return 0, false
	}
	return months, true
}

// ResolveRate collapses the rate/custom-rate duality into an annual percent.
func (f FormState) ResolveRate() (float64, bool) {
	raw := f.Rate
	if f.Rate == CustomSentinel {
		raw = f.CustomRate
	}
	rate, err := strconv.ParseFloat(raw, 64)
	if err != nil || rate <= 0 {
		return 0, false
	}
	return rate, true
}

// DocumentName returns the stored file name for a document slot, or the
// NOT_UPLOADED sentinel when the slot was never filled.
func DocumentName(m *FileMeta) string {
	if m == nil || m.Name == "" {
		return "NOT_UPLOADED"
	}
	return m.Name
}
