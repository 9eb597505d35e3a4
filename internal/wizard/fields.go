// internal/wizard/fields.go
package wizard

import (
	"encoding/json"
	"fmt"
)

// FieldUpdate is a typed form mutation, one variant per field. Apply
// switches over the variants exhaustively, so adding a field without
// handling it is a compile-time hole rather than a silent typo the way an
// untyped key/value setter would be.
type FieldUpdate interface {
	isFieldUpdate()
}

type SetAmount struct{ Value int64 }
type SetTenure struct{ Value string }
type SetCustomTenure struct{ Value string }
type SetRate struct{ Value string }
type SetCustomRate struct{ Value string }
type SetPurpose struct{ Value string }

// File slots. A nil Value clears the slot; only metadata is stored.
type SetPanCard struct{ Value *FileMeta }
type SetAadhaarFront struct{ Value *FileMeta }
type SetAadhaarBack struct{ Value *FileMeta }
type SetSalarySlip struct{ Value *FileMeta }

type SetEmploymentType struct{ Value string }
type SetCompanyName struct{ Value string }
type SetDesignation struct{ Value string }
type SetBusinessName struct{ Value string }
type SetBusinessNature struct{ Value string }
type SetYearsInBusiness struct{ Value string }

type SetAddressLine1 struct{ Value string }
type SetAddressLine2 struct{ Value string }
type SetCity struct{ Value string }
type SetPincode struct{ Value string }
type SetMobile struct{ Value string }
type SetEmail struct{ Value string }
type SetBackupEmail struct{ Value string }

type SetConsentShare struct{ Value bool }
type SetConsentCreditPull struct{ Value bool }

func (SetAmount) isFieldUpdate()            {}
func (SetTenure) isFieldUpdate()            {}
func (SetCustomTenure) isFieldUpdate()      {}
func (SetRate) isFieldUpdate()              {}
func (SetCustomRate) isFieldUpdate()        {}
func (SetPurpose) isFieldUpdate()           {}
func (SetPanCard) isFieldUpdate()           {}
func (SetAadhaarFront) isFieldUpdate()      {}
func (SetAadhaarBack) isFieldUpdate()       {}
func (SetSalarySlip) isFieldUpdate()        {}
func (SetEmploymentType) isFieldUpdate()    {}
func (SetCompanyName) isFieldUpdate()       {}
func (SetDesignation) isFieldUpdate()       {}
func (SetBusinessName) isFieldUpdate()      {}
func (SetBusinessNature) isFieldUpdate()    {}
func (SetYearsInBusiness) isFieldUpdate()   {}
func (SetAddressLine1) isFieldUpdate()      {}
func (SetAddressLine2) isFieldUpdate()      {}
func (SetCity) isFieldUpdate()              {}
func (SetPincode) isFieldUpdate()           {}
func (SetMobile) isFieldUpdate()            {}
func (SetEmail) isFieldUpdate()             {}
func (SetBackupEmail) isFieldUpdate()       {}
func (SetConsentShare) isFieldUpdate()      {}
func (SetConsentCreditPull) isFieldUpdate() {}

// Apply returns a fresh form state with the update applied. The input is
// never mutated.
func Apply(f FormState, upd FieldUpdate) FormState {
	out := f.Clone()
	switch u := upd.(type) {
	case SetAmount:
		out.Amount = u.Value
	case SetTenure:
		out.Tenure = u.Value
	case SetCustomTenure:
		out.CustomTenure = u.Value
	case SetRate:
		out.Rate = u.Value
	case SetCustomRate:
		out.CustomRate = u.Value
	case SetPurpose:
		out.Purpose = u.Value
	case SetPanCard:
		out.PanCard = cloneFile(u.Value)
	case SetAadhaarFront:
		out.AadhaarFront = cloneFile(u.Value)
	case SetAadhaarBack:
		out.AadhaarBack = cloneFile(u.Value)
	case SetSalarySlip:
		out.SalarySlip = cloneFile(u.Value)
	case SetEmploymentType:
		out.EmploymentType = u.Value
	case SetCompanyName:
		out.CompanyName = u.Value
	case SetDesignation:
		out.Designation = u.Value
	case SetBusinessName:
		out.BusinessName = u.Value
	case SetBusinessNature:
		out.BusinessNature = u.Value
	case SetYearsInBusiness:
		out.YearsInBusiness = u.Value
	case SetAddressLine1:
		out.AddressLine1 = u.Value
	case SetAddressLine2:
		out.AddressLine2 = u.Value
	case SetCity:
		out.City = u.Value
	case SetPincode:
		out.Pincode = u.Value
	case SetMobile:
		out.Mobile = u.Value
	case SetEmail:
		out.Email = u.Value
	case SetBackupEmail:
		out.BackupEmail = u.Value
	case SetConsentShare:
		out.ConsentShare = u.Value
	case SetConsentCreditPull:
		out.ConsentCreditPull = u.Value
	}
	return out
}

// ParseFieldUpdate maps a wire-level (field, value) pair to its typed
// variant. Unknown fields are rejected rather than silently merged.
func ParseFieldUpdate(field string, value json.RawMessage) (FieldUpdate, error) {
	switch field {
	case "amount":
		var v int64
		if err := json.Unmarshal(value, &v); err != nil {
			return nil, fmt.Errorf("field %s: %w", field, err)
		}
		return SetAmount{v}, nil
	case "consentShare", "consentCreditPull":
		var v bool
		if err := json.Unmarshal(value, &v); err != nil {
			return nil, fmt.Errorf("field %s: %w", field, err)
		}
		if field == "consentShare" {
			return SetConsentShare{v}, nil
		}
		return SetConsentCreditPull{v}, nil
	case "panCard", "aadhaarFront", "aadhaarBack", "salarySlip":
		var v *FileMeta
		if err := json.Unmarshal(value, &v); err != nil {
			return nil, fmt.Errorf("field %s: %w", field, err)
		}
		switch field {
		case "panCard":
			return SetPanCard{v}, nil
		case "aadhaarFront":
			return SetAadhaarFront{v}, nil
		case "aadhaarBack":
			return SetAadhaarBack{v}, nil
		default:
			return SetSalarySlip{v}, nil
		}
	}

	var v string
	if err := json.Unmarshal(value, &v); err != nil {
		return nil, fmt.Errorf("field %s: %w", field, err)
	}

	switch field {
	case "tenure":
		return SetTenure{v}, nil
	case "customTenure":
		return SetCustomTenure{v}, nil
	case "rate":
		return SetRate{v}, nil
	case "customRate":
		return SetCustomRate{v}, nil
	case "purpose":
		return SetPurpose{v}, nil
	case "employmentType":
		return SetEmploymentType{v}, nil
	case "companyName":
		return SetCompanyName{v}, nil
	case "designation":
		return SetDesignation{v}, nil
	case "businessName":
		return SetBusinessName{v}, nil
	case "businessNature":
		return SetBusinessNature{v}, nil
	case "yearsInBusiness":
		return SetYearsInBusiness{v}, nil
	case "addressLine1":
		return SetAddressLine1{v}, nil
	case "addressLine2":
		return SetAddressLine2{v}, nil
	case "city":
		return SetCity{v}, nil
	case "pincode":
		return SetPincode{v}, nil
	case "mobile":
		return SetMobile{v}, nil
	case "email":
		return SetEmail{v}, nil
	case "backupEmail":
		return SetBackupEmail{v}, nil
	}

	return nil, fmt.Errorf("unknown form field %q", field)
}
