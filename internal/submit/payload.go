// internal/submit/payload.go
package submit

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"loanbridge/internal/common/errors"
	"loanbridge/internal/wizard"
)

// BuildPayload transforms a form state into the origination API payload.
// File metadata is stripped: each document slot transmits only the stored
// file name, or the NOT_UPLOADED sentinel, under documents_submitted. The
// tenure/rate custom-vs-fixed duality is resolved to concrete numbers here;
// a non-resolvable amount or tenure blocks the submission locally.
func BuildPayload(f wizard.FormState) (map[string]interface{}, error) {
	if f.Amount <= 0 {
		return nil, errors.NewSubmissionBlockedError("loan amount", "requested amount must be a positive number")
	}

	months, ok := f.ResolveTenure()
	if !ok {
		return nil, errors.NewSubmissionBlockedError("tenure", "tenure must resolve to a positive whole number of months")
	}

	rate, ok := f.ResolveRate()
	if !ok {
		return nil, errors.NewSubmissionBlockedError("interest rate", "interest rate must resolve to a positive number")
	}

	payload := map[string]interface{}{
		"amount":        f.Amount,
		"tenure_months": months,
		"interest_rate": rate,
		"purpose":       f.Purpose,
		"employment": map[string]interface{}{
			"type":              f.EmploymentType,
			"company_name":      f.CompanyName,
			"designation":       f.Designation,
			"business_name":     f.BusinessName,
			"business_nature":   f.BusinessNature,
			"years_in_business": f.YearsInBusiness,
		},
		"contact": map[string]interface{}{
			"address_line1": f.AddressLine1,
			"address_line2": f.AddressLine2,
			"city":          f.City,
			"pincode":       f.Pincode,
			"mobile":        f.Mobile,
			"email":         f.Email,
			"backup_email":  f.BackupEmail,
		},
		"documents_submitted": map[string]interface{}{
			"pan_card":      wizard.DocumentName(f.PanCard),
			"aadhaar_front": wizard.DocumentName(f.AadhaarFront),
			"aadhaar_back":  wizard.DocumentName(f.AadhaarBack),
			"salary_slip":   wizard.DocumentName(f.SalarySlip),
		},
		"consent_share":       f.ConsentShare,
		"consent_credit_pull": f.ConsentCreditPull,
	}

	if err := validatePayload(payload); err != nil {
		return nil, err
	}

	return payload, nil
}

// payloadSchema is the wire contract the origination API expects.
var payloadSchema = map[string]interface{}{
	"type": "object",
	"required": []interface{}{
		"amount", "tenure_months", "interest_rate", "purpose",
		"documents_submitted", "consent_share",
	},
	"properties": map[string]interface{}{
		"amount":        map[string]interface{}{"type": "integer", "minimum": 1},
		"tenure_months": map[string]interface{}{"type": "integer", "minimum": 1},
		"interest_rate": map[string]interface{}{"type": "number", "exclusiveMinimum": 0},
		"purpose":       map[string]interface{}{"type": "string", "minLength": 1},
		"documents_submitted": map[string]interface{}{
			"type": "object",
			"required": []interface{}{
				"pan_card", "aadhaar_front", "aadhaar_back",
			},
		},
		"consent_share": map[string]interface{}{"type": "boolean"},
	},
}

func validatePayload(payload map[string]interface{}) error {
	schemaLoader := gojsonschema.NewGoLoader(payloadSchema)
	documentLoader := gojsonschema.NewGoLoader(payload)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("payload schema validation error: %w", err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			details = append(details, e.String())
		}
		return errors.NewSubmissionBlockedError("application payload", strings.Join(details, "; "))
	}
	return nil
}
