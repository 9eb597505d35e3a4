// internal/submit/payload_test.go
package submit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanbridge/internal/wizard"
)

func validForm() wizard.FormState {
	f := wizard.NewFormState()
	f.ConsentShare = true
	return f
}

func TestBuildPayloadDocumentSentinels(t *testing.T) {
	f := validForm()
	// No documents attached at all.

	payload, err := BuildPayload(f)
	require.NoError(t, err)

	docs, ok := payload["documents_submitted"].(map[string]interface{})
	require.True(t, ok)
	for _, slot := range []string{"pan_card", "aadhaar_front", "aadhaar_back", "salary_slip"} {
		assert.Equal(t, "NOT_UPLOADED", docs[slot], slot)
	}
}

func TestBuildPayloadCarriesFileNames(t *testing.T) {
	f := validForm()
	f.PanCard = &wizard.FileMeta{Name: "pan.pdf", Size: 2048, Type: "application/pdf"}
	f.SalarySlip = &wizard.FileMeta{Name: "slip.pdf"}

	payload, err := BuildPayload(f)
	require.NoError(t, err)

	docs := payload["documents_submitted"].(map[string]interface{})
	assert.Equal(t, "pan.pdf", docs["pan_card"])
	assert.Equal(t, "slip.pdf", docs["salary_slip"])
	assert.Equal(t, "NOT_UPLOADED", docs["aadhaar_front"])
	assert.Equal(t, "NOT_UPLOADED", docs["aadhaar_back"])
}

func TestBuildPayloadResolvesCustomTerms(t *testing.T) {
	f := validForm()
	f.Tenure = wizard.CustomSentinel
	f.CustomTenure = "36"
	f.Rate = wizard.CustomSentinel
	f.CustomRate = "13.5"

	payload, err := BuildPayload(f)
	require.NoError(t, err)

	assert.Equal(t, 36, payload["tenure_months"])
	assert.Equal(t, 13.5, payload["interest_rate"])
}

func TestBuildPayloadBlocksLocally(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *wizard.FormState)
	}{
		{"zero amount", func(f *wizard.FormState) { f.Amount = 0 }},
		{"negative amount", func(f *wizard.FormState) { f.Amount = -5000 }},
		{"unparseable custom tenure", func(f *wizard.FormState) {
			f.Tenure = wizard.CustomSentinel
			f.CustomTenure = "soon"
		}},
		{"zero custom rate", func(f *wizard.FormState) {
			f.Rate = wizard.CustomSentinel
			f.CustomRate = "0"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validForm()
			tt.mutate(&f)
			_, err := BuildPayload(f)
			assert.Error(t, err)
		})
	}
}
