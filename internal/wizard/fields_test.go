// internal/wizard/fields_test.go
package wizard

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyNeverMutatesInput(t *testing.T) {
	f := NewFormState()
	f.PanCard = &FileMeta{Name: "pan.pdf", Size: 1024, Type: "application/pdf"}

	out := Apply(f, SetAmount{Value: 250_000})

	assert.Equal(t, int64(250_000), out.Amount)
	assert.Equal(t, int64(100_000), f.Amount)

	// File metadata is copied, not aliased.
	out.PanCard.Name = "changed.pdf"
	assert.Equal(t, "pan.pdf", f.PanCard.Name)
}

func TestApplyFileSlotClear(t *testing.T) {
	f := NewFormState()
	f.SalarySlip = &FileMeta{Name: "slip.pdf"}

	out := Apply(f, SetSalarySlip{Value: nil})

	assert.Nil(t, out.SalarySlip)
	assert.NotNil(t, f.SalarySlip)
}

func TestApplyCustomTenureDuality(t *testing.T) {
	f := NewFormState()

	f = Apply(f, SetTenure{Value: CustomSentinel})
	f = Apply(f, SetCustomTenure{Value: "36"})

	months, ok := f.ResolveTenure()
	require.True(t, ok)
	assert.Equal(t, 36, months)

	// Switching back to an enumerated tenure makes it authoritative again,
	// the stale custom value notwithstanding.
	f = Apply(f, SetTenure{Value: "12"})
	months, ok = f.ResolveTenure()
	require.True(t, ok)
	assert.Equal(t, 12, months)
	assert.Equal(t, "36", f.CustomTenure)
}

func TestParseFieldUpdate(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value string
		want  FieldUpdate
	}{
		{"amount", "amount", `200000`, SetAmount{200000}},
		{"tenure", "tenure", `"36"`, SetTenure{"36"}},
		{"custom rate", "customRate", `"13.5"`, SetCustomRate{"13.5"}},
		{"purpose", "purpose", `"Education"`, SetPurpose{"Education"}},
		{"employment type", "employmentType", `"Salaried"`, SetEmploymentType{"Salaried"}},
		{"consent share", "consentShare", `true`, SetConsentShare{true}},
		{"consent credit pull", "consentCreditPull", `false`, SetConsentCreditPull{false}},
		{"pincode", "pincode", `"560001"`, SetPincode{"560001"}},
		{
			"pan card file", "panCard",
			`{"name":"pan.pdf","size":2048,"type":"application/pdf"}`,
			SetPanCard{&FileMeta{Name: "pan.pdf", Size: 2048, Type: "application/pdf"}},
		},
		{"pan card cleared", "panCard", `null`, SetPanCard{nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFieldUpdate(tt.field, json.RawMessage(tt.value))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFieldUpdateRejects(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value string
	}{
		{"unknown field", "favouriteColor", `"blue"`},
		{"amount with string", "amount", `"lots"`},
		{"consent with number", "consentShare", `1`},
		{"file with string", "panCard", `"pan.pdf"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFieldUpdate(tt.field, json.RawMessage(tt.value))
			assert.Error(t, err)
		})
	}
}
