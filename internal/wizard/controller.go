// internal/wizard/controller.go
package wizard

import (
	"loanbridge/internal/common/errors"
	"loanbridge/internal/emi"
)

// UIState holds per-session display state that lives outside the form data
// model: the live required-ness flag for address line 1 and the
// view-vs-edit toggles for mobile and email.
type UIState struct {
	AddressLine1Missing bool `json:"addressLine1Missing"`
	MobileEditing       bool `json:"mobileEditing"`
	EmailEditing        bool `json:"emailEditing"`
}

// Controller owns the active step index and the form state, and drives a
// strictly linear state machine over the five steps.
type Controller struct {
	ActiveStep Step               `json:"activeStep"`
	Form       FormState          `json:"form"`
	UI         UIState            `json:"ui"`
	Income     IncomeVerification `json:"income"`

	// Strict gates Next and JumpToStep on the step predicates. Off by
	// default: the original leaves both unconditional.
	Strict bool `json:"strict"`
}

// NewController starts a wizard at step 0 with default form values.
func NewController(strict bool) *Controller {
	return &Controller{
		ActiveStep: StepLoanExplorer,
		Form:       NewFormState(),
		Strict:     strict,
	}
}

// CanGoBack reports whether the Back control is enabled.
func (c *Controller) CanGoBack() bool {
	return c.ActiveStep > StepLoanExplorer
}

// CanGoNext reports whether the Next control is enabled.
func (c *Controller) CanGoNext() bool {
	return c.ActiveStep < StepFinalReview
}

// Next advances one step.
func (c *Controller) Next() error {
	if !c.CanGoNext() {
		return errors.NewStepOutOfRangeError(int(c.ActiveStep) + 1)
	}
	if c.Strict && !c.ActiveStep.CanAdvance(c.Form) {
		return errors.NewValidationFailedError(c.ActiveStep.String(), "step is incomplete")
	}
	c.ActiveStep++
	return nil
}

// Back retreats one step.
func (c *Controller) Back() error {
	if !c.CanGoBack() {
		return errors.NewStepOutOfRangeError(int(c.ActiveStep) - 1)
	}
	c.ActiveStep--
	return nil
}

// JumpToStep sets the index directly, as clicking a step label does. In the
// default loose mode no forward-validation gate applies.
func (c *Controller) JumpToStep(i int) error {
	if i < 0 || i >= StepCount {
		return errors.NewStepOutOfRangeError(i)
	}
	target := Step(i)
	if c.Strict && target > c.ActiveStep {
		for s := c.ActiveStep; s < target; s++ {
			if !s.CanAdvance(c.Form) {
				return errors.NewValidationFailedError(s.String(), "step is incomplete")
			}
		}
	}
	c.ActiveStep = target
	return nil
}

// ApplyField replaces the form state with the update applied and refreshes
// the live validation flags that track field edits.
func (c *Controller) ApplyField(upd FieldUpdate) {
	c.Form = Apply(c.Form, upd)

	if _, ok := upd.(SetAddressLine1); ok {
		c.UI.AddressLine1Missing = c.Form.AddressLine1 == ""
	}
}

// ToggleMobileEdit flips the mobile field between view and edit.
func (c *Controller) ToggleMobileEdit() {
	c.UI.MobileEditing = !c.UI.MobileEditing
}

// ToggleEmailEdit flips the email field between view and edit.
func (c *Controller) ToggleEmailEdit() {
	c.UI.EmailEditing = !c.UI.EmailEditing
}

// EMI derives the displayed installment from the current loan terms. Any
// unresolvable tenure or rate shows as the zero amount, same as the
// calculator's own guards.
func (c *Controller) EMI() string {
	months, ok := c.Form.ResolveTenure()
	if !ok {
		return emi.Zero
	}
	rate, ok := c.Form.ResolveRate()
	if !ok {
		return emi.Zero
	}
	return emi.Calculate(float64(c.Form.Amount), rate, months)
}

// Reset discards the form and returns the wizard to step 0, as happens
// after a successful submission.
func (c *Controller) Reset() {
	c.ActiveStep = StepLoanExplorer
	c.Form = NewFormState()
	c.UI = UIState{}
	c.Income = IncomeVerification{}
}
