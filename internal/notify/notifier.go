// Package notify delivers applicant notifications over email and SMS.
// Delivery is best effort: failures are logged and never fail the request
// that triggered them.
package notify

import (
	"context"
	"fmt"

	"loanbridge/internal/common/logger"
	"loanbridge/internal/models"
)

// EmailSender is satisfied by the SES client.
type EmailSender interface {
	SendSimpleEmail(ctx context.Context, from, to, subject, body string) error
}

// SMSSender is satisfied by the SNS client.
type SMSSender interface {
	SendSMS(ctx context.Context, phoneNumber, message string) error
}

type Notifier struct {
	email     EmailSender
	sms       SMSSender
	fromEmail string
	logger    logger.Logger
}

func NewNotifier(email EmailSender, sms SMSSender, fromEmail string, log logger.Logger) *Notifier {
	return &Notifier{
		email:     email,
		sms:       sms,
		fromEmail: fromEmail,
		logger:    log.WithFields(map[string]interface{}{"component": "notify"}),
	}
}

// ApplicationSubmitted confirms receipt of a new application.
func (n *Notifier) ApplicationSubmitted(ctx context.Context, user *models.User, app *models.LoanApplication) {
	subject := "We received your loan application"
	body := fmt.Sprintf(
		"Hi %s,\n\nYour loan application %s for an amount of %d over %d months has been received and is under review.\n\nThank you.",
		displayName(user), app.ID, app.Amount, app.TenureMonths,
	)
	n.sendEmail(ctx, user, "application_submitted", subject, body)
}

// ApplicationDecided informs the applicant of an approval or rejection.
func (n *Notifier) ApplicationDecided(ctx context.Context, user *models.User, app *models.LoanApplication) {
	var subject, body string
	switch app.Status {
	case models.StatusApproved:
		subject = "Your loan application was approved"
		body = fmt.Sprintf(
			"Hi %s,\n\nGood news: application %s has been approved. Log in to review your offer terms.\n\nThank you.",
			displayName(user), app.ID,
		)
	case models.StatusRejected:
		subject = "Update on your loan application"
		body = fmt.Sprintf(
			"Hi %s,\n\nApplication %s could not be approved at this time. Reason: %s\n\nThank you.",
			displayName(user), app.ID, app.DecisionReason,
		)
	default:
		return
	}

	n.sendEmail(ctx, user, "application_decided", subject, body)

	if n.sms != nil && user.Mobile != "" {
		msg := fmt.Sprintf("Loan application %s: %s", app.ID, app.Status)
		if err := n.sms.SendSMS(ctx, user.Mobile, msg); err != nil {
			n.logger.Warn("sms notification failed", map[string]interface{}{
				"userId": user.ID,
				"error":  err.Error(),
			})
		}
	}
}

func (n *Notifier) sendEmail(ctx context.Context, user *models.User, kind, subject, body string) {
	if n.email == nil || user.Email == "" {
		return
	}
	if err := n.email.SendSimpleEmail(ctx, n.fromEmail, user.Email, subject, body); err != nil {
		n.logger.Warn("email notification failed", map[string]interface{}{
			"userId": user.ID,
			"type":   kind,
			"error":  err.Error(),
		})
	}
}

func displayName(user *models.User) string {
	if user.FullName != "" {
		return user.FullName
	}
	return "there"
}
