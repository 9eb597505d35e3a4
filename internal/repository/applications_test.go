// internal/repository/applications_test.go
package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanbridge/internal/models"
)

var appColumns = []string{
	"id", "user_id", "amount", "tenure_months", "interest_rate", "purpose",
	"employment_type", "employment_details", "contact_details",
	"documents_submitted", "consent_share", "consent_credit_pull",
	"status", "decision_reason", "approved_terms",
	"created_at", "updated_at",
}

func TestApplicationCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewApplicationRepository(db)

	mock.ExpectExec("INSERT INTO loan_applications").
		WithArgs(
			sqlmock.AnyArg(), "user-1", int64(250000), 24, 12.0, "Personal",
			"Salaried", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			true, false, models.StatusSubmitted, sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	app := &models.LoanApplication{
		UserID:         "user-1",
		Amount:         250000,
		TenureMonths:   24,
		InterestRate:   12.0,
		Purpose:        "Personal",
		EmploymentType: "Salaried",
		DocumentsSubmitted: map[string]string{
			"pan_card":      "pan.pdf",
			"aadhaar_front": models.DocNotUploaded,
			"aadhaar_back":  models.DocNotUploaded,
			"salary_slip":   models.DocNotUploaded,
		},
		ConsentShare: true,
	}

	require.NoError(t, repo.Create(context.Background(), app))
	assert.NotEmpty(t, app.ID)
	assert.Equal(t, models.StatusSubmitted, app.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationGetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewApplicationRepository(db)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(appColumns).AddRow(
		"app-1", "user-1", int64(250000), 24, 12.0, "Personal",
		"Salaried", []byte(`{"type":"Salaried"}`), []byte(`{"city":"Bengaluru"}`),
		[]byte(`{"pan_card":"NOT_UPLOADED"}`), true, false,
		"submitted", "", nil, now, now,
	)
	mock.ExpectQuery("FROM loan_applications WHERE id").
		WithArgs("app-1").
		WillReturnRows(rows)

	app, err := repo.GetByID(context.Background(), "app-1")
	require.NoError(t, err)
	assert.Equal(t, "app-1", app.ID)
	assert.Equal(t, int64(250000), app.Amount)
	assert.Equal(t, "NOT_UPLOADED", app.DocumentsSubmitted["pan_card"])
	assert.Equal(t, "Bengaluru", app.ContactDetails["city"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewApplicationRepository(db)

	mock.ExpectQuery("FROM loan_applications WHERE id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(appColumns))

	_, err = repo.GetByID(context.Background(), "missing")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationListByUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewApplicationRepository(db)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(appColumns).
		AddRow("app-2", "user-1", int64(100000), 12, 10.0, "Education",
			"Student", []byte(`{}`), []byte(`{}`), []byte(`{}`), true, false,
			"submitted", "", nil, now, now).
		AddRow("app-1", "user-1", int64(250000), 24, 12.0, "Personal",
			"Salaried", []byte(`{}`), []byte(`{}`), []byte(`{}`), true, true,
			"approved", "", `{"rate":11.5}`, now.Add(-time.Hour), now)
	mock.ExpectQuery("FROM loan_applications").
		WithArgs("user-1").
		WillReturnRows(rows)

	apps, err := repo.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, "app-2", apps[0].ID)
	assert.Equal(t, models.StatusApproved, apps[1].Status)
	assert.Equal(t, 11.5, apps[1].ApprovedTerms["rate"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationUpdateDecision(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewApplicationRepository(db)

	mock.ExpectExec("UPDATE loan_applications").
		WithArgs("app-1", models.StatusRejected, "income too low", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.UpdateDecision(context.Background(), "app-1", models.StatusRejected, "income too low", nil)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationUpdateDecisionNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewApplicationRepository(db)

	mock.ExpectExec("UPDATE loan_applications").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.UpdateDecision(context.Background(), "missing", models.StatusApproved, "", nil)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
