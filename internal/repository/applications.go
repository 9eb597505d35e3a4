// internal/repository/applications.go
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"loanbridge/internal/common/errors"
	"loanbridge/internal/models"
)

// ApplicationRepository persists loan applications in PostgreSQL.
type ApplicationRepository struct {
	db *sql.DB
}

func NewApplicationRepository(db *sql.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// Create inserts a new application and returns it with generated fields set.
func (r *ApplicationRepository) Create(ctx context.Context, app *models.LoanApplication) error {
	if app.ID == "" {
		app.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	app.CreatedAt = now
	app.UpdatedAt = now
	if app.Status == "" {
		app.Status = models.StatusSubmitted
	}

	employmentJSON, err := json.Marshal(app.EmploymentDetails)
	if err != nil {
		return fmt.Errorf("failed to marshal employment details: %w", err)
	}
	contactJSON, err := json.Marshal(app.ContactDetails)
	if err != nil {
		return fmt.Errorf("failed to marshal contact details: %w", err)
	}
	documentsJSON, err := json.Marshal(app.DocumentsSubmitted)
	if err != nil {
		return fmt.Errorf("failed to marshal documents: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO loan_applications (
			id, user_id, amount, tenure_months, interest_rate, purpose,
			employment_type, employment_details, contact_details,
			documents_submitted, consent_share, consent_credit_pull,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		app.ID, app.UserID, app.Amount, app.TenureMonths, app.InterestRate,
		app.Purpose, app.EmploymentType, employmentJSON, contactJSON,
		documentsJSON, app.ConsentShare, app.ConsentCreditPull,
		app.Status, app.CreatedAt, app.UpdatedAt,
	)
	if err != nil {
		return errors.NewDatabaseInsertFailedError(err)
	}
	return nil
}

// GetByID fetches a single application.
func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*models.LoanApplication, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, amount, tenure_months, interest_rate, purpose,
		       employment_type, employment_details, contact_details,
		       documents_submitted, consent_share, consent_credit_pull,
		       status, COALESCE(decision_reason, ''), approved_terms,
		       created_at, updated_at
		FROM loan_applications WHERE id = $1`, id)

	app, err := scanApplication(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewApplicationNotFoundError(id)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get_application", err)
	}
	return app, nil
}

// ListByUser returns the caller's applications, newest first.
func (r *ApplicationRepository) ListByUser(ctx context.Context, userID string) ([]*models.LoanApplication, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, amount, tenure_months, interest_rate, purpose,
		       employment_type, employment_details, contact_details,
		       documents_submitted, consent_share, consent_credit_pull,
		       status, COALESCE(decision_reason, ''), approved_terms,
		       created_at, updated_at
		FROM loan_applications
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_applications", err)
	}
	defer rows.Close()

	var apps []*models.LoanApplication
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, errors.NewQueryExecutionFailedError("list_applications", err)
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

// UpdateDecision records an admin approval or rejection.
func (r *ApplicationRepository) UpdateDecision(ctx context.Context, id string, status models.ApplicationStatus, reason string, terms map[string]interface{}) error {
	termsJSON, err := json.Marshal(terms)
	if err != nil {
		return fmt.Errorf("failed to marshal approved terms: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE loan_applications
		SET status = $2, decision_reason = $3, approved_terms = $4, updated_at = $5
		WHERE id = $1`,
		id, status, reason, termsJSON, time.Now().UTC(),
	)
	if err != nil {
		return errors.NewQueryExecutionFailedError("update_decision", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.NewQueryExecutionFailedError("update_decision", err)
	}
	if affected == 0 {
		return errors.NewApplicationNotFoundError(id)
	}
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanApplication(row rowScanner) (*models.LoanApplication, error) {
	var app models.LoanApplication
	var employmentJSON, contactJSON, documentsJSON []byte
	var termsJSON sql.NullString

	err := row.Scan(
		&app.ID, &app.UserID, &app.Amount, &app.TenureMonths, &app.InterestRate,
		&app.Purpose, &app.EmploymentType, &employmentJSON, &contactJSON,
		&documentsJSON, &app.ConsentShare, &app.ConsentCreditPull,
		&app.Status, &app.DecisionReason, &termsJSON,
		&app.CreatedAt, &app.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(employmentJSON) > 0 {
		_ = json.Unmarshal(employmentJSON, &app.EmploymentDetails)
	}
	if len(contactJSON) > 0 {
		_ = json.Unmarshal(contactJSON, &app.ContactDetails)
	}
	if len(documentsJSON) > 0 {
		_ = json.Unmarshal(documentsJSON, &app.DocumentsSubmitted)
	}
	if termsJSON.Valid && termsJSON.String != "" {
		_ = json.Unmarshal([]byte(termsJSON.String), &app.ApprovedTerms)
	}

	return &app, nil
}
