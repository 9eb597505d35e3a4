// internal/repository/users.go
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"loanbridge/internal/common/errors"
	"loanbridge/internal/models"
)

// UserRepository persists users in PostgreSQL.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `
	id, mobile, COALESCE(email, ''), COALESCE(backup_email, ''),
	COALESCE(full_name, ''), role, COALESCE(password_hash, ''),
	COALESCE(profile_picture, ''), COALESCE(address_line1, ''),
	COALESCE(address_line2, ''), COALESCE(city, ''), COALESCE(pincode, ''),
	created_at, updated_at`

// GetByID fetches a user by primary key.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByMobile fetches the user registered under a mobile number.
func (r *UserRepository) GetByMobile(ctx context.Context, mobile string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE mobile = $1`, mobile)
	return scanUser(row)
}

// GetAdminByEmail fetches an admin account for the back-office login.
func (r *UserRepository) GetAdminByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1 AND role = 'admin'`, email)
	return scanUser(row)
}

// UpsertByMobile finds or creates the user for a verified mobile number.
func (r *UserRepository) UpsertByMobile(ctx context.Context, mobile string) (*models.User, error) {
	existing, err := r.GetByMobile(ctx, mobile)
	if err == nil {
		return existing, nil
	}
	if _, notFound := err.(*notFoundError); !notFound {
		return nil, err
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:        uuid.New().String(),
		Mobile:    mobile,
		Role:      models.RoleCustomer,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (id, mobile, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Mobile, user.Role, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return nil, errors.NewDatabaseInsertFailedError(err)
	}
	return user, nil
}

// UpdateProfile applies the non-nil fields of a profile update.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error) {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET
			full_name     = COALESCE($2, full_name),
			email         = COALESCE($3, email),
			backup_email  = COALESCE($4, backup_email),
			address_line1 = COALESCE($5, address_line1),
			address_line2 = COALESCE($6, address_line2),
			city          = COALESCE($7, city),
			pincode       = COALESCE($8, pincode),
			updated_at    = $9
		WHERE id = $1`,
		id, upd.FullName, upd.Email, upd.BackupEmail,
		upd.AddressLine1, upd.AddressLine2, upd.City, upd.Pincode,
		time.Now().UTC(),
	)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("update_profile", err)
	}
	return r.GetByID(ctx, id)
}

// UpdateProfilePicture stores the uploaded picture path.
func (r *UserRepository) UpdateProfilePicture(ctx context.Context, id, path string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET profile_picture = $2, updated_at = $3 WHERE id = $1`,
		id, path, time.Now().UTC(),
	)
	if err != nil {
		return errors.NewQueryExecutionFailedError("update_profile_picture", err)
	}
	return nil
}

// notFoundError distinguishes a missing user from a query failure.
type notFoundError struct{ msg string }

func (e *notFoundError) Error() string { return e.msg }

// IsUserNotFound reports whether err is a missing-user lookup result.
func IsUserNotFound(err error) bool {
	_, ok := err.(*notFoundError)
	return ok
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Mobile, &u.Email, &u.BackupEmail,
		&u.FullName, &u.Role, &u.PasswordHash,
		&u.ProfilePicture, &u.AddressLine1,
		&u.AddressLine2, &u.City, &u.Pincode,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, &notFoundError{msg: "user not found"}
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get_user", err)
	}
	return &u, nil
}
