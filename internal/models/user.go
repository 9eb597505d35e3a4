package models

import "time"

// Role distinguishes customers from back-office users.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// User is a registered applicant or admin.
type User struct {
	ID             string    `json:"id" db:"id"`
	Mobile         string    `json:"mobile" db:"mobile"`
	Email          string    `json:"email,omitempty" db:"email"`
	BackupEmail    string    `json:"backupEmail,omitempty" db:"backup_email"`
	FullName       string    `json:"fullName,omitempty" db:"full_name"`
	Role           Role      `json:"role" db:"role"`
	PasswordHash   string    `json:"-" db:"password_hash"`
	ProfilePicture string    `json:"profilePicture,omitempty" db:"profile_picture"`
	AddressLine1   string    `json:"addressLine1,omitempty" db:"address_line1"`
	AddressLine2   string    `json:"addressLine2,omitempty" db:"address_line2"`
	City           string    `json:"city,omitempty" db:"city"`
	Pincode        string    `json:"pincode,omitempty" db:"pincode"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}

// IsAdmin reports whether the user may access the back office.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ProfileUpdate carries the mutable profile fields of a PUT /users/profile.
type ProfileUpdate struct {
	FullName     *string `json:"fullName,omitempty"`
	Email        *string `json:"email,omitempty"`
	BackupEmail  *string `json:"backupEmail,omitempty"`
	AddressLine1 *string `json:"addressLine1,omitempty"`
	AddressLine2 *string `json:"addressLine2,omitempty"`
	City         *string `json:"city,omitempty"`
	Pincode      *string `json:"pincode,omitempty"`
}
