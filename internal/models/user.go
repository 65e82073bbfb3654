// internal/models/user.go
package models

// User is a platform user profile.
type User struct {
	UserID        string `json:"user_id" db:"user_id"`
	FirstName     string `json:"first_name" db:"first_name"`
	LastName      string `json:"last_name" db:"last_name"`
	EmailID       string `json:"email_id" db:"email_id"`
	Mobile        string `json:"mobile,omitempty" db:"mobile"`
	TwoFactorAuth bool   `json:"two_factor_auth" db:"two_factor_auth"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// NewUser carries the fields needed to create a user.
type NewUser struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	EmailID   string `json:"email_id"`
	Mobile    string `json:"mobile,omitempty"`
}

// UserUpdate holds optional profile changes. Empty fields are left untouched.
type UserUpdate struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	EmailID   string `json:"email_id,omitempty"`
	Mobile    string `json:"mobile,omitempty"`
}

// IsEmpty reports whether the update carries no changes.
func (u UserUpdate) IsEmpty() bool {
	return u.FirstName == "" && u.LastName == "" && u.EmailID == "" && u.Mobile == ""
}
