package domain

import (
	"strconv"
	"strings"
)

// UserID is a value object for user identity.
type UserID int64

// String returns the decimal form used in request paths.
func (u UserID) String() string { return strconv.FormatInt(int64(u), 10) }

// User is an account as returned by /auth/me/ and the membership endpoints.
type User struct {
	ID        UserID `json:"id" yaml:"id"`
	Username  string `json:"username" yaml:"username"`
	Email     string `json:"email" yaml:"email"`
	FirstName string `json:"first_name" yaml:"first_name"`
	LastName  string `json:"last_name" yaml:"last_name"`
}

// DisplayName returns "First Last", falling back to the username and then the email.
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// Credentials are exchanged for a session token. Username may also hold an email.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is the sign-up form. ConfirmPassword never leaves the client.
type Registration struct {
	Email           string `json:"email" validate:"required,email"`
	Username        string `json:"username" validate:"required"`
	FirstName       string `json:"first_name" validate:"required"`
	LastName        string `json:"last_name" validate:"required"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"-" form:"confirm_password" validate:"required,eqfield=Password"`
}
