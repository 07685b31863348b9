package account

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// FieldErrors maps form field names to user-facing validation messages.
type FieldErrors map[string]string

func (e FieldErrors) Empty() bool { return len(e) == 0 }

// RegisterForm carries the signup fields.
type RegisterForm struct {
	Email           string `form:"email"`
	Name            string `form:"name"`
	Password        string `form:"password"`
	PasswordConfirm string `form:"password_confirm"`
}

func (f RegisterForm) Validate() FieldErrors {
	errs := FieldErrors{}
	if !emailRegex.MatchString(f.Email) {
		errs["email"] = "enter a valid email address"
	}
	if strings.TrimSpace(f.Name) == "" {
		errs["name"] = "name is required"
	}
	if utf8.RuneCountInString(f.Password) < 8 {
		errs["password"] = "password must be at least 8 characters"
	}
	if f.Password != f.PasswordConfirm {
		errs["password_confirm"] = "passwords do not match"
	}
	return errs
}

// EditForm carries the profile edit fields. The ID is taken from the form
// only to match the edit page round-trip; handlers must overwrite it with
// the session's account id before calling Update.
type EditForm struct {
	ID          int64  `form:"id"`
	Email       string `form:"email"`
	Name        string `form:"name"`
	Furigana    string `form:"furigana"`
	PhoneNumber string `form:"phone_number"`
	Address     string `form:"address"`
	Age         int    `form:"age"`
	Occupation  string `form:"occupation"`
}

func (f EditForm) Validate() FieldErrors {
	errs := FieldErrors{}
	if !emailRegex.MatchString(f.Email) {
		errs["email"] = "enter a valid email address"
	}
	if strings.TrimSpace(f.Name) == "" {
		errs["name"] = "name is required"
	}
	if f.Age < 0 || f.Age > 150 {
		errs["age"] = "enter a valid age"
	}
	if utf8.RuneCountInString(f.PhoneNumber) > 20 {
		errs["phone_number"] = "phone number is too long"
	}
	return errs
}
