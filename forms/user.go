package forms

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
)

// UserForm represents the base form structure for user-related forms
type UserForm struct{}

// RegisterForm contains the text fields required for user registration.
// The avatar and cover image arrive as multipart file parts and are read
// separately by the controller.
type RegisterForm struct {
	FullName string `form:"full_name" json:"full_name" binding:"required,notblank,max=100"`
	Email    string `form:"email" json:"email" binding:"required,email"`
	Username string `form:"username" json:"username" binding:"required,notblank,min=3,max=30"`
	Password string `form:"password" json:"password" binding:"required,notblank,min=3,max=50"`
}

// LoginForm contains the fields required for user login. Either username
// or email identifies the account; the controller rejects requests that
// carry neither.
type LoginForm struct {
	Username string `form:"username" json:"username"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password" binding:"required,min=3,max=50"`
}

// Identifier returns whichever of username/email was supplied.
func (f LoginForm) Identifier() string {
	if f.Username != "" {
		return f.Username
	}

	return f.Email
}

// ChangePasswordForm contains the fields required to change a password
type ChangePasswordForm struct {
	OldPassword string `form:"old_password" json:"old_password" binding:"required"`
	NewPassword string `form:"new_password" json:"new_password" binding:"required,notblank,min=3,max=50"`
}

// UpdateAccountForm contains the editable profile fields; both are
// mandatory on update
type UpdateAccountForm struct {
	FullName string `form:"full_name" json:"full_name" binding:"required,notblank,max=100"`
	Email    string `form:"email" json:"email" binding:"required,email"`
}

// Email validates and returns appropriate error messages for email field validation
func (f UserForm) Email(tag string, errMsg ...string) (message string) {
	switch tag {
	case "required":
		if len(errMsg) == 0 {
			return "Please enter your email"
		}
		return errMsg[0]
	case "min", "max", "email":
		return "Please enter a valid email"
	default:
		return "Something went wrong, please try again later"
	}
}

// Password validates and returns appropriate error messages for password field validation
func (f UserForm) Password(tag string) (message string) {
	switch tag {
	case "required", "notblank":
		return "Please enter your password"
	case "min", "max":
		return "Your password should be between 3 and 50 characters"
	case "eqfield":
		return "Your passwords does not match"
	default:
		return "Something went wrong, please try again later"
	}
}

// Username validates and returns appropriate error messages for username field validation
func (f UserForm) Username(tag string) (message string) {
	switch tag {
	case "required", "notblank":
		return "Please enter your username"
	case "min", "max":
		return "Your username should be between 3 and 30 characters"
	default:
		return "Something went wrong, please try again later"
	}
}

// FullName validates and returns appropriate error messages for full name field validation
func (f UserForm) FullName(tag string) (message string) {
	switch tag {
	case "required", "notblank":
		return "Please enter your full name"
	case "max":
		return "Your full name is too long"
	default:
		return "Something went wrong, please try again later"
	}
}

// fieldMessage maps a single failed field to its message.
func (f UserForm) fieldMessage(err validator.FieldError) string {
	switch err.Field() {
	case "Email":
		return f.Email(err.Tag())
	case "Password", "OldPassword", "NewPassword":
		return f.Password(err.Tag())
	case "Username":
		return f.Username(err.Tag())
	case "FullName":
		return f.FullName(err.Tag())
	default:
		return "Something went wrong, please try again later"
	}
}

// Message translates a binding error into a human readable message for any
// of the user forms.
func (f UserForm) Message(err error) string {
	switch err.(type) {
	case validator.ValidationErrors:

		if _, ok := err.(*json.UnmarshalTypeError); ok {
			return "Something went wrong, please try again later"
		}

		for _, err := range err.(validator.ValidationErrors) {
			return f.fieldMessage(err)
		}

	default:
		return "Invalid request"
	}

	return "Something went wrong, please try again later"
}
