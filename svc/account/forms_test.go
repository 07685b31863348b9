package account_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meshiya/membership/svc/account"
)

func TestRegisterFormValidate(t *testing.T) {
	t.Parallel()

	valid := account.RegisterForm{
		Email:           "taro@example.com",
		Name:            "Taro",
		Password:        "password123",
		PasswordConfirm: "password123",
	}
	assert.True(t, valid.Validate().Empty())

	t.Run("bad email", func(t *testing.T) {
		f := valid
		f.Email = "not-an-email"
		assert.Contains(t, f.Validate(), "email")
	})

	t.Run("blank name", func(t *testing.T) {
		f := valid
		f.Name = "   "
		assert.Contains(t, f.Validate(), "name")
	})

	t.Run("short password", func(t *testing.T) {
		f := valid
		f.Password, f.PasswordConfirm = "short", "short"
		assert.Contains(t, f.Validate(), "password")
	})

	t.Run("password mismatch", func(t *testing.T) {
		f := valid
		f.PasswordConfirm = "different123"
		assert.Contains(t, f.Validate(), "password_confirm")
	})
}

func TestEditFormValidate(t *testing.T) {
	t.Parallel()

	valid := account.EditForm{
		ID:    1,
		Email: "taro@example.com",
		Name:  "Taro",
		Age:   30,
	}
	assert.True(t, valid.Validate().Empty())

	t.Run("age out of range", func(t *testing.T) {
		f := valid
		f.Age = 200
		assert.Contains(t, f.Validate(), "age")

		f.Age = -1
		assert.Contains(t, f.Validate(), "age")
	})

	t.Run("phone number too long", func(t *testing.T) {
		f := valid
		f.PhoneNumber = "000000000000000000000"
		assert.Contains(t, f.Validate(), "phone_number")
	})
}
