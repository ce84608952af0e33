package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/atinyakov/taskmanager/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func validRegistration() models.Registration {
	return models.Registration{Name: "A", Email: "a@x.com", Password: "longpass1", Age: intPtr(20)}
}

func TestNormalizeRegistration(t *testing.T) {
	r := NormalizeRegistration(models.Registration{
		Name:     "  Alice ",
		Email:    "  Alice@Example.COM ",
		Password: " keep spaces ",
	})

	assert.Equal(t, "Alice", r.Name)
	assert.Equal(t, "alice@example.com", r.Email)
	assert.Equal(t, " keep spaces ", r.Password)
	require.NotNil(t, r.Age)
	assert.Equal(t, models.DefaultAge, *r.Age)
}

func TestValidateRegistration_Valid(t *testing.T) {
	assert.NoError(t, ValidateRegistration(validRegistration()))
}

func TestValidateRegistration_Password(t *testing.T) {
	cases := []struct {
		name     string
		password string
	}{
		{"empty", ""},
		{"too short", "short1"},
		{"contains password", "mypassword1"},
		{"contains password any case", "MyPaSsWoRd99"},
		{"too many bytes", strings.Repeat("x", MaxPasswordBytes+1)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := validRegistration()
			r.Password = tc.password

			err := ValidateRegistration(r)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrValidation))

			var ve *models.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Contains(t, ve.Fields, "password")
		})
	}
}

func TestValidateRegistration_PasswordCountsCharacters(t *testing.T) {
	r := validRegistration()
	r.Password = "ääääääää"
	assert.NoError(t, ValidateRegistration(r))
}

func TestValidateRegistration_Age(t *testing.T) {
	cases := []struct {
		age   int
		valid bool
	}{
		{-5, false},
		{0, false},
		{1, false},
		{17, false},
		{18, true},
		{99, true},
	}

	for _, tc := range cases {
		r := validRegistration()
		r.Age = intPtr(tc.age)
		err := ValidateRegistration(r)
		if tc.valid {
			assert.NoError(t, err, "age %d", tc.age)
		} else {
			assert.ErrorIs(t, err, models.ErrValidation, "age %d", tc.age)
		}
	}
}

func TestValidateRegistration_EmailAndName(t *testing.T) {
	r := validRegistration()
	r.Email = "not-an-email"
	r.Name = ""

	err := ValidateRegistration(r)
	var ve *models.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "email")
	assert.Contains(t, ve.Fields, "name")
}

func TestDecodeUserUpdate(t *testing.T) {
	u, err := DecodeUserUpdate([]byte(`{"name":"Bob","age":30}`))
	require.NoError(t, err)
	require.NotNil(t, u.Name)
	require.NotNil(t, u.Age)
	assert.Equal(t, "Bob", *u.Name)
	assert.Equal(t, 30, *u.Age)
	assert.Nil(t, u.Email)
	assert.Nil(t, u.Password)
}

func TestDecodeUserUpdate_Rejects(t *testing.T) {
	cases := map[string]string{
		"empty object":  `{}`,
		"unknown key":   `{"name":"Bob","tokens":[]}`,
		"not an object": `[1,2]`,
		"null":          `null`,
		"wrong type":    `{"age":"old"}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeUserUpdate([]byte(body))
			assert.ErrorIs(t, err, models.ErrValidation)
		})
	}
}

func TestValidateUserUpdate(t *testing.T) {
	email := "Bob@Example.com "
	u := NormalizeUserUpdate(models.UserUpdate{Email: &email})
	assert.Equal(t, "bob@example.com", *u.Email)
	assert.NoError(t, ValidateUserUpdate(u))

	pw := "password123"
	assert.ErrorIs(t, ValidateUserUpdate(models.UserUpdate{Password: &pw}), models.ErrValidation)

	age := 10
	assert.ErrorIs(t, ValidateUserUpdate(models.UserUpdate{Age: &age}), models.ErrValidation)
}
