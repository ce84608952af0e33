// Package validation holds the field rules for users, tasks and task queries.
// Every function runs before persistence and reports failures as
// *models.ValidationError.
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/atinyakov/taskmanager/internal/models"
	"github.com/go-playground/validator/v10"
)

const (
	// MinPasswordLength is counted in characters, not bytes.
	MinPasswordLength = 8
	// MaxPasswordBytes is the bcrypt input limit.
	MaxPasswordBytes = 72
	// MinAge is the youngest accepted age.
	MinAge = 18
	// MaxNameLength bounds display names.
	MaxNameLength = 255

	forbiddenPasswordWord = "password"
)

var validate = validator.New()

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeRegistration trims and lowercases fields and applies the default age.
func NormalizeRegistration(r models.Registration) models.Registration {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = NormalizeEmail(r.Email)
	if r.Age == nil {
		age := models.DefaultAge
		r.Age = &age
	}
	return r
}

// ValidateRegistration checks every field of a normalized registration.
func ValidateRegistration(r models.Registration) error {
	v := models.NewValidationError()
	checkName(v, r.Name)
	checkEmail(v, r.Email)
	checkPassword(v, r.Password)
	if r.Age != nil {
		checkAge(v, *r.Age)
	}
	return v.Err()
}

// NormalizeUserUpdate trims and lowercases the fields present in u.
func NormalizeUserUpdate(u models.UserUpdate) models.UserUpdate {
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		u.Name = &name
	}
	if u.Email != nil {
		email := NormalizeEmail(*u.Email)
		u.Email = &email
	}
	return u
}

// ValidateUserUpdate checks the fields present in a normalized update.
func ValidateUserUpdate(u models.UserUpdate) error {
	v := models.NewValidationError()
	if u.Name != nil {
		checkName(v, *u.Name)
	}
	if u.Email != nil {
		checkEmail(v, *u.Email)
	}
	if u.Password != nil {
		checkPassword(v, *u.Password)
	}
	if u.Age != nil {
		checkAge(v, *u.Age)
	}
	return v.Err()
}

// DecodeUserUpdate decodes a JSON object into a UserUpdate. The object must
// be non-empty and may only contain name, email, password and age.
func DecodeUserUpdate(body []byte) (models.UserUpdate, error) {
	var u models.UserUpdate
	fields, err := decodeObject(body, "name", "email", "password", "age")
	if err != nil {
		return u, err
	}

	v := models.NewValidationError()
	for key, raw := range fields {
		switch key {
		case "name":
			u.Name = new(string)
			v.Check(json.Unmarshal(raw, u.Name) == nil, key, "must be a string")
		case "email":
			u.Email = new(string)
			v.Check(json.Unmarshal(raw, u.Email) == nil, key, "must be a string")
		case "password":
			u.Password = new(string)
			v.Check(json.Unmarshal(raw, u.Password) == nil, key, "must be a string")
		case "age":
			u.Age = new(int)
			v.Check(json.Unmarshal(raw, u.Age) == nil, key, "must be an integer")
		}
	}
	return u, v.Err()
}

func checkName(v *models.ValidationError, name string) {
	v.Check(name != "", "name", "must be provided")
	v.Check(utf8.RuneCountInString(name) <= MaxNameLength, "name", fmt.Sprintf("must be at most %d characters", MaxNameLength))
}

func checkEmail(v *models.ValidationError, email string) {
	v.Check(email != "", "email", "must be provided")
	v.Check(validate.Var(email, "email") == nil, "email", "must be a valid email address")
}

func checkPassword(v *models.ValidationError, password string) {
	v.Check(password != "", "password", "must be provided")
	v.Check(utf8.RuneCountInString(password) >= MinPasswordLength, "password", fmt.Sprintf("must be at least %d characters long", MinPasswordLength))
	v.Check(len(password) <= MaxPasswordBytes, "password", fmt.Sprintf("must be at most %d bytes long", MaxPasswordBytes))
	v.Check(!strings.Contains(strings.ToLower(password), forbiddenPasswordWord), "password", "must not contain the word 'password'")
}

func checkAge(v *models.ValidationError, age int) {
	if age <= 0 {
		v.Add("age", "must be a positive number")
		return
	}
	v.Check(age >= MinAge, "age", fmt.Sprintf("must be greater than or equal to %d", MinAge))
}

// decodeObject decodes body as a JSON object and rejects empty objects and
// keys outside allowed.
func decodeObject(body []byte, allowed ...string) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(body), &fields); err != nil || fields == nil {
		return nil, &models.ValidationError{Fields: map[string]string{"body": "must be a JSON object"}}
	}
	if len(fields) == 0 {
		return nil, &models.ValidationError{Fields: map[string]string{"body": "invalid updates"}}
	}

	v := models.NewValidationError()
	for key := range fields {
		ok := false
		for _, a := range allowed {
			if key == a {
				ok = true
				break
			}
		}
		v.Check(ok, key, "is not an updatable field")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	return fields, nil
}
