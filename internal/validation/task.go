package validation

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/atinyakov/taskmanager/internal/models"
)

// sortColumns maps accepted sortBy field names to store columns.
var sortColumns = map[string]string{
	"description": "description",
	"completed":   "completed",
	"createdAt":   "created_at",
	"created_at":  "created_at",
	"updatedAt":   "updated_at",
	"updated_at":  "updated_at",
}

// NormalizeNewTask trims the description.
func NormalizeNewTask(t models.NewTask) models.NewTask {
	t.Description = strings.TrimSpace(t.Description)
	return t
}

// ValidateNewTask checks a normalized task payload.
func ValidateNewTask(t models.NewTask) error {
	v := models.NewValidationError()
	v.Check(t.Description != "", "description", "must be provided")
	return v.Err()
}

// DecodeTaskUpdate decodes a JSON object into a TaskUpdate. The object must be
// non-empty and may only contain description and completed.
func DecodeTaskUpdate(body []byte) (models.TaskUpdate, error) {
	var u models.TaskUpdate
	fields, err := decodeObject(body, "description", "completed")
	if err != nil {
		return u, err
	}

	v := models.NewValidationError()
	if raw, ok := fields["description"]; ok {
		var d string
		if json.Unmarshal(raw, &d) != nil {
			v.Add("description", "must be a string")
		} else {
			d = strings.TrimSpace(d)
			v.Check(d != "", "description", "must be provided")
			u.Description = &d
		}
	}
	if raw, ok := fields["completed"]; ok {
		var c bool
		if json.Unmarshal(raw, &c) != nil {
			v.Add("completed", "must be a boolean")
		} else {
			u.Completed = &c
		}
	}
	return u, v.Err()
}

// ParseTaskQuery reads completed, limit, skip and sortBy from URL query values.
// sortBy has the form field or field:asc|desc.
func ParseTaskQuery(values url.Values) (models.TaskQuery, error) {
	var q models.TaskQuery
	v := models.NewValidationError()

	if s := values.Get("completed"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			v.Add("completed", "must be true or false")
		} else {
			q.Completed = &b
		}
	}

	q.Limit = parseBound(v, values, "limit")
	if q.Limit != nil && *q.Limit == 0 {
		// limit=0 means unbounded
		q.Limit = nil
	}
	q.Skip = parseBound(v, values, "skip")

	if s := values.Get("sortBy"); s != "" {
		field, dir, _ := strings.Cut(s, ":")
		column, ok := sortColumns[field]
		v.Check(ok, "sortBy", "unknown sort field")

		direction := models.SortAsc
		switch strings.ToLower(dir) {
		case "", "asc":
		case "desc":
			direction = models.SortDesc
		default:
			v.Add("sortBy", "direction must be asc or desc")
		}
		if ok {
			q.Sort = &models.TaskSort{Field: column, Direction: direction}
		}
	}

	if err := v.Err(); err != nil {
		return models.TaskQuery{}, err
	}
	return q, nil
}

func parseBound(v *models.ValidationError, values url.Values, key string) *int {
	s := values.Get(key)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		v.Add(key, "must be a non-negative integer")
		return nil
	}
	return &n
}
