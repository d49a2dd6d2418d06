package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/atinyakov/TaskTracker/internal/apperr"
	"github.com/atinyakov/TaskTracker/internal/models"
)

var jsonNull = []byte("null")

// decodeFields reads a JSON object and rejects any key not in allowed.
func decodeFields(r io.Reader, allowed ...string) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&fields); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]json.RawMessage{}, nil
		}
		return nil, apperr.Validation("", "malformed JSON body")
	}
	if fields == nil {
		return nil, apperr.Validation("", "body must be a JSON object")
	}
	for key := range fields {
		ok := false
		for _, a := range allowed {
			if key == a {
				ok = true
				break
			}
		}
		if !ok {
			return nil, apperr.Validation(key, "unknown field")
		}
	}
	return fields, nil
}

func stringField(fields map[string]json.RawMessage, name string) (*string, error) {
	raw, ok := fields[name]
	if !ok {
		return nil, nil
	}
	var s string
	if bytes.Equal(bytes.TrimSpace(raw), jsonNull) || json.Unmarshal(raw, &s) != nil {
		return nil, apperr.Validation(name, "must be a string")
	}
	return &s, nil
}

func boolField(fields map[string]json.RawMessage, name string) (*bool, error) {
	raw, ok := fields[name]
	if !ok {
		return nil, nil
	}
	var b bool
	if bytes.Equal(bytes.TrimSpace(raw), jsonNull) || json.Unmarshal(raw, &b) != nil {
		return nil, apperr.Validation(name, "must be a boolean")
	}
	return &b, nil
}

func requireDescription(s *string) (string, error) {
	if s == nil {
		return "", apperr.Validation("description", "is required")
	}
	d := strings.TrimSpace(*s)
	if d == "" {
		return "", apperr.Validation("description", "must not be empty")
	}
	return d, nil
}

// DecodeNewTask reads a task creation body. Only description and completed
// are accepted; completed defaults to false.
func DecodeNewTask(r io.Reader) (models.NewTask, error) {
	fields, err := decodeFields(r, "description", "completed")
	if err != nil {
		return models.NewTask{}, err
	}
	desc, err := stringField(fields, "description")
	if err != nil {
		return models.NewTask{}, err
	}
	completed, err := boolField(fields, "completed")
	if err != nil {
		return models.NewTask{}, err
	}

	in := models.NewTask{}
	if desc != nil {
		in.Description = *desc
	}
	if completed != nil {
		in.Completed = *completed
	}
	return in, nil
}

// DecodeTaskPatch reads a partial task update body.
func DecodeTaskPatch(r io.Reader) (models.TaskPatch, error) {
	fields, err := decodeFields(r, "description", "completed")
	if err != nil {
		return models.TaskPatch{}, err
	}
	desc, err := stringField(fields, "description")
	if err != nil {
		return models.TaskPatch{}, err
	}
	completed, err := boolField(fields, "completed")
	if err != nil {
		return models.TaskPatch{}, err
	}
	return models.TaskPatch{Description: desc, Completed: completed}, nil
}

// DecodeUserPatch reads a partial profile update body.
func DecodeUserPatch(r io.Reader) (models.UserPatch, error) {
	fields, err := decodeFields(r, "name", "email", "password")
	if err != nil {
		return models.UserPatch{}, err
	}
	var p models.UserPatch
	if p.Name, err = stringField(fields, "name"); err != nil {
		return models.UserPatch{}, err
	}
	if p.Email, err = stringField(fields, "email"); err != nil {
		return models.UserPatch{}, err
	}
	if p.Password, err = stringField(fields, "password"); err != nil {
		return models.UserPatch{}, err
	}
	return p, nil
}

// RegisterInput is the registration body.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// DecodeRegister reads a registration body.
func DecodeRegister(r io.Reader) (RegisterInput, error) {
	fields, err := decodeFields(r, "name", "email", "password")
	if err != nil {
		return RegisterInput{}, err
	}
	var in RegisterInput
	for name, dst := range map[string]*string{"name": &in.Name, "email": &in.Email, "password": &in.Password} {
		v, err := stringField(fields, name)
		if err != nil {
			return RegisterInput{}, err
		}
		if v != nil {
			*dst = *v
		}
	}
	return in, nil
}

// DecodeCredentials reads a login body.
func DecodeCredentials(r io.Reader) (email, password string, err error) {
	fields, err := decodeFields(r, "email", "password")
	if err != nil {
		return "", "", err
	}
	e, err := stringField(fields, "email")
	if err != nil {
		return "", "", err
	}
	p, err := stringField(fields, "password")
	if err != nil {
		return "", "", err
	}
	if e == nil || p == nil {
		return "", "", apperr.ErrInvalidCredentials
	}
	return *e, *p, nil
}

// ParseTaskQuery translates list query parameters:
//
//	completed=true|false
//	sortBy=<field>[:asc|:desc]   field is description, completed, createdAt or updatedAt
//	limit=<n>                    0 or absent means unbounded
//	skip=<n>
func ParseTaskQuery(values url.Values) (models.TaskQuery, error) {
	var q models.TaskQuery

	if raw := values.Get("completed"); raw != "" {
		switch raw {
		case "true":
			v := true
			q.Completed = &v
		case "false":
			v := false
			q.Completed = &v
		default:
			return models.TaskQuery{}, apperr.Validation("completed", "must be true or false")
		}
	}

	if raw := values.Get("sortBy"); raw != "" {
		field, dir, _ := strings.Cut(raw, ":")
		sort := &models.TaskSort{Field: models.SortField(field)}
		if !sort.Field.Valid() {
			return models.TaskQuery{}, apperr.Validation("sortBy", "unsupported field "+field)
		}
		switch dir {
		case "", "asc":
		case "desc":
			sort.Desc = true
		default:
			return models.TaskQuery{}, apperr.Validation("sortBy", "direction must be asc or desc")
		}
		q.Sort = sort
	}

	var err error
	if q.Limit, err = nonNegative(values, "limit"); err != nil {
		return models.TaskQuery{}, err
	}
	if q.Offset, err = nonNegative(values, "skip"); err != nil {
		return models.TaskQuery{}, err
	}
	return q, nil
}

func nonNegative(values url.Values, key string) (int, error) {
	raw := values.Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperr.Validation(key, "must be a non-negative integer")
	}
	return n, nil
}
