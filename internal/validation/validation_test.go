package validation

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japb1998/contacts/internal/dto"
	"github.com/japb1998/contacts/internal/errs"
	"github.com/japb1998/contacts/internal/model"
)

func fieldMessages(t *testing.T, err error) map[string]string {
	t.Helper()
	var ve *errs.ValidationError
	require.True(t, errors.As(err, &ve), "expected validation error, got %v", err)
	out := make(map[string]string, len(ve.Fields))
	for _, f := range ve.Fields {
		out[f.Field] = f.Message
	}
	return out
}

func TestCreateContact_Valid(t *testing.T) {
	var c dto.CreateContact
	require.NoError(t, json.Unmarshal([]byte(`{"name":"  Alice  ","email":" Alice@X.com ","phone":"+1 555 123 4567"}`), &c))

	assert.Equal(t, "Alice", c.Name)
	assert.Equal(t, "alice@x.com", c.Email)
	assert.Equal(t, model.CategoryOther, c.Category)
	assert.NoError(t, Struct(c))
}

func TestCreateContact_CollectsEveryViolation(t *testing.T) {
	c := dto.CreateContact{
		Name:     "A",
		Email:    "not-an-email",
		Phone:    "12345",
		Category: "Colleagues",
		Message:  strings.Repeat("x", 501),
	}

	got := fieldMessages(t, Struct(c))

	assert.Equal(t, map[string]string{
		"name":     "Name must be at least 2 characters",
		"email":    "Invalid email format",
		"phone":    "Phone number must be at least 10 digits",
		"category": "Category must be one of Work, Family, Friends, Other",
		"message":  "Message must not exceed 500 characters",
	}, got)
}

func TestCreateContact_PhonePattern(t *testing.T) {
	valid := []string{"5551234567", "+1 555 123 4567", "(555)1234567", "555.123.4567"}
	for _, p := range valid {
		c := dto.CreateContact{Name: "Bob", Email: "bob@x.com", Phone: p, Category: model.CategoryWork}
		assert.NoError(t, Struct(c), p)
	}

	c := dto.CreateContact{Name: "Bob", Email: "bob@x.com", Phone: "555-abc-45678", Category: model.CategoryWork}
	assert.Equal(t, "Invalid phone number format", fieldMessages(t, Struct(c))["phone"])

	c.Phone = "1234567890123456"
	assert.Equal(t, "Phone number must not exceed 15 digits", fieldMessages(t, Struct(c))["phone"])

	// the length limit counts punctuation too
	c.Phone = "+1 (555) 123-4567"
	assert.Equal(t, "Phone number must not exceed 15 digits", fieldMessages(t, Struct(c))["phone"])
}

func TestCreateContact_Required(t *testing.T) {
	var c dto.CreateContact
	require.NoError(t, json.Unmarshal([]byte(`{}`), &c))

	got := fieldMessages(t, Struct(c))
	assert.Equal(t, "Name is required", got["name"])
	assert.Equal(t, "Email is required", got["email"])
	assert.Equal(t, "Phone number is required", got["phone"])
	assert.NotContains(t, got, "category")
}

func TestUpdateContact_OnlyProvidedFields(t *testing.T) {
	var u dto.UpdateContact
	require.NoError(t, json.Unmarshal([]byte(`{"email":" NEW@X.COM "}`), &u))

	require.NotNil(t, u.Email)
	assert.Equal(t, "new@x.com", *u.Email)
	assert.Nil(t, u.Name)
	assert.NoError(t, Struct(u))
}

func TestUpdateContact_EmptyStringStillValidated(t *testing.T) {
	var u dto.UpdateContact
	require.NoError(t, json.Unmarshal([]byte(`{"name":"   "}`), &u))

	assert.Equal(t, "Name must be at least 2 characters", fieldMessages(t, Struct(u))["name"])
}

func TestBulkDelete(t *testing.T) {
	got := fieldMessages(t, Struct(dto.BulkDelete{IDs: []string{}}))
	assert.Equal(t, "At least one contact ID is required", got["ids"])

	ids := make([]string, 101)
	for i := range ids {
		ids[i] = "507f1f77bcf86cd799439011"
	}
	got = fieldMessages(t, Struct(dto.BulkDelete{IDs: ids}))
	assert.Equal(t, "Cannot delete more than 100 contacts at once", got["ids"])

	got = fieldMessages(t, Struct(dto.BulkDelete{IDs: []string{"507f1f77bcf86cd799439011", "nope"}}))
	assert.Equal(t, map[string]string{"ids[1]": "Invalid contact ID"}, got)
}

func TestContactURI(t *testing.T) {
	assert.NoError(t, Struct(dto.ContactURI{ID: "507F1F77BCF86CD799439011"}))
	assert.Equal(t, "Invalid contact ID", fieldMessages(t, Struct(dto.ContactURI{ID: "123"}))["id"])
}

func TestListContactsQuery(t *testing.T) {
	zero, big := 0, 5001
	got := fieldMessages(t, Struct(dto.ListContactsQuery{Page: &zero, Limit: &big, Category: "Nope"}))

	assert.Equal(t, "Page must be a positive number", got["page"])
	assert.Equal(t, "Limit must not exceed 5000", got["limit"])
	assert.Equal(t, "Category must be one of All, Work, Family, Friends, Other", got["category"])

	assert.NoError(t, Struct(dto.ListContactsQuery{Category: model.CategoryAll}))
}

func TestErrors_DecodeFailures(t *testing.T) {
	var c dto.CreateContact
	err := json.Unmarshal([]byte(`{"name": 12}`), &c)
	require.Error(t, err)
	assert.Equal(t, "name", Errors(err)[0].Field)

	err = json.Unmarshal([]byte(`{"name":`), &c)
	require.Error(t, err)
	assert.Equal(t, "body", Errors(err)[0].Field)
}
