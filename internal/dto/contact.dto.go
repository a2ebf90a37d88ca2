package dto

import (
	"encoding/json"
	"strings"

	"github.com/japb1998/contacts/internal/model"
)

// CreateContact payload for creating a contact.
type CreateContact struct {
	Name     string         `json:"name" binding:"required,min=2,max=50"`
	Email    string         `json:"email" binding:"required,email"`
	Phone    string         `json:"phone" binding:"required,min=10,max=15,phone"`
	Category model.Category `json:"category" binding:"omitempty,category"`
	Message  string         `json:"message,omitempty" binding:"omitempty,max=500"`
}

// UnmarshalJSON trims the text fields, lower-cases the email and defaults the
// category so validation runs against the normalized values.
func (c *CreateContact) UnmarshalJSON(b []byte) error {
	type alias CreateContact
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*c = CreateContact(a)
	c.Normalize()
	return nil
}

func (c *CreateContact) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.Phone = strings.TrimSpace(c.Phone)
	if c.Category == "" {
		c.Category = model.CategoryOther
	}
}

// UpdateContact payload for updating a contact. Nil fields are left untouched.
type UpdateContact struct {
	Name     *string         `json:"name,omitempty" binding:"omitnil,min=2,max=50"`
	Email    *string         `json:"email,omitempty" binding:"omitnil,email"`
	Phone    *string         `json:"phone,omitempty" binding:"omitnil,min=10,max=15,phone"`
	Category *model.Category `json:"category,omitempty" binding:"omitnil,category"`
	Message  *string         `json:"message,omitempty" binding:"omitnil,max=500"`
}

func (u *UpdateContact) UnmarshalJSON(b []byte) error {
	type alias UpdateContact
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*u = UpdateContact(a)
	u.Normalize()
	return nil
}

func (u *UpdateContact) Normalize() {
	if u.Name != nil {
		*u.Name = strings.TrimSpace(*u.Name)
	}
	if u.Email != nil {
		*u.Email = strings.ToLower(strings.TrimSpace(*u.Email))
	}
	if u.Phone != nil {
		*u.Phone = strings.TrimSpace(*u.Phone)
	}
}

// Empty reports whether no field was provided.
func (u UpdateContact) Empty() bool {
	return u.Name == nil && u.Email == nil && u.Phone == nil && u.Category == nil && u.Message == nil
}

// ContactURI binds the :id path parameter.
type ContactURI struct {
	ID string `uri:"id" binding:"required,objectid"`
}

// BulkDelete payload for deleting many contacts at once.
type BulkDelete struct {
	IDs []string `json:"ids" binding:"required,min=1,max=100,dive,objectid"`
}

// SeedContact is one record of a seed file. Phones are free form and get
// normalized before validation.
type SeedContact struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Category string `json:"category,omitempty"`
	Message  string `json:"message,omitempty"`
}
