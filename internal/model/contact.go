package model

import (
	"strings"
	"time"
)

// Category classifies a contact.
type Category string

const (
	CategoryWork    Category = "Work"
	CategoryFamily  Category = "Family"
	CategoryFriends Category = "Friends"
	CategoryOther   Category = "Other"
)

// CategoryAll is the list filter value that disables category matching.
const CategoryAll = "All"

// Categories in display order.
var Categories = []Category{CategoryWork, CategoryFamily, CategoryFriends, CategoryOther}

// Valid reports whether c is one of the four known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryWork, CategoryFamily, CategoryFriends, CategoryOther:
		return true
	}
	return false
}

// Contact is the only entity managed by the service.
type Contact struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Category  Category  `json:"category"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewContact builds a contact ready to be inserted. ID and timestamps are
// assigned by the persistence layer.
func NewContact(name, email, phone string, category Category, message string) *Contact {
	if category == "" {
		category = CategoryOther
	}
	return &Contact{
		Name:     strings.TrimSpace(name),
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Phone:    strings.TrimSpace(phone),
		Category: category,
		Message:  message,
	}
}

// Matches reports whether the contact satisfies a free text search and a
// category filter. Search is a case-insensitive substring match against
// name, email or phone; an empty search matches everything. An empty
// category or CategoryAll disables category matching.
func (c Contact) Matches(search, category string) bool {
	if category != "" && category != CategoryAll && string(c.Category) != category {
		return false
	}
	if search == "" {
		return true
	}
	s := strings.ToLower(search)
	return strings.Contains(strings.ToLower(c.Name), s) ||
		strings.Contains(strings.ToLower(c.Email), s) ||
		strings.Contains(strings.ToLower(c.Phone), s)
}
