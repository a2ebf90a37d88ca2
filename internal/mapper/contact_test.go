package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/japb1998/contacts/internal/dto"
	"github.com/japb1998/contacts/internal/model"
)

func TestParsePhoneNumber(t *testing.T) {
	tests := map[string]string{
		"(321) 277-0753":   "+13212770753",
		"+44 20 7946 0958": "+442079460958",
		"321.277.0753":     "+13212770753",
		"13212770753":      "13212770753",
		"":                 "",
		"  ":               "",
	}
	for in, want := range tests {
		assert.Equal(t, want, ParsePhoneNumber(in), in)
	}
}

func TestSeedContactToCreate(t *testing.T) {
	in := SeedContactToCreate(dto.SeedContact{
		Name:     "  Jane Doe ",
		Email:    "Jane@Example.COM",
		Phone:    "(321) 277-0753",
		Category: " Family ",
		Message:  "met at the conference",
	})

	assert.Equal(t, "Jane Doe", in.Name)
	assert.Equal(t, "jane@example.com", in.Email)
	assert.Equal(t, "+13212770753", in.Phone)
	assert.Equal(t, model.CategoryFamily, in.Category)
	assert.Equal(t, "met at the conference", in.Message)

	assert.Equal(t, model.CategoryOther, SeedContactToCreate(dto.SeedContact{Name: "x"}).Category)
}
