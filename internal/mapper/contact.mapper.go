package mapper

import (
	"regexp"
	"strings"

	"github.com/japb1998/contacts/internal/dto"
	"github.com/japb1998/contacts/internal/model"
)

var digits = regexp.MustCompile(`[0-9]+`)

// SeedContactToCreate maps an imported record to a create request.
func SeedContactToCreate(s dto.SeedContact) dto.CreateContact {
	in := dto.CreateContact{
		Name:     s.Name,
		Email:    s.Email,
		Phone:    ParsePhoneNumber(s.Phone),
		Category: model.Category(strings.TrimSpace(s.Category)),
		Message:  s.Message,
	}
	in.Normalize()
	return in
}

// ParsePhoneNumber strips formatting. Ten digit numbers are assumed to be
// US numbers and get +1, numbers written with a leading + keep it.
func ParsePhoneNumber(n string) string {
	n = strings.TrimSpace(n)
	if n == "" {
		return ""
	}

	p := strings.Join(digits.FindAllString(n, -1), "")
	switch {
	case strings.HasPrefix(n, "+"):
		return "+" + p
	case len(p) == 10:
		return "+1" + p
	}
	return p
}
