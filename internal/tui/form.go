package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/japb1998/contacts/internal/dto"
	"github.com/japb1998/contacts/internal/errs"
	"github.com/japb1998/contacts/internal/model"
	"github.com/japb1998/contacts/internal/validation"
	"github.com/japb1998/contacts/pkg/contactclient"
)

const (
	fieldName = iota
	fieldEmail
	fieldPhone
	fieldCategory
	fieldMessage
	fieldCount
)

var fieldKeys = [fieldCount]string{"name", "email", "phone", "category", "message"}

// form is the create view. Category is cycled rather than typed, so it has
// no text input.
type form struct {
	keys     formKeys
	help     help.Model
	inputs   [fieldCount]textinput.Model
	category int
	focused  int
	errors   map[string]string
	failure  string
}

func newForm() form {
	f := form{
		keys:   formKeyMap(),
		help:   help.New(),
		errors: make(map[string]string),
	}
	limits := [fieldCount]int{50, 254, 15, 0, 500}
	for i := range f.inputs {
		if i == fieldCategory {
			continue
		}
		in := textinput.New()
		in.Cursor.SetMode(cursor.CursorStatic)
		in.Prompt = ""
		in.CharLimit = limits[i]
		f.inputs[i] = in
	}
	f.inputs[fieldPhone].Placeholder = "5551234567"
	f.category = len(model.Categories) - 1
	return f
}

func (f *form) focus() tea.Cmd {
	for i := range f.inputs {
		if i == fieldCategory {
			continue
		}
		f.inputs[i].Blur()
	}
	if f.focused == fieldCategory {
		return nil
	}
	return f.inputs[f.focused].Focus()
}

func (f form) update(msg tea.KeyMsg) (form, tea.Cmd) {
	switch {
	case key.Matches(msg, f.keys.Next):
		f.focused = (f.focused + 1) % fieldCount
		cmd := f.focus()
		return f, cmd
	case key.Matches(msg, f.keys.Prev):
		f.focused = (f.focused + fieldCount - 1) % fieldCount
		cmd := f.focus()
		return f, cmd
	}

	if f.focused == fieldCategory {
		switch msg.String() {
		case "right":
			f.category = (f.category + 1) % len(model.Categories)
		case "left":
			f.category = (f.category + len(model.Categories) - 1) % len(model.Categories)
		}
		return f, nil
	}

	var cmd tea.Cmd
	f.inputs[f.focused], cmd = f.inputs[f.focused].Update(msg)
	return f, cmd
}

func (f form) value() dto.CreateContact {
	in := dto.CreateContact{
		Name:     f.inputs[fieldName].Value(),
		Email:    f.inputs[fieldEmail].Value(),
		Phone:    f.inputs[fieldPhone].Value(),
		Category: model.Categories[f.category],
		Message:  f.inputs[fieldMessage].Value(),
	}
	in.Normalize()
	return in
}

// validate checks the form with the same rules the API applies and
// records field errors on the form.
func (f *form) validate() (dto.CreateContact, bool) {
	in := f.value()
	f.errors = make(map[string]string)
	f.failure = ""

	err := validation.Struct(in)
	if err == nil {
		return in, true
	}
	var ve *errs.ValidationError
	if errors.As(err, &ve) {
		f.setFieldErrors(ve.Fields)
	} else {
		f.failure = err.Error()
	}
	return in, false
}

func (f *form) setFieldErrors(fields []errs.FieldError) {
	for _, fe := range fields {
		if _, taken := f.errors[fe.Field]; !taken {
			f.errors[fe.Field] = fe.Message
		}
	}
}

// withServerError shows an API rejection next to the offending field.
func (f form) withServerError(err error) form {
	f.errors = make(map[string]string)
	f.failure = ""

	apiErr, isAPI := contactclient.AsAPIError(err)
	switch {
	case isAPI && apiErr.IsConflict() && apiErr.Conflict != nil:
		f.errors[apiErr.Conflict.Field] = apiErr.Message
	case isAPI && apiErr.IsValidation() && len(apiErr.Errors) > 0:
		f.failure = apiErr.Message
		f.setFieldErrors(apiErr.Errors)
	default:
		f.failure = err.Error()
	}
	return f
}

func (f form) view() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("New contact"))
	b.WriteString("\n\n")

	for i := 0; i < fieldCount; i++ {
		label := labelStyle
		if i == f.focused {
			label = focusedLabel
		}
		b.WriteString(label.Render(fieldKeys[i]))

		if i == fieldCategory {
			fmt.Fprintf(&b, "‹ %s ›", categoryBadge(model.Categories[f.category]))
		} else {
			b.WriteString(f.inputs[i].View())
		}
		if msg, found := f.errors[fieldKeys[i]]; found {
			b.WriteString("  ")
			b.WriteString(errorStyle.Render(msg))
		}
		b.WriteString("\n")
	}

	if f.failure != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(f.failure))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(f.help.View(f.keys))
	return panelStyle.Render(b.String())
}
