// Package tui is the terminal front end: a paged contact list and a create
// form, both talking to the API through a Backend.
package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/japb1998/contacts/internal/dto"
	"github.com/japb1998/contacts/internal/listing"
	"github.com/japb1998/contacts/internal/model"
)

// Backend is what the views need from the API. contactclient.Client
// satisfies it.
type Backend interface {
	listing.Source
	Create(ctx context.Context, in dto.CreateContact) (*model.Contact, error)
	Delete(ctx context.Context, id string) error
	BulkDelete(ctx context.Context, ids []string) (dto.BulkDeleteResult, error)
}

// refresher is implemented by backends that keep responses around.
type refresher interface {
	Refresh(ctx context.Context)
}

type view int

const (
	viewList view = iota
	viewForm
)

// categoryFilters in cycle order.
var categoryFilters = []string{
	model.CategoryAll,
	string(model.CategoryWork),
	string(model.CategoryFamily),
	string(model.CategoryFriends),
	string(model.CategoryOther),
}

type (
	loadedMsg struct {
		res listing.Result
	}
	errMsg struct {
		err error
	}
	deletedMsg struct {
		message string
	}
	createdMsg struct {
		contact *model.Contact
	}
)

// Model is the root bubbletea model.
type Model struct {
	ctx     context.Context
	backend Backend
	// mu serializes Lister calls, load commands run on their own goroutines.
	mu     *sync.Mutex
	lister *listing.Lister

	view   view
	keys   listKeys
	help   help.Model
	width  int
	height int

	query     listing.Query
	result    listing.Result
	loading   bool
	cursor    int
	selected  map[string]bool
	search    textinput.Model
	searching bool

	status string
	err    error

	form form
}

// New builds the model. pageSize <= 0 uses the API default.
func New(ctx context.Context, backend Backend, lister *listing.Lister, pageSize int) Model {
	if pageSize <= 0 {
		pageSize = dto.DefaultLimit
	}
	search := textinput.New()
	search.Cursor.SetMode(cursor.CursorStatic)
	search.Prompt = "/ "
	search.Placeholder = "name, email or phone"
	search.CharLimit = 100

	return Model{
		ctx:      ctx,
		backend:  backend,
		mu:       &sync.Mutex{},
		lister:   lister,
		keys:     listKeyMap(),
		help:     help.New(),
		query:    listing.Query{Page: 1, Limit: pageSize, Category: model.CategoryAll},
		selected: make(map[string]bool),
		search:   search,
		form:     newForm(),
	}
}

func (m Model) Init() tea.Cmd {
	return m.load()
}

func (m Model) load() tea.Cmd {
	q := m.query
	ctx, lister, mu := m.ctx, m.lister, m.mu
	return func() tea.Msg {
		mu.Lock()
		defer mu.Unlock()
		res, err := lister.Load(ctx, q)
		if err != nil {
			return errMsg{err}
		}
		return loadedMsg{res}
	}
}

func (m Model) reload() (Model, tea.Cmd) {
	m.loading = true
	m.err = nil
	return m, m.load()
}

// refetch reloads without reusing anything the lister or backend kept.
func (m Model) refetch() (Model, tea.Cmd) {
	ctx, backend, lister, mu := m.ctx, m.backend, m.lister, m.mu
	m.loading = true
	m.err = nil
	load := m.load()
	return m, func() tea.Msg {
		mu.Lock()
		if r, ok := backend.(refresher); ok {
			r.Refresh(ctx)
		}
		lister.Invalidate()
		mu.Unlock()
		return load()
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case loadedMsg:
		m.loading = false
		res := msg.res
		if res.TotalPages > 0 && res.Page > res.TotalPages {
			m.query.Page = 1
			return m.reload()
		}
		m.result = res
		m.query.Page = res.Page
		if m.cursor >= len(res.Contacts) {
			m.cursor = max(len(res.Contacts)-1, 0)
		}
		return m, nil

	case errMsg:
		m.loading = false
		if m.view == viewForm {
			m.form = m.form.withServerError(msg.err)
			return m, nil
		}
		m.err = msg.err
		return m, nil

	case deletedMsg:
		m.status = msg.message
		m.selected = make(map[string]bool)
		return m.refetch()

	case createdMsg:
		m.view = viewList
		m.form = newForm()
		m.status = fmt.Sprintf("Created %s", msg.contact.Name)
		return m.refetch()

	case tea.KeyMsg:
		if m.view == viewForm {
			return m.updateForm(msg)
		}
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	contacts := m.result.Contacts
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(contacts)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Select):
		if len(contacts) > 0 {
			id := contacts[m.cursor].ID
			if m.selected[id] {
				delete(m.selected, id)
			} else {
				m.selected[id] = true
			}
		}

	case key.Matches(msg, m.keys.Prev):
		if m.query.Page > 1 {
			m.query.Page--
			return m.reload()
		}

	case key.Matches(msg, m.keys.Next):
		if m.query.Page < m.result.TotalPages {
			m.query.Page++
			return m.reload()
		}

	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.search.SetValue(m.query.Search)
		cmd := m.search.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Category):
		m.query.Category = nextCategory(m.query.Category)
		return m.reload()

	case key.Matches(msg, m.keys.Refresh):
		return m.refetch()

	case key.Matches(msg, m.keys.New):
		m.view = viewForm
		m.form = newForm()
		cmd := m.form.focus()
		return m, cmd

	case key.Matches(msg, m.keys.Delete):
		if len(contacts) == 0 {
			return m, nil
		}
		c := contacts[m.cursor]
		return m, m.deleteOne(c)

	case key.Matches(msg, m.keys.BulkDelete):
		if len(m.selected) == 0 {
			m.status = "Nothing selected"
			return m, nil
		}
		return m, m.deleteSelected()
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		m.query.Search = strings.TrimSpace(m.search.Value())
		return m.reload()
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.form.keys.Cancel) {
		m.view = viewList
		return m, nil
	}
	if key.Matches(msg, m.form.keys.Submit) {
		in, valid := m.form.validate()
		if !valid {
			return m, nil
		}
		return m, m.create(in)
	}
	var cmd tea.Cmd
	m.form, cmd = m.form.update(msg)
	return m, cmd
}

func (m Model) deleteOne(c model.Contact) tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		if err := backend.Delete(ctx, c.ID); err != nil {
			return errMsg{err}
		}
		return deletedMsg{message: fmt.Sprintf("Deleted %s", c.Name)}
	}
}

func (m Model) deleteSelected() tea.Cmd {
	ids := make([]string, 0, len(m.selected))
	for id := range m.selected {
		ids = append(ids, id)
	}
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		res, err := backend.BulkDelete(ctx, ids)
		if err != nil {
			return errMsg{err}
		}
		return deletedMsg{message: res.Message}
	}
}

func (m Model) create(in dto.CreateContact) tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		c, err := backend.Create(ctx, in)
		if err != nil {
			return errMsg{err}
		}
		return createdMsg{c}
	}
}

func nextCategory(current string) string {
	for i, c := range categoryFilters {
		if c == current {
			return categoryFilters[(i+1)%len(categoryFilters)]
		}
	}
	return categoryFilters[0]
}

func (m Model) View() string {
	if m.view == viewForm {
		return m.form.view()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Contacts"))
	b.WriteString("\n\n")

	if m.searching {
		b.WriteString(m.search.View())
	} else {
		search := m.query.Search
		if search == "" {
			search = dimStyle.Render("none")
		}
		fmt.Fprintf(&b, "search: %s   category: %s", search, m.query.Category)
	}
	b.WriteString("\n\n")

	b.WriteString(m.viewRows())
	b.WriteString("\n")

	fmt.Fprintf(&b, "page %d/%d  total %d  %s",
		m.result.Page, m.result.TotalPages, m.result.Total, modeBadge(m.result.Mode.String()))
	if len(m.selected) > 0 {
		fmt.Fprintf(&b, "  %d selected", len(m.selected))
	}
	if m.loading {
		b.WriteString(dimStyle.Render("  loading..."))
	}
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	case m.status != "":
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) viewRows() string {
	if len(m.result.Contacts) == 0 {
		return dimStyle.Render("No contacts found") + "\n"
	}
	rows := make([]string, 0, len(m.result.Contacts))
	for i, c := range m.result.Contacts {
		mark := "[ ]"
		if m.selected[c.ID] {
			mark = "[x]"
		}
		line := fmt.Sprintf("%s %-24s %-28s %-15s %s", mark, c.Name, c.Email, c.Phone, categoryBadge(c.Category))
		if i == m.cursor {
			line = cursorStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		rows = append(rows, line)
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...) + "\n"
}
