package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"

	"github.com/japb1998/contacts/internal/cache"
	"github.com/japb1998/contacts/internal/dto"
	"github.com/japb1998/contacts/internal/listing"
	"github.com/japb1998/contacts/internal/model"
	"github.com/japb1998/contacts/internal/tui"
	"github.com/japb1998/contacts/pkg/contactclient"
)

var version = "dev"

// Globals are flags shared by every command.
type Globals struct {
	APIURL    string        `name:"api-url" env:"CONTACTS_API_URL" default:"http://localhost:8001/api/v1" help:"Base URL of the contacts API."`
	Threshold int           `default:"5000" help:"Largest collection filtered locally (1-5000)."`
	Timeout   time.Duration `default:"10s" help:"HTTP timeout."`
	JSON      bool          `help:"Print JSON instead of tables."`

	out io.Writer
}

func (g *Globals) client() *contactclient.Client {
	return contactclient.New(g.APIURL,
		contactclient.WithHTTPClient(&http.Client{Timeout: g.Timeout}),
		contactclient.WithCache(cache.NewMemory(cache.DefaultStaleTime), 0),
	)
}

func (g *Globals) print(v any) error {
	enc := json.NewEncoder(g.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// CLI is the top level command structure.
type CLI struct {
	Globals

	Version    kong.VersionFlag `help:"Show version." short:"V"`
	List       ListCmd          `cmd:"" help:"List contacts."`
	Get        GetCmd           `cmd:"" help:"Show one contact."`
	Create     CreateCmd        `cmd:"" help:"Create a contact."`
	Update     UpdateCmd        `cmd:"" help:"Update fields of a contact."`
	Delete     DeleteCmd        `cmd:"" help:"Delete a contact."`
	BulkDelete BulkDeleteCmd    `cmd:"" name:"bulk-delete" help:"Delete up to 100 contacts."`
	Health     HealthCmd        `cmd:"" help:"Check the API is up."`
	TUI        TUICmd           `cmd:"" name:"tui" help:"Open the interactive contact list."`
}

type ListCmd struct {
	Page     int    `default:"1" help:"Page number."`
	Limit    int    `default:"10" help:"Page size."`
	Search   string `short:"s" help:"Match name, email or phone."`
	Category string `short:"c" default:"All" enum:"All,Work,Family,Friends,Other" help:"Category filter."`
}

func (c *ListCmd) Run(g *Globals) error {
	lister, err := listing.NewLister(g.client(), g.Threshold)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	res, err := lister.Load(context.Background(), listing.Query{
		Page:     c.Page,
		Limit:    c.Limit,
		Search:   c.Search,
		Category: c.Category,
	})
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	if g.JSON {
		return g.print(res)
	}

	_, _ = fmt.Fprintln(g.out, contactTable(res.Contacts))
	_, _ = fmt.Fprintf(g.out, "page %d/%d, %d total (%s side)\n", res.Page, res.TotalPages, res.Total, res.Mode)
	return nil
}

type GetCmd struct {
	ID string `arg:"" help:"Contact ID."`
}

func (c *GetCmd) Run(g *Globals) error {
	contact, err := g.client().Get(context.Background(), c.ID)
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	return g.printContact(contact)
}

type CreateCmd struct {
	Name     string `required:"" help:"Full name."`
	Email    string `required:"" help:"Email, unique."`
	Phone    string `required:"" help:"Phone, 10 to 15 digits."`
	Category string `enum:"Work,Family,Friends,Other" default:"Other" help:"Category."`
	Message  string `help:"Free text note."`
}

func (c *CreateCmd) Run(g *Globals) error {
	contact, err := g.client().Create(context.Background(), dto.CreateContact{
		Name:     c.Name,
		Email:    c.Email,
		Phone:    c.Phone,
		Category: model.Category(c.Category),
		Message:  c.Message,
	})
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	return g.printContact(contact)
}

// UpdateCmd only sends the flags that were given.
type UpdateCmd struct {
	ID       string `arg:"" help:"Contact ID."`
	Name     string `help:"Full name."`
	Email    string `help:"Email."`
	Phone    string `help:"Phone."`
	Category string `enum:",Work,Family,Friends,Other" default:"" help:"Category."`
	Message  string `help:"Free text note."`
}

func (c *UpdateCmd) patch() dto.UpdateContact {
	var in dto.UpdateContact
	set := func(v string) *string {
		if v == "" {
			return nil
		}
		return &v
	}
	in.Name = set(c.Name)
	in.Email = set(c.Email)
	in.Phone = set(c.Phone)
	in.Message = set(c.Message)
	if c.Category != "" {
		cat := model.Category(c.Category)
		in.Category = &cat
	}
	return in
}

func (c *UpdateCmd) Run(g *Globals) error {
	contact, err := g.client().Update(context.Background(), c.ID, c.patch())
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	return g.printContact(contact)
}

type DeleteCmd struct {
	ID string `arg:"" help:"Contact ID."`
}

func (c *DeleteCmd) Run(g *Globals) error {
	if err := g.client().Delete(context.Background(), c.ID); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	_, _ = fmt.Fprintf(g.out, "Deleted %s\n", c.ID)
	return nil
}

type BulkDeleteCmd struct {
	IDs []string `arg:"" name:"id" help:"Contact IDs."`
}

func (c *BulkDeleteCmd) Run(g *Globals) error {
	res, err := g.client().BulkDelete(context.Background(), c.IDs)
	if err != nil {
		return fmt.Errorf("bulk-delete: %w", err)
	}
	if g.JSON {
		return g.print(res)
	}
	_, _ = fmt.Fprintln(g.out, res.Message)
	return nil
}

type HealthCmd struct{}

func (c *HealthCmd) Run(g *Globals) error {
	h, err := g.client().Health(context.Background())
	if err != nil {
		return fmt.Errorf("health: %w", err)
	}
	if g.JSON {
		return g.print(h)
	}
	_, _ = fmt.Fprintf(g.out, "%s (up %.0fs)\n", h.Message, h.Uptime)
	return nil
}

type TUICmd struct {
	PageSize int `default:"10" help:"Rows per page."`
}

func (c *TUICmd) Run(g *Globals) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return fmt.Errorf("tui: requires a terminal (TTY)")
	}

	client := g.client()
	lister, err := listing.NewLister(client, g.Threshold)
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p := tea.NewProgram(tui.New(ctx, client, lister, c.PageSize), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

func (g *Globals) printContact(c *model.Contact) error {
	if g.JSON {
		return g.print(c)
	}
	_, _ = fmt.Fprintln(g.out, contactTable([]model.Contact{*c}))
	return nil
}

func contactTable(contacts []model.Contact) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "EMAIL", "PHONE", "CATEGORY", "CREATED")
	for _, c := range contacts {
		t.Row(c.ID, c.Name, c.Email, c.Phone, string(c.Category), c.CreatedAt.Format(time.RFC3339))
	}
	return t.String()
}

// describe renders API errors with their field details.
func describe(err error) string {
	apiErr, ok := contactclient.AsAPIError(err)
	if !ok {
		return err.Error()
	}
	var b strings.Builder
	b.WriteString(err.Error())
	for _, fe := range apiErr.Errors {
		fmt.Fprintf(&b, "\n  %s: %s", fe.Field, fe.Message)
	}
	if apiErr.Conflict != nil {
		fmt.Fprintf(&b, " (%s: %s)", apiErr.Conflict.Field, apiErr.Conflict.Value)
	}
	return b.String()
}

func exitCode(err error) int {
	if apiErr, ok := contactclient.AsAPIError(err); ok && apiErr.IsNotFound() {
		return 3
	}
	return 1
}

func main() {
	var cli CLI
	cli.out = os.Stdout
	ctx := kong.Parse(&cli,
		kong.Name("contacts"),
		kong.Description("Manage contacts through the contacts API."),
		kong.Vars{"version": version},
		kong.Bind(&cli.Globals),
	)
	if err := ctx.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", describe(err))
		os.Exit(exitCode(err))
	}
}
