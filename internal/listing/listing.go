// Package listing decides whether a contact list is filtered and paginated
// by the caller or by the API, and implements the caller side.
package listing

import (
	"context"
	"fmt"
	"sort"

	"github.com/japb1998/contacts/internal/dto"
	"github.com/japb1998/contacts/internal/model"
)

// DefaultThreshold is the largest collection still filtered locally. The
// list endpoint caps limit at the same value so one request fetches it all.
const DefaultThreshold = dto.MaxLimit

type Mode int

const (
	ModeServer Mode = iota
	ModeClient
)

func (m Mode) String() string {
	if m == ModeClient {
		return "client"
	}
	return "server"
}

// ChooseMode returns ModeClient iff 0 < total <= threshold.
func ChooseMode(total int64, threshold int) Mode {
	if total > 0 && total <= int64(threshold) {
		return ModeClient
	}
	return ModeServer
}

// Query is one list request. Page is 1 based.
type Query struct {
	Page     int
	Limit    int
	Search   string
	Category string
}

func (q Query) withDefaults() Query {
	if q.Page < 1 {
		q.Page = dto.DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = dto.DefaultLimit
	}
	return q
}

// Source is the list endpoint, or anything answering like it.
type Source interface {
	List(ctx context.Context, q Query) (dto.ContactPage, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, q Query) (dto.ContactPage, error)

func (f SourceFunc) List(ctx context.Context, q Query) (dto.ContactPage, error) {
	return f(ctx, q)
}

// Count asks src for the unfiltered collection size with a one record page.
func Count(ctx context.Context, src Source) (int64, error) {
	p, err := src.List(ctx, Query{Page: 1, Limit: 1})
	if err != nil {
		return 0, err
	}
	return p.Total, nil
}

// FilterPage filters contacts, orders them newest first and cuts page
// q.Page. A page past the end is empty but still carries the totals.
func FilterPage(contacts []model.Contact, q Query) dto.ContactPage {
	q = q.withDefaults()

	matched := make([]model.Contact, 0, len(contacts))
	for _, c := range contacts {
		if c.Matches(q.Search, q.Category) {
			matched = append(matched, c)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := (q.Page - 1) * q.Limit
	end := start + q.Limit
	if start > len(matched) {
		start = len(matched)
	}
	if end > len(matched) {
		end = len(matched)
	}

	return dto.ContactPage{
		Contacts: matched[start:end],
		Pagination: dto.Pagination{
			Page:       q.Page,
			Limit:      q.Limit,
			Total:      total,
			TotalPages: dto.TotalPages(total, q.Limit),
		},
	}
}

// Result is a loaded page and the mode that produced it.
type Result struct {
	dto.ContactPage
	Mode Mode
}

// Lister loads pages through a Source. It remembers the last search and
// category so that a change restarts client side paging at page 1, and in
// client mode keeps the fetched collection until the count changes or
// Invalidate is called.
// A Lister is not safe for concurrent use.
type Lister struct {
	src       Source
	threshold int

	loaded       bool
	lastSearch   string
	lastCategory string

	dataset      []model.Contact
	datasetTotal int64
	haveDataset  bool
}

// Invalidate drops the collection kept for client mode. Call it after a
// mutation that leaves the count unchanged, e.g. an update.
func (l *Lister) Invalidate() {
	l.dataset = nil
	l.haveDataset = false
}

func NewLister(src Source, threshold int) (*Lister, error) {
	if threshold < 1 || threshold > dto.MaxLimit {
		return nil, fmt.Errorf("threshold must be between 1 and %d, got %d", dto.MaxLimit, threshold)
	}
	return &Lister{src: src, threshold: threshold}, nil
}

func (l *Lister) Threshold() int {
	return l.threshold
}

// Load returns the page described by q. Errors from the source are
// returned unchanged.
func (l *Lister) Load(ctx context.Context, q Query) (Result, error) {
	q = q.withDefaults()

	total, err := Count(ctx, l.src)
	if err != nil {
		return Result{}, err
	}

	mode := ChooseMode(total, l.threshold)
	changed := l.loaded && (q.Search != l.lastSearch || q.Category != l.lastCategory)

	var page dto.ContactPage
	switch mode {
	case ModeClient:
		if changed {
			q.Page = 1
		}
		if !l.haveDataset || l.datasetTotal != total {
			all, err := l.src.List(ctx, Query{Page: 1, Limit: l.threshold})
			if err != nil {
				return Result{}, err
			}
			l.dataset, l.datasetTotal, l.haveDataset = all.Contacts, total, true
		}
		page = FilterPage(l.dataset, q)
	default:
		l.Invalidate()
		page, err = l.src.List(ctx, q)
		if err != nil {
			return Result{}, err
		}
	}

	l.loaded = true
	l.lastSearch = q.Search
	l.lastCategory = q.Category

	return Result{ContactPage: page, Mode: mode}, nil
}
