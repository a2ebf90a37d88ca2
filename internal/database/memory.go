package database

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/japb1998/contacts/internal/errs"
	"github.com/japb1998/contacts/internal/model"
)

// MemoryRepository keeps contacts in insertion order behind a mutex.
type MemoryRepository struct {
	mu       sync.RWMutex
	contacts []model.Contact
	now      func() time.Time
}

type MemoryOption func(*MemoryRepository)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) MemoryOption {
	return func(r *MemoryRepository) {
		r.now = now
	}
}

func NewMemoryRepository(opts ...MemoryOption) *MemoryRepository {
	r := &MemoryRepository{now: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *MemoryRepository) Insert(_ context.Context, c *model.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOfEmail(c.Email, "") >= 0 {
		return &errs.ConflictError{Field: "email", Value: c.Email}
	}

	now := r.now().UTC()
	c.ID = bson.NewObjectID().Hex()
	c.CreatedAt = now
	c.UpdatedAt = now
	r.contacts = append(r.contacts, *c)
	return nil
}

func (r *MemoryRepository) FindByID(_ context.Context, id string) (*model.Contact, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, errs.InvalidID(id)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(oid.Hex())
	if i < 0 {
		return nil, errs.ErrNotFound
	}
	c := r.contacts[i]
	return &c, nil
}

func (r *MemoryRepository) FindPage(_ context.Context, f ContactFilter, p PaginationOps) ([]model.Contact, int64, error) {
	r.mu.RLock()
	matched := make([]model.Contact, 0)
	for _, c := range r.contacts {
		if f.Matches(c) {
			matched = append(matched, c)
		}
	}
	r.mu.RUnlock()

	// newest first; equal timestamps keep insertion order
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if p.Skip >= len(matched) {
		return []model.Contact{}, total, nil
	}
	end := len(matched)
	if p.Limit > 0 && p.Skip+p.Limit < end {
		end = p.Skip + p.Limit
	}
	return matched[p.Skip:end], total, nil
}

func (r *MemoryRepository) UpdateByID(_ context.Context, id string, patch ContactPatch) (*model.Contact, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, errs.InvalidID(id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(oid.Hex())
	if i < 0 {
		return nil, errs.ErrNotFound
	}
	if patch.Email != nil && r.indexOfEmail(*patch.Email, oid.Hex()) >= 0 {
		return nil, &errs.ConflictError{Field: "email", Value: *patch.Email}
	}

	c := r.contacts[i]
	patch.apply(&c)
	c.UpdatedAt = r.now().UTC()
	r.contacts[i] = c
	return &c, nil
}

func (r *MemoryRepository) DeleteByID(_ context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return errs.InvalidID(id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(oid.Hex())
	if i < 0 {
		return errs.ErrNotFound
	}
	r.contacts = append(r.contacts[:i], r.contacts[i+1:]...)
	return nil
}

func (r *MemoryRepository) DeleteMany(_ context.Context, ids []string) (int64, error) {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		oid, err := bson.ObjectIDFromHex(id)
		if err != nil {
			return 0, errs.InvalidID(id)
		}
		set[oid.Hex()] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.contacts[:0]
	var deleted int64
	for _, c := range r.contacts {
		if _, ok := set[c.ID]; ok {
			deleted++
			continue
		}
		kept = append(kept, c)
	}
	r.contacts = kept
	return deleted, nil
}

func (r *MemoryRepository) indexOf(id string) int {
	for i, c := range r.contacts {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// indexOfEmail ignores the contact with id skip.
func (r *MemoryRepository) indexOfEmail(email, skip string) int {
	for i, c := range r.contacts {
		if strings.EqualFold(c.Email, email) && c.ID != skip {
			return i
		}
	}
	return -1
}
