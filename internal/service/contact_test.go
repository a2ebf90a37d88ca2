package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/japb1998/contacts/internal/cache"
	"github.com/japb1998/contacts/internal/database"
	"github.com/japb1998/contacts/internal/dto"
	"github.com/japb1998/contacts/internal/errs"
	"github.com/japb1998/contacts/internal/model"
)

func newService(t *testing.T, opts ...Option) *ContactService {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	repo := database.NewMemoryRepository(database.WithClock(func() time.Time {
		now = now.Add(time.Second)
		return now
	}))
	return NewContactService(repo, zap.NewNop(), opts...)
}

func create(t *testing.T, s *ContactService, name, email string, cat model.Category) *model.Contact {
	t.Helper()
	c, err := s.Create(context.Background(), dto.CreateContact{
		Name:     name,
		Email:    email,
		Phone:    "5551234567",
		Category: cat,
	})
	require.NoError(t, err)
	return c
}

func TestCreate_DuplicateEmailConflict(t *testing.T) {
	s := newService(t)
	create(t, s, "Alice", "alice@x.com", model.CategoryWork)

	_, err := s.Create(context.Background(), dto.CreateContact{Name: "Alice Two", Email: "ALICE@X.com", Phone: "5551234567"})

	var ce *errs.ConflictError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "alice@x.com", ce.Value)
}

func TestCreate_RoundTrip(t *testing.T) {
	s := newService(t)
	in := dto.CreateContact{Name: " Bob ", Email: "Bob@X.com", Phone: "5559876543", Message: "hi"}

	created, err := s.Create(context.Background(), in)
	require.NoError(t, err)

	got, err := s.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bob", got.Name)
	assert.Equal(t, "bob@x.com", got.Email)
	assert.Equal(t, "5559876543", got.Phone)
	assert.Equal(t, "hi", got.Message)
	assert.Equal(t, model.CategoryOther, got.Category)
	assert.NotEmpty(t, got.ID)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Equal(t, got.CreatedAt, got.UpdatedAt)
}

func TestCreate_Invalid(t *testing.T) {
	s := newService(t)
	_, err := s.Create(context.Background(), dto.CreateContact{Name: "A", Email: "x", Phone: "1"})

	var ve *errs.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Len(t, ve.Fields, 3)
}

func TestScenario_SearchCategoryDelete(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	alice := create(t, s, "Alice", "alice@x.com", model.CategoryWork)
	create(t, s, "Bob", "bob@x.com", model.CategoryFamily)

	page, err := s.List(ctx, ListQuery{Page: 1, Limit: 10, Search: "ali"})
	require.NoError(t, err)
	require.Len(t, page.Contacts, 1)
	assert.Equal(t, "Alice", page.Contacts[0].Name)

	page, err = s.List(ctx, ListQuery{Page: 1, Limit: 10, Category: "Family"})
	require.NoError(t, err)
	require.Len(t, page.Contacts, 1)
	assert.Equal(t, "Bob", page.Contacts[0].Name)

	require.NoError(t, s.Delete(ctx, alice.ID))
	_, err = s.Get(ctx, alice.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.EqualError(t, err, "Contact not found")
}

func TestList_Pagination(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	for i := 0; i < 23; i++ {
		create(t, s, fmt.Sprintf("Person %02d", i), fmt.Sprintf("p%02d@x.com", i), model.CategoryOther)
	}

	first, err := s.List(ctx, ListQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 23, first.Total)
	assert.Equal(t, 3, first.TotalPages)
	assert.Equal(t, "Person 22", first.Contacts[0].Name)

	last, err := s.List(ctx, ListQuery{Page: 3, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, last.Contacts, 3)

	beyond, err := s.List(ctx, ListQuery{Page: 4, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, beyond.Contacts)
	assert.Equal(t, 4, beyond.Page)
	assert.EqualValues(t, 23, beyond.Total)
	assert.Equal(t, 3, beyond.TotalPages)

	defaults, err := s.List(ctx, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, defaults.Page)
	assert.Equal(t, 10, defaults.Limit)
}

func TestGet_MalformedIDIsNotFound(t *testing.T) {
	s := newService(t)
	_, err := s.Get(context.Background(), "not-an-id")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUpdate(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	alice := create(t, s, "Alice", "alice@x.com", model.CategoryWork)
	create(t, s, "Bob", "bob@x.com", model.CategoryWork)

	phone := "5550000000"
	got, err := s.Update(ctx, alice.ID, dto.UpdateContact{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, phone, got.Phone)
	assert.Equal(t, "Alice", got.Name)

	email := " BOB@x.com"
	_, err = s.Update(ctx, alice.ID, dto.UpdateContact{Email: &email})
	assert.ErrorIs(t, err, errs.ErrConflict)

	_, err = s.Update(ctx, alice.ID, dto.UpdateContact{})
	var ve *errs.ValidationError
	assert.True(t, errors.As(err, &ve))

	_, err = s.Update(ctx, "507f1f77bcf86cd799439011", dto.UpdateContact{Phone: &phone})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestDelete_Absent(t *testing.T) {
	s := newService(t)
	err := s.Delete(context.Background(), "507f1f77bcf86cd799439011")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestBulkDelete(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	a := create(t, s, "Alice", "alice@x.com", model.CategoryWork)
	b := create(t, s, "Bob", "bob@x.com", model.CategoryWork)
	c := create(t, s, "Carol", "carol@x.com", model.CategoryWork)
	require.NoError(t, s.Delete(ctx, c.ID))

	res, err := s.BulkDelete(ctx, []string{a.ID, b.ID, c.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.DeletedCount)
	assert.Equal(t, "Successfully deleted 2 contact(s)", res.Message)

	_, err = s.BulkDelete(ctx, []string{a.ID, b.ID})
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.EqualError(t, err, "No contacts found to delete")
}

func TestListCacheInvalidatedOnMutation(t *testing.T) {
	store := cache.NewMemory(time.Minute)
	s := newService(t, WithListCache(store, time.Minute))
	ctx := context.Background()
	create(t, s, "Alice", "alice@x.com", model.CategoryWork)

	page, err := s.List(ctx, ListQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)

	var cached dto.ContactPage
	found, err := store.Get(ctx, ListNamespace, ListQuery{Page: 1, Limit: 10}.cacheKey(), &cached)
	require.NoError(t, err)
	assert.True(t, found)

	create(t, s, "Bob", "bob@x.com", model.CategoryWork)

	page, err = s.List(ctx, ListQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
}

// pausingRepo holds FindPage after its read until release is closed.
type pausingRepo struct {
	*database.MemoryRepository
	armed   bool
	read    chan struct{}
	release chan struct{}
}

func (r *pausingRepo) FindPage(ctx context.Context, f database.ContactFilter, p database.PaginationOps) ([]model.Contact, int64, error) {
	contacts, total, err := r.MemoryRepository.FindPage(ctx, f, p)
	if r.armed {
		r.read <- struct{}{}
		<-r.release
	}
	return contacts, total, err
}

func listDuringCreate(t *testing.T, store cache.Store) {
	t.Helper()
	repo := &pausingRepo{
		MemoryRepository: database.NewMemoryRepository(),
		armed:            true,
		read:             make(chan struct{}),
		release:          make(chan struct{}),
	}
	s := NewContactService(repo, zap.NewNop(), WithListCache(store, time.Minute))
	ctx := context.Background()
	q := ListQuery{Page: 1, Limit: 10}

	done := make(chan error, 1)
	go func() {
		_, err := s.List(ctx, q)
		done <- err
	}()

	<-repo.read
	create(t, s, "Alice", "alice@x.com", model.CategoryWork)
	close(repo.release)
	require.NoError(t, <-done)
	repo.armed = false

	page, err := s.List(ctx, q)
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	assert.Len(t, page.Contacts, 1)
}

func TestListCache_MutationDuringRead_Memory(t *testing.T) {
	listDuringCreate(t, cache.NewMemory(time.Minute))
}

func TestListCache_MutationDuringRead_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	listDuringCreate(t, cache.NewRedis(client, "test", time.Minute))
}
