package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/japb1998/contacts/internal/cache"
	"github.com/japb1998/contacts/internal/database"
	"github.com/japb1998/contacts/internal/dto"
	"github.com/japb1998/contacts/internal/errs"
	"github.com/japb1998/contacts/internal/model"
	"github.com/japb1998/contacts/internal/validation"
)

const (
	// ListNamespace groups every cached list query.
	ListNamespace = "contacts"

	msgContactNotFound = "Contact not found"
	msgNoneDeleted     = "No contacts found to delete"
)

// ListQuery is a validated list request.
type ListQuery struct {
	Page     int
	Limit    int
	Search   string
	Category string
}

func (q ListQuery) cacheKey() string {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.Limit))
	v.Set("search", q.Search)
	v.Set("category", q.Category)
	return v.Encode()
}

type ContactService struct {
	Store    database.ContactRepository
	cache    cache.Store
	cacheTTL time.Duration
	logger   *zap.Logger
}

type Option func(*ContactService)

// WithListCache caches list pages in store. Every mutation invalidates them.
func WithListCache(store cache.Store, ttl time.Duration) Option {
	return func(s *ContactService) {
		s.cache = store
		s.cacheTTL = ttl
	}
}

func NewContactService(store database.ContactRepository, logger *zap.Logger, opts ...Option) *ContactService {
	s := &ContactService{
		Store:  store,
		logger: logger.Named("contact-service"),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// List returns one page of contacts, newest first.
func (s *ContactService) List(ctx context.Context, q ListQuery) (dto.ContactPage, error) {
	if q.Page < 1 {
		q.Page = dto.DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = dto.DefaultLimit
	}

	var (
		page    dto.ContactPage
		version string
		cached  bool
	)
	if s.cache != nil {
		// taken before the store read so a concurrent mutation wins
		v, err := s.cache.Version(ctx, ListNamespace)
		if err != nil {
			s.logger.Warn("list cache version read failed", zap.Error(err))
		} else {
			version, cached = v, true
			found, err := s.cache.Get(ctx, ListNamespace, q.cacheKey(), &page)
			if err != nil {
				s.logger.Warn("list cache read failed", zap.Error(err))
			} else if found {
				return page, nil
			}
		}
	}

	filter := database.ContactFilter{Search: q.Search}
	if q.Category != "" && q.Category != model.CategoryAll {
		filter.Category = model.Category(q.Category)
	}
	ops := database.PaginationOps{
		Skip:  (q.Page - 1) * q.Limit,
		Limit: q.Limit,
	}

	contacts, total, err := s.Store.FindPage(ctx, filter, ops)
	if err != nil {
		return dto.ContactPage{}, err
	}
	if contacts == nil {
		contacts = []model.Contact{}
	}

	page = dto.ContactPage{
		Contacts: contacts,
		Pagination: dto.Pagination{
			Page:       q.Page,
			Limit:      q.Limit,
			Total:      total,
			TotalPages: dto.TotalPages(total, q.Limit),
		},
	}

	if cached {
		if err := s.cache.SetAt(ctx, ListNamespace, version, q.cacheKey(), page, s.cacheTTL); err != nil {
			s.logger.Warn("list cache write failed", zap.Error(err))
		}
	}
	return page, nil
}

// Get returns the contact with id. Absent and malformed ids are both
// reported as not found.
func (s *ContactService) Get(ctx context.Context, id string) (*model.Contact, error) {
	c, err := s.Store.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, msgContactNotFound)
	}
	return c, nil
}

func (s *ContactService) Create(ctx context.Context, in dto.CreateContact) (*model.Contact, error) {
	in.Normalize()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	c := model.NewContact(in.Name, in.Email, in.Phone, in.Category, in.Message)

	if err := s.Store.Insert(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Debug("contact created", zap.String("id", c.ID))

	s.invalidate(ctx)
	return c, nil
}

// Update applies the provided fields only.
func (s *ContactService) Update(ctx context.Context, id string, in dto.UpdateContact) (*model.Contact, error) {
	in.Normalize()
	if in.Empty() {
		return nil, errs.NewValidation("body", "At least one field must be provided")
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	patch := database.ContactPatch{
		Name:     in.Name,
		Email:    in.Email,
		Phone:    in.Phone,
		Category: in.Category,
		Message:  in.Message,
	}

	c, err := s.Store.UpdateByID(ctx, id, patch)
	if err != nil {
		return nil, notFound(err, msgContactNotFound)
	}

	s.invalidate(ctx)
	return c, nil
}

func (s *ContactService) Delete(ctx context.Context, id string) error {
	if err := s.Store.DeleteByID(ctx, id); err != nil {
		return notFound(err, msgContactNotFound)
	}

	s.invalidate(ctx)
	return nil
}

// BulkDelete removes every listed contact that exists. It only fails with
// not found when nothing was removed.
func (s *ContactService) BulkDelete(ctx context.Context, ids []string) (dto.BulkDeleteResult, error) {
	n, err := s.Store.DeleteMany(ctx, ids)
	if err != nil {
		return dto.BulkDeleteResult{}, err
	}
	if n == 0 {
		return dto.BulkDeleteResult{}, errs.NotFound(msgNoneDeleted)
	}

	s.invalidate(ctx)
	return dto.BulkDeleteResult{
		DeletedCount: n,
		Message:      fmt.Sprintf("Successfully deleted %d contact(s)", n),
	}, nil
}

func (s *ContactService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, ListNamespace); err != nil {
		s.logger.Warn("list cache invalidation failed", zap.Error(err))
	}
}

// notFound gives missing and malformed ids the user facing message.
func notFound(err error, message string) error {
	if errors.Is(err, errs.ErrNotFound) || errors.Is(err, errs.ErrInvalidID) {
		return errs.NotFound(message)
	}
	return err
}
